package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/farmlog/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 默认牧场配置
const (
	defaultFarmName      = "FarmLog"
	defaultCurrency      = "CNY"
	defaultAlertLeadDays = 7
)

// 提醒提前量允许区间，单位天
const (
	minAlertLeadDays = 1
	maxAlertLeadDays = 90
)

var supportedCurrencies = []string{"CNY", "USD", "EUR"}

// ErrSettingsInvalid 在系统设置校验失败时返回。
var ErrSettingsInvalid = errors.New("invalid settings input")

// FarmSettings 描述后台可配置的牧场信息。
type FarmSettings struct {
	FarmName      string
	FarmLogoURL   string
	Currency      string
	AlertLeadDays int
}

// FarmSettingsInput 用于更新牧场设置。
type FarmSettingsInput struct {
	FarmName      string
	FarmLogoURL   string
	Currency      string
	AlertLeadDays int
}

// SystemSettingService 提供牧场设置的读取与更新能力。
type SystemSettingService struct {
	db *gorm.DB
}

// NewSystemSettingService 构造 SystemSettingService。
func NewSystemSettingService(gdb *gorm.DB) *SystemSettingService {
	return &SystemSettingService{db: gdb}
}

var settingKeys = []string{
	db.SettingKeyFarmName,
	db.SettingKeyFarmLogoURL,
	db.SettingKeyCurrency,
	db.SettingKeyAlertLeadDays,
}

// GetSettings 读取牧场设置，如未设置将返回默认值。
func (s *SystemSettingService) GetSettings() (FarmSettings, error) {
	result := FarmSettings{
		FarmName:      defaultFarmName,
		Currency:      defaultCurrency,
		AlertLeadDays: defaultAlertLeadDays,
	}

	var records []db.SystemSetting
	if err := s.db.Where("key IN ?", settingKeys).Find(&records).Error; err != nil {
		return result, fmt.Errorf("load farm settings: %w", err)
	}

	for _, record := range records {
		switch record.Key {
		case db.SettingKeyFarmName:
			if strings.TrimSpace(record.Value) != "" {
				result.FarmName = record.Value
			}
		case db.SettingKeyFarmLogoURL:
			result.FarmLogoURL = record.Value
		case db.SettingKeyCurrency:
			if currency := normalizeCurrency(record.Value); currency != "" {
				result.Currency = currency
			}
		case db.SettingKeyAlertLeadDays:
			if days, err := strconv.Atoi(strings.TrimSpace(record.Value)); err == nil &&
				days >= minAlertLeadDays && days <= maxAlertLeadDays {
				result.AlertLeadDays = days
			}
		}
	}

	return result, nil
}

// UpdateSettings 保存牧场设置，未填写名称时回退默认值。
// 币种必须在受支持列表内，提醒提前量限制在允许区间。
func (s *SystemSettingService) UpdateSettings(input FarmSettingsInput) (FarmSettings, error) {
	currency := normalizeCurrency(input.Currency)
	if currency == "" {
		return FarmSettings{}, fmt.Errorf("%w: unsupported currency %s", ErrSettingsInvalid, input.Currency)
	}
	if input.AlertLeadDays < minAlertLeadDays || input.AlertLeadDays > maxAlertLeadDays {
		return FarmSettings{}, fmt.Errorf("%w: alert lead days must be between %d and %d",
			ErrSettingsInvalid, minAlertLeadDays, maxAlertLeadDays)
	}

	sanitized := FarmSettings{
		FarmName:      strings.TrimSpace(input.FarmName),
		FarmLogoURL:   strings.TrimSpace(input.FarmLogoURL),
		Currency:      currency,
		AlertLeadDays: input.AlertLeadDays,
	}

	if sanitized.FarmName == "" {
		sanitized.FarmName = defaultFarmName
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := upsertSetting(tx, db.SettingKeyFarmName, sanitized.FarmName); err != nil {
			return err
		}
		if err := upsertSetting(tx, db.SettingKeyFarmLogoURL, sanitized.FarmLogoURL); err != nil {
			return err
		}
		if err := upsertSetting(tx, db.SettingKeyCurrency, sanitized.Currency); err != nil {
			return err
		}
		if err := upsertSetting(tx, db.SettingKeyAlertLeadDays, strconv.Itoa(sanitized.AlertLeadDays)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return FarmSettings{}, fmt.Errorf("update farm settings: %w", err)
	}

	return sanitized, nil
}

func upsertSetting(tx *gorm.DB, key, value string) error {
	setting := db.SystemSetting{Key: key, Value: value}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&setting).Error; err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}

func normalizeCurrency(currency string) string {
	trimmed := strings.ToUpper(strings.TrimSpace(currency))
	for _, candidate := range supportedCurrencies {
		if trimmed == candidate {
			return candidate
		}
	}
	return ""
}

// SupportedCurrencies 返回结算币种的全部可选值。
func SupportedCurrencies() []string {
	return append([]string(nil), supportedCurrencies...)
}
