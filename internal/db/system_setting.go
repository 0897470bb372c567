package db

import "gorm.io/gorm"

// SystemSetting 存储后台可配置的系统级键值对。
type SystemSetting struct {
	gorm.Model
	Key   string `gorm:"size:100;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// TableName 自定义表名以保持命名一致。
func (SystemSetting) TableName() string {
	return "system_settings"
}

const (
	// SettingKeyFarmName 表示农场名称。
	SettingKeyFarmName = "farm_name"
	// SettingKeyFarmLogoURL 表示农场 Logo 链接。
	SettingKeyFarmLogoURL = "farm_logo_url"
	// SettingKeyCurrency 表示财务模块使用的币种代码。
	SettingKeyCurrency = "currency"
	// SettingKeyAlertLeadDays 表示到期提醒的提前天数。
	SettingKeyAlertLeadDays = "alert_lead_days"
)
