package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/farmlog/internal/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrAlertNotFound 在提醒不存在时返回
	ErrAlertNotFound = errors.New("alert not found")
	// ErrAlertInvalidInput 在提醒字段校验失败时返回
	ErrAlertInvalidInput = errors.New("invalid alert input")
)

// AlertService 负责提醒的生成、查询与已读管理
// 自动生成的提醒以 (source, reference) 去重，重复生成只更新内容不重置已读状态

type AlertService struct {
	db *gorm.DB
}

// AlertInput 定义手动创建提醒时可配置字段
type AlertInput struct {
	Title    string
	Message  string
	Severity string
	AnimalID *uint
	DueDate  *time.Time
}

// NewAlertService 构造 AlertService
func NewAlertService(gdb *gorm.DB) *AlertService {
	return &AlertService{db: gdb}
}

// List 返回提醒列表，未读在前、新建在前
func (s *AlertService) List(onlyUnread bool) ([]db.Alert, error) {
	var alerts []db.Alert

	query := s.db.Model(&db.Alert{}).Preload("Animal")
	if onlyUnread {
		query = query.Where("is_read = ?", false)
	}

	if err := query.Order("is_read ASC").Order("created_at DESC").Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}

	return alerts, nil
}

// UnreadCount 返回未读提醒数量
func (s *AlertService) UnreadCount() (int64, error) {
	var count int64
	if err := s.db.Model(&db.Alert{}).Where("is_read = ?", false).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count unread alerts: %w", err)
	}
	return count, nil
}

// Create 手动创建提醒，引用号自动生成以避免与自动提醒冲突
func (s *AlertService) Create(input AlertInput) (*db.Alert, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrAlertInvalidInput)
	}

	severity := strings.ToLower(strings.TrimSpace(input.Severity))
	if severity == "" {
		severity = db.AlertSeverityInfo
	}
	if severity != db.AlertSeverityInfo && severity != db.AlertSeverityWarning && severity != db.AlertSeverityCritical {
		return nil, fmt.Errorf("%w: unsupported severity %s", ErrAlertInvalidInput, input.Severity)
	}

	if ref := normalizeAnimalRef(input.AnimalID); ref != nil {
		var animal db.Animal
		if err := s.db.First(&animal, *ref).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAnimalNotFound
			}
			return nil, fmt.Errorf("find animal: %w", err)
		}
	}

	alert := db.Alert{
		Title:     title,
		Message:   strings.TrimSpace(input.Message),
		Severity:  severity,
		Source:    db.AlertSourceManual,
		Reference: uuid.NewString(),
		AnimalID:  normalizeAnimalRef(input.AnimalID),
		DueDate:   normalizeDuePtr(input.DueDate),
	}

	if err := s.db.Create(&alert).Error; err != nil {
		return nil, fmt.Errorf("create alert: %w", err)
	}
	return &alert, nil
}

// MarkRead 将单条提醒标记为已读
func (s *AlertService) MarkRead(id uint) (*db.Alert, error) {
	var alert db.Alert
	if err := s.db.First(&alert, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, fmt.Errorf("find alert: %w", err)
	}

	if alert.IsRead {
		return &alert, nil
	}

	alert.IsRead = true
	if err := s.db.Save(&alert).Error; err != nil {
		return nil, fmt.Errorf("mark alert read: %w", err)
	}
	return &alert, nil
}

// MarkAllRead 将全部未读提醒标记为已读，返回影响条数
func (s *AlertService) MarkAllRead() (int64, error) {
	result := s.db.Model(&db.Alert{}).Where("is_read = ?", false).Update("is_read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("mark all alerts read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Delete 删除提醒
func (s *AlertService) Delete(id uint) error {
	var alert db.Alert
	if err := s.db.First(&alert, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAlertNotFound
		}
		return fmt.Errorf("find alert: %w", err)
	}
	if err := s.db.Delete(&alert).Error; err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}
	return nil
}

// GenerateDueAlerts 扫描临期健康记录与待执行事件并生成提醒
// 幂等：同一来源记录重复生成只更新标题、内容与到期日
// 返回本次处理的提醒数量
func (s *AlertService) GenerateDueAlerts(leadDays int) (int, error) {
	if leadDays < 1 {
		leadDays = 1
	}

	today := normalizeToDate(time.Now())
	deadline := today.AddDate(0, 0, leadDays)

	var healthRecords []db.HealthRecord
	if err := s.db.Preload("Animal").
		Where("next_due_date IS NOT NULL").
		Where("next_due_date >= ? AND next_due_date <= ?", today, deadline).
		Find(&healthRecords).Error; err != nil {
		return 0, fmt.Errorf("scan due health records: %w", err)
	}

	var events []db.FarmEvent
	if err := s.db.
		Where("status = ?", db.EventStatusScheduled).
		Where("start_date >= ? AND start_date <= ?", today, deadline).
		Find(&events).Error; err != nil {
		return 0, fmt.Errorf("scan due events: %w", err)
	}

	alerts := make([]db.Alert, 0, len(healthRecords)+len(events))

	for _, record := range healthRecords {
		due := record.NextDueDate
		animalID := record.AnimalID
		alerts = append(alerts, db.Alert{
			Title:     record.Title,
			Message:   fmt.Sprintf("耳标 %s 的「%s」将于 %s 到期", record.Animal.TagNumber, record.Title, due.Format("2006-01-02")),
			Severity:  db.AlertSeverityWarning,
			Source:    db.AlertSourceHealthDue,
			Reference: fmt.Sprintf("health-%d", record.ID),
			AnimalID:  &animalID,
			DueDate:   due,
		})
	}

	for _, event := range events {
		start := event.StartDate
		alerts = append(alerts, db.Alert{
			Title:     event.Title,
			Message:   fmt.Sprintf("事件「%s」将于 %s 开始", event.Title, start.Format("2006-01-02")),
			Severity:  db.AlertSeverityWarning,
			Source:    db.AlertSourceEventDue,
			Reference: fmt.Sprintf("event-%d", event.ID),
			AnimalID:  event.AnimalID,
			DueDate:   &start,
		})
	}

	if len(alerts) == 0 {
		return 0, nil
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range alerts {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "source"}, {Name: "reference"}},
				DoUpdates: clause.AssignmentColumns([]string{"title", "message", "due_date", "updated_at"}),
			}).Create(&alerts[i]).Error; err != nil {
				return fmt.Errorf("upsert alert %s/%s: %w", alerts[i].Source, alerts[i].Reference, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(alerts), nil
}
