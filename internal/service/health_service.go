package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/farmlog/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrHealthNotFound 在健康记录不存在时返回
	ErrHealthNotFound = errors.New("health record not found")
	// ErrHealthInvalidInput 在健康记录字段校验失败时返回
	ErrHealthInvalidInput = errors.New("invalid health record input")
)

// 标题最短长度，按字符数计
const minHealthTitleRunes = 3

// HealthService 负责健康记录的增删改查与到期查询
// 记录必须归属某个动物档案，档案删除时记录随之删除

type HealthService struct {
	db *gorm.DB
}

// HealthFilter 描述健康记录列表的筛选条件
// From/To 为记录日期区间，零值表示不限制
type HealthFilter struct {
	AnimalID   uint
	RecordType string
	From       time.Time
	To         time.Time
}

// HealthInput 定义创建/更新健康记录时可配置字段
type HealthInput struct {
	AnimalID    uint
	RecordType  string
	Title       string
	Description string
	VetName     string
	Medicine    string
	Cost        float64
	RecordDate  time.Time
	NextDueDate *time.Time
}

// NewHealthService 构造 HealthService
func NewHealthService(gdb *gorm.DB) *HealthService {
	return &HealthService{db: gdb}
}

// List 返回符合筛选条件的健康记录，按记录日期倒序
func (s *HealthService) List(filter HealthFilter) ([]db.HealthRecord, error) {
	var records []db.HealthRecord

	query := s.db.Model(&db.HealthRecord{}).Preload("Animal")

	if filter.AnimalID > 0 {
		query = query.Where("animal_id = ?", filter.AnimalID)
	}
	if recordType := strings.TrimSpace(filter.RecordType); recordType != "" {
		query = query.Where("record_type = ?", recordType)
	}
	if !filter.From.IsZero() {
		query = query.Where("record_date >= ?", normalizeToDate(filter.From))
	}
	if !filter.To.IsZero() {
		query = query.Where("record_date <= ?", normalizeToDate(filter.To))
	}

	if err := query.Order("record_date DESC").Order("id DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list health records: %w", err)
	}

	return records, nil
}

// Get 根据 ID 获取健康记录
func (s *HealthService) Get(id uint) (*db.HealthRecord, error) {
	var record db.HealthRecord
	if err := s.db.Preload("Animal").First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHealthNotFound
		}
		return nil, fmt.Errorf("get health record: %w", err)
	}
	return &record, nil
}

// Create 新建健康记录
func (s *HealthService) Create(input HealthInput) (*db.HealthRecord, error) {
	if err := s.validateHealthInput(input); err != nil {
		return nil, err
	}

	record := db.HealthRecord{
		AnimalID:    input.AnimalID,
		RecordType:  strings.ToLower(strings.TrimSpace(input.RecordType)),
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		VetName:     strings.TrimSpace(input.VetName),
		Medicine:    strings.TrimSpace(input.Medicine),
		Cost:        input.Cost,
		RecordDate:  normalizeToDate(input.RecordDate),
		NextDueDate: normalizeDuePtr(input.NextDueDate),
	}

	if err := s.db.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("create health record: %w", err)
	}
	return &record, nil
}

// Update 更新健康记录
func (s *HealthService) Update(id uint, input HealthInput) (*db.HealthRecord, error) {
	if err := s.validateHealthInput(input); err != nil {
		return nil, err
	}

	var existing db.HealthRecord
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHealthNotFound
		}
		return nil, fmt.Errorf("find health record: %w", err)
	}

	existing.AnimalID = input.AnimalID
	existing.RecordType = strings.ToLower(strings.TrimSpace(input.RecordType))
	existing.Title = strings.TrimSpace(input.Title)
	existing.Description = input.Description
	existing.VetName = strings.TrimSpace(input.VetName)
	existing.Medicine = strings.TrimSpace(input.Medicine)
	existing.Cost = input.Cost
	existing.RecordDate = normalizeToDate(input.RecordDate)
	existing.NextDueDate = normalizeDuePtr(input.NextDueDate)

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("update health record: %w", err)
	}
	return &existing, nil
}

// Delete 删除健康记录
func (s *HealthService) Delete(id uint) error {
	var record db.HealthRecord
	if err := s.db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrHealthNotFound
		}
		return fmt.Errorf("find health record: %w", err)
	}
	if err := s.db.Delete(&record).Error; err != nil {
		return fmt.Errorf("delete health record: %w", err)
	}
	return nil
}

// DueSoon 返回 leadDays 天内到期的健康记录，按到期日升序
func (s *HealthService) DueSoon(leadDays int) ([]db.HealthRecord, error) {
	if leadDays < 1 {
		leadDays = 1
	}

	today := normalizeToDate(time.Now())
	deadline := today.AddDate(0, 0, leadDays)

	var records []db.HealthRecord
	if err := s.db.Preload("Animal").
		Where("next_due_date IS NOT NULL").
		Where("next_due_date >= ? AND next_due_date <= ?", today, deadline).
		Order("next_due_date ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list due health records: %w", err)
	}

	return records, nil
}

// Overdue 返回已过期未处理的健康记录，按到期日升序
func (s *HealthService) Overdue() ([]db.HealthRecord, error) {
	today := normalizeToDate(time.Now())

	var records []db.HealthRecord
	if err := s.db.Preload("Animal").
		Where("next_due_date IS NOT NULL").
		Where("next_due_date < ?", today).
		Order("next_due_date ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list overdue health records: %w", err)
	}

	return records, nil
}

func (s *HealthService) validateHealthInput(input HealthInput) error {
	if input.AnimalID == 0 {
		return fmt.Errorf("%w: animal id is required", ErrHealthInvalidInput)
	}

	var animal db.Animal
	if err := s.db.First(&animal, input.AnimalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAnimalNotFound
		}
		return fmt.Errorf("find animal: %w", err)
	}

	if !db.IsValidHealthType(strings.ToLower(strings.TrimSpace(input.RecordType))) {
		return fmt.Errorf("%w: unsupported record type %s", ErrHealthInvalidInput, input.RecordType)
	}
	if utf8.RuneCountInString(strings.TrimSpace(input.Title)) < minHealthTitleRunes {
		return fmt.Errorf("%w: title must be at least %d characters", ErrHealthInvalidInput, minHealthTitleRunes)
	}
	if input.Cost < 0 {
		return fmt.Errorf("%w: cost must not be negative", ErrHealthInvalidInput)
	}
	if input.RecordDate.IsZero() {
		return fmt.Errorf("%w: record date is required", ErrHealthInvalidInput)
	}
	return nil
}

func normalizeDuePtr(due *time.Time) *time.Time {
	if due == nil || due.IsZero() {
		return nil
	}
	normalized := normalizeToDate(*due)
	return &normalized
}
