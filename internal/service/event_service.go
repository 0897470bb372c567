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
	// ErrEventNotFound 在农事事件不存在时返回
	ErrEventNotFound = errors.New("farm event not found")
	// ErrEventInvalidInput 在事件字段校验失败时返回
	ErrEventInvalidInput = errors.New("invalid farm event input")
	// ErrEventStatusInvalid 在事件状态流转不被允许时返回
	ErrEventStatusInvalid = errors.New("invalid farm event status transition")
)

// 事件标题最短长度，按字符数计
const minEventTitleRunes = 3

// EventService 负责农事事件的增删改查与状态流转
// 事件可以不关联动物档案，关联档案删除后保留事件但清除关联
// 状态只能由 scheduled 流向 completed 或 cancelled

type EventService struct {
	db *gorm.DB
}

// EventFilter 描述事件列表的筛选条件
// Search 对标题、地点做模糊匹配，From/To 为开始日期区间
type EventFilter struct {
	Search    string
	EventType string
	Status    string
	From      time.Time
	To        time.Time
}

// EventInput 定义创建/更新事件时可配置字段
// 状态不在此处变更，见 MarkCompleted/MarkCancelled
type EventInput struct {
	Title     string
	EventType string
	AnimalID  *uint
	StartDate time.Time
	Location  string
	Notes     string
}

// NewEventService 构造 EventService
func NewEventService(gdb *gorm.DB) *EventService {
	return &EventService{db: gdb}
}

// List 返回符合筛选条件的事件，按开始日期倒序
func (s *EventService) List(filter EventFilter) ([]db.FarmEvent, error) {
	var events []db.FarmEvent

	query := s.db.Model(&db.FarmEvent{}).Preload("Animal")

	if eventType := strings.TrimSpace(filter.EventType); eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if !filter.From.IsZero() {
		query = query.Where("start_date >= ?", normalizeToDate(filter.From))
	}
	if !filter.To.IsZero() {
		query = query.Where("start_date <= ?", normalizeToDate(filter.To))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := fmt.Sprintf("%%%s%%", search)
		query = query.Where("title LIKE ? OR location LIKE ?", like, like)
	}

	if err := query.Order("start_date DESC").Order("id DESC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list farm events: %w", err)
	}

	return events, nil
}

// Get 根据 ID 获取事件
func (s *EventService) Get(id uint) (*db.FarmEvent, error) {
	var event db.FarmEvent
	if err := s.db.Preload("Animal").First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("get farm event: %w", err)
	}
	return &event, nil
}

// Create 新建事件，初始状态固定为 scheduled
func (s *EventService) Create(input EventInput) (*db.FarmEvent, error) {
	if err := s.validateEventInput(input); err != nil {
		return nil, err
	}

	event := db.FarmEvent{
		Title:     strings.TrimSpace(input.Title),
		EventType: strings.ToLower(strings.TrimSpace(input.EventType)),
		AnimalID:  normalizeAnimalRef(input.AnimalID),
		StartDate: normalizeToDate(input.StartDate),
		Location:  strings.TrimSpace(input.Location),
		Status:    db.EventStatusScheduled,
		Notes:     input.Notes,
	}

	if err := s.db.Create(&event).Error; err != nil {
		return nil, fmt.Errorf("create farm event: %w", err)
	}
	return &event, nil
}

// Update 更新事件基础信息，不改动状态
func (s *EventService) Update(id uint, input EventInput) (*db.FarmEvent, error) {
	if err := s.validateEventInput(input); err != nil {
		return nil, err
	}

	var existing db.FarmEvent
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("find farm event: %w", err)
	}

	existing.Title = strings.TrimSpace(input.Title)
	existing.EventType = strings.ToLower(strings.TrimSpace(input.EventType))
	existing.AnimalID = normalizeAnimalRef(input.AnimalID)
	existing.StartDate = normalizeToDate(input.StartDate)
	existing.Location = strings.TrimSpace(input.Location)
	existing.Notes = input.Notes

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("update farm event: %w", err)
	}
	return &existing, nil
}

// MarkCompleted 将事件标记为已完成，仅允许从 scheduled 流转
func (s *EventService) MarkCompleted(id uint) (*db.FarmEvent, error) {
	return s.transition(id, db.EventStatusCompleted)
}

// MarkCancelled 将事件标记为已取消，仅允许从 scheduled 流转
func (s *EventService) MarkCancelled(id uint) (*db.FarmEvent, error) {
	return s.transition(id, db.EventStatusCancelled)
}

// Delete 删除事件
func (s *EventService) Delete(id uint) error {
	var event db.FarmEvent
	if err := s.db.First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("find farm event: %w", err)
	}
	if err := s.db.Delete(&event).Error; err != nil {
		return fmt.Errorf("delete farm event: %w", err)
	}
	return nil
}

// Upcoming 返回未来 days 天内待执行的事件，按开始日期升序
func (s *EventService) Upcoming(days int) ([]db.FarmEvent, error) {
	if days < 1 {
		days = 1
	}

	today := normalizeToDate(time.Now())
	deadline := today.AddDate(0, 0, days)

	var events []db.FarmEvent
	if err := s.db.Preload("Animal").
		Where("status = ?", db.EventStatusScheduled).
		Where("start_date >= ? AND start_date <= ?", today, deadline).
		Order("start_date ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}

	return events, nil
}

func (s *EventService) transition(id uint, target string) (*db.FarmEvent, error) {
	var event db.FarmEvent
	if err := s.db.First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("find farm event: %w", err)
	}

	if event.Status != db.EventStatusScheduled {
		return nil, fmt.Errorf("%w: event is already %s", ErrEventStatusInvalid, event.Status)
	}

	event.Status = target
	if err := s.db.Save(&event).Error; err != nil {
		return nil, fmt.Errorf("update event status: %w", err)
	}
	return &event, nil
}

func (s *EventService) validateEventInput(input EventInput) error {
	if utf8.RuneCountInString(strings.TrimSpace(input.Title)) < minEventTitleRunes {
		return fmt.Errorf("%w: title must be at least %d characters", ErrEventInvalidInput, minEventTitleRunes)
	}
	if !db.IsValidEventType(strings.ToLower(strings.TrimSpace(input.EventType))) {
		return fmt.Errorf("%w: unsupported event type %s", ErrEventInvalidInput, input.EventType)
	}
	if input.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrEventInvalidInput)
	}

	if ref := normalizeAnimalRef(input.AnimalID); ref != nil {
		var animal db.Animal
		if err := s.db.First(&animal, *ref).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAnimalNotFound
			}
			return fmt.Errorf("find animal: %w", err)
		}
	}
	return nil
}

// normalizeAnimalRef 将 0 视为未关联档案
func normalizeAnimalRef(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	return id
}
