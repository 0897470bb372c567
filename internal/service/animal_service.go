package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/farmlog/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrAnimalNotFound 在指定动物不存在时返回
	ErrAnimalNotFound = errors.New("animal not found")
	// ErrAnimalInvalidInput 在档案字段校验失败时返回
	ErrAnimalInvalidInput = errors.New("invalid animal input")
	// ErrAnimalTagTaken 在耳标号与现有档案冲突时返回
	ErrAnimalTagTaken = errors.New("animal tag number already taken")
	// ErrAnimalStatusInvalid 在状态流转不被允许时返回
	ErrAnimalStatusInvalid = errors.New("invalid animal status transition")
)

// AnimalService 负责牲畜档案的增删改查
// 耳标号统一经 db.NormalizeTagNumber 处理后参与唯一性校验
// 档案状态只能由 active 流向 sold 或 deceased，不支持回退

type AnimalService struct {
	db *gorm.DB
}

// AnimalFilter 描述档案列表的筛选条件
// Search 对耳标号、名字、品种做模糊匹配，Species/Status 为精确匹配
type AnimalFilter struct {
	Search  string
	Species string
	Status  string
	Page    int
	PerPage int
}

// AnimalListResult 聚合分页后的档案列表
type AnimalListResult struct {
	Items      []db.Animal
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// AnimalInput 定义创建/更新档案时可配置字段
// Status 不在此处变更，见 UpdateStatus
type AnimalInput struct {
	TagNumber string
	Name      string
	Species   string
	Breed     string
	Sex       string
	BirthDate *time.Time
	WeightKg  float64
	PhotoURL  string
	Notes     string
}

// NewAnimalService 构造 AnimalService
func NewAnimalService(gdb *gorm.DB) *AnimalService {
	return &AnimalService{db: gdb}
}

// List 返回符合筛选条件的档案，分页返回
func (s *AnimalService) List(filter AnimalFilter) (AnimalListResult, error) {
	result := AnimalListResult{
		Page:    normalizePage(filter.Page),
		PerPage: normalizePerPage(filter.PerPage, 20),
	}

	query := s.db.Model(&db.Animal{})
	if species := strings.TrimSpace(filter.Species); species != "" {
		query = query.Where("species = ?", species)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := fmt.Sprintf("%%%s%%", search)
		query = query.Where("tag_number LIKE ? OR name LIKE ? OR breed LIKE ?", like, like, like)
	}

	if err := query.Count(&result.Total).Error; err != nil {
		return result, fmt.Errorf("count animals: %w", err)
	}

	result.TotalPages = calculateTotalPages(result.Total, result.PerPage)
	offset := (result.Page - 1) * result.PerPage

	if err := query.Order("created_at DESC").
		Limit(result.PerPage).
		Offset(offset).
		Find(&result.Items).Error; err != nil {
		return result, fmt.Errorf("list animals: %w", err)
	}

	return result, nil
}

// ListActive 返回全部在养档案，按耳标号排序，用于表单下拉
func (s *AnimalService) ListActive() ([]db.Animal, error) {
	var animals []db.Animal
	if err := s.db.Where("status = ?", db.AnimalStatusActive).
		Order("tag_number ASC").
		Find(&animals).Error; err != nil {
		return nil, fmt.Errorf("list active animals: %w", err)
	}
	return animals, nil
}

// Get 根据 ID 获取档案
func (s *AnimalService) Get(id uint) (*db.Animal, error) {
	var animal db.Animal
	if err := s.db.First(&animal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnimalNotFound
		}
		return nil, fmt.Errorf("get animal: %w", err)
	}
	return &animal, nil
}

// Create 新建档案，耳标号冲突时返回 ErrAnimalTagTaken
func (s *AnimalService) Create(input AnimalInput) (*db.Animal, error) {
	if err := validateAnimalInput(input); err != nil {
		return nil, err
	}

	tag := db.NormalizeTagNumber(input.TagNumber)
	taken, err := s.tagTaken(tag, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrAnimalTagTaken
	}

	animal := db.Animal{
		TagNumber: tag,
		Name:      strings.TrimSpace(input.Name),
		Species:   normalizeSpecies(input.Species),
		Breed:     strings.TrimSpace(input.Breed),
		Sex:       normalizeAnimalSex(input.Sex),
		Status:    db.AnimalStatusActive,
		BirthDate: input.BirthDate,
		WeightKg:  input.WeightKg,
		PhotoURL:  strings.TrimSpace(input.PhotoURL),
		Notes:     input.Notes,
	}

	if err := s.db.Create(&animal).Error; err != nil {
		return nil, fmt.Errorf("create animal: %w", err)
	}
	return &animal, nil
}

// Update 更新档案基础信息，不改动状态
func (s *AnimalService) Update(id uint, input AnimalInput) (*db.Animal, error) {
	if err := validateAnimalInput(input); err != nil {
		return nil, err
	}

	var existing db.Animal
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnimalNotFound
		}
		return nil, fmt.Errorf("find animal: %w", err)
	}

	tag := db.NormalizeTagNumber(input.TagNumber)
	taken, err := s.tagTaken(tag, existing.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrAnimalTagTaken
	}

	existing.TagNumber = tag
	existing.Name = strings.TrimSpace(input.Name)
	existing.Species = normalizeSpecies(input.Species)
	existing.Breed = strings.TrimSpace(input.Breed)
	existing.Sex = normalizeAnimalSex(input.Sex)
	existing.BirthDate = input.BirthDate
	existing.WeightKg = input.WeightKg
	existing.PhotoURL = strings.TrimSpace(input.PhotoURL)
	existing.Notes = input.Notes

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("update animal: %w", err)
	}
	return &existing, nil
}

// UpdateStatus 变更档案状态，仅允许 active 流向 sold/deceased
func (s *AnimalService) UpdateStatus(id uint, status string) (*db.Animal, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != db.AnimalStatusSold && status != db.AnimalStatusDeceased {
		return nil, fmt.Errorf("%w: unsupported status %s", ErrAnimalStatusInvalid, status)
	}

	var animal db.Animal
	if err := s.db.First(&animal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnimalNotFound
		}
		return nil, fmt.Errorf("find animal: %w", err)
	}

	if animal.Status != db.AnimalStatusActive {
		return nil, fmt.Errorf("%w: animal is already %s", ErrAnimalStatusInvalid, animal.Status)
	}

	animal.Status = status
	if err := s.db.Save(&animal).Error; err != nil {
		return nil, fmt.Errorf("update animal status: %w", err)
	}
	return &animal, nil
}

// Delete 删除档案并连带清理
// 健康记录与体重记录随档案删除，事件/收支/提醒保留但解除关联
func (s *AnimalService) Delete(id uint) error {
	var animal db.Animal
	if err := s.db.First(&animal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAnimalNotFound
		}
		return fmt.Errorf("find animal: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("animal_id = ?", animal.ID).Delete(&db.HealthRecord{}).Error; err != nil {
			return fmt.Errorf("delete health records: %w", err)
		}
		if err := tx.Where("animal_id = ?", animal.ID).Delete(&db.WeightRecord{}).Error; err != nil {
			return fmt.Errorf("delete weight records: %w", err)
		}
		if err := tx.Model(&db.FarmEvent{}).Where("animal_id = ?", animal.ID).
			Update("animal_id", nil).Error; err != nil {
			return fmt.Errorf("detach events: %w", err)
		}
		if err := tx.Model(&db.Transaction{}).Where("animal_id = ?", animal.ID).
			Update("animal_id", nil).Error; err != nil {
			return fmt.Errorf("detach transactions: %w", err)
		}
		if err := tx.Model(&db.Alert{}).Where("animal_id = ?", animal.ID).
			Update("animal_id", nil).Error; err != nil {
			return fmt.Errorf("detach alerts: %w", err)
		}
		if err := tx.Delete(&animal).Error; err != nil {
			return fmt.Errorf("delete animal: %w", err)
		}
		return nil
	})
}

func (s *AnimalService) tagTaken(tag string, excludeID uint) (bool, error) {
	var count int64
	query := s.db.Model(&db.Animal{}).Where("tag_number = ?", tag)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("count animals by tag: %w", err)
	}
	return count > 0, nil
}

func validateAnimalInput(input AnimalInput) error {
	if db.NormalizeTagNumber(input.TagNumber) == "" {
		return fmt.Errorf("%w: tag number is required", ErrAnimalInvalidInput)
	}
	if !db.IsValidSpecies(normalizeSpecies(input.Species)) {
		return fmt.Errorf("%w: unsupported species %s", ErrAnimalInvalidInput, input.Species)
	}
	sex := normalizeAnimalSex(input.Sex)
	if sex != db.SexMale && sex != db.SexFemale && sex != db.SexUnknown {
		return fmt.Errorf("%w: unsupported sex %s", ErrAnimalInvalidInput, input.Sex)
	}
	if input.WeightKg < 0 {
		return fmt.Errorf("%w: weight must not be negative", ErrAnimalInvalidInput)
	}
	return nil
}

func normalizeSpecies(species string) string {
	return strings.ToLower(strings.TrimSpace(species))
}

func normalizeAnimalSex(sex string) string {
	sex = strings.ToLower(strings.TrimSpace(sex))
	if sex == "" {
		return db.SexUnknown
	}
	return sex
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func normalizePerPage(perPage, fallback int) int {
	if perPage <= 0 {
		return fallback
	}
	return perPage
}

func calculateTotalPages(total int64, perPage int) int {
	if perPage <= 0 {
		return 1
	}
	if total == 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

var (
	// ErrWeightNotFound 在体重记录不存在时返回
	ErrWeightNotFound = errors.New("weight record not found")
	// ErrWeightInvalid 在体重输入非法时返回
	ErrWeightInvalid = errors.New("invalid weight record")
)

// WeightService 负责体重记录与档案体重镜像
// 同一动物同一天重复称重按更新处理，档案上的 WeightKg 始终等于最近一次记录

type WeightService struct {
	db *gorm.DB
}

// WeightInput 定义称重时的输入对象
type WeightInput struct {
	AnimalID   uint
	MeasuredOn time.Time
	WeightKg   float64
	Note       string
}

// NewWeightService 构造 WeightService
func NewWeightService(gdb *gorm.DB) *WeightService {
	return &WeightService{db: gdb}
}

// Record 处理幂等称重逻辑：同日已有记录则更新，否则创建
// 成功后将最新一次体重回写到动物档案
func (s *WeightService) Record(input WeightInput) (*db.WeightRecord, error) {
	if input.AnimalID == 0 {
		return nil, fmt.Errorf("%w: animal id is required", ErrWeightInvalid)
	}
	if input.WeightKg <= 0 {
		return nil, fmt.Errorf("%w: weight must be positive", ErrWeightInvalid)
	}

	var animal db.Animal
	if err := s.db.First(&animal, input.AnimalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnimalNotFound
		}
		return nil, fmt.Errorf("find animal: %w", err)
	}

	measuredOn := normalizeToDate(input.MeasuredOn)
	record := db.WeightRecord{
		AnimalID:   input.AnimalID,
		MeasuredOn: measuredOn,
		WeightKg:   input.WeightKg,
		Note:       strings.TrimSpace(input.Note),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "animal_id"}, {Name: "measured_on"}},
			DoUpdates: clause.AssignmentColumns([]string{"weight_kg", "note", "updated_at"}),
		}).Create(&record).Error; err != nil {
			return fmt.Errorf("upsert weight record: %w", err)
		}

		if err := tx.Where("animal_id = ? AND measured_on = ?", input.AnimalID, measuredOn).
			First(&record).Error; err != nil {
			return fmt.Errorf("reload weight record: %w", err)
		}

		return s.mirrorLatestWeight(tx, input.AnimalID)
	})
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// List 返回指定动物的体重记录，按称重日期升序
func (s *WeightService) List(animalID uint) ([]db.WeightRecord, error) {
	var records []db.WeightRecord
	if err := s.db.Where("animal_id = ?", animalID).
		Order("measured_on ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list weight records: %w", err)
	}
	return records, nil
}

// Delete 删除体重记录，删除后若仍有记录则回写最新体重
func (s *WeightService) Delete(id uint) error {
	var record db.WeightRecord
	if err := s.db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWeightNotFound
		}
		return fmt.Errorf("find weight record: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&record).Error; err != nil {
			return fmt.Errorf("delete weight record: %w", err)
		}
		return s.mirrorLatestWeight(tx, record.AnimalID)
	})
}

func (s *WeightService) mirrorLatestWeight(tx *gorm.DB, animalID uint) error {
	var latest db.WeightRecord
	err := tx.Where("animal_id = ?", animalID).
		Order("measured_on DESC").
		First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find latest weight: %w", err)
	}

	if err := tx.Model(&db.Animal{}).Where("id = ?", animalID).
		Update("weight_kg", latest.WeightKg).Error; err != nil {
		return fmt.Errorf("mirror latest weight: %w", err)
	}
	return nil
}

func normalizeToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
