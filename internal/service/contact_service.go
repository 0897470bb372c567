package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/farmlog/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrContactNotFound 在指定的联系人不存在时返回
	ErrContactNotFound = errors.New("contact not found")
	// ErrContactInvalidInput 在联系人输入不完整时返回
	ErrContactInvalidInput = errors.New("invalid contact input")
)

// ContactService 负责维护牧场通讯录
// 兽医、饲料供应商、收购商等外部联系人集中在此管理
// 提供排序、增删改查能力，与 handler 解耦

type ContactService struct {
	db *gorm.DB
}

// NewContactService 构造 ContactService
func NewContactService(gdb *gorm.DB) *ContactService {
	return &ContactService{db: gdb}
}

// ContactInput 描述创建或更新联系人时可设置的字段
// Sort/Visible 使用指针判断是否显式传入

type ContactInput struct {
	Kind    string
	Name    string
	Phone   string
	Email   string
	Company string
	Note    string
	Sort    *int
	Visible *bool
}

// List 返回联系人集合，默认按照排序值升序
// 如果 includeHidden 为 false，则过滤掉 Visible=false 的条目
func (s *ContactService) List(includeHidden bool) ([]db.Contact, error) {
	query := s.db.Model(&db.Contact{})
	if !includeHidden {
		query = query.Where("visible = ?", true)
	}

	var items []db.Contact
	if err := query.Order("sort ASC, id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	return items, nil
}

// Get 根据主键获取联系人
func (s *ContactService) Get(id uint) (*db.Contact, error) {
	var item db.Contact
	if err := s.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return &item, nil
}

// Create 新建联系人，未指定排序时自动追加到末尾
func (s *ContactService) Create(input ContactInput) (*db.Contact, error) {
	if err := validateContactInput(input); err != nil {
		return nil, err
	}

	sortValue, err := s.resolveSort(input.Sort)
	if err != nil {
		return nil, err
	}

	visible := true
	if input.Visible != nil {
		visible = *input.Visible
	}

	contact := db.Contact{
		Kind:    strings.ToLower(strings.TrimSpace(input.Kind)),
		Name:    strings.TrimSpace(input.Name),
		Phone:   strings.TrimSpace(input.Phone),
		Email:   strings.TrimSpace(input.Email),
		Company: strings.TrimSpace(input.Company),
		Note:    strings.TrimSpace(input.Note),
		Sort:    sortValue,
		Visible: visible,
	}

	if err := s.db.Create(&contact).Error; err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}

	return &contact, nil
}

// Update 更新指定联系人
func (s *ContactService) Update(id uint, input ContactInput) (*db.Contact, error) {
	if err := validateContactInput(input); err != nil {
		return nil, err
	}

	var contact db.Contact
	if err := s.db.First(&contact, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("find contact: %w", err)
	}

	contact.Kind = strings.ToLower(strings.TrimSpace(input.Kind))
	contact.Name = strings.TrimSpace(input.Name)
	contact.Phone = strings.TrimSpace(input.Phone)
	contact.Email = strings.TrimSpace(input.Email)
	contact.Company = strings.TrimSpace(input.Company)
	contact.Note = strings.TrimSpace(input.Note)

	if input.Sort != nil {
		contact.Sort = *input.Sort
	}
	if input.Visible != nil {
		contact.Visible = *input.Visible
	}

	if err := s.db.Save(&contact).Error; err != nil {
		return nil, fmt.Errorf("update contact: %w", err)
	}

	return &contact, nil
}

// Delete 删除指定联系人
func (s *ContactService) Delete(id uint) error {
	if err := s.db.Delete(&db.Contact{}, id).Error; err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return nil
}

// Reorder 按给定顺序重排排序字段
// 传入的 IDs 会被依次赋值 0,1,2...，未包含的条目保持原排序
func (s *ContactService) Reorder(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for index, id := range ids {
			if err := tx.Model(&db.Contact{}).Where("id = ?", id).Update("sort", index).Error; err != nil {
				return fmt.Errorf("reorder contacts: %w", err)
			}
		}
		return nil
	})
}

func (s *ContactService) resolveSort(sortPtr *int) (int, error) {
	if sortPtr != nil {
		return *sortPtr, nil
	}

	var maxSort int
	if err := s.db.Model(&db.Contact{}).Select("COALESCE(MAX(sort), -1)").Scan(&maxSort).Error; err != nil {
		return 0, fmt.Errorf("resolve contact sort: %w", err)
	}

	return maxSort + 1, nil
}

func validateContactInput(input ContactInput) error {
	if !db.IsValidContactKind(strings.ToLower(strings.TrimSpace(input.Kind))) {
		return fmt.Errorf("%w: unsupported kind %s", ErrContactInvalidInput, input.Kind)
	}
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrContactInvalidInput)
	}
	return nil
}
