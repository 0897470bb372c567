package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/farmlog/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrProfileInvalidInput 在个人资料输入不完整时返回
	ErrProfileInvalidInput = errors.New("invalid profile input")
)

// ProfileService 负责维护登录用户的个人资料
// 每个用户至多一行资料，保存时按 user_id 幂等更新

type ProfileService struct {
	db *gorm.DB
}

// NewProfileService 构造 ProfileService
func NewProfileService(gdb *gorm.DB) *ProfileService {
	return &ProfileService{db: gdb}
}

// ProfileInput 描述更新个人资料时可设置的字段
type ProfileInput struct {
	DisplayName string
	Phone       string
	Email       string
	Address     string
	Bio         string
	AvatarURL   string
}

// GetByUser 返回指定用户的资料，尚未填写时返回空白资料
func (s *ProfileService) GetByUser(userID uint) (*db.Profile, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w: user id is required", ErrProfileInvalidInput)
	}

	var profile db.Profile
	if err := s.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &db.Profile{UserID: userID}, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &profile, nil
}

// Upsert 保存用户资料，不存在时创建
func (s *ProfileService) Upsert(userID uint, input ProfileInput) (*db.Profile, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w: user id is required", ErrProfileInvalidInput)
	}
	if strings.TrimSpace(input.DisplayName) == "" {
		return nil, fmt.Errorf("%w: display name is required", ErrProfileInvalidInput)
	}

	profile := db.Profile{
		UserID:      userID,
		DisplayName: strings.TrimSpace(input.DisplayName),
		Phone:       strings.TrimSpace(input.Phone),
		Email:       strings.TrimSpace(input.Email),
		Address:     strings.TrimSpace(input.Address),
		Bio:         input.Bio,
		AvatarURL:   strings.TrimSpace(input.AvatarURL),
	}

	if err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"display_name", "phone", "email", "address", "bio", "avatar_url", "updated_at",
		}),
	}).Create(&profile).Error; err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	if err := s.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, fmt.Errorf("reload profile: %w", err)
	}

	return &profile, nil
}
