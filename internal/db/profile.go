package db

import "gorm.io/gorm"

// Profile 保存用户的个人资料
// 与 User 一一对应，首次保存时创建
// Bio 为 Markdown 文本，在个人资料页渲染
type Profile struct {
	gorm.Model
	UserID      uint   `gorm:"uniqueIndex;not null"`
	User        User   `gorm:"constraint:OnDelete:CASCADE"`
	DisplayName string `gorm:"size:100"`
	Phone       string `gorm:"size:50"`
	Email       string `gorm:"size:150"`
	Address     string `gorm:"size:255"`
	Bio         string `gorm:"type:text"`
	AvatarURL   string `gorm:"size:255"`
}
