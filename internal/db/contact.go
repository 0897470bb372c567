package db

import "gorm.io/gorm"

// 通讯录联系人类别
const (
	ContactKindVet      = "vet"
	ContactKindSupplier = "supplier"
	ContactKindBuyer    = "buyer"
	ContactKindOther    = "other"
)

// Contact 用于保存农场的常用联系人（兽医、饲料商、收购方等）
// 支持自定义排序与类别筛选
// Visible 标记是否在通讯录页默认展示
// Sort 值越小越靠前

type Contact struct {
	gorm.Model
	Kind    string `gorm:"size:20;not null"`
	Name    string `gorm:"size:80;not null"`
	Phone   string `gorm:"size:50"`
	Email   string `gorm:"size:150"`
	Company string `gorm:"size:150"`
	Note    string `gorm:"size:255"`
	Sort    int    `gorm:"default:0"`
	Visible bool
}

// TableName 返回自定义表名，避免冲突
func (Contact) TableName() string {
	return "farm_contacts"
}

// ContactKinds 返回全部联系人类别常量。
func ContactKinds() []string {
	return []string{ContactKindVet, ContactKindSupplier, ContactKindBuyer, ContactKindOther}
}

// IsValidContactKind 判断联系人类别是否受支持。
func IsValidContactKind(kind string) bool {
	for _, candidate := range ContactKinds() {
		if candidate == kind {
			return true
		}
	}
	return false
}
