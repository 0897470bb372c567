package db

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// 动物支持的物种
const (
	SpeciesCattle  = "cattle"
	SpeciesSheep   = "sheep"
	SpeciesGoat    = "goat"
	SpeciesPig     = "pig"
	SpeciesChicken = "chicken"
	SpeciesHorse   = "horse"
	SpeciesOther   = "other"
)

// 动物性别
const (
	SexMale    = "male"
	SexFemale  = "female"
	SexUnknown = "unknown"
)

// 动物状态
const (
	AnimalStatusActive   = "active"
	AnimalStatusSold     = "sold"
	AnimalStatusDeceased = "deceased"
)

// Animal 定义了牲畜档案模型
// TagNumber 为场内唯一的耳标号，作为日常管理的主要标识
// Species/Sex/Status 仅使用上方常量值
// WeightKg 记录最近一次称重结果，历史数据见 WeightRecord
// Notes 为 Markdown 文本，在详情页渲染
type Animal struct {
	gorm.Model
	TagNumber string `gorm:"size:50;uniqueIndex;not null"`
	Name      string `gorm:"size:100"`
	Species   string `gorm:"size:20;index;not null"`
	Breed     string `gorm:"size:100"`
	Sex       string `gorm:"size:10;default:unknown"`
	Status    string `gorm:"size:20;index;default:active"`
	BirthDate *time.Time
	WeightKg  float64 `gorm:"default:0"`
	PhotoURL  string  `gorm:"size:255"`
	Notes     string  `gorm:"type:text"`
}

// AnimalSpecies 返回全部受支持的物种常量。
func AnimalSpecies() []string {
	return []string{
		SpeciesCattle,
		SpeciesSheep,
		SpeciesGoat,
		SpeciesPig,
		SpeciesChicken,
		SpeciesHorse,
		SpeciesOther,
	}
}

// IsValidSpecies 判断物种取值是否受支持。
func IsValidSpecies(species string) bool {
	for _, candidate := range AnimalSpecies() {
		if candidate == species {
			return true
		}
	}
	return false
}

// NormalizeTagNumber 统一耳标号格式：去除空白并转为大写。
// 耳标号在录入时大小写混杂，统一后用于唯一性校验。
func NormalizeTagNumber(tag string) string {
	return strings.ToUpper(strings.Join(strings.Fields(tag), "-"))
}

// AgeMonths 按参考时间计算月龄，未登记出生日期时返回 -1。
func (a Animal) AgeMonths(now time.Time) int {
	if a.BirthDate == nil || a.BirthDate.After(now) {
		return -1
	}

	y1, m1, d1 := a.BirthDate.Date()
	y2, m2, d2 := now.Date()

	months := (y2-y1)*12 + int(m2) - int(m1)
	if d2 < d1 {
		months--
	}
	if months < 0 {
		return -1
	}
	return months
}
