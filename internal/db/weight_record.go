package db

import (
	"time"

	"gorm.io/gorm"
)

// WeightRecord 记录单次称重结果
// Animal + MeasuredOn 建唯一索引，同一天重复称重按更新处理
// 最近一次称重会回写到 Animal.WeightKg，便于列表页直接展示
type WeightRecord struct {
	gorm.Model
	AnimalID   uint      `gorm:"index;index:idx_weight_animal_date,unique"`
	Animal     Animal    `gorm:"constraint:OnDelete:CASCADE"`
	MeasuredOn time.Time `gorm:"index:idx_weight_animal_date,unique"`
	WeightKg   float64   `gorm:"not null"`
	Note       string    `gorm:"size:255"`
}

// TableName 重写确保唯一索引作用到 animal_id + measured_on
func (WeightRecord) TableName() string {
	return "weight_records"
}
