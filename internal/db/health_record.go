package db

import (
	"time"

	"gorm.io/gorm"
)

// 健康记录类型
const (
	HealthTypeVaccination = "vaccination"
	HealthTypeTreatment   = "treatment"
	HealthTypeCheckup     = "checkup"
	HealthTypeDeworming   = "deworming"
	HealthTypeSurgery     = "surgery"
)

// HealthRecord 定义了健康记录模型
// 每条记录挂在具体动物下，动物删除时级联删除
// NextDueDate 用于疫苗/驱虫等周期性事项的到期提醒
// Description 为 Markdown 文本
type HealthRecord struct {
	gorm.Model
	AnimalID    uint   `gorm:"index;not null"`
	Animal      Animal `gorm:"constraint:OnDelete:CASCADE"`
	RecordType  string `gorm:"size:20;index;not null"`
	Title       string `gorm:"size:200;not null"`
	Description string `gorm:"type:text"`
	VetName     string `gorm:"size:100"`
	Medicine    string `gorm:"size:200"`
	Cost        float64
	RecordDate  time.Time `gorm:"index"`
	NextDueDate *time.Time
}

// HealthRecordTypes 返回全部健康记录类型常量。
func HealthRecordTypes() []string {
	return []string{
		HealthTypeVaccination,
		HealthTypeTreatment,
		HealthTypeCheckup,
		HealthTypeDeworming,
		HealthTypeSurgery,
	}
}

// IsValidHealthType 判断记录类型是否受支持。
func IsValidHealthType(recordType string) bool {
	for _, candidate := range HealthRecordTypes() {
		if candidate == recordType {
			return true
		}
	}
	return false
}
