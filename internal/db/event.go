package db

import (
	"time"

	"gorm.io/gorm"
)

// 农事事件类型
const (
	EventTypeBreeding    = "breeding"
	EventTypeWeighing    = "weighing"
	EventTypeShearing    = "shearing"
	EventTypeMaintenance = "maintenance"
	EventTypeHarvest     = "harvest"
	EventTypeOther       = "other"
)

// 农事事件状态
const (
	EventStatusScheduled = "scheduled"
	EventStatusCompleted = "completed"
	EventStatusCancelled = "cancelled"
)

// FarmEvent 定义了农事事件模型
// AnimalID 可选：与具体动物相关的事件（配种、称重）填写，场务类事件留空
// 状态机仅允许 scheduled -> completed / cancelled
type FarmEvent struct {
	gorm.Model
	Title     string `gorm:"size:200;not null"`
	EventType string `gorm:"size:20;index;not null"`
	AnimalID  *uint  `gorm:"index"`
	Animal    *Animal
	StartDate time.Time `gorm:"index"`
	Location  string    `gorm:"size:200"`
	Status    string    `gorm:"size:20;index;default:scheduled"`
	Notes     string    `gorm:"type:text"`
}

// TableName 指定自定义表名。
func (FarmEvent) TableName() string {
	return "farm_events"
}

// FarmEventTypes 返回全部事件类型常量。
func FarmEventTypes() []string {
	return []string{
		EventTypeBreeding,
		EventTypeWeighing,
		EventTypeShearing,
		EventTypeMaintenance,
		EventTypeHarvest,
		EventTypeOther,
	}
}

// IsValidEventType 判断事件类型是否受支持。
func IsValidEventType(eventType string) bool {
	for _, candidate := range FarmEventTypes() {
		if candidate == eventType {
			return true
		}
	}
	return false
}
