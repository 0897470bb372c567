package db

import (
	"time"

	"gorm.io/gorm"
)

// 提醒级别
const (
	AlertSeverityInfo     = "info"
	AlertSeverityWarning  = "warning"
	AlertSeverityCritical = "critical"
)

// 提醒来源
const (
	AlertSourceManual    = "manual"
	AlertSourceHealthDue = "health_due"
	AlertSourceEventDue  = "event_due"
)

// Alert 定义了提醒模型
// Source + Reference 建唯一索引：自动生成的提醒按来源记录去重，
// 重复扫描只更新内容不产生重复条目；手动提醒在创建时生成随机 Reference
type Alert struct {
	gorm.Model
	Title     string `gorm:"size:200;not null"`
	Message   string `gorm:"type:text"`
	Severity  string `gorm:"size:10;index;default:info"`
	Source    string `gorm:"size:20;index:idx_alert_source_ref,unique;default:manual"`
	Reference string `gorm:"size:64;index:idx_alert_source_ref,unique"`
	IsRead    bool   `gorm:"index;default:false"`
	AnimalID  *uint  `gorm:"index"`
	Animal    *Animal
	DueDate   *time.Time
}
