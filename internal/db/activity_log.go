package db

import "time"

// 操作日志实体类别
const (
	ActivityEntityAnimal      = "animal"
	ActivityEntityHealth      = "health_record"
	ActivityEntityEvent       = "event"
	ActivityEntityTransaction = "transaction"
	ActivityEntityAlert       = "alert"
	ActivityEntityContact     = "contact"
	ActivityEntitySetting     = "setting"
)

// 操作日志动作
const (
	ActivityActionCreate = "create"
	ActivityActionUpdate = "update"
	ActivityActionDelete = "delete"
	ActivityActionStatus = "status_change"
)

// ActivityLog 记录后台的增删改操作，供仪表盘动态流展示
// 只追加不修改，失败时静默丢弃，不影响主流程
type ActivityLog struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	UserID uint `gorm:"index"`
	User   User

	Entity   string `gorm:"size:30;index;not null"`
	EntityID uint
	Action   string `gorm:"size:30;not null"`
	Details  string `gorm:"size:255"`
}

// TableName 指定自定义表名。
func (ActivityLog) TableName() string {
	return "activity_logs"
}
