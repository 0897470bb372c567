package db

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

// Options 描述数据库初始化参数。
// DSN 非空时连接 Postgres，否则使用 SQLitePath 指定的本地库。
type Options struct {
	DSN        string
	SQLitePath string
}

// Init 初始化数据库连接并执行自动迁移。
// SQLitePath 为空时将回退到默认值 farmlog.db。
func Init(opts Options) error {
	gdb, err := open(opts)
	if err != nil {
		return err
	}
	DB = gdb

	// 自动迁移模式，为核心模型创建表
	if err = DB.AutoMigrate(
		&User{},
		&Profile{},
		&Animal{},
		&WeightRecord{},
		&HealthRecord{},
		&FarmEvent{},
		&Transaction{},
		&Alert{},
		&Contact{},
		&SystemSetting{},
		&ActivityLog{},
	); err != nil {
		return err
	}

	// 早期版本的牲畜档案缺省状态与性别，补齐为合法值
	if err := DB.Model(&Animal{}).
		Where("status = '' OR status IS NULL").
		Update("status", AnimalStatusActive).Error; err != nil {
		return err
	}
	if err := DB.Model(&Animal{}).
		Where("sex = '' OR sex IS NULL").
		Update("sex", SexUnknown).Error; err != nil {
		return err
	}
	if err := DB.Model(&Alert{}).
		Where("source = '' OR source IS NULL").
		Update("source", AlertSourceManual).Error; err != nil {
		return err
	}

	return nil
}

func open(opts Options) (*gorm.DB, error) {
	if dsn := strings.TrimSpace(opts.DSN); dsn != "" {
		return openPostgres(dsn)
	}

	path := strings.TrimSpace(opts.SQLitePath)
	if path == "" {
		path = "farmlog.db"
	}

	if err := ensureParentDir(path); err != nil {
		return nil, err
	}

	return gorm.Open(sqlite.Open(path), &gorm.Config{})
}

// openPostgres 带重试地连接 Postgres，容器编排下数据库可能晚于应用就绪。
func openPostgres(dsn string) (*gorm.DB, error) {
	const maxAttempts = 10

	var gdb *gorm.DB
	var err error
	for i := 1; i <= maxAttempts; i++ {
		gdb, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err == nil {
			return gdb, nil
		}

		log.Printf("failed to connect to postgres (attempt %d/%d): %v", i, maxAttempts, err)
		time.Sleep(2 * time.Second)
	}

	return nil, err
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
