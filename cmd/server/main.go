package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/farmlog/internal/config"
	"github.com/farmlog/internal/db"
	"github.com/farmlog/internal/router"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(db.Options{DSN: cfg.DatabaseURL, SQLitePath: cfg.DatabasePath}); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// 配置了超级管理员账号时保证其存在
	if err := db.EnsureUser(cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
		log.Fatalf("failed to ensure root user: %v", err)
	}

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(cfg.SessionSecret, cfg.UploadDir, cfg.UploadURLPath, "")
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
