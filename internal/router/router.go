package router

import (
	"fmt"
	"html/template"
	"time"

	"github.com/farmlog/internal/db"
	"github.com/farmlog/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const defaultTemplateGlob = "web/template/admin/*.html"

// SetupRouter 配置 Gin 引擎和路由
// templateGlob 留空时使用默认模板路径，测试可传入相对于自身目录的路径。
func SetupRouter(sessionSecret, uploadDir, uploadURLPath, templateGlob string) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("farmlog_session", store))

	// 加载模板并添加自定义函数
	r.SetFuncMap(template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"mul": func(a, b int) int {
			return a * b
		},
		"gt": func(a, b int) bool {
			return a > b
		},
		"lt": func(a, b int) bool {
			return a < b
		},
		"eq": func(a, b interface{}) bool {
			return a == b
		},
		"reltime": func(t time.Time) string {
			return formatRelativeTime(time.Now(), t)
		},
	})
	if templateGlob == "" {
		templateGlob = defaultTemplateGlob
	}
	r.LoadHTMLGlob(templateGlob)

	// 静态文件服务
	r.Static("/static", "./web/static")
	if uploadURLPath != "" && uploadURLPath != "/static" {
		r.Static(uploadURLPath, uploadDir)
	}

	api := handler.NewAPI(db.DB, uploadDir, uploadURLPath)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	r.GET("/healthz", api.HealthCheck)

	r.GET("/", func(c *gin.Context) {
		c.Redirect(302, "/farm/dashboard")
	})

	// 牧场管理路由
	farm := r.Group("/farm")
	{
		farm.GET("/login", handler.ShowLoginPage)
		farm.POST("/login", handler.Login)
		farm.GET("/register", handler.ShowRegisterPage)
		farm.POST("/register", handler.Register)
		farm.GET("/logout", handler.Logout)

		// 需要认证的后台路由
		auth := farm.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("/dashboard", api.ShowDashboard)
			auth.GET("/animals", api.ShowAnimalList)
			auth.GET("/animals/new", api.ShowAnimalEdit)
			auth.GET("/animals/:id", api.ShowAnimalDetail)
			auth.GET("/animals/:id/edit", api.ShowAnimalEdit)
			auth.GET("/health", api.ShowHealthList)
			auth.GET("/events", api.ShowEventList)
			auth.GET("/finance", api.ShowFinanceList)
			auth.GET("/alerts", api.ShowAlertList)
			auth.GET("/contacts", api.ShowContactList)
			auth.GET("/profile", api.ShowProfile)
			auth.GET("/settings", api.ShowSystemSettings)

			// API路由
			apiGroup := auth.Group("/api")
			{
				apiGroup.GET("/session", api.GetSession)

				apiGroup.GET("/dashboard/overview", api.GetDashboardOverview)
				apiGroup.GET("/activities", api.ListRecentActivity)

				apiGroup.GET("/animals", api.ListAnimals)
				apiGroup.POST("/animals", api.CreateAnimal)
				apiGroup.GET("/animals/:id", api.GetAnimal)
				apiGroup.PUT("/animals/:id", api.UpdateAnimal)
				apiGroup.PUT("/animals/:id/status", api.UpdateAnimalStatus)
				apiGroup.DELETE("/animals/:id", api.DeleteAnimal)
				apiGroup.GET("/animals/:id/weights", api.ListAnimalWeights)
				apiGroup.POST("/animals/:id/weights", api.RecordAnimalWeight)
				apiGroup.DELETE("/weights/:id", api.DeleteWeightRecord)

				apiGroup.GET("/health-records", api.ListHealthRecords)
				apiGroup.GET("/health-records/due", api.ListHealthDue)
				apiGroup.GET("/health-records/:id", api.GetHealthRecord)
				apiGroup.POST("/health-records", api.CreateHealthRecord)
				apiGroup.PUT("/health-records/:id", api.UpdateHealthRecord)
				apiGroup.DELETE("/health-records/:id", api.DeleteHealthRecord)

				apiGroup.GET("/events", api.ListEvents)
				apiGroup.GET("/events/upcoming", api.ListUpcomingEvents)
				apiGroup.GET("/events/:id", api.GetEvent)
				apiGroup.POST("/events", api.CreateEvent)
				apiGroup.PUT("/events/:id", api.UpdateEvent)
				apiGroup.PUT("/events/:id/complete", api.CompleteEvent)
				apiGroup.PUT("/events/:id/cancel", api.CancelEvent)
				apiGroup.DELETE("/events/:id", api.DeleteEvent)

				apiGroup.GET("/transactions", api.ListTransactions)
				apiGroup.GET("/transactions/:id", api.GetTransaction)
				apiGroup.POST("/transactions", api.CreateTransaction)
				apiGroup.PUT("/transactions/:id", api.UpdateTransaction)
				apiGroup.DELETE("/transactions/:id", api.DeleteTransaction)
				apiGroup.GET("/finance/summary", api.GetFinanceSummary)
				apiGroup.GET("/finance/breakdown", api.GetCategoryBreakdown)

				apiGroup.GET("/alerts", api.ListAlerts)
				apiGroup.GET("/alerts/unread-count", api.GetUnreadAlertCount)
				apiGroup.POST("/alerts", api.CreateAlert)
				apiGroup.POST("/alerts/generate", api.GenerateAlerts)
				apiGroup.PUT("/alerts/read-all", api.MarkAllAlertsRead)
				apiGroup.PUT("/alerts/:id/read", api.MarkAlertRead)
				apiGroup.DELETE("/alerts/:id", api.DeleteAlert)

				apiGroup.GET("/contacts", api.ListContacts)
				apiGroup.POST("/contacts", api.CreateContact)
				apiGroup.PUT("/contacts/reorder", api.ReorderContacts)
				apiGroup.PUT("/contacts/:id", api.UpdateContact)
				apiGroup.DELETE("/contacts/:id", api.DeleteContact)

				apiGroup.GET("/profile", api.GetProfile)
				apiGroup.PUT("/profile", api.UpdateProfile)

				apiGroup.GET("/settings", api.GetSystemSettings)
				apiGroup.PUT("/settings", api.UpdateSystemSettings)

				apiGroup.POST("/upload/image", api.UploadImage)
			}
		}
	}

	return r
}

// formatRelativeTime 将时间渲染为「3天前」式的相对描述，零值返回空串。
func formatRelativeTime(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}

	diff := now.Sub(t)
	if diff < time.Minute {
		return "刚刚"
	}
	if diff < time.Hour {
		return fmt.Sprintf("%d分钟前", int(diff.Minutes()))
	}
	if diff < 24*time.Hour {
		return fmt.Sprintf("%d小时前", int(diff.Hours()))
	}

	days := int(diff.Hours() / 24)
	if days < 30 {
		return fmt.Sprintf("%d天前", days)
	}
	if days < 365 {
		return fmt.Sprintf("%d个月前", days/30)
	}
	return fmt.Sprintf("%d年前", days/365)
}
