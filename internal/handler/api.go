package handler

import (
	"strings"

	"github.com/farmlog/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db         *gorm.DB
	animals    *service.AnimalService
	weights    *service.WeightService
	health     *service.HealthService
	events     *service.EventService
	finance    *service.FinanceService
	alerts     *service.AlertService
	contacts   *service.ContactService
	profiles   *service.ProfileService
	system     *service.SystemSettingService
	dashboard  *service.DashboardService
	activities *service.ActivityService
	uploadDir  string
	uploadURL  string
}

type farmViewModel struct {
	Name          string
	LogoURL       string
	Currency      string
	AlertLeadDays int
}

const farmSettingsContextKey = "__farm_settings"

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB, uploadDir, uploadURL string) *API {
	return &API{
		db:         db,
		animals:    service.NewAnimalService(db),
		weights:    service.NewWeightService(db),
		health:     service.NewHealthService(db),
		events:     service.NewEventService(db),
		finance:    service.NewFinanceService(db),
		alerts:     service.NewAlertService(db),
		contacts:   service.NewContactService(db),
		profiles:   service.NewProfileService(db),
		system:     service.NewSystemSettingService(db),
		dashboard:  service.NewDashboardService(db),
		activities: service.NewActivityService(db),
		uploadDir:  uploadDir,
		uploadURL:  uploadURL,
	}
}

func (a *API) farmSettings(c *gin.Context) farmViewModel {
	if cached, exists := c.Get(farmSettingsContextKey); exists {
		if view, ok := cached.(farmViewModel); ok {
			return view
		}
	}

	settings, err := a.system.GetSettings()
	if err != nil {
		c.Error(err)
	}

	view := farmViewModel{
		Name:          strings.TrimSpace(settings.FarmName),
		LogoURL:       strings.TrimSpace(settings.FarmLogoURL),
		Currency:      strings.TrimSpace(settings.Currency),
		AlertLeadDays: settings.AlertLeadDays,
	}
	if view.Name == "" {
		view.Name = "FarmLog"
	}
	if view.Currency == "" {
		view.Currency = "CNY"
	}
	if view.AlertLeadDays <= 0 {
		view.AlertLeadDays = 7
	}

	c.Set(farmSettingsContextKey, view)
	return view
}

// renderHTML 在向模板渲染时自动附加系统设置中的牧场名称与 Logo 信息。
func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	view := a.farmSettings(c)

	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}

	if _, exists := payload["farm"]; !exists {
		payload["farm"] = gin.H{
			"name":          view.Name,
			"logoUrl":       view.LogoURL,
			"currency":      view.Currency,
			"alertLeadDays": view.AlertLeadDays,
		}
	}
	if _, exists := payload["farmName"]; !exists {
		payload["farmName"] = view.Name
	}
	if _, exists := payload["farmLogoUrl"]; !exists {
		payload["farmLogoUrl"] = view.LogoURL
	}
	if _, exists := payload["farmCurrency"]; !exists {
		payload["farmCurrency"] = view.Currency
	}

	c.HTML(status, template, payload)
}
