package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/farmlog/internal/db"
	"github.com/farmlog/internal/service"
	"github.com/gin-gonic/gin"
)

// HealthCheck 提供部署平台与监控系统使用的健康检查端点。
func (a *API) HealthCheck(c *gin.Context) {
	sqlDB, err := a.db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "database handle unavailable",
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "up",
	})
}

// ShowSystemSettings 渲染系统设置页面。
func (a *API) ShowSystemSettings(c *gin.Context) {
	settings, err := a.system.GetSettings()
	if err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "system_settings.html", gin.H{
			"title": "系统设置",
			"error": "获取系统设置失败",
		})
		return
	}

	a.renderHTML(c, http.StatusOK, "system_settings.html", gin.H{
		"title":      "系统设置",
		"settings":   settings,
		"currencies": service.SupportedCurrencies(),
	})
}

type systemSettingsRequest struct {
	FarmName      string `json:"farm_name"`
	FarmLogoURL   string `json:"farm_logo_url"`
	Currency      string `json:"currency"`
	AlertLeadDays int    `json:"alert_lead_days"`
}

// GetSystemSettings 返回当前系统设置。
func (a *API) GetSystemSettings(c *gin.Context) {
	settings, err := a.system.GetSettings()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取系统设置失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": systemSettingsPayload(settings)})
}

// UpdateSystemSettings 保存系统设置。
func (a *API) UpdateSystemSettings(c *gin.Context) {
	var payload systemSettingsRequest

	if strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		if !bindJSON(c, &payload, "请填写完整的系统设置") {
			return
		}
	} else {
		payload.FarmName = c.PostForm("farm_name")
		payload.FarmLogoURL = c.PostForm("farm_logo_url")
		payload.Currency = c.PostForm("currency")

		if raw := c.PostForm("alert_lead_days"); raw != "" {
			val, err := strconv.Atoi(raw)
			if err != nil {
				respondError(c, http.StatusBadRequest, "提前提醒天数应为数字")
				return
			}
			payload.AlertLeadDays = val
		}
	}

	settings, err := a.system.UpdateSettings(service.FarmSettingsInput{
		FarmName:      payload.FarmName,
		FarmLogoURL:   payload.FarmLogoURL,
		Currency:      payload.Currency,
		AlertLeadDays: payload.AlertLeadDays,
	})
	if err != nil {
		if errors.Is(err, service.ErrSettingsInvalid) {
			respondError(c, http.StatusBadRequest, "系统设置不合法，请检查币种与提醒天数")
			return
		}
		respondError(c, http.StatusInternalServerError, "保存系统设置失败")
		return
	}

	a.recordActivity(c, db.ActivityEntitySetting, 0, db.ActivityActionUpdate, settings.FarmName)
	c.JSON(http.StatusOK, gin.H{
		"message":  "系统设置已保存",
		"settings": systemSettingsPayload(settings),
	})
}

func systemSettingsPayload(settings service.FarmSettings) gin.H {
	return gin.H{
		"farm_name":       settings.FarmName,
		"farm_logo_url":   settings.FarmLogoURL,
		"currency":        settings.Currency,
		"alert_lead_days": settings.AlertLeadDays,
	}
}
