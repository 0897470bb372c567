package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/farmlog/internal/db"
	"github.com/farmlog/internal/service"
	"github.com/gin-gonic/gin"
)

type profileRequest struct {
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url"`
}

// ShowProfile 渲染当前用户的个人档案页面
func (a *API) ShowProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.Redirect(http.StatusFound, "/farm/login")
		return
	}

	profile, err := a.profiles.GetByUser(userID)
	if err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "profile.html", gin.H{
			"title": "个人档案",
			"error": "获取个人档案失败",
		})
		return
	}

	a.renderHTML(c, http.StatusOK, "profile.html", gin.H{
		"title":    "个人档案",
		"username": currentUsername(c),
		"profile":  profile,
	})
}

// GetProfile 返回当前用户的档案 JSON
func (a *API) GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "尚未登录")
		return
	}

	profile, err := a.profiles.GetByUser(userID)
	if err != nil {
		handleProfileError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profileToPayload(profile)})
}

// UpdateProfile 保存当前用户的档案
func (a *API) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "尚未登录")
		return
	}

	var payload profileRequest
	if strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		if !bindJSON(c, &payload, "请检查档案信息") {
			return
		}
	} else {
		payload.DisplayName = c.PostForm("display_name")
		payload.Phone = c.PostForm("phone")
		payload.Email = c.PostForm("email")
		payload.Address = c.PostForm("address")
		payload.Bio = c.PostForm("bio")
		payload.AvatarURL = c.PostForm("avatar_url")
	}

	profile, err := a.profiles.Upsert(userID, service.ProfileInput{
		DisplayName: payload.DisplayName,
		Phone:       payload.Phone,
		Email:       payload.Email,
		Address:     payload.Address,
		Bio:         payload.Bio,
		AvatarURL:   payload.AvatarURL,
	})
	if err != nil {
		handleProfileError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "个人档案已保存",
		"profile": profileToPayload(profile),
	})
}

func profileToPayload(profile *db.Profile) gin.H {
	return gin.H{
		"user_id":      profile.UserID,
		"display_name": profile.DisplayName,
		"phone":        profile.Phone,
		"email":        profile.Email,
		"address":      profile.Address,
		"bio":          profile.Bio,
		"avatar_url":   profile.AvatarURL,
	}
}

func handleProfileError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProfileInvalidInput):
		respondError(c, http.StatusBadRequest, "请检查必填项")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
