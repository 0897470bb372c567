package handler

import (
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/farmlog/internal/db"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionUserIDKey   = "user_id"
	sessionUsernameKey = "username"

	minUsernameRunes = 3
	minPasswordRunes = 6
)

// ShowLoginPage 渲染登录页面
func ShowLoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"title": "登录",
	})
}

// Login 处理用户登录请求
func Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	// 查找用户
	var user db.User
	if err := db.DB.Where("username = ?", username).First(&user).Error; err != nil {
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{
			"title": "登录",
			"error": "用户名或密码错误",
		})
		return
	}

	// 验证密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{
			"title": "登录",
			"error": "用户名或密码错误",
		})
		return
	}

	// 设置会话
	session := sessions.Default(c)
	session.Set(sessionUserIDKey, user.ID)
	session.Set(sessionUsernameKey, user.Username)
	if err := session.Save(); err != nil {
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{
			"title": "登录",
			"error": "会话保存失败",
		})
		return
	}

	db.TouchLastLogin(user.ID, time.Now())

	c.Redirect(http.StatusFound, "/farm/dashboard")
}

// ShowRegisterPage 渲染注册页面
func ShowRegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", gin.H{
		"title": "注册账号",
	})
}

// Register 处理新账号注册，成功后跳转到登录页。
func Register(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	if utf8.RuneCountInString(username) < minUsernameRunes {
		c.HTML(http.StatusBadRequest, "register.html", gin.H{
			"title": "注册账号",
			"error": "用户名至少需要 3 个字符",
		})
		return
	}
	if utf8.RuneCountInString(password) < minPasswordRunes {
		c.HTML(http.StatusBadRequest, "register.html", gin.H{
			"title": "注册账号",
			"error": "密码至少需要 6 个字符",
		})
		return
	}

	var count int64
	if err := db.DB.Model(&db.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "register.html", gin.H{
			"title": "注册账号",
			"error": "注册失败，请稍后重试",
		})
		return
	}
	if count > 0 {
		c.HTML(http.StatusConflict, "register.html", gin.H{
			"title": "注册账号",
			"error": "用户名已被占用",
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "register.html", gin.H{
			"title": "注册账号",
			"error": "注册失败，请稍后重试",
		})
		return
	}

	user := db.User{Username: username, Password: string(hash)}
	if err := db.DB.Create(&user).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "register.html", gin.H{
			"title": "注册账号",
			"error": "注册失败，请稍后重试",
		})
		return
	}

	c.Redirect(http.StatusFound, "/farm/login")
}

// Logout 处理用户登出
func Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.Redirect(http.StatusFound, "/farm/login")
}

// GetSession 返回当前登录用户及其档案信息。
func (a *API) GetSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "尚未登录")
		return
	}

	var user db.User
	if err := a.db.First(&user, userID).Error; err != nil {
		respondError(c, http.StatusUnauthorized, "会话已失效")
		return
	}

	profile, err := a.profiles.GetByUser(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取用户档案失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":          user.ID,
			"username":    user.Username,
			"lastLoginAt": user.LastLoginAt,
		},
		"profile": profileToPayload(profile),
	})
}

// AuthRequired 是一个简单的认证中间件
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get(sessionUserIDKey)
		if userID == nil {
			c.Redirect(http.StatusFound, "/farm/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) (uint, bool) {
	session := sessions.Default(c)
	id, ok := session.Get(sessionUserIDKey).(uint)
	return id, ok
}

func currentUsername(c *gin.Context) string {
	session := sessions.Default(c)
	if name, ok := session.Get(sessionUsernameKey).(string); ok {
		return name
	}
	return ""
}
