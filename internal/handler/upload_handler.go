package handler

import (
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const (
	maxUploadBytes = 8 << 20
	thumbMaxWidth  = 480
)

// UploadImage 处理图片上传请求，保存原图并生成列表用缩略图。
func (a *API) UploadImage(c *gin.Context) {
	// 获取上传的文件
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传的图片", "success": 0})
		return
	}

	if file.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "图片不能超过 8MB", "success": 0})
		return
	}

	// 检查文件类型
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "只允许上传图片文件", "success": 0})
		return
	}

	// 创建上传目录
	if err := os.MkdirAll(a.uploadDir, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建上传目录失败", "success": 0})
		return
	}

	// 生成唯一文件名
	ext := filepath.Ext(file.Filename)
	newFilename := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
	filePath := filepath.Join(a.uploadDir, newFilename)

	// 保存文件
	if err := c.SaveUploadedFile(file, filePath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存文件失败", "success": 0})
		return
	}

	fileURL := joinUploadURL(a.uploadURL, newFilename)
	data := gin.H{
		"filePath": fileURL,
		"url":      fileURL,
	}

	// 缩略图生成失败不影响上传结果
	thumbName, err := a.writeThumbnail(filePath, newFilename)
	if err != nil {
		log.Printf("generate thumbnail for %s failed: %v", newFilename, err)
	} else if thumbName != "" {
		data["thumbUrl"] = joinUploadURL(a.uploadURL, thumbName)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": 1,
		"message": "上传成功",
		"data":    data,
	})
}

// writeThumbnail 将原图等比缩放后另存为 JPEG，宽度不超过阈值的原图跳过。
func (a *API) writeThumbnail(srcPath, srcName string) (string, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	img, _, err := image.Decode(src)
	if err != nil {
		return "", err
	}

	bounds := img.Bounds()
	if bounds.Dx() <= thumbMaxWidth {
		return "", nil
	}

	height := bounds.Dy() * thumbMaxWidth / bounds.Dx()
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, thumbMaxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	thumbName := strings.TrimSuffix(srcName, filepath.Ext(srcName)) + "_thumb.jpg"
	out, err := os.Create(filepath.Join(a.uploadDir, thumbName))
	if err != nil {
		return "", err
	}
	defer out.Close()

	if err := jpeg.Encode(out, dst, &jpeg.Options{Quality: 85}); err != nil {
		return "", err
	}

	return thumbName, nil
}

func joinUploadURL(prefix, name string) string {
	return strings.TrimRight(prefix, "/") + "/" + name
}
