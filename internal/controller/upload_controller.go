package controller

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"classroom_backend/internal/service"
	"classroom_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UploadController struct {
	storage *service.StorageService
}

func NewUploadController(storage *service.StorageService) *UploadController {
	return &UploadController{storage: storage}
}

// @Summary 上传课件
// @Tags 课件
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "课件文件"
// @Success 200 {object} util.Response
// @Router /upload-ppt [post]
func (c *UploadController) UploadPPT(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "No file uploaded")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	// 时间戳前缀防重名
	filename := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), filepath.Base(fileHeader.Filename))
	contentType := fileHeader.Header.Get("Content-Type")

	fileURL, err := c.storage.Upload(ctx.Request.Context(), filename, file, fileHeader.Size, contentType)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"message":  "File uploaded successfully",
		"filename": filename,
		"path":     fileURL,
	})
}

// @Summary 下载课件
// @Tags 课件
// @Produce octet-stream
// @Param filename path string true "文件名"
// @Router /download/{filename} [get]
func (c *UploadController) Download(ctx *gin.Context) {
	raw := ctx.Param("filename")
	filename, err := url.QueryUnescape(raw)
	if err != nil {
		filename = raw
	}
	filename = filepath.Base(filename)

	local, ok := c.storage.Provider.(*service.LocalStorageProvider)
	if !ok {
		// 对象存储后端直接跳转到可下载地址
		ctx.Redirect(302, c.storage.Provider.GetURL(filename))
		return
	}

	path := local.LocalPath(filename)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		util.NotFound(ctx)
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	ctx.Header("Content-Type", "application/octet-stream")
	ctx.File(path)
}
