package controller

import (
	"net/http"
	"os"
	"time"

	"classroom_backend/internal/config"
	"classroom_backend/internal/service"
	"classroom_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthController struct {
	DB       *gorm.DB
	sessions *service.SessionService
	hub      *service.ClassroomHub
	cfg      *config.Config
}

func NewHealthController(db *gorm.DB, sessions *service.SessionService, hub *service.ClassroomHub, cfg *config.Config) *HealthController {
	return &HealthController{DB: db, sessions: sessions, hub: hub, cfg: cfg}
}

// @Summary 健康检查
// @Description 服务状态、是否有活动课堂、在线学生数
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	sqlDB, err := c.DB.DB()
	if err != nil {
		util.InternalServerError(ctx)
		return
	}
	if err := sqlDB.Ping(); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	util.Success(ctx, gin.H{
		"status":             "ok",
		"class_active":       c.sessions.ActiveClass() != nil,
		"students_connected": c.hub.StudentCount(),
	})
}

// @Summary 服务发现
// @Description 局域网内的客户端靠这个接口找到本机
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Router /server-info [get]
func (c *HealthController) ServerInfo(ctx *gin.Context) {
	hostname, _ := os.Hostname()
	util.Success(ctx, gin.H{
		"serverIp":       util.LocalIP(),
		"serverHostname": hostname,
		"port":           c.cfg.Server.Port,
		"status":         "running",
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}
