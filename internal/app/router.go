package app

import (
	"classroom_backend/docs"
	"classroom_backend/internal/service"
	"classroom_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 实时通道
	router.GET("/ws", func(ctx *gin.Context) {
		service.ServeWS(s.hub, ctx.Writer, ctx.Request)
	})

	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)
		api.GET("/server-info", c.health.ServerInfo)

		api.GET("/class/:classId", c.class.GetClass)
		api.GET("/class/:classId/transcriptions", c.class.GetTranscriptions)
		api.GET("/poll/:pollId/results", c.poll.GetResults)

		api.POST("/upload-ppt", c.upload.UploadPPT)
		api.GET("/download/:filename", c.upload.Download)
	}
}
