// internal/api/router.go
package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/StreamPerformerMCP/internal/config"
	"github.com/Corphon/StreamPerformerMCP/internal/di"
	"github.com/Corphon/StreamPerformerMCP/internal/services"
)

// SetupRouter 配置HTTP路由
func SetupRouter() (*gin.Engine, error) {
	cfg := config.GetCurrentConfig()

	// 只从容器获取服务，不再创建新实例
	container := di.GetContainer()

	liveService, ok := di.Resolve[*services.LiveService](container, "live")
	if !ok {
		return nil, fmt.Errorf("表演会话服务未正确初始化")
	}

	configService, ok := di.Resolve[*services.ConfigService](container, "config")
	if !ok {
		return nil, fmt.Errorf("配置服务未正确初始化")
	}

	llmService, ok := di.Resolve[*services.LLMService](container, "llm")
	if !ok {
		return nil, fmt.Errorf("LLM服务未正确初始化")
	}

	handler := NewHandler(liveService, configService, llmService)

	// tick 产出通过 WebSocket 管理器推给观众
	liveService.SetBroadcaster(wsManager.BroadcastToSession)

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(corsMiddleware())

	// WebSocket 支持
	r.GET("/ws/session/:id", handler.SessionWebSocket)

	// ===============================
	// API路由
	// ===============================
	apiGroup := r.Group("/api")
	apiGroup.Use(DefaultRateLimit())
	{
		apiGroup.GET("/health", handler.HealthCheck)

		sessions := apiGroup.Group("/sessions")
		{
			sessions.POST("", SessionCreateRateLimit(), handler.CreateSession)
			sessions.GET("", handler.ListSessions)
			sessions.GET("/history", handler.SessionHistory)
			sessions.GET("/:id", handler.GetSession)
			sessions.DELETE("/:id", handler.DeleteSession)
			sessions.POST("/:id/danmaku", DanmakuRateLimit(), handler.SubmitDanmaku)
			sessions.POST("/:id/end", handler.EndSession)
			sessions.GET("/:id/script", handler.DownloadScript)
		}

		settings := apiGroup.Group("/settings")
		{
			settings.GET("", handler.GetSettings)
			settings.PUT("/llm", handler.UpdateLLMSettings)
		}

		apiGroup.GET("/ws/status", func(c *gin.Context) {
			respondSuccess(c, http.StatusOK, wsManager.GetStatus())
		})
	}

	return r, nil
}

// corsMiddleware 实现跨域资源共享
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
