// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Corphon/StreamPerformerMCP/internal/config"
	"github.com/Corphon/StreamPerformerMCP/internal/di"
	"github.com/Corphon/StreamPerformerMCP/internal/logging"
	"github.com/Corphon/StreamPerformerMCP/internal/services"
	"github.com/Corphon/StreamPerformerMCP/internal/storage"
)

// App 应用实例（单例）
type App struct {
	server *http.Server
	mu     sync.Mutex
}

var (
	instance *App
	appOnce  sync.Once
)

// GetApp 获取应用实例
func GetApp() *App {
	appOnce.Do(func() {
		instance = &App{}
	})
	return instance
}

// InitServices 按依赖顺序初始化所有服务并注册到容器
// 调用前必须先完成 config.InitConfig
func InitServices() error {
	container := di.GetContainer()
	cfg := config.GetCurrentConfig()

	if err := logging.Init(cfg.LogDir, cfg.DebugMode); err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}

	// 1. 文件存储（所有持久化的底座）
	fileStorage, err := storage.NewFileStorage(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("初始化文件存储失败: %w", err)
	}
	container.Register("storage", fileStorage)

	// 2. 配置服务
	configService := services.NewConfigService()
	container.Register("config", configService)

	// 3. LLM服务（未配置密钥时以未就绪状态运行），订阅配置变更以支持热切换
	llmService := services.NewLLMService()
	configService.Subscribe(llmService)
	container.Register("llm", llmService)

	// 4. 表演会话服务
	liveService := services.NewLiveService(llmService, fileStorage)
	container.Register("live", liveService)

	log := logging.For("app")
	log.Info().
		Strs("services", container.GetNames()).
		Msg("服务初始化完成")
	return nil
}

// Serve 运行HTTP服务器直到 Shutdown 被调用
func (a *App) Serve(handler http.Handler, port string) error {
	a.mu.Lock()
	a.server = &http.Server{
		Addr:    ":" + port,
		Handler: handler,
	}
	server := a.server
	a.mu.Unlock()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown 优雅关闭
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	server := a.server
	a.mu.Unlock()

	if server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
