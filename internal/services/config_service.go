// internal/services/config_service.go
package services

import (
	"errors"
	"sync"
	"time"

	"github.com/Corphon/StreamPerformerMCP/internal/config"
	"github.com/Corphon/StreamPerformerMCP/internal/logging"
)

// ConfigService 提供配置管理功能
type ConfigService struct {
	// 缓存最近获取的配置，减少反复访问底层存储
	cachedConfig *config.AppConfig

	// 配置更新时间
	lastUpdated time.Time

	// 配置变更事件订阅者
	subscribers []ConfigChangeSubscriber

	mu sync.RWMutex
}

// ConfigChangeSubscriber 配置变更订阅者接口
type ConfigChangeSubscriber interface {
	OnConfigChanged(oldConfig, newConfig *config.AppConfig)
}

// NewConfigService 创建配置服务实例
func NewConfigService() *ConfigService {
	return &ConfigService{
		lastUpdated:  time.Now(),
		cachedConfig: config.GetCurrentConfig(),
	}
}

// GetCurrentConfig 获取当前配置
func (s *ConfigService) GetCurrentConfig() *config.AppConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cachedConfig == nil {
		return config.GetCurrentConfig()
	}
	configCopy := *s.cachedConfig
	return &configCopy
}

// Subscribe 注册配置变更订阅者
func (s *ConfigService) Subscribe(subscriber ConfigChangeSubscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, subscriber)
}

// UpdateLLMSettings 更新LLM提供者配置并通知订阅者
func (s *ConfigService) UpdateLLMSettings(provider string, providerConfig map[string]string) error {
	if provider == "" {
		return errors.New("提供者名称不能为空")
	}

	s.mu.Lock()
	oldConfig := s.cachedConfig

	if err := config.UpdateLLMConfig(provider, providerConfig); err != nil {
		s.mu.Unlock()
		return err
	}

	newConfig := config.GetCurrentConfig()
	s.cachedConfig = newConfig
	s.lastUpdated = time.Now()
	subscribers := make([]ConfigChangeSubscriber, len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.Unlock()

	for _, subscriber := range subscribers {
		subscriber.OnConfigChanged(oldConfig, newConfig)
	}

	log := logging.For("config")
	log.Info().Str("provider", provider).Msg("LLM配置已更新")
	return nil
}

// LastUpdated 配置最近一次更新时间
func (s *ConfigService) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}
