// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"

	"github.com/Corphon/StreamPerformerMCP/internal/logging"
)

// 当前配置的单例实例
var (
	currentConfig *AppConfig
	configMutex   sync.RWMutex
	configFile    string
)

// AppConfig 包含应用程序的所有配置
type AppConfig struct {
	// 基础配置
	Port      string `json:"port"`
	DataDir   string `json:"data_dir"`
	LogDir    string `json:"log_dir"`
	DebugMode bool   `json:"debug_mode"`

	// LLM相关配置
	LLMProvider string            `json:"llm_provider"`
	LLMConfig   map[string]string `json:"llm_config"`

	// 语音合成配置
	TTSEnabled bool   `json:"tts_enabled"`
	TTSModel   string `json:"tts_model"`
	TTSVoice   string `json:"tts_voice"`
}

// Config 存储从环境加载的基础配置
type Config struct {
	Port            string
	DataDir         string
	LogDir          string
	DebugMode       bool
	DashScopeAPIKey string
	AnthropicAPIKey string
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	// .env 文件可选
	godotenv.Load()

	config := &Config{
		Port:            getEnv("PORT", "8080"),
		DataDir:         getEnvPath("DATA_DIR", "data"),
		LogDir:          getEnvPath("LOG_DIR", "logs"),
		DebugMode:       getEnvBool("DEBUG_MODE", true),
		DashScopeAPIKey: getEnv("DASHSCOPE_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
	}

	if config.DashScopeAPIKey == "" && config.AnthropicAPIKey == "" {
		log := logging.For("config")
		log.Warn().Msg("未设置任何LLM API密钥，表演将退化为模板台词")
	}

	return config, nil
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvPath 获取环境变量表示的路径，如果不存在则返回默认值
func getEnvPath(key, defaultValue string) string {
	path := getEnv(key, defaultValue)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			log := logging.For("config")
			log.Warn().Err(err).Str("path", path).Msg("创建目录失败")
		}
	}

	return path
}

// getEnvBool 获取布尔类型环境变量
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value == "true" || value == "1" || value == "yes"
}

// InitConfig 初始化配置管理器
func InitConfig(dataDir string) error {
	configFile = filepath.Join(dataDir, "config.json")

	baseConfig, err := Load()
	if err != nil {
		return err
	}

	configMutex.Lock()
	defer configMutex.Unlock()

	currentConfig = defaultAppConfig(baseConfig)

	// 尝试从文件加载已保存的配置
	if _, err := os.Stat(configFile); !os.IsNotExist(err) {
		data, err := os.ReadFile(configFile)
		if err == nil {
			var savedConfig AppConfig
			if json.Unmarshal(data, &savedConfig) == nil {
				// 合并配置：LLM/TTS 设置来自文件，基础配置始终跟随环境
				savedConfig.Port = baseConfig.Port
				savedConfig.DataDir = baseConfig.DataDir
				savedConfig.LogDir = baseConfig.LogDir
				savedConfig.DebugMode = baseConfig.DebugMode

				if savedConfig.LLMConfig != nil && savedConfig.LLMConfig["api_key"] == "" {
					savedConfig.LLMConfig["api_key"] = providerKey(savedConfig.LLMProvider, baseConfig)
				}

				currentConfig = &savedConfig
			}
		}
	}

	return SaveConfig()
}

// defaultAppConfig 环境变量推导的初始配置
// 有 DashScope 密钥优先千问（TTS 同源），否则用 Anthropic
func defaultAppConfig(baseConfig *Config) *AppConfig {
	provider := "qwen"
	if baseConfig.DashScopeAPIKey == "" && baseConfig.AnthropicAPIKey != "" {
		provider = "anthropic"
	}

	return &AppConfig{
		Port:        baseConfig.Port,
		DataDir:     baseConfig.DataDir,
		LogDir:      baseConfig.LogDir,
		DebugMode:   baseConfig.DebugMode,
		LLMProvider: provider,
		LLMConfig: map[string]string{
			"api_key": providerKey(provider, baseConfig),
		},
		TTSEnabled: baseConfig.DashScopeAPIKey != "",
		TTSModel:   getEnv("TTS_MODEL", "cosyvoice-v2"),
		TTSVoice:   getEnv("TTS_VOICE", "longxiaochun"),
	}
}

func providerKey(provider string, baseConfig *Config) string {
	if provider == "anthropic" {
		return baseConfig.AnthropicAPIKey
	}
	return baseConfig.DashScopeAPIKey
}

// GetCurrentConfig 返回当前配置的副本
func GetCurrentConfig() *AppConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if currentConfig == nil {
		baseConfig, _ := Load()
		return defaultAppConfig(baseConfig)
	}

	configCopy := *currentConfig
	return &configCopy
}

// UpdateLLMConfig 更新LLM配置
func UpdateLLMConfig(provider string, config map[string]string) error {
	configMutex.Lock()
	defer configMutex.Unlock()

	if currentConfig == nil {
		return fmt.Errorf("配置系统未初始化")
	}

	currentConfig.LLMProvider = provider
	currentConfig.LLMConfig = config

	return SaveConfig()
}

// SaveConfig 保存当前配置到文件
func SaveConfig() error {
	if currentConfig == nil {
		return fmt.Errorf("没有配置可保存")
	}

	dir := filepath.Dir(configFile)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建配置目录失败: %w", err)
		}
	}

	data, err := json.MarshalIndent(currentConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	return os.WriteFile(configFile, data, 0644)
}
