// internal/storage/file_storage.go
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Corphon/StreamPerformerMCP/internal/logging"
	"github.com/Corphon/StreamPerformerMCP/internal/models"
)

// FileStorage 提供文件存储服务
// 会话目录布局：<base>/sessions/<id>/{script.json, steps.jsonl, recording.mp3}
type FileStorage struct {
	BaseDir string

	// 文件级别锁 path -> *sync.RWMutex
	fileLocks sync.Map

	// 读缓存（剧本工件会被重复读取）
	cache       map[string]*cacheEntry
	cacheMutex  sync.RWMutex
	cacheExpiry time.Duration
}

type cacheEntry struct {
	data      []byte
	timestamp time.Time
}

// NewFileStorage 创建文件存储服务
func NewFileStorage(baseDir string) (*FileStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}

	fs := &FileStorage{
		BaseDir:     baseDir,
		cache:       make(map[string]*cacheEntry),
		cacheExpiry: 5 * time.Minute,
	}
	fs.startCacheCleanup()
	return fs, nil
}

func (fs *FileStorage) getFileLock(fullPath string) *sync.RWMutex {
	value, _ := fs.fileLocks.LoadOrStore(fullPath, &sync.RWMutex{})
	return value.(*sync.RWMutex)
}

// ====================
// 会话工件
// ====================

func (fs *FileStorage) sessionDir(sessionID string) string {
	return filepath.Join("sessions", sessionID)
}

// SaveScript 持久化会话的剧本工件
func (fs *FileStorage) SaveScript(sessionID string, artifact *models.ScriptArtifact) error {
	return fs.saveJSONFile(fs.sessionDir(sessionID), "script.json", artifact)
}

// LoadScript 读取会话的剧本工件
func (fs *FileStorage) LoadScript(sessionID string) (*models.ScriptArtifact, error) {
	var artifact models.ScriptArtifact
	if err := fs.loadJSONFile(fs.sessionDir(sessionID), "script.json", &artifact); err != nil {
		return nil, err
	}
	return &artifact, nil
}

// ScriptPath 剧本工件的落盘路径（下载接口用）
func (fs *FileStorage) ScriptPath(sessionID string) string {
	return filepath.Join(fs.BaseDir, fs.sessionDir(sessionID), "script.json")
}

// AppendStepLog 以 JSONL 追加一条 tick 产出（回放/排障用）
func (fs *FileStorage) AppendStepLog(sessionID string, record interface{}) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("序列化步进记录失败: %w", err)
	}

	fullDirPath := filepath.Join(fs.BaseDir, fs.sessionDir(sessionID))
	fullPath := filepath.Join(fullDirPath, "steps.jsonl")

	lock := fs.getFileLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(fullDirPath, 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	file, err := os.OpenFile(fullPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("打开步进日志失败: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("写入步进日志失败: %w", err)
	}
	return nil
}

// RecordingDir 会话录音目录
func (fs *FileStorage) RecordingDir(sessionID string) string {
	return filepath.Join(fs.BaseDir, fs.sessionDir(sessionID))
}

// ListSessions 列出已有会话目录
func (fs *FileStorage) ListSessions() ([]string, error) {
	fullPath := filepath.Join(fs.BaseDir, "sessions")
	entries, err := os.ReadDir(fullPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取目录失败: %w", err)
	}

	var sessions []string
	for _, entry := range entries {
		if entry.IsDir() {
			sessions = append(sessions, entry.Name())
		}
	}
	return sessions, nil
}

// DeleteSession 删除整个会话目录
func (fs *FileStorage) DeleteSession(sessionID string) error {
	fullPath := filepath.Join(fs.BaseDir, fs.sessionDir(sessionID))

	lock := fs.getFileLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return fmt.Errorf("会话不存在: %s", sessionID)
	}
	if err := os.RemoveAll(fullPath); err != nil {
		return fmt.Errorf("删除会话目录失败: %w", err)
	}

	fs.cacheMutex.Lock()
	for key := range fs.cache {
		if strings.HasPrefix(key, fullPath) {
			delete(fs.cache, key)
		}
	}
	fs.cacheMutex.Unlock()
	return nil
}

// ====================
// 文件原语
// ====================

// saveTextFile 原子性写入（临时文件 + rename）
func (fs *FileStorage) saveTextFile(dirPath, filename string, content []byte) error {
	fullDirPath := filepath.Join(fs.BaseDir, dirPath)
	fullPath := filepath.Join(fullDirPath, filename)

	lock := fs.getFileLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(fullDirPath, 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	tempPath := fullPath + ".tmp"
	if err := os.WriteFile(tempPath, content, 0644); err != nil {
		return fmt.Errorf("保存临时文件失败: %w", err)
	}
	if err := os.Rename(tempPath, fullPath); err != nil {
		if removeErr := os.Remove(tempPath); removeErr != nil {
			log := logging.For("storage")
			log.Warn().Err(removeErr).Str("path", tempPath).Msg("清理临时文件失败")
		}
		return fmt.Errorf("保存文件失败: %w", err)
	}

	fs.invalidateCache(fullPath)
	return nil
}

func (fs *FileStorage) saveJSONFile(dirPath, filename string, data interface{}) error {
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}
	return fs.saveTextFile(dirPath, filename, content)
}

func (fs *FileStorage) loadTextFile(dirPath, filename string) ([]byte, error) {
	fullPath := filepath.Join(fs.BaseDir, dirPath, filename)

	fs.cacheMutex.RLock()
	if entry, exists := fs.cache[fullPath]; exists {
		if time.Since(entry.timestamp) < fs.cacheExpiry {
			fs.cacheMutex.RUnlock()
			return entry.data, nil
		}
	}
	fs.cacheMutex.RUnlock()

	lock := fs.getFileLock(fullPath)
	lock.RLock()
	defer lock.RUnlock()

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("读取文件失败: %w", err)
	}

	fs.updateCache(fullPath, content)
	return content, nil
}

func (fs *FileStorage) loadJSONFile(dirPath, filename string, v interface{}) error {
	content, err := fs.loadTextFile(dirPath, filename)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(content, v); err != nil {
		return fmt.Errorf("解析JSON失败: %w", err)
	}
	return nil
}

// ====================
// 缓存管理
// ====================

func (fs *FileStorage) updateCache(path string, data []byte) {
	fs.cacheMutex.Lock()
	defer fs.cacheMutex.Unlock()
	fs.cache[path] = &cacheEntry{data: data, timestamp: time.Now()}
}

func (fs *FileStorage) invalidateCache(path string) {
	fs.cacheMutex.Lock()
	defer fs.cacheMutex.Unlock()
	delete(fs.cache, path)
}

func (fs *FileStorage) startCacheCleanup() {
	go func() {
		ticker := time.NewTicker(2 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			fs.cacheMutex.Lock()
			now := time.Now()
			for path, entry := range fs.cache {
				if now.Sub(entry.timestamp) > fs.cacheExpiry {
					delete(fs.cache, path)
				}
			}
			fs.cacheMutex.Unlock()
		}
	}()
}
