// internal/di/container.go
package di

import (
	"sort"
	"sync"
)

// Container 是演出服务的注册表：启动时由 app 写入，之后各处只读。
// 服务之间用名字解耦，避免构造函数层层传参。
type Container struct {
	mu       sync.RWMutex
	services map[string]any
}

// 全局容器实例（单例模式）
var (
	globalContainer *Container
	once            sync.Once
)

// NewContainer 创建一个空容器（测试中可绕开全局单例）
func NewContainer() *Container {
	return &Container{
		services: make(map[string]any),
	}
}

// GetContainer 获取全局容器实例
func GetContainer() *Container {
	once.Do(func() {
		globalContainer = NewContainer()
	})
	return globalContainer
}

// Register 注册服务实例，重名时覆盖旧实例
func (c *Container) Register(name string, service any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.services[name] = service
}

// Get 按名字取服务实例，未注册时返回 nil
func (c *Container) Get(name string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.services[name]
}

// Resolve 取出并断言为具体服务类型
// 名字未注册或类型不符时 ok 为 false，调用方自行决定如何降级
func Resolve[T any](c *Container, name string) (T, bool) {
	service, ok := c.Get(name).(T)
	return service, ok
}

// GetNames 返回已注册服务名，按字典序排列，保证启动日志输出稳定
func (c *Container) GetNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.services))
	for name := range c.services {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
