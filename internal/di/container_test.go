// internal/di/container_test.go
package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeService struct {
	name string
}

func TestResolveReturnsTypedService(t *testing.T) {
	c := NewContainer()
	c.Register("live", &fakeService{name: "live"})

	svc, ok := Resolve[*fakeService](c, "live")
	assert.True(t, ok)
	assert.Equal(t, "live", svc.name)

	// 类型不符时不 panic，只报 ok=false
	_, ok = Resolve[string](c, "live")
	assert.False(t, ok)

	_, ok = Resolve[*fakeService](c, "missing")
	assert.False(t, ok)
}

func TestRegisterOverwritesAndNamesSorted(t *testing.T) {
	c := NewContainer()
	c.Register("storage", &fakeService{name: "v1"})
	c.Register("config", &fakeService{})
	c.Register("storage", &fakeService{name: "v2"})

	svc, ok := Resolve[*fakeService](c, "storage")
	assert.True(t, ok)
	assert.Equal(t, "v2", svc.name)

	assert.Equal(t, []string{"config", "storage"}, c.GetNames())
}
