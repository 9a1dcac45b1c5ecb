package eline

import (
	"context"
	"sort"
	"sync"

	"github.com/hewenyu/vmark-central/internal/core/model"
)

// MemoryELineStore 是基于内存的E-Line服务存储实现，主要用于测试
type MemoryELineStore struct {
	services map[string]*model.ELineService
	mutex    sync.RWMutex
}

// NewMemoryELineStore 创建新的内存E-Line服务存储
func NewMemoryELineStore() *MemoryELineStore {
	return &MemoryELineStore{
		services: make(map[string]*model.ELineService),
	}
}

// Get 获取服务定义
func (m *MemoryELineStore) Get(ctx context.Context, name string) (*model.ELineService, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	service, exists := m.services[name]
	if !exists {
		return nil, nil
	}

	copied := *service
	return &copied, nil
}

// List 获取所有服务定义，按名称排序
func (m *MemoryELineStore) List(ctx context.Context) ([]*model.ELineService, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	services := make([]*model.ELineService, 0, len(m.services))
	for _, service := range m.services {
		copied := *service
		services = append(services, &copied)
	}

	sort.Slice(services, func(i, j int) bool {
		return services[i].Name < services[j].Name
	})

	return services, nil
}

// Put 创建或更新服务定义
func (m *MemoryELineStore) Put(ctx context.Context, service *model.ELineService) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	copied := *service
	m.services[service.Name] = &copied
	return nil
}

// Delete 删除服务定义
func (m *MemoryELineStore) Delete(ctx context.Context, name string) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.services[name]; !exists {
		return false, nil
	}

	delete(m.services, name)
	return true, nil
}
