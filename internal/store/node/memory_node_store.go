package node

import (
	"context"
	"sort"
	"sync"

	"github.com/hewenyu/vmark-central/internal/core/model"
)

// MemoryNodeStore 是基于内存的节点存储实现，主要用于测试
type MemoryNodeStore struct {
	nodes map[string]*model.Node
	mutex sync.RWMutex
}

// NewMemoryNodeStore 创建新的内存节点存储
func NewMemoryNodeStore() *MemoryNodeStore {
	return &MemoryNodeStore{
		nodes: make(map[string]*model.Node),
	}
}

// Get 获取节点记录
func (m *MemoryNodeStore) Get(ctx context.Context, nodeID string) (*model.Node, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	node, exists := m.nodes[nodeID]
	if !exists {
		return nil, nil
	}

	copied := *node
	return &copied, nil
}

// List 获取所有节点记录，按节点ID排序
func (m *MemoryNodeStore) List(ctx context.Context) ([]*model.Node, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	nodes := make([]*model.Node, 0, len(m.nodes))
	for _, node := range m.nodes {
		copied := *node
		nodes = append(nodes, &copied)
	}

	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID < nodes[j].ID
	})

	return nodes, nil
}

// Upsert 创建或更新节点记录
func (m *MemoryNodeStore) Upsert(ctx context.Context, node *model.Node) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	copied := *node
	m.nodes[node.ID] = &copied
	return nil
}

// Delete 删除节点记录
func (m *MemoryNodeStore) Delete(ctx context.Context, nodeID string) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.nodes[nodeID]; !exists {
		return false, nil
	}

	delete(m.nodes, nodeID)
	return true, nil
}
