package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hewenyu/vmark-central/internal/core/model"
)

// MemoryHistoryStore 是基于内存的延迟历史存储实现，主要用于测试
type MemoryHistoryStore struct {
	samples map[string][]*model.LatencySample
	mutex   sync.RWMutex
}

// NewMemoryHistoryStore 创建新的内存延迟历史存储
func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{
		samples: make(map[string][]*model.LatencySample),
	}
}

// Append 追加一条延迟历史记录
func (m *MemoryHistoryStore) Append(ctx context.Context, sample *model.LatencySample) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if sample.ID == "" {
		sample.ID = uuid.New().String()
	}

	copied := *sample
	m.samples[sample.NodeID] = append(m.samples[sample.NodeID], &copied)
	return nil
}

// QueryRange 查询某节点自since以来的全部记录
func (m *MemoryHistoryStore) QueryRange(ctx context.Context, nodeID string, since time.Time) ([]*model.LatencySample, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*model.LatencySample
	for _, sample := range m.samples[nodeID] {
		if !sample.Timestamp.Before(since) {
			copied := *sample
			result = append(result, &copied)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	return result, nil
}

// DeleteAll 删除某节点的全部延迟历史记录
func (m *MemoryHistoryStore) DeleteAll(ctx context.Context, nodeID string) (int64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	deleted := int64(len(m.samples[nodeID]))
	delete(m.samples, nodeID)

	return deleted, nil
}

// DeleteOlderThan 批量删除指定节点集中严格早于cutoff的记录
func (m *MemoryHistoryStore) DeleteOlderThan(ctx context.Context, nodeIDs []string, cutoff time.Time) (int64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var total int64
	for _, nodeID := range nodeIDs {
		kept := m.samples[nodeID][:0]
		for _, sample := range m.samples[nodeID] {
			if sample.Timestamp.Before(cutoff) {
				total++
				continue
			}
			kept = append(kept, sample)
		}
		m.samples[nodeID] = kept
	}

	return total, nil
}
