package cycle

import (
	"context"
	"time"

	"github.com/hewenyu/vmark-central/internal/core/model"
	"github.com/hewenyu/vmark-central/internal/store/history"
	"github.com/hewenyu/vmark-central/internal/store/node"
)

// MemoryCycleStore 是基于内存存储的周期提交实现，主要用于测试。
// 内存实现不做并发修改检测，总是应用全部写入。
type MemoryCycleStore struct {
	nodes   node.NodeStore
	history history.HistoryStore
}

// NewMemoryCycleStore 创建新的内存周期提交存储
func NewMemoryCycleStore(nodes node.NodeStore, historyStore history.HistoryStore) *MemoryCycleStore {
	return &MemoryCycleStore{
		nodes:   nodes,
		history: historyStore,
	}
}

// CommitCycle 提交一个心跳周期
func (m *MemoryCycleStore) CommitCycle(ctx context.Context, nodes []*model.Node, samples []*model.LatencySample, cutoff time.Time) (bool, error) {
	nodeIDs := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if err := m.nodes.Upsert(ctx, n); err != nil {
			return false, err
		}
		nodeIDs = append(nodeIDs, n.ID)
	}

	for _, sample := range samples {
		if err := m.history.Append(ctx, sample); err != nil {
			return false, err
		}
	}

	if _, err := m.history.DeleteOlderThan(ctx, nodeIDs, cutoff); err != nil {
		return false, err
	}

	return true, nil
}
