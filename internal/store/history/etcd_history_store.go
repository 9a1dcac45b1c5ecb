package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hewenyu/vmark-central/internal/core/model"
	"github.com/hewenyu/vmark-central/internal/store/etcd"
)

// HistoryPrefix 延迟历史存储的前缀
const HistoryPrefix = "/vmark/latency/"

// SamplePrefix 获取某节点延迟历史的键前缀
func SamplePrefix(nodeID string) string {
	return HistoryPrefix + nodeID + "/"
}

// SampleKey 获取一条延迟历史记录的存储键。
// 时间戳以零填充的纳秒数编码，保证键序即时间序，
// 从而可以用etcd区间操作按时间裁剪历史。
func SampleKey(nodeID string, ts time.Time) string {
	return fmt.Sprintf("%s%020d", SamplePrefix(nodeID), ts.UnixNano())
}

// EtcdHistoryStore 实现基于etcd的延迟历史存储
type EtcdHistoryStore struct {
	client *etcd.Client
}

// NewEtcdHistoryStore 创建一个新的基于etcd的延迟历史存储
func NewEtcdHistoryStore(client *etcd.Client) *EtcdHistoryStore {
	return &EtcdHistoryStore{
		client: client,
	}
}

// Append 追加一条延迟历史记录
func (s *EtcdHistoryStore) Append(ctx context.Context, sample *model.LatencySample) error {
	if sample.NodeID == "" {
		return fmt.Errorf("延迟记录的节点ID不能为空")
	}

	if sample.ID == "" {
		sample.ID = uuid.New().String()
	}

	data, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("序列化延迟记录失败: %w", err)
	}

	key := SampleKey(sample.NodeID, sample.Timestamp)
	if err := s.client.Put(ctx, key, data); err != nil {
		return fmt.Errorf("存储延迟记录失败: %w", err)
	}

	return nil
}

// QueryRange 查询某节点自since以来的全部记录
func (s *EtcdHistoryStore) QueryRange(ctx context.Context, nodeID string, since time.Time) ([]*model.LatencySample, error) {
	start := SampleKey(nodeID, since)
	end := SamplePrefix(nodeID) + "\xff"

	kvs, err := s.client.GetRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("查询延迟历史失败: %w", err)
	}

	samples := make([]*model.LatencySample, 0, len(kvs))
	for _, kv := range kvs {
		var sample model.LatencySample
		if err := json.Unmarshal(kv.Value, &sample); err != nil {
			return nil, fmt.Errorf("解析延迟记录失败 [%s]: %w", kv.Key, err)
		}
		samples = append(samples, &sample)
	}

	return samples, nil
}

// DeleteAll 删除某节点的全部延迟历史记录
func (s *EtcdHistoryStore) DeleteAll(ctx context.Context, nodeID string) (int64, error) {
	deleted, err := s.client.DeleteWithPrefix(ctx, SamplePrefix(nodeID))
	if err != nil {
		return 0, fmt.Errorf("删除节点 %s 的延迟历史失败: %w", nodeID, err)
	}

	return deleted, nil
}

// DeleteOlderThan 批量删除指定节点集中严格早于cutoff的记录
func (s *EtcdHistoryStore) DeleteOlderThan(ctx context.Context, nodeIDs []string, cutoff time.Time) (int64, error) {
	var total int64
	for _, nodeID := range nodeIDs {
		deleted, err := s.client.DeleteRange(ctx, SamplePrefix(nodeID), SampleKey(nodeID, cutoff))
		if err != nil {
			return total, fmt.Errorf("删除节点 %s 的过期延迟历史失败: %w", nodeID, err)
		}
		total += deleted
	}

	return total, nil
}
