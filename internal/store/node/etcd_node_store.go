package node

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hewenyu/vmark-central/internal/core/model"
	"github.com/hewenyu/vmark-central/internal/store/etcd"
)

// NodePrefix 节点存储的前缀
const NodePrefix = "/vmark/nodes/"

// NodeKey 获取节点的存储键
func NodeKey(nodeID string) string {
	return NodePrefix + nodeID
}

// EtcdNodeStore 实现基于etcd的节点存储
type EtcdNodeStore struct {
	client *etcd.Client
}

// NewEtcdNodeStore 创建一个新的基于etcd的节点存储
func NewEtcdNodeStore(client *etcd.Client) *EtcdNodeStore {
	return &EtcdNodeStore{
		client: client,
	}
}

// Get 获取节点记录
func (s *EtcdNodeStore) Get(ctx context.Context, nodeID string) (*model.Node, error) {
	kv, err := s.client.Get(ctx, NodeKey(nodeID))
	if err != nil {
		return nil, fmt.Errorf("获取节点记录失败: %w", err)
	}

	if kv == nil {
		return nil, nil // 节点不存在
	}

	node, err := decodeNode(kv)
	if err != nil {
		return nil, err
	}

	return node, nil
}

// List 获取所有节点记录
func (s *EtcdNodeStore) List(ctx context.Context) ([]*model.Node, error) {
	kvs, err := s.client.GetWithPrefix(ctx, NodePrefix)
	if err != nil {
		return nil, fmt.Errorf("获取节点列表失败: %w", err)
	}

	nodes := make([]*model.Node, 0, len(kvs))
	for i := range kvs {
		node, err := decodeNode(&kvs[i])
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	return nodes, nil
}

// Upsert 创建或更新节点记录
func (s *EtcdNodeStore) Upsert(ctx context.Context, node *model.Node) error {
	if node.ID == "" {
		return fmt.Errorf("节点ID不能为空")
	}

	data, err := json.Marshal(node)
	if err != nil {
		return fmt.Errorf("序列化节点记录失败: %w", err)
	}

	if err := s.client.Put(ctx, NodeKey(node.ID), data); err != nil {
		return fmt.Errorf("存储节点记录失败: %w", err)
	}

	return nil
}

// Delete 删除节点记录
func (s *EtcdNodeStore) Delete(ctx context.Context, nodeID string) (bool, error) {
	deleted, err := s.client.Delete(ctx, NodeKey(nodeID))
	if err != nil {
		return false, fmt.Errorf("删除节点记录失败: %w", err)
	}

	return deleted > 0, nil
}

// decodeNode 将etcd键值解析为节点记录，并携带修订版本
func decodeNode(kv *etcd.KeyValue) (*model.Node, error) {
	var node model.Node
	if err := json.Unmarshal(kv.Value, &node); err != nil {
		return nil, fmt.Errorf("解析节点记录失败 [%s]: %w", kv.Key, err)
	}

	node.ModRevision = kv.ModRevision
	return &node, nil
}
