package eline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hewenyu/vmark-central/internal/core/model"
	"github.com/hewenyu/vmark-central/internal/store/etcd"
)

// ELinePrefix E-Line服务存储的前缀
const ELinePrefix = "/vmark/elines/"

// elineKey 获取服务定义的存储键
func elineKey(name string) string {
	return ELinePrefix + name
}

// EtcdELineStore 实现基于etcd的E-Line服务存储
type EtcdELineStore struct {
	client *etcd.Client
}

// NewEtcdELineStore 创建一个新的基于etcd的E-Line服务存储
func NewEtcdELineStore(client *etcd.Client) *EtcdELineStore {
	return &EtcdELineStore{
		client: client,
	}
}

// Get 获取服务定义
func (s *EtcdELineStore) Get(ctx context.Context, name string) (*model.ELineService, error) {
	kv, err := s.client.Get(ctx, elineKey(name))
	if err != nil {
		return nil, fmt.Errorf("获取E-Line服务失败: %w", err)
	}

	if kv == nil {
		return nil, nil // 服务不存在
	}

	var service model.ELineService
	if err := json.Unmarshal(kv.Value, &service); err != nil {
		return nil, fmt.Errorf("解析E-Line服务失败 [%s]: %w", kv.Key, err)
	}

	return &service, nil
}

// List 获取所有服务定义
func (s *EtcdELineStore) List(ctx context.Context) ([]*model.ELineService, error) {
	kvs, err := s.client.GetWithPrefix(ctx, ELinePrefix)
	if err != nil {
		return nil, fmt.Errorf("获取E-Line服务列表失败: %w", err)
	}

	services := make([]*model.ELineService, 0, len(kvs))
	for _, kv := range kvs {
		var service model.ELineService
		if err := json.Unmarshal(kv.Value, &service); err != nil {
			return nil, fmt.Errorf("解析E-Line服务失败 [%s]: %w", kv.Key, err)
		}
		services = append(services, &service)
	}

	return services, nil
}

// Put 创建或更新服务定义
func (s *EtcdELineStore) Put(ctx context.Context, service *model.ELineService) error {
	if service.Name == "" {
		return fmt.Errorf("E-Line服务名称不能为空")
	}

	data, err := json.Marshal(service)
	if err != nil {
		return fmt.Errorf("序列化E-Line服务失败: %w", err)
	}

	if err := s.client.Put(ctx, elineKey(service.Name), data); err != nil {
		return fmt.Errorf("存储E-Line服务失败: %w", err)
	}

	return nil
}

// Delete 删除服务定义
func (s *EtcdELineStore) Delete(ctx context.Context, name string) (bool, error) {
	deleted, err := s.client.Delete(ctx, elineKey(name))
	if err != nil {
		return false, fmt.Errorf("删除E-Line服务失败: %w", err)
	}

	return deleted > 0, nil
}
