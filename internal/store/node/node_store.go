package node

import (
	"context"

	"github.com/hewenyu/vmark-central/internal/core/model"
)

// NodeStore 表示节点注册表存储接口
type NodeStore interface {
	// Get 获取节点记录，节点不存在时返回nil
	Get(ctx context.Context, nodeID string) (*model.Node, error)

	// List 获取所有节点记录
	List(ctx context.Context) ([]*model.Node, error)

	// Upsert 创建或更新节点记录
	Upsert(ctx context.Context, node *model.Node) error

	// Delete 删除节点记录，返回是否确实删除了记录
	Delete(ctx context.Context, nodeID string) (bool, error)
}
