package eline

import (
	"context"

	"github.com/hewenyu/vmark-central/internal/core/model"
)

// ELineStore 表示E-Line服务定义的存储接口。
// 服务定义只由操作员写入，状态聚合器只读。
type ELineStore interface {
	// Get 获取服务定义，服务不存在时返回nil
	Get(ctx context.Context, name string) (*model.ELineService, error)

	// List 获取所有服务定义
	List(ctx context.Context) ([]*model.ELineService, error)

	// Put 创建或更新服务定义
	Put(ctx context.Context, service *model.ELineService) error

	// Delete 删除服务定义，返回是否确实删除了记录
	Delete(ctx context.Context, name string) (bool, error)
}
