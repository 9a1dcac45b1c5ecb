package history

import (
	"context"
	"time"

	"github.com/hewenyu/vmark-central/internal/core/model"
)

// HistoryStore 表示延迟历史存储接口。
// 记录按节点追加写入，按时间区间查询，按保留期限批量删除。
type HistoryStore interface {
	// Append 追加一条延迟历史记录
	Append(ctx context.Context, sample *model.LatencySample) error

	// QueryRange 查询某节点自since以来的全部记录，按时间升序排列
	QueryRange(ctx context.Context, nodeID string, since time.Time) ([]*model.LatencySample, error)

	// DeleteOlderThan 批量删除指定节点集中严格早于cutoff的记录，
	// 返回删除的记录数
	DeleteOlderThan(ctx context.Context, nodeIDs []string, cutoff time.Time) (int64, error)

	// DeleteAll 删除某节点的全部延迟历史记录，返回删除的记录数。
	// 节点从注册表删除时调用；周期裁剪只覆盖在册节点，
	// 不在此清除的历史会永久残留。
	DeleteAll(ctx context.Context, nodeID string) (int64, error)
}
