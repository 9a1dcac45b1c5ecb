package cycle

import (
	"context"
	"time"

	"github.com/hewenyu/vmark-central/internal/core/model"
)

// CycleStore 表示心跳周期的提交接口。
// 一个周期内所有节点的状态更新、延迟记录追加和过期历史裁剪
// 必须作为一次提交对读取方可见，读取方不能观察到半更新的周期。
type CycleStore interface {
	// CommitCycle 提交一个完整的心跳周期。
	// 当某个节点记录在周期内被操作员并发修改（或删除）时，
	// 本周期放弃全部节点状态写入，仅提交延迟记录与历史裁剪，
	// 并返回false；下一个周期会重新收敛节点状态。
	CommitCycle(ctx context.Context, nodes []*model.Node, samples []*model.LatencySample, cutoff time.Time) (bool, error)
}
