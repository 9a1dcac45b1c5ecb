package cycle

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/hewenyu/vmark-central/internal/core/model"
	"github.com/hewenyu/vmark-central/internal/store/etcd"
	"github.com/hewenyu/vmark-central/internal/store/history"
	nodestore "github.com/hewenyu/vmark-central/internal/store/node"
)

// EtcdCycleStore 实现基于etcd事务的心跳周期提交
type EtcdCycleStore struct {
	client *etcd.Client
}

// NewEtcdCycleStore 创建一个新的基于etcd的周期提交存储
func NewEtcdCycleStore(client *etcd.Client) *EtcdCycleStore {
	return &EtcdCycleStore{
		client: client,
	}
}

// CommitCycle 提交一个完整的心跳周期。
// 整个周期编码为单个etcd事务：
//   - 比较条件：每个节点键的修订版本等于周期开始读取时的版本，
//     保证不会覆盖周期内的操作员修改（行级写串行化）；
//   - then分支：写入全部节点状态、全部延迟记录，并按节点裁剪过期历史；
//   - else分支：仅写入延迟记录与裁剪历史。
//
// 每个节点在事务中占3个操作（状态写入、样本写入、历史裁剪），
// 受etcd服务端--max-txn-ops限制（默认128），默认配置下单周期
// 最多容纳约42个节点；更大规模的集群需要相应调高该服务端参数。
func (s *EtcdCycleStore) CommitCycle(ctx context.Context, nodes []*model.Node, samples []*model.LatencySample, cutoff time.Time) (bool, error) {
	cmps := make([]clientv3.Cmp, 0, len(nodes))
	nodeOps := make([]clientv3.Op, 0, len(nodes))
	sharedOps := make([]clientv3.Op, 0, len(samples)+len(nodes))

	for _, node := range nodes {
		key := nodestore.NodeKey(node.ID)
		cmps = append(cmps, clientv3.Compare(clientv3.ModRevision(key), "=", node.ModRevision))

		data, err := json.Marshal(node)
		if err != nil {
			return false, fmt.Errorf("序列化节点记录失败 [%s]: %w", node.ID, err)
		}
		nodeOps = append(nodeOps, clientv3.OpPut(key, string(data)))

		// 裁剪该节点严格早于cutoff的延迟历史
		sharedOps = append(sharedOps, clientv3.OpDelete(
			history.SamplePrefix(node.ID),
			clientv3.WithRange(history.SampleKey(node.ID, cutoff)),
		))
	}

	for _, sample := range samples {
		if sample.ID == "" {
			sample.ID = uuid.New().String()
		}

		data, err := json.Marshal(sample)
		if err != nil {
			return false, fmt.Errorf("序列化延迟记录失败 [%s]: %w", sample.NodeID, err)
		}
		sharedOps = append(sharedOps, clientv3.OpPut(history.SampleKey(sample.NodeID, sample.Timestamp), string(data)))
	}

	thenOps := append(append([]clientv3.Op{}, nodeOps...), sharedOps...)

	committed, err := s.client.Commit(ctx, cmps, thenOps, sharedOps)
	if err != nil {
		return false, fmt.Errorf("提交心跳周期失败: %w", err)
	}

	return committed, nil
}
