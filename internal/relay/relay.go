package relay

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/hewenyu/vmark-central/internal/agent"
	"github.com/hewenyu/vmark-central/internal/config"
	"github.com/hewenyu/vmark-central/internal/store/node"
)

// Relay 是命令中继：把调用方提供的命令字符串原样转发给节点代理，
// 并对代理响应的形状做归一化。中继不解释命令语义。
type Relay struct {
	nodes  node.NodeStore
	agent  *agent.Client
	logger config.Logger
}

// NewRelay 创建一个新的命令中继
func NewRelay(nodes node.NodeStore, agentClient *agent.Client, logger config.Logger) *Relay {
	return &Relay{
		nodes:  nodes,
		agent:  agentClient,
		logger: logger,
	}
}

// Execute 向指定节点转发一条命令并返回归一化后的输出。
// 节点不存在返回NodeNotFoundError，未配置端口返回NodeMisconfiguredError，
// 传输/代理层错误原样透传（见agent包的错误分类）。
func (r *Relay) Execute(ctx context.Context, nodeID, command string, timeout time.Duration) (interface{}, error) {
	n, err := r.nodes.Get(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	if n == nil {
		return nil, &NodeNotFoundError{NodeID: nodeID}
	}

	if n.Port <= 0 {
		return nil, &NodeMisconfiguredError{NodeID: nodeID, Reason: "未配置代理端口"}
	}

	payload, err := r.agent.Execute(ctx, n.IP, n.Port, command, timeout)
	if err != nil {
		r.logger.Warn("命令转发失败",
			zap.String("node_id", nodeID),
			zap.String("command", command),
			zap.Error(err))
		return nil, err
	}

	return NormalizeOutput(payload)
}

// NormalizeOutput 解包代理响应信封并归一化output字段。
// 节点代理对表格类输出的序列化在不同命令之间不一致：output可能是
// JSON编码的字符串、普通字符串或已经结构化的JSON。归一化规则：
//   - output缺失 → MalformedResponseError；
//   - output是字符串且可二次解析为JSON对象/数组 → 解析结果挂在table标记下；
//   - output是普通字符串 → 原样透传；
//   - output已是结构化JSON → 原样透传。
func NormalizeOutput(payload json.RawMessage) (interface{}, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, &agent.MalformedResponseError{Reason: "响应信封不是JSON对象", Err: err}
	}

	raw, ok := envelope["output"]
	if !ok {
		return nil, &agent.MalformedResponseError{Reason: "响应信封缺少output字段"}
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		var structured interface{}
		if err := json.Unmarshal([]byte(text), &structured); err == nil {
			switch structured.(type) {
			case map[string]interface{}, []interface{}:
				return map[string]interface{}{"table": structured}, nil
			}
		}
		return text, nil
	}

	var structured interface{}
	if err := json.Unmarshal(raw, &structured); err != nil {
		return nil, &agent.MalformedResponseError{Reason: "output字段无法解析", Err: err}
	}

	return structured, nil
}
