package eline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hewenyu/vmark-central/internal/config"
	"github.com/hewenyu/vmark-central/internal/core/model"
	"github.com/hewenyu/vmark-central/internal/relay"
	"github.com/hewenyu/vmark-central/internal/store/node"
)

// showForwardingCommand 节点代理的转发表内省命令
const showForwardingCommand = "xdp-switch show-forwarding json"

// StatusResolver 是E-Line服务状态聚合器：并发查询服务两侧节点的
// 转发规则表，按规则名匹配，把两个独立的远端事实归约为一个服务级
// 的激活标志。聚合器只读服务定义，从不修改它。
type StatusResolver struct {
	relay   *relay.Relay
	nodes   node.NodeStore
	timeout time.Duration
	logger  config.Logger
}

// NewStatusResolver 创建一个新的状态聚合器
func NewStatusResolver(commandRelay *relay.Relay, nodes node.NodeStore, timeout time.Duration, logger config.Logger) *StatusResolver {
	return &StatusResolver{
		relay:   commandRelay,
		nodes:   nodes,
		timeout: timeout,
		logger:  logger,
	}
}

// ResolveStatus 解析一个E-Line服务的实时状态。
// 两侧总是并发查询，总耗时约为两侧中较慢者，而不是两者之和。
// 归约规则：A侧规则存在且激活，并且（未定义Z侧，或Z侧规则存在且
// 激活）时服务为激活。单侧检查失败只降级为该侧无快照，不会让整个
// 请求失败。
func (r *StatusResolver) ResolveStatus(ctx context.Context, svc *model.ELineService) *model.ELineServiceStatus {
	status := &model.ELineServiceStatus{
		ELineService: *svc,
	}

	// 附带两侧节点IP，便于前端展示（只读查询，失败时留空）
	if n, err := r.nodes.Get(ctx, svc.ANodeID); err == nil && n != nil {
		status.ANodeIP = n.IP
	}
	if svc.HasZSide() {
		if n, err := r.nodes.Get(ctx, svc.ZNodeID); err == nil && n != nil {
			status.ZNodeIP = n.IP
		}
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		status.AState, status.ARuleData = r.checkSide(ctx, svc.Name, svc.ANodeID, svc.ARuleName)
	}()

	if svc.HasZSide() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status.ZState, status.ZRuleData = r.checkSide(ctx, svc.Name, svc.ZNodeID, svc.ZRuleName)
		}()
	}

	wg.Wait()

	active := status.AState == model.SideStateActive
	if svc.HasZSide() {
		active = active && status.ZState == model.SideStateActive
	}
	status.Active = active

	return status
}

// ResolveAll 并发解析一组服务的实时状态，结果顺序与输入一致
func (r *StatusResolver) ResolveAll(ctx context.Context, services []*model.ELineService) []*model.ELineServiceStatus {
	statuses := make([]*model.ELineServiceStatus, len(services))

	var wg sync.WaitGroup
	for i, svc := range services {
		wg.Add(1)
		go func(i int, svc *model.ELineService) {
			defer wg.Done()
			statuses[i] = r.ResolveStatus(ctx, svc)
		}(i, svc)
	}
	wg.Wait()

	return statuses
}

// checkSide 查询一侧节点的转发表并按名称匹配规则。
// 查询失败与规则未找到都是有效的独立结果，不是错误：
// 前者返回unreachable，后者返回rule-missing，均不带快照。
func (r *StatusResolver) checkSide(ctx context.Context, serviceName, nodeID, ruleName string) (model.SideState, *model.ForwardingRule) {
	result, err := r.relay.Execute(ctx, nodeID, showForwardingCommand, r.timeout)
	if err != nil {
		r.logger.Warn("E-Line侧检查失败",
			zap.String("service", serviceName),
			zap.String("node_id", nodeID),
			zap.Error(err))
		return model.SideStateUnreachable, nil
	}

	rules, err := extractRules(result)
	if err != nil {
		r.logger.Warn("转发表解析失败",
			zap.String("service", serviceName),
			zap.String("node_id", nodeID),
			zap.Error(err))
		return model.SideStateRuleMissing, nil
	}

	for _, raw := range rules {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}

		if name, _ := entry["name"].(string); name != ruleName {
			continue
		}

		rule, err := decodeRule(entry)
		if err != nil {
			// 解码失败与未匹配同样视为无快照
			r.logger.Warn("转发规则解码失败",
				zap.String("service", serviceName),
				zap.String("node_id", nodeID),
				zap.String("rule", ruleName),
				zap.Error(err))
			return model.SideStateRuleMissing, nil
		}

		if rule.Active {
			return model.SideStateActive, rule
		}
		return model.SideStateInactive, rule
	}

	return model.SideStateRuleMissing, nil
}

// extractRules 从归一化后的命令输出中提取转发规则列表。
// 转发表可能直接是数组，也可能挂在table字段下，而table的值又可能
// 是需要二次解码的JSON字符串——这是节点代理的外部不一致性，在此
// 统一展开。
func extractRules(result interface{}) ([]interface{}, error) {
	switch v := result.(type) {
	case []interface{}:
		return v, nil
	case string:
		var decoded interface{}
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return nil, fmt.Errorf("转发表字符串解码失败: %w", err)
		}
		return extractRules(decoded)
	case map[string]interface{}:
		table, ok := v["table"]
		if !ok {
			return nil, fmt.Errorf("转发表响应缺少table字段")
		}
		return extractRules(table)
	default:
		return nil, fmt.Errorf("无法识别的转发表形状: %T", result)
	}
}

// decodeRule 把一条原始规则记录解码为转发规则快照
func decodeRule(entry map[string]interface{}) (*model.ForwardingRule, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}

	var rule model.ForwardingRule
	if err := json.Unmarshal(data, &rule); err != nil {
		return nil, err
	}

	return &rule, nil
}
