package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hewenyu/vmark-central/internal/agent"
	"github.com/hewenyu/vmark-central/internal/config"
	"github.com/hewenyu/vmark-central/internal/core/model"
	"github.com/hewenyu/vmark-central/internal/relay"
	"github.com/hewenyu/vmark-central/internal/store/history"
	"github.com/hewenyu/vmark-central/internal/store/node"
)

// NodeService 提供节点管理相关的业务逻辑
type NodeService interface {
	// ListNodes 获取所有节点
	ListNodes(ctx context.Context) ([]*model.Node, error)

	// RegisterNode 注册节点，注册前向节点代理验证操作员令牌
	RegisterNode(ctx context.Context, req *model.NodeRegistrationRequest) (*model.Node, error)

	// UpdateNode 更新节点信息，提供新令牌时会重新验证
	UpdateNode(ctx context.Context, nodeID string, req *model.NodeUpdateRequest) (*model.Node, error)

	// DeleteNode 删除节点
	DeleteNode(ctx context.Context, nodeID string) error

	// GetLatencyHistory 查询节点延迟历史，hours取值1~168，
	// interval为"minute"时按分钟聚合
	GetLatencyHistory(ctx context.Context, nodeID string, hours int, interval string) ([]*model.LatencyPoint, error)

	// ExecuteCommand 向节点转发一条临时命令
	ExecuteCommand(ctx context.Context, nodeID, command string) (interface{}, error)
}

// nodeService 实现NodeService接口
type nodeService struct {
	nodes   node.NodeStore
	history history.HistoryStore
	agent   *agent.Client
	relay   *relay.Relay
	logger  config.Logger

	defaultNodePort int
	commandTimeout  time.Duration
}

// NewNodeService 创建一个新的节点管理服务
func NewNodeService(nodes node.NodeStore, historyStore history.HistoryStore,
	agentClient *agent.Client, commandRelay *relay.Relay, logger config.Logger,
	defaultNodePort int, commandTimeout time.Duration) NodeService {
	return &nodeService{
		nodes:           nodes,
		history:         historyStore,
		agent:           agentClient,
		relay:           commandRelay,
		logger:          logger,
		defaultNodePort: defaultNodePort,
		commandTimeout:  commandTimeout,
	}
}

// ListNodes 获取所有节点
func (s *nodeService) ListNodes(ctx context.Context) ([]*model.Node, error) {
	nodes, err := s.nodes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取节点列表失败: %w", err)
	}
	return nodes, nil
}

// RegisterNode 注册节点
func (s *nodeService) RegisterNode(ctx context.Context, req *model.NodeRegistrationRequest) (*model.Node, error) {
	if req.NodeID == "" {
		return nil, &ValidationError{Message: "节点ID不能为空"}
	}
	if req.IP == "" {
		return nil, &ValidationError{Message: "节点IP不能为空"}
	}
	if req.AuthToken == "" {
		return nil, &ValidationError{Message: "注册令牌不能为空"}
	}

	port := req.Port
	if port == 0 {
		port = s.defaultNodePort
	}

	// 先向节点代理验证令牌，验证失败则不写入注册表
	if err := s.agent.ValidateToken(ctx, req.IP, port, req.AuthToken, s.commandTimeout); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	n := &model.Node{
		ID:       req.NodeID,
		IP:       req.IP,
		Port:     port,
		Tags:     req.Tags,
		Status:   model.NodeStatusOnline,
		LastSeen: &now,
	}

	if err := s.nodes.Upsert(ctx, n); err != nil {
		return nil, fmt.Errorf("注册节点失败: %w", err)
	}

	s.logger.Info("节点注册成功",
		zap.String("node_id", n.ID),
		zap.String("ip", n.IP),
		zap.Int("port", n.Port))

	return n, nil
}

// UpdateNode 更新节点信息
func (s *nodeService) UpdateNode(ctx context.Context, nodeID string, req *model.NodeUpdateRequest) (*model.Node, error) {
	existing, err := s.nodes.Get(ctx, nodeID)
	if err != nil {
		return nil, fmt.Errorf("获取节点记录失败: %w", err)
	}
	if existing == nil {
		return nil, ErrNodeNotFound
	}

	if req.IP == "" {
		return nil, &ValidationError{Message: "节点IP不能为空"}
	}

	port := req.Port
	if port == 0 {
		port = s.defaultNodePort
	}

	// 提供了新令牌时，向新地址重新验证
	if req.AuthToken != "" {
		if err := s.agent.ValidateToken(ctx, req.IP, port, req.AuthToken, s.commandTimeout); err != nil {
			return nil, err
		}
	}

	existing.IP = req.IP
	existing.Port = port
	existing.Tags = req.Tags

	if err := s.nodes.Upsert(ctx, existing); err != nil {
		return nil, fmt.Errorf("更新节点失败: %w", err)
	}

	return existing, nil
}

// DeleteNode 删除节点及其全部延迟历史。
// 周期裁剪只覆盖在册节点，历史必须随注册记录一起清除，
// 否则已删除节点的记录会永久残留。
func (s *nodeService) DeleteNode(ctx context.Context, nodeID string) error {
	deleted, err := s.nodes.Delete(ctx, nodeID)
	if err != nil {
		return fmt.Errorf("删除节点失败: %w", err)
	}

	if !deleted {
		return ErrNodeNotFound
	}

	purged, err := s.history.DeleteAll(ctx, nodeID)
	if err != nil {
		return fmt.Errorf("删除节点延迟历史失败: %w", err)
	}

	s.logger.Info("节点已删除",
		zap.String("node_id", nodeID),
		zap.Int64("purged_samples", purged))

	return nil
}

// GetLatencyHistory 查询节点延迟历史
func (s *nodeService) GetLatencyHistory(ctx context.Context, nodeID string, hours int, interval string) ([]*model.LatencyPoint, error) {
	if hours < 1 || hours > 168 {
		return nil, &ValidationError{Message: fmt.Sprintf("时间窗口必须在1~168小时之间: %d", hours)}
	}

	if interval != "" && interval != "minute" {
		return nil, &ValidationError{Message: fmt.Sprintf("不支持的聚合间隔: %s", interval)}
	}

	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	samples, err := s.history.QueryRange(ctx, nodeID, since)
	if err != nil {
		return nil, fmt.Errorf("查询延迟历史失败: %w", err)
	}

	if interval == "minute" {
		return aggregateByMinute(samples), nil
	}

	points := make([]*model.LatencyPoint, 0, len(samples))
	for _, sample := range samples {
		points = append(points, &model.LatencyPoint{
			Time:      sample.Timestamp,
			LatencyMs: sample.LatencyMs,
		})
	}

	return points, nil
}

// aggregateByMinute 按分钟聚合延迟样本，只平均有值的样本，
// 没有任何有效读数的分钟不输出数据点，结果按时间升序排列
func aggregateByMinute(samples []*model.LatencySample) []*model.LatencyPoint {
	type bucket struct {
		sum   float64
		count int
	}

	buckets := make(map[time.Time]*bucket)
	var order []time.Time

	for _, sample := range samples {
		if sample.LatencyMs == nil {
			continue
		}

		minute := sample.Timestamp.Truncate(time.Minute)
		b, exists := buckets[minute]
		if !exists {
			b = &bucket{}
			buckets[minute] = b
			order = append(order, minute)
		}

		b.sum += *sample.LatencyMs
		b.count++
	}

	// 输入样本本身按时间升序，截断到分钟后顺序保持不变
	points := make([]*model.LatencyPoint, 0, len(order))
	for _, minute := range order {
		b := buckets[minute]
		avg := b.sum / float64(b.count)
		points = append(points, &model.LatencyPoint{
			Time:      minute,
			LatencyMs: &avg,
		})
	}

	return points
}

// ExecuteCommand 向节点转发一条临时命令
func (s *nodeService) ExecuteCommand(ctx context.Context, nodeID, command string) (interface{}, error) {
	if command == "" {
		return nil, &ValidationError{Message: "命令不能为空"}
	}

	return s.relay.Execute(ctx, nodeID, command, s.commandTimeout)
}
