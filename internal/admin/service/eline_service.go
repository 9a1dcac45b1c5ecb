package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hewenyu/vmark-central/internal/config"
	"github.com/hewenyu/vmark-central/internal/core/model"
	elinestatus "github.com/hewenyu/vmark-central/internal/eline"
	elinestore "github.com/hewenyu/vmark-central/internal/store/eline"
	"github.com/hewenyu/vmark-central/internal/store/node"
)

// ELineAdminService 提供E-Line服务管理相关的业务逻辑。
// 服务定义只由操作员通过本服务写入；实时状态由聚合器派生，不持久化。
type ELineAdminService interface {
	// CreateService 创建E-Line服务
	CreateService(ctx context.Context, svc *model.ELineService) (*model.ELineService, error)

	// UpdateService 更新E-Line服务，服务名称不可修改
	UpdateService(ctx context.Context, name string, req *model.ELineServiceUpdateRequest) (*model.ELineService, error)

	// DeleteService 删除E-Line服务
	DeleteService(ctx context.Context, name string) error

	// GetServiceStatus 获取单个服务的定义及实时状态
	GetServiceStatus(ctx context.Context, name string) (*model.ELineServiceStatus, error)

	// ListServiceStatuses 获取所有服务的定义及实时状态，状态并发解析
	ListServiceStatuses(ctx context.Context) ([]*model.ELineServiceStatus, error)
}

// elineAdminService 实现ELineAdminService接口
type elineAdminService struct {
	store    elinestore.ELineStore
	nodes    node.NodeStore
	resolver *elinestatus.StatusResolver
	logger   config.Logger
}

// NewELineAdminService 创建一个新的E-Line服务管理服务
func NewELineAdminService(store elinestore.ELineStore, nodes node.NodeStore,
	resolver *elinestatus.StatusResolver, logger config.Logger) ELineAdminService {
	return &elineAdminService{
		store:    store,
		nodes:    nodes,
		resolver: resolver,
		logger:   logger,
	}
}

// validateSides 校验服务定义的两侧引用
func (s *elineAdminService) validateSides(ctx context.Context, svc *model.ELineService) error {
	if svc.Name == "" {
		return &ValidationError{Message: "服务名称不能为空"}
	}
	if svc.ANodeID == "" || svc.ARuleName == "" {
		return &ValidationError{Message: "A侧节点ID和规则名不能为空"}
	}

	// Z侧可选，但一旦指定节点就必须同时指定规则名
	if svc.ZNodeID != "" && svc.ZRuleName == "" {
		return &ValidationError{Message: "Z侧规则名不能为空"}
	}
	if svc.ZNodeID == "" && (svc.ZIface != "" || svc.ZRuleName != "") {
		return &ValidationError{Message: "Z侧字段必须同时提供或全部省略"}
	}

	// 引用的节点必须已注册
	if n, err := s.nodes.Get(ctx, svc.ANodeID); err != nil {
		return fmt.Errorf("获取A侧节点失败: %w", err)
	} else if n == nil {
		return &ValidationError{Message: fmt.Sprintf("A侧节点不存在: %s", svc.ANodeID)}
	}

	if svc.HasZSide() {
		if n, err := s.nodes.Get(ctx, svc.ZNodeID); err != nil {
			return fmt.Errorf("获取Z侧节点失败: %w", err)
		} else if n == nil {
			return &ValidationError{Message: fmt.Sprintf("Z侧节点不存在: %s", svc.ZNodeID)}
		}
	}

	return nil
}

// CreateService 创建E-Line服务
func (s *elineAdminService) CreateService(ctx context.Context, svc *model.ELineService) (*model.ELineService, error) {
	if err := s.validateSides(ctx, svc); err != nil {
		return nil, err
	}

	existing, err := s.store.Get(ctx, svc.Name)
	if err != nil {
		return nil, fmt.Errorf("检查服务是否存在失败: %w", err)
	}
	if existing != nil {
		return nil, ErrELineExists
	}

	now := time.Now().UTC()
	svc.CreatedAt = now
	svc.UpdatedAt = now

	if err := s.store.Put(ctx, svc); err != nil {
		return nil, fmt.Errorf("创建E-Line服务失败: %w", err)
	}

	s.logger.Info("E-Line服务已创建",
		zap.String("name", svc.Name),
		zap.String("a_node_id", svc.ANodeID),
		zap.String("z_node_id", svc.ZNodeID))

	return svc, nil
}

// UpdateService 更新E-Line服务
func (s *elineAdminService) UpdateService(ctx context.Context, name string, req *model.ELineServiceUpdateRequest) (*model.ELineService, error) {
	existing, err := s.store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("获取E-Line服务失败: %w", err)
	}
	if existing == nil {
		return nil, ErrELineNotFound
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}
	if req.ANodeID != nil {
		existing.ANodeID = *req.ANodeID
	}
	if req.AIface != nil {
		existing.AIface = *req.AIface
	}
	if req.ARuleName != nil {
		existing.ARuleName = *req.ARuleName
	}
	if req.ZNodeID != nil {
		existing.ZNodeID = *req.ZNodeID
	}
	if req.ZIface != nil {
		existing.ZIface = *req.ZIface
	}
	if req.ZRuleName != nil {
		existing.ZRuleName = *req.ZRuleName
	}

	if err := s.validateSides(ctx, existing); err != nil {
		return nil, err
	}

	existing.UpdatedAt = time.Now().UTC()

	if err := s.store.Put(ctx, existing); err != nil {
		return nil, fmt.Errorf("更新E-Line服务失败: %w", err)
	}

	return existing, nil
}

// DeleteService 删除E-Line服务
func (s *elineAdminService) DeleteService(ctx context.Context, name string) error {
	deleted, err := s.store.Delete(ctx, name)
	if err != nil {
		return fmt.Errorf("删除E-Line服务失败: %w", err)
	}

	if !deleted {
		return ErrELineNotFound
	}

	return nil
}

// GetServiceStatus 获取单个服务的定义及实时状态
func (s *elineAdminService) GetServiceStatus(ctx context.Context, name string) (*model.ELineServiceStatus, error) {
	svc, err := s.store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("获取E-Line服务失败: %w", err)
	}
	if svc == nil {
		return nil, ErrELineNotFound
	}

	return s.resolver.ResolveStatus(ctx, svc), nil
}

// ListServiceStatuses 获取所有服务的定义及实时状态
func (s *elineAdminService) ListServiceStatuses(ctx context.Context) ([]*model.ELineServiceStatus, error) {
	services, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取E-Line服务列表失败: %w", err)
	}

	return s.resolver.ResolveAll(ctx, services), nil
}
