package admin

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/hewenyu/vmark-central/internal/admin/handler"
	"github.com/hewenyu/vmark-central/internal/admin/service"
	"github.com/hewenyu/vmark-central/internal/agent"
	"github.com/hewenyu/vmark-central/internal/config"
	elinestatus "github.com/hewenyu/vmark-central/internal/eline"
	"github.com/hewenyu/vmark-central/internal/relay"
	elinestore "github.com/hewenyu/vmark-central/internal/store/eline"
	"github.com/hewenyu/vmark-central/internal/store/history"
	"github.com/hewenyu/vmark-central/internal/store/node"
)

// Server 表示管理API服务
type Server struct {
	e      *echo.Echo
	host   string
	port   int
	logger config.Logger
}

// NewServer 创建一个新的管理API服务
func NewServer(cfg *config.Config, logger config.Logger,
	nodes node.NodeStore, historyStore history.HistoryStore, elines elinestore.ELineStore,
	agentClient *agent.Client, commandRelay *relay.Relay, resolver *elinestatus.StatusResolver) *Server {
	// 创建Echo实例
	e := echo.New()
	e.HideBanner = true

	// 添加中间件
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		AllowCredentials: true,
	}))

	// 创建服务层
	nodeService := service.NewNodeService(nodes, historyStore, agentClient, commandRelay, logger,
		cfg.Fleet.DefaultNodePort, cfg.Fleet.CommandTimeout)
	elineService := service.NewELineAdminService(elines, nodes, resolver, logger)

	// 创建处理器并注册路由
	handler.NewNodeHandler(nodeService).RegisterRoutes(e)
	handler.NewELineHandler(elineService).RegisterRoutes(e)

	return &Server{
		e:      e,
		host:   cfg.Server.ListenAddress,
		port:   cfg.Server.Port,
		logger: logger,
	}
}

// Start 启动服务（非阻塞）
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.logger.Info("管理API服务启动", zap.String("address", addr))

	go func() {
		if err := s.e.Start(addr); err != nil && err != http.ErrServerClosed {
			s.logger.Error("管理API服务启动失败", zap.Error(err))
		}
	}()

	return nil
}

// Shutdown 优雅关闭服务
func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
