package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hewenyu/vmark-central/internal/admin"
	"github.com/hewenyu/vmark-central/internal/admin/handler"
	"github.com/hewenyu/vmark-central/internal/agent"
	"github.com/hewenyu/vmark-central/internal/config"
	elinestatus "github.com/hewenyu/vmark-central/internal/eline"
	"github.com/hewenyu/vmark-central/internal/heartbeat"
	"github.com/hewenyu/vmark-central/internal/relay"
	"github.com/hewenyu/vmark-central/internal/store/cycle"
	elinestore "github.com/hewenyu/vmark-central/internal/store/eline"
	"github.com/hewenyu/vmark-central/internal/store/etcd"
	"github.com/hewenyu/vmark-central/internal/store/history"
	nodestore "github.com/hewenyu/vmark-central/internal/store/node"
)

var (
	logger     config.Logger
	configFile string
	appConfig  *config.Config
)

func init() {
	// 解析命令行参数
	flag.StringVar(&configFile, "config", "", "配置文件路径")
}

func main() {
	flag.Parse()

	// 加载配置
	var err error
	appConfig, err = config.LoadConfig(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger, err = config.NewLogger(appConfig.Log.Level, appConfig.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	// 打印启动信息
	logger.Info("vMark Central Starting...",
		zap.String("version", handler.Version),
		zap.String("etcd_endpoints", fmt.Sprintf("%v", appConfig.Etcd.Endpoints)),
		zap.Int("api_port", appConfig.Server.Port),
		zap.Duration("heartbeat_interval", appConfig.Fleet.HeartbeatInterval),
	)

	// 初始化etcd客户端
	etcdClient, err := etcd.NewClient(appConfig)
	if err != nil {
		logger.Error("连接etcd失败", zap.Error(err))
		os.Exit(1)
	}
	defer etcdClient.Close()

	// 检查etcd连接状态
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := etcdClient.Ping(ctx); err != nil {
		logger.Error("etcd健康检查失败", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("etcd连接成功并通过健康检查")

	// 创建存储
	nodes := nodestore.NewEtcdNodeStore(etcdClient)
	historyStore := history.NewEtcdHistoryStore(etcdClient)
	elines := elinestore.NewEtcdELineStore(etcdClient)
	cycles := cycle.NewEtcdCycleStore(etcdClient)

	// 创建核心组件
	agentClient := agent.NewClient(appConfig.Fleet.ControllerID, logger)
	commandRelay := relay.NewRelay(nodes, agentClient, logger)
	resolver := elinestatus.NewStatusResolver(commandRelay, nodes, appConfig.Fleet.StatusTimeout, logger)

	// 滑动窗口采样器由调度器持有，进程重启后从零开始积累
	sampler := heartbeat.NewSampler()
	scheduler := heartbeat.NewScheduler(nodes, cycles, agentClient, sampler, logger,
		appConfig.Fleet.HeartbeatInterval, appConfig.Fleet.ProbeTimeout, appConfig.Fleet.Retention)
	scheduler.Start()

	// 启动管理API服务
	server := admin.NewServer(appConfig, logger, nodes, historyStore, elines, agentClient, commandRelay, resolver)
	if err := server.Start(); err != nil {
		logger.Error("管理API服务启动失败", zap.Error(err))
		os.Exit(1)
	}

	// 等待信号以优雅关闭
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("接收到关闭信号，正在优雅关闭...")

	// 先停止心跳循环，等待进行中的周期完成
	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("管理API服务关闭失败", zap.Error(err))
	}

	logger.Info("vMark Central已退出")
}
