package heartbeat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hewenyu/vmark-central/internal/agent"
	"github.com/hewenyu/vmark-central/internal/config"
	"github.com/hewenyu/vmark-central/internal/core/model"
	"github.com/hewenyu/vmark-central/internal/store/cycle"
	"github.com/hewenyu/vmark-central/internal/store/node"
)

// Scheduler 是心跳调度器：以固定周期并发探测所有已注册节点，
// 更新节点在线状态与延迟历史，并裁剪超出保留期的历史记录。
// 周期之间不重叠：一个完整的探测+提交流程结束后才等待下一个周期。
type Scheduler struct {
	nodes   node.NodeStore
	cycles  cycle.CycleStore
	agent   *agent.Client
	sampler *Sampler
	logger  config.Logger

	interval     time.Duration
	probeTimeout time.Duration
	retention    time.Duration

	stopChan chan struct{}
	doneChan chan struct{}
}

// NewScheduler 创建一个新的心跳调度器
func NewScheduler(nodes node.NodeStore, cycles cycle.CycleStore, agentClient *agent.Client,
	sampler *Sampler, logger config.Logger,
	interval, probeTimeout, retention time.Duration) *Scheduler {
	return &Scheduler{
		nodes:        nodes,
		cycles:       cycles,
		agent:        agentClient,
		sampler:      sampler,
		logger:       logger,
		interval:     interval,
		probeTimeout: probeTimeout,
		retention:    retention,
	}
}

// Start 启动心跳循环（非阻塞）
func (s *Scheduler) Start() {
	s.stopChan = make(chan struct{})
	s.doneChan = make(chan struct{})

	go s.run()

	s.logger.Info("心跳调度器已启动",
		zap.Duration("interval", s.interval),
		zap.Duration("probe_timeout", s.probeTimeout),
		zap.Duration("retention", s.retention))
}

// Stop 停止心跳循环并等待进行中的周期完成，关闭是确定性的
func (s *Scheduler) Stop() {
	if s.stopChan == nil {
		return
	}

	close(s.stopChan)
	<-s.doneChan
	s.logger.Info("心跳调度器已停止")
}

// run 心跳主循环。周期内的任何失败只记录日志，不会中断循环，
// 下一个周期仍会在固定间隔后触发。
func (s *Scheduler) run() {
	defer close(s.doneChan)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.RunCycle(context.Background()); err != nil {
				s.logger.Error("心跳周期执行失败", zap.Error(err))
			}
		case <-s.stopChan:
			return
		}
	}
}

// probeResult 单个节点的探测结果
type probeResult struct {
	latencyMs float64
	err       error
}

// RunCycle 执行一个完整的心跳周期：并发探测所有节点、更新状态与
// 滑动窗口、为每个节点生成一条延迟历史记录（离线周期也写入一条
// 空值记录，让下游能区分“无数据”与“确认离线”），最后把全部变更
// 连同过期历史的裁剪作为一次提交写入存储。
func (s *Scheduler) RunCycle(ctx context.Context) error {
	nodes, err := s.nodes.List(ctx)
	if err != nil {
		return fmt.Errorf("获取节点列表失败: %w", err)
	}

	if len(nodes) == 0 {
		return nil
	}

	now := time.Now().UTC()

	// 并发探测全部节点，单个节点的失败不影响其他节点
	results := make([]probeResult, len(nodes))
	var wg sync.WaitGroup
	for i, n := range nodes {
		wg.Add(1)
		go func(i int, n *model.Node) {
			defer wg.Done()
			latencyMs, err := s.agent.Heartbeat(ctx, n.IP, n.Port, s.probeTimeout)
			results[i] = probeResult{latencyMs: latencyMs, err: err}
		}(i, n)
	}
	wg.Wait()

	samples := make([]*model.LatencySample, 0, len(nodes))
	for i, n := range nodes {
		result := results[i]

		var latencyValue *float64
		if result.err == nil {
			s.sampler.Record(n.ID, result.latencyMs)

			// 记录滑动平均值；窗口尚未积累时退回单次原始读数
			value := result.latencyMs
			if avg, ok := s.sampler.Average(n.ID); ok {
				value = avg
			}
			latencyValue = &value

			n.Status = model.NodeStatusOnline
			seen := now
			n.LastSeen = &seen
		} else {
			// 失败时不更新LastSeen，并清空滑动窗口
			s.sampler.Clear(n.ID)
			n.Status = model.NodeStatusOffline

			s.logger.Debug("节点探测失败",
				zap.String("node_id", n.ID),
				zap.Error(result.err))
		}

		samples = append(samples, &model.LatencySample{
			NodeID:    n.ID,
			Timestamp: now,
			LatencyMs: latencyValue,
		})
	}

	cutoff := now.Add(-s.retention)
	committed, err := s.cycles.CommitCycle(ctx, nodes, samples, cutoff)
	if err != nil {
		return fmt.Errorf("提交心跳周期失败: %w", err)
	}

	if !committed {
		s.logger.Warn("心跳周期内检测到并发的节点修改，本周期状态写入已跳过")
	}

	return nil
}
