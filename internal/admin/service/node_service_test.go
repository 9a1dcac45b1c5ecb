package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/hewenyu/vmark-central/internal/agent"
	"github.com/hewenyu/vmark-central/internal/core/model"
	"github.com/hewenyu/vmark-central/internal/relay"
	"github.com/hewenyu/vmark-central/internal/store/history"
	"github.com/hewenyu/vmark-central/internal/store/node"
)

// MockLogger 实现config.Logger接口，用于测试
type MockLogger struct{}

func (l *MockLogger) Debug(msg string, fields ...zapcore.Field) {}
func (l *MockLogger) Info(msg string, fields ...zapcore.Field)  {}
func (l *MockLogger) Warn(msg string, fields ...zapcore.Field)  {}
func (l *MockLogger) Error(msg string, fields ...zapcore.Field) {}
func (l *MockLogger) Fatal(msg string, fields ...zapcore.Field) {}

// nodeServiceFixture 一套节点管理服务及其底层内存存储
type nodeServiceFixture struct {
	service NodeService
	nodes   *node.MemoryNodeStore
	history *history.MemoryHistoryStore
}

func newNodeServiceFixture() *nodeServiceFixture {
	logger := &MockLogger{}
	nodes := node.NewMemoryNodeStore()
	historyStore := history.NewMemoryHistoryStore()
	agentClient := agent.NewClient("central-test", logger)
	commandRelay := relay.NewRelay(nodes, agentClient, logger)

	return &nodeServiceFixture{
		service: NewNodeService(nodes, historyStore, agentClient, commandRelay, logger, 1050, 2*time.Second),
		nodes:   nodes,
		history: historyStore,
	}
}

// newTokenAgent 启动一个只接受指定令牌的假节点代理
func newTokenAgent(t *testing.T, validToken string) (*httptest.Server, string, int) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["auth_token"] != validToken {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"status":"registered"}`))
	}))

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	return srv, u.Hostname(), port
}

func TestRegisterNodeValidation(t *testing.T) {
	f := newNodeServiceFixture()
	ctx := context.Background()

	tests := []struct {
		name string
		req  *model.NodeRegistrationRequest
	}{
		{"缺少节点ID", &model.NodeRegistrationRequest{IP: "192.0.2.1", AuthToken: "secret"}},
		{"缺少IP", &model.NodeRegistrationRequest{NodeID: "n1", AuthToken: "secret"}},
		{"缺少令牌", &model.NodeRegistrationRequest{NodeID: "n1", IP: "192.0.2.1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.RegisterNode(ctx, tt.req)
			assert.True(t, IsValidation(err), "缺少必填字段应返回校验错误")
		})
	}
}

func TestRegisterNodeSuccess(t *testing.T) {
	srv, host, port := newTokenAgent(t, "secret")
	defer srv.Close()

	f := newNodeServiceFixture()
	ctx := context.Background()

	registered, err := f.service.RegisterNode(ctx, &model.NodeRegistrationRequest{
		NodeID:    "n1",
		IP:        host,
		Port:      port,
		Tags:      []string{"edge"},
		AuthToken: "secret",
	})
	require.NoError(t, err)

	// 注册成功的节点立即视为在线
	assert.Equal(t, model.NodeStatusOnline, registered.Status)
	assert.NotNil(t, registered.LastSeen)

	stored, err := f.nodes.Get(ctx, "n1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, host, stored.IP)
	assert.Equal(t, []string{"edge"}, stored.Tags)
}

func TestRegisterNodeRejectedToken(t *testing.T) {
	srv, host, port := newTokenAgent(t, "secret")
	defer srv.Close()

	f := newNodeServiceFixture()
	ctx := context.Background()

	_, err := f.service.RegisterNode(ctx, &model.NodeRegistrationRequest{
		NodeID:    "n1",
		IP:        host,
		Port:      port,
		AuthToken: "wrong",
	})
	require.Error(t, err)
	assert.True(t, agent.IsRejected(err))

	// 令牌验证失败时不写入注册表
	stored, err := f.nodes.Get(ctx, "n1")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestUpdateNodeNotFound(t *testing.T) {
	f := newNodeServiceFixture()

	_, err := f.service.UpdateNode(context.Background(), "ghost", &model.NodeUpdateRequest{IP: "192.0.2.1"})
	assert.True(t, errors.Is(err, ErrNodeNotFound))
}

func TestUpdateNodeWithoutToken(t *testing.T) {
	f := newNodeServiceFixture()
	ctx := context.Background()

	require.NoError(t, f.nodes.Upsert(ctx, &model.Node{ID: "n1", IP: "192.0.2.1", Port: 1050}))

	// 不带令牌的更新无需联系节点代理
	updated, err := f.service.UpdateNode(ctx, "n1", &model.NodeUpdateRequest{
		IP:   "192.0.2.2",
		Port: 2050,
		Tags: []string{"core"},
	})
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.2", updated.IP)
	assert.Equal(t, 2050, updated.Port)
	assert.Equal(t, []string{"core"}, updated.Tags)
}

func TestDeleteNode(t *testing.T) {
	f := newNodeServiceFixture()
	ctx := context.Background()

	require.NoError(t, f.nodes.Upsert(ctx, &model.Node{ID: "n1", IP: "192.0.2.1", Port: 1050}))

	require.NoError(t, f.service.DeleteNode(ctx, "n1"))

	// 重复删除返回节点不存在
	err := f.service.DeleteNode(ctx, "n1")
	assert.True(t, errors.Is(err, ErrNodeNotFound))
}

func TestDeleteNodePurgesHistory(t *testing.T) {
	f := newNodeServiceFixture()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, f.nodes.Upsert(ctx, &model.Node{ID: "n1", IP: "192.0.2.1", Port: 1050}))
	require.NoError(t, f.nodes.Upsert(ctx, &model.Node{ID: "n2", IP: "192.0.2.2", Port: 1050}))

	latency := 12.0
	require.NoError(t, f.history.Append(ctx, &model.LatencySample{
		NodeID: "n1", Timestamp: now.Add(-30 * time.Hour), LatencyMs: &latency,
	}))
	require.NoError(t, f.history.Append(ctx, &model.LatencySample{
		NodeID: "n1", Timestamp: now, LatencyMs: &latency,
	}))
	require.NoError(t, f.history.Append(ctx, &model.LatencySample{
		NodeID: "n2", Timestamp: now, LatencyMs: &latency,
	}))

	require.NoError(t, f.service.DeleteNode(ctx, "n1"))

	// 周期裁剪只覆盖在册节点，删除节点时必须连带清除其全部历史
	samples, err := f.history.QueryRange(ctx, "n1", time.Time{})
	require.NoError(t, err)
	assert.Empty(t, samples, "已删除节点的延迟历史不应残留")

	// 其他节点的历史不受影响
	remaining, err := f.history.QueryRange(ctx, "n2", time.Time{})
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestGetLatencyHistoryValidation(t *testing.T) {
	f := newNodeServiceFixture()
	ctx := context.Background()

	// 时间窗口限定在1~168小时
	_, err := f.service.GetLatencyHistory(ctx, "n1", 0, "")
	assert.True(t, IsValidation(err))

	_, err = f.service.GetLatencyHistory(ctx, "n1", 169, "")
	assert.True(t, IsValidation(err))

	// 只支持minute聚合
	_, err = f.service.GetLatencyHistory(ctx, "n1", 24, "hourly")
	assert.True(t, IsValidation(err))
}

func TestGetLatencyHistoryRaw(t *testing.T) {
	f := newNodeServiceFixture()
	ctx := context.Background()
	now := time.Now().UTC()

	latency := 12.0
	require.NoError(t, f.history.Append(ctx, &model.LatencySample{
		NodeID: "n1", Timestamp: now.Add(-time.Hour), LatencyMs: &latency,
	}))
	require.NoError(t, f.history.Append(ctx, &model.LatencySample{
		NodeID: "n1", Timestamp: now.Add(-30 * time.Minute), LatencyMs: nil,
	}))
	// 窗口之外的记录不返回
	old := 99.0
	require.NoError(t, f.history.Append(ctx, &model.LatencySample{
		NodeID: "n1", Timestamp: now.Add(-3 * time.Hour), LatencyMs: &old,
	}))

	points, err := f.service.GetLatencyHistory(ctx, "n1", 2, "")
	require.NoError(t, err)
	require.Len(t, points, 2)

	// 原始序列保留空值点，下游据此区分离线周期
	require.NotNil(t, points[0].LatencyMs)
	assert.Equal(t, 12.0, *points[0].LatencyMs)
	assert.Nil(t, points[1].LatencyMs)
}

func TestGetLatencyHistoryUnknownNode(t *testing.T) {
	f := newNodeServiceFixture()

	// 未知节点返回空序列而非错误
	points, err := f.service.GetLatencyHistory(context.Background(), "ghost", 24, "")
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestGetLatencyHistoryMinuteAggregation(t *testing.T) {
	f := newNodeServiceFixture()
	ctx := context.Background()

	minute := time.Now().UTC().Truncate(time.Minute).Add(-10 * time.Minute)

	appendAt := func(ts time.Time, latency *float64) {
		require.NoError(t, f.history.Append(ctx, &model.LatencySample{
			NodeID: "n1", Timestamp: ts, LatencyMs: latency,
		}))
	}
	v10, v20, v30 := 10.0, 20.0, 30.0

	// 同一分钟内两条有值、一条空值
	appendAt(minute.Add(5*time.Second), &v10)
	appendAt(minute.Add(15*time.Second), nil)
	appendAt(minute.Add(25*time.Second), &v20)
	// 下一分钟一条有值
	appendAt(minute.Add(70*time.Second), &v30)
	// 只有空值的分钟不输出数据点
	appendAt(minute.Add(130*time.Second), nil)

	points, err := f.service.GetLatencyHistory(ctx, "n1", 1, "minute")
	require.NoError(t, err)
	require.Len(t, points, 2)

	// 空值样本不参与平均
	assert.True(t, points[0].Time.Equal(minute))
	require.NotNil(t, points[0].LatencyMs)
	assert.Equal(t, 15.0, *points[0].LatencyMs)

	assert.True(t, points[1].Time.Equal(minute.Add(time.Minute)))
	require.NotNil(t, points[1].LatencyMs)
	assert.Equal(t, 30.0, *points[1].LatencyMs)
}

func TestExecuteCommandValidation(t *testing.T) {
	f := newNodeServiceFixture()

	_, err := f.service.ExecuteCommand(context.Background(), "n1", "")
	assert.True(t, IsValidation(err), "空命令应返回校验错误")
}
