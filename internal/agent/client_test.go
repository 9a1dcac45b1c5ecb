package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// MockLogger 实现config.Logger接口，用于测试
type MockLogger struct{}

func (l *MockLogger) Debug(msg string, fields ...zapcore.Field) {}
func (l *MockLogger) Info(msg string, fields ...zapcore.Field)  {}
func (l *MockLogger) Warn(msg string, fields ...zapcore.Field)  {}
func (l *MockLogger) Error(msg string, fields ...zapcore.Field) {}
func (l *MockLogger) Fatal(msg string, fields ...zapcore.Field) {}

// serverAddr 解析httptest服务器的主机和端口
func serverAddr(t *testing.T, srv *httptest.Server) (string, int) {
	t.Helper()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	return u.Hostname(), port
}

func TestBuildBaseURL(t *testing.T) {
	tests := []struct {
		name string
		host string
		port int
		want string
	}{
		{"IPv4地址", "192.0.2.1", 1050, "http://192.0.2.1:1050"},
		{"主机名", "node-1.example.com", 8080, "http://node-1.example.com:8080"},
		{"IPv6字面量需要方括号", "2001:db8::1", 1050, "http://[2001:db8::1]:1050"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildBaseURL(tt.host, tt.port))
		})
	}
}

func TestCallSuccess(t *testing.T) {
	var gotPath string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	host, port := serverAddr(t, srv)
	client := NewClient("central-test", &MockLogger{})

	payload, err := client.Call(context.Background(), host, port, "/api/heartbeat",
		map[string]string{"vmark_id": "central-test"}, 2*time.Second)
	require.NoError(t, err)

	// 请求路径与凭证按约定发送
	assert.Equal(t, "/api/heartbeat", gotPath)
	assert.Equal(t, "central-test", gotBody["vmark_id"])

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "ok", decoded["status"])
}

func TestCallUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	host, port := serverAddr(t, srv)
	// 关闭后端口拒绝连接
	srv.Close()

	client := NewClient("central-test", &MockLogger{})
	_, err := client.Call(context.Background(), host, port, "/api/heartbeat", nil, time.Second)

	require.Error(t, err)
	assert.True(t, IsUnreachable(err), "传输失败应分类为不可达")

	var unreachable *UnreachableError
	require.ErrorAs(t, err, &unreachable)
	assert.NotEmpty(t, unreachable.Addr)
}

func TestCallRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	host, port := serverAddr(t, srv)
	client := NewClient("central-test", &MockLogger{})

	_, err := client.Call(context.Background(), host, port, "/register", nil, time.Second)
	require.Error(t, err)
	assert.True(t, IsRejected(err), "非2xx状态应分类为代理拒绝")

	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, http.StatusUnauthorized, rejected.StatusCode)
	assert.Contains(t, rejected.Body, "invalid token")
}

func TestCallMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	host, port := serverAddr(t, srv)
	client := NewClient("central-test", &MockLogger{})

	_, err := client.Call(context.Background(), host, port, "/api/execute", nil, time.Second)
	require.Error(t, err)
	assert.True(t, IsMalformedResponse(err), "非JSON响应体应分类为畸形响应")
}

func TestCallTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	host, port := serverAddr(t, srv)
	client := NewClient("central-test", &MockLogger{})

	// 超时属于传输失败，同样归为不可达
	_, err := client.Call(context.Background(), host, port, "/api/heartbeat", nil, 50*time.Millisecond)
	require.Error(t, err)
	assert.True(t, IsUnreachable(err))
}

func TestHeartbeatReturnsLatency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	host, port := serverAddr(t, srv)
	client := NewClient("central-test", &MockLogger{})

	latencyMs, err := client.Heartbeat(context.Background(), host, port, 2*time.Second)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, latencyMs, 0.0)
	// 延迟值四舍五入到整数毫秒
	assert.Equal(t, latencyMs, float64(int64(latencyMs)))
}

func TestValidateToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["auth_token"] != "secret" {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"status":"registered"}`))
	}))
	defer srv.Close()

	host, port := serverAddr(t, srv)
	client := NewClient("central-test", &MockLogger{})

	// 正确令牌通过验证
	assert.NoError(t, client.ValidateToken(context.Background(), host, port, "secret", time.Second))

	// 错误令牌被代理拒绝
	err := client.ValidateToken(context.Background(), host, port, "wrong", time.Second)
	require.Error(t, err)
	assert.True(t, IsRejected(err))
}
