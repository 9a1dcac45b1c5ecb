package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hewenyu/vmark-central/internal/config"
)

// Client 是vMark-node代理API的HTTP客户端。
// 本层不做重试，重试策略由调用方决定；也不修改任何共享的节点记录。
type Client struct {
	controllerID string
	httpClient   *http.Client
	logger       config.Logger
}

// NewClient 创建一个新的节点代理客户端。
// controllerID是控制器与节点之间的共享凭证，随每个请求发送。
func NewClient(controllerID string, logger config.Logger) *Client {
	return &Client{
		controllerID: controllerID,
		httpClient:   &http.Client{},
		logger:       logger,
	}
}

// BuildBaseURL 根据节点地址构建代理API的基础URL，
// 含冒号的主机名视为IPv6字面量，需要加方括号
func BuildBaseURL(host string, port int) string {
	if strings.Contains(host, ":") {
		return fmt.Sprintf("http://[%s]:%d", host, port)
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}

// Call 向节点代理发送一次带超时的POST请求，返回解析后的JSON响应体。
// 错误分类：传输失败返回UnreachableError，非2xx状态返回RejectedError，
// 响应体不是合法JSON返回MalformedResponseError。
func (c *Client) Call(ctx context.Context, host string, port int, path string, body interface{}, timeout time.Duration) (json.RawMessage, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	url := BuildBaseURL(host, port) + path

	// 准备请求体
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("序列化请求体失败: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UnreachableError{Addr: addr, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UnreachableError{Addr: addr, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RejectedError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	// 空响应体视为成功但无内容（部分代理的heartbeat只回状态码）
	if len(respBody) == 0 {
		return nil, nil
	}

	var payload json.RawMessage
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return nil, &MalformedResponseError{Reason: "响应体不是合法的JSON", Err: err}
	}

	return payload, nil
}

// Heartbeat 探测节点存活并返回本次往返延迟（毫秒）。
// 任何失败都原样返回，由调度器决定节点状态。
func (c *Client) Heartbeat(ctx context.Context, host string, port int, timeout time.Duration) (float64, error) {
	start := time.Now()

	_, err := c.Call(ctx, host, port, "/api/heartbeat", map[string]string{
		"vmark_id": c.controllerID,
	}, timeout)
	if err != nil {
		return 0, err
	}

	latencyMs := math.Round(float64(time.Since(start)) / float64(time.Millisecond))
	return latencyMs, nil
}

// ValidateToken 向节点代理验证操作员提供的注册令牌
func (c *Client) ValidateToken(ctx context.Context, host string, port int, authToken string, timeout time.Duration) error {
	_, err := c.Call(ctx, host, port, "/register", map[string]string{
		"auth_token": authToken,
		"vmark_id":   c.controllerID,
	}, timeout)
	if err != nil {
		c.logger.Warn("节点令牌验证失败",
			zap.String("host", host),
			zap.Int("port", port),
			zap.Error(err))
		return err
	}

	return nil
}

// Execute 向节点代理转发一条命令字符串。
// 命令只随集群自身的凭证发送，调用方提供的命令是普通字符串而非凭证。
func (c *Client) Execute(ctx context.Context, host string, port int, command string, timeout time.Duration) (json.RawMessage, error) {
	return c.Call(ctx, host, port, "/api/execute", map[string]string{
		"command":  command,
		"vmark_id": c.controllerID,
	}, timeout)
}
