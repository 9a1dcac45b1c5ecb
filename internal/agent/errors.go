package agent

import (
	"errors"
	"fmt"
)

// UnreachableError 表示传输层失败（DNS解析、连接拒绝、超时等）。
// 超时后的失败与连接失败同等对待。
type UnreachableError struct {
	Addr string
	Err  error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("节点不可达 [%s]: %v", e.Addr, e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

// RejectedError 表示节点代理返回了非2xx状态。
// 保留原始状态码与响应体，便于操作员区分本地故障与远端拒绝。
type RejectedError struct {
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("节点代理拒绝请求 (状态码: %d): %s", e.StatusCode, e.Body)
}

// MalformedResponseError 表示响应体不符合约定的结构化格式
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("节点响应格式错误: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("节点响应格式错误: %s", e.Reason)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// IsUnreachable 判断错误是否为节点不可达
func IsUnreachable(err error) bool {
	var target *UnreachableError
	return errors.As(err, &target)
}

// IsRejected 判断错误是否为节点代理拒绝
func IsRejected(err error) bool {
	var target *RejectedError
	return errors.As(err, &target)
}

// IsMalformedResponse 判断错误是否为响应格式错误
func IsMalformedResponse(err error) bool {
	var target *MalformedResponseError
	return errors.As(err, &target)
}
