package service

import (
	"errors"
)

var (
	// ErrNodeNotFound 节点不存在
	ErrNodeNotFound = errors.New("节点不存在")
	// ErrELineNotFound E-Line服务不存在
	ErrELineNotFound = errors.New("E-Line服务不存在")
	// ErrELineExists E-Line服务已存在
	ErrELineExists = errors.New("E-Line服务已存在")
)

// ValidationError 表示调用方输入不合法
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation 判断错误是否为输入校验失败
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
