package relay

import (
	"errors"
	"fmt"
)

// NodeNotFoundError 表示注册表中不存在指定的节点
type NodeNotFoundError struct {
	NodeID string
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("节点不存在: %s", e.NodeID)
}

// NodeMisconfiguredError 表示节点记录缺少转发命令所需的配置
type NodeMisconfiguredError struct {
	NodeID string
	Reason string
}

func (e *NodeMisconfiguredError) Error() string {
	return fmt.Sprintf("节点配置不完整 [%s]: %s", e.NodeID, e.Reason)
}

// IsNodeNotFound 判断错误是否为节点不存在
func IsNodeNotFound(err error) bool {
	var target *NodeNotFoundError
	return errors.As(err, &target)
}

// IsNodeMisconfigured 判断错误是否为节点配置不完整
func IsNodeMisconfigured(err error) bool {
	var target *NodeMisconfiguredError
	return errors.As(err, &target)
}
