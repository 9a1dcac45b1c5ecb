package model

import (
	"time"
)

// NodeStatus 节点在线状态枚举
type NodeStatus string

const (
	// NodeStatusOnline 表示节点在线
	NodeStatusOnline NodeStatus = "online"
	// NodeStatusOffline 表示节点离线
	NodeStatusOffline NodeStatus = "offline"
)

// Node 表示一个受控的vMark-node节点
type Node struct {
	ID       string     `json:"id"`
	IP       string     `json:"ip"`
	Port     int        `json:"port"`
	Tags     []string   `json:"tags,omitempty"`
	Status   NodeStatus `json:"status"`
	// LastSeen 最近一次探测成功的时间，探测失败时不更新
	LastSeen *time.Time `json:"last_seen,omitempty"`

	// ModRevision 读取该记录时的etcd修订版本，
	// 心跳周期提交时用于检测并发的操作员修改，不参与序列化
	ModRevision int64 `json:"-"`
}

// NodeRegistrationRequest 表示节点注册请求
type NodeRegistrationRequest struct {
	NodeID    string   `json:"node_id"`
	IP        string   `json:"ip"`
	Port      int      `json:"port"`
	Tags      []string `json:"tags,omitempty"`
	AuthToken string   `json:"auth_token"`
}

// NodeUpdateRequest 表示节点更新请求，AuthToken可选
type NodeUpdateRequest struct {
	IP        string   `json:"ip"`
	Port      int      `json:"port"`
	Tags      []string `json:"tags,omitempty"`
	AuthToken string   `json:"auth_token,omitempty"`
}

// CommandRequest 表示向节点转发的临时命令请求
type CommandRequest struct {
	Command string `json:"command"`
}
