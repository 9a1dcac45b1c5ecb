package model

import (
	"time"
)

// LatencySample 表示一条持久化的延迟历史记录。
// LatencyMs为nil表示该周期节点不可达，这与latency=0是不同的事实。
type LatencySample struct {
	ID        string    `json:"id"`
	NodeID    string    `json:"node_id"`
	Timestamp time.Time `json:"timestamp"`
	LatencyMs *float64  `json:"latency_ms"`
}

// LatencyPoint 表示延迟查询接口返回的一个数据点
type LatencyPoint struct {
	Time      time.Time `json:"time"`
	LatencyMs *float64  `json:"latency_ms"`
}
