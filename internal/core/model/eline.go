package model

import (
	"time"
)

// ELineService 表示一条跨节点的E-Line逻辑服务。
// A侧必填；Z侧可选，Z侧字段全部为空时表示单侧服务。
type ELineService struct {
	// Name 服务的唯一名称，作为主键
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	ANodeID   string `json:"a_node_id"`
	AIface    string `json:"a_iface"`
	ARuleName string `json:"a_rule_name"`

	ZNodeID   string `json:"z_node_id,omitempty"`
	ZIface    string `json:"z_iface,omitempty"`
	ZRuleName string `json:"z_rule_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasZSide 判断服务是否定义了Z侧
func (s *ELineService) HasZSide() bool {
	return s.ZNodeID != ""
}

// ELineServiceUpdateRequest 表示E-Line服务更新请求，
// 服务名称不可修改，其余字段均可选
type ELineServiceUpdateRequest struct {
	Description *string `json:"description,omitempty"`
	ANodeID     *string `json:"a_node_id,omitempty"`
	AIface      *string `json:"a_iface,omitempty"`
	ARuleName   *string `json:"a_rule_name,omitempty"`
	ZNodeID     *string `json:"z_node_id,omitempty"`
	ZIface      *string `json:"z_iface,omitempty"`
	ZRuleName   *string `json:"z_rule_name,omitempty"`
}

// ForwardingRule 表示节点上报的一条转发规则快照，仅在查询周期内有效
type ForwardingRule struct {
	Name         string `json:"name"`
	InInterface  string `json:"in_interface,omitempty"`
	MatchSVlan   *int   `json:"match_svlan,omitempty"`
	MatchCVlan   *int   `json:"match_cvlan,omitempty"`
	OutInterface string `json:"out_interface,omitempty"`
	PopTags      *int   `json:"pop_tags,omitempty"`
	PushSVlan    *int   `json:"push_svlan,omitempty"`
	PushCVlan    *int   `json:"push_cvlan,omitempty"`
	Active       bool   `json:"active"`
}

// SideState 表示E-Line服务单侧的检查结果状态
type SideState string

const (
	// SideStateActive 规则存在且处于激活状态
	SideStateActive SideState = "active"
	// SideStateInactive 规则存在但未激活
	SideStateInactive SideState = "inactive"
	// SideStateRuleMissing 节点可达但未找到指定规则（或规则无法解析）
	SideStateRuleMissing SideState = "rule-missing"
	// SideStateUnreachable 节点不可达或查询失败，与规则未激活是不同的事实
	SideStateUnreachable SideState = "unreachable"
)

// ELineServiceStatus 表示E-Line服务的实时状态视图，
// 由状态聚合器派生，不持久化
type ELineServiceStatus struct {
	ELineService

	ANodeIP string `json:"a_node_ip,omitempty"`
	ZNodeIP string `json:"z_node_ip,omitempty"`

	// Active 服务整体是否处于激活状态
	Active bool `json:"active"`

	AState    SideState       `json:"a_state"`
	ARuleData *ForwardingRule `json:"a_rule_data,omitempty"`

	// ZState 仅在定义了Z侧时有值
	ZState    SideState       `json:"z_state,omitempty"`
	ZRuleData *ForwardingRule `json:"z_rule_data,omitempty"`
}
