package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hewenyu/vmark-central/internal/admin/service"
	"github.com/hewenyu/vmark-central/internal/agent"
	"github.com/hewenyu/vmark-central/internal/core/model"
)

// Version 控制器版本号
const Version = "v0.2.0"

// NodeHandler 处理节点管理相关的HTTP请求
type NodeHandler struct {
	service service.NodeService
}

// NewNodeHandler 创建一个新的节点管理处理器
func NewNodeHandler(service service.NodeService) *NodeHandler {
	return &NodeHandler{
		service: service,
	}
}

// RegisterRoutes 注册API路由
func (h *NodeHandler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")

	// 查询版本
	api.GET("/version", h.getVersion)

	// 节点管理
	api.GET("/nodes", h.listNodes)
	api.POST("/register", h.registerNode)
	api.PUT("/nodes/:nodeId", h.updateNode)
	api.DELETE("/nodes/:nodeId", h.deleteNode)

	// 延迟历史查询
	api.GET("/nodes/:nodeId/latency", h.getLatencyHistory)

	// 临时命令转发
	api.POST("/nodes/:nodeId/execute", h.executeCommand)
}

// getVersion 处理版本查询请求
func (h *NodeHandler) getVersion(c echo.Context) error {
	return c.JSON(http.StatusOK, successResponse(http.StatusOK, "查询成功", &model.VersionResponse{
		Version: Version,
	}))
}

// listNodes 处理查询节点列表请求
func (h *NodeHandler) listNodes(c echo.Context) error {
	nodes, err := h.service.ListNodes(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse(http.StatusInternalServerError, "查询节点列表失败: "+err.Error()))
	}

	data := map[string]interface{}{
		"nodes": nodes,
	}

	return c.JSON(http.StatusOK, successResponse(http.StatusOK, "查询成功", data))
}

// registerNode 处理节点注册请求
func (h *NodeHandler) registerNode(c echo.Context) error {
	var req model.NodeRegistrationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse(http.StatusBadRequest, "请求体解析失败: "+err.Error()))
	}

	node, err := h.service.RegisterNode(c.Request().Context(), &req)
	if err != nil {
		// 代理拒绝令牌时返回401，携带代理的原始响应
		if agent.IsRejected(err) {
			return c.JSON(http.StatusUnauthorized, errorResponse(http.StatusUnauthorized, "令牌验证失败: "+err.Error()))
		}
		status := errorStatus(err)
		return c.JSON(status, errorResponse(status, "节点注册失败: "+err.Error()))
	}

	return c.JSON(http.StatusOK, successResponse(http.StatusOK, "注册成功", node))
}

// updateNode 处理节点更新请求
func (h *NodeHandler) updateNode(c echo.Context) error {
	nodeID := c.Param("nodeId")
	if nodeID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse(http.StatusBadRequest, "节点ID不能为空"))
	}

	var req model.NodeUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse(http.StatusBadRequest, "请求体解析失败: "+err.Error()))
	}

	node, err := h.service.UpdateNode(c.Request().Context(), nodeID, &req)
	if err != nil {
		if agent.IsRejected(err) {
			return c.JSON(http.StatusUnauthorized, errorResponse(http.StatusUnauthorized, "令牌验证失败: "+err.Error()))
		}
		status := errorStatus(err)
		return c.JSON(status, errorResponse(status, "节点更新失败: "+err.Error()))
	}

	return c.JSON(http.StatusOK, successResponse(http.StatusOK, "更新成功", node))
}

// deleteNode 处理节点删除请求
func (h *NodeHandler) deleteNode(c echo.Context) error {
	nodeID := c.Param("nodeId")
	if nodeID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse(http.StatusBadRequest, "节点ID不能为空"))
	}

	if err := h.service.DeleteNode(c.Request().Context(), nodeID); err != nil {
		status := errorStatus(err)
		return c.JSON(status, errorResponse(status, "节点删除失败: "+err.Error()))
	}

	return c.JSON(http.StatusOK, successResponse(http.StatusOK, "删除成功", nil))
}

// getLatencyHistory 处理延迟历史查询请求
func (h *NodeHandler) getLatencyHistory(c echo.Context) error {
	nodeID := c.Param("nodeId")
	if nodeID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse(http.StatusBadRequest, "节点ID不能为空"))
	}

	hours := 24
	if param := c.QueryParam("hours"); param != "" {
		parsed, err := strconv.Atoi(param)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse(http.StatusBadRequest, "hours参数无效: "+param))
		}
		hours = parsed
	}

	interval := c.QueryParam("interval")

	points, err := h.service.GetLatencyHistory(c.Request().Context(), nodeID, hours, interval)
	if err != nil {
		status := errorStatus(err)
		return c.JSON(status, errorResponse(status, "查询延迟历史失败: "+err.Error()))
	}

	data := map[string]interface{}{
		"points": points,
	}

	return c.JSON(http.StatusOK, successResponse(http.StatusOK, "查询成功", data))
}

// executeCommand 处理临时命令转发请求
func (h *NodeHandler) executeCommand(c echo.Context) error {
	nodeID := c.Param("nodeId")
	if nodeID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse(http.StatusBadRequest, "节点ID不能为空"))
	}

	var req model.CommandRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse(http.StatusBadRequest, "请求体解析失败: "+err.Error()))
	}

	output, err := h.service.ExecuteCommand(c.Request().Context(), nodeID, req.Command)
	if err != nil {
		status := errorStatus(err)
		return c.JSON(status, errorResponse(status, "命令执行失败: "+err.Error()))
	}

	data := map[string]interface{}{
		"output": output,
	}

	return c.JSON(http.StatusOK, successResponse(http.StatusOK, "执行成功", data))
}
