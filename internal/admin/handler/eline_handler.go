package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hewenyu/vmark-central/internal/admin/service"
	"github.com/hewenyu/vmark-central/internal/core/model"
)

// ELineHandler 处理E-Line服务管理相关的HTTP请求
type ELineHandler struct {
	service service.ELineAdminService
}

// NewELineHandler 创建一个新的E-Line服务管理处理器
func NewELineHandler(service service.ELineAdminService) *ELineHandler {
	return &ELineHandler{
		service: service,
	}
}

// RegisterRoutes 注册API路由
func (h *ELineHandler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")

	api.GET("/elines", h.listServices)
	api.POST("/elines", h.createService)
	api.GET("/elines/:name", h.getService)
	api.PUT("/elines/:name", h.updateService)
	api.DELETE("/elines/:name", h.deleteService)
}

// listServices 处理查询服务列表请求，返回定义及实时状态
func (h *ELineHandler) listServices(c echo.Context) error {
	statuses, err := h.service.ListServiceStatuses(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse(http.StatusInternalServerError, "查询服务列表失败: "+err.Error()))
	}

	data := map[string]interface{}{
		"services": statuses,
	}

	return c.JSON(http.StatusOK, successResponse(http.StatusOK, "查询成功", data))
}

// createService 处理创建服务请求
func (h *ELineHandler) createService(c echo.Context) error {
	var svc model.ELineService
	if err := c.Bind(&svc); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse(http.StatusBadRequest, "请求体解析失败: "+err.Error()))
	}

	created, err := h.service.CreateService(c.Request().Context(), &svc)
	if err != nil {
		status := errorStatus(err)
		return c.JSON(status, errorResponse(status, "创建服务失败: "+err.Error()))
	}

	return c.JSON(http.StatusCreated, successResponse(http.StatusCreated, "创建成功", created))
}

// getService 处理查询服务详情请求，返回定义及实时状态
func (h *ELineHandler) getService(c echo.Context) error {
	name := c.Param("name")
	if name == "" {
		return c.JSON(http.StatusBadRequest, errorResponse(http.StatusBadRequest, "服务名称不能为空"))
	}

	status, err := h.service.GetServiceStatus(c.Request().Context(), name)
	if err != nil {
		code := errorStatus(err)
		return c.JSON(code, errorResponse(code, "查询服务详情失败: "+err.Error()))
	}

	return c.JSON(http.StatusOK, successResponse(http.StatusOK, "查询成功", status))
}

// updateService 处理更新服务请求
func (h *ELineHandler) updateService(c echo.Context) error {
	name := c.Param("name")
	if name == "" {
		return c.JSON(http.StatusBadRequest, errorResponse(http.StatusBadRequest, "服务名称不能为空"))
	}

	var req model.ELineServiceUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse(http.StatusBadRequest, "请求体解析失败: "+err.Error()))
	}

	updated, err := h.service.UpdateService(c.Request().Context(), name, &req)
	if err != nil {
		status := errorStatus(err)
		return c.JSON(status, errorResponse(status, "更新服务失败: "+err.Error()))
	}

	return c.JSON(http.StatusOK, successResponse(http.StatusOK, "更新成功", updated))
}

// deleteService 处理删除服务请求
func (h *ELineHandler) deleteService(c echo.Context) error {
	name := c.Param("name")
	if name == "" {
		return c.JSON(http.StatusBadRequest, errorResponse(http.StatusBadRequest, "服务名称不能为空"))
	}

	if err := h.service.DeleteService(c.Request().Context(), name); err != nil {
		status := errorStatus(err)
		return c.JSON(status, errorResponse(status, "删除服务失败: "+err.Error()))
	}

	return c.JSON(http.StatusOK, successResponse(http.StatusOK, "删除成功", nil))
}
