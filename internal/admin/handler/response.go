package handler

import (
	"errors"
	"net/http"

	"github.com/hewenyu/vmark-central/internal/admin/service"
	"github.com/hewenyu/vmark-central/internal/agent"
	"github.com/hewenyu/vmark-central/internal/core/model"
	"github.com/hewenyu/vmark-central/internal/relay"
)

// successResponse 返回成功响应
func successResponse(code int, message string, data interface{}) *model.ApiResponse {
	return &model.ApiResponse{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// errorResponse 返回错误响应
func errorResponse(code int, message string) *model.ApiResponse {
	return &model.ApiResponse{
		Code:    code,
		Message: message,
	}
}

// errorStatus 把业务错误映射为HTTP状态码。
// 远端拒绝与不可达映射为502，携带原始细节，
// 便于操作员区分本地故障与远端故障。
func errorStatus(err error) int {
	switch {
	case service.IsValidation(err):
		return http.StatusBadRequest
	case relay.IsNodeMisconfigured(err):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNodeNotFound),
		errors.Is(err, service.ErrELineNotFound),
		relay.IsNodeNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, service.ErrELineExists):
		return http.StatusConflict
	case agent.IsRejected(err), agent.IsUnreachable(err), agent.IsMalformedResponse(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
