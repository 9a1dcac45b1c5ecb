package model

// ApiResponse 表示通用API响应
type ApiResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// VersionResponse 表示版本查询响应
type VersionResponse struct {
	Version string `json:"version"`
}
