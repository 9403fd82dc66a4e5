package handler

import (
	"errors"
	"fmt"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resume-agent-go/internal/api/middleware"
)

// Response 统一响应信封
type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id"`
}

// Pagination 分页元信息
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// PageData 分页响应体
type PageData struct {
	Items      interface{} `json:"items"`
	Pagination Pagination  `json:"pagination"`
}

// NewPageData 构造分页响应体
func NewPageData(items interface{}, page, limit int, total int64) *PageData {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &PageData{
		Items: items,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}
}

// APIError 带HTTP状态码的业务错误，handler返回后由路由层渲染
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func BadRequest(message string) *APIError {
	return &APIError{Status: consts.StatusBadRequest, Message: message}
}

func Unauthorized(message string) *APIError {
	return &APIError{Status: consts.StatusUnauthorized, Message: message}
}

func Forbidden(message string) *APIError {
	return &APIError{Status: consts.StatusForbidden, Message: message}
}

func NotFound(message string) *APIError {
	return &APIError{Status: consts.StatusNotFound, Message: message}
}

func Conflict(message string) *APIError {
	return &APIError{Status: consts.StatusConflict, Message: message}
}

func Unprocessable(message string) *APIError {
	return &APIError{Status: consts.StatusUnprocessableEntity, Message: message}
}

func Internal(message string, err error) *APIError {
	return &APIError{Status: consts.StatusInternalServerError, Message: message, Err: err}
}

// OK 渲染成功响应
func OK(ctx *app.RequestContext, status int, message string, data interface{}) {
	ctx.JSON(status, Response{
		Success:   true,
		Message:   message,
		Data:      data,
		RequestID: middleware.GetRequestID(ctx),
	})
}

// Fail 渲染失败响应，非APIError一律归为500
func Fail(ctx *app.RequestContext, err error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		apiErr = Internal("服务器内部错误", err)
	}
	ctx.JSON(apiErr.Status, Response{
		Success:   false,
		Message:   apiErr.Message,
		RequestID: middleware.GetRequestID(ctx),
	})
}
