package middleware

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"

	"resume-agent-go/internal/logger"
)

// RequestIDHeader 请求链路标识头
const RequestIDHeader = "X-Request-ID"

// requestIDKey 请求上下文中的request_id键
const requestIDKey = "request_id"

// RequestID 透传或生成X-Request-ID，并注入日志上下文
// 客户端带来的ID原样回显，否则生成一个新的UUID
func RequestID() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		requestID := string(ctx.GetHeader(RequestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx.Set(requestIDKey, requestID)
		ctx.Response.Header.Set(RequestIDHeader, requestID)

		c = logger.WithRequestID(c, requestID)
		ctx.Next(c)
	}
}

// GetRequestID 读取当前请求的request_id，中间件未注册时返回空串
func GetRequestID(ctx *app.RequestContext) string {
	return ctx.GetString(requestIDKey)
}
