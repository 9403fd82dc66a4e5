package middleware

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"

	"resume-agent-go/internal/logger"
)

// AccessLog 访问日志中间件，在请求链路执行完后记录一行
// 直接写全局日志实例；request_id由RequestID中间件写入请求上下文，
// 这里在Next之后读取，因此注册顺序可以早于RequestID
func AccessLog() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)
		logger.Logger.Info().
			Str("request_id", GetRequestID(ctx)).
			Str("method", string(ctx.Method())).
			Str("path", string(ctx.Path())).
			Int("status", ctx.Response.StatusCode()).
			Dur("latency", time.Since(start)).
			Msg("HTTP请求")
	}
}
