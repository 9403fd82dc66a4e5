package middleware

import (
	"bytes"
	"context"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-agent-go/internal/logger"
)

func TestAccessLog_WritesLineWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	old := logger.Logger
	logger.Logger = zerolog.New(&buf)
	defer func() { logger.Logger = old }()

	engine := route.NewEngine(config.NewOptions(nil))
	// 与生产注册顺序一致：访问日志在前，RequestID在后
	engine.Use(AccessLog(), RequestID())
	engine.GET("/ping", func(c context.Context, ctx *app.RequestContext) {
		ctx.String(consts.StatusOK, "pong")
	})

	w := ut.PerformRequest(engine, "GET", "/ping", nil,
		ut.Header{Key: RequestIDHeader, Value: "req-abc"})
	require.Equal(t, consts.StatusOK, w.Result().StatusCode())

	line := buf.String()
	require.NotEmpty(t, line, "访问日志不能被丢弃")
	assert.Contains(t, line, "HTTP请求")
	assert.Contains(t, line, "/ping")
	assert.Contains(t, line, `"status":200`)
	assert.Contains(t, line, "req-abc")
}
