package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestCtx_UninjectedContextFallsBackToGlobal(t *testing.T) {
	var buf bytes.Buffer
	old := Logger
	Logger = zerolog.New(&buf)
	defer func() { Logger = old }()

	// 未注入上下文时必须落到全局实例，日志不能丢
	Ctx(context.Background()).Info().Msg("访问日志")

	assert.Contains(t, buf.String(), "访问日志")
}

func TestCtx_InjectedContextCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	old := Logger
	Logger = zerolog.New(&buf)
	defer func() { Logger = old }()

	ctx := WithRequestID(context.Background(), "req-123")
	Ctx(ctx).Info().Msg("带标识")

	assert.Contains(t, buf.String(), "req-123")
	assert.Contains(t, buf.String(), "带标识")
}
