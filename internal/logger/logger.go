package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger 全局日志实例，Init后各处直接使用
var Logger = log.Logger

// Options 日志系统初始化选项
type Options struct {
	Level        string // debug, info, warn, error
	Format       string // json(机器可读) 或 pretty(控制台)
	TimeFormat   string // 时间戳格式，空则使用RFC3339
	ReportCaller bool   // 是否记录调用位置(文件:行号)
	Service      string // 服务名，作为固定字段打入每条日志
}

// Init 按选项初始化全局日志记录器
func Init(opts Options) {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var output io.Writer = os.Stdout
	if opts.Format == "pretty" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: opts.TimeFormat,
			NoColor:    false,
		}
	}

	if opts.TimeFormat == "" {
		zerolog.TimeFieldFormat = time.RFC3339
	} else {
		zerolog.TimeFieldFormat = opts.TimeFormat
	}

	builder := zerolog.New(output).Level(level).With().Timestamp()
	if opts.Service != "" {
		builder = builder.Str("service", opts.Service)
	}
	if opts.ReportCaller {
		builder = builder.Caller()
	}

	Logger = builder.Logger()
	log.Logger = Logger
}

// Debug 开始一条调试级别日志
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// Info 开始一条信息级别日志
func Info() *zerolog.Event {
	return Logger.Info()
}

// Warn 开始一条警告级别日志
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Error 开始一条错误级别日志
func Error() *zerolog.Event {
	return Logger.Error()
}

// Fatal 开始一条致命级别日志，记录后进程退出
func Fatal() *zerolog.Event {
	return Logger.Fatal()
}

// Ctx 从上下文中取出日志记录器，未注入时返回全局实例
// zerolog.Ctx对未注入的上下文返回禁用实例，直接使用会丢日志
func Ctx(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &Logger
}

// WithContext 将全局日志记录器注入上下文
func WithContext(ctx context.Context) context.Context {
	return Logger.WithContext(ctx)
}

// WithRequestID 返回绑定了请求ID字段的上下文，后续日志自动携带
func WithRequestID(ctx context.Context, requestID string) context.Context {
	l := Logger.With().Str("request_id", requestID).Logger()
	return l.WithContext(ctx)
}
