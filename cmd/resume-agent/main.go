package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	hlog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"

	"resume-agent-go/internal/api/handler"
	"resume-agent-go/internal/api/middleware"
	"resume-agent-go/internal/api/router"
	"resume-agent-go/internal/config"
	"resume-agent-go/internal/jobsearch"
	"resume-agent-go/internal/llm"
	"resume-agent-go/internal/logger"
	"resume-agent-go/internal/parser"
	"resume-agent-go/internal/platform"
	"resume-agent-go/internal/processor"
	"resume-agent-go/internal/scraper"
	"resume-agent-go/internal/storage"
	"resume-agent-go/internal/tracing"
	"resume-agent-go/internal/worker"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置失败")
	}

	logger.Init(logger.Options{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
		Service:      "resume-agent",
	})
	// Hertz内部日志也走zerolog
	hlog.SetLogger(hertzadapter.From(logger.Logger))

	ctx := context.Background()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化链路追踪失败")
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn().Err(err).Msg("链路追踪关闭失败")
		}
	}()

	store, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化存储层失败")
	}
	defer store.Close()
	logger.Info().Msg("存储层初始化完成")

	parserService := buildParserService(ctx, cfg)

	model, err := llm.NewQwenChatModel(cfg.LLM)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化大模型客户端失败")
	}

	extractor, err := processor.NewLLMResumeExtractor(model)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化简历抽取器失败")
	}
	analyzer, err := processor.NewLLMResumeAnalyzer(model)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化简历分析器失败")
	}
	matcher, err := processor.NewLLMJobMatcher(model)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化职位匹配器失败")
	}
	optimizer, err := processor.NewLLMResumeOptimizer(model)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化简历优化器失败")
	}

	searchService := jobsearch.NewService(
		store.MySQL, store.Redis,
		buildScraper(cfg),
		platform.NewRegistry(platform.NewBossAdapter()),
		cfg.ScrapeTimeout(), cfg.CacheTTL(),
	)

	pipeline, err := processor.NewJobMatchPipeline(model, searchService)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化职位推荐流水线失败")
	}

	// 异步解析worker
	consumer, err := worker.NewResumeConsumer(store.MinIO, store.MySQL, parserService, extractor)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化简历解析消费者失败")
	}
	if err := consumer.Start(store.RabbitMQ, cfg.RabbitMQ); err != nil {
		logger.Fatal().Err(err).Msg("启动简历解析消费者失败")
	}
	defer consumer.Stop()

	handlers := router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, store.MySQL),
		Resume:   handler.NewResumeHandler(cfg, store.MySQL, store.MinIO, store.RabbitMQ),
		Analysis: handler.NewAnalysisHandler(store.MySQL, store.MySQL, analyzer, matcher, optimizer, pipeline, searchService),
		Job:      handler.NewJobHandler(searchService, store.MySQL),
	}

	tracer, traceCfg := hertztracing.NewServerTracer()
	h := server.New(
		tracer,
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(hertztracing.ServerMiddleware(traceCfg))
	h.Use(middleware.AccessLog())

	router.RegisterRoutes(h, cfg, handlers)

	go func() {
		logger.Info().Str("address", cfg.Server.Address).Msg("HTTP服务器启动")
		if err := h.Run(); err != nil {
			logger.Fatal().Err(err).Msg("HTTP服务器异常退出")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP服务器关闭失败")
	}
	logger.Info().Msg("优雅退出完成")
}

// buildParserService 组装文档解析服务
// Tika未配置时PDF走本地组件、DOCX/图片退化为仅基础元数据
func buildParserService(ctx context.Context, cfg *config.Config) *parser.Service {
	var tika *parser.TikaClient
	if cfg.Tika.ServerURL != "" {
		opts := []parser.TikaOption{}
		switch cfg.Tika.MetadataMode {
		case "full":
			opts = append(opts, parser.WithFullMetadata(true))
		case "minimal":
			opts = append(opts, parser.WithMinimalMetadata(true))
		}
		if cfg.Tika.Timeout > 0 {
			opts = append(opts, parser.WithTimeout(time.Duration(cfg.Tika.Timeout)*time.Second))
		}
		tika = parser.NewTikaClient(cfg.Tika.ServerURL, opts...)
	}

	svc := parser.NewService(
		parser.NewTextParser(),
		parser.NewDOCXParser(tika),
		parser.NewImageParser(tika),
	)

	pdfParser, err := parser.NewPDFParser(ctx, tika)
	if err != nil {
		logger.Warn().Err(err).Msg("PDF解析器初始化失败，PDF简历将无法解析")
	} else {
		svc.Register(pdfParser)
	}
	return svc
}

// buildScraper 组装主备抓取器
// 浏览器引擎未配置时只保留结构化API路径
func buildScraper(cfg *config.Config) scraper.Scraper {
	api := scraper.NewAPIScraper(cfg.Scraper)

	if cfg.Browser.Endpoint == "" {
		return scraper.NewFallbackScraper(api, nil)
	}

	pool, err := scraper.NewBrowserPool(cfg.Browser.Endpoint, cfg.Browser.PoolSize)
	if err != nil {
		logger.Warn().Err(err).Msg("浏览器会话池初始化失败，禁用回退抓取路径")
		return scraper.NewFallbackScraper(api, nil)
	}
	return scraper.NewFallbackScraper(api, scraper.NewBrowserAgentScraper(cfg.Browser, pool))
}
