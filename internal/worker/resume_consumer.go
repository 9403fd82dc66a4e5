package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"resume-agent-go/internal/config"
	"resume-agent-go/internal/constants"
	"resume-agent-go/internal/logger"
	"resume-agent-go/internal/parser"
	"resume-agent-go/internal/processor"
	"resume-agent-go/internal/storage"
)

// Broker 消费者需要的消息队列能力，生产实现为storage.RabbitMQ
type Broker interface {
	SetupResumeTopology() error
	StartConsumer(queueName string, prefetchCount int, handler func([]byte) bool) (chan<- struct{}, error)
}

// ObjectStore 消费者需要的对象存储能力
type ObjectStore interface {
	GetResumeFile(ctx context.Context, objectKey string) ([]byte, error)
	UploadParsedText(ctx context.Context, resumeID string, text string) (string, error)
}

// ResumeStore 消费者需要的数据库能力
type ResumeStore interface {
	UpdateResumeFields(ctx context.Context, resumeID string, updates map[string]interface{}) error
}

// ResumeConsumer 消费简历上传事件，完成文本提取与结构化抽取的异步流水线
// 处理结果只推进状态机：PENDING_PARSING -> PARSED / PARSE_FAILED
type ResumeConsumer struct {
	objects   ObjectStore
	resumes   ResumeStore
	parsers   *parser.Service
	extractor processor.ResumeExtractor

	handleTimeout time.Duration
	stopChs       []chan<- struct{}
}

// NewResumeConsumer 创建简历解析消费者
func NewResumeConsumer(objects ObjectStore, resumes ResumeStore, parsers *parser.Service, extractor processor.ResumeExtractor) (*ResumeConsumer, error) {
	if objects == nil || resumes == nil || parsers == nil {
		return nil, fmt.Errorf("存储依赖不能为空")
	}
	return &ResumeConsumer{
		objects:       objects,
		resumes:       resumes,
		parsers:       parsers,
		extractor:     extractor,
		handleTimeout: 5 * time.Minute,
	}, nil
}

// Start 声明拓扑并按consumer_workers数量启动并行消费
// 拓扑声明与消费注册失败时按retry_interval间隔重试，超过max_retries放弃
func (c *ResumeConsumer) Start(broker Broker, cfg config.RabbitMQConfig) error {
	interval, err := time.ParseDuration(cfg.RetryInterval)
	if err != nil || interval <= 0 {
		interval = 5 * time.Second
	}
	workers := cfg.ConsumerWorkers
	if workers <= 0 {
		workers = 1
	}

	if err := withRetry(cfg.MaxRetries, interval, "声明简历队列拓扑", broker.SetupResumeTopology); err != nil {
		return fmt.Errorf("声明简历队列拓扑失败: %w", err)
	}

	for i := 0; i < workers; i++ {
		var stopCh chan<- struct{}
		err := withRetry(cfg.MaxRetries, interval, "注册简历消费者", func() error {
			var startErr error
			stopCh, startErr = broker.StartConsumer(cfg.ResumeParseQueue, cfg.PrefetchCount, c.HandleMessage)
			return startErr
		})
		if err != nil {
			c.Stop()
			return fmt.Errorf("启动简历消费者失败: %w", err)
		}
		c.stopChs = append(c.stopChs, stopCh)
	}

	logger.Info().Str("queue", cfg.ResumeParseQueue).Int("workers", workers).Msg("简历解析消费者已启动")
	return nil
}

// Stop 停止所有消费worker
func (c *ResumeConsumer) Stop() {
	for _, stopCh := range c.stopChs {
		close(stopCh)
	}
	c.stopChs = nil
}

// withRetry 执行op，失败后按间隔最多额外重试maxRetries次
func withRetry(maxRetries int, interval time.Duration, name string, op func() error) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(interval)
		}
		if err = op(); err == nil {
			return nil
		}
		logger.Warn().Err(err).Str("op", name).Int("attempt", attempt+1).Msg("操作失败")
	}
	return err
}

// HandleMessage 处理单条上传事件
// 返回true表示确认消息；格式错误和处理失败都确认并落库失败状态，不做无限重投
func (c *ResumeConsumer) HandleMessage(body []byte) bool {
	var msg storage.ResumeUploadedMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		logger.Error().Err(err).Msg("简历上传消息格式错误，丢弃")
		return true
	}
	if msg.ResumeID == "" || msg.ObjectKey == "" {
		logger.Error().Str("resume_id", msg.ResumeID).Msg("简历上传消息缺少关键字段，丢弃")
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.handleTimeout)
	defer cancel()
	ctx = logger.WithRequestID(ctx, msg.ResumeID)

	if err := c.process(ctx, &msg); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("resume_id", msg.ResumeID).Msg("简历解析流水线失败")
		c.markFailed(ctx, msg.ResumeID)
	}
	return true
}

func (c *ResumeConsumer) process(ctx context.Context, msg *storage.ResumeUploadedMessage) error {
	fileBytes, err := c.objects.GetResumeFile(ctx, msg.ObjectKey)
	if err != nil {
		return fmt.Errorf("下载简历文件失败: %w", err)
	}
	logger.Ctx(ctx).Debug().Int("bytes", len(fileBytes)).Str("resume_id", msg.ResumeID).Msg("简历文件下载完成")

	text, meta := c.parsers.ExtractText(ctx, fileBytes, msg.ContentType, msg.Filename)
	if text == "" {
		return fmt.Errorf("简历文本提取为空 (content_type: %s)", msg.ContentType)
	}

	updates := map[string]interface{}{
		"processing_status": constants.ResumeStatusParsed,
		"parser_version":    constants.DefaultParserVer,
	}

	// 解析文本归档失败不阻断流水线，路径留空
	if textKey, err := c.objects.UploadParsedText(ctx, msg.ResumeID, text); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("resume_id", msg.ResumeID).Msg("解析文本归档失败")
	} else {
		updates["parsed_text_oss"] = textKey
	}

	if metaJSON, err := json.Marshal(meta); err == nil && len(meta) > 0 {
		updates["parse_meta_json"] = metaJSON
	}

	// 结构化抽取失败时保留纯文本降级数据，状态仍为PARSED
	if c.extractor != nil {
		data, extractErr := c.extractor.Extract(ctx, text)
		if extractErr != nil {
			logger.Ctx(ctx).Warn().Err(extractErr).Str("resume_id", msg.ResumeID).Msg("结构化抽取降级为纯文本")
		}
		if data != nil {
			if dataJSON, err := json.Marshal(data); err == nil {
				updates["parsed_data_json"] = dataJSON
			}
		}
	}

	if err := c.resumes.UpdateResumeFields(ctx, msg.ResumeID, updates); err != nil {
		return fmt.Errorf("更新简历解析结果失败: %w", err)
	}

	logger.Ctx(ctx).Info().Str("resume_id", msg.ResumeID).Int("text_len", len(text)).Msg("简历解析完成")
	return nil
}

func (c *ResumeConsumer) markFailed(ctx context.Context, resumeID string) {
	err := c.resumes.UpdateResumeFields(ctx, resumeID, map[string]interface{}{
		"processing_status": constants.ResumeStatusParseFailed,
	})
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("resume_id", resumeID).Msg("更新失败状态出错")
	}
}
