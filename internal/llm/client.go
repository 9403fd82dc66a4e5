package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"resume-agent-go/internal/config"
	"resume-agent-go/internal/logger"
)

// ChatModel 聊天模型的最小接口，生产实现为QwenChatModel，测试使用MockChatClient
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// QwenChatModel 通过OpenAI兼容接口调用通义千问系列模型
type QwenChatModel struct {
	apiKey      string
	modelName   string
	baseURL     string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

// NewQwenChatModel 创建聊天模型客户端
func NewQwenChatModel(cfg config.LLMConfig) (*QwenChatModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API密钥不能为空")
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "qwen-plus"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &QwenChatModel{
		apiKey:      cfg.APIKey,
		modelName:   modelName,
		baseURL:     baseURL,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}

// chatCompletionRequest OpenAI兼容的聊天补全请求结构
type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse OpenAI兼容的聊天补全响应结构
type chatCompletionResponse struct {
	ID      string `json:"id,omitempty"`
	Choices []struct {
		Index   int         `json:"index"`
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *apiError `json:"error,omitempty"`
}

// apiError API层错误，可能伴随200状态码返回
type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// Generate 发起一次聊天补全调用，带有限次数的退避重试
func (q *QwenChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	maxRetries := 2
	retryDelay := 2 * time.Second

	var lastErr error
	for retry := 0; retry <= maxRetries; retry++ {
		if retry > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("上下文已取消: %w", ctx.Err())
			case <-time.After(retryDelay):
				retryDelay *= 2
				logger.Ctx(ctx).Warn().Int("retry", retry).Msg("重试LLM调用")
			}
		}

		msg, err := q.call(ctx, input)
		if err == nil {
			return msg, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			break
		}
	}
	return nil, fmt.Errorf("LLM Generate failed: %w", lastErr)
}

func (q *QwenChatModel) call(ctx context.Context, input []*schema.Message) (*schema.Message, error) {
	reqBody := chatCompletionRequest{
		Model:       q.modelName,
		Temperature: q.temperature,
		MaxTokens:   q.maxTokens,
	}
	for _, m := range input {
		reqBody.Messages = append(reqBody.Messages, chatMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, q.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+q.apiKey)

	resp, err := q.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("聊天补全API返回状态 %d: %s", resp.StatusCode, string(body))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}
	if completion.Error != nil {
		return nil, fmt.Errorf("聊天补全API错误: %s (%s)", completion.Error.Message, completion.Error.Type)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("聊天补全响应缺少choices")
	}

	return schema.AssistantMessage(completion.Choices[0].Message.Content, nil), nil
}

// isRetryableError 判断错误是否值得重试
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "EOF") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host")
}
