package parser

import (
	"context"
	"strings"

	"resume-agent-go/internal/logger"
)

// DocumentParser 文档解析器接口，按MIME类型注册
type DocumentParser interface {
	// Parse 从原始字节提取纯文本和格式相关元数据
	Parse(ctx context.Context, data []byte, filename string) (string, map[string]interface{}, error)

	// MIMETypes 返回该解析器支持的MIME类型
	MIMETypes() []string
}

// Service 文档解析服务，按声明的MIME类型分发到具体解析器
// 对调用方保证不失败：任何内部错误降级为空文本和空元数据
type Service struct {
	parsers map[string]DocumentParser
}

// NewService 创建解析服务并注册解析器
func NewService(parsers ...DocumentParser) *Service {
	s := &Service{parsers: make(map[string]DocumentParser)}
	for _, p := range parsers {
		s.Register(p)
	}
	return s
}

// Register 注册解析器，后注册者覆盖同类型的先注册者
func (s *Service) Register(p DocumentParser) {
	for _, mt := range p.MIMETypes() {
		s.parsers[normalizeMIME(mt)] = p
	}
}

// Supported 判断MIME类型是否有对应的解析器
func (s *Service) Supported(mimeType string) bool {
	_, ok := s.parsers[normalizeMIME(mimeType)]
	return ok
}

// ExtractText 按MIME类型分发解析
// 无对应解析器或解析失败时返回空文本和空元数据，不向上抛错
func (s *Service) ExtractText(ctx context.Context, data []byte, mimeType, filename string) (string, map[string]interface{}) {
	p, ok := s.parsers[normalizeMIME(mimeType)]
	if !ok {
		logger.Ctx(ctx).Warn().Str("mime_type", mimeType).Str("filename", filename).Msg("没有匹配的文档解析器")
		return "", map[string]interface{}{}
	}

	if len(data) == 0 {
		return "", map[string]interface{}{}
	}

	text, metadata, err := p.Parse(ctx, data, filename)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("mime_type", mimeType).Str("filename", filename).Msg("文档解析失败，降级为空结果")
		return "", map[string]interface{}{}
	}
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return text, metadata
}

// normalizeMIME 去掉参数部分并统一小写，如 "text/plain; charset=utf-8" -> "text/plain"
func normalizeMIME(mimeType string) string {
	if idx := strings.IndexByte(mimeType, ';'); idx != -1 {
		mimeType = mimeType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
