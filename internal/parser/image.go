package parser

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"resume-agent-go/internal/logger"
)

// ImageParser 图片解析器
// 尺寸信息本地解码获取，文字内容依赖Tika的OCR能力(未配置时文本为空)
type ImageParser struct {
	tika *TikaClient
}

// NewImageParser 创建图片解析器
func NewImageParser(tika *TikaClient) *ImageParser {
	return &ImageParser{tika: tika}
}

// MIMETypes 实现DocumentParser接口
func (p *ImageParser) MIMETypes() []string {
	return []string{"image/jpeg", "image/png"}
}

// Parse 实现DocumentParser接口
func (p *ImageParser) Parse(ctx context.Context, data []byte, filename string) (string, map[string]interface{}, error) {
	metadata := map[string]interface{}{
		"extraction_time": time.Now().Format(time.RFC3339),
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		metadata["width"] = cfg.Width
		metadata["height"] = cfg.Height
		metadata["format"] = format
	}

	if p.tika == nil {
		return "", metadata, nil
	}

	contentType := "image/jpeg"
	if format == "png" {
		contentType = "image/png"
	}
	text, _, err := p.tika.ExtractText(ctx, data, contentType, filename)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("filename", filename).Msg("图片OCR失败，返回空文本")
		return "", metadata, nil
	}
	return text, metadata, nil
}
