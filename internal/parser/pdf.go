package parser

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoparser "github.com/cloudwego/eino/components/document/parser"

	"resume-agent-go/internal/logger"
)

// PDFParser 使用Eino PDF解析组件提取文本，可选用Tika获取元数据
type PDFParser struct {
	parser *pdf.PDFParser
	tika   *TikaClient // 可为nil，此时元数据仅含基础字段
}

// NewPDFParser 初始化PDF解析器
// ToPages=false 获取整个文档的连续文本
func NewPDFParser(ctx context.Context, tika *TikaClient) (*PDFParser, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: false,
	})
	if err != nil {
		return nil, fmt.Errorf("创建PDF解析器失败: %w", err)
	}
	return &PDFParser{parser: p, tika: tika}, nil
}

// MIMETypes 实现DocumentParser接口
func (p *PDFParser) MIMETypes() []string {
	return []string{"application/pdf"}
}

// Parse 实现DocumentParser接口
func (p *PDFParser) Parse(ctx context.Context, data []byte, filename string) (string, map[string]interface{}, error) {
	startTime := time.Now()

	metadata := map[string]interface{}{
		"extraction_time": time.Now().Format(time.RFC3339),
	}

	parseCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	docs, err := p.parser.Parse(parseCtx, bytes.NewReader(data),
		einoparser.WithURI(filename),
	)
	if err != nil {
		return "", metadata, fmt.Errorf("PDF解析失败 %s: %w", filename, err)
	}
	if len(docs) == 0 {
		return "", metadata, fmt.Errorf("PDF解析无结果: %s", filename)
	}

	var sb bytes.Buffer
	for _, doc := range docs {
		sb.WriteString(doc.Content)
	}
	text := sb.String()
	metadata["text_length"] = len(text)
	metadata["processing_duration_ms"] = time.Since(startTime).Milliseconds()

	// 页数等格式元数据由Tika补充，失败不影响主流程
	if p.tika != nil {
		if tikaMeta, err := p.tika.extractMetadata(ctx, data, "application/pdf", filename); err == nil {
			if pages, ok := tikaMeta["xmpTPg:NPages"]; ok {
				metadata["page_count"] = pages
			}
		} else {
			logger.Ctx(ctx).Debug().Err(err).Msg("PDF元数据补充失败")
		}
	}

	return text, metadata, nil
}
