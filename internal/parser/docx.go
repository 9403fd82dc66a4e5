package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"time"
)

// DOCXParser DOCX解析器，文本提取走Tika，结构统计直接读包内XML
type DOCXParser struct {
	tika *TikaClient
}

// NewDOCXParser 创建DOCX解析器
func NewDOCXParser(tika *TikaClient) *DOCXParser {
	return &DOCXParser{tika: tika}
}

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// MIMETypes 实现DocumentParser接口
func (p *DOCXParser) MIMETypes() []string {
	return []string{docxMIME}
}

// Parse 实现DocumentParser接口
func (p *DOCXParser) Parse(ctx context.Context, data []byte, filename string) (string, map[string]interface{}, error) {
	if p.tika == nil {
		return "", nil, fmt.Errorf("DOCX解析需要Tika服务器")
	}

	text, metadata, err := p.tika.ExtractText(ctx, data, docxMIME, filename)
	if err != nil {
		return "", nil, err
	}
	if metadata == nil {
		metadata = map[string]interface{}{
			"extraction_time": time.Now().Format(time.RFC3339),
		}
	}

	// DOCX本质是zip包，段落和表格数直接数word/document.xml里的标签
	if paragraphs, tables, err := countDocxStructure(data); err == nil {
		metadata["paragraph_count"] = paragraphs
		metadata["table_count"] = tables
	}

	return text, metadata, nil
}

// countDocxStructure 统计文档主体中的段落(<w:p)和表格(<w:tbl)数量
func countDocxStructure(data []byte) (int, int, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, 0, fmt.Errorf("打开DOCX包失败: %w", err)
	}

	for _, f := range reader.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return 0, 0, fmt.Errorf("读取document.xml失败: %w", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return 0, 0, fmt.Errorf("读取document.xml失败: %w", err)
		}
		// <w:p>段落标签也以<w:pPr等形式出现，统计需带定界
		paragraphs := bytes.Count(content, []byte("<w:p ")) + bytes.Count(content, []byte("<w:p>"))
		tables := bytes.Count(content, []byte("<w:tbl ")) + bytes.Count(content, []byte("<w:tbl>"))
		return paragraphs, tables, nil
	}
	return 0, 0, fmt.Errorf("DOCX包中缺少word/document.xml")
}
