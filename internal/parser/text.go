package parser

import (
	"context"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// TextParser 纯文本解析器
// 按固定顺序尝试 utf-8 -> gbk -> gb2312 -> latin-1 解码，
// 全部失败时用latin-1做有损兜底，保证总能产出文本
type TextParser struct{}

// NewTextParser 创建纯文本解析器
func NewTextParser() *TextParser {
	return &TextParser{}
}

// MIMETypes 实现DocumentParser接口
func (p *TextParser) MIMETypes() []string {
	return []string{"text/plain"}
}

// encodingCandidate 解码候选
type encodingCandidate struct {
	name    string
	decoder *encoding.Decoder
}

// Parse 实现DocumentParser接口
func (p *TextParser) Parse(ctx context.Context, data []byte, filename string) (string, map[string]interface{}, error) {
	if len(data) == 0 {
		return "", map[string]interface{}{}, nil
	}

	text, detected := decodeText(data)

	metadata := map[string]interface{}{
		"encoding":   detected,
		"char_count": utf8.RuneCountInString(text),
		"word_count": len(strings.Fields(text)),
		"line_count": strings.Count(text, "\n") + 1,
	}
	return text, metadata, nil
}

// decodeText 返回解码后的文本和命中的编码名
func decodeText(data []byte) (string, string) {
	// utf-8 直接校验，无需转换
	if utf8.Valid(data) {
		return string(data), "utf-8"
	}

	// 解码器对非法字节输出U+FFFD而不报错，出现替换符即视为未命中
	candidates := []encodingCandidate{
		{"gbk", simplifiedchinese.GBK.NewDecoder()},
		{"gb2312", simplifiedchinese.HZGB2312.NewDecoder()},
	}
	for _, c := range candidates {
		decoded, err := c.decoder.Bytes(data)
		if err == nil && utf8.Valid(decoded) && !strings.ContainsRune(string(decoded), utf8.RuneError) {
			return string(decoded), c.name
		}
	}

	// 有损兜底：latin-1把每个字节映射为一个码点，永不失败
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err == nil {
		return string(decoded), "latin-1"
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes), "latin-1"
}
