package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ModelResponseError 表示模型响应无法解析为期望的结构
// 降级为默认值的决定交给调用方，而不是在这里吞掉
type ModelResponseError struct {
	Stage string // 发生失败的环节，如 "extract" "unmarshal"
	Raw   string // 模型原始响应(截断)
	Err   error
}

func (e *ModelResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("模型响应解析失败(%s): %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("模型响应解析失败(%s)", e.Stage)
}

func (e *ModelResponseError) Unwrap() error {
	return e.Err
}

// newResponseError 构造解析错误，原始响应截断保留便于排查
func newResponseError(stage, raw string, err error) *ModelResponseError {
	const maxRaw = 512
	if len(raw) > maxRaw {
		raw = raw[:maxRaw]
	}
	return &ModelResponseError{Stage: stage, Raw: raw, Err: err}
}

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*([\\[{].*?[\\]}])\\s*```")

// ExtractJSON 从模型响应文本中提取JSON片段
// 优先匹配 ```json 围栏代码块，否则按括号配对从全文提取
func ExtractJSON(text string) string {
	matches := fencedJSONRe.FindStringSubmatch(text)
	if len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	for _, pair := range [][2]byte{{'{', '}'}, {'[', ']'}} {
		start := strings.IndexByte(text, pair[0])
		if start == -1 {
			continue
		}
		level := 0
		for i := start; i < len(text); i++ {
			switch text[i] {
			case pair[0]:
				level++
			case pair[1]:
				level--
				if level == 0 {
					return strings.TrimSpace(text[start : i+1])
				}
			}
		}
	}
	return ""
}

// UnmarshalResponse 提取并反序列化模型响应中的JSON，失败时返回类型化错误
func UnmarshalResponse(text string, out interface{}) error {
	jsonStr := ExtractJSON(text)
	if jsonStr == "" {
		return newResponseError("extract", text, fmt.Errorf("响应中未找到有效的JSON"))
	}
	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		return newResponseError("unmarshal", jsonStr, err)
	}
	return nil
}
