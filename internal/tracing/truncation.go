package tracing

import "strings"

const (
	// DefaultMaxLength 一般属性的最大长度
	DefaultMaxLength = 200
	// MaxSQLLength SQL语句属性的最大长度
	MaxSQLLength = 500
	// MaxRedisLength Redis键属性的最大长度
	MaxRedisLength = 100
	// MaxResumeLength 简历内容属性的最大长度
	MaxResumeLength = 150
)

// piiKeywords 属性名包含这些关键字时对值做掩码
var piiKeywords = []string{
	"email", "phone", "password", "secret", "token",
	"name", "姓名", "身份证", "id_card", "address", "地址",
}

// SafeAttributeValue 追踪属性的安全处理：敏感字段掩码，过长值截断
func SafeAttributeValue(name, value string, maxLength int) string {
	lowerName := strings.ToLower(name)
	for _, keyword := range piiKeywords {
		if strings.Contains(lowerName, keyword) {
			return MaskPII(value)
		}
	}
	return TruncateString(value, maxLength)
}

// MaskPII 掩码个人敏感信息，保留首尾少量字符
func MaskPII(value string) string {
	if value == "" {
		return ""
	}
	runes := []rune(value)
	length := len(runes)

	switch {
	case length <= 1:
		return "*"
	case length == 2:
		return string(runes[0:1]) + "*"
	case length <= 4:
		return string(runes[0:1]) + strings.Repeat("*", length-2) + string(runes[length-1:])
	default:
		return string(runes[0:2]) + strings.Repeat("*", length-4) + string(runes[length-2:])
	}
}

// TruncateString 截断字符串，保留首尾并以...连接
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}
	half := (maxLength - 3) / 2
	if half < 1 {
		half = 1
	}
	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

// SafeSQL 截断过长的SQL语句
func SafeSQL(sql string) string {
	return TruncateString(sql, MaxSQLLength)
}

// SafeRedisKey 截断过长的Redis键
func SafeRedisKey(key string) string {
	return TruncateString(key, MaxRedisLength)
}
