package tracing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskPII(t *testing.T) {
	assert.Equal(t, "", MaskPII(""))
	assert.Equal(t, "*", MaskPII("王"))
	assert.Equal(t, "张*", MaskPII("张三"))
	assert.Equal(t, "王*明", MaskPII("王小明"))
	assert.Equal(t, "13*******78", MaskPII("13812345678"))

	masked := MaskPII("myemail@example.com")
	assert.True(t, strings.HasPrefix(masked, "my"))
	assert.True(t, strings.HasSuffix(masked, "om"))
	assert.NotContains(t, masked, "@example")
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))

	long := strings.Repeat("a", 100) + strings.Repeat("b", 100)
	truncated := TruncateString(long, 21)
	assert.Contains(t, truncated, "...")
	assert.LessOrEqual(t, len([]rune(truncated)), 21)

	// 中文按rune截断，不会截出半个字符
	cn := strings.Repeat("简历", 200)
	assert.LessOrEqual(t, len([]rune(TruncateString(cn, 50))), 50)
}

func TestSafeAttributeValue(t *testing.T) {
	// 敏感字段名触发掩码
	assert.NotEqual(t, "13812345678", SafeAttributeValue("user.phone", "13812345678", 200))
	assert.NotEqual(t, "a@b.com", SafeAttributeValue("contact_email", "a@b.com", 200))

	// 普通字段只做截断
	assert.Equal(t, "hello", SafeAttributeValue("db.operation", "hello", 200))
}

func TestSafeSQL(t *testing.T) {
	sql := "SELECT * FROM resumes WHERE " + strings.Repeat("x = 1 AND ", 200) + "1 = 1"
	safe := SafeSQL(sql)
	assert.LessOrEqual(t, len([]rune(safe)), MaxSQLLength)
	assert.Contains(t, safe, "SELECT")
}
