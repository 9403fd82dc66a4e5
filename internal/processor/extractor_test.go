package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-agent-go/internal/llm"
)

func TestParseFlexibleDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *time.Time
	}{
		{"年月", "2019-06", timePtr(2019, time.June, 1)},
		{"只有年份", "2019", timePtr(2019, time.January, 1)},
		{"完整日期", "2019-06-15", timePtr(2019, time.June, 15)},
		{"斜杠分隔", "2019/06", timePtr(2019, time.June, 1)},
		{"中文年月", "2019年6月", timePtr(2019, time.June, 1)},
		{"present", "present", nil},
		{"Current大小写", "Current", nil},
		{"至今", "至今", nil},
		{"空串", "", nil},
		{"无法解析", "someday", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFlexibleDate(tt.input)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "want %v, got %v", tt.want, got)
		})
	}
}

func timePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

const sampleRawText = `张三
zhangsan@example.com | 138-0000-0000

教育经历
某大学 计算机科学与技术 本科 2015-2019

工作经历
某科技公司 后端工程师 2019.07 - 至今
负责订单服务的设计与开发`

func TestExtract_StructuredFields(t *testing.T) {
	mock := llm.NewMockChatClient(`{
		"contact_info": {"name": "张三", "email": "zhangsan@example.com", "phone": "138-0000-0000"},
		"summary": "五年后端开发经验",
		"education": [{"school": "某大学", "degree": "本科", "major": "计算机科学与技术", "start_date": "2015", "end_date": "2019"}],
		"work_experience": [{"company": "某科技公司", "position": "后端工程师", "start_date": "2019-07", "end_date": "present", "description": "负责订单服务", "achievements": ["QPS提升3倍"]}],
		"skills": ["Go", "MySQL", "Redis"],
		"projects": [],
		"certifications": [],
		"languages": ["中文", "英语"]
	}`, nil)

	extractor, err := NewLLMResumeExtractor(mock)
	require.NoError(t, err)

	data, err := extractor.Extract(context.Background(), sampleRawText)
	require.NoError(t, err)
	require.NotNil(t, data)

	assert.Equal(t, sampleRawText, data.RawText)
	assert.Equal(t, "zhangsan@example.com", data.ContactInfo.Email)
	assert.Equal(t, "张三", data.ContactInfo.Name)

	require.Len(t, data.Education, 1)
	require.NotNil(t, data.Education[0].StartDate)
	assert.Equal(t, 2015, data.Education[0].StartDate.Year())
	assert.Equal(t, time.January, data.Education[0].StartDate.Month())
	require.NotNil(t, data.Education[0].EndDate)
	assert.Equal(t, 2019, data.Education[0].EndDate.Year())

	require.Len(t, data.WorkExperience, 1)
	exp := data.WorkExperience[0]
	require.NotNil(t, exp.StartDate)
	assert.Equal(t, time.July, exp.StartDate.Month())
	assert.Nil(t, exp.EndDate) // present表示仍在职
	assert.Equal(t, []string{"QPS提升3倍"}, exp.Achievements)

	assert.Equal(t, []string{"Go", "MySQL", "Redis"}, data.Skills)
	assert.Equal(t, []string{"中文", "英语"}, data.Languages)
}

func TestExtract_ModelErrorDegradesToRawText(t *testing.T) {
	mock := llm.NewMockChatClient("", errors.New("连接超时"))
	extractor, err := NewLLMResumeExtractor(mock)
	require.NoError(t, err)

	data, err := extractor.Extract(context.Background(), sampleRawText)
	assert.Error(t, err)
	require.NotNil(t, data)
	assert.Equal(t, sampleRawText, data.RawText)
	assert.Empty(t, data.WorkExperience)
	assert.NotNil(t, data.Skills) // 降级数据的切片保持非nil
}

func TestExtract_MalformedResponseDegradesToRawText(t *testing.T) {
	mock := llm.NewMockChatClient("这不是JSON", nil)
	extractor, err := NewLLMResumeExtractor(mock)
	require.NoError(t, err)

	data, err := extractor.Extract(context.Background(), sampleRawText)
	assert.Error(t, err)
	var respErr *llm.ModelResponseError
	assert.ErrorAs(t, err, &respErr)
	require.NotNil(t, data)
	assert.Equal(t, sampleRawText, data.RawText)
}

func TestExtract_SkipsEntriesWithoutKeyFields(t *testing.T) {
	mock := llm.NewMockChatClient(`{
		"education": [{"school": "", "degree": "本科"}],
		"work_experience": [{"company": "", "position": ""}],
		"certifications": [{"name": ""}]
	}`, nil)
	extractor, err := NewLLMResumeExtractor(mock)
	require.NoError(t, err)

	data, err := extractor.Extract(context.Background(), sampleRawText)
	require.NoError(t, err)
	assert.Empty(t, data.Education)
	assert.Empty(t, data.WorkExperience)
	assert.Empty(t, data.Certifications)
}

func TestExtract_EmptyTextRejected(t *testing.T) {
	extractor, err := NewLLMResumeExtractor(llm.NewMockChatClient("{}", nil))
	require.NoError(t, err)

	_, err = extractor.Extract(context.Background(), "   \n  ")
	assert.Error(t, err)
}

func TestNewLLMResumeExtractor_NilModel(t *testing.T) {
	_, err := NewLLMResumeExtractor(nil)
	assert.Error(t, err)
}
