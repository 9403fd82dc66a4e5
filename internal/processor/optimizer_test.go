package processor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-agent-go/internal/llm"
	"resume-agent-go/internal/types"
)

func TestOptimize_ReturnsRewrittenResume(t *testing.T) {
	mock := llm.NewMockChatClient(`{"optimized_text": "张三\n资深后端工程师\n...", "analysis_summary": "强化了量化成果表述"}`, nil)
	optimizer, err := NewLLMResumeOptimizer(mock)
	require.NoError(t, err)

	analysis := &types.ResumeAnalysis{OverallScore: 70, Weaknesses: []string{"描述空泛"}}
	result, err := optimizer.Optimize(context.Background(), testResume(), analysis, "后端工程师")
	require.NoError(t, err)

	assert.Contains(t, result.OptimizedText, "资深后端工程师")
	assert.Equal(t, "强化了量化成果表述", result.AnalysisSummary)
	assert.Equal(t, "后端工程师", result.TargetJob)

	// 分析结论应进入提示词
	prompt := mock.ReceivedMessages[0][1].Content
	assert.Contains(t, prompt, "描述空泛")
	assert.Contains(t, prompt, "70/100")
}

func TestOptimize_EmptyRewriteRejected(t *testing.T) {
	mock := llm.NewMockChatClient(`{"optimized_text": "  ", "analysis_summary": ""}`, nil)
	optimizer, err := NewLLMResumeOptimizer(mock)
	require.NoError(t, err)

	_, err = optimizer.Optimize(context.Background(), testResume(), nil, "")
	assert.Error(t, err)
}

func TestOptimize_NilAnalysisAllowed(t *testing.T) {
	mock := llm.NewMockChatClient(`{"optimized_text": "优化后的简历", "analysis_summary": ""}`, nil)
	optimizer, err := NewLLMResumeOptimizer(mock)
	require.NoError(t, err)

	result, err := optimizer.Optimize(context.Background(), testResume(), nil, "")
	require.NoError(t, err)
	assert.Equal(t, "优化后的简历", result.OptimizedText)
}

func TestGenerateCoverLetter_UsesJobAndResume(t *testing.T) {
	mock := llm.NewMockChatClient("尊敬的招聘负责人：\n\n我对贵司的Go后端工程师职位很感兴趣……\n", nil)
	optimizer, err := NewLLMResumeOptimizer(mock)
	require.NoError(t, err)

	job := &types.JobPosting{Title: "Go后端工程师", CompanyName: "某科技公司", Description: "负责核心交易系统"}
	letter, err := optimizer.GenerateCoverLetter(context.Background(), testResume(), job, "")
	require.NoError(t, err)

	assert.Equal(t, "Go后端工程师", letter.JobTitle)
	assert.Equal(t, "某科技公司", letter.CompanyName)
	// 正文去除首尾空白
	assert.Equal(t, "尊敬的招聘负责人：\n\n我对贵司的Go后端工程师职位很感兴趣……", letter.Content)

	prompt := mock.ReceivedMessages[0][1].Content
	assert.Contains(t, prompt, "核心交易系统")
	// 未指定语气时使用默认语气
	assert.Contains(t, prompt, DefaultCoverLetterTone)
}

func TestGenerateCoverLetter_CustomTone(t *testing.T) {
	mock := llm.NewMockChatClient("正文", nil)
	optimizer, err := NewLLMResumeOptimizer(mock)
	require.NoError(t, err)

	job := &types.JobPosting{Title: "Go后端工程师"}
	_, err = optimizer.GenerateCoverLetter(context.Background(), testResume(), job, "轻松活泼")
	require.NoError(t, err)

	assert.Contains(t, mock.ReceivedMessages[0][1].Content, "轻松活泼")
}

func TestGenerateCoverLetter_MissingJobRejected(t *testing.T) {
	optimizer, err := NewLLMResumeOptimizer(llm.NewMockChatClient("正文", nil))
	require.NoError(t, err)

	_, err = optimizer.GenerateCoverLetter(context.Background(), testResume(), nil, "")
	assert.Error(t, err)

	_, err = optimizer.GenerateCoverLetter(context.Background(), testResume(), &types.JobPosting{}, "")
	assert.Error(t, err)
}
