package processor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-agent-go/internal/constants"
	"resume-agent-go/internal/types"
)

// routingModel 按提示词内容路由响应，适配四路子分析的并发调用
type routingModel struct {
	mu     sync.Mutex
	routes map[string]string // 提示词中的标记子串 -> 响应
	errOn  string            // 包含该子串的提示词返回错误
}

func (r *routingModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prompt := input[len(input)-1].Content
	if r.errOn != "" && strings.Contains(prompt, r.errOn) {
		return nil, errors.New("子分析模型失败")
	}
	for marker, response := range r.routes {
		if strings.Contains(prompt, marker) {
			return schema.AssistantMessage(response, nil), nil
		}
	}
	return nil, errors.New("未匹配的提示词")
}

func fullRoutes() map[string]string {
	return map[string]string{
		"评分维度":             `{"completeness": 80, "impact": 90, "relevance": 70, "clarity": 60, "suggestions": ["量化项目成果"]}`,
		"present_keywords": `{"present_keywords": ["Go", "MySQL"], "missing_keywords": ["Kubernetes"], "suggestions": ["补充容器化经验"]}`,
		"ATS":              `{"score": 75, "issues": ["表格布局可能丢失信息"], "tips": ["改用单栏布局"]}`,
		"突出优势":             `{"strengths": ["后端经验扎实"], "weaknesses": ["缺少大规模系统经验"]}`,
	}
}

func testResume() *types.ResumeData {
	data := types.NewResumeData(sampleRawText)
	data.Skills = []string{"Go", "MySQL"}
	return data
}

func TestAnalyze_AggregatesAllSubAnalyses(t *testing.T) {
	analyzer, err := NewLLMResumeAnalyzer(&routingModel{routes: fullRoutes()})
	require.NoError(t, err)

	analysis, err := analyzer.Analyze(context.Background(), testResume(), "后端工程师")
	require.NoError(t, err)

	assert.Equal(t, 80, analysis.Quality.Completeness)
	assert.Equal(t, 90, analysis.Quality.Impact)
	assert.Equal(t, 70, analysis.Quality.Relevance)
	assert.Equal(t, 60, analysis.Quality.Clarity)
	assert.Equal(t, 75, analysis.ATS.Score)
	assert.Equal(t, []string{"Go", "MySQL"}, analysis.Keywords.PresentKeywords)
	assert.Equal(t, []string{"Kubernetes"}, analysis.Keywords.MissingKeywords)
	assert.Equal(t, []string{"后端经验扎实"}, analysis.Strengths)
	assert.Equal(t, []string{"缺少大规模系统经验"}, analysis.Weaknesses)
	assert.Empty(t, analysis.Degraded)

	// 0.20*80 + 0.25*90 + 0.20*70 + 0.15*60 + 0.20*75 = 76.5 -> 77
	assert.Equal(t, 77, analysis.OverallScore)
}

func TestAnalyze_SingleFailureUsesNeutralDefault(t *testing.T) {
	m := &routingModel{routes: fullRoutes(), errOn: "ATS"}
	analyzer, err := NewLLMResumeAnalyzer(m)
	require.NoError(t, err)

	analysis, err := analyzer.Analyze(context.Background(), testResume(), "")
	require.NoError(t, err)

	assert.Equal(t, constants.NeutralScore, analysis.ATS.Score)
	assert.Equal(t, []string{"ats"}, analysis.Degraded)
	// 其余三路不受影响
	assert.Equal(t, 80, analysis.Quality.Completeness)
	assert.Equal(t, []string{"Kubernetes"}, analysis.Keywords.MissingKeywords)
}

func TestAnalyze_AllFailuresYieldNeutralScore(t *testing.T) {
	m := &routingModel{routes: map[string]string{}}
	analyzer, err := NewLLMResumeAnalyzer(m)
	require.NoError(t, err)

	analysis, err := analyzer.Analyze(context.Background(), testResume(), "")
	require.NoError(t, err)

	assert.Equal(t, constants.NeutralScore, analysis.OverallScore)
	assert.Len(t, analysis.Degraded, 4)
	assert.NotNil(t, analysis.Suggestions)
	assert.NotNil(t, analysis.Strengths)
}

func TestAnalyze_ScoresClamped(t *testing.T) {
	routes := fullRoutes()
	routes["评分维度"] = `{"completeness": 150, "impact": -10, "relevance": 70, "clarity": 60, "suggestions": []}`
	analyzer, err := NewLLMResumeAnalyzer(&routingModel{routes: routes})
	require.NoError(t, err)

	analysis, err := analyzer.Analyze(context.Background(), testResume(), "")
	require.NoError(t, err)
	assert.Equal(t, 100, analysis.Quality.Completeness)
	assert.Equal(t, 0, analysis.Quality.Impact)
}

func TestAnalyze_NilResumeRejected(t *testing.T) {
	analyzer, err := NewLLMResumeAnalyzer(&routingModel{routes: fullRoutes()})
	require.NoError(t, err)

	_, err = analyzer.Analyze(context.Background(), nil, "")
	assert.Error(t, err)
}

func TestRenderResumeText_FallsBackToRawText(t *testing.T) {
	data := types.NewResumeData("原始文本内容")
	assert.Equal(t, "原始文本内容", RenderResumeText(data))

	data.Skills = []string{"Go"}
	rendered := RenderResumeText(data)
	assert.Contains(t, rendered, "技能: Go")
}
