package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"resume-agent-go/internal/llm"
	"resume-agent-go/internal/types"
)

const optimizerSystemPrompt = `你是一位专业的简历优化顾问，擅长在不虚构经历的前提下重写简历，使其更有说服力、更契合目标岗位。`

const optimizePromptTemplate = `请基于【分析结论】重写【原始简历】，输出优化后的完整简历文本。%s

**改写要求：**
1. 不得虚构任何经历、技能或数据，只能重组、精炼和强化已有内容。
2. 针对分析指出的短板调整表述，用量化成果和有力动词替换空泛描述。
3. 保持标准的简历模块结构，便于ATS解析。

**输出格式：**
{"optimized_text": "优化后的完整简历文本", "analysis_summary": "本次优化的要点摘要，100字以内"}
完整输出必须是一个合法的JSON对象，禁止在JSON之外输出任何文本。

【分析结论】:
"""
%s
"""

【原始简历】:
"""
%s
"""`

const coverLetterPromptTemplate = `请根据【候选人简历】为【目标职位】撰写一封求职信。

**写作要求：**
1. 300-500字，语气风格：%s。
2. 突出简历中与该职位最相关的2-3项经历或技能，不得虚构。
3. 直接输出求职信正文，不要输出任何解释、标题或Markdown标记。

【目标职位】:
%s

【候选人简历】:
"""
%s
"""`

// DefaultCoverLetterTone 未指定语气时的默认值
const DefaultCoverLetterTone = "专业、正式但不生硬"

type optimizePayload struct {
	OptimizedText   string `json:"optimized_text"`
	AnalysisSummary string `json:"analysis_summary"`
}

// LLMResumeOptimizer 基于分析结论改写简历并生成求职信
type LLMResumeOptimizer struct {
	model llm.ChatModel
}

// NewLLMResumeOptimizer 创建简历优化器
func NewLLMResumeOptimizer(model llm.ChatModel) (*LLMResumeOptimizer, error) {
	if model == nil {
		return nil, fmt.Errorf("model不能为空")
	}
	return &LLMResumeOptimizer{model: model}, nil
}

// Optimize 基于分析结论重写简历
func (o *LLMResumeOptimizer) Optimize(ctx context.Context, resume *types.ResumeData, analysis *types.ResumeAnalysis, targetJob string) (*types.OptimizedResume, error) {
	if resume == nil || strings.TrimSpace(resume.RawText) == "" {
		return nil, fmt.Errorf("简历数据为空")
	}

	jobHint := ""
	if targetJob != "" {
		jobHint = fmt.Sprintf("目标岗位：%s。", targetJob)
	}

	prompt := fmt.Sprintf(optimizePromptTemplate, jobHint, renderAnalysis(analysis), RenderResumeText(resume))
	messages := []*schema.Message{
		schema.SystemMessage(optimizerSystemPrompt),
		schema.UserMessage(prompt),
	}

	response, err := o.model.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("简历优化模型调用失败: %w", err)
	}
	if response == nil || response.Content == "" {
		return nil, fmt.Errorf("简历优化模型返回空响应")
	}

	var payload optimizePayload
	if err := llm.UnmarshalResponse(response.Content, &payload); err != nil {
		return nil, fmt.Errorf("简历优化响应解析失败: %w", err)
	}
	if strings.TrimSpace(payload.OptimizedText) == "" {
		return nil, fmt.Errorf("简历优化结果为空")
	}

	return &types.OptimizedResume{
		OptimizedText:   payload.OptimizedText,
		AnalysisSummary: payload.AnalysisSummary,
		TargetJob:       targetJob,
	}, nil
}

// GenerateCoverLetter 为指定职位生成求职信，模型直接输出正文
// tone控制信件语气，为空时取DefaultCoverLetterTone
func (o *LLMResumeOptimizer) GenerateCoverLetter(ctx context.Context, resume *types.ResumeData, job *types.JobPosting, tone string) (*types.CoverLetter, error) {
	if resume == nil || strings.TrimSpace(resume.RawText) == "" {
		return nil, fmt.Errorf("简历数据为空")
	}
	if job == nil || job.Title == "" {
		return nil, fmt.Errorf("目标职位为空")
	}
	if strings.TrimSpace(tone) == "" {
		tone = DefaultCoverLetterTone
	}

	jobLine := job.Title
	if job.CompanyName != "" {
		jobLine += " @ " + job.CompanyName
	}
	if job.Description != "" {
		jobLine += "\n职位描述: " + job.Description
	}

	prompt := fmt.Sprintf(coverLetterPromptTemplate, tone, jobLine, RenderResumeText(resume))
	messages := []*schema.Message{
		schema.SystemMessage(optimizerSystemPrompt),
		schema.UserMessage(prompt),
	}

	response, err := o.model.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("求职信模型调用失败: %w", err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return nil, fmt.Errorf("求职信模型返回空响应")
	}

	return &types.CoverLetter{
		Content:     strings.TrimSpace(response.Content),
		JobTitle:    job.Title,
		CompanyName: job.CompanyName,
	}, nil
}

// renderAnalysis 将分析结果渲染为优化提示的输入文本
func renderAnalysis(analysis *types.ResumeAnalysis) string {
	if analysis == nil {
		return "（无分析结论，按通用最佳实践优化）"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("总分: %d/100\n", analysis.OverallScore))
	sb.WriteString(fmt.Sprintf("完整度: %d, 影响力: %d, 相关性: %d, 清晰度: %d, ATS: %d\n",
		analysis.Quality.Completeness, analysis.Quality.Impact,
		analysis.Quality.Relevance, analysis.Quality.Clarity, analysis.ATS.Score))
	if len(analysis.Weaknesses) > 0 {
		sb.WriteString("短板: " + strings.Join(analysis.Weaknesses, "; ") + "\n")
	}
	if len(analysis.Suggestions) > 0 {
		sb.WriteString("改进建议: " + strings.Join(analysis.Suggestions, "; ") + "\n")
	}
	if len(analysis.Keywords.MissingKeywords) > 0 {
		sb.WriteString("缺失关键词: " + strings.Join(analysis.Keywords.MissingKeywords, ", ") + "\n")
	}
	return sb.String()
}
