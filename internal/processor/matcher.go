package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"resume-agent-go/internal/llm"
	"resume-agent-go/internal/types"
)

const matcherSystemPrompt = `你是一位资深的AI招聘专家，擅长精准评估候选人与岗位的匹配程度。只输出JSON，不输出任何解释性文字。`

const matcherPromptTemplate = `请基于【候选人简历】与下列【职位列表】做整体匹配度评估，严格按照指定的JSON格式输出。

**输出格式：**
{
  "match_score": 0,
  "matching_skills": ["候选人已具备且职位需要的技能"],
  "missing_skills": ["职位普遍要求但候选人缺失的技能"],
  "recommendations": ["提升匹配度的具体建议"]
}

**评分要求：**
- "match_score" 为0-100的整数，反映候选人与这批职位的整体匹配程度。
- 技能项必须来自简历或职位描述中的具体内容，不要编造。
- 完整输出必须是一个合法的JSON对象，禁止在JSON之外输出任何文本。

【候选人简历】:
"""
%s
"""

【职位列表】:
"""
%s
"""`

// matchPayload 模型输出的匹配结果，分数为0-100整数，入库前统一换算到[0,1]
type matchPayload struct {
	MatchScore      int      `json:"match_score"`
	MatchingSkills  []string `json:"matching_skills"`
	MissingSkills   []string `json:"missing_skills"`
	Recommendations []string `json:"recommendations"`
}

// LLMJobMatcher 调用大模型评估简历与职位列表的匹配度
type LLMJobMatcher struct {
	model llm.ChatModel
}

// NewLLMJobMatcher 创建职位匹配器
func NewLLMJobMatcher(model llm.ChatModel) (*LLMJobMatcher, error) {
	if model == nil {
		return nil, fmt.Errorf("model不能为空")
	}
	return &LLMJobMatcher{model: model}, nil
}

// MatchJobs 评估简历与一组职位的匹配程度
// 模型输出无法解析时返回零值结果和错误，不做部分兜底
func (m *LLMJobMatcher) MatchJobs(ctx context.Context, resume *types.ResumeData, jobs []types.JobPosting) (*types.JobMatchResult, error) {
	if resume == nil || strings.TrimSpace(resume.RawText) == "" {
		return nil, fmt.Errorf("简历数据为空")
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("职位列表为空")
	}

	prompt := fmt.Sprintf(matcherPromptTemplate, RenderResumeText(resume), renderJobList(jobs))
	messages := []*schema.Message{
		schema.SystemMessage(matcherSystemPrompt),
		schema.UserMessage(prompt),
	}

	response, err := m.model.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("职位匹配模型调用失败: %w", err)
	}
	if response == nil || response.Content == "" {
		return nil, fmt.Errorf("职位匹配模型返回空响应")
	}

	var payload matchPayload
	if err := llm.UnmarshalResponse(response.Content, &payload); err != nil {
		return nil, fmt.Errorf("职位匹配响应解析失败: %w", err)
	}

	result := &types.JobMatchResult{
		MatchScore:      float64(clampScore(payload.MatchScore)) / 100,
		MatchingSkills:  payload.MatchingSkills,
		MissingSkills:   payload.MissingSkills,
		Recommendations: payload.Recommendations,
		JobsAnalyzed:    len(jobs),
	}
	if result.MatchingSkills == nil {
		result.MatchingSkills = []string{}
	}
	if result.MissingSkills == nil {
		result.MissingSkills = []string{}
	}
	if result.Recommendations == nil {
		result.Recommendations = []string{}
	}
	return result, nil
}

func renderJobList(jobs []types.JobPosting) string {
	var sb strings.Builder
	for i, job := range jobs {
		sb.WriteString(fmt.Sprintf("%d. %s", i+1, job.Title))
		if job.CompanyName != "" {
			sb.WriteString(" @ " + job.CompanyName)
		}
		sb.WriteString("\n")
		if job.SalaryRange != "" {
			sb.WriteString("   薪资: " + job.SalaryRange + "\n")
		}
		if job.Location != "" {
			sb.WriteString("   地点: " + job.Location + "\n")
		}
		if job.ExperienceLevel != "" || job.EducationLevel != "" {
			sb.WriteString(fmt.Sprintf("   要求: %s %s\n", job.ExperienceLevel, job.EducationLevel))
		}
		if job.Description != "" {
			sb.WriteString("   描述: " + job.Description + "\n")
		}
	}
	return sb.String()
}
