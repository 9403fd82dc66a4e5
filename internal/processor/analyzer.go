package processor

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/cloudwego/eino/schema"

	"resume-agent-go/internal/constants"
	"resume-agent-go/internal/llm"
	"resume-agent-go/internal/logger"
	"resume-agent-go/internal/types"
)

const analyzerSystemPrompt = `你是一位资深的简历评估专家，熟悉招聘方和ATS系统的筛选逻辑。只输出JSON，不输出任何解释性文字。`

const qualityPromptTemplate = `请从以下四个维度评估【简历】的质量，每个维度给出0-100的整数分，并给出具体的改进建议。

**评分维度：**
1. "completeness": 信息完整度。联系方式、教育、工作经历、技能等模块是否齐全且信息充分。
2. "impact": 表达影响力。经历描述是否使用量化成果和有力动词，而非空泛的职责罗列。
3. "relevance": 目标相关性。内容是否围绕目标岗位组织，无关信息是否精简。%s
4. "clarity": 清晰度。结构是否清楚，表述是否简洁无歧义。

**输出格式：**
{"completeness": 0, "impact": 0, "relevance": 0, "clarity": 0, "suggestions": ["具体的改进建议"]}

【简历】:
"""
%s
"""`

const keywordPromptTemplate = `请分析【简历】中的关键词覆盖情况。%s

**输出格式：**
{"present_keywords": ["简历中已出现的重要技能关键词"], "missing_keywords": ["该方向通常需要但简历缺失的关键词"], "suggestions": ["关键词优化建议"]}

【简历】:
"""
%s
"""`

const atsPromptTemplate = `请评估【简历】对ATS（申请人跟踪系统）的友好程度，给出0-100的整数分。
重点检查：模块标题是否标准、是否存在可能丢失信息的表格或图形描述、日期格式是否一致、联系方式是否易于机读。

**输出格式：**
{"score": 0, "issues": ["会影响ATS解析的具体问题"], "tips": ["提升ATS兼容性的建议"]}

【简历】:
"""
%s
"""`

const strengthPromptTemplate = `请总结【简历】的突出优势和明显短板，各列出2-5项，必须是基于简历内容的具体判断，避免空泛描述。

**输出格式：**
{"strengths": ["突出优势"], "weaknesses": ["明显短板"]}

【简历】:
"""
%s
"""`

// LLMResumeAnalyzer 四路并行的简历多维度分析器
// 任一子分析失败时以中性默认值顶替并记入 Degraded，整体分析不因单路失败而中断
type LLMResumeAnalyzer struct {
	model llm.ChatModel
}

// NewLLMResumeAnalyzer 创建简历分析器
func NewLLMResumeAnalyzer(model llm.ChatModel) (*LLMResumeAnalyzer, error) {
	if model == nil {
		return nil, fmt.Errorf("model不能为空")
	}
	return &LLMResumeAnalyzer{model: model}, nil
}

type qualityPayload struct {
	Completeness int      `json:"completeness"`
	Impact       int      `json:"impact"`
	Relevance    int      `json:"relevance"`
	Clarity      int      `json:"clarity"`
	Suggestions  []string `json:"suggestions"`
}

type strengthPayload struct {
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

// Analyze 并行执行质量评分、关键词分析、ATS兼容性、优劣势总结四路子分析并聚合
func (a *LLMResumeAnalyzer) Analyze(ctx context.Context, resume *types.ResumeData, targetRole string) (*types.ResumeAnalysis, error) {
	if resume == nil || strings.TrimSpace(resume.RawText) == "" {
		return nil, fmt.Errorf("简历数据为空")
	}

	resumeText := RenderResumeText(resume)

	roleHint := ""
	keywordHint := "请根据简历内容推断其目标方向。"
	if targetRole != "" {
		roleHint = fmt.Sprintf("目标岗位：%s。", targetRole)
		keywordHint = fmt.Sprintf("目标岗位：%s。", targetRole)
	}

	analysis := &types.ResumeAnalysis{
		Quality: types.QualityScores{
			Completeness: constants.NeutralScore,
			Impact:       constants.NeutralScore,
			Relevance:    constants.NeutralScore,
			Clarity:      constants.NeutralScore,
		},
		Suggestions: []string{},
		Keywords: types.KeywordAnalysis{
			PresentKeywords: []string{},
			MissingKeywords: []string{},
			Suggestions:     []string{},
		},
		ATS: types.ATSCompatibility{
			Score:  constants.NeutralScore,
			Issues: []string{},
			Tips:   []string{},
		},
		Strengths:  []string{},
		Weaknesses: []string{},
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	degrade := func(name string, err error) {
		logger.Ctx(ctx).Warn().Err(err).Str("sub_analysis", name).Msg("子分析失败，使用中性默认值")
		mu.Lock()
		analysis.Degraded = append(analysis.Degraded, name)
		mu.Unlock()
	}

	wg.Add(4)

	go func() {
		defer wg.Done()
		var payload qualityPayload
		if err := a.callJSON(ctx, fmt.Sprintf(qualityPromptTemplate, roleHint, resumeText), &payload); err != nil {
			degrade("quality", err)
			return
		}
		mu.Lock()
		analysis.Quality = types.QualityScores{
			Completeness: clampScore(payload.Completeness),
			Impact:       clampScore(payload.Impact),
			Relevance:    clampScore(payload.Relevance),
			Clarity:      clampScore(payload.Clarity),
		}
		if payload.Suggestions != nil {
			analysis.Suggestions = payload.Suggestions
		}
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		var payload types.KeywordAnalysis
		if err := a.callJSON(ctx, fmt.Sprintf(keywordPromptTemplate, keywordHint, resumeText), &payload); err != nil {
			degrade("keywords", err)
			return
		}
		mu.Lock()
		if payload.PresentKeywords != nil {
			analysis.Keywords.PresentKeywords = payload.PresentKeywords
		}
		if payload.MissingKeywords != nil {
			analysis.Keywords.MissingKeywords = payload.MissingKeywords
		}
		if payload.Suggestions != nil {
			analysis.Keywords.Suggestions = payload.Suggestions
		}
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		var payload types.ATSCompatibility
		if err := a.callJSON(ctx, fmt.Sprintf(atsPromptTemplate, resumeText), &payload); err != nil {
			degrade("ats", err)
			return
		}
		mu.Lock()
		analysis.ATS.Score = clampScore(payload.Score)
		if payload.Issues != nil {
			analysis.ATS.Issues = payload.Issues
		}
		if payload.Tips != nil {
			analysis.ATS.Tips = payload.Tips
		}
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		var payload strengthPayload
		if err := a.callJSON(ctx, fmt.Sprintf(strengthPromptTemplate, resumeText), &payload); err != nil {
			degrade("strengths", err)
			return
		}
		mu.Lock()
		if payload.Strengths != nil {
			analysis.Strengths = payload.Strengths
		}
		if payload.Weaknesses != nil {
			analysis.Weaknesses = payload.Weaknesses
		}
		mu.Unlock()
	}()

	wg.Wait()

	analysis.OverallScore = overallScore(analysis)
	return analysis, nil
}

func (a *LLMResumeAnalyzer) callJSON(ctx context.Context, prompt string, out interface{}) error {
	messages := []*schema.Message{
		schema.SystemMessage(analyzerSystemPrompt),
		schema.UserMessage(prompt),
	}
	response, err := a.model.Generate(ctx, messages)
	if err != nil {
		return fmt.Errorf("模型调用失败: %w", err)
	}
	if response == nil || response.Content == "" {
		return fmt.Errorf("模型返回空响应")
	}
	return llm.UnmarshalResponse(response.Content, out)
}

// overallScore 各维度加权求和后四舍五入
func overallScore(analysis *types.ResumeAnalysis) int {
	weighted := float64(analysis.Quality.Completeness)*types.WeightCompleteness +
		float64(analysis.Quality.Impact)*types.WeightImpact +
		float64(analysis.Quality.Relevance)*types.WeightRelevance +
		float64(analysis.Quality.Clarity)*types.WeightClarity +
		float64(analysis.ATS.Score)*types.WeightATS
	return int(math.Round(weighted))
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// RenderResumeText 将结构化简历渲染为模型输入文本
// 结构化字段为空时退回原始文本
func RenderResumeText(resume *types.ResumeData) string {
	if len(resume.WorkExperience) == 0 && len(resume.Education) == 0 && len(resume.Skills) == 0 {
		return resume.RawText
	}

	var sb strings.Builder
	if resume.ContactInfo.Name != "" {
		sb.WriteString("姓名: " + resume.ContactInfo.Name + "\n")
	}
	if resume.ContactInfo.Email != "" {
		sb.WriteString("邮箱: " + resume.ContactInfo.Email + "\n")
	}
	if resume.Summary != "" {
		sb.WriteString("\n个人简介:\n" + resume.Summary + "\n")
	}
	if len(resume.Skills) > 0 {
		sb.WriteString("\n技能: " + strings.Join(resume.Skills, ", ") + "\n")
	}
	if len(resume.WorkExperience) > 0 {
		sb.WriteString("\n工作经历:\n")
		for _, exp := range resume.WorkExperience {
			sb.WriteString(fmt.Sprintf("- %s | %s\n", exp.Company, exp.Position))
			if exp.Description != "" {
				sb.WriteString("  " + exp.Description + "\n")
			}
			for _, achievement := range exp.Achievements {
				sb.WriteString("  * " + achievement + "\n")
			}
		}
	}
	if len(resume.Education) > 0 {
		sb.WriteString("\n教育经历:\n")
		for _, edu := range resume.Education {
			sb.WriteString(fmt.Sprintf("- %s %s %s\n", edu.School, edu.Degree, edu.Major))
		}
	}
	if len(resume.Projects) > 0 {
		sb.WriteString("\n项目经历:\n")
		for _, proj := range resume.Projects {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", proj.Name, proj.Description))
		}
	}
	return sb.String()
}
