package processor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"resume-agent-go/internal/llm"
	"resume-agent-go/internal/logger"
	"resume-agent-go/internal/types"
)

const extractorSystemPrompt = `你是一位专业的简历信息抽取助手，擅长从各种格式的简历文本中准确提取结构化信息。只输出JSON，不输出任何解释性文字。`

const extractorPromptTemplate = `请从下面的【简历文本】中提取结构化信息，严格按照指定的JSON格式输出。

**输出格式：**
{
  "contact_info": {"name": "", "email": "", "phone": "", "location": "", "linkedin": "", "github": "", "website": ""},
  "summary": "个人简介摘要",
  "education": [{"school": "", "degree": "", "major": "", "start_date": "YYYY-MM", "end_date": "YYYY-MM", "gpa": ""}],
  "work_experience": [{"company": "", "position": "", "start_date": "YYYY-MM", "end_date": "YYYY-MM", "description": "", "achievements": [""]}],
  "skills": [""],
  "projects": [{"name": "", "description": "", "technologies": [""], "url": ""}],
  "certifications": [{"name": "", "issuer": "", "issued_at": "YYYY-MM"}],
  "languages": [""]
}

**提取规则：**
1. 日期统一输出 "YYYY-MM" 格式；只有年份时输出 "YYYY"；仍在进行中的经历 end_date 输出 "present"。
2. 简历中没有的字段输出空字符串或空数组，不要编造。
3. 技能按单项拆分，不要把一行多个技能合并为一项。
4. 完整输出必须是一个合法的JSON对象，所有字段名和字符串值使用双引号，禁止在JSON之外输出任何文本。

【简历文本】:
"""
%s
"""`

// rawResumePayload 模型输出的中间形态，日期为字符串，解析后映射到 types.ResumeData
type rawResumePayload struct {
	ContactInfo types.ContactInfo `json:"contact_info"`
	Summary     string            `json:"summary"`
	Education   []struct {
		School    string `json:"school"`
		Degree    string `json:"degree"`
		Major     string `json:"major"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
		GPA       string `json:"gpa"`
	} `json:"education"`
	WorkExperience []struct {
		Company      string   `json:"company"`
		Position     string   `json:"position"`
		StartDate    string   `json:"start_date"`
		EndDate      string   `json:"end_date"`
		Description  string   `json:"description"`
		Achievements []string `json:"achievements"`
	} `json:"work_experience"`
	Skills   []string `json:"skills"`
	Projects []struct {
		Name         string   `json:"name"`
		Description  string   `json:"description"`
		Technologies []string `json:"technologies"`
		URL          string   `json:"url"`
	} `json:"projects"`
	Certifications []struct {
		Name     string `json:"name"`
		Issuer   string `json:"issuer"`
		IssuedAt string `json:"issued_at"`
	} `json:"certifications"`
	Languages []string `json:"languages"`
}

// LLMResumeExtractor 调用大模型完成简历结构化抽取
type LLMResumeExtractor struct {
	model llm.ChatModel
}

// NewLLMResumeExtractor 创建简历抽取器
func NewLLMResumeExtractor(model llm.ChatModel) (*LLMResumeExtractor, error) {
	if model == nil {
		return nil, fmt.Errorf("model不能为空")
	}
	return &LLMResumeExtractor{model: model}, nil
}

// Extract 抽取简历结构化信息
// 模型调用或解析失败时返回仅含原始文本的降级数据，错误同时返回，由调用方决定后续处理
func (e *LLMResumeExtractor) Extract(ctx context.Context, rawText string) (*types.ResumeData, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, fmt.Errorf("简历文本为空")
	}

	messages := []*schema.Message{
		schema.SystemMessage(extractorSystemPrompt),
		schema.UserMessage(fmt.Sprintf(extractorPromptTemplate, rawText)),
	}

	response, err := e.model.Generate(ctx, messages)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("简历抽取模型调用失败，降级为纯文本")
		return types.NewResumeData(rawText), fmt.Errorf("简历抽取模型调用失败: %w", err)
	}
	if response == nil || response.Content == "" {
		return types.NewResumeData(rawText), fmt.Errorf("简历抽取模型返回空响应")
	}

	var payload rawResumePayload
	if err := llm.UnmarshalResponse(response.Content, &payload); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("简历抽取响应解析失败，降级为纯文本")
		return types.NewResumeData(rawText), fmt.Errorf("简历抽取响应解析失败: %w", err)
	}

	return e.toResumeData(rawText, &payload), nil
}

func (e *LLMResumeExtractor) toResumeData(rawText string, payload *rawResumePayload) *types.ResumeData {
	data := types.NewResumeData(rawText)
	data.ContactInfo = payload.ContactInfo
	data.Summary = payload.Summary

	for _, edu := range payload.Education {
		if edu.School == "" {
			continue
		}
		data.Education = append(data.Education, types.Education{
			School:    edu.School,
			Degree:    edu.Degree,
			Major:     edu.Major,
			StartDate: ParseFlexibleDate(edu.StartDate),
			EndDate:   ParseFlexibleDate(edu.EndDate),
			GPA:       edu.GPA,
		})
	}

	for _, work := range payload.WorkExperience {
		if work.Company == "" && work.Position == "" {
			continue
		}
		exp := types.WorkExperience{
			Company:      work.Company,
			Position:     work.Position,
			StartDate:    ParseFlexibleDate(work.StartDate),
			EndDate:      ParseFlexibleDate(work.EndDate),
			Description:  work.Description,
			Achievements: work.Achievements,
		}
		if exp.Achievements == nil {
			exp.Achievements = []string{}
		}
		data.WorkExperience = append(data.WorkExperience, exp)
	}

	if len(payload.Skills) > 0 {
		data.Skills = payload.Skills
	}

	for _, proj := range payload.Projects {
		if proj.Name == "" {
			continue
		}
		p := types.Project{
			Name:         proj.Name,
			Description:  proj.Description,
			Technologies: proj.Technologies,
			URL:          proj.URL,
		}
		if p.Technologies == nil {
			p.Technologies = []string{}
		}
		data.Projects = append(data.Projects, p)
	}

	for _, cert := range payload.Certifications {
		if cert.Name == "" {
			continue
		}
		data.Certifications = append(data.Certifications, types.Certification{
			Name:     cert.Name,
			Issuer:   cert.Issuer,
			IssuedAt: ParseFlexibleDate(cert.IssuedAt),
		})
	}

	if len(payload.Languages) > 0 {
		data.Languages = payload.Languages
	}

	return data
}

// dateLayouts 按精度从高到低尝试，"YYYY-MM"落在当月1日，"YYYY"落在当年1月1日
var dateLayouts = []string{"2006-01-02", "2006-01", "2006"}

// ParseFlexibleDate 解析模型输出的日期字符串
// "present"/"current"/"至今"/空串/无法解析时返回nil，表示日期未知或仍在进行
func ParseFlexibleDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	switch strings.ToLower(s) {
	case "present", "current", "now", "至今", "今":
		return nil
	}

	normalized := strings.NewReplacer("/", "-", ".", "-", "年", "-", "月", "").Replace(s)
	normalized = strings.TrimSuffix(normalized, "-")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, normalized); err == nil {
			return &t
		}
	}
	return nil
}
