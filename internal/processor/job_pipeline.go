package processor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/schema"

	"resume-agent-go/internal/constants"
	"resume-agent-go/internal/llm"
	"resume-agent-go/internal/logger"
	"resume-agent-go/internal/types"
)

const keywordExtractPromptTemplate = `请从【简历】中提取最适合用于职位搜索的关键词，严格按照指定的JSON格式输出。

**提取要求：**
1. 关键词应是职位名称、核心技术栈或行业术语，3-8个。
2. 按求职相关性从高到低排列，不要输出泛化词（如"工作"、"经验"）。

**输出格式：**
{"keywords": ["关键词1", "关键词2"]}
完整输出必须是一个合法的JSON对象，禁止在JSON之外输出任何文本。

【简历】:
"""
%s
"""`

const batchScorePromptTemplate = `请逐一评估【候选人简历】与下列【职位列表】中每个职位的匹配度，每个职位给出0-100的整数分，严格按照指定的JSON格式输出。

**评分标准：**
- 90-100: 高度匹配，技能与经验几乎完全吻合
- 70-89: 较好匹配，核心要求满足，少数技能欠缺
- 50-69: 部分匹配，需要补足关键技能
- 0-49: 匹配度低

**输出格式：**
{"scores": [分数1, 分数2, ...]}
scores数组长度必须与职位列表条数一致，顺序一一对应。完整输出必须是一个合法的JSON对象，禁止在JSON之外输出任何文本。

【候选人简历】:
"""
%s
"""

【职位列表】:
%s`

type keywordPayload struct {
	Keywords []string `json:"keywords"`
}

type batchScorePayload struct {
	Scores []int `json:"scores"`
}

// JobSearcher 职位搜索入口，由jobsearch.Service实现
type JobSearcher interface {
	Search(ctx context.Context, criteria types.JobSearchCriteria) (*types.JobSearchResult, error)
}

// JobMatchPipeline 端到端的职位推荐流水线：
// 从简历提取搜索关键词，合并用户关键词后搜索职位，再对结果批量打分排序
type JobMatchPipeline struct {
	model    llm.ChatModel
	searcher JobSearcher
}

// NewJobMatchPipeline 创建职位推荐流水线
func NewJobMatchPipeline(model llm.ChatModel, searcher JobSearcher) (*JobMatchPipeline, error) {
	if model == nil {
		return nil, fmt.Errorf("model不能为空")
	}
	if searcher == nil {
		return nil, fmt.Errorf("searcher不能为空")
	}
	return &JobMatchPipeline{model: model, searcher: searcher}, nil
}

// ExtractKeywords 从简历中提取用于职位搜索的关键词
func (p *JobMatchPipeline) ExtractKeywords(ctx context.Context, resume *types.ResumeData) ([]string, error) {
	if resume == nil || strings.TrimSpace(resume.RawText) == "" {
		return nil, fmt.Errorf("简历数据为空")
	}

	prompt := fmt.Sprintf(keywordExtractPromptTemplate, RenderResumeText(resume))
	messages := []*schema.Message{
		schema.SystemMessage(analyzerSystemPrompt),
		schema.UserMessage(prompt),
	}

	response, err := p.model.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("关键词提取模型调用失败: %w", err)
	}
	if response == nil || response.Content == "" {
		return nil, fmt.Errorf("关键词提取模型返回空响应")
	}

	var payload keywordPayload
	if err := llm.UnmarshalResponse(response.Content, &payload); err != nil {
		return nil, fmt.Errorf("关键词提取响应解析失败: %w", err)
	}
	if len(payload.Keywords) == 0 {
		return nil, fmt.Errorf("关键词提取结果为空")
	}
	return payload.Keywords, nil
}

// MatchJobs 推荐流水线主入口
// 用户关键词与模型提取的关键词合并去重后搜索；打分调用失败时全部职位落在0.5默认分
func (p *JobMatchPipeline) MatchJobs(ctx context.Context, resume *types.ResumeData, userKeywords []string, location string, limit int) ([]types.ScoredJobPosting, error) {
	if resume == nil || strings.TrimSpace(resume.RawText) == "" {
		return nil, fmt.Errorf("简历数据为空")
	}
	if limit <= 0 {
		limit = constants.DefaultJobLimit
	}

	keywords := mergeKeywords(userKeywords, p.extractedKeywords(ctx, resume))
	if len(keywords) == 0 {
		return nil, fmt.Errorf("无可用搜索关键词")
	}

	result, err := p.searcher.Search(ctx, types.JobSearchCriteria{
		Keywords: keywords,
		Location: location,
		Limit:    constants.MaxJobLimit, // 先多取再按分截断
	})
	if err != nil {
		return nil, fmt.Errorf("职位搜索失败: %w", err)
	}
	if len(result.Postings) == 0 {
		return []types.ScoredJobPosting{}, nil
	}

	scores := p.scorePostings(ctx, resume, result.Postings)

	scored := make([]types.ScoredJobPosting, len(result.Postings))
	for i, posting := range result.Postings {
		scored[i] = types.ScoredJobPosting{JobPosting: posting, MatchScore: scores[i]}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].MatchScore > scored[j].MatchScore
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// extractedKeywords 尽力提取，失败时返回nil并记录日志，不阻断流水线
func (p *JobMatchPipeline) extractedKeywords(ctx context.Context, resume *types.ResumeData) []string {
	keywords, err := p.ExtractKeywords(ctx, resume)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("简历关键词提取失败，仅使用用户关键词")
		return nil
	}
	return keywords
}

// scorePostings 一次批量打分调用，任何失败都退化为全员0.5默认分
func (p *JobMatchPipeline) scorePostings(ctx context.Context, resume *types.ResumeData, postings []types.JobPosting) []float64 {
	scores := make([]float64, len(postings))
	for i := range scores {
		scores[i] = 0.5
	}

	prompt := fmt.Sprintf(batchScorePromptTemplate, RenderResumeText(resume), renderJobList(postings))
	messages := []*schema.Message{
		schema.SystemMessage(matcherSystemPrompt),
		schema.UserMessage(prompt),
	}

	response, err := p.model.Generate(ctx, messages)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("批量打分模型调用失败，使用默认分")
		return scores
	}
	if response == nil || response.Content == "" {
		logger.Ctx(ctx).Warn().Msg("批量打分模型返回空响应，使用默认分")
		return scores
	}

	var payload batchScorePayload
	if err := llm.UnmarshalResponse(response.Content, &payload); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("批量打分响应解析失败，使用默认分")
		return scores
	}

	for i := 0; i < len(scores) && i < len(payload.Scores); i++ {
		scores[i] = float64(clampScore(payload.Scores[i])) / 100
	}
	return scores
}

// mergeKeywords 合并并去重，保序，用户关键词优先
func mergeKeywords(groups ...[]string) []string {
	seen := make(map[string]struct{})
	var merged []string
	for _, group := range groups {
		for _, kw := range group {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			key := strings.ToLower(kw)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, kw)
		}
	}
	return merged
}
