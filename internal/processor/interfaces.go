package processor

import (
	"context"

	"resume-agent-go/internal/types"
)

// ResumeExtractor 将简历原始文本抽取为结构化数据
// 抽取失败时返回仅含原始文本的降级数据和非nil错误，调用方自行决定是否接受降级结果
type ResumeExtractor interface {
	Extract(ctx context.Context, rawText string) (*types.ResumeData, error)
}

// ResumeAnalyzer 对结构化简历做多维度质量分析
type ResumeAnalyzer interface {
	Analyze(ctx context.Context, resume *types.ResumeData, targetRole string) (*types.ResumeAnalysis, error)
}

// JobMatcher 评估简历与一组职位的匹配程度
type JobMatcher interface {
	MatchJobs(ctx context.Context, resume *types.ResumeData, jobs []types.JobPosting) (*types.JobMatchResult, error)
}

// ResumeOptimizer 基于分析结果改写简历，并生成定制求职信
type ResumeOptimizer interface {
	Optimize(ctx context.Context, resume *types.ResumeData, analysis *types.ResumeAnalysis, targetJob string) (*types.OptimizedResume, error)
	GenerateCoverLetter(ctx context.Context, resume *types.ResumeData, job *types.JobPosting, tone string) (*types.CoverLetter, error)
}
