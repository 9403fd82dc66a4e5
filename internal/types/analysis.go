package types

// ScoreWeights 总分加权系数，五项和为1
const (
	WeightCompleteness = 0.20
	WeightImpact       = 0.25
	WeightRelevance    = 0.20
	WeightClarity      = 0.15
	WeightATS          = 0.20
)

// QualityScores 简历质量各维度评分 (0-100)
type QualityScores struct {
	Completeness int `json:"completeness"`
	Impact       int `json:"impact"`
	Relevance    int `json:"relevance"`
	Clarity      int `json:"clarity"`
}

// KeywordAnalysis 关键词分析结果
type KeywordAnalysis struct {
	PresentKeywords []string `json:"present_keywords"`
	MissingKeywords []string `json:"missing_keywords"`
	Suggestions     []string `json:"suggestions"`
}

// ATSCompatibility ATS兼容性分析结果
type ATSCompatibility struct {
	Score  int      `json:"score"` // 0-100
	Issues []string `json:"issues"`
	Tips   []string `json:"tips"`
}

// ResumeAnalysis 四路并行分析的聚合结果
// Degraded 记录退化为中性默认值的子分析名
type ResumeAnalysis struct {
	OverallScore int              `json:"overall_score"` // 加权后取整，0-100
	Quality      QualityScores    `json:"quality"`
	Suggestions  []string         `json:"suggestions"`
	Keywords     KeywordAnalysis  `json:"keywords"`
	ATS          ATSCompatibility `json:"ats"`
	Strengths    []string         `json:"strengths"`
	Weaknesses   []string         `json:"weaknesses"`
	Degraded     []string         `json:"degraded,omitempty"`
}

// JobMatchResult 简历与职位的匹配结果
// MatchScore 全系统统一为 [0,1]，模型返回的0-100在边界处换算一次
type JobMatchResult struct {
	MatchScore      float64  `json:"match_score"`
	MatchingSkills  []string `json:"matching_skills"`
	MissingSkills   []string `json:"missing_skills"`
	Recommendations []string `json:"recommendations"`
	JobsAnalyzed    int      `json:"jobs_analyzed"`
}

// OptimizedResume 优化流水线的终态产物
type OptimizedResume struct {
	OptimizedText   string `json:"optimized_text"`
	OriginalResume  string `json:"original_resume_id,omitempty"`
	AnalysisSummary string `json:"analysis_summary,omitempty"`
	TargetJob       string `json:"target_job,omitempty"`
}

// CoverLetter 求职信生成结果
type CoverLetter struct {
	Content     string `json:"content"`
	ResumeID    string `json:"resume_id,omitempty"`
	JobTitle    string `json:"job_title,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
}
