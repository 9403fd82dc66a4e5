package types

import "time"

// JobSearchCriteria 一次职位搜索的不可变输入
type JobSearchCriteria struct {
	Keywords  []string          `json:"keywords"` // 非空、有序
	Location  string            `json:"location,omitempty"`
	Limit     int               `json:"limit"`
	Filters   map[string]string `json:"filters,omitempty"`
	TargetURL string            `json:"target_url,omitempty"` // 覆盖平台默认站点
	Platform  string            `json:"platform,omitempty"`
}

// JobPosting 规范化后的职位记录
// ID为平台内标识，跨平台可能碰撞，系统不做去重
type JobPosting struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	CompanyName     string     `json:"company_name"`
	Location        string     `json:"location,omitempty"`
	Description     string     `json:"description,omitempty"`
	URL             string     `json:"url,omitempty"`
	SalaryRange     string     `json:"salary_range,omitempty"`
	ExperienceLevel string     `json:"experience_level,omitempty"`
	EducationLevel  string     `json:"education_level,omitempty"`
	JobType         string     `json:"job_type,omitempty"`
	PostedDate      *time.Time `json:"posted_date,omitempty"`
	CompanySize     string     `json:"company_size,omitempty"`
	Industry        string     `json:"industry,omitempty"`
	Platform        string     `json:"platform,omitempty"`
}

// Valid 校验记录是否保留，无标题的记录一律丢弃
func (p *JobPosting) Valid() bool {
	return p != nil && p.Title != ""
}

// ScoredJobPosting 职位及其与某份简历的匹配分，分值统一为[0,1]
type ScoredJobPosting struct {
	JobPosting
	MatchScore float64 `json:"match_score"`
}

// JobSearchResult 一次搜索的结果及来源信息
type JobSearchResult struct {
	Postings  []JobPosting `json:"postings"`
	FromCache bool         `json:"from_cache"`
	SearchURL string       `json:"search_url,omitempty"`
	FetchedAt time.Time    `json:"fetched_at"`
}
