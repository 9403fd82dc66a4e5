package platform

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"resume-agent-go/internal/constants"
	"resume-agent-go/internal/types"
)

// BossAdapter Boss直聘平台适配器
type BossAdapter struct {
	baseURL string
}

// NewBossAdapter 创建Boss直聘适配器
func NewBossAdapter() *BossAdapter {
	return &BossAdapter{baseURL: "https://www.zhipin.com"}
}

// Name 实现Adapter接口
func (b *BossAdapter) Name() string {
	return constants.PlatformBoss
}

// BaseURL 实现Adapter接口
func (b *BossAdapter) BaseURL() string {
	return b.baseURL
}

// BuildSearchURL 构造搜索URL，关键词空格连接，地点作为city参数
func (b *BossAdapter) BuildSearchURL(criteria types.JobSearchCriteria) string {
	if criteria.TargetURL != "" {
		return criteria.TargetURL
	}

	params := url.Values{}
	params.Set("query", strings.Join(criteria.Keywords, " "))
	if criteria.Location != "" {
		params.Set("city", criteria.Location)
	}
	for k, v := range criteria.Filters {
		params.Set(k, v)
	}
	return b.baseURL + "/web/geek/job?" + params.Encode()
}

// bossFieldMapping 站点字段名到规范字段名的固定映射表
var bossFieldMapping = map[string]string{
	"position":   "title",
	"company":    "company_name",
	"salary":     "salary_range",
	"address":    "location",
	"experience": "experience_level",
	"education":  "education_level",
}

// jobDetailIDRe 从详情页链接中提取职位ID，如 /job_detail/abc123.html
var jobDetailIDRe = regexp.MustCompile(`/job_detail/([^/.]+)\.html`)

// Normalize 实现Adapter接口
// 按映射表重命名字段，未映射的字段原样保留；相对链接补全为绝对URL；
// 打上平台标识；缺标题的记录丢弃
func (b *BossAdapter) Normalize(raw map[string]interface{}) (types.JobPosting, bool) {
	mapped := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		if canonical, ok := bossFieldMapping[k]; ok {
			mapped[canonical] = v
		} else {
			mapped[k] = v
		}
	}

	posting := types.JobPosting{
		ID:              asString(mapped["id"]),
		Title:           asString(mapped["title"]),
		CompanyName:     asString(mapped["company_name"]),
		Location:        asString(mapped["location"]),
		Description:     asString(mapped["description"]),
		URL:             asString(mapped["url"]),
		SalaryRange:     asString(mapped["salary_range"]),
		ExperienceLevel: asString(mapped["experience_level"]),
		EducationLevel:  asString(mapped["education_level"]),
		JobType:         asString(mapped["job_type"]),
		CompanySize:     asString(mapped["company_size"]),
		Industry:        asString(mapped["industry"]),
		Platform:        b.Name(),
	}

	if posting.URL != "" && strings.HasPrefix(posting.URL, "/") {
		posting.URL = b.baseURL + posting.URL
	}

	// ID缺失时从详情链接提取
	if posting.ID == "" && posting.URL != "" {
		if matches := jobDetailIDRe.FindStringSubmatch(posting.URL); len(matches) > 1 {
			posting.ID = matches[1]
		}
	}

	if !posting.Valid() {
		return types.JobPosting{}, false
	}
	return posting, true
}

// asString 字符串原样返回，数值格式化为字符串，其余类型视为空
// 抓取端的id字段常以JSON数值出现，不能当非法值丢弃
func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	}
	return ""
}
