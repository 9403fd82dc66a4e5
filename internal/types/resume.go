package types

import "time"

// ContactInfo 简历联系方式
type ContactInfo struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
	Website  string `json:"website,omitempty"`
}

// Education 教育经历条目
type Education struct {
	School    string     `json:"school"`
	Degree    string     `json:"degree,omitempty"`
	Major     string     `json:"major,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"` // nil 表示至今或日期不可解析
	GPA       string     `json:"gpa,omitempty"`
}

// WorkExperience 工作经历条目
type WorkExperience struct {
	Company      string     `json:"company"`
	Position     string     `json:"position"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"` // nil 表示至今
	Description  string     `json:"description,omitempty"`
	Achievements []string   `json:"achievements,omitempty"`
}

// Project 项目经历条目
type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
	URL          string   `json:"url,omitempty"`
}

// Certification 证书条目
type Certification struct {
	Name     string     `json:"name"`
	Issuer   string     `json:"issuer,omitempty"`
	IssuedAt *time.Time `json:"issued_at,omitempty"`
}

// ResumeData 简历的结构化数据
// RawText 始终保留；结构化字段由模型抽取填充，抽取失败时为空
type ResumeData struct {
	RawText        string           `json:"raw_text"`
	ContactInfo    ContactInfo      `json:"contact_info"`
	Summary        string           `json:"summary,omitempty"`
	Education      []Education      `json:"education"`
	WorkExperience []WorkExperience `json:"work_experience"`
	Skills         []string         `json:"skills"`
	Projects       []Project        `json:"projects"`
	Certifications []Certification  `json:"certifications"`
	Languages      []string         `json:"languages"`
}

// NewResumeData 构造仅含原始文本的简历数据，作为抽取失败时的降级形态
func NewResumeData(rawText string) *ResumeData {
	return &ResumeData{
		RawText:        rawText,
		Education:      []Education{},
		WorkExperience: []WorkExperience{},
		Skills:         []string{},
		Projects:       []Project{},
		Certifications: []Certification{},
		Languages:      []string{},
	}
}
