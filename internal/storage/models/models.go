package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// User 用户主表
type User struct {
	UserID       string    `gorm:"type:char(36);primaryKey"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_email_unique"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	FullName     string    `gorm:"type:varchar(255)"`
	CreatedAt    time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt    time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// Resume 简历主表，原始文件与解析文本存MinIO，这里只记路径
type Resume struct {
	ResumeID         string         `gorm:"type:char(36);primaryKey"`
	UserID           string         `gorm:"type:char(36);not null;index:idx_resumes_user_id"`
	OriginalFilename string         `gorm:"type:varchar(255)"`
	ContentType      string         `gorm:"type:varchar(100)"`
	FileSizeBytes    int64          `gorm:"type:bigint"`
	OriginalFileOSS  string         `gorm:"type:varchar(1024)"`
	ParsedTextOSS    string         `gorm:"type:varchar(1024)"`
	ParsedDataJSON   datatypes.JSON `gorm:"type:json"` // 结构化抽取结果
	ParseMetaJSON    datatypes.JSON `gorm:"type:json"` // 解析器产出的格式元数据
	ProcessingStatus string         `gorm:"type:varchar(50);default:'PENDING_PARSING';index:idx_resumes_processing_status"`
	ParserVersion    string         `gorm:"type:varchar(50)"`
	CreatedAt        time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt        time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`

	User *User `gorm:"foreignKey:UserID;references:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Resume) TableName() string {
	return "resumes"
}

// ResumeAnalysis 简历分析结果表
type ResumeAnalysis struct {
	AnalysisID   string         `gorm:"type:char(36);primaryKey"`
	ResumeID     string         `gorm:"type:char(36);not null;index:idx_ra_resume_id"`
	OverallScore int            `gorm:"type:int"`
	ResultJSON   datatypes.JSON `gorm:"type:json;not null"` // 完整的四路分析聚合结果
	CreatedAt    time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`

	Resume *Resume `gorm:"foreignKey:ResumeID;references:ResumeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (ResumeAnalysis) TableName() string {
	return "resume_analyses"
}

// JobSearchCache 职位搜索结果缓存表
// 以(排序后关键词, 地点)为键upsert，过期语义在读取时判断，不做自动删除
type JobSearchCache struct {
	CacheID      uint64         `gorm:"primaryKey;autoIncrement"`
	KeywordsKey  string         `gorm:"type:varchar(512);not null;uniqueIndex:idx_jsc_keywords_location,priority:1"`
	Location     string         `gorm:"type:varchar(255);not null;default:'';uniqueIndex:idx_jsc_keywords_location,priority:2"`
	PostingsJSON datatypes.JSON `gorm:"type:json;not null"`
	SearchURL    string         `gorm:"type:varchar(1024)"`
	SearchedAt   time.Time      `gorm:"type:datetime(6);not null;index:idx_jsc_searched_at"`
	CreatedAt    time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt    time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (JobSearchCache) TableName() string {
	return "job_search_caches"
}

// JobSearchHistory 用户职位搜索历史表
type JobSearchHistory struct {
	HistoryID    uint64         `gorm:"primaryKey;autoIncrement"`
	UserID       string         `gorm:"type:char(36);not null;index:idx_jsh_user_id"`
	CriteriaJSON datatypes.JSON `gorm:"type:json;not null"`
	ResultCount  int            `gorm:"type:int"`
	FromCache    bool           `gorm:"type:tinyint(1)"`
	CreatedAt    time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
}

func (JobSearchHistory) TableName() string {
	return "job_search_histories"
}

// OptimizedResume 简历优化产物表
type OptimizedResume struct {
	OptimizedID     string    `gorm:"type:char(36);primaryKey"`
	ResumeID        string    `gorm:"type:char(36);not null;index:idx_or_resume_id"`
	OptimizedText   string    `gorm:"type:mediumtext;not null"`
	AnalysisSummary string    `gorm:"type:text"`
	TargetJob       string    `gorm:"type:varchar(255)"`
	CreatedAt       time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`

	Resume *Resume `gorm:"foreignKey:ResumeID;references:ResumeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (OptimizedResume) TableName() string {
	return "optimized_resumes"
}

// CoverLetter 求职信生成历史表
type CoverLetter struct {
	LetterID    string    `gorm:"type:char(36);primaryKey"`
	ResumeID    string    `gorm:"type:char(36);not null;index:idx_cl_resume_id"`
	JobTitle    string    `gorm:"type:varchar(255)"`
	CompanyName string    `gorm:"type:varchar(255)"`
	Content     string    `gorm:"type:mediumtext;not null"`
	CreatedAt   time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
}

func (CoverLetter) TableName() string {
	return "cover_letters"
}

// ToJSON 将任意值序列化为datatypes.JSON，失败时返回空对象
func ToJSON(v interface{}) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(data)
}
