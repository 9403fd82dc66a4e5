package handler

import (
	"context"

	"resume-agent-go/internal/constants"
	"resume-agent-go/internal/logger"
	"resume-agent-go/internal/processor"
	"resume-agent-go/internal/storage/models"
	"resume-agent-go/internal/types"
)

// SearchHistoryStore 搜索历史记录
type SearchHistoryStore interface {
	CreateJobSearchHistory(ctx context.Context, history *models.JobSearchHistory) error
}

// JobHandler 职位搜索与详情
type JobHandler struct {
	searcher processor.JobSearcher
	history  SearchHistoryStore
}

// NewJobHandler 创建职位处理器
func NewJobHandler(searcher processor.JobSearcher, history SearchHistoryStore) *JobHandler {
	return &JobHandler{searcher: searcher, history: history}
}

// JobSearchRequest 职位搜索请求体
type JobSearchRequest struct {
	Keywords []string          `json:"keywords"`
	Location string            `json:"location,omitempty"`
	Limit    int               `json:"limit,omitempty"`
	Filters  map[string]string `json:"filters,omitempty"`
	Platform string            `json:"platform,omitempty"`
}

// Search 搜索职位，结果来自缓存或实时抓取
func (h *JobHandler) Search(ctx context.Context, userID string, req JobSearchRequest) (*types.JobSearchResult, error) {
	if len(req.Keywords) == 0 {
		return nil, BadRequest("keywords不能为空")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = constants.DefaultJobLimit
	}
	if limit > constants.MaxJobLimit {
		limit = constants.MaxJobLimit
	}

	criteria := types.JobSearchCriteria{
		Keywords: req.Keywords,
		Location: req.Location,
		Limit:    limit,
		Filters:  req.Filters,
		Platform: req.Platform,
	}
	result, err := h.searcher.Search(ctx, criteria)
	if err != nil {
		return nil, BadRequest(err.Error())
	}

	// 历史记录尽力而为，失败不影响搜索结果
	history := &models.JobSearchHistory{
		UserID:       userID,
		CriteriaJSON: models.ToJSON(criteria),
		ResultCount:  len(result.Postings),
		FromCache:    result.FromCache,
	}
	if err := h.history.CreateJobSearchHistory(ctx, history); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("记录搜索历史失败")
	}

	return result, nil
}

// GetJob 职位详情
// 职位没有独立存储，通过重放搜索条件在缓存结果中定位
func (h *JobHandler) GetJob(ctx context.Context, jobID string, keywords []string, location string) (*types.JobPosting, error) {
	if jobID == "" {
		return nil, BadRequest("job_id不能为空")
	}
	if len(keywords) == 0 {
		return nil, BadRequest("必须提供keywords定位搜索结果")
	}

	result, err := h.searcher.Search(ctx, types.JobSearchCriteria{
		Keywords: keywords,
		Location: location,
		Limit:    constants.MaxJobLimit,
	})
	if err != nil {
		return nil, Internal("职位搜索失败", err)
	}

	for i := range result.Postings {
		if result.Postings[i].ID == jobID {
			return &result.Postings[i], nil
		}
	}
	return nil, NotFound("未找到指定职位")
}
