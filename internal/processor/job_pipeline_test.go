package processor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-agent-go/internal/llm"
	"resume-agent-go/internal/types"
)

// fakeSearcher 记录搜索条件并返回固定职位列表
type fakeSearcher struct {
	mu       sync.Mutex
	criteria types.JobSearchCriteria
	postings []types.JobPosting
	err      error
}

func (f *fakeSearcher) Search(ctx context.Context, criteria types.JobSearchCriteria) (*types.JobSearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.criteria = criteria
	if f.err != nil {
		return nil, f.err
	}
	return &types.JobSearchResult{Postings: f.postings, FetchedAt: time.Now()}, nil
}

func pipelineJobs() []types.JobPosting {
	return []types.JobPosting{
		{ID: "j1", Title: "Go后端工程师", CompanyName: "A公司"},
		{ID: "j2", Title: "Java工程师", CompanyName: "B公司"},
		{ID: "j3", Title: "平台架构师", CompanyName: "C公司"},
	}
}

func pipelineRoutes() map[string]string {
	return map[string]string{
		"职位搜索的关键词":  `{"keywords": ["Go", "MySQL", "后端开发"]}`,
		"scores数组": `{"scores": [90, 30, 60]}`,
	}
}

func TestMatchJobs_ScoresSortedDescending(t *testing.T) {
	searcher := &fakeSearcher{postings: pipelineJobs()}
	pipeline, err := NewJobMatchPipeline(&routingModel{routes: pipelineRoutes()}, searcher)
	require.NoError(t, err)

	scored, err := pipeline.MatchJobs(context.Background(), testResume(), []string{"Golang"}, "北京", 10)
	require.NoError(t, err)
	require.Len(t, scored, 3)

	assert.Equal(t, "j1", scored[0].ID)
	assert.InDelta(t, 0.9, scored[0].MatchScore, 1e-9)
	assert.Equal(t, "j3", scored[1].ID)
	assert.Equal(t, "j2", scored[2].ID)

	// 用户关键词排在模型提取的关键词之前
	assert.Equal(t, "Golang", searcher.criteria.Keywords[0])
	assert.Contains(t, searcher.criteria.Keywords, "MySQL")
	assert.Equal(t, "北京", searcher.criteria.Location)
}

func TestMatchJobs_TruncatesToLimit(t *testing.T) {
	searcher := &fakeSearcher{postings: pipelineJobs()}
	pipeline, err := NewJobMatchPipeline(&routingModel{routes: pipelineRoutes()}, searcher)
	require.NoError(t, err)

	scored, err := pipeline.MatchJobs(context.Background(), testResume(), []string{"Go"}, "", 1)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, "j1", scored[0].ID)
}

func TestMatchJobs_ScoringFailureFallsBackToDefault(t *testing.T) {
	// 关键词提取成功，打分提示词未配置路由则返回错误
	routes := map[string]string{"职位搜索的关键词": `{"keywords": ["Go"]}`}
	searcher := &fakeSearcher{postings: pipelineJobs()}
	pipeline, err := NewJobMatchPipeline(&routingModel{routes: routes}, searcher)
	require.NoError(t, err)

	scored, err := pipeline.MatchJobs(context.Background(), testResume(), nil, "", 10)
	require.NoError(t, err)
	require.Len(t, scored, 3)
	for _, s := range scored {
		assert.InDelta(t, 0.5, s.MatchScore, 1e-9)
	}
}

func TestMatchJobs_ScoreCountMismatchKeepsDefaults(t *testing.T) {
	routes := map[string]string{
		"职位搜索的关键词":  `{"keywords": ["Go"]}`,
		"scores数组": `{"scores": [80]}`, // 只给了第一个职位的分
	}
	searcher := &fakeSearcher{postings: pipelineJobs()}
	pipeline, err := NewJobMatchPipeline(&routingModel{routes: routes}, searcher)
	require.NoError(t, err)

	scored, err := pipeline.MatchJobs(context.Background(), testResume(), nil, "", 10)
	require.NoError(t, err)
	require.Len(t, scored, 3)
	assert.InDelta(t, 0.8, scored[0].MatchScore, 1e-9)
	assert.InDelta(t, 0.5, scored[1].MatchScore, 1e-9)
	assert.InDelta(t, 0.5, scored[2].MatchScore, 1e-9)
}

func TestMatchJobs_KeywordExtractionFailureUsesUserKeywords(t *testing.T) {
	routes := map[string]string{"scores数组": `{"scores": [70, 70, 70]}`}
	searcher := &fakeSearcher{postings: pipelineJobs()}
	pipeline, err := NewJobMatchPipeline(&routingModel{routes: routes, errOn: "职位搜索的关键词"}, searcher)
	require.NoError(t, err)

	scored, err := pipeline.MatchJobs(context.Background(), testResume(), []string{"Go", "分布式"}, "", 10)
	require.NoError(t, err)
	assert.Len(t, scored, 3)
	assert.Equal(t, []string{"Go", "分布式"}, searcher.criteria.Keywords)
}

func TestMatchJobs_NoKeywordsAtAllRejected(t *testing.T) {
	searcher := &fakeSearcher{postings: pipelineJobs()}
	pipeline, err := NewJobMatchPipeline(&routingModel{routes: map[string]string{}, errOn: "职位搜索的关键词"}, searcher)
	require.NoError(t, err)

	_, err = pipeline.MatchJobs(context.Background(), testResume(), nil, "", 10)
	assert.Error(t, err)
}

func TestMatchJobs_SearchErrorPropagated(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("抓取通道不可用")}
	pipeline, err := NewJobMatchPipeline(&routingModel{routes: pipelineRoutes()}, searcher)
	require.NoError(t, err)

	_, err = pipeline.MatchJobs(context.Background(), testResume(), []string{"Go"}, "", 10)
	assert.Error(t, err)
}

func TestExtractKeywords_ReturnsModelKeywords(t *testing.T) {
	mock := llm.NewMockChatClient(`{"keywords": ["Go", "Kubernetes"]}`, nil)
	pipeline, err := NewJobMatchPipeline(mock, &fakeSearcher{})
	require.NoError(t, err)

	keywords, err := pipeline.ExtractKeywords(context.Background(), testResume())
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Kubernetes"}, keywords)
}

func TestMergeKeywords_DeduplicatesCaseInsensitive(t *testing.T) {
	merged := mergeKeywords([]string{"Go", "MySQL"}, []string{"go", " Redis ", ""})
	assert.Equal(t, []string{"Go", "MySQL", "Redis"}, merged)
}
