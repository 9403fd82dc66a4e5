package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"resume-agent-go/internal/config"
	"resume-agent-go/internal/storage"
	"resume-agent-go/internal/storage/models"
	"resume-agent-go/internal/types"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:      "test_jwt_secret",
			ExpireHours: 24,
			Issuer:      "resume-agent",
		},
		Upload: config.UploadConfig{
			MaxSizeMB: 1,
			AllowedTypes: []string{
				"application/pdf",
				"text/plain",
			},
		},
	}
}

// requireAPIStatus 断言错误带有预期的HTTP状态码
func requireAPIStatus(t *testing.T, err error, status int) {
	t.Helper()
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.Status)
}

type fakeUserStore struct {
	users     map[string]*models.User // email -> user
	createErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (f *fakeUserStore) CreateUser(ctx context.Context, user *models.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	user.CreatedAt = time.Now()
	f.users[user.Email] = user
	return nil
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.users[email], nil
}

func (f *fakeUserStore) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	for _, u := range f.users {
		if u.UserID == userID {
			return u, nil
		}
	}
	return nil, nil
}

type fakeResumeStore struct {
	resumes   map[string]*models.Resume
	updates   []map[string]interface{}
	deleted   []string
	createErr error
}

func newFakeResumeStore() *fakeResumeStore {
	return &fakeResumeStore{resumes: make(map[string]*models.Resume)}
}

func (f *fakeResumeStore) CreateResume(ctx context.Context, resume *models.Resume) error {
	if f.createErr != nil {
		return f.createErr
	}
	resume.CreatedAt = time.Now()
	f.resumes[resume.ResumeID] = resume
	return nil
}

func (f *fakeResumeStore) GetResumeByID(ctx context.Context, resumeID string) (*models.Resume, error) {
	return f.resumes[resumeID], nil
}

func (f *fakeResumeStore) ListResumesByUser(ctx context.Context, userID string, page, limit int) ([]models.Resume, int64, error) {
	var all []models.Resume
	for _, r := range f.resumes {
		if r.UserID == userID {
			all = append(all, *r)
		}
	}
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (f *fakeResumeStore) UpdateResumeFields(ctx context.Context, resumeID string, updates map[string]interface{}) error {
	f.updates = append(f.updates, updates)
	if r, ok := f.resumes[resumeID]; ok {
		if v, ok := updates["original_filename"].(string); ok {
			r.OriginalFilename = v
		}
		if v, ok := updates["processing_status"].(string); ok {
			r.ProcessingStatus = v
		}
	}
	return nil
}

func (f *fakeResumeStore) DeleteResume(ctx context.Context, resumeID string) error {
	f.deleted = append(f.deleted, resumeID)
	delete(f.resumes, resumeID)
	return nil
}

type fakeObjectStore struct {
	uploaded   map[string][]byte // objectKey -> content
	deletions  [][2]string
	uploadErr  error
	deleteErr  error
	presignErr error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{uploaded: make(map[string][]byte)}
}

func (f *fakeObjectStore) UploadResumeFile(ctx context.Context, resumeID, fileExt string, reader io.Reader, fileSize int64, contentType string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	key := resumeID + fileExt
	f.uploaded[key] = data
	return key, nil
}

func (f *fakeObjectStore) GetPresignedResumeURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://minio.test/" + objectKey, nil
}

func (f *fakeObjectStore) DeleteResumeObjects(ctx context.Context, originalKey, parsedKey string) error {
	f.deletions = append(f.deletions, [2]string{originalKey, parsedKey})
	return f.deleteErr
}

type fakePublisher struct {
	messages []*storage.ResumeUploadedMessage
	err      error
}

func (f *fakePublisher) PublishResumeUploaded(ctx context.Context, msg *storage.ResumeUploadedMessage) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msg)
	return nil
}

type fakeAnalysisStore struct {
	analyses  map[string]*models.ResumeAnalysis // resumeID -> latest
	optimized []*models.OptimizedResume
	letters   []*models.CoverLetter
	createErr error
}

func newFakeAnalysisStore() *fakeAnalysisStore {
	return &fakeAnalysisStore{analyses: make(map[string]*models.ResumeAnalysis)}
}

func (f *fakeAnalysisStore) CreateResumeAnalysis(ctx context.Context, analysis *models.ResumeAnalysis) error {
	if f.createErr != nil {
		return f.createErr
	}
	analysis.CreatedAt = time.Now()
	f.analyses[analysis.ResumeID] = analysis
	return nil
}

func (f *fakeAnalysisStore) GetLatestAnalysisByResume(ctx context.Context, resumeID string) (*models.ResumeAnalysis, error) {
	return f.analyses[resumeID], nil
}

func (f *fakeAnalysisStore) CreateOptimizedResume(ctx context.Context, optimized *models.OptimizedResume) error {
	f.optimized = append(f.optimized, optimized)
	return nil
}

func (f *fakeAnalysisStore) CreateCoverLetter(ctx context.Context, letter *models.CoverLetter) error {
	f.letters = append(f.letters, letter)
	return nil
}

type fakeHistoryStore struct {
	histories []*models.JobSearchHistory
	err       error
}

func (f *fakeHistoryStore) CreateJobSearchHistory(ctx context.Context, history *models.JobSearchHistory) error {
	if f.err != nil {
		return f.err
	}
	f.histories = append(f.histories, history)
	return nil
}

type fakeJobSearcher struct {
	criteria types.JobSearchCriteria
	result   *types.JobSearchResult
	err      error
}

func (f *fakeJobSearcher) Search(ctx context.Context, criteria types.JobSearchCriteria) (*types.JobSearchResult, error) {
	f.criteria = criteria
	if f.err != nil {
		return nil, f.err
	}
	if f.result == nil {
		return &types.JobSearchResult{Postings: []types.JobPosting{}, FetchedAt: time.Now()}, nil
	}
	return f.result, nil
}

type stubAnalyzer struct {
	analysis *types.ResumeAnalysis
	err      error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, resume *types.ResumeData, targetRole string) (*types.ResumeAnalysis, error) {
	return s.analysis, s.err
}

type stubMatcher struct {
	jobs   []types.JobPosting
	result *types.JobMatchResult
	err    error
}

func (s *stubMatcher) MatchJobs(ctx context.Context, resume *types.ResumeData, jobs []types.JobPosting) (*types.JobMatchResult, error) {
	s.jobs = jobs
	return s.result, s.err
}

type stubOptimizer struct {
	seenAnalysis *types.ResumeAnalysis
	seenTone     string
	optimized    *types.OptimizedResume
	letter       *types.CoverLetter
	err          error
}

func (s *stubOptimizer) Optimize(ctx context.Context, resume *types.ResumeData, analysis *types.ResumeAnalysis, targetJob string) (*types.OptimizedResume, error) {
	s.seenAnalysis = analysis
	return s.optimized, s.err
}

func (s *stubOptimizer) GenerateCoverLetter(ctx context.Context, resume *types.ResumeData, job *types.JobPosting, tone string) (*types.CoverLetter, error) {
	s.seenTone = tone
	if s.err != nil {
		return nil, s.err
	}
	return &types.CoverLetter{
		Content:     s.letter.Content,
		JobTitle:    job.Title,
		CompanyName: job.CompanyName,
	}, nil
}

// parsedResumeRecord 构造一条已解析的简历记录
func parsedResumeRecord(resumeID, userID string) *models.Resume {
	data := types.NewResumeData("张三 后端工程师 go@example.com")
	data.Skills = []string{"Go", "MySQL"}
	payload, err := json.Marshal(data)
	if err != nil {
		panic(fmt.Sprintf("序列化测试简历失败: %v", err))
	}
	return &models.Resume{
		ResumeID:         resumeID,
		UserID:           userID,
		OriginalFilename: "resume.pdf",
		ContentType:      "application/pdf",
		ProcessingStatus: "PARSED",
		OriginalFileOSS:  resumeID + ".pdf",
		ParsedTextOSS:    resumeID + ".txt",
		ParsedDataJSON:   payload,
		CreatedAt:        time.Now(),
	}
}

var errBoom = errors.New("依赖故障")
