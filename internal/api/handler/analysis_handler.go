package handler

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"resume-agent-go/internal/constants"
	"resume-agent-go/internal/logger"
	"resume-agent-go/internal/processor"
	"resume-agent-go/internal/storage/models"
	"resume-agent-go/internal/types"
)

// AnalysisStore 分析产物的持久化操作
type AnalysisStore interface {
	CreateResumeAnalysis(ctx context.Context, analysis *models.ResumeAnalysis) error
	GetLatestAnalysisByResume(ctx context.Context, resumeID string) (*models.ResumeAnalysis, error)
	CreateOptimizedResume(ctx context.Context, optimized *models.OptimizedResume) error
	CreateCoverLetter(ctx context.Context, letter *models.CoverLetter) error
}

// AnalysisHandler 简历分析、职位匹配、优化与求职信
type AnalysisHandler struct {
	resumes   ResumeStore
	analyses  AnalysisStore
	analyzer  processor.ResumeAnalyzer
	matcher   processor.JobMatcher
	optimizer processor.ResumeOptimizer
	pipeline  *processor.JobMatchPipeline
	searcher  processor.JobSearcher
}

// NewAnalysisHandler 创建分析处理器
func NewAnalysisHandler(
	resumes ResumeStore,
	analyses AnalysisStore,
	analyzer processor.ResumeAnalyzer,
	matcher processor.JobMatcher,
	optimizer processor.ResumeOptimizer,
	pipeline *processor.JobMatchPipeline,
	searcher processor.JobSearcher,
) *AnalysisHandler {
	return &AnalysisHandler{
		resumes:   resumes,
		analyses:  analyses,
		analyzer:  analyzer,
		matcher:   matcher,
		optimizer: optimizer,
		pipeline:  pipeline,
		searcher:  searcher,
	}
}

// AnalyzeRequest 分析请求体
type AnalyzeRequest struct {
	TargetRole string `json:"target_role"`
}

// AnalysisRecord 分析结果及其元信息
type AnalysisRecord struct {
	AnalysisID string                `json:"analysis_id"`
	ResumeID   string                `json:"resume_id"`
	CreatedAt  time.Time             `json:"created_at"`
	Analysis   *types.ResumeAnalysis `json:"analysis"`
}

// MatchRequest 职位匹配请求体
// 三种给定目标职位的方式：完整描述、显式职位对象、或job_id+搜索条件
type MatchRequest struct {
	JobDescription string            `json:"job_description,omitempty"`
	Job            *types.JobPosting `json:"job,omitempty"`
	JobID          string            `json:"job_id,omitempty"`
	Keywords       []string          `json:"keywords,omitempty"`
	Location       string            `json:"location,omitempty"`
}

// OptimizeRequest 优化请求体
type OptimizeRequest struct {
	TargetJob string `json:"target_job,omitempty"`
}

// OptimizeResponse 优化结果
type OptimizeResponse struct {
	OptimizedID     string `json:"optimized_id"`
	OptimizedText   string `json:"optimized_text"`
	AnalysisSummary string `json:"analysis_summary,omitempty"`
	TargetJob       string `json:"target_job,omitempty"`
}

// CoverLetterRequest 求职信请求体
type CoverLetterRequest struct {
	JobTitle       string `json:"job_title"`
	CompanyName    string `json:"company_name,omitempty"`
	JobDescription string `json:"job_description,omitempty"`
	Tone           string `json:"tone,omitempty"`
}

// CoverLetterResponse 求职信结果
type CoverLetterResponse struct {
	LetterID    string `json:"letter_id"`
	JobTitle    string `json:"job_title"`
	CompanyName string `json:"company_name,omitempty"`
	Content     string `json:"content"`
}

// MatchJobsRequest 职位推荐流水线请求体
type MatchJobsRequest struct {
	Keywords []string `json:"keywords,omitempty"`
	Location string   `json:"location,omitempty"`
	Limit    int      `json:"limit,omitempty"`
}

// Analyze 对已解析的简历做四路质量分析并持久化结果
func (h *AnalysisHandler) Analyze(ctx context.Context, userID, resumeID string, req AnalyzeRequest) (*AnalysisRecord, error) {
	_, resumeData, err := h.parsedResume(ctx, userID, resumeID)
	if err != nil {
		return nil, err
	}

	analysis, err := h.analyzer.Analyze(ctx, resumeData, req.TargetRole)
	if err != nil {
		return nil, Internal("简历分析失败", err)
	}

	analysisUUID, err := uuid.NewV7()
	if err != nil {
		return nil, Internal("生成分析ID失败", err)
	}
	record := &models.ResumeAnalysis{
		AnalysisID:   analysisUUID.String(),
		ResumeID:     resumeID,
		OverallScore: analysis.OverallScore,
		ResultJSON:   models.ToJSON(analysis),
	}
	if err := h.analyses.CreateResumeAnalysis(ctx, record); err != nil {
		return nil, Internal("保存分析结果失败", err)
	}

	return &AnalysisRecord{
		AnalysisID: record.AnalysisID,
		ResumeID:   resumeID,
		CreatedAt:  record.CreatedAt,
		Analysis:   analysis,
	}, nil
}

// GetAnalysis 返回简历最近一次分析结果
func (h *AnalysisHandler) GetAnalysis(ctx context.Context, userID, resumeID string) (*AnalysisRecord, error) {
	if _, err := h.ownedResumeRecord(ctx, userID, resumeID); err != nil {
		return nil, err
	}

	record, err := h.analyses.GetLatestAnalysisByResume(ctx, resumeID)
	if err != nil {
		return nil, Internal("查询分析结果失败", err)
	}
	if record == nil {
		return nil, NotFound("该简历尚无分析结果")
	}

	var analysis types.ResumeAnalysis
	if err := json.Unmarshal(record.ResultJSON, &analysis); err != nil {
		return nil, Internal("分析结果反序列化失败", err)
	}

	return &AnalysisRecord{
		AnalysisID: record.AnalysisID,
		ResumeID:   resumeID,
		CreatedAt:  record.CreatedAt,
		Analysis:   &analysis,
	}, nil
}

// Match 评估简历与单个目标职位的匹配度
func (h *AnalysisHandler) Match(ctx context.Context, userID, resumeID string, req MatchRequest) (*types.JobMatchResult, error) {
	_, resumeData, err := h.parsedResume(ctx, userID, resumeID)
	if err != nil {
		return nil, err
	}

	job, err := h.resolveTargetJob(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := h.matcher.MatchJobs(ctx, resumeData, []types.JobPosting{*job})
	if err != nil {
		return nil, Internal("职位匹配失败", err)
	}
	return result, nil
}

// Optimize 基于最近的分析结论重写简历
// 没有分析记录时直接按通用最佳实践优化
func (h *AnalysisHandler) Optimize(ctx context.Context, userID, resumeID string, req OptimizeRequest) (*OptimizeResponse, error) {
	_, resumeData, err := h.parsedResume(ctx, userID, resumeID)
	if err != nil {
		return nil, err
	}

	var analysis *types.ResumeAnalysis
	if record, err := h.analyses.GetLatestAnalysisByResume(ctx, resumeID); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("resume_id", resumeID).Msg("查询分析结果失败，按无分析结论优化")
	} else if record != nil {
		var parsed types.ResumeAnalysis
		if err := json.Unmarshal(record.ResultJSON, &parsed); err == nil {
			analysis = &parsed
		}
	}

	optimized, err := h.optimizer.Optimize(ctx, resumeData, analysis, req.TargetJob)
	if err != nil {
		return nil, Internal("简历优化失败", err)
	}

	optimizedUUID, err := uuid.NewV7()
	if err != nil {
		return nil, Internal("生成优化记录ID失败", err)
	}
	record := &models.OptimizedResume{
		OptimizedID:     optimizedUUID.String(),
		ResumeID:        resumeID,
		OptimizedText:   optimized.OptimizedText,
		AnalysisSummary: optimized.AnalysisSummary,
		TargetJob:       optimized.TargetJob,
	}
	if err := h.analyses.CreateOptimizedResume(ctx, record); err != nil {
		return nil, Internal("保存优化结果失败", err)
	}

	return &OptimizeResponse{
		OptimizedID:     record.OptimizedID,
		OptimizedText:   record.OptimizedText,
		AnalysisSummary: record.AnalysisSummary,
		TargetJob:       record.TargetJob,
	}, nil
}

// CoverLetter 为指定职位生成求职信
func (h *AnalysisHandler) CoverLetter(ctx context.Context, userID, resumeID string, req CoverLetterRequest) (*CoverLetterResponse, error) {
	if strings.TrimSpace(req.JobTitle) == "" {
		return nil, BadRequest("job_title不能为空")
	}

	_, resumeData, err := h.parsedResume(ctx, userID, resumeID)
	if err != nil {
		return nil, err
	}

	job := &types.JobPosting{
		Title:       strings.TrimSpace(req.JobTitle),
		CompanyName: strings.TrimSpace(req.CompanyName),
		Description: req.JobDescription,
	}
	letter, err := h.optimizer.GenerateCoverLetter(ctx, resumeData, job, req.Tone)
	if err != nil {
		return nil, Internal("求职信生成失败", err)
	}

	letterUUID, err := uuid.NewV7()
	if err != nil {
		return nil, Internal("生成求职信ID失败", err)
	}
	record := &models.CoverLetter{
		LetterID:    letterUUID.String(),
		ResumeID:    resumeID,
		JobTitle:    letter.JobTitle,
		CompanyName: letter.CompanyName,
		Content:     letter.Content,
	}
	if err := h.analyses.CreateCoverLetter(ctx, record); err != nil {
		return nil, Internal("保存求职信失败", err)
	}

	return &CoverLetterResponse{
		LetterID:    record.LetterID,
		JobTitle:    record.JobTitle,
		CompanyName: record.CompanyName,
		Content:     record.Content,
	}, nil
}

// MatchJobs 端到端职位推荐：提取关键词、搜索、批量打分排序
func (h *AnalysisHandler) MatchJobs(ctx context.Context, userID, resumeID string, req MatchJobsRequest) ([]types.ScoredJobPosting, error) {
	_, resumeData, err := h.parsedResume(ctx, userID, resumeID)
	if err != nil {
		return nil, err
	}

	scored, err := h.pipeline.MatchJobs(ctx, resumeData, req.Keywords, req.Location, req.Limit)
	if err != nil {
		return nil, Internal("职位推荐失败", err)
	}
	return scored, nil
}

// parsedResume 读取简历并要求其已完成解析
func (h *AnalysisHandler) parsedResume(ctx context.Context, userID, resumeID string) (*models.Resume, *types.ResumeData, error) {
	resume, err := h.ownedResumeRecord(ctx, userID, resumeID)
	if err != nil {
		return nil, nil, err
	}

	switch resume.ProcessingStatus {
	case constants.ResumeStatusParsed:
	case constants.ResumeStatusPendingParsing:
		return nil, nil, Unprocessable("简历尚未完成解析，请稍后重试")
	case constants.ResumeStatusParseFailed:
		return nil, nil, Unprocessable("简历解析失败，无法分析")
	default:
		return nil, nil, Unprocessable("简历状态异常: " + resume.ProcessingStatus)
	}

	if len(resume.ParsedDataJSON) == 0 {
		return nil, nil, Unprocessable("简历缺少解析数据")
	}
	var data types.ResumeData
	if err := json.Unmarshal(resume.ParsedDataJSON, &data); err != nil {
		return nil, nil, Internal("解析数据反序列化失败", err)
	}
	if strings.TrimSpace(data.RawText) == "" {
		return nil, nil, Unprocessable("简历解析文本为空")
	}
	return resume, &data, nil
}

// ownedResumeRecord 读取简历并校验所有权
func (h *AnalysisHandler) ownedResumeRecord(ctx context.Context, userID, resumeID string) (*models.Resume, error) {
	resume, err := h.resumes.GetResumeByID(ctx, resumeID)
	if err != nil {
		return nil, Internal("查询简历失败", err)
	}
	if resume == nil {
		return nil, NotFound("简历不存在")
	}
	if resume.UserID != userID {
		return nil, Forbidden("无权访问该简历")
	}
	return resume, nil
}

// resolveTargetJob 把三种目标职位给定方式统一成一个JobPosting
func (h *AnalysisHandler) resolveTargetJob(ctx context.Context, req MatchRequest) (*types.JobPosting, error) {
	switch {
	case req.Job != nil:
		if req.Job.Title == "" {
			return nil, BadRequest("job.title不能为空")
		}
		return req.Job, nil

	case strings.TrimSpace(req.JobDescription) != "":
		return &types.JobPosting{
			Title:       "目标职位",
			Description: req.JobDescription,
		}, nil

	case req.JobID != "":
		if len(req.Keywords) == 0 {
			return nil, BadRequest("使用job_id时必须提供keywords定位搜索结果")
		}
		result, err := h.searcher.Search(ctx, types.JobSearchCriteria{
			Keywords: req.Keywords,
			Location: req.Location,
			Limit:    constants.MaxJobLimit,
		})
		if err != nil {
			return nil, Internal("职位搜索失败", err)
		}
		for i := range result.Postings {
			if result.Postings[i].ID == req.JobID {
				return &result.Postings[i], nil
			}
		}
		return nil, NotFound("未找到指定职位")

	default:
		return nil, BadRequest("必须提供job_description、job或job_id之一")
	}
}
