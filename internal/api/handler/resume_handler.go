package handler

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"resume-agent-go/internal/config"
	"resume-agent-go/internal/constants"
	"resume-agent-go/internal/logger"
	"resume-agent-go/internal/storage"
	"resume-agent-go/internal/storage/models"
)

// presignedURLExpiry 下载链接的有效期
const presignedURLExpiry = 15 * time.Minute

// ResumeStore 简历记录的持久化操作
type ResumeStore interface {
	CreateResume(ctx context.Context, resume *models.Resume) error
	GetResumeByID(ctx context.Context, resumeID string) (*models.Resume, error)
	ListResumesByUser(ctx context.Context, userID string, page, limit int) ([]models.Resume, int64, error)
	UpdateResumeFields(ctx context.Context, resumeID string, updates map[string]interface{}) error
	DeleteResume(ctx context.Context, resumeID string) error
}

// ResumeObjectStore 简历文件的对象存储操作
type ResumeObjectStore interface {
	UploadResumeFile(ctx context.Context, resumeID, fileExt string, reader io.Reader, fileSize int64, contentType string) (string, error)
	GetPresignedResumeURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
	DeleteResumeObjects(ctx context.Context, originalKey, parsedKey string) error
}

// UploadEventPublisher 上传事件发布
type UploadEventPublisher interface {
	PublishResumeUploaded(ctx context.Context, msg *storage.ResumeUploadedMessage) error
}

// ResumeHandler 简历上传与管理
type ResumeHandler struct {
	cfg     *config.Config
	resumes ResumeStore
	objects ResumeObjectStore
	events  UploadEventPublisher
}

// NewResumeHandler 创建简历处理器
func NewResumeHandler(cfg *config.Config, resumes ResumeStore, objects ResumeObjectStore, events UploadEventPublisher) *ResumeHandler {
	return &ResumeHandler{cfg: cfg, resumes: resumes, objects: objects, events: events}
}

// ResumeUploadResponse 上传响应
type ResumeUploadResponse struct {
	ResumeID string `json:"resume_id"`
	Status   string `json:"status"`
}

// ResumeInfo 列表项
type ResumeInfo struct {
	ResumeID         string    `json:"resume_id"`
	OriginalFilename string    `json:"original_filename"`
	ContentType      string    `json:"content_type"`
	FileSizeBytes    int64     `json:"file_size_bytes"`
	ProcessingStatus string    `json:"processing_status"`
	CreatedAt        time.Time `json:"created_at"`
}

// ResumeDetail 详情，含结构化解析结果
type ResumeDetail struct {
	ResumeInfo
	ParserVersion string          `json:"parser_version,omitempty"`
	ParsedData    json.RawMessage `json:"parsed_data,omitempty"`
	ParseMeta     json.RawMessage `json:"parse_meta,omitempty"`
}

// DownloadResponse 预签名下载链接
type DownloadResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UpdateResumeRequest 可更新的简历元数据
type UpdateResumeRequest struct {
	OriginalFilename string `json:"original_filename"`
}

// Upload 接收简历文件：写对象存储、建库表记录、发解析事件
// 解析本身由异步worker完成，接口立即返回PENDING_PARSING
func (h *ResumeHandler) Upload(ctx context.Context, userID string, reader io.Reader, fileSize int64, filename, contentType string) (*ResumeUploadResponse, error) {
	if fileSize <= 0 {
		return nil, BadRequest("文件为空")
	}
	if fileSize > h.cfg.MaxUploadBytes() {
		return nil, BadRequest("文件超过大小限制")
	}
	if !h.allowedType(contentType) {
		return nil, Unprocessable("不支持的文件类型: " + contentType)
	}

	resumeUUID, err := uuid.NewV7()
	if err != nil {
		return nil, Internal("生成简历ID失败", err)
	}
	resumeID := resumeUUID.String()

	objectKey, err := h.objects.UploadResumeFile(ctx, resumeID, storage.FileExt(filename), reader, fileSize, contentType)
	if err != nil {
		return nil, Internal("保存简历文件失败", err)
	}

	resume := &models.Resume{
		ResumeID:         resumeID,
		UserID:           userID,
		OriginalFilename: filename,
		ContentType:      contentType,
		FileSizeBytes:    fileSize,
		OriginalFileOSS:  objectKey,
		ProcessingStatus: constants.ResumeStatusPendingParsing,
	}
	if err := h.resumes.CreateResume(ctx, resume); err != nil {
		return nil, Internal("创建简历记录失败", err)
	}

	msg := &storage.ResumeUploadedMessage{
		ResumeID:    resumeID,
		UserID:      userID,
		ObjectKey:   objectKey,
		ContentType: contentType,
		Filename:    filename,
		UploadedAt:  time.Now().Unix(),
	}
	if err := h.events.PublishResumeUploaded(ctx, msg); err != nil {
		// 记录已落库，解析事件丢失时标记失败，避免永久停留在待解析
		logger.Ctx(ctx).Error().Err(err).Str("resume_id", resumeID).Msg("发布简历上传事件失败")
		if dbErr := h.resumes.UpdateResumeFields(ctx, resumeID, map[string]interface{}{
			"processing_status": constants.ResumeStatusParseFailed,
		}); dbErr != nil {
			logger.Ctx(ctx).Error().Err(dbErr).Str("resume_id", resumeID).Msg("回写解析失败状态失败")
		}
		return nil, Internal("简历已保存但解析任务投递失败", err)
	}

	logger.Ctx(ctx).Info().
		Str("resume_id", resumeID).
		Str("filename", filename).
		Int64("size", fileSize).
		Msg("简历上传完成，已进入解析队列")

	return &ResumeUploadResponse{
		ResumeID: resumeID,
		Status:   constants.ResumeStatusPendingParsing,
	}, nil
}

// List 分页列出用户简历
func (h *ResumeHandler) List(ctx context.Context, userID string, page, limit int) (*PageData, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	resumes, total, err := h.resumes.ListResumesByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, Internal("查询简历列表失败", err)
	}

	items := make([]ResumeInfo, len(resumes))
	for i := range resumes {
		items[i] = toResumeInfo(&resumes[i])
	}
	return NewPageData(items, page, limit, total), nil
}

// Get 简历详情，非所有者返回403
func (h *ResumeHandler) Get(ctx context.Context, userID, resumeID string) (*ResumeDetail, error) {
	resume, err := h.ownedResume(ctx, userID, resumeID)
	if err != nil {
		return nil, err
	}

	detail := &ResumeDetail{
		ResumeInfo:    toResumeInfo(resume),
		ParserVersion: resume.ParserVersion,
	}
	if len(resume.ParsedDataJSON) > 0 {
		detail.ParsedData = json.RawMessage(resume.ParsedDataJSON)
	}
	if len(resume.ParseMetaJSON) > 0 {
		detail.ParseMeta = json.RawMessage(resume.ParseMetaJSON)
	}
	return detail, nil
}

// Update 更新简历元数据，目前仅支持重命名
func (h *ResumeHandler) Update(ctx context.Context, userID, resumeID string, req UpdateResumeRequest) (*ResumeInfo, error) {
	resume, err := h.ownedResume(ctx, userID, resumeID)
	if err != nil {
		return nil, err
	}

	filename := strings.TrimSpace(req.OriginalFilename)
	if filename == "" {
		return nil, BadRequest("文件名不能为空")
	}

	if err := h.resumes.UpdateResumeFields(ctx, resumeID, map[string]interface{}{
		"original_filename": filename,
	}); err != nil {
		return nil, Internal("更新简历失败", err)
	}

	resume.OriginalFilename = filename
	info := toResumeInfo(resume)
	return &info, nil
}

// Delete 删除简历记录及其对象存储文件
// 对象删除失败不阻断记录删除，孤儿对象由桶生命周期兜底
func (h *ResumeHandler) Delete(ctx context.Context, userID, resumeID string) error {
	resume, err := h.ownedResume(ctx, userID, resumeID)
	if err != nil {
		return err
	}

	if err := h.objects.DeleteResumeObjects(ctx, resume.OriginalFileOSS, resume.ParsedTextOSS); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("resume_id", resumeID).Msg("删除简历对象失败")
	}

	if err := h.resumes.DeleteResume(ctx, resumeID); err != nil {
		return Internal("删除简历记录失败", err)
	}
	return nil
}

// Download 生成原始文件的预签名下载链接
func (h *ResumeHandler) Download(ctx context.Context, userID, resumeID string) (*DownloadResponse, error) {
	resume, err := h.ownedResume(ctx, userID, resumeID)
	if err != nil {
		return nil, err
	}
	if resume.OriginalFileOSS == "" {
		return nil, NotFound("原始文件不存在")
	}

	url, err := h.objects.GetPresignedResumeURL(ctx, resume.OriginalFileOSS, presignedURLExpiry)
	if err != nil {
		return nil, Internal("生成下载链接失败", err)
	}
	return &DownloadResponse{URL: url, ExpiresAt: time.Now().Add(presignedURLExpiry)}, nil
}

// ownedResume 读取简历并校验所有权
func (h *ResumeHandler) ownedResume(ctx context.Context, userID, resumeID string) (*models.Resume, error) {
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

func (h *ResumeHandler) allowedType(contentType string) bool {
	mime := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	for _, allowed := range h.cfg.Upload.AllowedTypes {
		if mime == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

func toResumeInfo(resume *models.Resume) ResumeInfo {
	return ResumeInfo{
		ResumeID:         resume.ResumeID,
		OriginalFilename: resume.OriginalFilename,
		ContentType:      resume.ContentType,
		FileSizeBytes:    resume.FileSizeBytes,
		ProcessingStatus: resume.ProcessingStatus,
		CreatedAt:        resume.CreatedAt,
	}
}
