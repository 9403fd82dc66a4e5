package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"

	"resume-agent-go/internal/config"
	"resume-agent-go/internal/logger"
)

// MinIO 对象存储，原始简历和解析文本分桶存放
type MinIO struct {
	client        *minio.Client
	resumesBucket string
	parsedBucket  string
	cfg           *config.MinIOConfig
}

// NewMinIO 创建MinIO客户端并确保桶存在
func NewMinIO(cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{
		client:        client,
		resumesBucket: cfg.ResumesBucket,
		parsedBucket:  cfg.ParsedTextBucket,
		cfg:           cfg,
	}

	for _, bucket := range []string{cfg.ResumesBucket, cfg.ParsedTextBucket} {
		if bucket == "" {
			continue
		}
		if err := m.ensureBucketExists(bucket, cfg.Location); err != nil {
			return nil, err
		}
	}

	if err := m.setupLifecycleRules(context.Background()); err != nil {
		logger.Warn().Err(err).Msg("设置对象生命周期规则失败")
	}

	return m, nil
}

// ensureBucketExists 检查桶是否存在，不存在则创建
func (m *MinIO) ensureBucketExists(bucketName, location string) error {
	ctx := context.Background()
	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查桶 %s 失败: %w", bucketName, err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
			return fmt.Errorf("创建桶 %s 失败: %w", bucketName, err)
		}
	}
	return nil
}

// setupLifecycleRules 按配置为两个桶设置对象过期规则，0表示不过期
func (m *MinIO) setupLifecycleRules(ctx context.Context) error {
	if m.cfg.ResumeFileExpireDays > 0 && m.resumesBucket != "" {
		if err := m.setupBucketLifecycle(ctx, m.resumesBucket, "expire-resume-files", m.cfg.ResumeFileExpireDays); err != nil {
			return err
		}
	}
	if m.cfg.ParsedTextExpireDays > 0 && m.parsedBucket != "" {
		if err := m.setupBucketLifecycle(ctx, m.parsedBucket, "expire-parsed-text", m.cfg.ParsedTextExpireDays); err != nil {
			return err
		}
	}
	return nil
}

func (m *MinIO) setupBucketLifecycle(ctx context.Context, bucketName, ruleID string, expiryDays int) error {
	lc := lifecycle.NewConfiguration()
	lc.Rules = []lifecycle.Rule{
		{
			ID:     ruleID,
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}
	if err := m.client.SetBucketLifecycle(ctx, bucketName, lc); err != nil {
		return fmt.Errorf("设置桶 %s 生命周期失败: %w", bucketName, err)
	}
	return nil
}

// UploadResumeFile 上传原始简历文件，对象键为 {resumeID}{ext}
func (m *MinIO) UploadResumeFile(ctx context.Context, resumeID, fileExt string, reader io.Reader, fileSize int64, contentType string) (string, error) {
	if m.resumesBucket == "" {
		return "", fmt.Errorf("未配置简历存储桶")
	}
	if !strings.HasPrefix(fileExt, ".") && fileExt != "" {
		fileExt = "." + fileExt
	}
	objectName := resumeID + fileExt

	_, err := m.client.PutObject(ctx, m.resumesBucket, objectName, reader, fileSize,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("上传简历文件失败: %w", err)
	}
	return objectName, nil
}

// UploadParsedText 上传解析后的纯文本
func (m *MinIO) UploadParsedText(ctx context.Context, resumeID string, text string) (string, error) {
	if m.parsedBucket == "" {
		return "", fmt.Errorf("未配置解析文本存储桶")
	}
	objectName := resumeID + ".txt"
	_, err := m.client.PutObject(ctx, m.parsedBucket, objectName,
		strings.NewReader(text), int64(len(text)),
		minio.PutObjectOptions{ContentType: "text/plain"})
	if err != nil {
		return "", fmt.Errorf("上传解析文本失败: %w", err)
	}
	return objectName, nil
}

// GetResumeFile 下载原始简历文件
func (m *MinIO) GetResumeFile(ctx context.Context, objectKey string) ([]byte, error) {
	return m.downloadObject(ctx, m.resumesBucket, objectKey)
}

// GetParsedText 下载解析文本
func (m *MinIO) GetParsedText(ctx context.Context, objectKey string) (string, error) {
	data, err := m.downloadObject(ctx, m.parsedBucket, objectKey)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (m *MinIO) downloadObject(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("获取对象 %s/%s 失败: %w", bucketName, objectName, err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, obj); err != nil {
		return nil, fmt.Errorf("读取对象 %s/%s 失败: %w", bucketName, objectName, err)
	}
	return buf.Bytes(), nil
}

// GetPresignedResumeURL 生成原始简历的预签名下载链接
func (m *MinIO) GetPresignedResumeURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.resumesBucket, objectKey, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("生成预签名URL失败: %w", err)
	}
	return u.String(), nil
}

// DeleteResumeObjects 删除简历关联的全部对象，缺失的对象忽略
func (m *MinIO) DeleteResumeObjects(ctx context.Context, originalKey, parsedKey string) error {
	var firstErr error
	if originalKey != "" {
		if err := m.client.RemoveObject(ctx, m.resumesBucket, originalKey, minio.RemoveObjectOptions{}); err != nil {
			firstErr = fmt.Errorf("删除原始文件失败: %w", err)
		}
	}
	if parsedKey != "" {
		if err := m.client.RemoveObject(ctx, m.parsedBucket, parsedKey, minio.RemoveObjectOptions{}); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("删除解析文本失败: %w", err)
		}
	}
	return firstErr
}

// FileExt 从文件名提取扩展名，无扩展名时返回空串
func FileExt(filename string) string {
	return path.Ext(filename)
}
