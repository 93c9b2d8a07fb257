package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"resume-matcher-go/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
)

// ObjectStorage 对象存储接口
type ObjectStorage interface {
	// UploadResumeFile 上传原始简历文件，返回对象键
	UploadResumeFile(ctx context.Context, runID, fileName string, data []byte) (string, error)

	// UploadArtifact 上传匹配产物(报表)，返回对象键
	UploadArtifact(ctx context.Context, runID, kind string, data []byte, contentType string) (string, error)

	// DownloadArtifact 下载匹配产物
	DownloadArtifact(ctx context.Context, objectKey string) ([]byte, error)

	// GetPresignedURL 获取预签名下载URL
	GetPresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)

	// DeleteObject 删除对象
	DeleteObject(ctx context.Context, objectKey string) error
}

// 确保MinIO实现了ObjectStorage接口
var _ ObjectStorage = (*MinIO)(nil)

// MinIO 提供对象存储功能
type MinIO struct {
	client          *minio.Client
	cfg             *config.MinIOConfig
	uploadsBucket   string
	artifactsBucket string
	logger          *log.Logger
}

// NewMinIO 创建MinIO客户端
func NewMinIO(cfg *config.MinIOConfig, logger *log.Logger) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	logger.Printf("[MinIO] Initializing client: endpoint=%s, uploadsBucket=%s, artifactsBucket=%s", cfg.Endpoint, cfg.UploadsBucket, cfg.ArtifactsBucket)

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		logger.Printf("[MinIO] Initialization failed: %v", err)
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	uploadsBucket := cfg.UploadsBucket
	if uploadsBucket == "" {
		uploadsBucket = "resume-uploads"
	}
	artifactsBucket := cfg.ArtifactsBucket
	if artifactsBucket == "" {
		artifactsBucket = "match-artifacts"
	}

	m := &MinIO{
		client:          client,
		cfg:             cfg,
		uploadsBucket:   uploadsBucket,
		artifactsBucket: artifactsBucket,
		logger:          logger,
	}

	if err := m.ensureBucketExists(uploadsBucket, cfg.Location); err != nil {
		logger.Printf("[MinIO] Failed to ensure uploads bucket %s exists: %v", uploadsBucket, err)
		return nil, fmt.Errorf("确保简历上传存储桶 %s 存在失败: %w", uploadsBucket, err)
	}
	if err := m.ensureBucketExists(artifactsBucket, cfg.Location); err != nil {
		logger.Printf("[MinIO] Failed to ensure artifacts bucket %s exists: %v", artifactsBucket, err)
		return nil, fmt.Errorf("确保报表存储桶 %s 存在失败: %w", artifactsBucket, err)
	}

	// 设置生命周期规则
	if cfg.UploadExpireDays > 0 || cfg.ArtifactExpireDays > 0 {
		if err := m.setupLifecycleRules(context.Background()); err != nil {
			logger.Printf("[MinIO] Warning: Failed to set up lifecycle rules: %v", err)
		}
	}

	logger.Printf("[MinIO] Client initialized successfully for endpoint: %s", cfg.Endpoint)
	return m, nil
}

// ensureBucketExists 确保存储桶存在
func (m *MinIO) ensureBucketExists(bucketName, location string) error {
	exists, err := m.client.BucketExists(context.Background(), bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if !exists {
		m.logger.Printf("[MinIO] Bucket %s does not exist, creating...", bucketName)
		err = m.client.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{Region: location})
		if err != nil {
			return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
		}
		m.logger.Printf("[MinIO] Bucket %s created.", bucketName)
	}
	return nil
}

// setupLifecycleRules 设置对象生命周期规则
func (m *MinIO) setupLifecycleRules(ctx context.Context) error {
	if m.cfg.UploadExpireDays > 0 {
		if err := m.setupBucketLifecycle(ctx, m.uploadsBucket, "expire-uploads", m.cfg.UploadExpireDays); err != nil {
			return fmt.Errorf("为简历上传存储桶 %s 设置生命周期失败: %w", m.uploadsBucket, err)
		}
	}
	if m.cfg.ArtifactExpireDays > 0 {
		if err := m.setupBucketLifecycle(ctx, m.artifactsBucket, "expire-artifacts", m.cfg.ArtifactExpireDays); err != nil {
			return fmt.Errorf("为报表存储桶 %s 设置生命周期失败: %w", m.artifactsBucket, err)
		}
	}
	return nil
}

// setupBucketLifecycle 为指定存储桶设置生命周期规则
func (m *MinIO) setupBucketLifecycle(ctx context.Context, bucketName, ruleID string, expiryDays int) error {
	m.logger.Printf("[MinIO] Setting lifecycle rule for bucket %s: ID=%s, ExpiryDays=%d", bucketName, ruleID, expiryDays)
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
	return m.client.SetBucketLifecycle(ctx, bucketName, lc)
}

// UploadResumeFile 上传原始简历文件到uploadsBucket
// 对象键形如 runs/<runID>/resumes/<fileName>
func (m *MinIO) UploadResumeFile(ctx context.Context, runID, fileName string, data []byte) (string, error) {
	objectName := fmt.Sprintf("runs/%s/resumes/%s", runID, filepath.Base(fileName))
	contentType := getContentType(filepath.Ext(fileName))

	_, err := m.client.PutObject(ctx, m.uploadsBucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		m.logger.Printf("[MinIO] Error uploading resume %s: %v", objectName, err)
		return "", fmt.Errorf("上传简历 %s 到存储桶 %s 失败: %w", objectName, m.uploadsBucket, err)
	}
	return objectName, nil
}

// UploadArtifact 上传报表产物到artifactsBucket
// kind 为产物类型(如 xlsx/csv/pdf)，对象键形如 runs/<runID>/report.<kind>
func (m *MinIO) UploadArtifact(ctx context.Context, runID, kind string, data []byte, contentType string) (string, error) {
	objectName := fmt.Sprintf("runs/%s/report.%s", runID, kind)

	_, err := m.client.PutObject(ctx, m.artifactsBucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		m.logger.Printf("[MinIO] Error uploading artifact %s: %v", objectName, err)
		return "", fmt.Errorf("上传报表 %s 到存储桶 %s 失败: %w", objectName, m.artifactsBucket, err)
	}
	m.logger.Printf("[MinIO] Uploaded artifact %s (%d bytes)", objectName, len(data))
	return objectName, nil
}

// DownloadArtifact 从artifactsBucket下载报表产物
func (m *MinIO) DownloadArtifact(ctx context.Context, objectKey string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.artifactsBucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("获取对象 %s/%s 失败: %w", m.artifactsBucket, objectKey, err)
	}
	defer obj.Close()

	// Stat确认对象存在，GetObject本身是惰性的
	if _, err := obj.Stat(); err != nil {
		return nil, fmt.Errorf("获取对象 %s/%s 状态失败: %w", m.artifactsBucket, objectKey, err)
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("读取对象 %s/%s 数据失败: %w", m.artifactsBucket, objectKey, err)
	}
	return data, nil
}

// GetPresignedURL 获取报表产物的预签名下载URL
func (m *MinIO) GetPresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	u, err := m.client.PresignedGetObject(ctx, m.artifactsBucket, objectKey, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("生成预签名URL %s/%s 失败: %w", m.artifactsBucket, objectKey, err)
	}
	return u.String(), nil
}

// DeleteObject 删除报表产物
func (m *MinIO) DeleteObject(ctx context.Context, objectKey string) error {
	err := m.client.RemoveObject(ctx, m.artifactsBucket, objectKey, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("删除对象 %s/%s 失败: %w", m.artifactsBucket, objectKey, err)
	}
	return nil
}

// getContentType 根据文件扩展名返回Content-Type
func getContentType(fileExt string) string {
	switch strings.ToLower(fileExt) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".csv":
		return "text/csv"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
