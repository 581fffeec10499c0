package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/AayushPaigwar/resume-sync-ai/internal/config"
	"github.com/AayushPaigwar/resume-sync-ai/internal/logger"
	"github.com/AayushPaigwar/resume-sync-ai/internal/tracing"
	"github.com/AayushPaigwar/resume-sync-ai/internal/types"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// ErrObjectNotOwned URL 不属于当前存储桶
var ErrObjectNotOwned = errors.New("URL 不属于配置的对象存储")

// objectClient minio.Client 中用到的方法
type objectClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	SetBucketLifecycle(ctx context.Context, bucketName string, config *lifecycle.Configuration) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
}

// MinIO 保存原始简历文件
type MinIO struct {
	client  objectClient
	cfg     *config.MinIOConfig
	bucket  string
	baseURL string
	logger  zerolog.Logger
}

// NewMinIO 创建MinIO客户端并确保存储桶存在
func NewMinIO(ctx context.Context, cfg *config.MinIOConfig) (*MinIO, error) {
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
	m := newMinIOWithClient(client, cfg)

	if err := m.ensureBucketExists(ctx); err != nil {
		return nil, err
	}
	if cfg.OriginalExpireDay > 0 {
		if err := m.setupLifecycle(ctx); err != nil {
			m.logger.Warn().Err(err).Msg("设置生命周期规则失败")
		}
	}
	m.logger.Info().Str("endpoint", cfg.Endpoint).Str("bucket", m.bucket).Msg("MinIO客户端初始化成功")
	return m, nil
}

func newMinIOWithClient(client objectClient, cfg *config.MinIOConfig) *MinIO {
	bucket := cfg.BucketName
	if bucket == "" {
		bucket = "resumes"
	}
	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.Endpoint
	}
	l := logger.Named("minio")
	if !cfg.EnableTestLogging {
		l = l.Level(zerolog.InfoLevel)
	}
	return &MinIO{client: client, cfg: cfg, bucket: bucket, baseURL: base, logger: l}
}

// ensureBucketExists 确保存储桶存在
func (m *MinIO) ensureBucketExists(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", m.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.cfg.Location}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", m.bucket, err)
	}
	m.logger.Info().Str("bucket", m.bucket).Msg("存储桶已创建")
	return nil
}

// setupLifecycle 原始文件过期规则
func (m *MinIO) setupLifecycle(ctx context.Context) error {
	cfg := lifecycle.NewConfiguration()
	cfg.Rules = []lifecycle.Rule{
		{
			ID:     "expire-originals",
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(m.cfg.OriginalExpireDay),
			},
		},
	}
	return m.client.SetBucketLifecycle(ctx, m.bucket, cfg)
}

// ObjectKey 原始简历的对象键
func ObjectKey(resumeID, filename string) string {
	ext := strings.ToLower(extOf(filename))
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("resume/%s/original%s", resumeID, ext)
}

func extOf(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 || strings.ContainsAny(filename[i:], "/\\") {
		return ""
	}
	return filename[i:]
}

// ObjectURL 对象的访问地址
func (m *MinIO) ObjectURL(objectKey string) string {
	return m.baseURL + "/" + m.bucket + "/" + objectKey
}

// UploadResumeFile 上传原始简历，返回文件URL
func (m *MinIO) UploadResumeFile(ctx context.Context, resumeID string, doc *types.RawDocument) (string, error) {
	ctx, span := tracer.Start(ctx, "minio.UploadResumeFile")
	defer span.End()

	objectKey := ObjectKey(resumeID, doc.Filename)
	contentType := doc.MediaType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	span.SetAttributes(
		attribute.String("minio.bucket", m.bucket),
		attribute.String("minio.object", objectKey),
		attribute.Int64("minio.size", doc.Size()),
	)

	info, err := m.client.PutObject(ctx, m.bucket, objectKey, bytes.NewReader(doc.Content), doc.Size(),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return "", fmt.Errorf("上传对象 %s/%s 失败: %w", m.bucket, objectKey, err)
	}
	m.logger.Debug().Str("object", objectKey).Str("etag", info.ETag).Int64("size", info.Size).Msg("上传原始简历成功")
	return m.ObjectURL(objectKey), nil
}

// objectKeyFromURL 从文件URL解析对象键
func (m *MinIO) objectKeyFromURL(fileURL string) (string, error) {
	prefix := m.baseURL + "/" + m.bucket + "/"
	if !strings.HasPrefix(fileURL, prefix) {
		return "", ErrObjectNotOwned
	}
	key, err := url.PathUnescape(strings.TrimPrefix(fileURL, prefix))
	if err != nil || key == "" {
		return "", fmt.Errorf("无效的对象URL %q", fileURL)
	}
	return key, nil
}

// Owns 判断URL是否指向本存储桶
func (m *MinIO) Owns(fileURL string) bool {
	_, err := m.objectKeyFromURL(fileURL)
	return err == nil
}

// Fetch 通过文件URL下载原始简历
func (m *MinIO) Fetch(ctx context.Context, fileURL string) (*types.RawDocument, error) {
	key, err := m.objectKeyFromURL(fileURL)
	if err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "minio.Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("minio.object", key))

	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return nil, fmt.Errorf("获取对象 %s/%s 失败: %w", m.bucket, key, err)
	}
	defer obj.Close()

	stat, err := obj.Stat()
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return nil, fmt.Errorf("获取对象 %s/%s 状态失败: %w", m.bucket, key, err)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return nil, fmt.Errorf("读取对象 %s/%s 数据失败: %w", m.bucket, key, err)
	}
	return &types.RawDocument{
		Content:   data,
		MediaType: stat.ContentType,
		Filename:  key[strings.LastIndex(key, "/")+1:],
	}, nil
}
