package storage

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/AayushPaigwar/resume-sync-ai/internal/constants"
	"github.com/AayushPaigwar/resume-sync-ai/internal/tracing"
	"github.com/AayushPaigwar/resume-sync-ai/internal/types"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.opentelemetry.io/otel/attribute"
)

// HTTPFetcher 通过HTTP下载简历文件
type HTTPFetcher struct {
	client   *client.Client
	maxBytes int
}

// NewHTTPFetcher 创建下载器，maxBytes 为 0 时使用默认上传上限
func NewHTTPFetcher(timeout time.Duration, maxBytes int) (*HTTPFetcher, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = constants.MaxUploadBytes
	}
	c, err := client.NewClient(
		client.WithDialTimeout(5*time.Second),
		client.WithClientReadTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP客户端失败: %w", err)
	}
	return &HTTPFetcher{client: c, maxBytes: maxBytes}, nil
}

// Fetch 下载文件，非 2xx 视为失败
func (f *HTTPFetcher) Fetch(ctx context.Context, fileURL string) (*types.RawDocument, error) {
	ctx, span := tracer.Start(ctx, "http.Fetch")
	defer span.End()

	u, err := url.Parse(fileURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		err = fmt.Errorf("无效的文件URL %q", fileURL)
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}
	span.SetAttributes(attribute.String("http.url.host", u.Host))

	req, resp := protocol.AcquireRequest(), protocol.AcquireResponse()
	defer protocol.ReleaseRequest(req)
	defer protocol.ReleaseResponse(resp)
	req.SetRequestURI(fileURL)
	req.SetMethod(consts.MethodGet)

	if err := f.client.Do(ctx, req, resp); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeHTTP)
		return nil, fmt.Errorf("下载文件失败: %w", err)
	}
	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		err := fmt.Errorf("下载文件失败: HTTP %d", status)
		tracing.RecordHTTPError(span, err, status)
		return nil, err
	}
	body := resp.Body()
	if len(body) > f.maxBytes {
		err := fmt.Errorf("文件大小 %d 超过上限 %d", len(body), f.maxBytes)
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	content := make([]byte, len(body))
	copy(content, body)
	return &types.RawDocument{
		Content:   content,
		MediaType: string(resp.Header.ContentType()),
		Filename:  path.Base(u.Path),
	}, nil
}

// RoutingFetcher 本存储桶的URL直接读对象存储，其他走HTTP
type RoutingFetcher struct {
	objects *MinIO
	http    *HTTPFetcher
}

// NewRoutingFetcher objects 可以为空
func NewRoutingFetcher(objects *MinIO, http *HTTPFetcher) *RoutingFetcher {
	return &RoutingFetcher{objects: objects, http: http}
}

func (f *RoutingFetcher) Fetch(ctx context.Context, fileURL string) (*types.RawDocument, error) {
	if f.objects != nil && f.objects.Owns(fileURL) {
		return f.objects.Fetch(ctx, fileURL)
	}
	if f.http == nil {
		return nil, fmt.Errorf("没有可用的下载器: %s", fileURL)
	}
	return f.http.Fetch(ctx, fileURL)
}
