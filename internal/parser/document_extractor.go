package parser

import (
	"context"
	"errors"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/AayushPaigwar/resume-sync-ai/internal/constants"
	"github.com/AayushPaigwar/resume-sync-ai/internal/logger"
	"github.com/AayushPaigwar/resume-sync-ai/internal/metrics"
	"github.com/AayushPaigwar/resume-sync-ai/internal/tracing"
	"github.com/AayushPaigwar/resume-sync-ai/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("resume-sync/parser")

// TextExtractor 把原始文档转换为线性文本
type TextExtractor interface {
	Extract(ctx context.Context, doc *types.RawDocument) (*types.ExtractedText, error)
}

// formatExtractor 单一格式的提取实现
type formatExtractor interface {
	extract(ctx context.Context, content []byte) (*types.ExtractedText, error)
}

// DocumentTextExtractor 按媒体类型分派到 PDF 或 DOCX 提取器
type DocumentTextExtractor struct {
	pdf  formatExtractor
	docx formatExtractor
}

// Option DocumentTextExtractor 的配置选项
type Option func(*DocumentTextExtractor)

// WithPageWorkers 设置 PDF 分页并发数
func WithPageWorkers(n int) Option {
	return func(d *DocumentTextExtractor) {
		if p, ok := d.pdf.(*PDFExtractor); ok && n > 0 {
			p.workers = n
		}
	}
}

// 测试中替换 PDF 实现
func withPDF(p formatExtractor) Option {
	return func(d *DocumentTextExtractor) {
		d.pdf = p
	}
}

var _ TextExtractor = (*DocumentTextExtractor)(nil)

// NewDocumentTextExtractor 创建文档提取器
func NewDocumentTextExtractor(opts ...Option) *DocumentTextExtractor {
	d := &DocumentTextExtractor{
		pdf:  NewPDFExtractor(),
		docx: &DOCXExtractor{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Extract 提取文档文本
func (d *DocumentTextExtractor) Extract(ctx context.Context, doc *types.RawDocument) (*types.ExtractedText, error) {
	mediaType := ResolveMediaType(doc.MediaType, doc.Filename)

	ctx, span := tracer.Start(ctx, "parser.Extract")
	defer span.End()
	span.SetAttributes(
		attribute.String("document.media_type", mediaType),
		attribute.Int64("document.size", doc.Size()),
	)

	start := time.Now()
	var impl formatExtractor
	switch mediaType {
	case constants.MediaTypePDF:
		impl = d.pdf
	case constants.MediaTypeDOCX:
		impl = d.docx
	default:
		err := newExtractionError(ErrUnsupportedFormat, mediaType, nil)
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		metrics.DocumentsExtracted.WithLabelValues(mediaType, err.KindName()).Inc()
		return nil, err
	}

	result, err := impl.extract(ctx, doc.Content)
	if err == nil && strings.TrimSpace(result.Text) == "" {
		err = newExtractionError(ErrEmptyContent, mediaType, nil)
	}
	if err != nil {
		kind := "unknown"
		var ee *ExtractionError
		if errors.As(err, &ee) {
			kind = ee.KindName()
		}
		tracing.RecordError(span, err, tracing.ErrorTypeParse)
		metrics.DocumentsExtracted.WithLabelValues(mediaType, kind).Inc()
		logger.Warn().Err(err).Str("media_type", mediaType).Str("file_name", doc.Filename).Msg("文档文本提取失败")
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("document.pages", result.PageCount),
		attribute.Int("document.text_length", len(result.Text)),
	)
	metrics.DocumentsExtracted.WithLabelValues(mediaType, "ok").Inc()
	logger.Debug().
		Str("media_type", mediaType).
		Int("pages", result.PageCount).
		Int("chars", len(result.Text)).
		Dur("elapsed", time.Since(start)).
		Msg("文档文本提取完成")
	return result, nil
}

// ResolveMediaType 归一化声明的媒体类型
// 忽略参数和大小写；为空或为 octet-stream 时按扩展名判断
func ResolveMediaType(declared, filename string) string {
	mediaType := strings.ToLower(strings.TrimSpace(declared))
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = parsed
	} else if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}

	if mediaType == "" || mediaType == "application/octet-stream" {
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".pdf":
			return constants.MediaTypePDF
		case ".docx":
			return constants.MediaTypeDOCX
		}
	}
	return mediaType
}

// IsSupportedMediaType 判断是否为支持的文档类型
func IsSupportedMediaType(mediaType string) bool {
	return mediaType == constants.MediaTypePDF || mediaType == constants.MediaTypeDOCX
}
