package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/AayushPaigwar/resume-sync-ai/internal/constants"
	"github.com/AayushPaigwar/resume-sync-ai/internal/logger"
	"github.com/AayushPaigwar/resume-sync-ai/internal/metrics"
	"github.com/AayushPaigwar/resume-sync-ai/internal/types"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"
)

const defaultPageWorkers = 4

// pageSource 按页读取文本的最小接口
type pageSource interface {
	NumPage() int
	PageText(i int) (string, error)
}

// openPageSourceFunc 从字节打开 pageSource
type openPageSourceFunc func(content []byte) (pageSource, error)

// ledongthucSource 基于 ledongthuc/pdf 的实现
type ledongthucSource struct {
	reader *pdf.Reader
}

func openLedongthuc(content []byte) (pageSource, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}
	return &ledongthucSource{reader: r}, nil
}

func (s *ledongthucSource) NumPage() int {
	return s.reader.NumPage()
}

func (s *ledongthucSource) PageText(i int) (string, error) {
	page := s.reader.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// PDFExtractor 逐页提取 PDF 文本
// 单页失败只记录并跳过，输出顺序始终与页序一致
type PDFExtractor struct {
	open    openPageSourceFunc
	workers int
}

// NewPDFExtractor 创建 PDF 提取器
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{open: openLedongthuc, workers: defaultPageWorkers}
}

func (p *PDFExtractor) extract(ctx context.Context, content []byte) (*types.ExtractedText, error) {
	src, err := p.safeOpen(content)
	if err != nil {
		return nil, newExtractionError(ErrDecodeFailure, constants.MediaTypePDF, err)
	}

	numPages := src.NumPage()
	pages := make([]string, numPages)
	ok := make([]bool, numPages)

	workers := p.workers
	if workers <= 0 {
		workers = 1
	}
	if workers > numPages {
		workers = numPages
	}

	// pdf.Reader 不保证并发安全：每个 worker 持有一个 reader，按计数器领取页号
	var next atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		workerSrc := src
		g.Go(func() error {
			if workerSrc == nil {
				s, err := p.safeOpen(content)
				if err != nil {
					// 打开失败时这个 worker 不领取页号，其余 worker 继续
					logger.Warn().Err(err).Msg("PDF 并发读取器打开失败")
					return nil
				}
				workerSrc = s
			}
			for {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				idx := int(next.Add(1) - 1)
				if idx >= numPages {
					return nil
				}
				text, err := readPage(workerSrc, idx+1)
				if err != nil {
					p.skipPage(idx+1, err)
					continue
				}
				pages[idx] = text
				ok[idx] = true
			}
		})
		src = nil
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("PDF 分页提取被中断: %w", err)
	}

	parts := make([]string, 0, numPages)
	for i, text := range pages {
		if ok[i] && text != "" {
			parts = append(parts, text)
		}
	}

	return &types.ExtractedText{
		Text:      strings.Join(parts, "\n"),
		PageCount: numPages,
	}, nil
}

func (p *PDFExtractor) safeOpen(content []byte) (src pageSource, err error) {
	defer func() {
		if r := recover(); r != nil {
			src, err = nil, fmt.Errorf("pdf reader panic: %v", r)
		}
	}()
	return p.open(content)
}

// readPage 读取单页，库内部的 panic 转换为错误
func readPage(src pageSource, page int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("page %d panic: %v", page, r)
		}
	}()
	return src.PageText(page)
}

func (p *PDFExtractor) skipPage(page int, err error) {
	metrics.PDFPagesSkipped.Inc()
	logger.Warn().Err(err).Int("page", page).Msg("PDF 页面无法读取，已跳过")
}
