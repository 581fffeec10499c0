// Package metrics 定义抽取流水线的 Prometheus 指标
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "resume_sync"

var (
	// DocumentsExtracted 文本提取结果，result 取 ok 或错误类别
	DocumentsExtracted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "documents_extracted_total",
		Help:      "Documents processed by the text extractor",
	}, []string{"media_type", "result"})

	// PDFPagesSkipped 因解析失败被跳过的 PDF 页
	PDFPagesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pdf_pages_skipped_total",
		Help:      "PDF pages skipped because the page could not be read",
	})

	AnalysisAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analysis_attempts_total",
		Help:      "Extraction strategy attempts by outcome",
	}, []string{"strategy", "result"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "analysis_duration_seconds",
		Help:      "Time spent in one extraction strategy",
		Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"strategy"})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_requests_total",
		Help:      "Requests sent to the generative extraction service",
	}, []string{"provider", "result"})

	// ProcessingState 当前处于各状态的运行数
	ProcessingState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "resume_processing_state",
		Help:      "In-flight processing runs per state",
	}, []string{"state"})

	ProcessingRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "processing_runs_total",
		Help:      "Completed processing runs by entry point and outcome",
	}, []string{"entry", "outcome"})

	ProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "processing_duration_seconds",
		Help:      "End-to-end duration of one processing run",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"entry"})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "resume.extracted events by publish result",
	}, []string{"result"})
)

// ObserveAnalysis 记录一次策略尝试
func ObserveAnalysis(strategy string, success bool, elapsed time.Duration) {
	result := "ok"
	if !success {
		result = "failed"
	}
	AnalysisAttempts.WithLabelValues(strategy, result).Inc()
	AnalysisDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
}

// Handler /metrics 使用的处理器
func Handler() http.Handler {
	return promhttp.Handler()
}
