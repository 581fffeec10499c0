package processor

import (
	"context"
	"time"

	"github.com/AayushPaigwar/resume-sync-ai/internal/types"
)

// TextExtractor 文档文本提取
type TextExtractor interface {
	Extract(ctx context.Context, doc *types.RawDocument) (*types.ExtractedText, error)
}

// Analyzer 结构化字段抽取，永不失败
type Analyzer interface {
	Analyze(ctx context.Context, text string) *types.AnalysisOutcome
}

// DocumentStore 保存上传的原始文件，返回内容URL
type DocumentStore interface {
	UploadResumeFile(ctx context.Context, resumeID string, doc *types.RawDocument) (string, error)
}

// DocumentFetcher 按内容URL下载文档
type DocumentFetcher interface {
	Fetch(ctx context.Context, fileURL string) (*types.RawDocument, error)
}

// ResumeRepository 简历记录持久化
type ResumeRepository interface {
	Create(ctx context.Context, record *types.ResumeRecord) error
	GetByID(ctx context.Context, id string) (*types.ResumeRecord, error)
	UpdateExtractedData(ctx context.Context, id string, data *types.StructuredResumeData, processedAt time.Time) error
}

// EventfulRepository 可选能力：在同一事务内保存记录并登记事件
// 仓储实现了它时，编排器不再单独发布事件
type EventfulRepository interface {
	CreateWithEvent(ctx context.Context, record *types.ResumeRecord, event *types.ResumeExtractedEvent) error
	UpdateExtractedDataWithEvent(ctx context.Context, id string, data *types.StructuredResumeData, processedAt time.Time, event *types.ResumeExtractedEvent) error
}

// Locker 按简历ID的单飞锁
type Locker interface {
	// AcquireLock 获取成功返回持有令牌，被占用时返回空字符串
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	ReleaseLock(ctx context.Context, key string, token string) (bool, error)
}

// EventPublisher 发布处理完成事件
type EventPublisher interface {
	PublishResumeExtracted(ctx context.Context, event *types.ResumeExtractedEvent) error
}

// TaskQueue 异步处理任务入队
type TaskQueue interface {
	EnqueueProcessTask(ctx context.Context, task *types.ProcessResumeTask) error
}

// StepListener 接收状态转换通知，仅供展示
type StepListener interface {
	OnStep(ctx context.Context, resumeID string, state State, label string)
}

// StepListenerFunc 函数适配器
type StepListenerFunc func(ctx context.Context, resumeID string, state State, label string)

func (f StepListenerFunc) OnStep(ctx context.Context, resumeID string, state State, label string) {
	f(ctx, resumeID, state, label)
}

// StatusStore 保存处理进度供查询
type StatusStore interface {
	SaveStatus(ctx context.Context, resumeID, state, label string) error
}
