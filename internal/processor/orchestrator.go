package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/AayushPaigwar/resume-sync-ai/internal/constants"
	"github.com/AayushPaigwar/resume-sync-ai/internal/logger"
	"github.com/AayushPaigwar/resume-sync-ai/internal/metrics"
	"github.com/AayushPaigwar/resume-sync-ai/internal/tracing"
	"github.com/AayushPaigwar/resume-sync-ai/internal/types"

	"github.com/gofrs/uuid/v5"
	googleuuid "github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("resume-sync/processor")

// State 编排状态
type State string

const (
	StateFetching   State = "fetching"
	StateExtracting State = "extracting"
	StateAnalyzing  State = "analyzing"
	StateSaving     State = "saving"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Label 返回展示用的状态文案
func (s State) Label() string {
	switch s {
	case StateFetching:
		return "Fetching resume..."
	case StateExtracting:
		return "Extracting text..."
	case StateAnalyzing:
		return "Analyzing content..."
	case StateSaving:
		return "Saving results..."
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return string(s)
	}
}

// 入口名称，用于指标和日志
const (
	EntryUpload = "upload"
	EntryStored = "stored"
)

// Components 聚合所有功能组件依赖，便于集中管理和测试替换
type Components struct {
	Extractor         TextExtractor
	AIAnalyzer        Analyzer
	HeuristicAnalyzer Analyzer

	Store     DocumentStore   // 可选，为空时不保存原始文件
	Fetcher   DocumentFetcher // 存量简历流程必需
	Repo      ResumeRepository
	Locker    Locker
	Publisher EventPublisher // 可选
}

// Settings 纯配置项
type Settings struct {
	LockTTL  time.Duration
	Listener StepListener
	Now      func() time.Time
	NewID    func() (string, error)
}

// UploadRequest 上传入口的输入
type UploadRequest struct {
	UserID   string
	Document *types.RawDocument
}

// Result 一次处理的结果
type Result struct {
	ResumeID      string
	FileURL       string
	State         State // 最后到达的状态
	FailureReason string
	Strategy      string // 最终生效的抽取策略
	Data          *types.StructuredResumeData
	PageCount     int
	ProcessedAt   time.Time
}

// Orchestrator 按 fetch → extract → analyze → save 顺序执行的状态机
type Orchestrator struct {
	comp *Components
	set  *Settings
}

func newResumeID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func defaultSettings() *Settings {
	return &Settings{
		LockTTL:  constants.DefaultLockTTL,
		Listener: NewLoggingListener(),
		Now:      time.Now,
		NewID:    newResumeID,
	}
}

// NewOrchestrator 创建编排器
func NewOrchestrator(comp *Components, set *Settings, opts ...SettingOpt) (*Orchestrator, error) {
	if comp == nil || comp.Extractor == nil {
		return nil, fmt.Errorf("orchestrator requires a text extractor")
	}
	if comp.AIAnalyzer == nil && comp.HeuristicAnalyzer == nil {
		return nil, fmt.Errorf("orchestrator requires at least one analyzer")
	}

	merged := defaultSettings()
	if set != nil {
		if set.LockTTL > 0 {
			merged.LockTTL = set.LockTTL
		}
		if set.Listener != nil {
			merged.Listener = set.Listener
		}
		if set.Now != nil {
			merged.Now = set.Now
		}
		if set.NewID != nil {
			merged.NewID = set.NewID
		}
	}
	for _, opt := range opts {
		opt(merged)
	}
	if comp.Locker == nil {
		comp.Locker = NewMemoryLocker()
	}
	return &Orchestrator{comp: comp, set: merged}, nil
}

// NewOrchestratorWithOpts 使用选项函数构建
func NewOrchestratorWithOpts(compOpts []ComponentOpt, setOpts ...SettingOpt) (*Orchestrator, error) {
	comp := &Components{}
	for _, opt := range compOpts {
		opt(comp)
	}
	return NewOrchestrator(comp, nil, setOpts...)
}

// run 单次处理的状态跟踪
type run struct {
	o        *Orchestrator
	ctx      context.Context
	span     trace.Span
	entry    string
	resumeID string
	state    State
	started  time.Time
}

func (o *Orchestrator) newRun(ctx context.Context, span trace.Span, entry, resumeID string) *run {
	return &run{o: o, ctx: ctx, span: span, entry: entry, resumeID: resumeID, started: o.set.Now()}
}

func (r *run) enter(next State, label string) {
	if r.state != "" && r.state != StateDone && r.state != StateFailed {
		metrics.ProcessingState.WithLabelValues(string(r.state)).Dec()
	}
	if next != StateDone && next != StateFailed {
		metrics.ProcessingState.WithLabelValues(string(next)).Inc()
	}
	r.state = next
	r.span.AddEvent("state."+string(next))
	r.o.set.Listener.OnStep(r.ctx, r.resumeID, next, label)
}

func (r *run) step(next State) {
	r.enter(next, next.Label())
}

// fail 只允许从 Fetching 或 Extracting 进入 Failed
func (r *run) fail(err error, errType tracing.ErrorType) error {
	reason := err.Error()
	if r.state == StateFetching || r.state == StateExtracting {
		r.enter(StateFailed, "Failed: "+reason)
	}
	tracing.RecordError(r.span, err, errType)
	return err
}

// abort 先进入 Failed 再结束，保证状态计数只减一次
func (r *run) abort(outcome string, err error, errType tracing.ErrorType) error {
	err = r.fail(err, errType)
	r.finish(outcome)
	return err
}

// finish 记录结束指标，清理未结束状态的计数
func (r *run) finish(outcome string) {
	if r.state != StateDone && r.state != StateFailed && r.state != "" {
		metrics.ProcessingState.WithLabelValues(string(r.state)).Dec()
	}
	metrics.ProcessingRuns.WithLabelValues(r.entry, outcome).Inc()
	metrics.ProcessingDuration.WithLabelValues(r.entry).Observe(r.o.set.Now().Sub(r.started).Seconds())
}

func (o *Orchestrator) lock(ctx context.Context, resumeID string) (func(), error) {
	key := fmt.Sprintf(constants.KeyResumeProcessingLock, resumeID)
	token, err := o.comp.Locker.AcquireLock(ctx, key, o.set.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("获取处理锁失败: %w", err)
	}
	if token == "" {
		return nil, NewInProgressError(resumeID)
	}
	return func() {
		// 使用独立上下文，调用方取消后仍能释放锁
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := o.comp.Locker.ReleaseLock(releaseCtx, key, token); err != nil {
			logger.Warn().Err(err).Str("resume_id", resumeID).Msg("释放处理锁失败")
		}
	}, nil
}

// ProcessUpload 上传入口：保存原始文件，提取文本，生成式抽取，新建记录
func (o *Orchestrator) ProcessUpload(ctx context.Context, req UploadRequest) (*Result, error) {
	if req.Document == nil || len(req.Document.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidInput)
	}
	analyzer := o.comp.AIAnalyzer
	if analyzer == nil {
		return nil, fmt.Errorf("%w: no AI analyzer configured", ErrInvalidInput)
	}

	// 新生成的ID不会与其他处理冲突，上传流程不加锁
	resumeID, err := o.set.NewID()
	if err != nil {
		return nil, fmt.Errorf("生成简历ID失败: %w", err)
	}

	ctx, span := tracer.Start(ctx, "processor.ProcessUpload")
	defer span.End()
	span.SetAttributes(
		attribute.String("resume.id", resumeID),
		attribute.String("resume.media_type", req.Document.MediaType),
		attribute.Int64("resume.size", req.Document.Size()),
		attribute.String("resume.file_name", tracing.SafeAttributeValue("file_name", req.Document.Filename, tracing.DefaultMaxLength)),
	)

	r := o.newRun(ctx, span, EntryUpload, resumeID)
	result := &Result{ResumeID: resumeID}

	// Fetching
	r.step(StateFetching)
	if o.comp.Store != nil {
		fileURL, err := o.comp.Store.UploadResumeFile(ctx, resumeID, req.Document)
		if err != nil {
			result.State, result.FailureReason = StateFailed, err.Error()
			return result, r.abort("failed", NewRetrievalError(resumeID, err), tracing.ErrorTypeStorage)
		}
		result.FileURL = fileURL
	}

	// Extracting
	r.step(StateExtracting)
	extracted, err := o.comp.Extractor.Extract(ctx, req.Document)
	if err != nil {
		result.State, result.FailureReason = StateFailed, err.Error()
		return result, r.abort("failed", NewExtractionError(resumeID, err), tracing.ErrorTypeParse)
	}
	result.PageCount = extracted.PageCount

	// Analyzing
	r.step(StateAnalyzing)
	outcome := analyzer.Analyze(ctx, extracted.Text)
	result.Data = outcome.Data.Normalize()
	result.Strategy = outcome.FinalStrategy()

	// Saving
	r.step(StateSaving)
	result.State = StateSaving
	now := o.set.Now()
	event := newExtractedEvent(resumeID, req.Document.Filename, result.Data, now)
	recorded := false
	if o.comp.Repo != nil {
		record := &types.ResumeRecord{
			ID:            resumeID,
			UserID:        req.UserID,
			FileName:      req.Document.Filename,
			FileURL:       result.FileURL,
			MediaType:     req.Document.MediaType,
			ExtractedData: result.Data,
			ExtractedText: prefixRunes(extracted.Text, constants.StoredTextPrefixChars),
			ProcessedAt:   &now,
		}
		if eventful, ok := o.comp.Repo.(EventfulRepository); ok {
			err = eventful.CreateWithEvent(ctx, record, event)
			recorded = true
		} else {
			err = o.comp.Repo.Create(ctx, record)
		}
		if err != nil {
			return result, r.abort("save_failed", NewSaveError(resumeID, err), tracing.ErrorTypeDB)
		}
	}

	r.step(StateDone)
	result.State = StateDone
	result.ProcessedAt = now
	r.finish("done")
	if !recorded {
		o.publish(ctx, event)
	}
	return result, nil
}

// ProcessStored 存量简历入口：按ID读取记录，下载文件，启发式抽取，更新记录
func (o *Orchestrator) ProcessStored(ctx context.Context, resumeID string) (*Result, error) {
	if resumeID == "" {
		return nil, fmt.Errorf("%w: empty resume id", ErrInvalidInput)
	}
	analyzer := o.comp.HeuristicAnalyzer
	if analyzer == nil || o.comp.Repo == nil || o.comp.Fetcher == nil {
		return nil, fmt.Errorf("%w: stored processing is not configured", ErrInvalidInput)
	}

	unlock, err := o.lock(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	ctx, span := tracer.Start(ctx, "processor.ProcessStored")
	defer span.End()
	span.SetAttributes(attribute.String("resume.id", resumeID))

	r := o.newRun(ctx, span, EntryStored, resumeID)
	result := &Result{ResumeID: resumeID}

	// Fetching
	r.step(StateFetching)
	record, err := o.comp.Repo.GetByID(ctx, resumeID)
	if err != nil {
		result.State, result.FailureReason = StateFailed, err.Error()
		return result, r.abort("failed", NewRetrievalError(resumeID, err), tracing.ErrorTypeDB)
	}
	result.FileURL = record.FileURL

	doc, err := o.comp.Fetcher.Fetch(ctx, record.FileURL)
	if err != nil {
		result.State, result.FailureReason = StateFailed, err.Error()
		return result, r.abort("failed", NewRetrievalError(resumeID, err), tracing.ErrorTypeStorage)
	}
	if doc.Filename == "" {
		doc.Filename = record.FileName
	}
	if record.MediaType != "" && (doc.MediaType == "" || doc.MediaType == "application/octet-stream") {
		doc.MediaType = record.MediaType
	}

	// Extracting
	r.step(StateExtracting)
	extracted, err := o.comp.Extractor.Extract(ctx, doc)
	if err != nil {
		result.State, result.FailureReason = StateFailed, err.Error()
		return result, r.abort("failed", NewExtractionError(resumeID, err), tracing.ErrorTypeParse)
	}
	result.PageCount = extracted.PageCount

	// Analyzing
	r.step(StateAnalyzing)
	outcome := analyzer.Analyze(ctx, extracted.Text)
	result.Data = outcome.Data.Normalize()
	result.Strategy = outcome.FinalStrategy()

	// Saving
	r.step(StateSaving)
	result.State = StateSaving
	now := o.set.Now()
	event := newExtractedEvent(resumeID, record.FileName, result.Data, now)
	eventful, transactional := o.comp.Repo.(EventfulRepository)
	if transactional {
		err = eventful.UpdateExtractedDataWithEvent(ctx, resumeID, result.Data, now, event)
	} else {
		err = o.comp.Repo.UpdateExtractedData(ctx, resumeID, result.Data, now)
	}
	if err != nil {
		return result, r.abort("save_failed", NewSaveError(resumeID, err), tracing.ErrorTypeDB)
	}

	r.step(StateDone)
	result.State = StateDone
	result.ProcessedAt = now
	r.finish("done")
	if !transactional {
		o.publish(ctx, event)
	}
	return result, nil
}

func newExtractedEvent(resumeID, fileName string, data *types.StructuredResumeData, processedAt time.Time) *types.ResumeExtractedEvent {
	return &types.ResumeExtractedEvent{
		EventID:              googleuuid.NewString(),
		ResumeID:             resumeID,
		FileName:             fileName,
		TechnicalSkillsCount: len(data.TechnicalSkills),
		SoftSkillsCount:      len(data.SoftSkills),
		ExperienceCount:      len(data.Experience),
		ExtractionNote:       data.ExtractionNote,
		ProcessedAt:          processedAt,
	}
}

// publish 尽力发布事件，失败只记录日志
func (o *Orchestrator) publish(ctx context.Context, event *types.ResumeExtractedEvent) {
	if o.comp.Publisher == nil {
		return
	}
	if err := o.comp.Publisher.PublishResumeExtracted(ctx, event); err != nil {
		metrics.EventsPublished.WithLabelValues("failed").Inc()
		logger.Warn().Err(err).Str("resume_id", event.ResumeID).Msg("发布 resume.extracted 事件失败")
		return
	}
	metrics.EventsPublished.WithLabelValues("ok").Inc()
}

// prefixRunes 按字符取前 n 个
func prefixRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
