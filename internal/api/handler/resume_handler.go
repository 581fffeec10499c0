package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/AayushPaigwar/resume-sync-ai/internal/constants"
	"github.com/AayushPaigwar/resume-sync-ai/internal/logger"
	"github.com/AayushPaigwar/resume-sync-ai/internal/parser"
	"github.com/AayushPaigwar/resume-sync-ai/internal/processor"
	"github.com/AayushPaigwar/resume-sync-ai/internal/storage"
	"github.com/AayushPaigwar/resume-sync-ai/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// Pipeline 编排器的两个入口
type Pipeline interface {
	ProcessUpload(ctx context.Context, req processor.UploadRequest) (*processor.Result, error)
	ProcessStored(ctx context.Context, resumeID string) (*processor.Result, error)
}

// RecordReader 读取简历记录
type RecordReader interface {
	GetByID(ctx context.Context, id string) (*types.ResumeRecord, error)
}

// StatusReader 读取处理进度
type StatusReader interface {
	GetStatus(ctx context.Context, resumeID string) (*storage.ProcessingStatus, error)
}

// Deps 处理器依赖，Queue 和 Status 可以为空
type Deps struct {
	Pipeline  Pipeline
	Records   RecordReader
	Queue     processor.TaskQueue
	Status    StatusReader
	AI        processor.Analyzer
	Heuristic processor.Analyzer
	MaxUpload int64
}

// ResumeHandler 简历相关接口
type ResumeHandler struct {
	deps Deps
}

// NewResumeHandler 创建简历处理器
func NewResumeHandler(deps Deps) *ResumeHandler {
	if deps.MaxUpload <= 0 {
		deps.MaxUpload = constants.MaxUploadBytes
	}
	return &ResumeHandler{deps: deps}
}

// UploadResponse 上传接口响应
type UploadResponse struct {
	ResumeID      string                      `json:"resume_id"`
	FileURL       string                      `json:"file_url"`
	State         processor.State             `json:"state"`
	Strategy      string                      `json:"strategy,omitempty"`
	PageCount     int                         `json:"page_count,omitempty"`
	ExtractedData *types.StructuredResumeData `json:"extracted_data"`
}

// ErrorResponse 错误响应，retryable 表示换一个文件重试可能成功
type ErrorResponse struct {
	Error     string          `json:"error"`
	Retryable bool            `json:"retryable,omitempty"`
	State     processor.State `json:"state,omitempty"`
}

// AnalyzeRequest 临时分析请求
type AnalyzeRequest struct {
	Text string `json:"text"`
	Mode string `json:"mode"` // ai 或 heuristic
}

// AnalyzeResponse 临时分析响应
type AnalyzeResponse struct {
	Strategy      string                      `json:"strategy"`
	ExtractedData *types.StructuredResumeData `json:"extracted_data"`
}

// Upload POST /api/v1/resumes/upload
func (h *ResumeHandler) Upload(c context.Context, ctx *app.RequestContext) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, ErrorResponse{Error: "文件未找到"})
		return
	}
	if fileHeader.Size > h.deps.MaxUpload {
		ctx.JSON(consts.StatusRequestEntityTooLarge, ErrorResponse{
			Error: fmt.Sprintf("文件大小超过上限 %d MB", h.deps.MaxUpload>>20),
		})
		return
	}

	mediaType := parser.ResolveMediaType(fileHeader.Header.Get("Content-Type"), fileHeader.Filename)
	if !parser.IsSupportedMediaType(mediaType) {
		ctx.JSON(consts.StatusUnsupportedMediaType, ErrorResponse{Error: "仅支持 PDF 和 DOCX 文件"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, ErrorResponse{Error: "打开文件失败"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, h.deps.MaxUpload+1))
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, ErrorResponse{Error: "读取文件失败"})
		return
	}
	if int64(len(content)) > h.deps.MaxUpload {
		ctx.JSON(consts.StatusRequestEntityTooLarge, ErrorResponse{Error: "文件大小超过上限"})
		return
	}

	result, err := h.deps.Pipeline.ProcessUpload(c, processor.UploadRequest{
		UserID: string(ctx.FormValue("user_id")),
		Document: &types.RawDocument{
			Content:   content,
			MediaType: mediaType,
			Filename:  fileHeader.Filename,
		},
	})
	if err != nil {
		h.writeProcessError(c, ctx, result, err)
		return
	}
	ctx.JSON(consts.StatusOK, toUploadResponse(result))
}

// Process POST /api/v1/resumes/:id/process
func (h *ResumeHandler) Process(c context.Context, ctx *app.RequestContext) {
	resumeID := ctx.Param("id")
	if ctx.Query("async") == "true" {
		if h.deps.Queue == nil {
			ctx.JSON(consts.StatusServiceUnavailable, ErrorResponse{Error: "未配置消息队列"})
			return
		}
		if err := h.deps.Queue.EnqueueProcessTask(c, &types.ProcessResumeTask{ResumeID: resumeID}); err != nil {
			logger.Error().Err(err).Str("resume_id", resumeID).Msg("投递处理任务失败")
			ctx.JSON(consts.StatusInternalServerError, ErrorResponse{Error: "投递处理任务失败"})
			return
		}
		ctx.JSON(consts.StatusAccepted, utils.H{"resume_id": resumeID, "status": "queued"})
		return
	}

	result, err := h.deps.Pipeline.ProcessStored(c, resumeID)
	if err != nil {
		h.writeProcessError(c, ctx, result, err)
		return
	}
	ctx.JSON(consts.StatusOK, toUploadResponse(result))
}

// Analyze POST /api/v1/resumes/analyze，不落库
func (h *ResumeHandler) Analyze(c context.Context, ctx *app.RequestContext) {
	var req AnalyzeRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(consts.StatusBadRequest, ErrorResponse{Error: "请求体不是有效的JSON"})
		return
	}

	var analyzer processor.Analyzer
	switch req.Mode {
	case "", "ai":
		analyzer = h.deps.AI
	case "heuristic":
		analyzer = h.deps.Heuristic
	default:
		ctx.JSON(consts.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("未知的分析模式 %q", req.Mode)})
		return
	}
	if analyzer == nil {
		ctx.JSON(consts.StatusServiceUnavailable, ErrorResponse{Error: "分析模式未启用"})
		return
	}

	outcome := analyzer.Analyze(c, req.Text)
	ctx.JSON(consts.StatusOK, AnalyzeResponse{
		Strategy:      outcome.FinalStrategy(),
		ExtractedData: outcome.Data.Normalize(),
	})
}

// Get GET /api/v1/resumes/:id
func (h *ResumeHandler) Get(c context.Context, ctx *app.RequestContext) {
	if h.deps.Records == nil {
		ctx.JSON(consts.StatusServiceUnavailable, ErrorResponse{Error: "未配置简历存储"})
		return
	}
	resumeID := ctx.Param("id")
	record, err := h.deps.Records.GetByID(c, resumeID)
	if errors.Is(err, storage.ErrResumeNotFound) {
		ctx.JSON(consts.StatusNotFound, ErrorResponse{Error: "简历不存在"})
		return
	}
	if err != nil {
		logger.Error().Err(err).Str("resume_id", resumeID).Msg("查询简历失败")
		ctx.JSON(consts.StatusInternalServerError, ErrorResponse{Error: "查询简历失败"})
		return
	}
	ctx.JSON(consts.StatusOK, toRecordResponse(record))
}

// Status GET /api/v1/resumes/:id/status
func (h *ResumeHandler) Status(c context.Context, ctx *app.RequestContext) {
	if h.deps.Status == nil {
		ctx.JSON(consts.StatusServiceUnavailable, ErrorResponse{Error: "未配置进度存储"})
		return
	}
	resumeID := ctx.Param("id")
	status, err := h.deps.Status.GetStatus(c, resumeID)
	if storage.IsNotFound(err) {
		ctx.JSON(consts.StatusNotFound, ErrorResponse{Error: "没有处理记录"})
		return
	}
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, ErrorResponse{Error: "查询处理进度失败"})
		return
	}
	ctx.JSON(consts.StatusOK, utils.H{"resume_id": resumeID, "state": status.State, "label": status.Label, "updated_at": status.UpdatedAt})
}

// writeProcessError 把编排错误映射为HTTP状态码
func (h *ResumeHandler) writeProcessError(c context.Context, ctx *app.RequestContext, result *processor.Result, err error) {
	var state processor.State
	if result != nil {
		state = result.State
	}
	status := consts.StatusInternalServerError
	resp := ErrorResponse{Error: err.Error(), State: state}

	switch {
	case errors.Is(err, processor.ErrInvalidInput):
		status = consts.StatusBadRequest
	case errors.Is(err, processor.ErrProcessingInProgress):
		status = consts.StatusConflict
	case errors.Is(err, storage.ErrResumeNotFound):
		status = consts.StatusNotFound
	case processor.IsRetryable(err):
		status = consts.StatusUnprocessableEntity
		resp.Retryable = true
	case errors.Is(err, processor.ErrSaveFailed):
		resp.Error = "保存抽取结果失败"
	}
	if status >= 500 {
		logger.Error().Err(err).Msg("处理简历失败")
	}
	ctx.JSON(status, resp)
}

func toUploadResponse(r *processor.Result) UploadResponse {
	return UploadResponse{
		ResumeID:      r.ResumeID,
		FileURL:       r.FileURL,
		State:         r.State,
		Strategy:      r.Strategy,
		PageCount:     r.PageCount,
		ExtractedData: r.Data.Normalize(),
	}
}

// RecordResponse 简历记录响应
type RecordResponse struct {
	ID            string                      `json:"id"`
	UserID        string                      `json:"user_id,omitempty"`
	FileName      string                      `json:"file_name"`
	FileURL       string                      `json:"file_url"`
	MediaType     string                      `json:"media_type,omitempty"`
	ExtractedData *types.StructuredResumeData `json:"extracted_data"`
	ProcessedAt   *time.Time                  `json:"processed_at,omitempty"`
	CreatedAt     time.Time                   `json:"created_at"`
}

func toRecordResponse(r *types.ResumeRecord) RecordResponse {
	return RecordResponse{
		ID:            r.ID,
		UserID:        r.UserID,
		FileName:      r.FileName,
		FileURL:       r.FileURL,
		MediaType:     r.MediaType,
		ExtractedData: r.ExtractedData,
		ProcessedAt:   r.ProcessedAt,
		CreatedAt:     r.CreatedAt,
	}
}
