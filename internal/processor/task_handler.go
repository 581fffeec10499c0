package processor

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/AayushPaigwar/resume-sync-ai/internal/logger"
	"github.com/AayushPaigwar/resume-sync-ai/internal/types"
)

// HandleProcessTask 队列消费回调，返回 false 表示需要重新入队
func (o *Orchestrator) HandleProcessTask(ctx context.Context, task *types.ProcessResumeTask) bool {
	if task == nil || task.ResumeID == "" {
		logger.Error().Msg("收到无效的处理任务，丢弃")
		return true
	}
	_, err := o.ProcessStored(ctx, task.ResumeID)
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrProcessingInProgress):
		logger.Info().Str("resume_id", task.ResumeID).Msg("简历正在处理中，消息重新入队")
		return false
	default:
		logger.Error().Err(err).Str("resume_id", task.ResumeID).Msg("处理任务失败")
		return true
	}
}

// HandleProcessMessage 解析队列消息体后处理，格式错误的消息直接确认丢弃
func (o *Orchestrator) HandleProcessMessage(ctx context.Context, body []byte) bool {
	var task types.ProcessResumeTask
	if err := json.Unmarshal(body, &task); err != nil {
		logger.Error().Err(err).Int("size", len(body)).Msg("无法解析处理任务消息")
		return true
	}
	return o.HandleProcessTask(ctx, &task)
}
