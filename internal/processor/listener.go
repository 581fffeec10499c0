package processor

import (
	"context"

	"github.com/AayushPaigwar/resume-sync-ai/internal/logger"
)

// LoggingListener 默认监听器，把状态转换写入日志
type LoggingListener struct{}

// NewLoggingListener 创建默认监听器
func NewLoggingListener() *LoggingListener {
	return &LoggingListener{}
}

func (l *LoggingListener) OnStep(ctx context.Context, resumeID string, state State, label string) {
	event := logger.Info()
	if state == StateFailed {
		event = logger.Warn()
	}
	event.Str("resume_id", resumeID).Str("state", string(state)).Msg(label)
}

// MultiListener 依次通知多个监听器
type MultiListener []StepListener

func (m MultiListener) OnStep(ctx context.Context, resumeID string, state State, label string) {
	for _, l := range m {
		if l != nil {
			l.OnStep(ctx, resumeID, state, label)
		}
	}
}

// StatusListener 把状态转换写入进度存储，写入失败只记录日志
type StatusListener struct {
	store StatusStore
}

// NewStatusListener 创建进度监听器
func NewStatusListener(store StatusStore) *StatusListener {
	return &StatusListener{store: store}
}

func (l *StatusListener) OnStep(ctx context.Context, resumeID string, state State, label string) {
	if err := l.store.SaveStatus(ctx, resumeID, string(state), label); err != nil {
		logger.Warn().Err(err).Str("resume_id", resumeID).Msg("保存处理进度失败")
	}
}
