package outbox // 发件箱模式：事件先落库，再由中继发布到消息代理

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AayushPaigwar/resume-sync-ai/internal/storage/models"
	"github.com/AayushPaigwar/resume-sync-ai/internal/types"

	"gorm.io/gorm"
)

// EventTypeResumeExtracted 抽取完成事件
const EventTypeResumeExtracted = "resume.extracted"

// Writer 把事件写入 outbox 表
type Writer struct {
	db         *gorm.DB
	exchange   string
	routingKey string
}

// NewWriter 创建发件箱写入器
func NewWriter(db *gorm.DB, exchange, routingKey string) *Writer {
	return &Writer{db: db, exchange: exchange, routingKey: routingKey}
}

// PublishResumeExtracted 写入一条待发布消息
func (w *Writer) PublishResumeExtracted(ctx context.Context, event *types.ResumeExtractedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}
	msg := &models.OutboxMessage{
		AggregateID:      event.ResumeID,
		EventType:        EventTypeResumeExtracted,
		Payload:          string(payload),
		TargetExchange:   w.exchange,
		TargetRoutingKey: w.routingKey,
		Status:           models.OutboxStatusPending,
	}
	if err := w.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("写入发件箱失败: %w", err)
	}
	return nil
}
