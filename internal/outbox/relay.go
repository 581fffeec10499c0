package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/AayushPaigwar/resume-sync-ai/internal/logger"
	"github.com/AayushPaigwar/resume-sync-ai/internal/metrics"
	"github.com/AayushPaigwar/resume-sync-ai/internal/storage/models"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultPollingInterval = 5 * time.Second // 轮询 outbox 表的间隔
	defaultBatchSize       = 10              // 每次轮询处理的消息数
	maxRetryCount          = 5               // 超过后标记为 FAILED
)

// MessagePublisher 消息代理的发布能力
type MessagePublisher interface {
	PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error
}

// MessageRelay 轮询 outbox 表并将消息发布到消息代理
type MessageRelay struct {
	db              *gorm.DB
	publisher       MessagePublisher
	logger          zerolog.Logger
	pollingInterval time.Duration
	batchSize       int
	done            chan struct{}
	wg              sync.WaitGroup
	tracer          trace.Tracer
	now             func() time.Time
}

// NewMessageRelay 创建中继
func NewMessageRelay(db *gorm.DB, publisher MessagePublisher) *MessageRelay {
	return &MessageRelay{
		db:              db,
		publisher:       publisher,
		logger:          logger.Named("outbox-relay"),
		pollingInterval: defaultPollingInterval,
		batchSize:       defaultBatchSize,
		done:            make(chan struct{}),
		tracer:          otel.Tracer("resume-sync/outbox"),
		now:             time.Now,
	}
}

// Start 后台轮询
func (r *MessageRelay) Start() {
	r.logger.Info().Dur("interval", r.pollingInterval).Msg("MessageRelay starting")
	ticker := time.NewTicker(r.pollingInterval)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-r.done:
				r.logger.Info().Msg("MessageRelay stopped")
				return
			case <-ticker.C:
				if err := r.processPendingMessages(context.Background()); err != nil {
					r.logger.Error().Err(err).Msg("处理待发布消息失败")
				}
			}
		}
	}()
}

// Stop 等待当前批次结束后退出
func (r *MessageRelay) Stop() {
	close(r.done)
	r.wg.Wait()
}

// processPendingMessages 取一批 PENDING 消息发布并更新状态
func (r *MessageRelay) processPendingMessages(ctx context.Context) error {
	var messages []models.OutboxMessage

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer tx.Rollback()

	// SKIP LOCKED 允许多个实例同时轮询
	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ?", models.OutboxStatusPending).
		Order("created_at asc").
		Limit(r.batchSize).
		Find(&messages).Error
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return tx.Commit().Error
	}

	// 空轮询不产生 span
	ctx, span := r.tracer.Start(ctx, "outbox.ProcessBatch",
		trace.WithAttributes(attribute.Int("messaging.batch.message_count", len(messages))))
	defer span.End()

	for _, msg := range messages {
		updates := map[string]interface{}{}
		if err := r.publisher.PublishMessage(ctx, msg.TargetExchange, msg.TargetRoutingKey, []byte(msg.Payload), true); err != nil {
			r.logger.Warn().Err(err).Uint64("id", msg.ID).Str("resume_id", msg.AggregateID).Int("retries", msg.RetryCount+1).Msg("发布消息失败")
			metrics.EventsPublished.WithLabelValues("relay_failed").Inc()
			updates["retry_count"] = msg.RetryCount + 1
			updates["error_message"] = err.Error()
			if msg.RetryCount+1 >= maxRetryCount {
				updates["status"] = models.OutboxStatusFailed
			}
		} else {
			metrics.EventsPublished.WithLabelValues("relayed").Inc()
			updates["status"] = models.OutboxStatusSent
			updates["processed_at"] = r.now()
			updates["error_message"] = ""
		}

		if err := tx.Model(&models.OutboxMessage{}).Where("id = ?", msg.ID).Updates(updates).Error; err != nil {
			// 整个批次回滚，下次轮询重新拾取
			return err
		}
	}
	return tx.Commit().Error
}
