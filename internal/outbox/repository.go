package outbox

import (
	"context"
	"time"

	"github.com/AayushPaigwar/resume-sync-ai/internal/storage"
	"github.com/AayushPaigwar/resume-sync-ai/internal/types"

	"gorm.io/gorm"
)

// Repository 简历仓储，保存记录与写入 outbox 在同一事务内完成
type Repository struct {
	*storage.MySQL
	exchange   string
	routingKey string
}

// NewRepository 包装 MySQL 仓储
func NewRepository(mysql *storage.MySQL, exchange, routingKey string) *Repository {
	return &Repository{MySQL: mysql, exchange: exchange, routingKey: routingKey}
}

// CreateWithEvent 新建记录并登记 resume.extracted 事件
func (r *Repository) CreateWithEvent(ctx context.Context, record *types.ResumeRecord, event *types.ResumeExtractedEvent) error {
	return r.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.MySQL.WithTx(tx).Create(ctx, record); err != nil {
			return err
		}
		return NewWriter(tx, r.exchange, r.routingKey).PublishResumeExtracted(ctx, event)
	})
}

// UpdateExtractedDataWithEvent 写回抽取结果并登记事件
func (r *Repository) UpdateExtractedDataWithEvent(ctx context.Context, id string, data *types.StructuredResumeData, processedAt time.Time, event *types.ResumeExtractedEvent) error {
	return r.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.MySQL.WithTx(tx).UpdateExtractedData(ctx, id, data, processedAt); err != nil {
			return err
		}
		return NewWriter(tx, r.exchange, r.routingKey).PublishResumeExtracted(ctx, event)
	})
}
