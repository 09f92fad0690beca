package repository

import (
	"classroom_backend/internal/model"

	"gorm.io/gorm"
)

type OutboxRepository struct {
	DB *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{DB: db}
}

// Enqueue 在落库的变更之后追加一条待复制记录。
// 需要和业务写入同事务时走 EnqueueTx。
func (r *OutboxRepository) Enqueue(record *model.OutboxRecord) error {
	return r.DB.Create(record).Error
}

func (r *OutboxRepository) EnqueueTx(tx *gorm.DB, record *model.OutboxRecord) error {
	return tx.Create(record).Error
}

// PendingBatch 取最旧的一批未同步记录，按创建顺序复制
func (r *OutboxRepository) PendingBatch(limit int) ([]*model.OutboxRecord, error) {
	var records []*model.OutboxRecord
	err := r.DB.Where("synced = ?", false).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// MarkSynced synced 单向翻转，不提供回退
func (r *OutboxRepository) MarkSynced(id uint) error {
	return r.DB.Model(&model.OutboxRecord{}).Where("id = ?", id).Update("synced", true).Error
}

func (r *OutboxRepository) PendingCount() (int64, error) {
	var count int64
	err := r.DB.Model(&model.OutboxRecord{}).Where("synced = ?", false).Count(&count).Error
	return count, err
}
