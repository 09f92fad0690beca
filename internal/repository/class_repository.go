package repository

import (
	"encoding/json"
	"errors"
	"time"

	"classroom_backend/internal/model"
	"classroom_backend/internal/util"

	"gorm.io/gorm"
)

type ClassRepository struct {
	DB *gorm.DB
}

func NewClassRepository(db *gorm.DB) *ClassRepository {
	return &ClassRepository{DB: db}
}

func (r *ClassRepository) Create(class *model.ClassSession) error {
	return r.DB.Create(class).Error
}

func (r *ClassRepository) GetByID(id uint) (*model.ClassSession, error) {
	var class model.ClassSession
	err := r.DB.First(&class, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrClassNotFound
	}
	if err != nil {
		return nil, err
	}
	return &class, nil
}

// End 下课：标记结束并在同一事务里给发件箱追加一条复制记录，
// 课堂行的快照作为payload，避免为一条没落库的变更排队上云。
func (r *ClassRepository) End(id uint, endTime time.Time) error {
	tx := r.DB.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	if err := tx.Model(&model.ClassSession{}).Where("id = ?", id).Updates(map[string]interface{}{
		"end_time": endTime,
		"status":   model.ClassStatusEnded,
	}).Error; err != nil {
		tx.Rollback()
		return err
	}

	var class model.ClassSession
	if err := tx.First(&class, id).Error; err != nil {
		tx.Rollback()
		return err
	}

	snapshot, err := json.Marshal(&class)
	if err != nil {
		tx.Rollback()
		return err
	}

	record := &model.OutboxRecord{
		Table:    model.ClassSession{}.TableName(),
		RecordID: id,
		Action:   "update",
		Data:     string(snapshot),
	}
	if err := tx.Create(record).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// 统计当前仍处于active的课堂数，用于不变量校验
func (r *ClassRepository) CountActive() (int64, error) {
	var count int64
	err := r.DB.Model(&model.ClassSession{}).Where("status = ?", model.ClassStatusActive).Count(&count).Error
	return count, err
}
