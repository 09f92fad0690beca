package repository

import (
	"classroom_backend/internal/model"

	"gorm.io/gorm"
)

type TranscriptionRepository struct {
	DB *gorm.DB
}

func NewTranscriptionRepository(db *gorm.DB) *TranscriptionRepository {
	return &TranscriptionRepository{DB: db}
}

func (r *TranscriptionRepository) Create(entry *model.Transcription) error {
	return r.DB.Create(entry).Error
}

func (r *TranscriptionRepository) ListByClass(classID uint) ([]*model.Transcription, error) {
	var entries []*model.Transcription
	err := r.DB.Where("class_id = ?", classID).Order("timestamp ASC").Find(&entries).Error
	return entries, err
}
