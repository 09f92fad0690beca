package model

import "time"

// Transcription 课堂转写记录，只追加
type Transcription struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ClassID   uint      `gorm:"not null;index" json:"class_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Timestamp time.Time `gorm:"autoCreateTime" json:"timestamp"`
}

func (Transcription) TableName() string {
	return "transcriptions"
}
