package model

import "time"

const (
	ClassStatusActive = "active"
	ClassStatusEnded  = "ended"
)

// ClassSession 一节课：老师开课时创建，下课时置为 ended，之后不再变更
type ClassSession struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	ClassName string     `gorm:"type:text;not null" json:"class_name"`
	TeacherID string     `gorm:"type:varchar(64);not null;index" json:"teacher_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Status    string     `gorm:"type:varchar(16);default:active;index" json:"status"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (ClassSession) TableName() string {
	return "classes"
}
