package model

import "time"

// PollResponse 一次作答一行，允许同一学生多次提交，全部计入统计
type PollResponse struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PollID    uint      `gorm:"not null;index" json:"poll_id"`
	StudentID string    `gorm:"type:varchar(64);not null" json:"student_id"`
	Answer    string    `gorm:"type:text;not null" json:"answer"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (PollResponse) TableName() string {
	return "poll_responses"
}
