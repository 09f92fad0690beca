package model

import "time"

// OutboxRecord 待上云的本地变更。synced 只会从 false 翻到 true，不会回退。
type OutboxRecord struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Table     string    `gorm:"column:table_name;type:varchar(64);not null" json:"table_name"`
	RecordID  uint      `gorm:"not null" json:"record_id"`
	Action    string    `gorm:"type:varchar(16);not null" json:"action"`
	Data      string    `gorm:"type:text;not null" json:"data"`
	Synced    bool      `gorm:"default:false;index" json:"synced"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (OutboxRecord) TableName() string {
	return "sync_queue"
}
