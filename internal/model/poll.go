package model

import (
	"encoding/json"
	"time"
)

// Poll 课堂投票，选项以JSON文本存储
type Poll struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ClassID   uint      `gorm:"not null;index" json:"class_id"`
	Question  string    `gorm:"type:text;not null" json:"question"`
	Options   string    `gorm:"type:text;not null" json:"-"`
	Closed    bool      `gorm:"default:false" json:"closed"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Poll) TableName() string {
	return "polls"
}

func (p *Poll) SetOptions(options []string) error {
	raw, err := json.Marshal(options)
	if err != nil {
		return err
	}
	p.Options = string(raw)
	return nil
}

func (p *Poll) OptionList() ([]string, error) {
	var options []string
	if err := json.Unmarshal([]byte(p.Options), &options); err != nil {
		return nil, err
	}
	return options, nil
}

// AnswerCount 按选项分组的计票结果
type AnswerCount struct {
	Answer string `json:"answer"`
	Count  int64  `json:"count"`
}
