package repository

import (
	"errors"

	"classroom_backend/internal/model"
	"classroom_backend/internal/util"

	"gorm.io/gorm"
)

type PollRepository struct {
	DB *gorm.DB
}

func NewPollRepository(db *gorm.DB) *PollRepository {
	return &PollRepository{DB: db}
}

func (r *PollRepository) Create(poll *model.Poll) error {
	return r.DB.Create(poll).Error
}

func (r *PollRepository) GetByID(id uint) (*model.Poll, error) {
	var poll model.Poll
	err := r.DB.First(&poll, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrPollNotFound
	}
	if err != nil {
		return nil, err
	}
	return &poll, nil
}

func (r *PollRepository) Close(id uint) error {
	return r.DB.Model(&model.Poll{}).Where("id = ?", id).Update("closed", true).Error
}

func (r *PollRepository) AddResponse(resp *model.PollResponse) error {
	return r.DB.Create(resp).Error
}

// Results 按选项分组计票。迟到和重复的作答都算在内。
func (r *PollRepository) Results(pollID uint) ([]model.AnswerCount, error) {
	var results []model.AnswerCount
	err := r.DB.Model(&model.PollResponse{}).
		Select("answer, COUNT(*) as count").
		Where("poll_id = ?", pollID).
		Group("answer").
		Scan(&results).Error
	return results, err
}

func (r *PollRepository) ListByClass(classID uint) ([]*model.Poll, error) {
	var polls []*model.Poll
	err := r.DB.Where("class_id = ?", classID).Order("created_at ASC").Find(&polls).Error
	return polls, err
}

// ResponsesForClass 导出归档用：该课堂所有投票的全部作答
func (r *PollRepository) ResponsesForClass(classID uint) ([]*model.PollResponse, error) {
	var responses []*model.PollResponse
	err := r.DB.Where("poll_id IN (?)",
		r.DB.Model(&model.Poll{}).Select("id").Where("class_id = ?", classID),
	).Find(&responses).Error
	return responses, err
}
