package util

import "errors"

// 仓储层把gorm的record-not-found翻译成这组领域错误
var (
	ErrClassNotFound = errors.New("class not found")
	ErrPollNotFound  = errors.New("poll not found")
)
