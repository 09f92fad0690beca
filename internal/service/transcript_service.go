package service

import (
	"classroom_backend/internal/model"
	"classroom_backend/internal/repository"
	"classroom_backend/pkg/blink"
	"classroom_backend/pkg/logger"

	"go.uber.org/zap"
)

type TranscriptService struct {
	transcripts *repository.TranscriptionRepository
	sessions    *SessionService
	hub         *ClassroomHub
	notifier    blink.Notifier
}

func NewTranscriptService(transcripts *repository.TranscriptionRepository, sessions *SessionService, hub *ClassroomHub, notifier blink.Notifier) *TranscriptService {
	return &TranscriptService{
		transcripts: transcripts,
		sessions:    sessions,
		hub:         hub,
		notifier:    notifier,
	}
}

// HandleAddTranscription 没课时静默丢弃
func (t *TranscriptService) HandleAddTranscription(c *Client, payload TranscriptionPayload) {
	active := t.sessions.ActiveClass()
	if active == nil {
		return
	}

	entry := &model.Transcription{
		ClassID: active.ID,
		Text:    payload.Text,
	}
	if err := t.transcripts.Create(entry); err != nil {
		logger.Log.Error("Error saving transcription", zap.Error(err))
		return
	}

	label := payload.Text
	if len(label) > 50 {
		label = label[:50] + "..."
	}
	t.notifier.Notify(blink.Quick(1), "Transcription added: "+label)

	t.hub.BroadcastAll(EventTranscriptionAdded, map[string]interface{}{
		"text":      entry.Text,
		"timestamp": entry.Timestamp,
	})
}
