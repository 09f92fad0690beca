package service

import (
	"encoding/json"

	"classroom_backend/pkg/logger"

	"go.uber.org/zap"
)

// EventRouter 把wire事件分发到各业务服务。
// payload解析失败按坏消息丢弃，不打断连接。
type EventRouter struct {
	sessions    *SessionService
	polls       *PollService
	transcripts *TranscriptService
	storage     *StorageService
}

func NewEventRouter(sessions *SessionService, polls *PollService, transcripts *TranscriptService, storage *StorageService) *EventRouter {
	return &EventRouter{
		sessions:    sessions,
		polls:       polls,
		transcripts: transcripts,
		storage:     storage,
	}
}

func (r *EventRouter) HandleEvent(c *Client, event string, data json.RawMessage) {
	switch event {
	case EventTeacherJoin:
		var payload TeacherJoinPayload
		if !decode(data, &payload, event) {
			return
		}
		r.sessions.HandleTeacherJoin(c, payload)

	case EventStudentJoin:
		var payload StudentJoinPayload
		if !decode(data, &payload, event) {
			return
		}
		r.sessions.HandleStudentJoin(c, payload)

	case EventCreatePoll:
		var payload CreatePollPayload
		if !decode(data, &payload, event) {
			return
		}
		r.polls.HandleCreatePoll(c, payload)

	case EventPollResponse:
		var payload PollResponsePayload
		if !decode(data, &payload, event) {
			return
		}
		r.polls.HandlePollResponse(c, payload)

	case EventClosePoll:
		var payload ClosePollPayload
		if !decode(data, &payload, event) {
			return
		}
		r.polls.HandleClosePoll(c, payload)

	case EventAddTranscription:
		var payload TranscriptionPayload
		if !decode(data, &payload, event) {
			return
		}
		r.transcripts.HandleAddTranscription(c, payload)

	case EventEndClass:
		var payload EndClassPayload
		if !decode(data, &payload, event) {
			return
		}
		r.sessions.HandleEndClass(c, payload)

	case EventSharePPT:
		var payload SharePPTPayload
		if !decode(data, &payload, event) {
			return
		}
		r.storage.HandleSharePPT(c, payload)

	default:
		logger.Log.Debug("Unknown event", zap.String("event", event))
	}
}

func decode(data json.RawMessage, v interface{}, event string) bool {
	if err := json.Unmarshal(data, v); err != nil {
		logger.Log.Warn("Malformed event payload", zap.String("event", event), zap.Error(err))
		return false
	}
	return true
}
