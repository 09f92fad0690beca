package service

import "encoding/json"

// 客户端 → 服务端事件
const (
	EventTeacherJoin      = "teacher-join"
	EventStudentJoin      = "student-join"
	EventCreatePoll       = "create-poll"
	EventPollResponse     = "poll-response"
	EventClosePoll        = "close-poll"
	EventAddTranscription = "add-transcription"
	EventEndClass         = "end-class"
	EventSharePPT         = "share-ppt"
)

// 服务端 → 客户端事件
const (
	EventClassStarted       = "class-started"
	EventClassActive        = "class-active"
	EventClassInfo          = "class-info"
	EventStudentWaiting     = "student-waiting"
	EventStudentConnected   = "student-connected"
	EventStudentDisconnect  = "student-disconnected"
	EventPollReceived       = "poll-received"
	EventPollCreated        = "poll-created"
	EventPollResultsUpdated = "poll-results-updated"
	EventPollClosed         = "poll-closed"
	EventPollFinalResults   = "poll-final-results"
	EventTranscriptionAdded = "transcription-added"
	EventClassEnded         = "class-ended"
	EventPPTReceived        = "ppt-received"
	EventError              = "error"
	EventServerShutdown     = "server-shutdown"
)

// Envelope 双向统一的消息壳：{"event": ..., "data": {...}}
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type TeacherJoinPayload struct {
	TeacherID string `json:"teacher_id"`
	ClassName string `json:"class_name"`
}

type StudentJoinPayload struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
}

type CreatePollPayload struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type PollResponsePayload struct {
	PollID uint   `json:"poll_id"`
	Answer string `json:"answer"`
}

type ClosePollPayload struct {
	PollID uint `json:"poll_id"`
}

type TranscriptionPayload struct {
	Text string `json:"text"`
}

type EndClassPayload struct {
	ClassID uint `json:"class_id"`
}

type SharePPTPayload struct {
	Filename string `json:"filename"`
}
