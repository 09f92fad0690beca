package service

import (
	"fmt"

	"classroom_backend/internal/model"
	"classroom_backend/internal/repository"
	"classroom_backend/pkg/blink"
	"classroom_backend/pkg/logger"

	"go.uber.org/zap"
)

// PollService 投票生命周期与计票
type PollService struct {
	polls    *repository.PollRepository
	sessions *SessionService
	hub      *ClassroomHub
	notifier blink.Notifier
}

func NewPollService(polls *repository.PollRepository, sessions *SessionService, hub *ClassroomHub, notifier blink.Notifier) *PollService {
	return &PollService{
		polls:    polls,
		sessions: sessions,
		hub:      hub,
		notifier: notifier,
	}
}

// HandleCreatePoll 没有活动课堂时把错误回给发起连接，不影响其他状态
func (p *PollService) HandleCreatePoll(c *Client, payload CreatePollPayload) {
	active := p.sessions.ActiveClass()
	if active == nil {
		p.hub.Unicast(c, EventError, map[string]interface{}{
			"message": "No active class",
		})
		return
	}
	if len(payload.Options) < 2 {
		p.hub.Unicast(c, EventError, map[string]interface{}{
			"message": "Poll requires at least 2 options",
		})
		return
	}

	poll := &model.Poll{
		ClassID:  active.ID,
		Question: payload.Question,
	}
	if err := poll.SetOptions(payload.Options); err != nil {
		logger.Log.Error("Error encoding poll options", zap.Error(err))
		return
	}
	if err := p.polls.Create(poll); err != nil {
		logger.Log.Error("Error creating poll", zap.Error(err))
		return
	}

	p.notifier.Notify(blink.Double(), "Poll created: "+payload.Question)

	data := map[string]interface{}{
		"poll_id":  poll.ID,
		"question": poll.Question,
		"options":  payload.Options,
	}
	p.hub.BroadcastToRoom(RoomStudents, EventPollReceived, data)
	p.hub.BroadcastToRoom(RoomTeacher, EventPollCreated, data)
}

// HandlePollResponse 未登记的连接直接丢弃。作答无条件入库——
// 投票关没关不查，迟到和重复的作答照收照算。
func (p *PollService) HandlePollResponse(c *Client, payload PollResponsePayload) {
	participant, ok := p.hub.ParticipantFor(c.ID)
	if !ok {
		logger.Log.Warn("Poll response from unknown participant dropped", zap.String("connId", c.ID))
		return
	}

	resp := &model.PollResponse{
		PollID:    payload.PollID,
		StudentID: participant.StudentID,
		Answer:    payload.Answer,
	}
	if err := p.polls.AddResponse(resp); err != nil {
		logger.Log.Error("Error saving poll response", zap.Error(err))
		return
	}

	p.notifier.Notify(blink.Quick(1), fmt.Sprintf("Poll response from %s: %s", participant.StudentName, payload.Answer))

	results, err := p.polls.Results(payload.PollID)
	if err != nil {
		logger.Log.Error("Error fetching poll results", zap.Error(err))
		return
	}

	// 实时计票只发老师端，学生要等收盘才能看到结果
	p.hub.BroadcastToRoom(RoomTeacher, EventPollResultsUpdated, map[string]interface{}{
		"poll_id":         payload.PollID,
		"results":         results,
		"total_responses": totalResponses(results),
	})
}

// HandleClosePoll 收盘对所有人广播最终计票。这个快照就是学生
// 唯一能看到的结果视图；之后再来的作答不会改写已发出的快照。
func (p *PollService) HandleClosePoll(c *Client, payload ClosePollPayload) {
	if err := p.polls.Close(payload.PollID); err != nil {
		logger.Log.Error("Error closing poll", zap.Error(err))
		return
	}

	p.hub.BroadcastAll(EventPollClosed, map[string]interface{}{
		"poll_id": payload.PollID,
	})

	results, err := p.polls.Results(payload.PollID)
	if err != nil {
		logger.Log.Error("Error fetching final poll results", zap.Error(err))
		return
	}
	p.hub.BroadcastAll(EventPollFinalResults, map[string]interface{}{
		"poll_id": payload.PollID,
		"results": results,
	})
}

func totalResponses(results []model.AnswerCount) int64 {
	var total int64
	for _, r := range results {
		total += r.Count
	}
	return total
}
