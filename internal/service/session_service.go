package service

import (
	"sync"
	"time"

	"classroom_backend/internal/model"
	"classroom_backend/internal/repository"
	"classroom_backend/pkg/blink"
	"classroom_backend/pkg/logger"

	"go.uber.org/zap"
)

// Archiver 下课后把整节课导出为本地归档，失败只记日志
type Archiver interface {
	ArchiveClass(classID uint) (string, error)
}

// SessionService 课堂状态机。唯一的活动课堂引用只在这里持有，
// 所有状态迁移都在 mu 内串行执行。
type SessionService struct {
	mu       sync.Mutex
	active   *model.ClassSession
	classes  *repository.ClassRepository
	hub      *ClassroomHub
	notifier blink.Notifier
	archiver Archiver
}

func NewSessionService(classes *repository.ClassRepository, hub *ClassroomHub, notifier blink.Notifier) *SessionService {
	return &SessionService{
		classes:  classes,
		hub:      hub,
		notifier: notifier,
	}
}

func (s *SessionService) SetArchiver(archiver Archiver) {
	s.archiver = archiver
}

// ActiveClass 返回当前活动课堂的快照，没有则为nil
func (s *SessionService) ActiveClass() *model.ClassSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	snapshot := *s.active
	return &snapshot
}

// HandleTeacherJoin 老师上线即开课。如果上一节课还没下课，
// 先把它正常结束（落库、进发件箱、广播class-ended），再开新的一节，
// 保证任何时刻最多只有一节active的课。
func (s *SessionService) HandleTeacherJoin(c *Client, payload TeacherJoinPayload) {
	s.hub.Join(c, RoomTeacher)

	className := payload.ClassName
	if className == "" {
		className = "Class Session"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		logger.Log.Warn("Teacher joined with a class still active, ending previous class",
			zap.Uint("previousClassId", s.active.ID))
		s.endActiveLocked()
	}

	class := &model.ClassSession{
		ClassName: className,
		TeacherID: payload.TeacherID,
		StartTime: time.Now(),
		Status:    model.ClassStatusActive,
	}
	if err := s.classes.Create(class); err != nil {
		logger.Log.Error("Error creating class", zap.Error(err))
		return
	}
	s.active = class

	logger.Log.Info("Teacher joined", zap.String("teacherId", payload.TeacherID), zap.Uint("classId", class.ID))
	s.notifier.Notify(blink.Slow(3), "Class started: "+className)

	s.hub.Unicast(c, EventClassStarted, map[string]interface{}{
		"class_id": class.ID,
	})
	s.hub.BroadcastAll(EventClassActive, map[string]interface{}{
		"class_id": class.ID,
	})
	s.hub.BroadcastToRoom(RoomStudents, EventClassInfo, map[string]interface{}{
		"class_name": class.ClassName,
		"class_id":   class.ID,
	})
}

// HandleStudentJoin 登记学生并立刻回一条当前状态：
// 有课发class-info，没课发student-waiting，客户端不用靠沉默猜状态。
func (s *SessionService) HandleStudentJoin(c *Client, payload StudentJoinPayload) {
	s.hub.Join(c, RoomStudents)
	total := s.hub.RegisterParticipant(c, &model.Participant{
		StudentID:   payload.StudentID,
		StudentName: payload.StudentName,
	})

	logger.Log.Info("Student joined",
		zap.String("studentId", payload.StudentID),
		zap.String("studentName", payload.StudentName))

	s.hub.BroadcastToRoom(RoomTeacher, EventStudentConnected, map[string]interface{}{
		"student_id":     payload.StudentID,
		"student_name":   payload.StudentName,
		"total_students": total,
	})

	s.notifier.Notify(blink.Quick(1), "Student joined: "+payload.StudentName)

	active := s.ActiveClass()
	if active != nil {
		s.hub.Unicast(c, EventClassInfo, map[string]interface{}{
			"class_name": active.ClassName,
			"class_id":   active.ID,
		})
	} else {
		s.hub.Unicast(c, EventStudentWaiting, map[string]interface{}{
			"message": "Waiting for teacher to start class",
			"status":  "ready",
		})
	}
}

// HandleEndClass 没有活动课堂或id对不上时静默忽略，重复调用是no-op
func (s *SessionService) HandleEndClass(c *Client, payload EndClassPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return
	}
	if payload.ClassID != 0 && payload.ClassID != s.active.ID {
		logger.Log.Warn("end-class for a class that is not active, ignoring",
			zap.Uint("requestedClassId", payload.ClassID),
			zap.Uint("activeClassId", s.active.ID))
		return
	}

	s.endActiveLocked()
}

// endActiveLocked 调用方必须持有 s.mu
func (s *SessionService) endActiveLocked() {
	class := s.active
	if class == nil {
		return
	}

	if err := s.classes.End(class.ID, time.Now()); err != nil {
		// 落库失败就放弃本次结束，不做半截广播
		logger.Log.Error("Error ending class", zap.Error(err), zap.Uint("classId", class.ID))
		return
	}

	logger.Log.Info("Class ended", zap.Uint("classId", class.ID))
	s.notifier.Notify(blink.Slow(3), "Class ended")

	s.hub.BroadcastAll(EventClassEnded, map[string]interface{}{
		"class_id": class.ID,
	})
	s.hub.ClearParticipants()
	s.active = nil

	if s.archiver != nil {
		go func(id uint) {
			if path, err := s.archiver.ArchiveClass(id); err != nil {
				logger.Log.Error("Error archiving class data", zap.Error(err), zap.Uint("classId", id))
			} else {
				logger.Log.Info("Archived class data", zap.String("path", path))
			}
		}(class.ID)
	}
}
