package service

import (
	"encoding/json"
	"testing"

	"classroom_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeacherJoinStartsClass(t *testing.T) {
	f := newClassroomFixture(t)
	teacher := newTestClient(f.hub)
	student := newTestClient(f.hub)
	f.sessions.HandleStudentJoin(student, StudentJoinPayload{StudentID: "s-1", StudentName: "Ana"})
	drainEvents(t, student)

	f.sessions.HandleTeacherJoin(teacher, TeacherJoinPayload{TeacherID: "t-1", ClassName: "Algebra I"})

	active := f.sessions.ActiveClass()
	require.NotNil(t, active)
	assert.Equal(t, "Algebra I", active.ClassName)
	assert.Equal(t, "t-1", active.TeacherID)
	assert.Equal(t, model.ClassStatusActive, active.Status)

	teacherEvents := drainEvents(t, teacher)
	assert.Contains(t, teacherEvents, EventClassStarted)
	assert.Contains(t, teacherEvents, EventClassActive)

	studentEvents := drainEvents(t, student)
	assert.Contains(t, studentEvents, EventClassActive)
	var info struct {
		ClassName string `json:"class_name"`
		ClassID   uint   `json:"class_id"`
	}
	require.NotEmpty(t, studentEvents[EventClassInfo])
	require.NoError(t, json.Unmarshal(studentEvents[EventClassInfo][0], &info))
	assert.Equal(t, "Algebra I", info.ClassName)
	assert.Equal(t, active.ID, info.ClassID)
}

func TestTeacherJoinDefaultsClassName(t *testing.T) {
	f := newClassroomFixture(t)
	teacher := newTestClient(f.hub)

	f.sessions.HandleTeacherJoin(teacher, TeacherJoinPayload{TeacherID: "t-1"})

	active := f.sessions.ActiveClass()
	require.NotNil(t, active)
	assert.Equal(t, "Class Session", active.ClassName)
}

func TestTeacherRejoinEndsPreviousClass(t *testing.T) {
	f := newClassroomFixture(t)
	teacher := newTestClient(f.hub)

	f.sessions.HandleTeacherJoin(teacher, TeacherJoinPayload{TeacherID: "t-1", ClassName: "First"})
	first := f.sessions.ActiveClass()
	require.NotNil(t, first)
	drainEvents(t, teacher)

	f.sessions.HandleTeacherJoin(teacher, TeacherJoinPayload{TeacherID: "t-1", ClassName: "Second"})

	// 任何时刻至多一节active的课
	count, err := f.classes.CountActive()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	previous, err := f.classes.GetByID(first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ClassStatusEnded, previous.Status)
	assert.NotNil(t, previous.EndTime)

	events := drainEvents(t, teacher)
	assert.Contains(t, events, EventClassEnded)
	assert.Contains(t, events, EventClassStarted)
}

func TestStudentJoinBeforeClassGetsWaiting(t *testing.T) {
	f := newClassroomFixture(t)
	teacher := newTestClient(f.hub)
	f.hub.Join(teacher, RoomTeacher)
	student := newTestClient(f.hub)

	f.sessions.HandleStudentJoin(student, StudentJoinPayload{StudentID: "s-1", StudentName: "Ana"})

	events := drainEvents(t, student)
	assert.Contains(t, events, EventStudentWaiting)
	assert.NotContains(t, events, EventClassInfo)

	var connected struct {
		StudentID     string `json:"student_id"`
		StudentName   string `json:"student_name"`
		TotalStudents int    `json:"total_students"`
	}
	require.NoError(t, json.Unmarshal(lastEvent(t, teacher, EventStudentConnected), &connected))
	assert.Equal(t, "s-1", connected.StudentID)
	assert.Equal(t, "Ana", connected.StudentName)
	assert.Equal(t, 1, connected.TotalStudents)
}

func TestStudentJoinDuringClassGetsClassInfo(t *testing.T) {
	f := newClassroomFixture(t)
	teacher := newTestClient(f.hub)
	f.sessions.HandleTeacherJoin(teacher, TeacherJoinPayload{TeacherID: "t-1", ClassName: "Algebra I"})
	student := newTestClient(f.hub)

	f.sessions.HandleStudentJoin(student, StudentJoinPayload{StudentID: "s-1", StudentName: "Ana"})

	events := drainEvents(t, student)
	assert.Contains(t, events, EventClassInfo)
	assert.NotContains(t, events, EventStudentWaiting)
}

func TestEndClassClearsParticipantsAndBroadcasts(t *testing.T) {
	f := newClassroomFixture(t)
	teacher := newTestClient(f.hub)
	student := newTestClient(f.hub)
	f.sessions.HandleTeacherJoin(teacher, TeacherJoinPayload{TeacherID: "t-1", ClassName: "Algebra I"})
	f.sessions.HandleStudentJoin(student, StudentJoinPayload{StudentID: "s-1", StudentName: "Ana"})
	active := f.sessions.ActiveClass()
	require.NotNil(t, active)
	drainEvents(t, teacher)
	drainEvents(t, student)

	f.sessions.HandleEndClass(teacher, EndClassPayload{ClassID: active.ID})

	assert.Nil(t, f.sessions.ActiveClass())
	assert.Equal(t, 0, f.hub.StudentCount())
	assert.Contains(t, drainEvents(t, teacher), EventClassEnded)
	assert.Contains(t, drainEvents(t, student), EventClassEnded)

	ended, err := f.classes.GetByID(active.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ClassStatusEnded, ended.Status)

	// 下课要进发件箱等待上云
	pending, err := f.outbox.PendingBatch(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "classes", pending[0].Table)
	assert.Equal(t, "update", pending[0].Action)
}

func TestEndClassWithoutActiveClassIsNoop(t *testing.T) {
	f := newClassroomFixture(t)
	teacher := newTestClient(f.hub)

	f.sessions.HandleEndClass(teacher, EndClassPayload{ClassID: 42})

	assert.Nil(t, f.sessions.ActiveClass())
	assert.NotContains(t, drainEvents(t, teacher), EventClassEnded)
}

func TestEndClassMismatchedIDIsIgnored(t *testing.T) {
	f := newClassroomFixture(t)
	teacher := newTestClient(f.hub)
	f.sessions.HandleTeacherJoin(teacher, TeacherJoinPayload{TeacherID: "t-1", ClassName: "Algebra I"})
	active := f.sessions.ActiveClass()
	require.NotNil(t, active)
	drainEvents(t, teacher)

	f.sessions.HandleEndClass(teacher, EndClassPayload{ClassID: active.ID + 99})

	require.NotNil(t, f.sessions.ActiveClass())
	assert.NotContains(t, drainEvents(t, teacher), EventClassEnded)
}

func TestEndClassIsIdempotent(t *testing.T) {
	f := newClassroomFixture(t)
	teacher := newTestClient(f.hub)
	f.sessions.HandleTeacherJoin(teacher, TeacherJoinPayload{TeacherID: "t-1"})
	active := f.sessions.ActiveClass()
	require.NotNil(t, active)

	f.sessions.HandleEndClass(teacher, EndClassPayload{ClassID: active.ID})
	f.sessions.HandleEndClass(teacher, EndClassPayload{ClassID: active.ID})
	f.sessions.HandleEndClass(teacher, EndClassPayload{})

	pending, err := f.outbox.PendingBatch(10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestRepeatedStartEndKeepsSingleActiveInvariant(t *testing.T) {
	f := newClassroomFixture(t)
	teacher := newTestClient(f.hub)

	for i := 0; i < 5; i++ {
		f.sessions.HandleTeacherJoin(teacher, TeacherJoinPayload{TeacherID: "t-1"})
		count, err := f.classes.CountActive()
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)

		if i%2 == 0 {
			f.sessions.HandleEndClass(teacher, EndClassPayload{})
			count, err = f.classes.CountActive()
			require.NoError(t, err)
			assert.EqualValues(t, 0, count)
		}
		drainEvents(t, teacher)
	}
}
