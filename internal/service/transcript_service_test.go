package service

import (
	"encoding/json"
	"testing"

	"classroom_backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddTranscriptionBroadcastsAndPersists(t *testing.T) {
	f := newClassroomFixture(t)
	teacher := newTestClient(f.hub)
	student := newTestClient(f.hub)
	f.sessions.HandleTeacherJoin(teacher, TeacherJoinPayload{TeacherID: "t-1", ClassName: "Algebra I"})
	f.sessions.HandleStudentJoin(student, StudentJoinPayload{StudentID: "s-1", StudentName: "Ana"})
	active := f.sessions.ActiveClass()
	require.NotNil(t, active)
	drainEvents(t, teacher)
	drainEvents(t, student)

	f.transcripts.HandleAddTranscription(teacher, TranscriptionPayload{Text: "Today we cover quadratic equations."})
	f.transcripts.HandleAddTranscription(teacher, TranscriptionPayload{Text: "First, the discriminant."})

	var added struct {
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(lastEvent(t, student, EventTranscriptionAdded), &added))
	assert.Equal(t, "First, the discriminant.", added.Text)

	entries, err := repository.NewTranscriptionRepository(f.db).ListByClass(active.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Today we cover quadratic equations.", entries[0].Text)
	assert.Equal(t, "First, the discriminant.", entries[1].Text)
}

func TestAddTranscriptionWithoutClassIsDropped(t *testing.T) {
	f := newClassroomFixture(t)
	teacher := newTestClient(f.hub)
	f.hub.Join(teacher, RoomTeacher)

	f.transcripts.HandleAddTranscription(teacher, TranscriptionPayload{Text: "nobody listening"})

	assert.NotContains(t, drainEvents(t, teacher), EventTranscriptionAdded)
}
