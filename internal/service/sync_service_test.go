package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"classroom_backend/internal/config"
	"classroom_backend/internal/model"
	"classroom_backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubChecker struct{ online bool }

func (c stubChecker) IsOnline() bool { return c.online }

type syncFixture struct {
	sync    *SyncService
	outbox  *repository.OutboxRepository
	classes *repository.ClassRepository
	polls   *repository.PollRepository
	db      *gorm.DB
}

func newSyncFixture(t *testing.T, cloudURL string, online bool) *syncFixture {
	t.Helper()
	db := setupTestDB(t)
	outbox := repository.NewOutboxRepository(db)
	classes := repository.NewClassRepository(db)
	polls := repository.NewPollRepository(db)
	transcripts := repository.NewTranscriptionRepository(db)

	svc := NewSyncService(outbox, classes, polls, transcripts, stubChecker{online: online}, &config.SyncConfig{
		CloudURL:       cloudURL,
		Interval:       time.Minute,
		RetryDelay:     time.Millisecond,
		RequestTimeout: 5 * time.Second,
		MaxRetries:     3,
		BatchSize:      100,
		ArchiveDir:     filepath.Join(t.TempDir(), "archives"),
	})
	return &syncFixture{sync: svc, outbox: outbox, classes: classes, polls: polls, db: db}
}

func enqueue(t *testing.T, outbox *repository.OutboxRepository, table string, recordID uint) {
	t.Helper()
	require.NoError(t, outbox.Enqueue(&model.OutboxRecord{
		Table:    table,
		RecordID: recordID,
		Action:   "create",
		Data:     `{"id":1}`,
	}))
}

func TestRunCycleSyncsPendingRecordsInOrder(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	var payloads []syncPayload
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p syncPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		mu.Lock()
		paths = append(paths, r.URL.Path)
		payloads = append(payloads, p)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer remote.Close()

	f := newSyncFixture(t, remote.URL, true)
	enqueue(t, f.outbox, "classes", 1)
	enqueue(t, f.outbox, "poll_responses", 2)
	enqueue(t, f.outbox, "unknown_table", 3)

	f.sync.RunCycle()

	// 先进先出，认不出的表走通用路径
	mu.Lock()
	require.Equal(t, []string{"/sync/classes", "/sync/responses", "/sync/data"}, paths)
	assert.Equal(t, "classes", payloads[0].TableName)
	assert.EqualValues(t, 1, payloads[0].RecordID)
	assert.Equal(t, "create", payloads[0].Action)
	assert.False(t, payloads[0].SyncedAt.IsZero())
	mu.Unlock()

	pending, err := f.outbox.PendingCount()
	require.NoError(t, err)
	assert.EqualValues(t, 0, pending)
}

func TestRunCycleLeavesFailedRecordsPending(t *testing.T) {
	var attempts atomic.Int64
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer remote.Close()

	f := newSyncFixture(t, remote.URL, true)
	enqueue(t, f.outbox, "classes", 1)

	f.sync.RunCycle()

	// 重试用尽后留在队列里，下一轮会再试
	assert.EqualValues(t, 3, attempts.Load())
	pending, err := f.outbox.PendingCount()
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)

	f.sync.RunCycle()
	assert.EqualValues(t, 6, attempts.Load())
}

func TestRunCycleRecoversWhenRemoteComesBack(t *testing.T) {
	var healthy atomic.Bool
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthy.Load() {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer remote.Close()

	f := newSyncFixture(t, remote.URL, true)
	enqueue(t, f.outbox, "transcriptions", 1)

	f.sync.RunCycle()
	pending, err := f.outbox.PendingCount()
	require.NoError(t, err)
	require.EqualValues(t, 1, pending)

	healthy.Store(true)
	f.sync.RunCycle()
	pending, err = f.outbox.PendingCount()
	require.NoError(t, err)
	assert.EqualValues(t, 0, pending)
}

func TestRunCycleSkipsWhenOffline(t *testing.T) {
	var requests atomic.Int64
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer remote.Close()

	f := newSyncFixture(t, remote.URL, false)
	enqueue(t, f.outbox, "classes", 1)

	f.sync.RunCycle()

	assert.EqualValues(t, 0, requests.Load())
	pending, err := f.outbox.PendingCount()
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)
}

func TestRunCycleSingleFlight(t *testing.T) {
	var inHandler atomic.Int64
	release := make(chan struct{})
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inHandler.Add(1)
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer remote.Close()

	f := newSyncFixture(t, remote.URL, true)
	enqueue(t, f.outbox, "classes", 1)

	done := make(chan struct{})
	go func() {
		f.sync.RunCycle()
		close(done)
	}()
	require.Eventually(t, func() bool { return inHandler.Load() == 1 }, time.Second, time.Millisecond)

	// 第一轮还挂在远端请求上，这次调用必须直接返回而不是并发开跑
	f.sync.RunCycle()
	assert.EqualValues(t, 1, inHandler.Load())

	close(release)
	<-done
}

func TestTriggerCoalesces(t *testing.T) {
	f := newSyncFixture(t, "http://127.0.0.1:0", true)
	f.sync.Trigger()
	f.sync.Trigger()
	f.sync.Trigger()
	assert.Len(t, f.sync.kick, 1)
}

func TestArchiveClassWritesFullExport(t *testing.T) {
	f := newSyncFixture(t, "http://127.0.0.1:0", true)

	class := &model.ClassSession{
		ClassName: "Algebra I",
		TeacherID: "t-1",
		StartTime: time.Now(),
		Status:    model.ClassStatusActive,
	}
	require.NoError(t, f.classes.Create(class))

	poll := &model.Poll{ClassID: class.ID, Question: "Did you understand?"}
	require.NoError(t, poll.SetOptions([]string{"Yes", "No"}))
	require.NoError(t, f.polls.Create(poll))
	require.NoError(t, f.polls.AddResponse(&model.PollResponse{PollID: poll.ID, StudentID: "s-ana", Answer: "Yes"}))

	path, err := f.sync.ArchiveClass(class.ID)
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path), "class_")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var archive classArchive
	require.NoError(t, json.Unmarshal(raw, &archive))
	assert.Equal(t, "Algebra I", archive.Class.ClassName)
	require.Len(t, archive.Polls, 1)
	assert.Equal(t, "Did you understand?", archive.Polls[0].Question)
	require.Len(t, archive.PollResponses, 1)
	assert.Equal(t, "Yes", archive.PollResponses[0].Answer)
}

func TestArchiveClassUnknownID(t *testing.T) {
	f := newSyncFixture(t, "http://127.0.0.1:0", true)
	_, err := f.sync.ArchiveClass(12345)
	assert.Error(t, err)
}
