package controller

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"classroom_backend/internal/config"
	"classroom_backend/internal/model"
	"classroom_backend/internal/repository"
	"classroom_backend/internal/service"
	"classroom_backend/internal/util"
	"classroom_backend/pkg/blink"
	"classroom_backend/pkg/database"
	"classroom_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type apiFixture struct {
	router   *gin.Engine
	db       *gorm.DB
	classes  *repository.ClassRepository
	polls    *repository.PollRepository
	sessions *service.SessionService
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	db, err := database.InitDB(&config.DatabaseConfig{
		Path: filepath.Join(t.TempDir(), "classroom_test.db"),
	})
	require.NoError(t, err)

	classes := repository.NewClassRepository(db)
	polls := repository.NewPollRepository(db)
	transcripts := repository.NewTranscriptionRepository(db)

	hub := service.NewClassroomHub()
	sessions := service.NewSessionService(classes, hub, blink.NopNotifier{})
	cfg := &config.Config{Server: config.ServerConfig{Port: "3000"}}

	cfg.Storage = config.StorageConfig{Type: "local", LocalPath: t.TempDir()}
	storage := service.NewStorageService(cfg, hub)

	classCtrl := NewClassController(classes, transcripts)
	pollCtrl := NewPollController(polls)
	healthCtrl := NewHealthController(db, sessions, hub, cfg)
	uploadCtrl := NewUploadController(storage)

	router := gin.New()
	api := router.Group("/api")
	api.GET("/health", healthCtrl.HealthCheck)
	api.GET("/server-info", healthCtrl.ServerInfo)
	api.GET("/class/:classId", classCtrl.GetClass)
	api.GET("/class/:classId/transcriptions", classCtrl.GetTranscriptions)
	api.GET("/poll/:pollId/results", pollCtrl.GetResults)
	api.POST("/upload-ppt", uploadCtrl.UploadPPT)
	api.GET("/download/:filename", uploadCtrl.Download)

	return &apiFixture{router: router, db: db, classes: classes, polls: polls, sessions: sessions}
}

func doGet(t *testing.T, f *apiFixture, path string) (*httptest.ResponseRecorder, util.Response) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	f.router.ServeHTTP(w, req)

	var body util.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestGetClass(t *testing.T) {
	f := newAPIFixture(t)
	class := &model.ClassSession{
		ClassName: "Algebra I",
		TeacherID: "t-1",
		StartTime: time.Now(),
		Status:    model.ClassStatusActive,
	}
	require.NoError(t, f.classes.Create(class))

	w, body := doGet(t, f, "/api/class/1")
	assert.Equal(t, http.StatusOK, w.Code)

	data, err := json.Marshal(body.Data)
	require.NoError(t, err)
	var got model.ClassSession
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "Algebra I", got.ClassName)
	assert.Equal(t, model.ClassStatusActive, got.Status)
}

func TestGetClassNotFound(t *testing.T) {
	f := newAPIFixture(t)

	w, body := doGet(t, f, "/api/class/999")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, http.StatusNotFound, body.Code)
}

func TestGetClassInvalidID(t *testing.T) {
	f := newAPIFixture(t)

	w, _ := doGet(t, f, "/api/class/not-a-number")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTranscriptions(t *testing.T) {
	f := newAPIFixture(t)
	transcripts := repository.NewTranscriptionRepository(f.db)
	require.NoError(t, transcripts.Create(&model.Transcription{ClassID: 1, Text: "first"}))
	require.NoError(t, transcripts.Create(&model.Transcription{ClassID: 1, Text: "second"}))
	require.NoError(t, transcripts.Create(&model.Transcription{ClassID: 2, Text: "other class"}))

	w, body := doGet(t, f, "/api/class/1/transcriptions")
	assert.Equal(t, http.StatusOK, w.Code)

	data, err := json.Marshal(body.Data)
	require.NoError(t, err)
	var payload struct {
		Transcriptions []model.Transcription `json:"transcriptions"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	require.Len(t, payload.Transcriptions, 2)
	assert.Equal(t, "first", payload.Transcriptions[0].Text)
}

func TestGetPollResults(t *testing.T) {
	f := newAPIFixture(t)
	poll := &model.Poll{ClassID: 1, Question: "Q"}
	require.NoError(t, poll.SetOptions([]string{"A", "B"}))
	require.NoError(t, f.polls.Create(poll))
	require.NoError(t, f.polls.AddResponse(&model.PollResponse{PollID: poll.ID, StudentID: "s-1", Answer: "A"}))
	require.NoError(t, f.polls.AddResponse(&model.PollResponse{PollID: poll.ID, StudentID: "s-2", Answer: "A"}))

	w, body := doGet(t, f, "/api/poll/1/results")
	assert.Equal(t, http.StatusOK, w.Code)

	data, err := json.Marshal(body.Data)
	require.NoError(t, err)
	var payload struct {
		Results []model.AnswerCount `json:"results"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	require.Len(t, payload.Results, 1)
	assert.Equal(t, "A", payload.Results[0].Answer)
	assert.EqualValues(t, 2, payload.Results[0].Count)
}

func TestHealthCheck(t *testing.T) {
	f := newAPIFixture(t)

	w, body := doGet(t, f, "/api/health")
	assert.Equal(t, http.StatusOK, w.Code)

	data, err := json.Marshal(body.Data)
	require.NoError(t, err)
	var payload struct {
		Status            string `json:"status"`
		ClassActive       bool   `json:"class_active"`
		StudentsConnected int    `json:"students_connected"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, "ok", payload.Status)
	assert.False(t, payload.ClassActive)
	assert.Equal(t, 0, payload.StudentsConnected)
}

func TestUploadThenDownload(t *testing.T) {
	f := newAPIFixture(t)

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	part, err := mw.CreateFormFile("file", "lesson.pptx")
	require.NoError(t, err)
	_, err = part.Write([]byte("slide deck"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/upload-ppt", &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body util.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data, err := json.Marshal(body.Data)
	require.NoError(t, err)
	var payload struct {
		Filename string `json:"filename"`
		Path     string `json:"path"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Contains(t, payload.Filename, "lesson.pptx")
	assert.Contains(t, payload.Path, "/uploads/")

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/download/"+payload.Filename, nil)
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "slide deck", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
}

func TestDownloadMissingFile(t *testing.T) {
	f := newAPIFixture(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/download/nope.pptx", nil)
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServerInfo(t *testing.T) {
	f := newAPIFixture(t)

	w, body := doGet(t, f, "/api/server-info")
	assert.Equal(t, http.StatusOK, w.Code)

	data, err := json.Marshal(body.Data)
	require.NoError(t, err)
	var payload struct {
		Port   string `json:"port"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, "3000", payload.Port)
	assert.Equal(t, "running", payload.Status)
}
