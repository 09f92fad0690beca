package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"classroom_backend/internal/config"
	"classroom_backend/internal/model"
	"classroom_backend/internal/repository"
	"classroom_backend/pkg/logger"
	"classroom_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// 表名到云端路径的静态映射，认不出的表走通用路径
var syncEndpoints = map[string]string{
	"classes":        "/sync/classes",
	"polls":          "/sync/polls",
	"poll_responses": "/sync/responses",
	"transcriptions": "/sync/transcriptions",
}

const syncFallbackEndpoint = "/sync/data"

// OnlineChecker 同步引擎唯一咨询的联网开关
type OnlineChecker interface {
	IsOnline() bool
}

// syncPayload 上云请求体
type syncPayload struct {
	RecordID  uint            `json:"record_id"`
	TableName string          `json:"table_name"`
	Action    string          `json:"action"`
	Data      json.RawMessage `json:"data"`
	SyncedAt  time.Time       `json:"synced_at"`
}

// SyncService 发件箱同步调度器。和课堂实时路径完全解耦，
// 只通过sqlite里的sync_queue表打交道。
type SyncService struct {
	outbox      *repository.OutboxRepository
	classes     *repository.ClassRepository
	polls       *repository.PollRepository
	transcripts *repository.TranscriptionRepository

	connectivity OnlineChecker
	client       *http.Client

	mu         sync.Mutex
	cloudURL   string
	interval   time.Duration
	retryDelay time.Duration
	maxRetries int
	batchSize  int
	archiveDir string

	inFlight atomic.Bool
	kick     chan struct{}
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewSyncService(
	outbox *repository.OutboxRepository,
	classes *repository.ClassRepository,
	polls *repository.PollRepository,
	transcripts *repository.TranscriptionRepository,
	connectivity OnlineChecker,
	cfg *config.SyncConfig,
) *SyncService {
	return &SyncService{
		outbox:       outbox,
		classes:      classes,
		polls:        polls,
		transcripts:  transcripts,
		connectivity: connectivity,
		client:       &http.Client{Timeout: cfg.RequestTimeout},
		cloudURL:     cfg.CloudURL,
		interval:     cfg.Interval,
		retryDelay:   cfg.RetryDelay,
		maxRetries:   cfg.MaxRetries,
		batchSize:    cfg.BatchSize,
		archiveDir:   cfg.ArchiveDir,
		kick:         make(chan struct{}, 1),
		stop:         make(chan struct{}),
	}
}

// Run 阻塞运行。周期触发+联网探测成功后的即时触发共用一个入口。
func (s *SyncService) Run() {
	s.wg.Add(1)
	defer s.wg.Done()

	for {
		s.mu.Lock()
		interval := s.interval
		s.mu.Unlock()

		timer := time.NewTimer(interval)
		select {
		case <-s.stop:
			timer.Stop()
			return
		case <-timer.C:
		case <-s.kick:
			timer.Stop()
		}

		s.RunCycle()
	}
}

func (s *SyncService) Stop() {
	close(s.stop)
	s.wg.Wait()
}

// Trigger 请求一次同步。周期循环正忙时这个请求会被合并掉。
func (s *SyncService) Trigger() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// RunCycle 跑一轮同步。同一时刻只允许一轮在跑，撞上了就直接返回，
// 不排队。离线时整轮跳过。
func (s *SyncService) RunCycle() {
	if !s.inFlight.CompareAndSwap(false, true) {
		logger.Log.Debug("Sync already in progress, skipping")
		return
	}
	defer s.inFlight.Store(false)

	if !s.connectivity.IsOnline() {
		logger.Log.Debug("No internet connection, cannot sync")
		return
	}

	s.mu.Lock()
	batchSize := s.batchSize
	s.mu.Unlock()

	records, err := s.outbox.PendingBatch(batchSize)
	if err != nil {
		logger.Log.Error("Error fetching sync queue", zap.Error(err))
		return
	}
	if len(records) == 0 {
		return
	}

	logger.Log.Info("Starting cloud sync", zap.Int("records", len(records)))

	// 严格按序逐条复制：上一条的重试跑完（成功或用尽）才碰下一条
	for _, record := range records {
		s.syncRecord(record)
	}

	if pending, err := s.outbox.PendingCount(); err == nil {
		monitoring.OutboxPending.Set(float64(pending))
	}
}

// syncRecord 单条记录的有界重试。全部失败就留在队列里等下一轮，
// 周期不变、不标死信——被云端永久拒绝的记录会一直按同样节奏重试，
// 这是刻意选的简单策略。
func (s *SyncService) syncRecord(record *model.OutboxRecord) {
	s.mu.Lock()
	cloudURL, retryDelay, maxRetries := s.cloudURL, s.retryDelay, s.maxRetries
	s.mu.Unlock()

	endpoint, ok := syncEndpoints[record.Table]
	if !ok {
		endpoint = syncFallbackEndpoint
	}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := s.push(cloudURL+endpoint, record)
		if err == nil {
			if err := s.outbox.MarkSynced(record.ID); err != nil {
				logger.Log.Error("Error marking record as synced", zap.Error(err), zap.Uint("id", record.ID))
				return
			}
			monitoring.SyncAttempts.WithLabelValues(record.Table, "success").Inc()
			logger.Log.Info("Synced record",
				zap.String("table", record.Table),
				zap.Uint("recordId", record.RecordID))
			return
		}

		monitoring.SyncAttempts.WithLabelValues(record.Table, "failure").Inc()
		logger.Log.Warn("Sync attempt failed",
			zap.Int("attempt", attempt),
			zap.Uint("recordId", record.RecordID),
			zap.Error(err))

		if attempt < maxRetries {
			time.Sleep(retryDelay)
		}
	}

	logger.Log.Error("Failed to sync record, leaving for next cycle",
		zap.Uint("id", record.ID),
		zap.Int("maxRetries", maxRetries))
}

func (s *SyncService) push(url string, record *model.OutboxRecord) error {
	body, err := json.Marshal(syncPayload{
		RecordID:  record.RecordID,
		TableName: record.Table,
		Action:    record.Action,
		Data:      json.RawMessage(record.Data),
		SyncedAt:  time.Now(),
	})
	if err != nil {
		return err
	}

	resp, err := s.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("remote rejected record: status %d", resp.StatusCode)
	}
	return nil
}

// classArchive 一节课的完整导出
type classArchive struct {
	Class          *model.ClassSession    `json:"class"`
	Polls          []*model.Poll          `json:"polls"`
	PollResponses  []*model.PollResponse  `json:"poll_responses"`
	Transcriptions []*model.Transcription `json:"transcriptions"`
}

// ArchiveClass 下课后把整节课导出成一个JSON文件留档
func (s *SyncService) ArchiveClass(classID uint) (string, error) {
	class, err := s.classes.GetByID(classID)
	if err != nil {
		return "", err
	}
	polls, err := s.polls.ListByClass(classID)
	if err != nil {
		return "", err
	}
	responses, err := s.polls.ResponsesForClass(classID)
	if err != nil {
		return "", err
	}
	transcriptions, err := s.transcripts.ListByClass(classID)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(&classArchive{
		Class:          class,
		Polls:          polls,
		PollResponses:  responses,
		Transcriptions: transcriptions,
	}, "", "  ")
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	archiveDir := s.archiveDir
	s.mu.Unlock()

	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("class_%d_%s.json", classID, time.Now().Format("2006-01-02"))
	path := filepath.Join(archiveDir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// UpdateConfig 配置热更新：只调节奏和地址，不打断正在跑的那一轮
func (s *SyncService) UpdateConfig(cfg *config.SyncConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cloudURL = cfg.CloudURL
	s.interval = cfg.Interval
	s.retryDelay = cfg.RetryDelay
	s.maxRetries = cfg.MaxRetries
	s.batchSize = cfg.BatchSize
}
