package service

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"classroom_backend/internal/config"
	"classroom_backend/pkg/logger"

	"go.uber.org/zap"
)

// ConnectivityService 周期性探测外网可达性，维护一个最终一致的在线标志。
// 探测成功立即踢一次同步，失败后退避到更长的周期再探。
type ConnectivityService struct {
	online atomic.Bool

	mu              sync.Mutex
	target          string
	interval        time.Duration
	offlineInterval time.Duration

	client    *http.Client
	checkFunc func(ctx context.Context) error
	onOnline  func()

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewConnectivityService(cfg *config.ProbeConfig) *ConnectivityService {
	s := &ConnectivityService{
		target:          cfg.Target,
		interval:        cfg.Interval,
		offlineInterval: cfg.OfflineInterval,
		client:          &http.Client{Timeout: cfg.Timeout},
		stop:            make(chan struct{}),
	}
	s.checkFunc = s.probe
	return s
}

// SetCheckFunc 测试注入
func (s *ConnectivityService) SetCheckFunc(f func(ctx context.Context) error) {
	s.checkFunc = f
}

// SetOnOnline 探测成功时的回调，同步引擎挂在这里
func (s *ConnectivityService) SetOnOnline(f func()) {
	s.onOnline = f
}

func (s *ConnectivityService) IsOnline() bool {
	return s.online.Load()
}

func (s *ConnectivityService) probe(ctx context.Context) error {
	s.mu.Lock()
	target := s.target
	s.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	// 可达即算在线，状态码不重要
	resp.Body.Close()
	return nil
}

// Run 阻塞运行，调用方放goroutine里。立即探测一次，之后按周期走。
func (s *ConnectivityService) Run() {
	s.wg.Add(1)
	defer s.wg.Done()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-timer.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.client.Timeout)
		err := s.checkFunc(ctx)
		cancel()

		s.mu.Lock()
		interval, offlineInterval := s.interval, s.offlineInterval
		s.mu.Unlock()

		if err == nil {
			if !s.online.Swap(true) {
				logger.Log.Info("Internet connection available")
			}
			if s.onOnline != nil {
				s.onOnline()
			}
			timer.Reset(interval)
		} else {
			if s.online.Swap(false) {
				logger.Log.Warn("Internet connection lost", zap.Error(err))
			} else {
				logger.Log.Debug("No internet connection", zap.Error(err))
			}
			timer.Reset(offlineInterval)
		}
	}
}

func (s *ConnectivityService) Stop() {
	close(s.stop)
	s.wg.Wait()
}

// UpdateConfig 配置热更新时调整探测节奏，下个周期生效
func (s *ConnectivityService) UpdateConfig(cfg *config.ProbeConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = cfg.Target
	s.interval = cfg.Interval
	s.offlineInterval = cfg.OfflineInterval
}
