package blink

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"classroom_backend/pkg/logger"

	"go.uber.org/zap"
)

// Pattern 一组闪烁节奏
type Pattern struct {
	Count int
	On    time.Duration
	Off   time.Duration
}

func Quick(count int) Pattern {
	return Pattern{Count: count, On: 150 * time.Millisecond, Off: 150 * time.Millisecond}
}

func Slow(count int) Pattern {
	return Pattern{Count: count, On: time.Second, Off: 500 * time.Millisecond}
}

func Double() Pattern {
	return Pattern{Count: 2, On: 150 * time.Millisecond, Off: 150 * time.Millisecond}
}

// Notifier 课堂事件的单向硬件提示。实现必须立即返回，调用方不等待、不关心成败。
type Notifier interface {
	Notify(p Pattern, label string)
}

// 树莓派常见的板载LED路径
var ledPaths = []string{
	"/sys/class/leds/led1",
	"/sys/class/leds/ACT",
	"/sys/class/leds/activity",
}

// LEDNotifier 通过sysfs控制板载LED。亮灭序列串行执行，避免两个事件的节奏交叠。
type LEDNotifier struct {
	brightnessPath string
	mu             sync.Mutex
}

// NewNotifier 探测可用LED；没有硬件时退回仅写日志的实现。
func NewNotifier() Notifier {
	for _, p := range ledPaths {
		brightness := filepath.Join(p, "brightness")
		if _, err := os.Stat(brightness); err == nil {
			logger.Log.Info("LED initialized", zap.String("path", p))
			return &LEDNotifier{brightnessPath: brightness}
		}
	}
	logger.Log.Info("No LED detected, running in simulation mode")
	return &LogNotifier{}
}

func (n *LEDNotifier) Notify(p Pattern, label string) {
	go func() {
		n.mu.Lock()
		defer n.mu.Unlock()

		logger.Log.Debug("LED blink", zap.String("label", label), zap.Int("count", p.Count))
		for i := 0; i < p.Count; i++ {
			n.write("1")
			time.Sleep(p.On)
			n.write("0")
			time.Sleep(p.Off)
		}
	}()
}

func (n *LEDNotifier) write(value string) {
	// 写失败只记日志，提示灯绝不影响课堂流程
	if err := os.WriteFile(n.brightnessPath, []byte(value), 0644); err != nil {
		logger.Log.Debug("LED write failed", zap.Error(err))
	}
}

// LogNotifier 无硬件环境下的替身
type LogNotifier struct{}

func (n *LogNotifier) Notify(p Pattern, label string) {
	logger.Log.Debug("LED blink (no hardware)", zap.String("label", label), zap.Int("count", p.Count))
}

// NopNotifier 测试用
type NopNotifier struct{}

func (NopNotifier) Notify(Pattern, string) {}
