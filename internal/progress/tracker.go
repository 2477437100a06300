package progress

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Observer 每处理一项后回调一次，用于驱动终端进度条
type Observer func(processed, failed, total int)

// Session 一次渲染会话的进度跟踪器
type Session struct {
	ID        string
	Total     int
	StartTime time.Time

	mu        sync.Mutex
	processed int
	failed    int

	reportEvery int
	logger      *zap.Logger
	observer    Observer
}

// NewSession 创建进度会话。
// everyPct 是汇报间隔占总量的百分比，间隔按实际条目数换算，
// 总量很小时也保证至少每条汇报一次。
func NewSession(total int, everyPct float64, logger *zap.Logger) *Session {
	reportEvery := int(float64(total) * everyPct / 100.0)
	if reportEvery < 1 {
		reportEvery = 1
	}

	return &Session{
		ID:          uuid.New().String(),
		Total:       total,
		StartTime:   time.Now(),
		reportEvery: reportEvery,
		logger:      logger,
	}
}

// SetObserver 注册进度回调，必须在并发记录开始前调用
func (s *Session) SetObserver(fn Observer) {
	s.observer = fn
}

// Record 记录一项完成，按固定间隔输出进度日志。
// processed/failed 计数单调递增。回调在会话锁内串行执行，
// 回调方不需要自己做并发保护。
func (s *Session) Record(failed bool) {
	s.mu.Lock()
	s.processed++
	if failed {
		s.failed++
	}
	processed, failedCount := s.processed, s.failed
	if s.observer != nil {
		s.observer(processed, failedCount, s.Total)
	}
	s.mu.Unlock()

	if processed%s.reportEvery == 0 || processed == s.Total {
		s.logger.Info("render progress",
			zap.String("sessionID", s.ID),
			zap.Int("processed", processed),
			zap.Int("total", s.Total),
			zap.Int("failed", failedCount))
	}
}

// Snapshot 返回当前的 processed/failed 计数
func (s *Session) Snapshot() (processed, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed, s.failed
}

// Elapsed 返回会话开始以来的耗时
func (s *Session) Elapsed() time.Duration {
	return time.Since(s.StartTime)
}
