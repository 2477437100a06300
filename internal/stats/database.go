package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	StatsDBVersion   = "1.0.0"
	MaxRecentRecords = 100
)

// RunKind 运行类别
type RunKind string

const (
	RunKindExtract  RunKind = "extract"
	RunKindGenerate RunKind = "generate"
)

// RunRecord 一次抽取或生成运行的统计记录
type RunRecord struct {
	ID             string        `json:"id"`
	Kind           RunKind       `json:"kind"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
	Archives       int           `json:"archives,omitempty"`
	Documents      int           `json:"documents,omitempty"`
	FormulasFound  int           `json:"formulas_found,omitempty"`
	UniqueFormulas int           `json:"unique_formulas,omitempty"`
	Sampled        int           `json:"sampled,omitempty"`
	Rendered       int           `json:"rendered,omitempty"`
	Failed         int           `json:"failed,omitempty"`
}

// StatisticsDB 持久化的统计数据
type StatisticsDB struct {
	Version       string      `json:"version"`
	CreatedAt     time.Time   `json:"created_at"`
	LastUpdated   time.Time   `json:"last_updated"`
	TotalRuns     int         `json:"total_runs"`
	TotalFormulas int         `json:"total_formulas"`
	TotalRendered int         `json:"total_rendered"`
	TotalFailed   int         `json:"total_failed"`
	RecentRecords []RunRecord `json:"recent_records"`
}

// Database 统计数据库，JSON 文件持久化
type Database struct {
	filePath string
	data     *StatisticsDB
	mutex    sync.RWMutex
	logger   *zap.Logger
}

// NewDatabase 打开或创建统计数据库
func NewDatabase(filePath string, logger *zap.Logger) (*Database, error) {
	db := &Database{
		filePath: filePath,
		logger:   logger,
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create stats directory: %w", err)
	}

	if err := db.load(); err != nil {
		return nil, err
	}
	return db, nil
}

// load 读取已有数据，文件不存在时初始化空库
func (db *Database) load() error {
	content, err := os.ReadFile(db.filePath)
	if os.IsNotExist(err) {
		now := time.Now()
		db.data = &StatisticsDB{
			Version:     StatsDBVersion,
			CreatedAt:   now,
			LastUpdated: now,
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read stats db: %w", err)
	}

	var data StatisticsDB
	if err := json.Unmarshal(content, &data); err != nil {
		return fmt.Errorf("failed to parse stats db: %w", err)
	}
	db.data = &data
	return nil
}

// AddRun 记录一次运行并落盘
func (db *Database) AddRun(record RunRecord) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	db.data.TotalRuns++
	db.data.TotalFormulas += record.UniqueFormulas
	db.data.TotalRendered += record.Rendered
	db.data.TotalFailed += record.Failed
	db.data.LastUpdated = time.Now()

	db.data.RecentRecords = append(db.data.RecentRecords, record)
	if len(db.data.RecentRecords) > MaxRecentRecords {
		db.data.RecentRecords = db.data.RecentRecords[len(db.data.RecentRecords)-MaxRecentRecords:]
	}

	return db.save()
}

// GetStats 返回当前统计数据的副本
func (db *Database) GetStats() StatisticsDB {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return *db.data
}

// save 序列化并写入文件，调用方必须已持有写锁
func (db *Database) save() error {
	content, err := json.MarshalIndent(db.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats db: %w", err)
	}
	if err := os.WriteFile(db.filePath, content, 0o644); err != nil {
		return fmt.Errorf("failed to write stats db: %w", err)
	}
	db.logger.Debug("stats db saved", zap.String("path", db.filePath))
	return nil
}
