// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/blockoni/config"
	"github.com/wfunc/blockoni/models"
)

// Database 对局存档接口. Only finished matches are stored.
type Database interface {
	SaveMatchRecord(record *models.MatchRecord) error
	LoadMatchRecord(matchID string) (*models.MatchRecord, error)
	ListMatchRecords(roomID string, limit int) ([]*models.MatchRecord, error)
	GetResultStats() (*ResultStats, error)
	Close() error
}

// ResultStats 胜负统计
type ResultStats struct {
	TotalMatches int64   `json:"total_matches"`
	OniWins      int64   `json:"oni_wins"`
	RunnerWins   int64   `json:"runner_wins"`
	AvgTurns     float64 `json:"avg_turns"`
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
	ErrUnknownDriver  = fmt.Errorf("unknown database driver")
)

// Open picks the archive named by cfg.Driver.
func Open(cfg config.DatabaseConfig) (Database, error) {
	pg := cfg.Postgres
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "gorm":
		return NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case "postgres":
		return NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
}
