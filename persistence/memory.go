package persistence

import (
	"sync"

	"github.com/wfunc/blockoni/models"
)

// Memory 内存存档，进程退出即丢失
type Memory struct {
	records []*models.MatchRecord
	byID    map[string]*models.MatchRecord
	mutex   sync.RWMutex
}

func NewMemory() *Memory {
	return &Memory{byID: make(map[string]*models.MatchRecord)}
}

// SaveMatchRecord stores a copy of record. Saving the same match twice keeps
// the first copy.
func (m *Memory) SaveMatchRecord(record *models.MatchRecord) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, exists := m.byID[record.MatchID]; exists {
		return nil
	}
	c := copyRecord(record)
	m.records = append(m.records, c)
	m.byID[c.MatchID] = c
	return nil
}

func (m *Memory) LoadMatchRecord(matchID string) (*models.MatchRecord, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	r, ok := m.byID[matchID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return copyRecord(r), nil
}

// ListMatchRecords returns the newest records first; an empty roomID matches
// every room and limit <= 0 means no limit.
func (m *Memory) ListMatchRecords(roomID string, limit int) ([]*models.MatchRecord, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	var out []*models.MatchRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		r := m.records[i]
		if roomID != "" && r.RoomID != roomID {
			continue
		}
		out = append(out, copyRecord(r))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) GetResultStats() (*ResultStats, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	stats := &ResultStats{TotalMatches: int64(len(m.records))}
	turns := 0
	for _, r := range m.records {
		switch r.Result {
		case models.ResultOniWin:
			stats.OniWins++
		case models.ResultRunnerWin:
			stats.RunnerWins++
		}
		turns += r.Turns
	}
	if len(m.records) > 0 {
		stats.AvgTurns = float64(turns) / float64(len(m.records))
	}
	return stats, nil
}

func (m *Memory) Close() error {
	return nil
}

func copyRecord(r *models.MatchRecord) *models.MatchRecord {
	c := *r
	c.Players = append([]models.PlayerInfo(nil), r.Players...)
	return &c
}
