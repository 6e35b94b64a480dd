// services/match_service.go
package services

import (
	"sync"

	"github.com/wfunc/blockoni/logger"
	"github.com/wfunc/blockoni/models"
	"github.com/wfunc/blockoni/persistence"
)

// MatchService 对局存档服务
type MatchService struct {
	db persistence.Database
	wg sync.WaitGroup
}

func NewMatchService(db persistence.Database) *MatchService {
	return &MatchService{db: db}
}

// RecordAsync saves a finished match in the background. It is safe to call
// with the engine lock held; failures are only logged.
func (s *MatchService) RecordAsync(record *models.MatchRecord) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Record(record); err != nil {
			logger.Log.Errorf("save match %s: %v", record.MatchID, err)
		}
	}()
}

// Record saves a finished match.
func (s *MatchService) Record(record *models.MatchRecord) error {
	if err := s.db.SaveMatchRecord(record); err != nil {
		return err
	}
	logger.Log.Infof("match %s archived: %s in %d turns", record.MatchID, record.Result, record.Turns)
	return nil
}

// Wait blocks until pending background saves finish.
func (s *MatchService) Wait() {
	s.wg.Wait()
}

func (s *MatchService) GetMatch(matchID string) (*models.MatchRecord, error) {
	return s.db.LoadMatchRecord(matchID)
}

// RecentMatches 最近的对局
func (s *MatchService) RecentMatches(roomID string, limit int) ([]*models.MatchRecord, error) {
	return s.db.ListMatchRecords(roomID, limit)
}

// GetResultStats 获取胜负统计
func (s *MatchService) GetResultStats() (*persistence.ResultStats, error) {
	return s.db.GetResultStats()
}
