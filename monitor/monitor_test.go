package monitor

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/blockoni/game"
	"github.com/wfunc/blockoni/models"
)

var _ game.Observer = (*Monitor)(nil)

func TestMonitorCounters(t *testing.T) {
	m := NewMonitor("test")
	m.IncOnlinePlayers()
	m.IncOnlinePlayers()
	m.DecOnlinePlayers()
	m.SetActiveRooms(3)
	m.IncMessagesReceived()
	m.ObserveMessageLatency(5 * time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Metrics().OnlinePlayers))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Metrics().ActiveRooms))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Metrics().MessagesReceived))
}

func TestMonitorObservesMatch(t *testing.T) {
	m := NewMonitor("test")
	m.MatchStarted()
	m.DiceRolled(4)
	m.StepCommitted()
	m.StepCommitted()
	m.RotationCompleted()
	m.MatchEnded(models.ResultOniWin)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Metrics().MatchesStarted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Metrics().Steps))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Metrics().Rotations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Metrics().MatchesEnded.WithLabelValues("OniWin")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Metrics().MatchesEnded.WithLabelValues("RunnerWin")))
}

func TestMonitorHandler(t *testing.T) {
	m := NewMonitor("blockoni")
	m.MatchStarted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "blockoni_matches_started_total 1")
}
