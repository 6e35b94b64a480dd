package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/blockoni/board"
	"github.com/wfunc/blockoni/models"
)

func TestPeriodicRotationLocksInput(t *testing.T) {
	s := testSettings()
	s.RotationEveryRounds = 1
	e, rec, sched := newTestEngine(t, s)
	require.NoError(t, e.StartGame(""))

	require.NoError(t, e.RollDice(1))
	walk(t, e, "Top_1_0")
	require.NoError(t, e.RollDice(1))
	walk(t, e, "Top_2_3")

	assert.Equal(t, PhaseRotationEvent, e.Phase())
	assert.True(t, e.EventPlaying())
	assert.Equal(t, 2, e.Turn())
	started, ok := lastOf[RotationStarted](rec)
	require.True(t, ok)
	assert.InDelta(t, 90, abs(started.Degrees), 1e-9)
	assert.Contains(t, []string{"x", "z"}, started.Axis)
	assert.Equal(t, int64(1000), started.DurationMs)

	assert.ErrorIs(t, e.RollDice(3), ErrEventPlaying)
	assert.ErrorIs(t, e.ChooseDirection("Top_0_0"), ErrEventPlaying)
	assert.ErrorIs(t, e.StartGame(""), ErrEventPlaying)
	select {
	case <-e.RotationDone():
		t.Fatal("rotation reported done while playing")
	default:
	}

	sched.tick()
	first, ok := lastOf[RotationProgress](rec)
	require.True(t, ok)
	sched.tick()
	second, _ := lastOf[RotationProgress](rec)
	assert.Greater(t, abs(second.Angle), abs(first.Angle))
	assert.Less(t, abs(second.Angle), 90.0)

	sched.flush()
	assert.Equal(t, 0, sched.pending())
	assert.False(t, e.EventPlaying())
	assert.Equal(t, PhaseWaitingForDice, e.Phase())
	<-e.RotationDone()

	finished, ok := lastOf[RotationFinished](rec)
	require.True(t, ok)
	assert.Equal(t, 1, finished.Rotations)
	up, ok := e.FaceUp()
	require.True(t, ok)
	assert.NotEqual(t, board.FaceTop, up)

	for _, p := range e.Players() {
		assert.False(t, e.IsBottom(p.CurrentSquare), "%s left on the bottom", p.ID)
	}
	turn, _ := lastOf[TurnChange](rec)
	assert.Equal(t, TurnChange{PlayerID: "oni", Turn: 2}, turn)
	require.NoError(t, e.RollDice(1))
}

func TestCorrectStrandedMovesToColumnTop(t *testing.T) {
	e, rec, _ := newTestEngine(t, testSettings())
	require.NoError(t, e.StartGame(""))

	runner := e.match.Players[1]
	runner.CurrentSquare = "Front_2_2"
	runner.LastSquare = "Front_2_1"
	require.NoError(t, e.graph.Rotate(board.AxisX, 90))
	require.True(t, e.graph.IsBottom("Front_2_2"))

	e.correctStranded()
	assert.Equal(t, "Back_2_2", runner.CurrentSquare)
	assert.Empty(t, runner.LastSquare)
	moved, ok := lastOf[PlayerRelocated](rec)
	require.True(t, ok)
	assert.Equal(t, PlayerRelocated{PlayerID: "runner", SquareID: "Back_2_2"}, moved)
	assert.Equal(t, "Top_0_0", e.match.Players[0].CurrentSquare)
}

func TestRotationCorrectionCanCapture(t *testing.T) {
	e, rec, sched := newTestEngine(t, testSettings())
	require.NoError(t, e.StartGame(""))
	e.match.Players[0].CurrentSquare = "Back_2_2"
	e.match.Players[1].CurrentSquare = "Front_2_2"

	e.startRotation()
	e.rotation.axis = rotationAxes[0]
	e.rotation.degrees = 90
	sched.flush()

	assert.Equal(t, models.ResultOniWin, e.Result())
	assert.Equal(t, PhaseGameEnded, e.Phase())
	assert.Equal(t, 1, rec.count(TypeRotationFinished))
}

func TestRotationEveryFourRounds(t *testing.T) {
	s := testSettings()
	s.RotationEveryRounds = 4
	e, _, sched := newTestEngine(t, s)
	require.NoError(t, e.StartGame(""))

	rounds := 0
	for e.Phase() != PhaseRotationEvent {
		require.Less(t, rounds, 4, "rotation did not start")
		for i := 0; i < 2; i++ {
			require.NoError(t, e.RollDice(1))
			require.NoError(t, e.ChooseDirection(e.Candidates()[0]))
		}
		rounds++
	}
	assert.Equal(t, 4, rounds)
	assert.Equal(t, 5, e.Turn())
	sched.flush()
	assert.Equal(t, PhaseWaitingForDice, e.Phase())
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
