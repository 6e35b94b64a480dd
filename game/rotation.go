package game

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"github.com/wfunc/blockoni/board"
	"github.com/wfunc/blockoni/logger"
	"github.com/wfunc/blockoni/models"
	"gonum.org/v1/gonum/spatial/r3"
)

// RotationDegrees is the angle of one rotation event.
const RotationDegrees = 90.0

type rotationAxis struct {
	name string
	vec  r3.Vec
}

// Only horizontal axes turn a side face down.
var rotationAxes = []rotationAxis{
	{"x", board.AxisX},
	{"z", board.AxisZ},
}

// rotationEvent is one running cube rotation. Players reference panels by
// id, so they ride along with the cube while it turns.
type rotationEvent struct {
	axis     rotationAxis
	degrees  float64
	tween    *gween.Tween
	frameID  int64
	finished bool
	done     chan struct{}
}

// startRotation locks input and schedules the tween frames and the
// completion. The board itself turns only at completion.
func (e *Engine) startRotation() {
	e.match.EventPlaying = true
	e.match.Candidates = nil
	e.changePhase(e.phases.rotation)

	axis := rotationAxes[e.rng.Intn(len(rotationAxes))]
	degrees := RotationDegrees
	if e.rng.Intn(2) == 1 {
		degrees = -degrees
	}
	duration := e.settings.RotationDuration
	ev := &rotationEvent{
		axis:    axis,
		degrees: degrees,
		tween:   gween.New(0, float32(degrees), float32(duration.Seconds()), ease.InOutQuad),
		done:    make(chan struct{}),
	}
	e.rotation = ev
	logger.Log.Infof("match %s rotating %.0f degrees about %s", e.match.ID, degrees, axis.name)
	e.pub.Publish(RotationStarted{Axis: axis.name, Degrees: degrees, DurationMs: duration.Milliseconds()})

	if frame := e.settings.RotationFrame; frame > 0 && frame < duration {
		ev.frameID = e.sched.AddTimer(frame, frame, func() { e.rotationFrame(ev) })
	}
	e.sched.AddTimer(duration, 0, func() { e.finishRotation(ev) })
}

func (e *Engine) rotationFrame(ev *rotationEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rotation != ev || ev.finished {
		return
	}
	angle, _ := ev.tween.Update(float32(e.settings.RotationFrame.Seconds()))
	e.pub.Publish(RotationProgress{Angle: float64(angle)})
}

// finishRotation applies the rotation, moves stranded players off the
// bottom, checks for a capture and reopens dice input.
func (e *Engine) finishRotation(ev *rotationEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rotation != ev || ev.finished {
		return
	}
	ev.finished = true
	if ev.frameID != 0 {
		e.sched.RemoveTimer(ev.frameID)
	}

	if err := e.graph.Rotate(ev.axis.vec, ev.degrees); err != nil {
		logger.Log.Errorf("match %s: rotate: %v", e.match.ID, err)
	}
	e.correctStranded()
	e.match.EventPlaying = false
	e.pub.Publish(RotationFinished{Rotations: e.graph.Rotations()})
	e.observer.RotationCompleted()
	close(ev.done)

	if e.captured() {
		e.endGame(models.ResultOniWin)
		return
	}
	e.changePhase(e.phases.dice)
	e.announceTurn()
}

// correctStranded moves every player standing on a down-facing panel to the
// topmost panel of the same vertical column.
func (e *Engine) correctStranded() {
	for _, p := range e.match.Players {
		if !e.graph.IsBottom(p.CurrentSquare) {
			continue
		}
		pos, err := e.graph.Position(p.CurrentSquare)
		if err != nil {
			continue
		}
		target := ""
		if top, ok := e.graph.PanelAtColumn(pos.X, pos.Z, true); ok && !e.graph.IsBottom(top.ID) {
			target = top.ID
		} else if id, ok := e.table.TeleportTarget(e.graph, p.CurrentSquare); ok {
			target = id
		}
		if target == "" {
			logger.Log.Warnf("match %s: no panel to relocate %s from %s", e.match.ID, p.ID, p.CurrentSquare)
			continue
		}
		logger.Log.Debugf("match %s: %s relocated %s -> %s", e.match.ID, p.ID, p.CurrentSquare, target)
		p.CurrentSquare = target
		p.LastSquare = ""
		e.pub.Publish(PlayerRelocated{PlayerID: p.ID, SquareID: target})
	}
}

// RotationDone returns a channel closed when the current (or last) rotation
// event completes. With no event it is already closed.
func (e *Engine) RotationDone() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rotation == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return e.rotation.done
}
