package game

import (
	"fmt"

	"github.com/wfunc/blockoni/logger"
	"github.com/wfunc/blockoni/state"
)

// Phase ids.
const (
	PhaseIdle                = "idle"
	PhaseWaitingForDice      = "waiting_for_dice"
	PhaseWaitingForDirection = "waiting_for_direction"
	PhaseEvaluatingWin       = "evaluating_win"
	PhaseRotationEvent       = "rotation_event"
	PhaseGameEnded           = "game_ended"
)

// phase is the shared part of every engine phase.
type phase struct {
	state.StateBase
	e *Engine
}

func (p *phase) OnEnter() {
	logger.Log.Debugf("match %s enters %s", p.e.matchID(), p.ID)
}

type idlePhase struct{ phase }

func (p *idlePhase) HandleAction(_ state.Player, action state.Action) error {
	return fmt.Errorf("%w: %s", ErrNotStarted, action.ActionType())
}

// dicePhase waits for the active player's roll or item use.
type dicePhase struct{ phase }

func (p *dicePhase) HandleAction(_ state.Player, action state.Action) error {
	switch a := action.(type) {
	case DiceRolled:
		return p.e.rollDice(a.Result)
	case UseItem:
		return p.e.useItem(a.ItemID)
	}
	return p.phase.HandleAction(nil, action)
}

// directionPhase waits for one step choice among the published candidates.
type directionPhase struct{ phase }

func (p *directionPhase) HandleAction(_ state.Player, action state.Action) error {
	if a, ok := action.(DirectionChosen); ok {
		return p.e.chooseDirection(a.SquareID)
	}
	return p.phase.HandleAction(nil, action)
}

// 判定阶段是瞬时的，不接收输入
type evaluatingPhase struct{ phase }

// rotationPhase rejects everything until the event completes.
type rotationPhase struct{ phase }

func (p *rotationPhase) HandleAction(_ state.Player, action state.Action) error {
	return fmt.Errorf("%w: %s", ErrEventPlaying, action.ActionType())
}

type endedPhase struct{ phase }

func (p *endedPhase) HandleAction(_ state.Player, action state.Action) error {
	return fmt.Errorf("%w: %s", ErrGameEnded, action.ActionType())
}

type phases struct {
	idle       *idlePhase
	dice       *dicePhase
	direction  *directionPhase
	evaluating *evaluatingPhase
	rotation   *rotationPhase
	ended      *endedPhase
}

func newPhases(e *Engine) phases {
	mk := func(id string) phase { return phase{StateBase: state.StateBase{ID: id}, e: e} }
	return phases{
		idle:       &idlePhase{mk(PhaseIdle)},
		dice:       &dicePhase{mk(PhaseWaitingForDice)},
		direction:  &directionPhase{mk(PhaseWaitingForDirection)},
		evaluating: &evaluatingPhase{mk(PhaseEvaluatingWin)},
		rotation:   &rotationPhase{mk(PhaseRotationEvent)},
		ended:      &endedPhase{mk(PhaseGameEnded)},
	}
}

// buildMachine wires the phases. Dice and direction input stay closed while a
// rotation event is playing.
func (e *Engine) buildMachine() *state.BaseStateMachine {
	ps := e.phases
	m := state.NewBaseStateMachine(ps.idle)
	idle := func() bool { return e.match == nil || !e.match.EventPlaying }
	_ = m.AddTransition(ps.rotation, ps.dice, idle)
	_ = m.AddTransition(ps.evaluating, ps.dice, idle)
	_ = m.AddTransition(ps.dice, ps.direction, idle)
	_ = m.AddTransition(ps.rotation, ps.direction, func() bool { return false })
	_ = m.AddTransition(ps.ended, ps.direction, func() bool { return false })
	return m
}
