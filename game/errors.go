package game

import (
	"errors"

	"github.com/wfunc/blockoni/board"
	"github.com/wfunc/blockoni/state"
)

var (
	// ErrWrongPhase is returned when an input does not fit the current phase.
	ErrWrongPhase = state.ErrActionRejected
	// ErrUnknownPanel is returned for panel ids that are not on the board.
	ErrUnknownPanel = board.ErrUnknownPanel

	ErrEventPlaying       = errors.New("game: rotation event in progress")
	ErrInvalidDice        = errors.New("game: dice result out of range")
	ErrNotCandidate       = errors.New("game: square is not a move candidate")
	ErrItemNotOwned       = errors.New("game: item not owned by active player")
	ErrItemNotActivatable = errors.New("game: item cannot be activated")
	ErrGameEnded          = errors.New("game: match has ended")
	ErrNotStarted         = errors.New("game: match not started")
	ErrUnknownInput       = errors.New("game: unknown input")
)
