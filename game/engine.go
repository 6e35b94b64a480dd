// Package game runs one BlockOni match: turn order, dice, stepping, items,
// win evaluation and the cube rotation event.
package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/wfunc/blockoni/board"
	"github.com/wfunc/blockoni/items"
	"github.com/wfunc/blockoni/logger"
	"github.com/wfunc/blockoni/models"
	"github.com/wfunc/blockoni/state"
	"github.com/wfunc/blockoni/timer"
)

// Publisher receives every message the engine emits, in order. It is called
// with the engine lock held and must not call back into the engine.
type Publisher interface {
	Publish(msg Message)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(msg Message)

func (f PublisherFunc) Publish(msg Message) { f(msg) }

// Scheduler runs delayed callbacks. timer.TimerManager satisfies it.
type Scheduler interface {
	AddTimer(delay, interval time.Duration, callback func()) int64
	RemoveTimer(id int64)
}

// Observer is told about match milestones, for metrics.
type Observer interface {
	MatchStarted()
	DiceRolled(total int)
	StepCommitted()
	RotationCompleted()
	MatchEnded(result models.Result)
}

type nopObserver struct{}

func (nopObserver) MatchStarted() {}
func (nopObserver) DiceRolled(int) {}
func (nopObserver) StepCommitted() {}
func (nopObserver) RotationCompleted() {}
func (nopObserver) MatchEnded(models.Result) {}

// Option configures an Engine.
type Option func(*Engine)

// WithScheduler sets the timer source for the rotation event.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.sched = s }
}

// WithRand sets the random source for item placement, teleports and axes.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithObserver sets the milestone observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithOnGameEnd registers a callback receiving the record of every finished
// match. It runs with the engine lock held.
func WithOnGameEnd(fn func(*models.MatchRecord)) Option {
	return func(e *Engine) { e.onEnd = fn }
}

// Match is the state of the running match.
type Match struct {
	ID           string
	Players      []*models.Player
	Active       int
	Turn         int
	EventPlaying bool
	Candidates   []string
	Result       models.Result
	StartedAt    time.Time
}

// Engine 回合引擎，所有输入与定时回调在同一把锁下串行执行
type Engine struct {
	mu sync.Mutex

	settings Settings
	pub      Publisher
	sched    Scheduler
	rng      *rand.Rand
	observer Observer
	onEnd    func(*models.MatchRecord)
	table    *items.Table

	graph    *board.Graph
	match    *Match
	claims   map[string]int // userName -> seat index
	rotation *rotationEvent

	phases  phases
	machine *state.BaseStateMachine
}

// NewEngine creates an idle engine. The match begins with StartGame.
func NewEngine(settings Settings, pub Publisher, opts ...Option) (*Engine, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if _, err := board.Build(settings.Board); err != nil {
		return nil, fmt.Errorf("game: %w", err)
	}
	e := &Engine{
		settings: settings,
		pub:      pub,
		observer: nopObserver{},
		claims:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.pub == nil {
		e.pub = PublisherFunc(func(Message) {})
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.sched == nil {
		e.sched = timer.NewTimerManager(timer.DefaultResolution)
	}
	e.table = items.NewTable(e.rng, settings.ItemCount, settings.SpeedUpBonus)
	e.phases = newPhases(e)
	e.machine = e.buildMachine()
	return e, nil
}

// Handle routes one input to the current phase. Rejected input is answered
// with InputRejected and the error is returned.
func (e *Engine) Handle(sender state.Player, action state.Action) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	switch a := action.(type) {
	case StartGame:
		err = e.start(a)
	case DiceRolled, DirectionChosen, UseItem:
		err = e.machine.GetCurrentState().HandleAction(sender, action)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownInput, action.ActionType())
	}
	if err != nil {
		e.reject(action, err)
	}
	return err
}

// StartGame is Handle(nil, StartGame{UserName: userName}).
func (e *Engine) StartGame(userName string) error {
	return e.Handle(nil, StartGame{UserName: userName})
}

// RollDice is Handle(nil, DiceRolled{Result: result}).
func (e *Engine) RollDice(result int) error {
	return e.Handle(nil, DiceRolled{Result: result})
}

// ChooseDirection is Handle(nil, DirectionChosen{SquareID: id}).
func (e *Engine) ChooseDirection(id string) error {
	return e.Handle(nil, DirectionChosen{SquareID: id})
}

// UseItem is Handle(nil, UseItem{ItemID: ref}).
func (e *Engine) UseItem(ref string) error {
	return e.Handle(nil, UseItem{ItemID: ref})
}

func (e *Engine) reject(action state.Action, err error) {
	logger.Log.Debugf("match %s rejected %s: %v", e.matchID(), action.ActionType(), err)
	e.pub.Publish(InputRejected{Input: action.ActionType(), Reason: err.Error()})
}

func (e *Engine) status(format string, args ...any) {
	e.pub.Publish(StatusUpdate{Message: fmt.Sprintf(format, args...)})
}

func (e *Engine) changePhase(s state.State) {
	if err := e.machine.ChangeState(s); err != nil {
		logger.Log.Errorf("match %s: %v", e.matchID(), err)
	}
}

func (e *Engine) matchID() string {
	if e.match == nil {
		return "-"
	}
	return e.match.ID
}

func (e *Engine) active() *models.Player {
	return e.match.Players[e.match.Active]
}

// --- 查询 ---

// Phase returns the current phase id.
func (e *Engine) Phase() string {
	return e.machine.GetCurrentState().GetID()
}

// MatchID returns the running match id, empty before the first StartGame.
func (e *Engine) MatchID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.match == nil {
		return ""
	}
	return e.match.ID
}

// Turn returns the round counter, starting at 1.
func (e *Engine) Turn() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.match == nil {
		return 0
	}
	return e.match.Turn
}

// Result returns the match result, ResultNone while it runs.
func (e *Engine) Result() models.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.match == nil {
		return models.ResultNone
	}
	return e.match.Result
}

// EventPlaying reports whether a rotation event is running.
func (e *Engine) EventPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.match != nil && e.match.EventPlaying
}

// Candidates returns the published move candidates of the active player.
func (e *Engine) Candidates() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.match == nil {
		return nil
	}
	return append([]string(nil), e.match.Candidates...)
}

// ActivePlayer returns a copy of the player whose turn it is.
func (e *Engine) ActivePlayer() (models.Player, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.match == nil {
		return models.Player{}, false
	}
	return copyPlayer(e.active()), true
}

// Players returns copies of all players in turn order.
func (e *Engine) Players() []models.Player {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.match == nil {
		return nil
	}
	out := make([]models.Player, 0, len(e.match.Players))
	for _, p := range e.match.Players {
		out = append(out, copyPlayer(p))
	}
	return out
}

// IsBottom reports whether panel id currently faces down.
func (e *Engine) IsBottom(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph != nil && e.graph.IsBottom(id)
}

// FaceUp returns the face currently pointing up.
func (e *Engine) FaceUp() (board.Face, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.graph == nil {
		return "", false
	}
	return e.graph.FaceUp()
}

func copyPlayer(p *models.Player) models.Player {
	c := *p
	c.Items = append([]models.Item(nil), p.Items...)
	return c
}
