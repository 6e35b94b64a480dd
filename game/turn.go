package game

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/blockoni/board"
	"github.com/wfunc/blockoni/items"
	"github.com/wfunc/blockoni/logger"
	"github.com/wfunc/blockoni/models"
	"github.com/wfunc/blockoni/rules"
	"github.com/zyedidia/generic/mapset"
)

// start builds a fresh board and match and hands the first turn to seat 0.
func (e *Engine) start(a StartGame) error {
	if e.match != nil && e.match.EventPlaying {
		return fmt.Errorf("%w: %s", ErrEventPlaying, a.ActionType())
	}
	g, err := board.Build(e.settings.Board)
	if err != nil {
		return fmt.Errorf("start game: %w", err)
	}

	starts := mapset.New[string]()
	players := make([]*models.Player, 0, len(e.settings.Seats))
	for _, seat := range e.settings.Seats {
		if _, ok := g.Panel(seat.Start); !ok || g.IsBottom(seat.Start) {
			return fmt.Errorf("start game: seat %s: %w: %s", seat.ID, ErrUnknownPanel, seat.Start)
		}
		p := &models.Player{ID: seat.ID, Role: seat.Role, StartSquareID: seat.Start}
		p.Reset()
		players = append(players, p)
		starts.Put(seat.Start)
	}
	e.table.Place(g, starts)

	e.graph = g
	e.rotation = nil
	e.match = &Match{
		ID:        uuid.NewString(),
		Players:   players,
		Turn:      1,
		StartedAt: time.Now(),
	}
	seat := e.claimSeat(a.UserName)
	for name, i := range e.claims {
		players[i].UserName = name
	}
	logger.Log.Infof("match %s started, %d players, %d items", e.match.ID, len(players), len(items.Placed(g)))

	e.pub.Publish(e.startedMessage())
	if seat >= 0 {
		p := players[seat]
		e.pub.Publish(RoleAssigned{Role: p.Role, PlayerID: p.ID, UserName: p.UserName})
	} else if a.UserName != "" {
		e.status("No free seat for %s", a.UserName)
	}
	e.observer.MatchStarted()

	e.changePhase(e.phases.dice)
	e.announceTurn()
	return nil
}

// claimSeat binds userName to a seat: the seat with that id, the seat the
// name already holds, or the first unclaimed seat. -1 when none is left.
func (e *Engine) claimSeat(userName string) int {
	if userName == "" {
		return -1
	}
	for i, seat := range e.settings.Seats {
		if seat.ID == userName {
			e.release(i)
			e.claims[userName] = i
			return i
		}
	}
	if i, ok := e.claims[userName]; ok {
		return i
	}
	taken := make(map[int]bool, len(e.claims))
	for _, i := range e.claims {
		taken[i] = true
	}
	for i := range e.settings.Seats {
		if !taken[i] {
			e.claims[userName] = i
			return i
		}
	}
	return -1
}

func (e *Engine) release(seat int) {
	for name, i := range e.claims {
		if i == seat {
			delete(e.claims, name)
		}
	}
}

func (e *Engine) startedMessage() GameStarted {
	msg := GameStarted{MatchID: e.match.ID}
	for _, p := range e.match.Players {
		msg.Players = append(msg.Players, PlayerView{ID: p.ID, UserName: p.UserName, Role: p.Role, CurrentSquare: p.CurrentSquare})
	}
	for id, it := range items.Placed(e.graph) {
		msg.Items = append(msg.Items, ItemView{SquareID: id, ItemID: it.ID, Kind: it.Kind})
	}
	slices.SortFunc(msg.Items, func(a, b ItemView) int { return strings.Compare(a.SquareID, b.SquareID) })
	return msg
}

func (e *Engine) announceTurn() {
	p := e.active()
	e.pub.Publish(TurnChange{PlayerID: p.ID, Turn: e.match.Turn})
	e.status("Turn %d: %s (%s) to roll", e.match.Turn, p.ID, p.Role)
}

// rollDice starts the active player's movement: total steps are the die face
// plus any banked bonus, which is consumed.
func (e *Engine) rollDice(result int) error {
	if result < 1 || result > 6 {
		return fmt.Errorf("%w: %d", ErrInvalidDice, result)
	}
	p := e.active()
	bonus := p.DiceBonus
	p.DiceBonus = 0
	total := result + bonus
	p.RemainingSteps = total
	p.TotalSteps = total
	p.LastSquare = ""

	e.pub.Publish(DiceCalculated{PlayerID: p.ID, Base: result, Bonus: bonus, Total: total})
	e.observer.DiceRolled(total)
	e.evaluateStep()
	return nil
}

// evaluateStep publishes the next candidates, or ends the movement when no
// steps remain or the player is stuck.
func (e *Engine) evaluateStep() {
	p := e.active()
	if p.RemainingSteps <= 0 {
		e.evaluateWin()
		return
	}
	cands := rules.Candidates(e.graph, rules.Mover{Current: p.CurrentSquare, Last: p.LastSquare, Role: p.Role})
	if len(cands) == 0 {
		p.RemainingSteps = 0
		e.status("%s is stuck at %s", p.ID, p.CurrentSquare)
		e.evaluateWin()
		return
	}
	e.match.Candidates = cands
	e.changePhase(e.phases.direction)
	e.pub.Publish(MoveCandidates{PlayerID: p.ID, SquareIDs: cands, Remaining: p.RemainingSteps})
}

// chooseDirection commits one step onto a published candidate.
func (e *Engine) chooseDirection(id string) error {
	if _, ok := e.graph.Panel(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPanel, id)
	}
	if !slices.Contains(e.match.Candidates, id) {
		return fmt.Errorf("%w: %s", ErrNotCandidate, id)
	}
	p := e.active()
	p.LastSquare = p.CurrentSquare
	p.CurrentSquare = id
	p.RemainingSteps--
	e.match.Candidates = nil

	e.pub.Publish(PlayerMoved{PlayerID: p.ID, SquareID: id, Remaining: p.RemainingSteps})
	e.observer.StepCommitted()
	e.pickup(p)

	if e.captured() {
		p.RemainingSteps = 0
		e.endGame(models.ResultOniWin)
		return nil
	}
	e.evaluateStep()
	return nil
}

// pickup collects the item lying under p, if any.
func (e *Engine) pickup(p *models.Player) {
	it, ok := items.Pickup(e.graph, p.CurrentSquare)
	if !ok {
		return
	}
	e.table.Collect(p, it)
	e.pub.Publish(ItemPickup{PlayerID: p.ID, ItemID: it.ID, Kind: it.Kind})
	if it.Kind == models.ItemSpeedUp {
		e.status("%s picked up SpeedUp: +%d on the next roll", p.ID, e.table.SpeedUpBonus())
	}
}

// captured reports whether an Oni shares a panel with the Runner.
func (e *Engine) captured() bool {
	var runner *models.Player
	for _, p := range e.match.Players {
		if p.Role == models.RoleRunner {
			runner = p
		}
	}
	if runner == nil {
		return false
	}
	for _, p := range e.match.Players {
		if p.Role == models.RoleOni && p.CurrentSquare == runner.CurrentSquare {
			return true
		}
	}
	return false
}

// evaluateWin runs after a player's movement: capture wins for the Oni, the
// turn limit reached on the last seat wins for the Runner, otherwise play
// passes on.
func (e *Engine) evaluateWin() {
	e.changePhase(e.phases.evaluating)
	e.match.Candidates = nil
	if e.captured() {
		e.endGame(models.ResultOniWin)
		return
	}
	lastSeat := e.match.Active == len(e.match.Players)-1
	if e.settings.TurnLimit > 0 && lastSeat && e.match.Turn >= e.settings.TurnLimit {
		e.endGame(models.ResultRunnerWin)
		return
	}
	e.advanceTurn()
}

// advanceTurn passes play to the next seat. Wrapping to seat 0 starts a new
// round, and every RotationEveryRounds rounds the cube rotates first.
func (e *Engine) advanceTurn() {
	m := e.match
	m.Active = (m.Active + 1) % len(m.Players)
	if m.Active == 0 {
		m.Turn++
		every := e.settings.RotationEveryRounds
		if every > 0 && (m.Turn-1)%every == 0 {
			e.startRotation()
			return
		}
	}
	e.changePhase(e.phases.dice)
	e.announceTurn()
}

func (e *Engine) endGame(result models.Result) {
	m := e.match
	m.Result = result
	m.Candidates = nil
	e.changePhase(e.phases.ended)
	logger.Log.Infof("match %s ended: %s at turn %d", m.ID, result, m.Turn)

	if e.onEnd != nil {
		e.onEnd(e.record())
	}
	e.pub.Publish(GameEnd{Result: result, MatchID: m.ID, Turn: m.Turn})
	e.observer.MatchEnded(result)
}

func (e *Engine) record() *models.MatchRecord {
	m := e.match
	rec := &models.MatchRecord{
		MatchID:   m.ID,
		Result:    m.Result,
		Turns:     m.Turn,
		Rotations: e.graph.Rotations(),
		StartedAt: m.StartedAt,
		EndedAt:   time.Now(),
	}
	winner := models.RoleOni
	if m.Result == models.ResultRunnerWin {
		winner = models.RoleRunner
	}
	for _, p := range m.Players {
		outcome := "lose"
		if p.Role == winner {
			outcome = "win"
		}
		rec.Players = append(rec.Players, models.PlayerInfo{
			PlayerID: p.ID,
			UserName: p.UserName,
			Role:     p.Role,
			Outcome:  outcome,
			SquareID: p.CurrentSquare,
		})
	}
	return rec
}
