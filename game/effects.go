package game

import (
	"fmt"

	"github.com/wfunc/blockoni/items"
	"github.com/wfunc/blockoni/models"
)

// useItem activates an owned Teleport or StageRotate before the roll. Either
// one uses up the player's movement for the turn.
func (e *Engine) useItem(ref string) error {
	p := e.active()
	it, ok := p.HasItem(ref)
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotOwned, ref)
	}
	if !items.Activatable(it.Kind) {
		return fmt.Errorf("%w: %s", ErrItemNotActivatable, it.Kind)
	}

	switch it.Kind {
	case models.ItemTeleport:
		target, ok := e.table.TeleportTarget(e.graph, p.CurrentSquare)
		if !ok {
			return fmt.Errorf("%w: no teleport target", ErrItemNotActivatable)
		}
		p.TakeItem(it.ID)
		p.CurrentSquare = target
		p.LastSquare = ""
		p.RemainingSteps = 0
		e.status("%s teleported to %s", p.ID, target)
		e.pub.Publish(PlayerRelocated{PlayerID: p.ID, SquareID: target})
		e.pickup(p)
		e.evaluateWin()

	case models.ItemStageRotate:
		p.TakeItem(it.ID)
		e.status("%s rotates the stage", p.ID)
		e.startRotation()
	}
	return nil
}
