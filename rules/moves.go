// Package rules decides where a player may step next.
package rules

import (
	"math"

	"github.com/wfunc/blockoni/board"
	"github.com/wfunc/blockoni/models"
	"gonum.org/v1/gonum/spatial/r3"
)

// StraightTolerance is the minimum dot product between the incoming and the
// outgoing direction for an Oni step to count as straight (about 26 degrees).
const StraightTolerance = 0.9

// Mover is the part of a player the rules look at.
type Mover struct {
	Current string
	Last    string
	Role    models.Role
}

// Candidates returns the panels the mover may step onto next, in neighbor
// order. An empty result is a dead end.
func Candidates(g *board.Graph, m Mover) []string {
	current, ok := g.Panel(m.Current)
	if !ok {
		return nil
	}

	var incoming r3.Vec
	haveIncoming := false
	if m.Role == models.RoleOni && m.Last != "" {
		if last, ok := g.Panel(m.Last); ok {
			incoming, haveIncoming = incomingDirection(last, current)
		}
	}

	out := make([]string, 0, current.Degree())
	for _, id := range current.Neighbors() {
		if id == m.Last {
			continue
		}
		next, ok := g.Panel(id)
		if !ok || board.FacesDown(next.Normal()) {
			continue
		}
		if m.Role == models.RoleOni && haveIncoming && !straight(current, next, incoming) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// Legal reports whether target is among the mover's candidates.
func Legal(g *board.Graph, m Mover, target string) bool {
	for _, id := range Candidates(g, m) {
		if id == target {
			return true
		}
	}
	return false
}

// incomingDirection is the unit direction last->current, flattened onto the
// current panel's face. Right after an edge crossing the raw vector points
// diagonally through the cube's corner; its tangent part is the forward
// direction on the new face.
func incomingDirection(last, current *board.Panel) (r3.Vec, bool) {
	d := r3.Sub(current.Position(), last.Position())
	if last.Face != current.Face {
		n := current.Normal()
		d = r3.Sub(d, r3.Scale(r3.Dot(d, n), n))
	}
	if r3.Norm(d) < 1e-9 {
		return r3.Vec{}, false
	}
	return r3.Unit(d), true
}

func straight(current, next *board.Panel, incoming r3.Vec) bool {
	if next.Face == current.Face {
		out := r3.Sub(next.Position(), current.Position())
		if r3.Norm(out) < 1e-9 {
			return false
		}
		return r3.Dot(incoming, r3.Unit(out)) > StraightTolerance
	}
	// crossing an edge: the next face must be the one we are heading into
	return math.Abs(r3.Dot(incoming, next.Normal())) > StraightTolerance
}
