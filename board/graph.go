// Package board builds the panel graph covering the cube surface and tracks
// the cube's orientation.
package board

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/zyedidia/generic/mapset"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrInvalidParams    = errors.New("board: invalid grid parameters")
	ErrDuplicatePanel   = errors.New("board: duplicate panel id")
	ErrInconsistentGrid = errors.New("board: inconsistent grid connectivity")
	ErrUnknownPanel     = errors.New("board: unknown panel")
)

// DownTolerance is the minimum dot product between a live normal and world
// down for the panel to count as facing down.
const DownTolerance = 0.9

// expectedDegree holds for every square on a cube surface: each panel has one
// neighbor across each of its four edges.
const expectedDegree = 4

var (
	WorldUp   = r3.Vec{Y: 1}
	WorldDown = r3.Vec{Y: -1}
	AxisX     = r3.Vec{X: 1}
	AxisZ     = r3.Vec{Z: 1}
)

// Params 棋盘生成参数
type Params struct {
	Size           int     `mapstructure:"size"`
	Spacing        float64 `mapstructure:"spacing"`
	PanelThickness float64 `mapstructure:"panel_thickness"`
	// NeighborRatio scales Spacing into the connection distance. It has to
	// exceed 1 (in-face neighbors) and stay below the off-by-one distance
	// across an edge, sqrt(1 + 2*(1/2 - t/2)^2) for thickness t in spacing units.
	NeighborRatio float64 `mapstructure:"neighbor_ratio"`
}

// DefaultParams returns the 5x5 board used by the game.
func DefaultParams() Params {
	return Params{
		Size:           5,
		Spacing:        1.0,
		PanelThickness: 0.1,
		NeighborRatio:  1.1,
	}
}

func (p Params) validate() error {
	switch {
	case p.Size < 2:
		return fmt.Errorf("%w: size %d < 2", ErrInvalidParams, p.Size)
	case p.Spacing <= 0:
		return fmt.Errorf("%w: spacing %v", ErrInvalidParams, p.Spacing)
	case p.PanelThickness < 0 || p.PanelThickness >= p.Spacing:
		return fmt.Errorf("%w: panel thickness %v outside [0, spacing)", ErrInvalidParams, p.PanelThickness)
	case p.NeighborRatio <= 1:
		return fmt.Errorf("%w: neighbor ratio %v <= 1", ErrInvalidParams, p.NeighborRatio)
	}
	return nil
}

// Graph owns every panel of one cube and its adjacency.
type Graph struct {
	params    Params
	panels    map[string]*Panel
	ids       []string
	rotations int
}

// Build generates 6*size^2 panels and connects them. The returned graph is
// complete; a failed build returns no graph at all.
func Build(params Params) (*Graph, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	g := &Graph{
		params: params,
		panels: make(map[string]*Panel, 6*params.Size*params.Size),
	}

	half := float64(params.Size) * params.Spacing / 2
	faceDistance := half - params.PanelThickness/2
	center := float64(params.Size-1) / 2

	for _, f := range faceFrames {
		for i := 0; i < params.Size; i++ {
			for j := 0; j < params.Size; j++ {
				id := fmt.Sprintf("%s_%d_%d", f.face, i, j)
				if _, exists := g.panels[id]; exists {
					return nil, fmt.Errorf("%w: %s", ErrDuplicatePanel, id)
				}

				pos := r3.Scale(faceDistance, f.normal)
				pos = r3.Add(pos, r3.Scale((float64(i)-center)*params.Spacing, f.u))
				pos = r3.Add(pos, r3.Scale((float64(j)-center)*params.Spacing, f.v))

				g.panels[id] = &Panel{
					ID:           id,
					Face:         f.face,
					Coord:        Coord{I: i, J: j},
					baseNormal:   f.normal,
					basePosition: pos,
					liveNormal:   f.normal,
					livePosition: pos,
					neighbors:    mapset.New[string](),
				}
				g.ids = append(g.ids, id)
			}
		}
	}
	sort.Strings(g.ids)

	if err := g.connect(); err != nil {
		return nil, err
	}
	return g, nil
}

// connect links every pair of panels closer than the neighbor threshold and
// checks that every panel ended up with exactly four neighbors.
func (g *Graph) connect() error {
	threshold := g.params.NeighborRatio * g.params.Spacing
	for a := 0; a < len(g.ids); a++ {
		pa := g.panels[g.ids[a]]
		for b := a + 1; b < len(g.ids); b++ {
			pb := g.panels[g.ids[b]]
			if r3.Norm(r3.Sub(pa.basePosition, pb.basePosition)) <= threshold {
				pa.neighbors.Put(pb.ID)
				pb.neighbors.Put(pa.ID)
			}
		}
	}

	for _, id := range g.ids {
		if d := g.panels[id].Degree(); d != expectedDegree {
			return fmt.Errorf("%w: %s has %d neighbors", ErrInconsistentGrid, id, d)
		}
	}
	return nil
}

// Params returns the generation parameters.
func (g *Graph) Params() Params {
	return g.params
}

// Len is the number of panels.
func (g *Graph) Len() int {
	return len(g.ids)
}

// Panels returns every panel id in lexical order.
func (g *Graph) Panels() []string {
	out := make([]string, len(g.ids))
	copy(out, g.ids)
	return out
}

// Panel looks up a panel by id.
func (g *Graph) Panel(id string) (*Panel, bool) {
	p, ok := g.panels[id]
	return p, ok
}

// Neighbors returns the neighbor ids of a panel.
func (g *Graph) Neighbors(id string) ([]string, error) {
	p, ok := g.panels[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPanel, id)
	}
	return p.Neighbors(), nil
}

// LiveNormal returns a panel's current outward normal.
func (g *Graph) LiveNormal(id string) (r3.Vec, error) {
	p, ok := g.panels[id]
	if !ok {
		return r3.Vec{}, fmt.Errorf("%w: %s", ErrUnknownPanel, id)
	}
	return p.liveNormal, nil
}

// Position returns a panel's current world position.
func (g *Graph) Position(id string) (r3.Vec, error) {
	p, ok := g.panels[id]
	if !ok {
		return r3.Vec{}, fmt.Errorf("%w: %s", ErrUnknownPanel, id)
	}
	return p.livePosition, nil
}

// IsBottom reports whether the panel currently faces world down. Unknown ids
// report false.
func (g *Graph) IsBottom(id string) bool {
	p, ok := g.panels[id]
	if !ok {
		return false
	}
	return FacesDown(p.liveNormal)
}

// FacesDown reports whether n points within tolerance of world down.
func FacesDown(n r3.Vec) bool {
	return r3.Dot(r3.Unit(n), WorldDown) > DownTolerance
}

// Rotations counts the rotations applied since Build.
func (g *Graph) Rotations() int {
	return g.rotations
}

// Rotate turns the whole cube by degrees about axis through its center. Only
// live positions and normals change.
func (g *Graph) Rotate(axis r3.Vec, degrees float64) error {
	if r3.Norm(axis) == 0 {
		return fmt.Errorf("%w: zero rotation axis", ErrInvalidParams)
	}
	rot := r3.NewRotation(degrees*math.Pi/180, axis)
	for _, id := range g.ids {
		p := g.panels[id]
		p.liveNormal = snap(rot.Rotate(p.liveNormal))
		p.livePosition = snap(rot.Rotate(p.livePosition))
	}
	g.rotations++
	return nil
}

// PanelAtColumn finds, among panels whose center lies in the vertical column
// through (x, z), the highest one (or lowest when topmost is false).
func (g *Graph) PanelAtColumn(x, z float64, topmost bool) (*Panel, bool) {
	reach := g.params.Spacing / 2
	var best *Panel
	for _, id := range g.ids {
		p := g.panels[id]
		dx, dz := p.livePosition.X-x, p.livePosition.Z-z
		if math.Hypot(dx, dz) > reach {
			continue
		}
		if best == nil ||
			(topmost && p.livePosition.Y > best.livePosition.Y) ||
			(!topmost && p.livePosition.Y < best.livePosition.Y) {
			best = p
		}
	}
	return best, best != nil
}

// FaceUp returns the face tag currently pointing up, if any.
func (g *Graph) FaceUp() (Face, bool) {
	for _, f := range faceFrames {
		id := fmt.Sprintf("%s_0_0", f.face)
		if p, ok := g.panels[id]; ok && r3.Dot(p.liveNormal, WorldUp) > DownTolerance {
			return f.face, true
		}
	}
	return "", false
}

// snap rounds away the floating point drift of repeated rotations.
func snap(v r3.Vec) r3.Vec {
	const scale = 1e9
	round := func(f float64) float64 {
		r := math.Round(f*scale) / scale
		if r == 0 {
			return 0
		}
		return r
	}
	return r3.Vec{X: round(v.X), Y: round(v.Y), Z: round(v.Z)}
}
