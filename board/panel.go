package board

import (
	"sort"

	"github.com/wfunc/blockoni/models"
	"github.com/zyedidia/generic/mapset"
	"gonum.org/v1/gonum/spatial/r3"
)

// Face is one of the six sides of the cube.
type Face string

const (
	FaceTop    Face = "Top"
	FaceBottom Face = "Bottom"
	FaceFront  Face = "Front"
	FaceBack   Face = "Back"
	FaceLeft   Face = "Left"
	FaceRight  Face = "Right"
)

// faceFrame is the outward normal and the local grid axes of a face.
type faceFrame struct {
	face   Face
	normal r3.Vec
	u, v   r3.Vec
}

// Generation order. Top/Bottom index (x, z), Front/Back (x, y), Left/Right (z, y).
var faceFrames = []faceFrame{
	{FaceTop, r3.Vec{Y: 1}, r3.Vec{X: 1}, r3.Vec{Z: 1}},
	{FaceBottom, r3.Vec{Y: -1}, r3.Vec{X: 1}, r3.Vec{Z: 1}},
	{FaceFront, r3.Vec{Z: 1}, r3.Vec{X: 1}, r3.Vec{Y: 1}},
	{FaceBack, r3.Vec{Z: -1}, r3.Vec{X: 1}, r3.Vec{Y: 1}},
	{FaceRight, r3.Vec{X: 1}, r3.Vec{Z: 1}, r3.Vec{Y: 1}},
	{FaceLeft, r3.Vec{X: -1}, r3.Vec{Z: 1}, r3.Vec{Y: 1}},
}

// Coord is a panel's grid index within its face.
type Coord struct {
	I, J int
}

// Panel is a single grid cell of the cube surface.
type Panel struct {
	ID    string
	Face  Face
	Coord Coord

	// base values are fixed at generation time; live values follow the
	// cube's rotation.
	baseNormal   r3.Vec
	basePosition r3.Vec
	liveNormal   r3.Vec
	livePosition r3.Vec

	neighbors mapset.Set[string]

	Item *models.Item
}

// Normal returns the live outward normal.
func (p *Panel) Normal() r3.Vec {
	return p.liveNormal
}

// Position returns the live world-space center.
func (p *Panel) Position() r3.Vec {
	return p.livePosition
}

// BaseNormal returns the outward normal at generation time.
func (p *Panel) BaseNormal() r3.Vec {
	return p.baseNormal
}

// Neighbors returns the neighbor ids in lexical order.
func (p *Panel) Neighbors() []string {
	ids := make([]string, 0, p.neighbors.Size())
	p.neighbors.Each(func(id string) {
		ids = append(ids, id)
	})
	sort.Strings(ids)
	return ids
}

// IsNeighbor reports whether id is adjacent to p.
func (p *Panel) IsNeighbor(id string) bool {
	return p.neighbors.Has(id)
}

// Degree is the number of neighbors.
func (p *Panel) Degree() int {
	return p.neighbors.Size()
}

// HasItem reports whether an item lies on the panel.
func (p *Panel) HasItem() bool {
	return p.Item != nil
}
