package board

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func buildDefault(t *testing.T) *Graph {
	t.Helper()
	g, err := Build(DefaultParams())
	require.NoError(t, err)
	return g
}

func TestBuildPanelCountAndIDs(t *testing.T) {
	g := buildDefault(t)
	require.Equal(t, 6*5*5, g.Len())

	for _, face := range []Face{FaceTop, FaceBottom, FaceFront, FaceBack, FaceLeft, FaceRight} {
		for i := 0; i < 5; i++ {
			for j := 0; j < 5; j++ {
				id := fmt.Sprintf("%s_%d_%d", face, i, j)
				p, ok := g.Panel(id)
				require.True(t, ok, "missing %s", id)
				assert.Equal(t, face, p.Face)
				assert.Equal(t, Coord{I: i, J: j}, p.Coord)
			}
		}
	}
}

func TestNeighborRelationIsSymmetric(t *testing.T) {
	g := buildDefault(t)
	for _, id := range g.Panels() {
		ns, err := g.Neighbors(id)
		require.NoError(t, err)
		for _, n := range ns {
			back, err := g.Neighbors(n)
			require.NoError(t, err)
			assert.Contains(t, back, id, "%s -> %s is not mirrored", id, n)
		}
	}
}

func TestDegreePerPositionClass(t *testing.T) {
	g := buildDefault(t)

	cases := []struct {
		name string
		id   string
		want []string
	}{
		{"corner", "Top_0_0", []string{"Back_0_4", "Left_0_4", "Top_0_1", "Top_1_0"}},
		{"edge", "Top_0_2", []string{"Left_2_4", "Top_0_1", "Top_0_3", "Top_1_2"}},
		{"interior", "Top_2_2", []string{"Top_1_2", "Top_2_1", "Top_2_3", "Top_3_2"}},
		{"bottom corner", "Bottom_4_4", []string{"Bottom_3_4", "Bottom_4_3", "Front_4_0", "Right_4_0"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ns, err := g.Neighbors(tc.id)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ns)
		})
	}

	for _, id := range g.Panels() {
		p, _ := g.Panel(id)
		assert.Equal(t, 4, p.Degree(), "degree of %s", id)
	}
}

func TestCornerPanelsAreMutuallyAdjacent(t *testing.T) {
	g := buildDefault(t)
	corner := []string{"Top_4_4", "Right_4_4", "Front_4_4"}
	for _, a := range corner {
		p, _ := g.Panel(a)
		for _, b := range corner {
			if a != b {
				assert.True(t, p.IsNeighbor(b), "%s should touch %s", a, b)
			}
		}
	}
}

func TestBuildRejectsInvalidParams(t *testing.T) {
	base := DefaultParams()
	cases := map[string]func(p *Params){
		"size":      func(p *Params) { p.Size = 1 },
		"spacing":   func(p *Params) { p.Spacing = 0 },
		"thickness": func(p *Params) { p.PanelThickness = p.Spacing },
		"ratio":     func(p *Params) { p.NeighborRatio = 1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := base
			mutate(&p)
			g, err := Build(p)
			assert.Nil(t, g)
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestBuildRejectsThresholdAdmittingDiagonals(t *testing.T) {
	p := DefaultParams()
	p.NeighborRatio = 1.5
	g, err := Build(p)
	assert.Nil(t, g)
	assert.ErrorIs(t, err, ErrInconsistentGrid)

	p = DefaultParams()
	p.PanelThickness = 0.5
	_, err = Build(p)
	assert.ErrorIs(t, err, ErrInconsistentGrid)
}

func TestSmallestBoardStillConnects(t *testing.T) {
	p := DefaultParams()
	p.Size = 2
	g, err := Build(p)
	require.NoError(t, err)
	assert.Equal(t, 24, g.Len())
}

func TestBottomFaceIsInitiallyDown(t *testing.T) {
	g := buildDefault(t)
	for _, id := range g.Panels() {
		p, _ := g.Panel(id)
		assert.Equal(t, p.Face == FaceBottom, g.IsBottom(id), id)
	}
	assert.False(t, g.IsBottom("Nowhere_0_0"))

	up, ok := g.FaceUp()
	require.True(t, ok)
	assert.Equal(t, FaceTop, up)
}

func TestRotateKeepsTopologyAndMovesGeometry(t *testing.T) {
	g := buildDefault(t)

	before := map[string][]string{}
	normals := map[string]r3.Vec{}
	positions := map[string]r3.Vec{}
	for _, id := range g.Panels() {
		before[id], _ = g.Neighbors(id)
		normals[id], _ = g.LiveNormal(id)
		positions[id], _ = g.Position(id)
	}

	require.NoError(t, g.Rotate(AxisX, 90))
	assert.Equal(t, 1, g.Rotations())

	for _, id := range g.Panels() {
		p, _ := g.Panel(id)
		after, _ := g.Neighbors(id)
		assert.Equal(t, before[id], after, "neighbors of %s", id)
		assert.Equal(t, p.BaseNormal(), normals[id], "base normal of %s", id)

		n, _ := g.LiveNormal(id)
		if p.Face == FaceLeft || p.Face == FaceRight {
			// faces pierced by the rotation axis keep their normal
			assert.Equal(t, normals[id], n, id)
			continue
		}
		assert.NotEqual(t, normals[id], n, "normal of %s", id)
		assert.NotEqual(t, positions[id], p.Position(), "position of %s", id)
	}

	up, ok := g.FaceUp()
	require.True(t, ok)
	assert.Equal(t, FaceBack, up)
	assert.True(t, g.IsBottom("Front_2_2"))
	assert.False(t, g.IsBottom("Bottom_2_2"))
}

func TestRotateFullTurnRestoresGeometry(t *testing.T) {
	g := buildDefault(t)
	want, _ := g.Position("Front_1_3")
	for i := 0; i < 4; i++ {
		require.NoError(t, g.Rotate(AxisZ, 90))
	}
	got, _ := g.Position("Front_1_3")
	assert.InDelta(t, want.X, got.X, 1e-6)
	assert.InDelta(t, want.Y, got.Y, 1e-6)
	assert.InDelta(t, want.Z, got.Z, 1e-6)
	assert.Error(t, g.Rotate(r3.Vec{}, 90))
}

func TestPanelAtColumnFindsNewTop(t *testing.T) {
	g := buildDefault(t)
	require.NoError(t, g.Rotate(AxisX, 90))

	pos, err := g.Position("Front_1_3")
	require.NoError(t, err)
	require.True(t, g.IsBottom("Front_1_3"))

	top, ok := g.PanelAtColumn(pos.X, pos.Z, true)
	require.True(t, ok)
	assert.Equal(t, "Back_1_3", top.ID)
	assert.False(t, g.IsBottom(top.ID))

	low, ok := g.PanelAtColumn(pos.X, pos.Z, false)
	require.True(t, ok)
	assert.Equal(t, "Front_1_3", low.ID)

	_, ok = g.PanelAtColumn(100, 100, true)
	assert.False(t, ok)
}

func TestUnknownPanelQueries(t *testing.T) {
	g := buildDefault(t)
	_, err := g.Neighbors("Nope")
	assert.ErrorIs(t, err, ErrUnknownPanel)
	_, err = g.LiveNormal("Nope")
	assert.ErrorIs(t, err, ErrUnknownPanel)
	_, err = g.Position("Nope")
	assert.ErrorIs(t, err, ErrUnknownPanel)
}
