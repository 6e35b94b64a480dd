// Package items places collectible items on the board and resolves pickups.
package items

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/wfunc/blockoni/board"
	"github.com/wfunc/blockoni/models"
	"github.com/zyedidia/generic/mapset"
)

// DefaultSpeedUpBonus is added to the next dice roll when SpeedUp is picked up.
const DefaultSpeedUpBonus = 2

// Table 道具表：负责放置、拾取与效果辅助
type Table struct {
	rng          *rand.Rand
	count        int
	speedUpBonus int
}

// NewTable creates a table placing count items per match.
func NewTable(rng *rand.Rand, count, speedUpBonus int) *Table {
	if speedUpBonus <= 0 {
		speedUpBonus = DefaultSpeedUpBonus
	}
	return &Table{rng: rng, count: count, speedUpBonus: speedUpBonus}
}

// SpeedUpBonus is the dice bonus granted by a SpeedUp pickup.
func (t *Table) SpeedUpBonus() int {
	return t.speedUpBonus
}

// Place puts items on random free panels not listed in avoid. Every kind is
// placed once before any kind repeats. Fewer items are placed when the board
// runs out of free panels.
func (t *Table) Place(g *board.Graph, avoid mapset.Set[string]) []string {
	free := make([]string, 0, g.Len())
	for _, id := range g.Panels() {
		p, _ := g.Panel(id)
		if p.HasItem() || avoid.Has(id) {
			continue
		}
		free = append(free, id)
	}

	kinds := t.kindSequence(t.count)
	placed := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		if len(free) == 0 {
			break
		}
		i := t.rng.Intn(len(free))
		id := free[i]
		free[i] = free[len(free)-1]
		free = free[:len(free)-1]

		p, _ := g.Panel(id)
		p.Item = &models.Item{ID: uuid.NewString(), Kind: kind}
		placed = append(placed, id)
	}
	return placed
}

func (t *Table) kindSequence(n int) []models.ItemKind {
	first := make([]models.ItemKind, len(models.ItemKinds))
	copy(first, models.ItemKinds)
	t.rng.Shuffle(len(first), func(i, j int) { first[i], first[j] = first[j], first[i] })

	out := make([]models.ItemKind, 0, n)
	for i := 0; i < n; i++ {
		if i < len(first) {
			out = append(out, first[i])
			continue
		}
		out = append(out, models.ItemKinds[t.rng.Intn(len(models.ItemKinds))])
	}
	return out
}

// Pickup removes the item lying on panel id, if any.
func Pickup(g *board.Graph, id string) (models.Item, bool) {
	p, ok := g.Panel(id)
	if !ok || p.Item == nil {
		return models.Item{}, false
	}
	it := *p.Item
	p.Item = nil
	return it, true
}

// Collect applies a pickup to the player: SpeedUp becomes dice bonus right
// away, everything else goes into the player's items.
func (t *Table) Collect(player *models.Player, it models.Item) {
	if it.Kind == models.ItemSpeedUp {
		player.DiceBonus += t.speedUpBonus
		return
	}
	player.Items = append(player.Items, it)
}

// Activatable reports whether kind needs an explicit UseItem.
func Activatable(kind models.ItemKind) bool {
	return kind == models.ItemTeleport || kind == models.ItemStageRotate
}

// TeleportTarget picks a uniformly random panel that is not facing down and
// is not exclude.
func (t *Table) TeleportTarget(g *board.Graph, exclude string) (string, bool) {
	pool := make([]string, 0, g.Len())
	for _, id := range g.Panels() {
		if id == exclude || g.IsBottom(id) {
			continue
		}
		pool = append(pool, id)
	}
	if len(pool) == 0 {
		return "", false
	}
	return pool[t.rng.Intn(len(pool))], true
}

// Placed lists the items currently lying on the board, keyed by panel id.
func Placed(g *board.Graph) map[string]models.Item {
	out := make(map[string]models.Item)
	for _, id := range g.Panels() {
		if p, _ := g.Panel(id); p.Item != nil {
			out[id] = *p.Item
		}
	}
	return out
}
