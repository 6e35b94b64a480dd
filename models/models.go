// models/models.go
package models

import (
	"fmt"
	"time"
)

// Role 玩家角色
type Role string

const (
	RoleOni    Role = "Oni"
	RoleRunner Role = "Runner"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleOni || r == RoleRunner
}

// ItemKind 道具类型
type ItemKind string

const (
	ItemSpeedUp     ItemKind = "SpeedUp"
	ItemTeleport    ItemKind = "Teleport"
	ItemStageRotate ItemKind = "StageRotate"
)

// ItemKinds lists every placeable kind in placement order.
var ItemKinds = []ItemKind{ItemSpeedUp, ItemTeleport, ItemStageRotate}

// ParseItemKind maps a kind name to its ItemKind.
func ParseItemKind(s string) (ItemKind, error) {
	for _, k := range ItemKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown item kind %q", s)
}

// Item 道具实例，放置在格子上或被玩家持有
type Item struct {
	ID   string   `json:"id"`
	Kind ItemKind `json:"kind"`
}

// Result 对局结果
type Result string

const (
	ResultNone      Result = ""
	ResultOniWin    Result = "OniWin"
	ResultRunnerWin Result = "RunnerWin"
)

// Player 对局中的玩家状态
type Player struct {
	ID             string `json:"id"`
	UserName       string `json:"userName,omitempty"`
	Role           Role   `json:"role"`
	StartSquareID  string `json:"-"`
	CurrentSquare  string `json:"currentSquareId"`
	LastSquare     string `json:"lastSquareId,omitempty"`
	RemainingSteps int    `json:"remainingSteps"`
	TotalSteps     int    `json:"totalSteps"`
	DiceBonus      int    `json:"diceBonus"`
	Items          []Item `json:"items"`
}

// Reset puts the player back on its starting panel with no turn state.
func (p *Player) Reset() {
	p.CurrentSquare = p.StartSquareID
	p.LastSquare = ""
	p.RemainingSteps = 0
	p.TotalSteps = 0
	p.DiceBonus = 0
	p.Items = nil
}

// TakeItem removes and returns the first owned item matching ref, which may
// be an item id or a kind name.
func (p *Player) TakeItem(ref string) (Item, bool) {
	for i, it := range p.Items {
		if it.ID == ref || string(it.Kind) == ref {
			p.Items = append(p.Items[:i], p.Items[i+1:]...)
			return it, true
		}
	}
	return Item{}, false
}

// HasItem reports whether ref names an owned item.
func (p *Player) HasItem(ref string) (Item, bool) {
	for _, it := range p.Items {
		if it.ID == ref || string(it.Kind) == ref {
			return it, true
		}
	}
	return Item{}, false
}

// PlayerInfo 玩家信息（用于对局记录）
type PlayerInfo struct {
	PlayerID string `json:"player_id"`
	UserName string `json:"user_name"`
	Role     Role   `json:"role"`
	Outcome  string `json:"outcome"` // win/lose
	SquareID string `json:"square_id"`
}

// MatchRecord 对局记录模型
type MatchRecord struct {
	MatchID   string       `json:"match_id"`
	RoomID    string       `json:"room_id"`
	Result    Result       `json:"result"`
	Turns     int          `json:"turns"`
	Rotations int          `json:"rotations"`
	Players   []PlayerInfo `json:"players"`
	StartedAt time.Time    `json:"started_at"`
	EndedAt   time.Time    `json:"ended_at"`
}

// Duration 对局时长
func (r *MatchRecord) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}
