package game

import "github.com/wfunc/blockoni/models"

// Message type names shared by inputs and outputs.
const (
	TypeStartGame       = "StartGame"
	TypeDiceRolled      = "DiceRolled"
	TypeDirectionChosen = "DirectionChosen"
	TypeUseItem         = "UseItem"

	TypeRoleAssigned     = "RoleAssigned"
	TypeDiceCalculated   = "DiceCalculated"
	TypeTurnChange       = "TurnChange"
	TypeStatusUpdate     = "StatusUpdate"
	TypeItemPickup       = "ItemPickup"
	TypeGameEnd          = "GameEnd"
	TypeMoveCandidates   = "MoveCandidates"
	TypePlayerMoved      = "PlayerMoved"
	TypeRotationStarted  = "RotationStarted"
	TypeRotationProgress = "RotationProgress"
	TypeRotationFinished = "RotationFinished"
	TypePlayerRelocated  = "PlayerRelocated"
	TypeInputRejected    = "InputRejected"
	TypeGameStarted      = "GameStarted"
)

// --- 输入消息 ---

// StartGame begins or re-arms a match and seats UserName.
type StartGame struct {
	UserName string `json:"userName"`
}

func (StartGame) ActionType() string { return TypeStartGame }

// DiceRolled carries a raw die face.
type DiceRolled struct {
	Result int `json:"result"`
}

func (DiceRolled) ActionType() string { return TypeDiceRolled }

// DirectionChosen commits one step onto SquareID.
type DirectionChosen struct {
	SquareID string `json:"squareId"`
}

func (DirectionChosen) ActionType() string { return TypeDirectionChosen }

// UseItem activates an owned item by id or kind name.
type UseItem struct {
	ItemID string `json:"itemId"`
}

func (UseItem) ActionType() string { return TypeUseItem }

// --- 输出消息 ---

// Message is anything the engine publishes to the host.
type Message interface {
	MessageType() string
}

type RoleAssigned struct {
	Role     models.Role `json:"role"`
	PlayerID string      `json:"playerId"`
	UserName string      `json:"userName"`
}

func (RoleAssigned) MessageType() string { return TypeRoleAssigned }

type DiceCalculated struct {
	PlayerID string `json:"playerId"`
	Base     int    `json:"base"`
	Bonus    int    `json:"bonus"`
	Total    int    `json:"total"`
}

func (DiceCalculated) MessageType() string { return TypeDiceCalculated }

type TurnChange struct {
	PlayerID string `json:"playerId"`
	Turn     int    `json:"turn"`
}

func (TurnChange) MessageType() string { return TypeTurnChange }

type StatusUpdate struct {
	Message string `json:"message"`
}

func (StatusUpdate) MessageType() string { return TypeStatusUpdate }

type ItemPickup struct {
	PlayerID string          `json:"playerId"`
	ItemID   string          `json:"itemId"`
	Kind     models.ItemKind `json:"kind"`
}

func (ItemPickup) MessageType() string { return TypeItemPickup }

type GameEnd struct {
	Result  models.Result `json:"result"`
	MatchID string        `json:"matchId"`
	Turn    int           `json:"turn"`
}

func (GameEnd) MessageType() string { return TypeGameEnd }

type MoveCandidates struct {
	PlayerID  string   `json:"playerId"`
	SquareIDs []string `json:"squareIds"`
	Remaining int      `json:"remaining"`
}

func (MoveCandidates) MessageType() string { return TypeMoveCandidates }

type PlayerMoved struct {
	PlayerID  string `json:"playerId"`
	SquareID  string `json:"squareId"`
	Remaining int    `json:"remaining"`
}

func (PlayerMoved) MessageType() string { return TypePlayerMoved }

type RotationStarted struct {
	Axis       string  `json:"axis"`
	Degrees    float64 `json:"degrees"`
	DurationMs int64   `json:"durationMs"`
}

func (RotationStarted) MessageType() string { return TypeRotationStarted }

type RotationProgress struct {
	Angle float64 `json:"angle"`
}

func (RotationProgress) MessageType() string { return TypeRotationProgress }

type RotationFinished struct {
	Rotations int `json:"rotations"`
}

func (RotationFinished) MessageType() string { return TypeRotationFinished }

type PlayerRelocated struct {
	PlayerID string `json:"playerId"`
	SquareID string `json:"squareId"`
}

func (PlayerRelocated) MessageType() string { return TypePlayerRelocated }

type InputRejected struct {
	Input  string `json:"input"`
	Reason string `json:"reason"`
}

func (InputRejected) MessageType() string { return TypeInputRejected }

// PlayerView is a player as shown to the host.
type PlayerView struct {
	ID            string      `json:"id"`
	UserName      string      `json:"userName,omitempty"`
	Role          models.Role `json:"role"`
	CurrentSquare string      `json:"currentSquareId"`
}

// ItemView is an item lying on the board.
type ItemView struct {
	SquareID string          `json:"squareId"`
	ItemID   string          `json:"itemId"`
	Kind     models.ItemKind `json:"kind"`
}

type GameStarted struct {
	MatchID string       `json:"matchId"`
	Players []PlayerView `json:"players"`
	Items   []ItemView   `json:"items"`
}

func (GameStarted) MessageType() string { return TypeGameStarted }
