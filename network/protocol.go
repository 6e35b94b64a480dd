package network

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wfunc/blockoni/game"
	"github.com/wfunc/blockoni/state"
)

const (
	MsgTypeHeartbeat  = 1
	MsgTypeJoinRoom   = 101
	MsgTypeLeaveRoom  = 102
	MsgTypeCreateRoom = 103

	// 游戏输入
	MsgTypeStartGame       = 201
	MsgTypeDiceRolled      = 202
	MsgTypeDirectionChosen = 203
	MsgTypeUseItem         = 204

	// 游戏输出
	MsgTypeRoleAssigned     = 301
	MsgTypeDiceCalculated   = 302
	MsgTypeTurnChange       = 303
	MsgTypeStatusUpdate     = 304
	MsgTypeItemPickup       = 305
	MsgTypeGameEnd          = 306
	MsgTypeMoveCandidates   = 307
	MsgTypePlayerMoved      = 308
	MsgTypeRotationStarted  = 309
	MsgTypeRotationProgress = 310
	MsgTypeRotationFinished = 311
	MsgTypePlayerRelocated  = 312
	MsgTypeInputRejected    = 313
	MsgTypeGameStarted      = 314
	MsgTypeRoomState        = 320
	MsgTypeError            = 399
)

var ErrUnknownMessage = errors.New("network: unknown message id")

var outIDs = map[string]uint16{
	game.TypeRoleAssigned:     MsgTypeRoleAssigned,
	game.TypeDiceCalculated:   MsgTypeDiceCalculated,
	game.TypeTurnChange:       MsgTypeTurnChange,
	game.TypeStatusUpdate:     MsgTypeStatusUpdate,
	game.TypeItemPickup:       MsgTypeItemPickup,
	game.TypeGameEnd:          MsgTypeGameEnd,
	game.TypeMoveCandidates:   MsgTypeMoveCandidates,
	game.TypePlayerMoved:      MsgTypePlayerMoved,
	game.TypeRotationStarted:  MsgTypeRotationStarted,
	game.TypeRotationProgress: MsgTypeRotationProgress,
	game.TypeRotationFinished: MsgTypeRotationFinished,
	game.TypePlayerRelocated:  MsgTypePlayerRelocated,
	game.TypeInputRejected:    MsgTypeInputRejected,
	game.TypeGameStarted:      MsgTypeGameStarted,
}

// IsGameInput reports whether msgID carries an engine input.
func IsGameInput(msgID uint16) bool {
	return msgID >= MsgTypeStartGame && msgID <= MsgTypeUseItem
}

// EncodeMessage maps an engine message to its id and JSON payload.
func EncodeMessage(msg game.Message) (uint16, []byte, error) {
	id, ok := outIDs[msg.MessageType()]
	if !ok {
		return 0, nil, fmt.Errorf("%w: %s", ErrUnknownMessage, msg.MessageType())
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return 0, nil, err
	}
	return id, data, nil
}

// DecodeAction parses an engine input packet.
func DecodeAction(msgID uint16, data []byte) (state.Action, error) {
	switch msgID {
	case MsgTypeStartGame:
		// StartGame may come without a body
		var a game.StartGame
		if len(data) == 0 {
			return a, nil
		}
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		return a, nil
	case MsgTypeDiceRolled:
		var a game.DiceRolled
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		return a, nil
	case MsgTypeDirectionChosen:
		var a game.DirectionChosen
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		return a, nil
	case MsgTypeUseItem:
		var a game.UseItem
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		return a, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownMessage, msgID)
}
