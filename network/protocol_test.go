package network

import (
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/blockoni/game"
	"github.com/wfunc/blockoni/models"
)

func TestFrameLayout(t *testing.T) {
	packet, err := Frame(MsgTypeDiceRolled, []byte(`{"result":3}`))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xCA, 0x00, 0x0C}, packet[:HeaderSize])

	p, err := ParseFrame(packet)
	require.NoError(t, err)
	assert.Equal(t, uint16(MsgTypeDiceRolled), p.MsgID)
	assert.Equal(t, uint16(12), p.Length)
	assert.Equal(t, `{"result":3}`, string(p.Data))
}

func TestParseFrameShortInput(t *testing.T) {
	_, err := ParseFrame([]byte{0x00, 0x01})
	assert.ErrorIs(t, err, io.ErrShortBuffer)

	_, err = ParseFrame([]byte{0x00, 0x01, 0x00, 0x05, 'a'})
	assert.ErrorIs(t, err, io.ErrShortBuffer)
}

func TestFrameRejectsHugePayload(t *testing.T) {
	_, err := Frame(MsgTypeStatusUpdate, []byte(strings.Repeat("x", 1<<16)))
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestDecodeAction(t *testing.T) {
	a, err := DecodeAction(MsgTypeDirectionChosen, []byte(`{"squareId":"Top_0_1"}`))
	require.NoError(t, err)
	assert.Equal(t, game.DirectionChosen{SquareID: "Top_0_1"}, a)

	a, err = DecodeAction(MsgTypeStartGame, nil)
	require.NoError(t, err)
	assert.Equal(t, game.StartGame{}, a)

	a, err = DecodeAction(MsgTypeUseItem, []byte(`{"itemId":"Teleport"}`))
	require.NoError(t, err)
	assert.Equal(t, game.TypeUseItem, a.ActionType())

	_, err = DecodeAction(MsgTypeDiceRolled, []byte(`{"result":`))
	assert.Error(t, err)

	_, err = DecodeAction(MsgTypeRoomState, nil)
	assert.ErrorIs(t, err, ErrUnknownMessage)
}

func TestEncodeMessage(t *testing.T) {
	id, data, err := EncodeMessage(game.GameEnd{Result: models.ResultOniWin, MatchID: "m1", Turn: 3})
	require.NoError(t, err)
	assert.Equal(t, uint16(MsgTypeGameEnd), id)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "OniWin", body["result"])
	assert.Equal(t, "m1", body["matchId"])

	id, _, err = EncodeMessage(game.MoveCandidates{PlayerID: "oni", SquareIDs: []string{"Top_0_1"}, Remaining: 2})
	require.NoError(t, err)
	assert.Equal(t, uint16(MsgTypeMoveCandidates), id)
}

func TestEveryEngineOutputHasAnID(t *testing.T) {
	for _, msg := range []game.Message{
		game.RoleAssigned{}, game.DiceCalculated{}, game.TurnChange{}, game.StatusUpdate{},
		game.ItemPickup{}, game.GameEnd{}, game.MoveCandidates{}, game.PlayerMoved{},
		game.RotationStarted{}, game.RotationProgress{}, game.RotationFinished{},
		game.PlayerRelocated{}, game.InputRejected{}, game.GameStarted{},
	} {
		_, _, err := EncodeMessage(msg)
		assert.NoError(t, err, msg.MessageType())
	}
}

func TestIsGameInput(t *testing.T) {
	assert.True(t, IsGameInput(MsgTypeStartGame))
	assert.True(t, IsGameInput(MsgTypeUseItem))
	assert.False(t, IsGameInput(MsgTypeJoinRoom))
	assert.False(t, IsGameInput(MsgTypeRoleAssigned))
}
