package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/blockoni/game"
	"github.com/wfunc/blockoni/network"
)

func TestParseCommand(t *testing.T) {
	id, body, err := parseCommand("roll 4")
	require.NoError(t, err)
	assert.Equal(t, uint16(network.MsgTypeDiceRolled), id)
	assert.Equal(t, game.DiceRolled{Result: 4}, body)

	id, body, err = parseCommand("  go  Top_1_0 ")
	require.NoError(t, err)
	assert.Equal(t, uint16(network.MsgTypeDirectionChosen), id)
	assert.Equal(t, game.DirectionChosen{SquareID: "Top_1_0"}, body)

	id, body, err = parseCommand("start")
	require.NoError(t, err)
	assert.Equal(t, uint16(network.MsgTypeStartGame), id)
	assert.Equal(t, game.StartGame{}, body)

	id, body, err = parseCommand("leave")
	require.NoError(t, err)
	assert.Equal(t, uint16(network.MsgTypeLeaveRoom), id)
	assert.Nil(t, body)
}

func TestParseCommandUsage(t *testing.T) {
	for _, line := range []string{"", "roll", "roll six", "go", "use", "dance"} {
		_, _, err := parseCommand(line)
		assert.ErrorIs(t, err, errUsage, line)
	}
}
