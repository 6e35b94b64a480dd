package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/blockoni/game"
	"github.com/wfunc/blockoni/models"
	"github.com/wfunc/blockoni/monitor"
	"github.com/wfunc/blockoni/network"
	"github.com/wfunc/blockoni/persistence"
	"github.com/wfunc/blockoni/room"
	"github.com/wfunc/blockoni/services"
)

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func newTestServer(t *testing.T) (*GameServer, *httptest.Server) {
	settings := game.DefaultSettings()
	settings.ItemCount = 0
	settings.RotationEveryRounds = 0
	settings.TurnLimit = 1

	s := NewGameServer(Options{
		MaxRooms: 4,
		Settings: settings,
		Seed:     1,
		Matches:  services.NewMatchService(persistence.NewMemory()),
		Monitor:  monitor.NewMonitor("test"),
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Shutdown()
	})
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server) *testClient {
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &testClient{t: t, conn: conn}
}

func (c *testClient) send(msgID uint16, v any) {
	var data []byte
	if v != nil {
		var err error
		data, err = json.Marshal(v)
		require.NoError(c.t, err)
	}
	frame, err := network.Frame(msgID, data)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteMessage(websocket.BinaryMessage, frame))
}

// expect reads until a packet with msgID arrives and decodes it into v.
func (c *testClient) expect(msgID uint16, v any) {
	c.t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(c.t, c.conn.SetReadDeadline(deadline))
		_, raw, err := c.conn.ReadMessage()
		require.NoError(c.t, err, "waiting for %d", msgID)
		pkt, err := network.ParseFrame(raw)
		require.NoError(c.t, err)
		if pkt.MsgID != msgID {
			continue
		}
		if v != nil {
			require.NoError(c.t, json.Unmarshal(pkt.Data, v))
		}
		return
	}
}

// expectTurn skips TurnChange packets until playerID is to move.
func (c *testClient) expectTurn(playerID string) {
	c.t.Helper()
	for {
		var turn game.TurnChange
		c.expect(network.MsgTypeTurnChange, &turn)
		if turn.PlayerID == playerID {
			return
		}
	}
}

func TestCreateJoinAndPlay(t *testing.T) {
	s, ts := newTestServer(t)
	alice := dial(t, ts)
	bob := dial(t, ts)

	alice.send(network.MsgTypeCreateRoom, RoomRequest{Name: "cube"})
	var created RoomRequest
	alice.expect(network.MsgTypeCreateRoom, &created)
	require.NotEmpty(t, created.RoomID)

	bob.send(network.MsgTypeJoinRoom, RoomRequest{RoomID: created.RoomID})
	var info room.Info
	bob.expect(network.MsgTypeRoomState, &info)
	assert.Equal(t, "cube", info.Name)

	alice.send(network.MsgTypeStartGame, game.StartGame{UserName: "oni"})
	var role game.RoleAssigned
	bob.expect(network.MsgTypeRoleAssigned, &role)
	assert.Equal(t, models.RoleOni, role.Role)
	alice.expectTurn("oni")

	// Oni Top_0_0 walks one step, then the Runner ends the only round
	alice.send(network.MsgTypeDiceRolled, game.DiceRolled{Result: 1})
	var cands game.MoveCandidates
	alice.expect(network.MsgTypeMoveCandidates, &cands)
	require.Contains(t, cands.SquareIDs, "Top_1_0")
	alice.send(network.MsgTypeDirectionChosen, game.DirectionChosen{SquareID: "Top_1_0"})
	bob.expectTurn("runner")

	bob.send(network.MsgTypeDiceRolled, game.DiceRolled{Result: 1})
	bob.expect(network.MsgTypeMoveCandidates, &cands)
	bob.send(network.MsgTypeDirectionChosen, game.DirectionChosen{SquareID: "Top_3_2"})
	var end game.GameEnd
	alice.expect(network.MsgTypeGameEnd, &end)
	assert.Equal(t, models.ResultRunnerWin, end.Result)

	s.opts.Matches.Wait()
	rec, err := s.opts.Matches.GetMatch(end.MatchID)
	require.NoError(t, err)
	assert.Equal(t, created.RoomID, rec.RoomID)

	rm, ok := s.Rooms().GetRoom(created.RoomID)
	require.True(t, ok)
	assert.Equal(t, room.StatusSettlement, rm.GetStatus())
}

func TestGameInputOutsideRoom(t *testing.T) {
	_, ts := newTestServer(t)
	c := dial(t, ts)

	c.send(network.MsgTypeDiceRolled, game.DiceRolled{Result: 3})
	var reply ErrorReply
	c.expect(network.MsgTypeError, &reply)
	assert.Equal(t, uint16(network.MsgTypeDiceRolled), reply.Code)
	assert.Equal(t, ErrNotInRoom.Error(), reply.Error)
}

func TestRejectedInputIsBroadcast(t *testing.T) {
	_, ts := newTestServer(t)
	c := dial(t, ts)
	c.send(network.MsgTypeJoinRoom, nil)
	c.expect(network.MsgTypeRoomState, nil)

	c.send(network.MsgTypeDiceRolled, game.DiceRolled{Result: 2})
	var rej game.InputRejected
	c.expect(network.MsgTypeInputRejected, &rej)
	assert.Equal(t, game.TypeDiceRolled, rej.Input)
}

func TestLeaveRemovesEmptyRoom(t *testing.T) {
	s, ts := newTestServer(t)
	c := dial(t, ts)
	c.send(network.MsgTypeCreateRoom, nil)
	var created RoomRequest
	c.expect(network.MsgTypeCreateRoom, &created)
	c.expect(network.MsgTypeRoomState, nil)
	assert.Equal(t, 1, s.Rooms().Count())

	c.send(network.MsgTypeLeaveRoom, nil)
	// the heartbeat echo orders the check after the leave
	c.send(network.MsgTypeHeartbeat, nil)
	c.expect(network.MsgTypeHeartbeat, nil)
	assert.Equal(t, 0, s.Rooms().Count())
}

func TestRoomsListing(t *testing.T) {
	_, ts := newTestServer(t)
	c := dial(t, ts)
	c.send(network.MsgTypeCreateRoom, RoomRequest{Name: "listed"})
	c.expect(network.MsgTypeRoomState, nil)

	resp, err := http.Get(ts.URL + "/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()
	var infos []room.Info
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "listed", infos[0].Name)
}
