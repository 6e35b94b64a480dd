package room

import (
	"encoding/json"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/wfunc/blockoni/game"
	"github.com/wfunc/blockoni/network"
	"github.com/wfunc/blockoni/session"
)

// MockBroadcaster is a test double for the Broadcaster interface.
type MockBroadcaster struct {
	mu   sync.Mutex
	ids  []uint16
	last map[uint16][]byte
}

func (m *MockBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		m.last = make(map[uint16][]byte)
	}
	m.ids = append(m.ids, msgID)
	m.last[msgID] = data
	return nil
}

func (m *MockBroadcaster) has(msgID uint16) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.last[msgID]
	return ok
}

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct{}

func (m *MockConnection) Send(msgID uint16, data []byte) error { return nil }
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

// newTestSession creates a dummy session for testing purposes.
func newTestSession(id string) *session.Session {
	return session.NewSession(id, &MockConnection{})
}

func testSettings() game.Settings {
	s := game.DefaultSettings()
	s.ItemCount = 0
	s.RotationEveryRounds = 0
	return s
}

func newTestRoom(t *testing.T, id string, maxPlayers int, b Broadcaster) *Room {
	t.Helper()
	room, err := NewRoom(id, "Test Room", maxPlayers, testSettings(), b)
	if err != nil {
		t.Fatalf("NewRoom failed: %v", err)
	}
	return room
}

func TestRoomManager_CreateAndGetRoom(t *testing.T) {
	manager := NewRoomManager(0)
	mockBroadcaster := &MockBroadcaster{}

	roomID := "test_room_1"
	room, err := manager.CreateRoom(roomID, "Test Room", 4, testSettings(), mockBroadcaster)
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if room.ID != roomID {
		t.Errorf("Expected room ID %s, got %s", roomID, room.ID)
	}

	retrievedRoom, exists := manager.GetRoom(roomID)
	if !exists {
		t.Fatal("GetRoom should find the created room")
	}
	if retrievedRoom != room {
		t.Error("GetRoom should return the same room instance")
	}

	if _, err := manager.CreateRoom(roomID, "Again", 4, testSettings(), mockBroadcaster); !errors.Is(err, ErrRoomExists) {
		t.Errorf("Expected ErrRoomExists, got %v", err)
	}
}

func TestRoomManager_Limit(t *testing.T) {
	manager := NewRoomManager(1)
	b := &MockBroadcaster{}
	if _, err := manager.CreateRoom("a", "A", 2, testSettings(), b); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if _, err := manager.CreateRoom("b", "B", 2, testSettings(), b); !errors.Is(err, ErrTooManyRooms) {
		t.Fatalf("Expected ErrTooManyRooms, got %v", err)
	}

	manager.RemoveRoom("a")
	if manager.Count() != 0 {
		t.Errorf("Expected no rooms after removal, got %d", manager.Count())
	}
}

func TestRoomManager_RejectsBadSettings(t *testing.T) {
	manager := NewRoomManager(0)
	s := testSettings()
	s.Seats = nil
	if _, err := manager.CreateRoom("bad", "Bad", 2, s, &MockBroadcaster{}); !errors.Is(err, game.ErrInvalidSettings) {
		t.Fatalf("Expected ErrInvalidSettings, got %v", err)
	}
}

func TestRoom_AddPlayer(t *testing.T) {
	b := &MockBroadcaster{}
	room := newTestRoom(t, "test_room_2", 2, b)

	player1 := newTestSession("player1")
	if !room.AddPlayer(player1) {
		t.Fatal("Failed to add first player")
	}
	if room.PlayerCount() != 1 {
		t.Errorf("Expected player count to be 1, got %d", room.PlayerCount())
	}
	if player1.GetRoomID() != room.ID {
		t.Errorf("Expected session room id %s, got %s", room.ID, player1.GetRoomID())
	}
	if !b.has(network.MsgTypeRoomState) {
		t.Error("Joining should broadcast the room state")
	}
}

func TestRoom_AddPlayer_Full(t *testing.T) {
	room := newTestRoom(t, "test_room_3", 1, &MockBroadcaster{})

	if !room.AddPlayer(newTestSession("player1")) {
		t.Fatal("Failed to add the first player")
	}
	if room.AddPlayer(newTestSession("player2")) {
		t.Fatal("Should not be able to add a player to a full room")
	}
	if room.PlayerCount() != 1 {
		t.Errorf("Expected player count to be 1 after trying to add to a full room, got %d", room.PlayerCount())
	}
}

func TestRoom_RemovePlayer(t *testing.T) {
	room := newTestRoom(t, "test_room_4", 2, &MockBroadcaster{})

	player1 := newTestSession("player1")
	room.AddPlayer(player1)
	room.RemovePlayer(player1.GetID())

	if room.PlayerCount() != 0 {
		t.Errorf("Expected player count to be 0 after removing player, got %d", room.PlayerCount())
	}
	if player1.GetRoomID() != "" {
		t.Error("Removed session should not keep the room id")
	}
}

func TestRoom_StartGamePublishes(t *testing.T) {
	b := &MockBroadcaster{}
	room := newTestRoom(t, "test_room_5", 2, b)
	s := newTestSession("player1")
	room.AddPlayer(s)

	if err := room.HandleInput(s, game.StartGame{UserName: "runner"}); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	if s.GetUserName() != "runner" {
		t.Errorf("Expected session user name runner, got %q", s.GetUserName())
	}
	if room.GetStatus() != StatusGaming {
		t.Errorf("Expected status gaming, got %s", room.GetStatus())
	}
	for _, id := range []uint16{network.MsgTypeGameStarted, network.MsgTypeRoleAssigned, network.MsgTypeTurnChange} {
		if !b.has(id) {
			t.Errorf("Expected message %d to be broadcast", id)
		}
	}

	var role game.RoleAssigned
	b.mu.Lock()
	data := b.last[network.MsgTypeRoleAssigned]
	b.mu.Unlock()
	if err := json.Unmarshal(data, &role); err != nil {
		t.Fatalf("RoleAssigned payload: %v", err)
	}
	if role.PlayerID != "runner" {
		t.Errorf("Expected runner seat, got %s", role.PlayerID)
	}

	if err := room.HandleInput(s, game.DiceRolled{Result: 9}); !errors.Is(err, game.ErrInvalidDice) {
		t.Errorf("Expected ErrInvalidDice, got %v", err)
	}
	if !b.has(network.MsgTypeInputRejected) {
		t.Error("Rejected input should be broadcast")
	}

	info := room.Info()
	if info.Phase != game.PhaseWaitingForDice || len(info.Members) != 1 || info.Members[0] != "runner" {
		t.Errorf("Unexpected room info %+v", info)
	}
}

func TestRoomManager_FindAvailableRoom(t *testing.T) {
	manager := NewRoomManager(0)
	b := &MockBroadcaster{}
	room, _ := manager.CreateRoom("r", "R", 1, testSettings(), b)

	if got := manager.FindAvailableRoom(); got != room {
		t.Fatal("Expected the empty room to be available")
	}
	room.AddPlayer(newTestSession("p"))
	if got := manager.FindAvailableRoom(); got != nil {
		t.Fatal("A full room should not be available")
	}
}
