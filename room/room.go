// room/room.go
package room

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wfunc/blockoni/game"
	"github.com/wfunc/blockoni/logger"
	"github.com/wfunc/blockoni/network"
	"github.com/wfunc/blockoni/session"
	"github.com/wfunc/blockoni/state"
)

var (
	ErrRoomFull     = errors.New("room is full")
	ErrTooManyRooms = errors.New("too many rooms")
	ErrRoomExists   = errors.New("room already exists")
)

// RoomStatus 表示房间的业务状态，例如等待、游戏中等
type RoomStatus int

const (
	StatusIdle RoomStatus = iota
	StatusWaiting
	StatusGaming
	StatusSettlement
)

var statusNames = map[RoomStatus]string{
	StatusIdle:       "idle",
	StatusWaiting:    "waiting",
	StatusGaming:     "gaming",
	StatusSettlement: "settlement",
}

func (s RoomStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("RoomStatus(%d)", int(s))
}

// Info 房间快照，随 MsgTypeRoomState 下发
type Info struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Status  string   `json:"status"`
	Phase   string   `json:"phase"`
	MatchID string   `json:"matchId,omitempty"`
	Members []string `json:"members"`
}

// Room 是游戏房间的核心结构，承载一局 BlockOni
type Room struct {
	ID          string
	Name        string
	MaxPlayers  int
	Status      RoomStatus
	Players     map[string]*session.Session // sessionID -> session
	Engine      *game.Engine
	CreatedAt   time.Time
	broadcaster Broadcaster // Use the interface, not the concrete type
	statusMutex sync.RWMutex
	playerMutex sync.RWMutex
}

// NewRoom 创建一个新房间. The room is the engine's publisher.
func NewRoom(id, name string, maxPlayers int, settings game.Settings, broadcaster Broadcaster, opts ...game.Option) (*Room, error) {
	room := &Room{
		ID:          id,
		Name:        name,
		MaxPlayers:  maxPlayers,
		Status:      StatusIdle,
		Players:     make(map[string]*session.Session),
		CreatedAt:   time.Now(),
		broadcaster: broadcaster,
	}
	engine, err := game.NewEngine(settings, room, opts...)
	if err != nil {
		return nil, err
	}
	room.Engine = engine
	room.SetStatus(StatusWaiting)
	return room, nil
}

// GetID 返回房间ID
func (r *Room) GetID() string {
	return r.ID
}

// GetMaxPlayers returns the maximum number of players in the room.
func (r *Room) GetMaxPlayers() int {
	return r.MaxPlayers
}

// Publish 实现 game.Publisher：编码后广播给房间内所有连接
func (r *Room) Publish(msg game.Message) {
	switch msg.(type) {
	case game.GameStarted:
		r.SetStatus(StatusGaming)
	case game.GameEnd:
		r.SetStatus(StatusSettlement)
	}
	msgID, data, err := network.EncodeMessage(msg)
	if err != nil {
		logger.Log.Errorf("room %s: encode %s: %v", r.ID, msg.MessageType(), err)
		return
	}
	if err := r.Broadcast(msgID, data); err != nil {
		logger.Log.Warnf("room %s: broadcast %s: %v", r.ID, msg.MessageType(), err)
	}
}

// Broadcast sends a message to all players in the room.
func (r *Room) Broadcast(msgID uint16, data []byte) error {
	return r.broadcaster.BroadcastToRoom(r.ID, msgID, data)
}

// HandleInput forwards a decoded game input from s to the engine.
func (r *Room) HandleInput(s *session.Session, action state.Action) error {
	if start, ok := action.(game.StartGame); ok {
		if start.UserName == "" {
			start.UserName = s.GetUserName()
		}
		s.SetUserName(start.UserName)
		action = start
	}
	return r.Engine.Handle(s, action)
}

// --- 房间核心逻辑 ---

// AddPlayer 添加一个玩家到房间
func (r *Room) AddPlayer(s *session.Session) bool {
	r.playerMutex.Lock()
	if len(r.Players) >= r.MaxPlayers {
		r.playerMutex.Unlock()
		return false
	}
	r.Players[s.ID] = s
	r.playerMutex.Unlock()

	s.SetRoomID(r.ID)
	r.broadcastInfo()
	return true
}

// RemovePlayer 从房间移除一个玩家
func (r *Room) RemovePlayer(sessionID string) {
	r.playerMutex.Lock()
	player, exists := r.Players[sessionID]
	if exists {
		delete(r.Players, sessionID)
	}
	r.playerMutex.Unlock()

	if exists {
		player.SetRoomID("")
		r.broadcastInfo()
	}
}

// GetPlayer 获取单个玩家
func (r *Room) GetPlayer(sessionID string) (*session.Session, bool) {
	r.playerMutex.RLock()
	defer r.playerMutex.RUnlock()

	player, exists := r.Players[sessionID]
	return player, exists
}

// PlayerCount 当前连接数
func (r *Room) PlayerCount() int {
	r.playerMutex.RLock()
	defer r.playerMutex.RUnlock()
	return len(r.Players)
}

// GetSessions returns a slice of all sessions in the room (thread-safe).
func (r *Room) GetSessions() []*session.Session {
	r.playerMutex.RLock()
	defer r.playerMutex.RUnlock()

	sessions := make([]*session.Session, 0, len(r.Players))
	for _, s := range r.Players {
		sessions = append(sessions, s)
	}
	return sessions
}

// SetStatus 设置房间的业务状态
func (r *Room) SetStatus(status RoomStatus) {
	r.statusMutex.Lock()
	defer r.statusMutex.Unlock()
	r.Status = status
}

// GetStatus 获取房间的业务状态
func (r *Room) GetStatus() RoomStatus {
	r.statusMutex.RLock()
	defer r.statusMutex.RUnlock()
	return r.Status
}

// Info 返回房间快照
func (r *Room) Info() Info {
	info := Info{
		ID:      r.ID,
		Name:    r.Name,
		Status:  r.GetStatus().String(),
		Phase:   r.Engine.Phase(),
		MatchID: r.Engine.MatchID(),
	}
	for _, s := range r.GetSessions() {
		name := s.GetUserName()
		if name == "" {
			name = s.ID
		}
		info.Members = append(info.Members, name)
	}
	sort.Strings(info.Members)
	return info
}

func (r *Room) broadcastInfo() {
	data, err := json.Marshal(r.Info())
	if err != nil {
		return
	}
	if err := r.Broadcast(network.MsgTypeRoomState, data); err != nil {
		logger.Log.Debugf("room %s: room state: %v", r.ID, err)
	}
}

// Close 关闭房间，断开房间与会话的关联
func (r *Room) Close() {
	r.playerMutex.Lock()
	defer r.playerMutex.Unlock()
	for id, s := range r.Players {
		s.SetRoomID("")
		delete(r.Players, id)
	}
	r.SetStatus(StatusIdle)
}

// --- 房间管理器 ---

// Manager 管理所有房间
type Manager struct {
	rooms    map[string]*Room
	maxRooms int
	mutex    sync.RWMutex
}

// NewRoomManager 创建一个新的房间管理器. maxRooms <= 0 means unlimited.
func NewRoomManager(maxRooms int) *Manager {
	return &Manager{
		rooms:    make(map[string]*Room),
		maxRooms: maxRooms,
	}
}

// CreateRoom 创建一个新房间并添加到管理器
func (m *Manager) CreateRoom(id, name string, maxPlayers int, settings game.Settings, broadcaster Broadcaster, opts ...game.Option) (*Room, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.rooms[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrRoomExists, id)
	}
	if m.maxRooms > 0 && len(m.rooms) >= m.maxRooms {
		return nil, ErrTooManyRooms
	}
	room, err := NewRoom(id, name, maxPlayers, settings, broadcaster, opts...)
	if err != nil {
		return nil, err
	}
	m.rooms[id] = room
	logger.Log.Infof("room %s created", id)
	return room, nil
}

// RemoveRoom 从管理器中移除并关闭一个房间
func (m *Manager) RemoveRoom(id string) {
	m.mutex.Lock()
	room, exists := m.rooms[id]
	delete(m.rooms, id)
	m.mutex.Unlock()

	if exists {
		room.Close()
		logger.Log.Infof("room %s removed", id)
	}
}

// GetRoom 从管理器中获取一个房间
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[id]
	return room, exists
}

// Rooms returns a snapshot of all rooms.
func (m *Manager) Rooms() []*Room {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

// Count 房间数量
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// FindAvailableRoom 查找一个可用的房间
func (m *Manager) FindAvailableRoom() *Room {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, room := range m.rooms {
		status := room.GetStatus()
		if room.PlayerCount() < room.MaxPlayers && (status == StatusWaiting || status == StatusSettlement) {
			return room
		}
	}
	return nil
}
