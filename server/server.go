package server

import (
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/blockoni/broadcast"
	"github.com/wfunc/blockoni/game"
	"github.com/wfunc/blockoni/logger"
	"github.com/wfunc/blockoni/models"
	"github.com/wfunc/blockoni/monitor"
	"github.com/wfunc/blockoni/network"
	"github.com/wfunc/blockoni/room"
	"github.com/wfunc/blockoni/services"
	"github.com/wfunc/blockoni/session"
	"github.com/wfunc/blockoni/timer"
)

var ErrNotInRoom = errors.New("session is not in a room")

// Options 服务器参数
type Options struct {
	Addr      string
	MaxRooms  int
	Heartbeat time.Duration
	Settings  game.Settings
	Seed      int64 // 0 seeds every room from the clock
	Matches   *services.MatchService
	Monitor   *monitor.Monitor
}

// RoomRequest is the body of create/join/leave room packets.
type RoomRequest struct {
	RoomID string `json:"room_id,omitempty"`
	Name   string `json:"name,omitempty"`
}

type ErrorReply struct {
	Code  uint16 `json:"code"`
	Error string `json:"error"`
}

type GameServer struct {
	opts           Options
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	broadcaster    broadcast.Broadcaster
	scheduler      *timer.TimerManager
	httpServer     *http.Server
	shutdownOnce   sync.Once
	shutdownChan   chan struct{}
}

func NewGameServer(opts Options) *GameServer {
	s := &GameServer{
		opts:           opts,
		roomManager:    room.NewRoomManager(opts.MaxRooms),
		sessionManager: session.NewManager(),
		scheduler:      timer.NewTimerManager(timer.DefaultResolution),
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 初始化广播器
	s.broadcaster = broadcast.NewRoomBroadcaster(s.roomManager, s.sessionManager)
	return s
}

// Handler routes /ws and the room listing.
func (s *GameServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/rooms", s.handleRooms)
	return mux
}

func (s *GameServer) Start() error {
	s.httpServer = &http.Server{Addr: s.opts.Addr, Handler: s.Handler()}
	logger.Log.Infof("Game server listening on %s", s.opts.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *GameServer) Shutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)
		if s.httpServer != nil {
			s.httpServer.Close()
		}
		s.scheduler.Stop()
		if s.opts.Matches != nil {
			s.opts.Matches.Wait()
		}
	})
}

func (s *GameServer) Rooms() *room.Manager {
	return s.roomManager
}

func (s *GameServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	infos := make([]room.Info, 0)
	for _, rm := range s.roomManager.Rooms() {
		infos = append(infos, rm.Info())
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(infos)
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	if s.opts.Heartbeat > 0 {
		wsConn.SetHeartbeat(s.opts.Heartbeat)
	}
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	if s.opts.Monitor != nil {
		s.opts.Monitor.IncOnlinePlayers()
	}

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.leaveRoom(sess)
		s.sessionManager.Remove(sess.GetID())
		if s.opts.Monitor != nil {
			s.opts.Monitor.DecOnlinePlayers()
		}
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	start := time.Now()
	if s.opts.Monitor != nil {
		s.opts.Monitor.IncMessagesReceived()
		defer func() { s.opts.Monitor.ObserveMessageLatency(time.Since(start)) }()
	}

	switch {
	case packet.MsgID == network.MsgTypeHeartbeat:
		sess.Touch()
		sess.Send(network.MsgTypeHeartbeat, nil)
	case packet.MsgID == network.MsgTypeCreateRoom:
		s.handleCreateRoom(sess, packet)
	case packet.MsgID == network.MsgTypeJoinRoom:
		s.handleJoinRoom(sess, packet)
	case packet.MsgID == network.MsgTypeLeaveRoom:
		s.leaveRoom(sess)
	case network.IsGameInput(packet.MsgID):
		s.handleGameInput(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
		s.sendError(sess, packet.MsgID, network.ErrUnknownMessage)
	}
}

// roomOptions wires a new room's engine to the shared timer, metrics and
// match archive.
func (s *GameServer) roomOptions(roomID string) []game.Option {
	opts := []game.Option{game.WithScheduler(s.scheduler)}
	if s.opts.Seed != 0 {
		opts = append(opts, game.WithRand(rand.New(rand.NewSource(s.opts.Seed))))
	}
	if s.opts.Monitor != nil {
		opts = append(opts, game.WithObserver(s.opts.Monitor))
	}
	if s.opts.Matches != nil {
		matches := s.opts.Matches
		opts = append(opts, game.WithOnGameEnd(func(rec *models.MatchRecord) {
			rec.RoomID = roomID
			matches.RecordAsync(rec)
		}))
	}
	return opts
}

func (s *GameServer) createRoom(name string) (*room.Room, error) {
	roomID := uuid.New().String()
	if name == "" {
		name = "New Room"
	}
	rm, err := s.roomManager.CreateRoom(roomID, name, len(s.opts.Settings.Seats), s.opts.Settings, s.broadcaster, s.roomOptions(roomID)...)
	if err != nil {
		return nil, err
	}
	if s.opts.Monitor != nil {
		s.opts.Monitor.SetActiveRooms(s.roomManager.Count())
	}
	return rm, nil
}

func (s *GameServer) handleCreateRoom(sess *session.Session, packet *network.Packet) {
	var req RoomRequest
	if len(packet.Data) > 0 {
		if err := json.Unmarshal(packet.Data, &req); err != nil {
			s.sendError(sess, packet.MsgID, err)
			return
		}
	}
	s.leaveRoom(sess)

	rm, err := s.createRoom(req.Name)
	if err != nil {
		s.sendError(sess, packet.MsgID, err)
		return
	}
	logger.Log.Infof("Session %s created room %s", sess.GetID(), rm.GetID())

	data, _ := json.Marshal(RoomRequest{RoomID: rm.GetID(), Name: rm.Name})
	sess.Send(network.MsgTypeCreateRoom, data)
	rm.AddPlayer(sess)
}

// handleJoinRoom joins the named room, or any open room when none is named.
func (s *GameServer) handleJoinRoom(sess *session.Session, packet *network.Packet) {
	var req RoomRequest
	if len(packet.Data) > 0 {
		if err := json.Unmarshal(packet.Data, &req); err != nil {
			s.sendError(sess, packet.MsgID, err)
			return
		}
	}

	var rm *room.Room
	if req.RoomID != "" {
		found, exists := s.roomManager.GetRoom(req.RoomID)
		if !exists {
			s.sendError(sess, packet.MsgID, errors.New("room not found"))
			return
		}
		rm = found
	} else if rm = s.roomManager.FindAvailableRoom(); rm == nil {
		created, err := s.createRoom("")
		if err != nil {
			s.sendError(sess, packet.MsgID, err)
			return
		}
		rm = created
	}

	if sess.GetRoomID() == rm.GetID() {
		return
	}
	s.leaveRoom(sess)
	if !rm.AddPlayer(sess) {
		s.sendError(sess, packet.MsgID, room.ErrRoomFull)
		return
	}
	logger.Log.Infof("Session %s joined room %s", sess.GetID(), rm.GetID())
}

// leaveRoom detaches sess from its room and drops the room once empty.
func (s *GameServer) leaveRoom(sess *session.Session) {
	roomID := sess.GetRoomID()
	if roomID == "" {
		return
	}
	rm, exists := s.roomManager.GetRoom(roomID)
	if !exists {
		sess.SetRoomID("")
		return
	}
	rm.RemovePlayer(sess.GetID())
	if rm.PlayerCount() == 0 {
		s.roomManager.RemoveRoom(roomID)
		if s.opts.Monitor != nil {
			s.opts.Monitor.SetActiveRooms(s.roomManager.Count())
		}
	}
}

func (s *GameServer) handleGameInput(sess *session.Session, packet *network.Packet) {
	roomID := sess.GetRoomID()
	if roomID == "" {
		logger.Log.Warnf("Session %s sent game input but is not in a room", sess.GetID())
		s.sendError(sess, packet.MsgID, ErrNotInRoom)
		return
	}

	rm, exists := s.roomManager.GetRoom(roomID)
	if !exists {
		logger.Log.Errorf("Room %s not found for session %s", roomID, sess.GetID())
		s.sendError(sess, packet.MsgID, ErrNotInRoom)
		return
	}

	action, err := network.DecodeAction(packet.MsgID, packet.Data)
	if err != nil {
		s.sendError(sess, packet.MsgID, err)
		return
	}

	// rejections are already broadcast as InputRejected
	if err := rm.HandleInput(sess, action); err != nil {
		logger.Log.Debugf("room %s: %s from %s: %v", roomID, action.ActionType(), sess.GetID(), err)
	}
}

func (s *GameServer) sendError(sess *session.Session, code uint16, err error) {
	data, _ := json.Marshal(ErrorReply{Code: code, Error: err.Error()})
	if sendErr := sess.Send(network.MsgTypeError, data); sendErr != nil {
		logger.Log.Debugf("session %s: send error: %v", sess.GetID(), sendErr)
	}
}
