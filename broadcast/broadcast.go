// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/blockoni/logger"
	"github.com/wfunc/blockoni/room"
	"github.com/wfunc/blockoni/session"
)

var (
	ErrRoomNotFound = errors.New("room not found")
)

// 广播接口
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
	BroadcastToAll(msgID uint16, data []byte) error
	BroadcastToUsers(userNames []string, msgID uint16, data []byte) error
}

// 基于房间的广播器
type RoomBroadcaster struct {
	roomManager    *room.Manager
	sessionManager *session.Manager
}

func NewRoomBroadcaster(roomManager *room.Manager, sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		roomManager:    roomManager,
		sessionManager: sessionManager,
	}
}

func (b *RoomBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	r, exists := b.roomManager.GetRoom(roomID)
	if !exists {
		return ErrRoomNotFound
	}
	send(r.GetSessions(), msgID, data)
	return nil
}

// BroadcastToAll 发送给所有在线连接，包括不在房间内的
func (b *RoomBroadcaster) BroadcastToAll(msgID uint16, data []byte) error {
	send(b.sessionManager.All(), msgID, data)
	return nil
}

func (b *RoomBroadcaster) BroadcastToUsers(userNames []string, msgID uint16, data []byte) error {
	for _, name := range userNames {
		send(b.sessionManager.GetByUserName(name), msgID, data)
	}
	return nil
}

// send 发送失败只记录，断线由读循环负责清理
func send(sessions []*session.Session, msgID uint16, data []byte) {
	for _, s := range sessions {
		if err := s.Send(msgID, data); err != nil {
			logger.Log.Debugf("send %d to session %s: %v", msgID, s.GetID(), err)
		}
	}
}
