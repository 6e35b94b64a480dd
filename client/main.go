package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/wfunc/blockoni/game"
	"github.com/wfunc/blockoni/network"
	"github.com/wfunc/blockoni/server"
)

var errUsage = errors.New("commands: create [name] | join [room] | leave | start [name] | roll <1-6> | go <square> | use <item> | hb")

var names = map[uint16]string{
	network.MsgTypeHeartbeat:        "Heartbeat",
	network.MsgTypeCreateRoom:       "RoomCreated",
	network.MsgTypeRoleAssigned:     game.TypeRoleAssigned,
	network.MsgTypeDiceCalculated:   game.TypeDiceCalculated,
	network.MsgTypeTurnChange:       game.TypeTurnChange,
	network.MsgTypeStatusUpdate:     game.TypeStatusUpdate,
	network.MsgTypeItemPickup:       game.TypeItemPickup,
	network.MsgTypeGameEnd:          game.TypeGameEnd,
	network.MsgTypeMoveCandidates:   game.TypeMoveCandidates,
	network.MsgTypePlayerMoved:      game.TypePlayerMoved,
	network.MsgTypeRotationStarted:  game.TypeRotationStarted,
	network.MsgTypeRotationProgress: game.TypeRotationProgress,
	network.MsgTypeRotationFinished: game.TypeRotationFinished,
	network.MsgTypePlayerRelocated:  game.TypePlayerRelocated,
	network.MsgTypeInputRejected:    game.TypeInputRejected,
	network.MsgTypeGameStarted:      game.TypeGameStarted,
	network.MsgTypeRoomState:        "RoomState",
	network.MsgTypeError:            "Error",
}

// parseCommand turns one console line into a message id and body.
func parseCommand(line string) (uint16, any, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, nil, errUsage
	}
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}
	switch fields[0] {
	case "create":
		return network.MsgTypeCreateRoom, server.RoomRequest{Name: arg}, nil
	case "join":
		return network.MsgTypeJoinRoom, server.RoomRequest{RoomID: arg}, nil
	case "leave":
		return network.MsgTypeLeaveRoom, nil, nil
	case "start":
		return network.MsgTypeStartGame, game.StartGame{UserName: arg}, nil
	case "roll":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return 0, nil, errUsage
		}
		return network.MsgTypeDiceRolled, game.DiceRolled{Result: n}, nil
	case "go":
		if arg == "" {
			return 0, nil, errUsage
		}
		return network.MsgTypeDirectionChosen, game.DirectionChosen{SquareID: arg}, nil
	case "use":
		if arg == "" {
			return 0, nil, errUsage
		}
		return network.MsgTypeUseItem, game.UseItem{ItemID: arg}, nil
	case "hb":
		return network.MsgTypeHeartbeat, nil, nil
	}
	return 0, nil, errUsage
}

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, body any) error {
	var data []byte
	if body != nil {
		var err error
		if data, err = json.Marshal(body); err != nil {
			return err
		}
	}
	packet, err := network.Frame(msgID, data)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func main() {
	addr := flag.String("addr", "localhost:8080", "server address")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Infof("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Warnf("Read error: %v", err)
				return
			}
			packet, err := network.ParseFrame(message)
			if err != nil {
				log.Warnf("Received invalid packet: %v", err)
				continue
			}
			log.WithField("msg", names[packet.MsgID]).Infof("<- %s", packet.Data)
		}
	}()

	log.Info(errUsage.Error())

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Info("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Warnf("Write close error: %v", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			msgID, body, err := parseCommand(line)
			if err != nil {
				log.Warn(err)
				continue
			}
			if err := send(c, msgID, body); err != nil {
				log.Errorf("Write error: %v", err)
				return
			}
		}
	}
}
