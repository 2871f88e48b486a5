package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/voicechat-server/internal/proto"
)

// frame mirrors proto.Outbound with undecoded data.
type frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:3001/ws", "WebSocket address")
	user := flag.String("user", "cli-user", "display name")
	channel := flag.String("channel", "genel", "channel to join")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := send(ctx, conn, proto.InboundTypeUserJoin, proto.UserJoinData{Username: *user}); err != nil {
		return err
	}
	if err := send(ctx, conn, proto.InboundTypeJoinChannel, proto.ChannelData{ChannelID: *channel}); err != nil {
		return err
	}

	fmt.Printf("Connected to %s as %s in #%s\n", *addr, *user, *channel)
	fmt.Println("Type messages and press Enter. Commands: /join <channel>, /leave, /voice, /unvoice. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn)
	return nil
}

func send(ctx context.Context, conn *websocket.Conn, typ string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}
		if f.Type == proto.OutboundTypeError && f.Error != nil {
			fmt.Printf("! %s: %s\n", f.Error.Code, f.Error.Msg)
			continue
		}
		printEvent(f)
	}
}

func printEvent(f frame) {
	switch f.Event {
	case proto.EventUserInfo:
		var u proto.User
		if decode(f, &u) {
			fmt.Printf("* registered as %s (%s)\n", u.Username, u.ID)
		}
	case proto.EventJoinError:
		var e proto.JoinErrorData
		if decode(f, &e) {
			fmt.Printf("! %s\n", e.Message)
		}
	case proto.EventReceiveMessage:
		var m proto.Message
		if decode(f, &m) {
			fmt.Printf("[#%s] %s: %s\n", m.ChannelID, m.Username, m.Content)
		}
	case proto.EventChannelMessages:
		var history []proto.Message
		if decode(f, &history) {
			for _, m := range history {
				fmt.Printf("[#%s %s] %s: %s\n", m.ChannelID, m.Timestamp, m.Username, m.Content)
			}
		}
	case proto.EventUserJoined:
		var e proto.UserJoinedData
		if decode(f, &e) {
			fmt.Printf("* %s joined #%s\n", e.User.Username, e.ChannelID)
		}
	case proto.EventUserLeft:
		var e proto.UserLeftData
		if decode(f, &e) {
			fmt.Printf("* %s left #%s\n", e.UserID, e.ChannelID)
		}
	case proto.EventUsersUpdate:
		var users []proto.User
		if decode(f, &users) {
			names := make([]string, 0, len(users))
			for _, u := range users {
				names = append(names, u.Username)
			}
			fmt.Printf("* online: %s\n", strings.Join(names, ", "))
		}
	case proto.EventVoiceUserJoined, proto.EventVoiceUserLeft, proto.EventVoiceNegotiationTimeout:
		var e proto.EventVoicePeer
		if decode(f, &e) {
			fmt.Printf("* %s: %s\n", f.Event, e.UserID)
		}
	default:
		fmt.Printf("event=%s data=%s\n", f.Event, f.Data)
	}
}

func decode(f frame, v any) bool {
	if err := json.Unmarshal(f.Data, v); err != nil {
		log.Printf("decode %s: %v", f.Event, err)
		return false
	}
	return true
}

func writeLoop(ctx context.Context, conn *websocket.Conn) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if err := handleLine(ctx, conn, strings.TrimSpace(line)); err != nil {
				log.Print(err)
				return
			}
		}
	}
}

func handleLine(ctx context.Context, conn *websocket.Conn, text string) error {
	switch {
	case text == "":
		return nil
	case strings.HasPrefix(text, "/join "):
		return send(ctx, conn, proto.InboundTypeJoinChannel, proto.ChannelData{ChannelID: strings.TrimSpace(text[len("/join "):])})
	case text == "/leave":
		return send(ctx, conn, proto.InboundTypeLeaveChannel, proto.ChannelData{})
	case text == "/voice":
		return send(ctx, conn, proto.InboundTypeVoiceJoin, struct{}{})
	case text == "/unvoice":
		return send(ctx, conn, proto.InboundTypeVoiceLeave, struct{}{})
	default:
		return send(ctx, conn, proto.InboundTypeSendMessage, proto.SendMessageData{Content: text})
	}
}
