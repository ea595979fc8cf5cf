package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/Kay0310/toolboxtalk-v27/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	base := flag.String("base", "http://localhost:8080", "server base URL")
	user := flag.String("user", "김작업", "name to log in with")
	role := flag.String("role", "admin", "admin or member")
	room := flag.String("room", "SMOKE", "room code")
	members := flag.String("members", "", "comma separated members (admin only)")
	notes := flag.String("notes", "smoke test notes", "notes to save when logged in as admin")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	session, err := login(ctx, *base, proto.LoginRequest{Name: *user, Role: *role, RoomCode: *room, Members: *members})
	if err != nil {
		return err
	}
	fmt.Printf("Logged in: room=%s user=%s role=%s\n", session.Room.RoomCode, session.Room.Username, session.Room.Role)

	wsURL := strings.Replace(*base, "http", "ws", 1) + "/ws?token=" + session.Token
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	req := proto.ActionRequest{Action: "confirm"}
	if session.Room.Role == "admin" {
		payload, marshalErr := json.Marshal(proto.NotesPayload{Notes: *notes})
		if marshalErr != nil {
			return fmt.Errorf("marshal notes: %w", marshalErr)
		}
		req = proto.ActionRequest{Action: "setNotes", Payload: payload}
	}
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeAction, Data: data}); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	for {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("Received outbound: type=%s", outbound.Type)
		if outbound.Event != "" {
			fmt.Printf(" event=%s", outbound.Event)
		}
		fmt.Println()

		switch outbound.Type {
		case proto.OutboundTypeError:
			if outbound.Error != nil {
				return fmt.Errorf("server error %s: %s", outbound.Error.Code, outbound.Error.Msg)
			}
			return fmt.Errorf("server error")
		case proto.OutboundTypeSnapshot:
			var view proto.RoomView
			if err := json.Unmarshal(outbound.Data, &view); err == nil {
				fmt.Printf("Snapshot: revision=%d attendees=%v\n", view.Revision, view.Attendees)
			}
		case proto.OutboundTypeResult:
			var resp proto.ActionResponse
			if err := json.Unmarshal(outbound.Data, &resp); err != nil {
				fmt.Printf("Raw data: %s\n", string(outbound.Data))
				return fmt.Errorf("unmarshal result: %w", err)
			}
			fmt.Printf("Result: action=%s changed=%v revision=%d\n", resp.Result.Action, resp.Result.Changed, resp.Room.Revision)
			return nil
		default:
			// keep looping for the action result
		}
	}
}

func login(ctx context.Context, base string, body proto.LoginRequest) (*proto.LoginResponse, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal login: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/login", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return nil, fmt.Errorf("login: status %d: %s", resp.StatusCode, e.Error)
	}

	var out proto.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode login: %w", err)
	}
	return &out, nil
}
