package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"arena_client/internal/service"
	"arena_client/internal/session"
	"arena_client/internal/ws"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
)

// arena_smoke attaches to a running daemon, prints status updates and can
// answer move prompts automatically.
func main() {
	_ = godotenv.Load()

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	token := flag.String("token", os.Getenv("UI_TOKEN"), "UI token printed by the daemon")
	identity := flag.String("identity", "", "issue a token for this identity using JWT_SECRET")
	move := flag.Int("move", -1, "move id to send whenever a move is asked for")
	timeout := flag.Duration("timeout", 0, "exit after this long (0 = until interrupted)")
	flag.Parse()

	if *token == "" && *identity != "" {
		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			log.Fatal("JWT_SECRET not set")
		}
		service.InitJWT(secret)
		t, err := service.GenerateJWT(*identity)
		if err != nil {
			log.Fatalf("gen token: %v", err)
		}
		*token = t
	}
	if *token == "" {
		log.Fatal("token required (-token, UI_TOKEN or -identity)")
	}

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	url := fmt.Sprintf("ws://127.0.0.1:%s/ws?token=%s", port, *token)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		var lastPrompt string
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				log.Printf("read: %v", err)
				return
			}
			var env ws.Envelope
			if err := json.Unmarshal(raw, &env); err != nil {
				log.Printf("bad frame: %s", raw)
				continue
			}
			if env.Type != ws.MsgStatus {
				fmt.Printf("%s %s\n", env.Type, env.Payload)
				continue
			}

			var st session.Status
			if err := json.Unmarshal(env.Payload, &st); err != nil {
				log.Printf("bad status: %v", err)
				continue
			}
			fmt.Printf("[%s] %-15s action=%-22s round=%d hp=%.2f/%.2f %s\n",
				st.UpdatedAt.Format(time.TimeOnly), st.State, st.Action, st.Round, st.MyHP, st.OpponentHP, st.Error)

			// one answer per prompt
			prompt := fmt.Sprintf("%s:%d", st.State, st.Round)
			needsMove := len(st.Moves) > 0 &&
				(st.State == session.StateAwaitingMove || st.State == session.StateSecretMissing)
			if *move >= 0 && needsMove && prompt != lastPrompt {
				lastPrompt = prompt
				id := uint8(*move)
				payload, _ := json.Marshal(ws.MovePayload{MoveID: &id})
				msg, _ := json.Marshal(ws.Envelope{Type: ws.MsgMove, Payload: payload})
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					log.Printf("send move: %v", err)
				}
			}
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	var deadline <-chan time.Time
	if *timeout > 0 {
		deadline = time.After(*timeout)
	}

	select {
	case <-done:
	case <-interrupt:
	case <-deadline:
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
