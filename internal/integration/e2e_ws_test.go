package integration

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"arena_client/internal/chain"
	"arena_client/internal/commitment"
	"arena_client/internal/domain"
	httpServer "arena_client/internal/http"
	"arena_client/internal/http/handlers"
	"arena_client/internal/secret"
	"arena_client/internal/service"
	"arena_client/internal/session"
	"arena_client/internal/turn"
	"arena_client/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	arenaID  = "0xarena"
	me       = "0xme"
	opponent = "0xopp"
)

// world is a one-arena chain: the opponent commits as soon as we do and
// loses all HP once both moves are revealed
type world struct {
	mu       sync.Mutex
	myHash   []byte
	oppHash  []byte
	round    uint64
	oppHP    uint64
	received []chain.TxRequest
}

func newWorld() *world {
	return &world{oppHP: 3_000_000_000}
}

func attack(h []byte) string {
	if h == nil {
		return "null"
	}
	parts := make([]string, len(h))
	for i, b := range h {
		parts[i] = fmt.Sprint(b)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (w *world) arenaJSON() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	player := func(account string, hp uint64, hash []byte) string {
		return fmt.Sprintf(`{"type":"0xpkg::arena_pvp::ArenaPlayer","fields":{"account":%q,`+
			`"stats":{"type":"0xpkg::stats::Stats","fields":{"hp":"%d","types":[1]}},`+
			`"next_attack":%s,"next_round":"%d"}}`, account, hp, attack(hash), w.round)
	}
	return fmt.Sprintf(`{"objectId":%q,"version":"3","owner":{"Shared":{"initial_shared_version":7}},`+
		`"content":{"dataType":"moveObject","type":"0xpkg::arena_pvp::Arena","fields":{`+
		`"id":{"id":%q},"player_one":%s,"player_two":%s}}}`,
		arenaID, arenaID,
		player(me, 5_000_000_000, w.myHash),
		player(opponent, w.oppHP, w.oppHash))
}

func (w *world) apply(tx chain.TxRequest) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.received = append(w.received, tx)
	switch tx.Kind {
	case chain.TxCommit:
		h, _ := hex.DecodeString(tx.Arguments[1].Value.(string))
		w.myHash = h
		w.oppHash = []byte{9, 9, 9}
	case chain.TxReveal:
		w.myHash, w.oppHash = nil, nil
		w.round++
		w.oppHP = 0
	}
}

func (w *world) transactions() []chain.TxRequest {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]chain.TxRequest(nil), w.received...)
}

func (w *world) node() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			rw.WriteHeader(http.StatusBadRequest)
			return
		}
		var result string
		switch req.Method {
		case "sui_getChainIdentifier":
			result = `"4c78adac"`
		case "sui_getObject":
			result = `{"data":` + w.arenaJSON() + `}`
		default:
			rw.WriteHeader(http.StatusBadRequest)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_, _ = rw.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":` + result + `}`))
	}))
}

func (w *world) gateway() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		var tx chain.TxRequest
		if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
			rw.WriteHeader(http.StatusBadRequest)
			return
		}
		w.apply(tx)
		rw.Header().Set("Content-Type", "application/json")
		_, _ = rw.Write([]byte(`{"success":true,"digest":"0xdigest-` + string(tx.Kind) + `"}`))
	}))
}

func readStatus(t *testing.T, conn *websocket.Conn) (session.Status, bool) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var env ws.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	if env.Type != ws.MsgStatus {
		return session.Status{}, false
	}
	var st session.Status
	require.NoError(t, json.Unmarshal(env.Payload, &st))
	return st, true
}

func TestE2E_PlayRoundOverWebSocket(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service.InitJWT("e2e-secret")

	w := newWorld()
	node := w.node()
	defer node.Close()
	gw := w.gateway()
	defer gw.Close()

	identity := turn.AddressIdentity(me)
	kv := secret.NewMemoryKV()
	moves := session.NewMoveQueue()

	sess, err := session.New(session.Options{
		Variant: domain.VariantV1,
		ArenaID: arenaID,
		Intervals: session.Intervals{
			JoinWait:   10 * time.Millisecond,
			ActionWait: 10 * time.Millisecond,
			Idle:       10 * time.Millisecond,
		},
	}, session.Deps{
		Reader:   chain.NewClient(node.URL, "0xpkg"),
		Gateway:  chain.NewGateway(gw.URL, "test-key"),
		Builder:  &chain.Builder{PackageID: "0xpkg", Variant: domain.VariantV1, Sender: me},
		Identity: identity,
		Salts:    commitment.FixedSalt(commitment.DefaultSalt),
		Secrets: func(id string) turn.SecretStore {
			return secret.NewStore(kv, id, identity.ID())
		},
		Moves: moves,
	})
	require.NoError(t, err)

	hub := ws.NewHub()
	h := handlers.NewHandler(sess, moves, nil, identity.ID())
	r := gin.New()
	httpServer.RegisterRoutes(r, h, handlers.NewHealthHandler("e2e", nil), hub, httpServer.DefaultLimits())
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	go hub.Run(ctx, sess)

	done := make(chan error, 1)
	go func() { done <- sess.Run(ctx) }()

	token, err := service.GenerateJWT(me)
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	sent := false
	var final session.Status
	for final.State != session.StateFinished {
		st, ok := readStatus(t, conn)
		if !ok {
			continue
		}
		if st.State == session.StateAwaitingMove && !sent {
			require.NoError(t, conn.WriteJSON(map[string]any{
				"type":    ws.MsgMove,
				"payload": map[string]any{"move_id": 1},
			}))
			sent = true
		}
		final = st
	}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("session did not stop after game over")
	}

	assert.True(t, sent, "move prompt never reached the client")
	assert.Equal(t, domain.GameOver(domain.WinnerMe), final.Action)
	assert.Zero(t, final.OpponentHP)

	txs := w.transactions()
	require.Len(t, txs, 2)
	assert.Equal(t, chain.TxCommit, txs[0].Kind)
	assert.Equal(t, commitment.Commit(1, commitment.DefaultSalt).String(), txs[0].Arguments[1].Value)
	assert.Equal(t, chain.TxReveal, txs[1].Kind)
	assert.Equal(t, float64(1), txs[1].Arguments[1].Value)
	assert.Equal(t, "01020304", txs[1].Arguments[2].Value)

	// the revealed secret is gone
	_, err = kv.Get(context.Background(), secret.Key(arenaID, me))
	assert.ErrorIs(t, err, secret.ErrKeyNotFound)
}

func TestE2E_HealthAndAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service.InitJWT("e2e-secret")

	w := newWorld()
	node := w.node()
	defer node.Close()

	rpc := chain.NewClient(node.URL, "0xpkg")
	health := handlers.NewHealthHandler("e2e", map[string]handlers.Check{
		"rpc": func(ctx context.Context) error {
			_, err := rpc.Ping(ctx)
			return err
		},
	})

	moves := session.NewMoveQueue()
	sess, err := session.New(session.Options{Variant: domain.VariantV1, ArenaID: arenaID}, session.Deps{
		Reader:   rpc,
		Gateway:  chain.NewGateway("http://127.0.0.1:1", ""),
		Builder:  &chain.Builder{PackageID: "0xpkg", Variant: domain.VariantV1, Sender: me},
		Identity: turn.AddressIdentity(me),
		Salts:    commitment.FixedSalt(commitment.DefaultSalt),
		Secrets: func(id string) turn.SecretStore {
			return secret.NewStore(secret.NewMemoryKV(), id, me)
		},
		Moves: moves,
	})
	require.NoError(t, err)

	r := gin.New()
	httpServer.RegisterRoutes(r, handlers.NewHandler(sess, moves, nil, me), health, ws.NewHub(), httpServer.DefaultLimits())
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/v1/session")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := service.GenerateJWT(me)
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/session", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status session.Status `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, domain.VariantV1, body.Status.Variant)
	assert.Equal(t, arenaID, body.Status.ArenaID)
	assert.Equal(t, session.StateStarting, body.Status.State)
}
