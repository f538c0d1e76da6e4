package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"arena_client/internal/domain"
	"arena_client/internal/game"
	"arena_client/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSession struct {
	catalog   *game.Catalog
	status    session.Status
	cancelled bool
	cancelErr error
}

func (f *fakeSession) Status() session.Status { return f.status }
func (f *fakeSession) Catalog() *game.Catalog { return f.catalog }
func (f *fakeSession) Cancel(context.Context) error {
	f.cancelled = true
	return f.cancelErr
}

type fakeResults struct {
	identity string
	limit    int
	err      error
}

func (f *fakeResults) ListByIdentity(_ context.Context, identity string, limit int) ([]*domain.ArenaResult, error) {
	f.identity, f.limit = identity, limit
	if f.err != nil {
		return nil, f.err
	}
	return []*domain.ArenaResult{{ArenaID: "0xa", Winner: domain.WinnerMe}}, nil
}

func newTestHandler(t *testing.T) (*Handler, *fakeSession) {
	t.Helper()
	cat, err := game.CatalogFor(domain.VariantV1)
	require.NoError(t, err)
	fs := &fakeSession{catalog: cat, status: session.Status{SessionID: "s1", State: session.StatePolling}}
	return NewHandler(fs, session.NewMoveQueue(), nil, "0xme"), fs
}

func router(h *Handler) *gin.Engine {
	r := gin.New()
	r.GET("/session", h.GetSession)
	r.POST("/move", h.PostMove)
	r.POST("/cancel", h.PostCancel)
	r.GET("/moves", h.GetMoves)
	r.GET("/results", h.GetResults)
	return r
}

func call(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

// awaitPrompt opens a prompt on the queue and returns the channel the chosen move lands on
func awaitPrompt(t *testing.T, q *session.MoveQueue, moves []game.Move) <-chan uint8 {
	t.Helper()
	got := make(chan uint8, 1)
	go func() {
		id, err := q.ChooseMove(context.Background(), session.MovePrompt{Reason: session.PromptCommit, Moves: moves})
		if err == nil {
			got <- id
		}
	}()
	require.Eventually(t, func() bool { return q.Pending() != nil }, time.Second, time.Millisecond)
	return got
}

func TestPostMoveWithoutPrompt(t *testing.T) {
	h, _ := newTestHandler(t)
	w := call(router(h), "POST", "/move", `{"move_id":1}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPostMoveByKey(t *testing.T) {
	h, _ := newTestHandler(t)
	got := awaitPrompt(t, h.Moves, h.Session.Catalog().Moves())

	w := call(router(h), "POST", "/move", `{"key":"KeyE"}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.JSONEq(t, `{"move_id":2,"name":"Water"}`, w.Body.String())

	select {
	case id := <-got:
		assert.Equal(t, uint8(2), id)
	case <-time.After(time.Second):
		t.Fatal("move not delivered")
	}
}

func TestPostMoveRejectsUnofferedMove(t *testing.T) {
	h, _ := newTestHandler(t)
	fire, _ := h.Session.Catalog().ByID(0)
	awaitPrompt(t, h.Moves, []game.Move{fire})

	w := call(router(h), "POST", "/move", `{"move_id":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(router(h), "POST", "/move", `{"move_id":42}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(router(h), "POST", "/move", `nope`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostMoveKeyPicksHeldSlot(t *testing.T) {
	cat, err := game.CatalogFor(domain.VariantV2)
	require.NoError(t, err)
	fs := &fakeSession{catalog: cat}
	h := NewHandler(fs, session.NewMoveQueue(), nil, "0xkiosk")
	got := awaitPrompt(t, h.Moves, cat.Allowed([]uint8{4, 5, 6, 7}))

	w := call(router(h), "POST", "/move", `{"key":"KeyQ"}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.JSONEq(t, `{"move_id":4,"name":"Quake Strike"}`, w.Body.String())

	select {
	case id := <-got:
		assert.Equal(t, uint8(4), id)
	case <-time.After(time.Second):
		t.Fatal("move not delivered")
	}
}

func TestGetSessionShowsPrompt(t *testing.T) {
	h, _ := newTestHandler(t)
	awaitPrompt(t, h.Moves, nil)

	w := call(router(h), "GET", "/session", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status session.Status      `json:"status"`
		Prompt *session.MovePrompt `json:"prompt"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "s1", body.Status.SessionID)
	require.NotNil(t, body.Prompt)
	assert.Equal(t, session.PromptCommit, body.Prompt.Reason)
}

func TestPostCancel(t *testing.T) {
	h, fs := newTestHandler(t)
	w := call(router(h), "POST", "/cancel", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, fs.cancelled)

	fs.cancelErr = errors.New("gateway down")
	w = call(router(h), "POST", "/cancel", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGetMoves(t *testing.T) {
	h, _ := newTestHandler(t)
	w := call(router(h), "GET", "/moves", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"variant":"v1"`)
	assert.Contains(t, w.Body.String(), `"Fire"`)
	assert.Contains(t, w.Body.String(), `"types"`)

	w = call(router(h), "GET", "/moves?variant=pvb", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"variant":"pvb"`)
	assert.Contains(t, w.Body.String(), `"Water"`)
}

func TestGetResults(t *testing.T) {
	h, _ := newTestHandler(t)

	w := call(router(h), "GET", "/results", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"results":[]}`, w.Body.String())

	res := &fakeResults{}
	h.Results = res
	w = call(router(h), "GET", "/results?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0xme", res.identity)
	assert.Equal(t, 5, res.limit)
	assert.Contains(t, w.Body.String(), `"winner":"me"`)

	res.err = errors.New("db down")
	w = call(router(h), "GET", "/results", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealthChecks(t *testing.T) {
	failing := func(context.Context) error { return errors.New("down") }
	ok := func(context.Context) error { return nil }

	r := gin.New()
	healthy := NewHealthHandler("v1", map[string]Check{"rpc": ok, "redis": nil})
	r.GET("/ok", healthy.Health)
	r.GET("/ready", healthy.Readiness)
	sick := NewHealthHandler("v1", map[string]Check{"rpc": ok, "database": failing})
	r.GET("/sick", sick.Health)

	assert.Equal(t, http.StatusOK, call(r, "GET", "/ok", "").Code)

	w := call(r, "GET", "/ready", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rpc":"healthy"`)
	assert.NotContains(t, w.Body.String(), `"redis"`)

	w = call(r, "GET", "/sick", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unhealthy: down")
}
