package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"arena_client/internal/service"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTMiddleware(t *testing.T) {
	service.InitJWT("mw-secret")
	tok, err := service.GenerateJWT("0xMe")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	r := gin.New()
	r.GET("/p", JWT(), RequireIdentity("0xme"), func(c *gin.Context) {
		c.String(200, c.GetString(IdentityKey))
	})

	if w := do(r, httptest.NewRequest("GET", "/p", nil)); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: got %d", w.Code)
	}

	req := httptest.NewRequest("GET", "/p", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	if w := do(r, req); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: got %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/p", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := do(r, req)
	if w.Code != 200 || w.Body.String() != "0xme" {
		t.Fatalf("header token: got %d %q", w.Code, w.Body.String())
	}

	if w := do(r, httptest.NewRequest("GET", "/p?token="+tok, nil)); w.Code != 200 {
		t.Fatalf("query token: got %d", w.Code)
	}
}

func TestRequireIdentityRejectsOtherPlayer(t *testing.T) {
	service.InitJWT("mw-secret")
	tok, _ := service.GenerateJWT("0xsomeoneelse")

	r := gin.New()
	r.GET("/p", JWT(), RequireIdentity("0xme"), func(c *gin.Context) { c.Status(200) })

	req := httptest.NewRequest("GET", "/p", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	if w := do(r, req); w.Code != http.StatusForbidden {
		t.Fatalf("got %d", w.Code)
	}
}

func TestSimpleRateLimit(t *testing.T) {
	r := gin.New()
	r.GET("/x", SimpleRateLimit(2, time.Minute), func(c *gin.Context) { c.Status(200) })

	for i := 0; i < 2; i++ {
		if w := do(r, httptest.NewRequest("GET", "/x", nil)); w.Code != 200 {
			t.Fatalf("request %d: got %d", i, w.Code)
		}
	}
	if w := do(r, httptest.NewRequest("GET", "/x", nil)); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
}

func TestMoveRateLimitMemoryFallback(t *testing.T) {
	UseRedis(nil)

	r := gin.New()
	r.POST("/move", func(c *gin.Context) {
		c.Set(IdentityKey, c.Query("id"))
		c.Next()
	}, MoveRateLimit(1, time.Minute), func(c *gin.Context) { c.Status(200) })

	if w := do(r, httptest.NewRequest("POST", "/move?id=a", nil)); w.Code != 200 {
		t.Fatalf("first move: got %d", w.Code)
	}
	w := do(r, httptest.NewRequest("POST", "/move?id=a", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second move: got %d", w.Code)
	}
	if w.Header().Get("X-MoveRateLimit-Remaining") != "0" {
		t.Fatalf("remaining header = %q", w.Header().Get("X-MoveRateLimit-Remaining"))
	}
	// limits are per identity
	if w := do(r, httptest.NewRequest("POST", "/move?id=b", nil)); w.Code != 200 {
		t.Fatalf("other identity: got %d", w.Code)
	}
	if w := do(r, httptest.NewRequest("POST", "/move", nil)); w.Code != http.StatusUnauthorized {
		t.Fatalf("no identity: got %d", w.Code)
	}
}
