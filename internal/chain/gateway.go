package chain

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"arena_client/internal/domain"
)

// TxKind - transaction the client asks the signing gateway to build and submit
type TxKind string

const (
	TxCommit       TxKind = "commit"
	TxReveal       TxKind = "reveal"
	TxJoin         TxKind = "join"
	TxClearArena   TxKind = "clear_arena"
	TxPlay         TxKind = "play"
	TxCancelSearch TxKind = "cancel_search"
)

// TxArg - one argument of the Move call, in call order
type TxArg struct {
	Kind  string `json:"kind"` // shared | object | pure_u8 | pure_bytes | kiosk | kiosk_cap
	Value any    `json:"value,omitempty"`
}

// TxRequest - what is sent to the gateway
type TxRequest struct {
	Kind      TxKind  `json:"kind"`
	Target    string  `json:"target"`
	Sender    string  `json:"sender"`
	Arguments []TxArg `json:"arguments"`
	GasBudget uint64  `json:"gas_budget,omitempty"`
}

// TxResult - gateway response
type TxResult struct {
	Success bool            `json:"success"`
	Digest  string          `json:"digest"`
	Effects json.RawMessage `json:"effects,omitempty"`
	Error   *GatewayError   `json:"error,omitempty"`
}

type GatewayError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Gateway submits transactions through an external signing service.
// Keys never reach this process.
type Gateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewGateway(baseURL, apiKey string) *Gateway {
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Submit sends tx and waits for execution. Network errors and failed execution
// are retryable; a not_participant rejection is fatal.
func (g *Gateway) Submit(ctx context.Context, tx TxRequest) (*TxResult, error) {
	body, err := json.Marshal(tx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit %s: %w", tx.Kind, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("submit %s: read: %w", tx.Kind, err)
	}

	var res TxResult
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &res); err != nil && resp.StatusCode == http.StatusOK {
			return nil, fmt.Errorf("submit %s: decode: %w", tx.Kind, err)
		}
	}

	if res.Error != nil && res.Error.Code == "not_participant" {
		return &res, fmt.Errorf("submit %s: %w", tx.Kind, domain.ErrNotParticipant)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("submit %s: gateway error: %s - %s", tx.Kind, resp.Status, string(raw))
	}
	if !res.Success {
		msg := "execution failed"
		if res.Error != nil {
			msg = res.Error.Message
		}
		return &res, fmt.Errorf("submit %s: %w: %s", tx.Kind, domain.ErrTxRejected, msg)
	}
	return &res, nil
}

// Builder turns protocol steps into gateway requests for one package and variant
type Builder struct {
	PackageID string
	Variant   domain.Variant
	Sender    string
	KioskID   string
	KioskCap  string
	MatchPool domain.ArenaRef
}

func (b *Builder) target(module, fn string) string {
	return b.PackageID + "::" + module + "::" + fn
}

func (b *Builder) arenaModule() string {
	if b.Variant == domain.VariantV2 {
		return "arena"
	}
	return "arena_pvp"
}

func shared(ref domain.ArenaRef) TxArg {
	return TxArg{Kind: "shared", Value: ref}
}

// Commit - arena::commit(arena, cap, hash, clock); v1 has no cap
func (b *Builder) Commit(arena domain.ArenaRef, hash domain.Hash) TxRequest {
	args := []TxArg{shared(arena)}
	if b.Variant == domain.VariantV2 {
		args = append(args, TxArg{Kind: "object", Value: b.KioskCap})
	}
	args = append(args,
		TxArg{Kind: "pure_bytes", Value: hex.EncodeToString(hash)},
		TxArg{Kind: "object", Value: ClockObjectID},
	)
	return TxRequest{Kind: TxCommit, Target: b.target(b.arenaModule(), "commit"), Sender: b.Sender, Arguments: args}
}

// Reveal - arena::reveal(arena, cap, move, salt, clock)
func (b *Builder) Reveal(arena domain.ArenaRef, moveID uint8, salt []byte) TxRequest {
	args := []TxArg{shared(arena)}
	if b.Variant == domain.VariantV2 {
		args = append(args, TxArg{Kind: "object", Value: b.KioskCap})
	}
	args = append(args,
		TxArg{Kind: "pure_u8", Value: moveID},
		TxArg{Kind: "pure_bytes", Value: hex.EncodeToString(salt)},
		TxArg{Kind: "object", Value: ClockObjectID},
	)
	return TxRequest{Kind: TxReveal, Target: b.target(b.arenaModule(), "reveal"), Sender: b.Sender, Arguments: args}
}

// Join - arena_pvp::join(arena), v1 only
func (b *Builder) Join(arena domain.ArenaRef) TxRequest {
	return TxRequest{Kind: TxJoin, Target: b.target("arena_pvp", "join"), Sender: b.Sender, Arguments: []TxArg{shared(arena)}}
}

// ClearArena - the_game::clear_arena(kiosk, arena, cap, pool)
func (b *Builder) ClearArena(arena domain.ArenaRef) TxRequest {
	return TxRequest{
		Kind:   TxClearArena,
		Target: b.target("the_game", "clear_arena"),
		Sender: b.Sender,
		Arguments: []TxArg{
			{Kind: "kiosk", Value: b.KioskID},
			shared(arena),
			{Kind: "kiosk_cap", Value: b.KioskCap},
			shared(b.MatchPool),
		},
		GasBudget: DefaultGasBudget,
	}
}

// Play - the_game::play(kiosk, cap, pool): enter the match pool
func (b *Builder) Play() TxRequest {
	return TxRequest{
		Kind:   TxPlay,
		Target: b.target("the_game", "play"),
		Sender: b.Sender,
		Arguments: []TxArg{
			{Kind: "kiosk", Value: b.KioskID},
			{Kind: "kiosk_cap", Value: b.KioskCap},
			shared(b.MatchPool),
		},
	}
}

// CancelSearch - the_game::cancel_search(kiosk, pool, cap)
func (b *Builder) CancelSearch() TxRequest {
	return TxRequest{
		Kind:   TxCancelSearch,
		Target: b.target("the_game", "cancel_search"),
		Sender: b.Sender,
		Arguments: []TxArg{
			{Kind: "kiosk", Value: b.KioskID},
			shared(b.MatchPool),
			{Kind: "kiosk_cap", Value: b.KioskCap},
		},
	}
}

// HasCleanup reports whether finished arenas must be cleared by the players
func (b *Builder) HasCleanup() bool {
	return b.Variant == domain.VariantV2
}
