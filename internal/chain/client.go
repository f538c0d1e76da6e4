package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"arena_client/internal/domain"
)

// Client reads arena objects from a Sui fullnode over JSON-RPC
type Client struct {
	rpcURL     string
	packageID  string
	httpClient *http.Client
	seq        atomic.Int64
	now        func() time.Time
}

// NewClient creates a JSON-RPC client. packageID is needed for matchmaking lookups.
func NewClient(rpcURL, packageID string) *Client {
	return &Client{
		rpcURL:    rpcURL,
		packageID: packageID,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		now: time.Now,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// objectError - per-object error inside a successful RPC result
type objectError struct {
	Code     string `json:"code"`
	ObjectID string `json:"object_id"`
}

type objectContent struct {
	DataType string          `json:"dataType"`
	Type     string          `json:"type"`
	Fields   json.RawMessage `json:"fields"`
}

type objectData struct {
	ObjectID string          `json:"objectId"`
	Version  string          `json:"version"`
	Owner    json.RawMessage `json:"owner"`
	Content  *objectContent  `json:"content"`
}

type objectResponse struct {
	Data  *objectData  `json:"data"`
	Error *objectError `json:"error"`
}

// call performs one JSON-RPC request and decodes result into out
func (c *Client) call(ctx context.Context, method string, out any, params ...any) error {
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.seq.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("rpc %s: %s - %s", method, resp.Status, string(b))
	}

	var rr rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return fmt.Errorf("rpc %s: decode: %w", method, err)
	}
	if rr.Error != nil {
		return fmt.Errorf("rpc %s: %d %s", method, rr.Error.Code, rr.Error.Message)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(rr.Result, out)
}

// Ping returns the chain identifier; used as the node health check
func (c *Client) Ping(ctx context.Context) (string, error) {
	var id string
	if err := c.call(ctx, "sui_getChainIdentifier", &id); err != nil {
		return "", err
	}
	return id, nil
}

// getObject fetches an object with content and owner
func (c *Client) getObject(ctx context.Context, id string) (*objectData, error) {
	var res objectResponse
	opts := map[string]bool{"showContent": true, "showOwner": true}
	if err := c.call(ctx, "sui_getObject", &res, id, opts); err != nil {
		return nil, err
	}
	if res.Error != nil {
		if res.Error.Code == "notExists" || res.Error.Code == "deleted" {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get object %s: %s", id, res.Error.Code)
	}
	if res.Data == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return res.Data, nil
}

// ReadArena fetches the arena and normalizes it for variant
func (c *Client) ReadArena(ctx context.Context, arenaID string, variant domain.Variant) (*domain.ArenaSnapshot, error) {
	obj, err := c.getObject(ctx, arenaID)
	if err != nil {
		return nil, err
	}

	snap, err := Normalize(obj, variant)
	if err != nil {
		return nil, err
	}
	snap.ArenaID = arenaID
	snap.FetchedAt = c.now()
	return snap, nil
}

// ArenaRef reads only what is needed to reference the arena in a transaction
func (c *Client) ArenaRef(ctx context.Context, arenaID string) (domain.ArenaRef, error) {
	obj, err := c.getObject(ctx, arenaID)
	if err != nil {
		return domain.ArenaRef{}, err
	}
	v, err := sharedVersion(obj.Owner)
	if err != nil {
		return domain.ArenaRef{}, err
	}
	return domain.ArenaRef{ObjectID: arenaID, InitialSharedVersion: v, Mutable: true}, nil
}

// dynamicFieldName - key of a dynamic field lookup
type dynamicFieldName struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

var markerKey = map[string]bool{"dummy_field": false}

// dynamicField returns the stripped `value` of a dynamic field, ErrNoMatch when absent
func (c *Client) dynamicField(ctx context.Context, parentID string, name dynamicFieldName) (any, error) {
	var res objectResponse
	if err := c.call(ctx, "suix_getDynamicFieldObject", &res, parentID, name); err != nil {
		return nil, err
	}
	if res.Error != nil || res.Data == nil || res.Data.Content == nil {
		return nil, domain.ErrNoMatch
	}
	fields, err := decodeFields(res.Data.Content.Fields)
	if err != nil {
		return nil, err
	}
	v, ok := fields["value"]
	if !ok {
		return nil, fmt.Errorf("%w: dynamic field without value", domain.ErrMalformedState)
	}
	return v, nil
}

// ExtensionStorage returns the storage id of the game extension installed in kioskID
func (c *Client) ExtensionStorage(ctx context.Context, kioskID string) (string, error) {
	v, err := c.dynamicField(ctx, kioskID, dynamicFieldName{
		Type:  fmt.Sprintf("0x2::kiosk_extension::ExtensionKey<%s::the_game::Game>", c.packageID),
		Value: markerKey,
	})
	if err != nil {
		return "", err
	}
	ext, ok := v.(map[string]any)
	if !ok {
		return "", fmt.Errorf("%w: extension", domain.ErrMalformedState)
	}
	storage, ok := dig(ext, "storage", "id", "id").(string)
	if !ok {
		// stripped UID renders as {"id": "0x.."}
		storage, ok = dig(ext, "storage", "id").(string)
	}
	if !ok || storage == "" {
		return "", fmt.Errorf("%w: extension storage", domain.ErrMalformedState)
	}
	return storage, nil
}

// ActiveMatch returns the match id marker kept in the extension storage
func (c *Client) ActiveMatch(ctx context.Context, storageID string) (string, error) {
	v, err := c.dynamicField(ctx, storageID, dynamicFieldName{
		Type:  c.packageID + "::the_game::MatchKey",
		Value: markerKey,
	})
	if err != nil {
		return "", err
	}
	id, ok := v.(string)
	if !ok || id == "" {
		return "", fmt.Errorf("%w: match id", domain.ErrMalformedState)
	}
	return id, nil
}

// ArenaForMatch resolves the arena the match pool created for matchID
func (c *Client) ArenaForMatch(ctx context.Context, poolID, matchID string) (string, error) {
	v, err := c.dynamicField(ctx, poolID, dynamicFieldName{Type: "0x2::object::ID", Value: matchID})
	if err != nil {
		return "", err
	}
	id, ok := v.(string)
	if !ok || id == "" {
		return "", fmt.Errorf("%w: arena id", domain.ErrMalformedState)
	}
	return id, nil
}

func dig(m map[string]any, path ...string) any {
	var cur any = m
	for _, p := range path {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = mm[p]
	}
	return cur
}

func isArenaType(t string) bool {
	return strings.HasSuffix(t, arenaV1Suffix) || strings.HasSuffix(t, arenaV2Suffix)
}
