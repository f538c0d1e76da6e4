package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"arena_client/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const arenaV1JSON = `{
  "objectId": "0xarena1",
  "version": "12",
  "owner": {"Shared": {"initial_shared_version": 7}},
  "content": {
    "dataType": "moveObject",
    "type": "0xpkg::arena_pvp::Arena",
    "fields": {
      "id": {"id": "0xarena1"},
      "player_one": {
        "type": "0xpkg::arena_pvp::ArenaPlayer",
        "fields": {
          "account": "0xA",
          "stats": {"type": "0xpkg::stats::Stats", "fields": {"hp": "5000000000", "types": [1]}},
          "next_attack": [1, 2, 3],
          "next_round": "2"
        }
      },
      "player_two": null
    }
  }
}`

const arenaV2JSON = `{
  "objectId": "0xarena2",
  "version": "40",
  "owner": {"Shared": {"initial_shared_version": "31"}},
  "content": {
    "dataType": "moveObject",
    "type": "0xpkg::arena::Arena",
    "fields": {
      "round": "3",
      "is_over": false,
      "p1": {
        "type": "0xpkg::arena::ActivePlayer",
        "fields": {
          "kiosk_id": "0xK1",
          "player": {"type": "0xpkg::player::Player", "fields": {
            "moves": [0, 3, 6],
            "stats": {"type": "0xpkg::stats::Stats", "fields": {"hp": "10000000000", "types": [0]}}
          }},
          "stats": {"type": "0xpkg::stats::Stats", "fields": {"hp": "4000000000", "types": [0]}},
          "next_attack": null,
          "next_round": "3"
        }
      },
      "p2": {
        "type": "0xpkg::arena::ActivePlayer",
        "fields": {
          "kiosk_id": "0xK2",
          "player": {"type": "0xpkg::player::Player", "fields": {
            "moves": [1, 2],
            "stats": {"type": "0xpkg::stats::Stats", "fields": {"hp": "9000000000", "types": [2]}}
          }},
          "stats": {"type": "0xpkg::stats::Stats", "fields": {"hp": "9000000000", "types": [2]}},
          "next_attack": {"vec": [[9, 9]]},
          "next_round": "4"
        }
      }
    }
  }
}`

// fakeNode serves sui_getObject and suix_getDynamicFieldObject from fixtures
func fakeNode(t *testing.T, objects map[string]string, fields map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int64             `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		var id string
		if len(req.Params) > 0 {
			_ = json.Unmarshal(req.Params[0], &id)
		}

		var result string
		switch req.Method {
		case "sui_getChainIdentifier":
			result = `"4c78adac"`
		case "sui_getObject":
			if obj, ok := objects[id]; ok {
				result = `{"data":` + obj + `}`
			} else {
				result = `{"error":{"code":"notExists","object_id":"` + id + `"}}`
			}
		case "suix_getDynamicFieldObject":
			if v, ok := fields[id]; ok {
				result = `{"data":{"objectId":"0xdf","version":"1","content":{"dataType":"moveObject","type":"0x2::dynamic_field::Field","fields":{"name":{},"value":` + v + `}}}}`
			} else {
				result = `{"error":{"code":"dynamicFieldNotFound"}}`
			}
		default:
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":` + result + `}`))
	}))
}

func TestReadArenaV1(t *testing.T) {
	srv := fakeNode(t, map[string]string{"0xarena1": arenaV1JSON}, nil)
	defer srv.Close()

	c := NewClient(srv.URL, "0xpkg")
	snap, err := c.ReadArena(context.Background(), "0xarena1", domain.VariantV1)
	require.NoError(t, err)

	assert.Equal(t, "0xarena1", snap.ArenaID)
	assert.Equal(t, domain.VariantV1, snap.Variant)
	assert.Equal(t, uint64(7), snap.InitialSharedVersion)
	require.NotNil(t, snap.PlayerOne)
	assert.Nil(t, snap.PlayerTwo)
	assert.Equal(t, "0xA", snap.PlayerOne.Account)
	assert.Equal(t, uint64(5_000_000_000), snap.PlayerOne.HP)
	assert.Equal(t, snap.PlayerOne.HP, snap.PlayerOne.InitialHP)
	assert.Equal(t, domain.Hash{1, 2, 3}, snap.PlayerOne.NextAttack)
	assert.Equal(t, uint64(2), snap.PlayerOne.Round())
	assert.Empty(t, snap.PlayerOne.MovesAvailable)
	assert.False(t, snap.FetchedAt.IsZero())
}

func TestReadArenaV2(t *testing.T) {
	srv := fakeNode(t, map[string]string{"0xarena2": arenaV2JSON}, nil)
	defer srv.Close()

	c := NewClient(srv.URL, "0xpkg")
	// variant hint is wrong on purpose: the object type decides
	snap, err := c.ReadArena(context.Background(), "0xarena2", domain.VariantV1)
	require.NoError(t, err)

	assert.Equal(t, domain.VariantV2, snap.Variant)
	assert.Equal(t, uint64(31), snap.InitialSharedVersion)
	assert.Equal(t, uint64(3), snap.Round)

	p1, p2 := snap.PlayerOne, snap.PlayerTwo
	require.NotNil(t, p1)
	require.NotNil(t, p2)
	assert.Equal(t, "0xK1", p1.Account)
	assert.Equal(t, uint64(4_000_000_000), p1.HP)
	assert.Equal(t, uint64(10_000_000_000), p1.InitialHP)
	assert.Equal(t, []uint8{0, 3, 6}, p1.MovesAvailable)
	assert.Nil(t, p1.NextAttack)
	assert.Equal(t, uint64(3), p1.Round())

	assert.Equal(t, domain.Hash{9, 9}, p2.NextAttack)
	assert.Equal(t, uint64(4), p2.Round())
	assert.Equal(t, []uint8{2}, p2.Types)

	ref := snap.Ref()
	assert.Equal(t, domain.ArenaRef{ObjectID: "0xarena2", InitialSharedVersion: 31, Mutable: true}, ref)
}

func TestReadArenaErrors(t *testing.T) {
	srv := fakeNode(t, map[string]string{
		"0xbroken": `{"objectId":"0xbroken","version":"1","owner":{"Shared":{"initial_shared_version":1}},"content":{"dataType":"moveObject","type":"0xpkg::arena::Arena","fields":{"p1":null}}}`,
		"0xcoin":   `{"objectId":"0xcoin","version":"1","owner":{"AddressOwner":"0x1"},"content":{"dataType":"moveObject","type":"0x2::coin::Coin<0x2::sui::SUI>","fields":{"balance":"1"}}}`,
		"0xnohp":   `{"objectId":"0xnohp","version":"1","owner":{"Shared":{"initial_shared_version":1}},"content":{"dataType":"moveObject","type":"0xpkg::arena_pvp::Arena","fields":{"player_one":{"account":"0xA","stats":{}},"player_two":null}}}`,
	}, nil)
	defer srv.Close()

	c := NewClient(srv.URL, "0xpkg")
	ctx := context.Background()

	_, err := c.ReadArena(ctx, "0xmissing", domain.VariantV1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = c.ReadArena(ctx, "0xbroken", domain.VariantV2)
	assert.ErrorIs(t, err, domain.ErrMalformedState)

	_, err = c.ReadArena(ctx, "0xcoin", domain.VariantV2)
	assert.ErrorIs(t, err, domain.ErrMalformedState)

	_, err = c.ReadArena(ctx, "0xnohp", domain.VariantV1)
	assert.ErrorIs(t, err, domain.ErrMalformedState)
}

func TestMatchmakingLookups(t *testing.T) {
	srv := fakeNode(t,
		map[string]string{"0xarena2": arenaV2JSON},
		map[string]string{
			"0xK1":      `{"type":"0xpkg::the_game::Extension","fields":{"is_enabled":true,"permissions":"3","storage":{"type":"0x2::bag::Bag","fields":{"id":{"id":"0xstorage"},"size":"1"}}}}`,
			"0xstorage": `"0xmatch"`,
			"0xpool":    `"0xarena2"`,
		})
	defer srv.Close()

	c := NewClient(srv.URL, "0xpkg")
	ctx := context.Background()

	storage, err := c.ExtensionStorage(ctx, "0xK1")
	require.NoError(t, err)
	assert.Equal(t, "0xstorage", storage)

	match, err := c.ActiveMatch(ctx, storage)
	require.NoError(t, err)
	assert.Equal(t, "0xmatch", match)

	arena, err := c.ArenaForMatch(ctx, "0xpool", match)
	require.NoError(t, err)
	assert.Equal(t, "0xarena2", arena)

	_, err = c.ActiveMatch(ctx, "0xnothing")
	assert.ErrorIs(t, err, domain.ErrNoMatch)

	ref, err := c.ArenaRef(ctx, "0xarena2")
	require.NoError(t, err)
	assert.Equal(t, uint64(31), ref.InitialSharedVersion)
}

func TestPing(t *testing.T) {
	srv := fakeNode(t, nil, nil)
	defer srv.Close()

	c := NewClient(srv.URL, "0xpkg")
	chainID, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "4c78adac", chainID)

	srv.Close()
	_, err = c.Ping(context.Background())
	assert.Error(t, err)
}
