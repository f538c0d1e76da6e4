package chain

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"arena_client/internal/domain"
)

// seat field names per schema
type schema struct {
	one, two string
	player   func(map[string]any) (*domain.PlayerView, error)
}

var schemas = map[domain.Variant]schema{
	// arena_pvp::Arena { player_one: Option<ArenaPlayer{account, stats, next_attack, next_round}>, ... }
	domain.VariantV1: {one: "player_one", two: "player_two", player: playerV1},
	// arena::Arena { p1: Option<ArenaPlayer{kiosk_id, player{stats, moves}, stats, next_attack, next_round}>, ... }
	domain.VariantV2: {one: "p1", two: "p2", player: playerV2},
}

// Normalize turns a raw arena object into a snapshot. The variant selects the
// schema; when the object type says otherwise the object type wins.
func Normalize(obj *objectData, variant domain.Variant) (*domain.ArenaSnapshot, error) {
	if obj == nil || obj.Content == nil || len(obj.Content.Fields) == 0 {
		return nil, fmt.Errorf("%w: no content", domain.ErrMalformedState)
	}
	if t := obj.Content.Type; t != "" && !isArenaType(t) {
		return nil, fmt.Errorf("%w: unexpected object type %s", domain.ErrMalformedState, t)
	}

	fields, err := decodeFields(obj.Content.Fields)
	if err != nil {
		return nil, err
	}

	variant = detectVariant(obj.Content.Type, fields, variant)
	sc, ok := schemas[variant]
	if !ok {
		return nil, fmt.Errorf("%w: unknown variant %s", domain.ErrMalformedState, variant)
	}

	rawOne, hasOne := fields[sc.one]
	rawTwo, hasTwo := fields[sc.two]
	if !hasOne || !hasTwo {
		return nil, fmt.Errorf("%w: missing %s/%s", domain.ErrMalformedState, sc.one, sc.two)
	}

	snap := &domain.ArenaSnapshot{Variant: variant}
	if snap.PlayerOne, err = seat(rawOne, sc.player); err != nil {
		return nil, fmt.Errorf("%s: %w", sc.one, err)
	}
	if snap.PlayerTwo, err = seat(rawTwo, sc.player); err != nil {
		return nil, fmt.Errorf("%s: %w", sc.two, err)
	}

	if v, ok := fields["round"]; ok {
		if snap.Round, err = toU64(v); err != nil {
			return nil, fmt.Errorf("%w: round: %v", domain.ErrMalformedState, err)
		}
	}
	if v, ok := fields["is_over"].(bool); ok {
		snap.IsOver = v
	}

	if len(obj.Owner) > 0 {
		if snap.InitialSharedVersion, err = sharedVersion(obj.Owner); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

func detectVariant(objType string, fields map[string]any, fallback domain.Variant) domain.Variant {
	switch {
	case strings.HasSuffix(objType, arenaV1Suffix):
		return domain.VariantV1
	case strings.HasSuffix(objType, arenaV2Suffix):
		return domain.VariantV2
	}
	if _, ok := fields["player_one"]; ok {
		return domain.VariantV1
	}
	if _, ok := fields["p1"]; ok {
		return domain.VariantV2
	}
	return fallback
}

func seat(raw any, parse func(map[string]any) (*domain.PlayerView, error)) (*domain.PlayerView, error) {
	raw = unwrapOption(raw)
	if raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: seat is %T", domain.ErrMalformedState, raw)
	}
	return parse(m)
}

func playerV1(m map[string]any) (*domain.PlayerView, error) {
	account, ok := m["account"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: account", domain.ErrMalformedState)
	}
	stats, ok := m["stats"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: stats", domain.ErrMalformedState)
	}
	hp, err := toU64(stats["hp"])
	if err != nil {
		return nil, fmt.Errorf("%w: hp: %v", domain.ErrMalformedState, err)
	}

	initial := hp
	for _, k := range []string{"initial_hp", "max_hp"} {
		if v, ok := stats[k]; ok {
			if initial, err = toU64(v); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", domain.ErrMalformedState, k, err)
			}
			break
		}
	}

	p := &domain.PlayerView{Account: account, HP: hp, InitialHP: initial}
	p.Types, _ = toBytes(stats["types"])
	return p, pending(p, m)
}

func playerV2(m map[string]any) (*domain.PlayerView, error) {
	account, ok := m["kiosk_id"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: kiosk_id", domain.ErrMalformedState)
	}
	stats, ok := m["stats"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: stats", domain.ErrMalformedState)
	}
	hp, err := toU64(stats["hp"])
	if err != nil {
		return nil, fmt.Errorf("%w: hp: %v", domain.ErrMalformedState, err)
	}

	p := &domain.PlayerView{Account: account, HP: hp, InitialHP: hp}
	p.Types, _ = toBytes(stats["types"])

	if player, ok := m["player"].(map[string]any); ok {
		if orig, ok := player["stats"].(map[string]any); ok {
			if v, err := toU64(orig["hp"]); err == nil {
				p.InitialHP = v
			}
		}
		if moves, err := toBytes(player["moves"]); err == nil {
			p.MovesAvailable = moves
		}
	}
	return p, pending(p, m)
}

// pending fills the commit markers shared by both schemas
func pending(p *domain.PlayerView, m map[string]any) error {
	if raw := unwrapOption(m["next_attack"]); raw != nil {
		b, err := toBytes(raw)
		if err != nil {
			return fmt.Errorf("%w: next_attack: %v", domain.ErrMalformedState, err)
		}
		p.NextAttack = domain.Hash(b)
	}
	if raw := unwrapOption(m["next_round"]); raw != nil {
		n, err := toU64(raw)
		if err != nil {
			return fmt.Errorf("%w: next_round: %v", domain.ErrMalformedState, err)
		}
		p.NextRound = &n
	}
	return nil
}

// decodeFields decodes Move struct fields and strips {type, fields} wrappers
func decodeFields(raw json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedState, err)
	}
	m, ok := strip(v).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: fields are %T", domain.ErrMalformedState, v)
	}
	return m, nil
}

func strip(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if inner, ok := t["fields"]; ok {
			if _, typed := t["type"]; typed {
				return strip(inner)
			}
		}
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = strip(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = strip(val)
		}
		return out
	default:
		return v
	}
}

// unwrapOption handles Option<T> rendered either as T|null or {"vec": [T]}
func unwrapOption(v any) any {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return v
	}
	vec, ok := m["vec"].([]any)
	if !ok {
		return v
	}
	if len(vec) == 0 {
		return nil
	}
	return vec[0]
}

func toU64(v any) (uint64, error) {
	switch t := v.(type) {
	case json.Number:
		return strconv.ParseUint(t.String(), 10, 64)
	case string:
		return strconv.ParseUint(t, 10, 64)
	case float64:
		if t < 0 {
			return 0, fmt.Errorf("negative value %v", t)
		}
		return uint64(t), nil
	case nil:
		return 0, fmt.Errorf("missing value")
	default:
		return 0, fmt.Errorf("unexpected %T", v)
	}
}

// toBytes accepts vector<u8> as a number array or a base64 string
func toBytes(v any) ([]byte, error) {
	switch t := v.(type) {
	case []any:
		out := make([]byte, len(t))
		for i, e := range t {
			n, err := toU64(e)
			if err != nil || n > 255 {
				return nil, fmt.Errorf("byte %d: %v", i, e)
			}
			out[i] = byte(n)
		}
		return out, nil
	case string:
		return base64.StdEncoding.DecodeString(t)
	case nil:
		return nil, fmt.Errorf("missing value")
	default:
		return nil, fmt.Errorf("unexpected %T", v)
	}
}

func sharedVersion(owner json.RawMessage) (uint64, error) {
	var o struct {
		Shared *struct {
			InitialSharedVersion json.Number `json:"initial_shared_version"`
		} `json:"Shared"`
	}
	dec := json.NewDecoder(bytes.NewReader(owner))
	dec.UseNumber()
	if err := dec.Decode(&o); err != nil {
		return 0, fmt.Errorf("%w: owner: %v", domain.ErrMalformedState, err)
	}
	if o.Shared == nil {
		return 0, fmt.Errorf("%w: arena is not shared", domain.ErrMalformedState)
	}
	return strconv.ParseUint(o.Shared.InitialSharedVersion.String(), 10, 64)
}
