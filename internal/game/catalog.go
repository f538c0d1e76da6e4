package game

import (
	"fmt"

	"arena_client/internal/domain"
)

// Move - one attack a player can choose
type Move struct {
	ID          uint8  `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Category    string `json:"category,omitempty"`
	Icon        string `json:"icon"`
	SoundEffect string `json:"sound_effect,omitempty"`
	KeyStroke   string `json:"key_stroke,omitempty"`
}

// SlotKeys bind the moves a player holds by position: the first held move is KeyQ
var SlotKeys = []string{"KeyQ", "KeyW", "KeyE", "KeyR"}

// Catalog - ordered registry of moves for one variant
type Catalog struct {
	variant string
	moves   []Move
	// keys follow the position among the offered moves instead of the move
	slotted bool
}

func newCatalog(variant string, moves []Move) *Catalog {
	return &Catalog{variant: variant, moves: moves}
}

func newSlottedCatalog(variant string, moves []Move) *Catalog {
	return &Catalog{variant: variant, moves: moves, slotted: true}
}

// CatalogFor returns the move registry for the given variant
func CatalogFor(v domain.Variant) (*Catalog, error) {
	switch v {
	case domain.VariantV1:
		return catalogV1, nil
	case domain.VariantV2:
		return catalogV2, nil
	default:
		return nil, fmt.Errorf("unknown variant: %s", v)
	}
}

// PvB returns the player-vs-bot catalog; it has no commit-reveal and is only listed
func PvB() *Catalog {
	return catalogPvB
}

func (c *Catalog) Variant() string {
	return c.variant
}

// Moves returns a copy of all moves
func (c *Catalog) Moves() []Move {
	out := make([]Move, len(c.moves))
	copy(out, c.moves)
	return out
}

func (c *Catalog) ByID(id uint8) (Move, bool) {
	for _, m := range c.moves {
		if m.ID == id {
			return m, true
		}
	}
	return Move{}, false
}

// Resolve picks a move by id, or by key code among offered when id is nil.
// An empty offered list stands for the whole catalog.
func (c *Catalog) Resolve(offered []Move, id *uint8, key string) (Move, error) {
	if id != nil {
		if m, ok := c.ByID(*id); ok {
			return m, nil
		}
		return Move{}, fmt.Errorf("%w: unknown move %d", domain.ErrInvalidMove, *id)
	}
	if key == "" {
		return Move{}, fmt.Errorf("%w: move id or key required", domain.ErrInvalidMove)
	}
	if len(offered) == 0 {
		offered = c.Allowed(nil)
	}
	for _, m := range offered {
		if m.KeyStroke == key {
			return m, nil
		}
	}
	return Move{}, fmt.Errorf("%w: no move bound to %s", domain.ErrInvalidMove, key)
}

// Allowed restricts the catalog to the given move ids. An empty list means every move.
// On a slotted catalog the result carries the positional key bindings.
func (c *Catalog) Allowed(ids []uint8) []Move {
	var out []Move
	if len(ids) == 0 {
		out = c.Moves()
	} else {
		out = make([]Move, 0, len(ids))
		for _, id := range ids {
			if m, ok := c.ByID(id); ok {
				out = append(out, m)
			}
		}
	}
	if c.slotted {
		for i := range out {
			out[i].KeyStroke = ""
			if i < len(SlotKeys) {
				out[i].KeyStroke = SlotKeys[i]
			}
		}
	}
	return out
}

// Validate checks that id is a known move and legal for a player holding available
func (c *Catalog) Validate(id uint8, available []uint8) error {
	if _, ok := c.ByID(id); !ok {
		return fmt.Errorf("%w: unknown move %d", domain.ErrInvalidMove, id)
	}
	if len(available) == 0 {
		return nil
	}
	for _, a := range available {
		if a == id {
			return nil
		}
	}
	return fmt.Errorf("%w: move %d not available", domain.ErrInvalidMove, id)
}

// v1 arenas and the bot game share the three elements
var elements = []Move{
	{ID: 0, Name: "Fire", Icon: "assets/fire.png", KeyStroke: "KeyQ"},
	{ID: 1, Name: "Air", Icon: "assets/air.png", KeyStroke: "KeyW"},
	{ID: 2, Name: "Water", Icon: "assets/water.png", KeyStroke: "KeyE"},
}

var catalogPvB = newCatalog("pvb", elements)

var catalogV1 = newCatalog(string(domain.VariantV1), elements)

// V2 moves keep their on-chain order: the index is the move id
var catalogV2 = newSlottedCatalog(string(domain.VariantV2), []Move{
	{ID: 0, Name: "Hydro Pump", Type: "Water", Category: "Physical", Icon: "assets/hydro-pump.png", SoundEffect: "assets/effect.wav"},
	{ID: 1, Name: "Aqua Tail", Type: "Water", Category: "Special", Icon: "assets/aqua-tail.png", SoundEffect: "assets/effect.wav"},
	{ID: 2, Name: "Inferno", Type: "Fire", Category: "Physical", Icon: "assets/inferno.png", SoundEffect: "assets/effect.wav"},
	{ID: 3, Name: "Flamethrower", Type: "Fire", Category: "Special", Icon: "assets/flamethrower.png", SoundEffect: "assets/effect.wav"},
	{ID: 4, Name: "Quake Strike", Type: "Earth", Category: "Physical", Icon: "assets/quake-strike.png", SoundEffect: "assets/effect.wav"},
	{ID: 5, Name: "Earthquake", Type: "Earth", Category: "Special", Icon: "assets/earthquake.png", SoundEffect: "assets/effect.wav"},
	{ID: 6, Name: "Gust", Type: "Air", Category: "Physical", Icon: "assets/gust.png", SoundEffect: "assets/effect.wav"},
	{ID: 7, Name: "Air Slash", Type: "Air", Category: "Special", Icon: "assets/air-slash.png", SoundEffect: "assets/effect.wav"},
})
