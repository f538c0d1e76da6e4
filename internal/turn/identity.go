package turn

import (
	"strings"

	"arena_client/internal/domain"
)

// Identity decides whether a seat's account belongs to the local player.
// V1 arenas record wallet addresses, V2 arenas record kiosk ids.
type Identity interface {
	ID() string
	Matches(account string) bool
}

// AddressIdentity - local player known by wallet address
type AddressIdentity string

func (a AddressIdentity) ID() string { return string(a) }

func (a AddressIdentity) Matches(account string) bool {
	return sameObjectID(string(a), account)
}

// KioskIdentity - local player known by kiosk id
type KioskIdentity string

func (k KioskIdentity) ID() string { return string(k) }

func (k KioskIdentity) Matches(account string) bool {
	return sameObjectID(string(k), account)
}

// IdentityFor picks the strategy the variant uses
func IdentityFor(v domain.Variant, address, kioskID string) Identity {
	if v == domain.VariantV2 {
		return KioskIdentity(kioskID)
	}
	return AddressIdentity(address)
}

// sameObjectID compares Sui ids ignoring case and leading zero padding
func sameObjectID(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return normalizeID(a) == normalizeID(b)
}

func normalizeID(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimLeft(s, "0")
	return s
}
