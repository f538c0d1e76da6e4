package game

// PlayerType - elemental type of a player, index is the on-chain value
type PlayerType struct {
	Value       uint8  `json:"value"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

var playerTypes = []PlayerType{
	{Value: 0, Name: "Water", Description: "Water is super effective against Fire; and not effective against Earth", Icon: "assets/water.png"},
	{Value: 1, Name: "Fire", Description: "Fire is super effective against Air; and not effective against Water", Icon: "assets/fire.png"},
	{Value: 2, Name: "Earth", Description: "Earth is super effective against Water; and not effective against Air", Icon: "assets/earth.png"},
	{Value: 3, Name: "Air", Description: "Air is super effective against Earth; and not effective against Fire", Icon: "assets/air.png"},
}

func PlayerTypes() []PlayerType {
	out := make([]PlayerType, len(playerTypes))
	copy(out, playerTypes)
	return out
}

func TypeByID(v uint8) (PlayerType, bool) {
	if int(v) >= len(playerTypes) {
		return PlayerType{}, false
	}
	return playerTypes[v], true
}

// FormatHP converts on-chain HP (8 decimals) into a display value
func FormatHP(hp uint64) float64 {
	v := float64(hp) / 100_000_000
	return float64(int64(v*100+0.5)) / 100
}
