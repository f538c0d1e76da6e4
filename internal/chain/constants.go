package chain

import "time"

// Network - Sui network the node belongs to
type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
	NetworkDevnet  Network = "devnet"
	NetworkLocal   Network = "localnet"
)

const (
	FullnodeMainnet = "https://fullnode.mainnet.sui.io:443"
	FullnodeTestnet = "https://fullnode.testnet.sui.io:443"
	FullnodeDevnet  = "https://fullnode.devnet.sui.io:443"
	FullnodeLocal   = "http://127.0.0.1:9000"
)

// FullnodeURL returns the public fullnode for network
func FullnodeURL(n Network) string {
	switch n {
	case NetworkMainnet:
		return FullnodeMainnet
	case NetworkTestnet:
		return FullnodeTestnet
	case NetworkLocal:
		return FullnodeLocal
	default:
		return FullnodeDevnet
	}
}

// ClockObjectID - shared clock passed to commit/reveal
const ClockObjectID = "0x6"

// DefaultGasBudget used by the cleanup transaction
const DefaultGasBudget = 10_000_000

const requestTimeout = 30 * time.Second

// on-chain type names
const (
	arenaV1Suffix = "::arena_pvp::Arena"
	arenaV2Suffix = "::arena::Arena"
)
