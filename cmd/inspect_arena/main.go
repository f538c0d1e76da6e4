package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"arena_client/internal/chain"
	"arena_client/internal/domain"
	"arena_client/internal/game"
	"arena_client/internal/turn"

	"github.com/joho/godotenv"
)

// inspect_arena prints the normalized state of one arena and what the given
// identity would be asked to do next. Reads only, never submits.
func main() {
	_ = godotenv.Load()

	arenaID := flag.String("arena", os.Getenv("ARENA_ID"), "arena object id")
	variantFlag := flag.String("variant", envOr("GAME_VARIANT", "v2"), "v1 or v2")
	identityFlag := flag.String("identity", "", "account address (v1) or kiosk id (v2)")
	rpcURL := flag.String("rpc", envOr("RPC_URL", chain.FullnodeURL(chain.Network(envOr("SUI_NETWORK", "devnet")))), "fullnode JSON-RPC url")
	flag.Parse()

	if *arenaID == "" {
		log.Fatal("arena id required (-arena or ARENA_ID)")
	}
	variant, ok := domain.ParseVariant(*variantFlag)
	if !ok {
		log.Fatalf("unknown variant %q", *variantFlag)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := chain.NewClient(*rpcURL, os.Getenv("PACKAGE_ID"))
	snap, err := client.ReadArena(ctx, *arenaID, variant)
	if err != nil {
		log.Fatalf("read arena: %v", err)
	}

	out, _ := json.MarshalIndent(snap, "", "  ")
	fmt.Println(string(out))

	for i, p := range []*domain.PlayerView{snap.PlayerOne, snap.PlayerTwo} {
		if p == nil {
			fmt.Printf("seat %d: empty\n", i+1)
			continue
		}
		fmt.Printf("seat %d: %s hp %.2f / %.2f committed=%v round=%d\n",
			i+1, p.Account, game.FormatHP(p.HP), game.FormatHP(p.InitialHP), p.HasPendingAttack(), p.Round())
	}

	id := *identityFlag
	if id == "" {
		if variant == domain.VariantV2 {
			id = os.Getenv("KIOSK_ID")
		} else {
			id = os.Getenv("ACCOUNT_ADDRESS")
		}
	}
	if id == "" {
		return
	}

	action, err := turn.Evaluate(snap, turn.IdentityFor(variant, id, id), nil)
	if err != nil {
		fmt.Printf("next action for %s: error: %v\n", id, err)
		return
	}
	fmt.Printf("next action for %s: %s\n", id, action)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
