//go:build ignore

// This script generates a session JWT for local API testing, bypassing the
// Keplr login flow.
// Run with: WALLET_ADDRESS=secret1... JWT_SECRET=devsecret go run scripts/generate-jwt.go

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/scrtlabs/trading-middleware/pkg/auth"
)

func main() {
	wallet := os.Getenv("WALLET_ADDRESS")
	if wallet == "" {
		fmt.Fprintln(os.Stderr, "WALLET_ADDRESS is required")
		os.Exit(1)
	}
	if err := auth.ValidateAddress(wallet); err != nil {
		fmt.Fprintf(os.Stderr, "invalid wallet address: %v\n", err)
		os.Exit(1)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "devSecret123456789012345678901234"
	}

	ttl := time.Hour
	if raw := os.Getenv("JWT_TTL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid JWT_TTL: %v\n", err)
			os.Exit(1)
		}
		ttl = parsed
	}

	token, err := auth.NewManager([]byte(secret), ttl).Issue(wallet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Trading Agent Session Token ===")
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("To use this token:")
	fmt.Println("  curl -H \"Authorization: Bearer " + token + "\" http://localhost:8080/api/user/info")
}
