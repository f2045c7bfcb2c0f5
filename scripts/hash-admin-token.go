// Command hash-admin-token generates an admin bearer token and the
// Argon2id hash to put in ADMIN_TOKEN_HASH. Pass -token to hash an
// existing token instead of generating one.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/cliplink/cliplink/internal/auth"
)

type output struct {
	Token string `json:"token"`
	Hash  string `json:"hash"`
}

func main() {
	var (
		token = flag.String("token", "", "token to hash; generated when empty")
	)
	flag.Parse()

	value := *token
	if value == "" {
		generated, err := auth.GenerateToken()
		if err != nil {
			fmt.Fprintf(os.Stderr, "generate token: %v\n", err)
			os.Exit(1)
		}
		value = generated
	}

	hash, err := auth.HashToken(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash token: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output{Token: value, Hash: hash}); err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
		os.Exit(1)
	}
}
