//go:build ignore

// generate-operator-jwt.go - issues an operator token for the liquidity endpoints
//
// Usage:
//   go run scripts/generate-operator-jwt.go -config config.yaml -subject ops-1 -ttl 24h
//
// The signing secret and issuer are read from the auth section of the config
// (or AUTH_OPERATOR_JWT_SECRET / AUTH_ISSUER).

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chainsafe/crosschain-bridge/pkg/auth"
	"github.com/chainsafe/crosschain-bridge/pkg/config"
)

func main() {
	cfgPath := flag.String("config", "", "Path to configuration file")
	subject := flag.String("subject", "operator", "Token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	v := auth.NewJWTValidator(cfg.Auth.OperatorJWTSecret, cfg.Auth.Issuer)
	if !v.IsConfigured() {
		fmt.Fprintln(os.Stderr, "auth.operator_jwt_secret is not set")
		os.Exit(1)
	}

	token, err := v.IssueToken(*subject, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
