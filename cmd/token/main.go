// Command token mints an access token for local development and scripts.
//
// Usage:
//
//	token --authorities=ADMIN,EDITOR [--user=<uuid>] [--ttl=1h]
//
// The token is signed with the configured AUTH_JWT_SECRET and issuer.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/crudzilla/crudzilla/internal/auth"
	"github.com/crudzilla/crudzilla/internal/config"
)

func main() {
	authorities := flag.String("authorities", "", "comma separated authorities carried by the token")
	user := flag.String("user", "", "user id (random when empty)")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to auth.access_token_ttl)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	userID := uuid.New()
	if *user != "" {
		if userID, err = uuid.Parse(*user); err != nil {
			fmt.Fprintf(os.Stderr, "invalid --user: %v\n", err)
			os.Exit(1)
		}
	}

	lifetime := cfg.Auth.AccessTokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	var granted []string
	for _, a := range strings.Split(*authorities, ",") {
		if a = strings.TrimSpace(a); a != "" {
			granted = append(granted, a)
		}
	}

	token, err := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, lifetime).
		Issue(auth.Principal{UserID: userID, Authorities: granted})
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(token)
}
