// Command token prints a signed bearer token for a user id, for scripts
// and local testing against the API.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/inamate/sketchboard/internal/auth"
	"github.com/inamate/sketchboard/internal/config"
)

func main() {
	sub := flag.String("sub", "", "user id to issue the token for")
	name := flag.String("name", "", "display name carried in the token")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *sub == "" {
		fmt.Fprintln(os.Stderr, "usage: token -sub <user-id> [-name <display name>] [-ttl 24h]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	token, err := auth.NewService(cfg.JWTSecret, nil).IssueToken(auth.User{ID: *sub, DisplayName: *name}, *ttl)
	if err != nil {
		slog.Error("issue token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
