package main

// mktoken mints an operator token from the configured signing secret.
// There is no account system: operators get their tokens out of band.

import (
	"flag"
	"fmt"
	"os"

	"github.com/classcast/classcast/internal/config"
	"github.com/classcast/classcast/internal/domain"
	"github.com/classcast/classcast/pkg/jwt"
)

func main() {
	var (
		userID = flag.String("user", "", "operator user id (required)")
		name   = flag.String("name", "", "display name (required)")
		role   = flag.String("role", string(domain.RoleAdmin), "token role")
	)
	flag.Parse()

	if *userID == "" || *name == "" {
		fmt.Fprintln(os.Stderr, "usage: mktoken -user <id> -name <display name> [-role admin|student]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	tokens := jwt.NewManager(cfg.Auth.Secret, cfg.Auth.TokenDuration, cfg.Auth.Issuer)
	token, err := tokens.Generate(*userID, *name, *role, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
