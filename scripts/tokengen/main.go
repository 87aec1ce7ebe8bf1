// Command tokengen signs a short-lived access token with the configured
// secret, for local smoke checks and manual API exploration.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/gatherly/gatherly-api/internal/service"
	"github.com/gatherly/gatherly-api/pkg/config"
)

func main() {
	var (
		userID   string
		fullName string
	)

	flag.StringVar(&userID, "user", "dev-user", "user id claim")
	flag.StringVar(&fullName, "name", "Dev User", "full name claim")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	authSvc := service.NewAuthService(nil, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "gatherly-api",
	})

	token, err := authSvc.IssueToken(userID, fullName)
	if err != nil {
		log.Fatalf("failed to issue token: %v", err)
	}
	fmt.Println(token)
}
