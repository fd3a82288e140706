// Command roombook-token mints bearer tokens for operators and test users.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"roombook/backend/internal/auth"
	"roombook/backend/internal/config"
	"roombook/backend/internal/domain"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil)).With(slog.String("service", "roombook-token"))

	var (
		userID int64
		admin  bool
		ttl    time.Duration
	)
	flags := pflag.NewFlagSet("roombook-token", pflag.ExitOnError)
	flags.Int64VarP(&userID, "user", "u", 0, "user id to put in the token subject")
	flags.BoolVar(&admin, "admin", false, "grant administrator rights")
	flags.DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if ttl <= 0 {
		ttl = cfg.TokenTTL
	}

	tokens, err := auth.NewJWT(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		log.Error("auth setup failed", slog.Any("err", err))
		os.Exit(1)
	}

	token, exp, err := tokens.Issue(domain.Principal{ID: userID, Admin: admin}, ttl)
	if err != nil {
		log.Error("token issue failed", slog.Any("err", err), slog.Int64("user_id", userID))
		os.Exit(2)
	}

	log.Info("token issued", slog.Int64("user_id", userID), slog.Bool("admin", admin), slog.Time("expires_at", exp))
	fmt.Println(token)
}
