package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/study-agent/internal/auth"
	"github.com/jonathan/study-agent/internal/config"
	"github.com/jonathan/study-agent/internal/llm"
	"github.com/jonathan/study-agent/internal/logging"
	"github.com/jonathan/study-agent/internal/prompts"
	"github.com/jonathan/study-agent/internal/server"
	"github.com/jonathan/study-agent/internal/server/ratelimit"
	"github.com/jonathan/study-agent/internal/study"
	"github.com/jonathan/study-agent/internal/users"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the summarize, quiz, keywords, flashcards and document upload endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := prompts.Check(); err != nil {
		return fmt.Errorf("invalid prompt templates: %w", err)
	}
	if servePort != 0 {
		cfg.Port = servePort
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	log := logging.New(level(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	remote, err := llm.NewClient(ctx, cfg.LLM(), log)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = remote.Close() }()

	local := llm.NewLocalSummarizer(ctx, cfg.LocalModel(), log)

	store, err := users.Open(ctx, cfg.UserStore())
	if err != nil {
		return fmt.Errorf("failed to open user store: %w", err)
	}
	defer func() { _ = store.Close() }()

	hasher, err := auth.NewHasher(cfg.Auth.BcryptCost, cfg.Auth.PasswordPepper)
	if err != nil {
		return fmt.Errorf("failed to create password hasher: %w", err)
	}
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL.D())
	if err != nil {
		return fmt.Errorf("failed to create token service: %w", err)
	}

	srv := server.New(server.Config{
		Addr:          cfg.Addr(),
		MaxUploadSize: cfg.MaxUploadSize,
	}, server.Deps{
		Study:   study.NewService(remote, local, cfg.Gemini.Model, log),
		Users:   users.NewService(store, hasher),
		Tokens:  tokens,
		Limiter: ratelimit.NewLimiter(cfg.Limits()),
		Log:     log,
	})

	log.Info("study agent configured",
		"transport", cfg.Gemini.Transport,
		"model", cfg.Gemini.Model,
		"local_model", local.Available(),
		"user_store", cfg.Users.Store,
		"rate_limit", cfg.RateLimit.Enabled,
	)
	return srv.Start(ctx)
}
