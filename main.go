package main

import (
	"context"
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/aguxez/keecal/agent"
	"github.com/aguxez/keecal/config"
	"github.com/aguxez/keecal/kvstore"
	"github.com/aguxez/keecal/ledger"
	"github.com/aguxez/keecal/logger"
	"github.com/aguxez/keecal/store"
	"github.com/aguxez/keecal/tracker"
)

const serviceName = "keecal"

var (
	verbose bool
	rootCmd = &cobra.Command{
		Use:           "keecal",
		Short:         "Photo based calorie tracker with an AI trainer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// app holds everything a command needs. Close releases the database.
type app struct {
	cfg     *config.Config
	db      *kvstore.SQLite
	tracker *tracker.Tracker
	log     zerolog.Logger
}

// openApp loads configuration and state. The classifier is only built when
// withLLM is set, so read-only commands work without an API key.
func openApp(ctx context.Context, log zerolog.Logger, withLLM bool) (*app, error) {
	cfg, err := config.New(log)
	if err != nil {
		return nil, err
	}

	db, err := kvstore.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	l, err := ledger.Load(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	profiles, err := store.LoadProfileStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	trainers, err := store.LoadTrainerStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	var classifier agent.Classifier
	if withLLM {
		llm, err := openai.New(
			openai.WithBaseURL(cfg.LLMBaseURL),
			openai.WithToken(cfg.LLMAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("creating LLM client: %w", err)
		}
		classifier = agent.NewLLMClassifier(llm)
	}

	gw := agent.NewGateway(classifier, log)
	return &app{
		cfg:     cfg,
		db:      db,
		tracker: tracker.New(gw, l, profiles, trainers, cfg.Location(), log),
		log:     log,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// cliLogger is used by every command except serve.
func cliLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return logger.Console(serviceName, level)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
