package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clearledger/regintel/internal/agent"
	"github.com/clearledger/regintel/internal/config"
	"github.com/clearledger/regintel/internal/pipeline"
	"github.com/clearledger/regintel/internal/store"
	anthropicpkg "github.com/clearledger/regintel/pkg/anthropic"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "regintel",
	Short: "Regulatory intelligence pipeline for BSA/AML compliance",
	Long:  "Ingests regulatory documents, classifies their relevance to the compliance program, analyzes control gaps, and routes remediation tasks to owning teams.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "regintel.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func agentOptions() agent.Options {
	return agent.Options{
		RatePerSecond: cfg.Pipeline.RatePerSecond,
		RateBurst:     cfg.Pipeline.RateBurst,
		RetryAttempts: cfg.Pipeline.RetryAttempts,
	}
}

func initClassifier() (agent.Classifier, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic API key is required (REGINTEL_ANTHROPIC_KEY)")
	}
	client := anthropicpkg.NewClient(cfg.Anthropic.Key)
	return agent.NewClassifier(client, cfg.Anthropic.ClassifyModel, agentOptions()), nil
}

func initOrchestrator(st store.Store) (*pipeline.Orchestrator, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic API key is required (REGINTEL_ANTHROPIC_KEY)")
	}
	client := anthropicpkg.NewClient(cfg.Anthropic.Key)
	classifier := agent.NewClassifier(client, cfg.Anthropic.ClassifyModel, agentOptions())
	analyzer := agent.NewAnalyzer(client, cfg.Anthropic.AssessModel, agentOptions())
	return pipeline.NewOrchestrator(st, classifier, analyzer, cfg.Pipeline.Workers), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
