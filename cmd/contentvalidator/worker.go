package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/db"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/pipeline"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a scan job worker",
	Long: `Claim queued scan jobs from the database and run them through the
pipeline. Multiple worker processes can share one database; each job is
claimed by exactly one of them. Progress updates reach API subscribers
through the database notification channel.`,
	RunE: runWorker,
}

var (
	workerConfigPath  string
	workerConcurrency int
	workerID          string
	workerVerbose     bool
)

func init() {
	workerCmd.Flags().StringVar(&workerConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	workerCmd.Flags().IntVar(&workerConcurrency, "concurrency", 0, "Jobs processed in parallel (default from config or 2)")
	workerCmd.Flags().StringVar(&workerID, "worker-id", "", "Worker identifier recorded on claimed jobs (default hostname-pid)")
	workerCmd.Flags().BoolVarP(&workerVerbose, "verbose", "v", false, "Print detailed debug information")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	cfg, err := loadServiceConfig(workerConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.WorkerConcurrency = workerConcurrency
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	client, err := buildLLM(ctx, cfg)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close() //nolint:errcheck
	}

	// No hub here: progress persists to the database, and its trigger
	// notifies the API processes that hold SSE subscribers.
	runner := pipeline.NewRunner(database, client, nil, workerVerbose)
	w := worker.New(database, runner, worker.Options{
		Concurrency: cfg.WorkerConcurrency,
		StaleAfter:  time.Duration(cfg.StaleJobAfterMin) * time.Minute,
		MaxAttempts: cfg.MaxJobAttempts,
		WorkerID:    workerID,
	})

	return w.RunForever(ctx)
}
