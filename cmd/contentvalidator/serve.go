package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes REST endpoints for page discovery,
scan jobs, guideline uploads, exclusion profiles and scan comparisons.
Scan jobs are queued in the database and executed by worker processes.`,
	RunE: runServe,
}

var (
	serveConfigPath string
	servePort       int
	serveVerbose    bool
)

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config or 8080)")
	serveCmd.Flags().BoolVarP(&serveVerbose, "verbose", "v", false, "Print detailed debug information")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadServiceConfig(serveConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	ctx := context.Background()

	store, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up storage: %w", err)
	}
	client, err := buildLLM(ctx, cfg)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close() //nolint:errcheck
	}

	srv, err := server.New(server.Config{
		Port:            cfg.Port,
		DatabaseURL:     cfg.DatabaseURL,
		CORSOrigins:     cfg.CORSOriginsList(),
		MaxUploadSizeMB: cfg.MaxUploadSizeMB,
		MaxCrawlPages:   cfg.MaxCrawlPages,
		MaxCrawlDepth:   cfg.MaxCrawlDepth,
		BrowserTimeout:  browserTimeout(cfg),
		LLM:             client,
		Store:           store,
		Verbose:         serveVerbose,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
