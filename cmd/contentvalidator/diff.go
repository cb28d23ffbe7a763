package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/db"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/diff"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/observability"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare two scans of the same site",
	Long: `Diff the issues of a scan against a baseline by fingerprint, reporting
which issues are new and which were resolved. Without --to, the baseline
is the previous completed scan of the same site.`,
	RunE: runDiff,
}

var (
	diffScanID string
	diffToID   string
	diffJSON   bool
	diffDBURL  string
)

func init() {
	diffCmd.Flags().StringVar(&diffScanID, "scan", "", "Scan job ID to compare (required)")
	diffCmd.Flags().StringVar(&diffToID, "to", "", "Scan job ID to compare against (default: the previous scan of the same site)")
	diffCmd.Flags().BoolVar(&diffJSON, "json", false, "Print the full comparison as JSON")
	diffCmd.Flags().StringVar(&diffDBURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	_ = diffCmd.MarkFlagRequired("scan")
	rootCmd.AddCommand(diffCmd)
}

func runDiff(_ *cobra.Command, _ []string) error {
	scanID, err := uuid.Parse(diffScanID)
	if err != nil {
		return fmt.Errorf("invalid --scan ID: %w", err)
	}

	databaseURL := diffDBURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	ctx := context.Background()

	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	engine := diff.New(database)

	var result *types.ScanCompare
	if diffToID != "" {
		toID, err := uuid.Parse(diffToID)
		if err != nil {
			return fmt.Errorf("invalid --to ID: %w", err)
		}
		result, err = engine.Compare(ctx, scanID, toID)
		if err != nil {
			return err
		}
	} else {
		result, err = engine.CompareToLast(ctx, scanID)
		if err != nil {
			return err
		}
	}

	if diffJSON {
		return printJSON(result)
	}
	observability.NewPrinter(os.Stdout).PrintCompare(result)
	return nil
}
