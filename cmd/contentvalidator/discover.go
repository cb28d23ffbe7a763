package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/db"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/discovery"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/observability"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover the pages of a site",
	Long: `Find scannable pages for a base URL using its sitemap, navigation
links and, when both come up short, a bounded same-host crawl. Prints one
URL per line; use --json for the full result including excluded pages and
smart exclusion suggestions.`,
	RunE: runDiscover,
}

var (
	discoverConfigPath string
	discoverURL        string
	discoverMaxPages   int
	discoverMaxDepth   int
	discoverNoSitemap  bool
	discoverNoNav      bool
	discoverNoCrawl    bool
	discoverProfileID  int64
	discoverJSON       bool
	discoverVerbose    bool
	discoverDBURL      string
)

func init() {
	discoverCmd.Flags().StringVar(&discoverConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	discoverCmd.Flags().StringVarP(&discoverURL, "url", "u", "", "Base URL of the site to discover (required)")
	discoverCmd.Flags().IntVar(&discoverMaxPages, "max-pages", 0, "Maximum pages to return (default from config)")
	discoverCmd.Flags().IntVar(&discoverMaxDepth, "max-depth", 0, "Maximum crawl depth (default from config)")
	discoverCmd.Flags().BoolVar(&discoverNoSitemap, "no-sitemap", false, "Skip sitemap discovery")
	discoverCmd.Flags().BoolVar(&discoverNoNav, "no-nav", false, "Skip navigation link discovery")
	discoverCmd.Flags().BoolVar(&discoverNoCrawl, "no-crawl", false, "Skip the crawl fallback")
	discoverCmd.Flags().Int64Var(&discoverProfileID, "exclusion-profile", 0, "Exclusion profile ID to apply (requires database access)")
	discoverCmd.Flags().BoolVar(&discoverJSON, "json", false, "Print the full discovery result as JSON")
	discoverCmd.Flags().BoolVarP(&discoverVerbose, "verbose", "v", false, "Print detailed debug information")
	discoverCmd.Flags().StringVar(&discoverDBURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	_ = discoverCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(_ *cobra.Command, _ []string) error {
	cfg, err := loadServiceConfig(discoverConfigPath)
	if err != nil {
		return err
	}
	if discoverDBURL != "" {
		cfg.DatabaseURL = discoverDBURL
	}

	req := types.DiscoverRequest{
		BaseURL:       discoverURL,
		UseSitemap:    !discoverNoSitemap,
		UseNav:        !discoverNoNav,
		CrawlFallback: !discoverNoCrawl,
		MaxPages:      discoverMaxPages,
		MaxDepth:      discoverMaxDepth,
	}
	req.ApplyDefaults(cfg.MaxCrawlPages, cfg.MaxCrawlDepth)
	if err := req.Validate(); err != nil {
		return err
	}

	ctx := context.Background()

	var rules []discovery.Rule
	if discoverProfileID > 0 {
		rules, err = loadExclusionRules(ctx, cfg.DatabaseURL, discoverProfileID)
		if err != nil {
			return err
		}
	}

	d := discovery.NewDiscoverer(cfg.MaxCrawlPages, cfg.MaxCrawlDepth, browserTimeout(cfg), discoverVerbose)
	resp, err := d.Discover(ctx, req.BaseURL, discovery.Options{
		UseSitemap:     req.UseSitemap,
		UseNav:         req.UseNav,
		CrawlFallback:  req.CrawlFallback,
		MaxPages:       req.MaxPages,
		MaxDepth:       req.MaxDepth,
		ExclusionRules: rules,
	})
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	if discoverJSON {
		return printJSON(resp)
	}
	if discoverVerbose {
		observability.NewPrinter(os.Stdout).PrintDiscovery(resp)
	}
	for _, page := range resp.Pages {
		fmt.Println(page.URL)
	}
	fmt.Fprintf(os.Stderr, "Discovered %d pages (%d excluded)\n", len(resp.Pages), len(resp.Excluded))
	return nil
}

// loadExclusionRules fetches a profile's rules for CLI discovery runs.
func loadExclusionRules(ctx context.Context, databaseURL string, profileID int64) ([]discovery.Rule, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when using --exclusion-profile")
	}

	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	rows, err := database.ListExclusionRules(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load exclusion profile %d: %w", profileID, err)
	}
	rules := make([]discovery.Rule, len(rows))
	for i, row := range rows {
		rules[i] = discovery.Rule{Type: row.RuleType, Value: row.RuleValue}
	}
	return rules, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
