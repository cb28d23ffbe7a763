package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/db"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/discovery"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/issues"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/observability"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/pipeline"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a validation scan over a site",
	Long: `Scrape the given pages and validate their copy against the selected
guideline set, printing an issue summary. When no --page flags are given,
pages are discovered from the base URL first.

By default the scan runs in this process; --detach enqueues the job for a
separate worker and prints its ID.`,
	RunE: runScan,
}

var (
	scanConfigPath       string
	scanURL              string
	scanPages            []string
	scanGuidelineSet     int64
	scanGuidelineVersion int
	scanProfileID        int64
	scanNoDeterministic  bool
	scanNoLLM            bool
	scanNoAxe            bool
	scanLighthouse       bool
	scanDetach           bool
	scanJSON             bool
	scanVerbose          bool
	scanDBURL            string
	scanAPIKey           string
)

func init() {
	scanCmd.Flags().StringVar(&scanConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	scanCmd.Flags().StringVarP(&scanURL, "url", "u", "", "Base URL of the site to scan (required)")
	scanCmd.Flags().StringArrayVarP(&scanPages, "page", "p", nil, "Page URL to scan (repeatable; discovered from the base URL when omitted)")
	scanCmd.Flags().Int64Var(&scanGuidelineSet, "guideline-set", 0, "Guideline set ID to validate against")
	scanCmd.Flags().IntVar(&scanGuidelineVersion, "guideline-version", 0, "Guideline version number (default: the set's active version)")
	scanCmd.Flags().Int64Var(&scanProfileID, "exclusion-profile", 0, "Exclusion profile ID to apply")
	scanCmd.Flags().BoolVar(&scanNoDeterministic, "no-deterministic", false, "Skip deterministic text checks")
	scanCmd.Flags().BoolVar(&scanNoLLM, "no-llm", false, "Skip model validation")
	scanCmd.Flags().BoolVar(&scanNoAxe, "no-axe", false, "Skip accessibility audits")
	scanCmd.Flags().BoolVar(&scanLighthouse, "lighthouse", false, "Run Lighthouse audits (requires the lighthouse CLI)")
	scanCmd.Flags().BoolVar(&scanDetach, "detach", false, "Enqueue the job for a worker instead of running it here")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Print full results as JSON")
	scanCmd.Flags().BoolVarP(&scanVerbose, "verbose", "v", false, "Print detailed debug information")
	scanCmd.Flags().StringVar(&scanDBURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	scanCmd.Flags().StringVar(&scanAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	_ = scanCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(scanCmd)
}

func runScan(_ *cobra.Command, _ []string) error {
	cfg, err := loadServiceConfig(scanConfigPath)
	if err != nil {
		return err
	}
	if scanDBURL != "" {
		cfg.DatabaseURL = scanDBURL
	}
	if scanAPIKey != "" {
		cfg.APIKey = scanAPIKey
	}
	if scanNoLLM {
		cfg.APIKey = ""
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}
	if scanGuidelineVersion > 0 && scanGuidelineSet == 0 {
		return fmt.Errorf("--guideline-version requires --guideline-set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	pageURLs := scanPages
	if len(pageURLs) == 0 {
		pageURLs, err = discoverScanPages(ctx, database, cfg.MaxCrawlPages, cfg.MaxCrawlDepth, browserTimeout(cfg))
		if err != nil {
			return err
		}
	}

	req := types.ValidateRequest{
		BaseURL:          scanURL,
		PageURLs:         pageURLs,
		RunDeterministic: !scanNoDeterministic,
		RunLLM:           !scanNoLLM,
		RunAxe:           !scanNoAxe,
		RunLighthouse:    scanLighthouse,
	}
	if scanGuidelineSet > 0 {
		req.GuidelineSetID = &scanGuidelineSet
	}
	if scanGuidelineVersion > 0 {
		req.GuidelineVersion = &scanGuidelineVersion
	}
	if scanProfileID > 0 {
		req.ExclusionProfileID = &scanProfileID
	}
	if err := req.Validate(); err != nil {
		return err
	}

	project, err := database.CreateProject(ctx, req.BaseURL, hostName(req.BaseURL))
	if err != nil {
		return fmt.Errorf("failed to register project: %w", err)
	}
	versionID, err := resolveGuidelineVersion(ctx, database, req.GuidelineSetID, req.GuidelineVersion)
	if err != nil {
		return err
	}

	job, err := database.CreateScanJob(ctx, &db.ScanJobInput{
		ProjectID:          &project.ID,
		GuidelineVersionID: versionID,
		BaseURL:            req.BaseURL,
		Options:            req.Options(),
	})
	if err != nil {
		return fmt.Errorf("failed to create scan job: %w", err)
	}
	if err := database.CreateScanPages(ctx, job.ID, req.PageURLs, types.PageSourceManual); err != nil {
		return fmt.Errorf("failed to create scan pages: %w", err)
	}

	if scanDetach {
		if scanJSON {
			return printJSON(types.EnqueueResponse{JobID: job.ID})
		}
		fmt.Printf("Queued job %s (%d pages)\n", job.ID, len(req.PageURLs))
		return nil
	}

	claimed, err := database.ClaimScanJob(ctx, job.ID, fmt.Sprintf("cli-%d", os.Getpid()))
	if err != nil {
		return err
	}
	if claimed == nil {
		return fmt.Errorf("job %s was claimed by another worker; follow it with the API", job.ID)
	}

	client, err := buildLLM(ctx, cfg)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close() //nolint:errcheck
	}

	fmt.Fprintf(os.Stderr, "Scanning %d pages of %s (job %s)\n", len(req.PageURLs), req.BaseURL, job.ID)

	runner := pipeline.NewRunner(database, client, nil, scanVerbose)
	if err := runner.Run(ctx, claimed); err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	return reportScan(ctx, database, claimed)
}

// discoverScanPages finds the pages to scan when none were given.
func discoverScanPages(ctx context.Context, database *db.DB, maxPages, maxDepth int, timeout time.Duration) ([]string, error) {
	var rules []discovery.Rule
	if scanProfileID > 0 {
		rows, err := database.ListExclusionRules(ctx, scanProfileID)
		if err != nil {
			return nil, fmt.Errorf("failed to load exclusion profile %d: %w", scanProfileID, err)
		}
		rules = make([]discovery.Rule, len(rows))
		for i, row := range rows {
			rules[i] = discovery.Rule{Type: row.RuleType, Value: row.RuleValue}
		}
	}

	d := discovery.NewDiscoverer(maxPages, maxDepth, timeout, scanVerbose)
	opts := discovery.DefaultOptions()
	opts.ExclusionRules = rules
	resp, err := d.Discover(ctx, scanURL, opts)
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}

	urls := make([]string, len(resp.Pages))
	for i, page := range resp.Pages {
		urls[i] = page.URL
	}
	if len(urls) == 0 {
		// Nothing discovered: scan the base URL itself.
		urls = []string{scanURL}
	}
	fmt.Fprintf(os.Stderr, "Discovered %d pages\n", len(urls))
	return urls, nil
}

// reportScan loads the finished job's issues and prints the result.
func reportScan(ctx context.Context, database *db.DB, job *db.ScanJob) error {
	final, err := database.GetScanJob(ctx, job.ID)
	if err != nil {
		return err
	}
	if final == nil {
		return fmt.Errorf("job %s disappeared", job.ID)
	}
	if final.Status == types.JobStatusCancelled {
		fmt.Fprintf(os.Stderr, "Job %s was cancelled\n", job.ID)
		return nil
	}

	all, err := database.ListJobIssues(ctx, job.ID)
	if err != nil {
		return err
	}
	summary := issues.Summarize(all)
	packs := issues.BuildFixPacks(all)

	if scanJSON {
		pages, err := database.ListScanPages(ctx, job.ID)
		if err != nil {
			return err
		}
		return printJSON(assembleResults(final, pages, all, summary, packs))
	}

	p := observability.NewPrinter(os.Stdout)
	p.PrintScanSummary(&summary)
	if scanVerbose {
		sorted := make([]types.Issue, len(all))
		copy(sorted, all)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Severity.Rank() < sorted[j].Severity.Rank()
		})
		p.PrintTopIssues(sorted)
	}
	p.PrintFixPacks(&packs)

	fmt.Printf("Job %s %s: %d issues\n", final.ID, final.Status, summary.Total)
	return nil
}

// assembleResults mirrors the API results payload for --json output.
func assembleResults(job *db.ScanJob, pages []db.ScanPage, all []types.Issue, summary types.IssueSummary, packs types.FixPacks) *types.JobResults {
	byPage := make(map[string][]types.Issue)
	for _, issue := range all {
		byPage[issue.PageURL] = append(byPage[issue.PageURL], issue)
	}

	results := make([]types.PageResult, len(pages))
	for i, page := range pages {
		pageIssues := byPage[page.URL]
		if pageIssues == nil {
			pageIssues = []types.Issue{}
		}
		results[i] = types.PageResult{
			URL:        page.URL,
			Title:      page.Title,
			IssueCount: len(pageIssues),
			Issues:     pageIssues,
		}
	}

	return &types.JobResults{
		JobID:    job.ID,
		Status:   job.Status,
		Summary:  summary,
		Pages:    results,
		FixPacks: &packs,
	}
}

// resolveGuidelineVersion maps an optional set id plus optional version
// number to a concrete guideline_versions row id, the same way the API
// does for enqueued jobs.
func resolveGuidelineVersion(ctx context.Context, database *db.DB, setID *int64, version *int) (*int64, error) {
	if setID == nil {
		return nil, nil
	}

	set, err := database.GetGuidelineSet(ctx, *setID)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, fmt.Errorf("guideline set %d not found", *setID)
	}

	if version != nil {
		v, err := database.GetGuidelineVersionByNumber(ctx, *setID, *version)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, fmt.Errorf("guideline set %d has no version %d", *setID, *version)
		}
		return &v.ID, nil
	}

	v, err := database.ActiveGuidelineVersion(ctx, *setID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return &v.ID, nil
}

func hostName(baseURL string) string {
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		return u.Host
	}
	return baseURL
}
