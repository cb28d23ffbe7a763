// Package pipeline runs claimed scan jobs through the scraping,
// validating, running_tools and finalizing stages, publishing a progress
// snapshot at every transition. Page-level failures are recorded on the
// page and in the progress stream; only infrastructure errors fail the
// job.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/db"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/issues"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/llm"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/progress"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/rag"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/scraping"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/validators"
)

const (
	// DefaultValidateConcurrency bounds how many pages of one job are
	// validated in parallel.
	DefaultValidateConcurrency = 4
	// DefaultAxeConcurrency bounds parallel browser audits. Each audit
	// holds a Chrome instance, so this stays lower than validation.
	DefaultAxeConcurrency = 2
)

// Runner executes scan jobs. One Runner is shared by all worker
// goroutines; per-job state lives inside each Run call.
type Runner struct {
	DB  *db.DB
	LLM llm.Client // nil disables model validation
	Hub *progress.Hub

	Scraper    *scraping.Scraper
	Axe        *validators.AxeAuditor
	Lighthouse *validators.LighthouseRunner

	ValidateConcurrency int
	AxeConcurrency      int
	Verbose             bool
}

// NewRunner wires a runner with default tool settings and bounds.
func NewRunner(database *db.DB, client llm.Client, hub *progress.Hub, verbose bool) *Runner {
	return &Runner{
		DB:                  database,
		LLM:                 client,
		Hub:                 hub,
		Scraper:             scraping.NewScraper(0, verbose),
		Axe:                 validators.NewAxeAuditor(0, verbose),
		Lighthouse:          validators.NewLighthouseRunner(0, verbose),
		ValidateConcurrency: DefaultValidateConcurrency,
		AxeConcurrency:      DefaultAxeConcurrency,
		Verbose:             verbose,
	}
}

// pageWork carries one page through the stages after scraping.
type pageWork struct {
	pageID int64
	url    string
	title  string
	ok     bool
	chunks []scraping.Chunk
}

// Run executes one claimed job to a terminal state. The job must already
// be running. On error the job row is marked failed with the stage in
// the message, except when ctx itself was cancelled: then the row is
// left running so stale-job recovery requeues it on another worker.
func (r *Runner) Run(ctx context.Context, job *db.ScanJob) error {
	t := newTracker(r.DB, r.Hub, job)

	err := r.run(ctx, job, t)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}

	message := fmt.Sprintf("%s: %v", t.currentStage(), err)
	if markErr := r.DB.MarkJobFailed(ctx, job.ID, message); markErr != nil {
		log.Printf("[PIPELINE] failed to mark job %s failed: %v", job.ID, markErr)
	}
	t.terminal(types.JobStatusFailed, message)
	return err
}

func (r *Runner) run(ctx context.Context, job *db.ScanJob, t *tracker) error {
	opts := resolveOptions(job)

	t.setStage(types.StageScraping)
	if err := r.DB.SetJobStage(ctx, job.ID, types.StageScraping); err != nil {
		return err
	}

	urls := opts.PageURLs
	if len(urls) == 0 {
		urls = []string{job.BaseURL}
	}
	if err := r.DB.CreateScanPages(ctx, job.ID, urls, types.PageSourceManual); err != nil {
		return err
	}
	pages, err := r.DB.ListScanPages(ctx, job.ID)
	if err != nil {
		return err
	}
	t.setTotalPages(len(pages))

	guidelineRules, ruleIDMap, err := r.loadGuidelines(ctx, job)
	if err != nil {
		return err
	}
	extraExclude := r.loadExclusionSelectors(ctx, opts)

	t.publish(ctx, "", "Starting scraping...")
	work, err := r.scrapePages(ctx, t, pages, extraExclude)
	if err != nil {
		return err
	}

	if done, err := r.checkpoint(ctx, job.ID, t); done || err != nil {
		return err
	}

	t.setStage(types.StageValidating)
	if err := r.DB.SetJobStage(ctx, job.ID, types.StageValidating); err != nil {
		return err
	}
	t.publish(ctx, "", "Starting validation...")
	if err := r.validatePages(ctx, t, job, opts, work, guidelineRules, ruleIDMap); err != nil {
		return err
	}

	if done, err := r.checkpoint(ctx, job.ID, t); done || err != nil {
		return err
	}

	if opts.RunAxe || opts.RunLighthouse {
		t.setStage(types.StageRunningTools)
		if err := r.DB.SetJobStage(ctx, job.ID, types.StageRunningTools); err != nil {
			return err
		}
		t.publish(ctx, "", "Running page audits...")
		if err := r.runTools(ctx, t, job, opts, work, ruleIDMap); err != nil {
			return err
		}
		if done, err := r.checkpoint(ctx, job.ID, t); done || err != nil {
			return err
		}
	}

	t.setStage(types.StageFinalizing)
	if err := r.DB.SetJobStage(ctx, job.ID, types.StageFinalizing); err != nil {
		return err
	}
	t.publish(ctx, "", "Completed")

	if err := r.DB.MarkJobCompleted(ctx, job.ID); err != nil {
		return err
	}
	t.terminal(types.JobStatusCompleted, "Completed")

	scraped, validated := t.counts()
	log.Printf("[PIPELINE] job %s completed: %d scraped, %d validated", job.ID, scraped, validated)
	return nil
}

// resolveOptions returns the job's effective scan options. Jobs enqueued
// without options run every validator except lighthouse against the base
// URL alone.
func resolveOptions(job *db.ScanJob) types.ScanOptions {
	if job.Options != nil {
		return *job.Options
	}
	return types.ScanOptions{
		BaseURL:          job.BaseURL,
		RunDeterministic: true,
		RunLLM:           true,
		RunAxe:           true,
	}
}

// checkpoint observes cancellation at a stage boundary. Reports
// done=true after recording the cancelled state. A cancelled ctx
// propagates as a plain error instead, so worker shutdown is never
// mistaken for a user cancel.
func (r *Runner) checkpoint(ctx context.Context, jobID uuid.UUID, t *tracker) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	requested, err := r.DB.JobCancelRequested(ctx, jobID)
	if err != nil {
		return false, err
	}
	if !requested {
		return false, nil
	}
	if err := r.DB.MarkJobCancelled(ctx, jobID, "cancelled by user"); err != nil {
		return false, err
	}
	t.terminal(types.JobStatusCancelled, "cancelled by user")
	log.Printf("[PIPELINE] job %s cancelled", jobID)
	return true, nil
}

func (r *Runner) loadGuidelines(ctx context.Context, job *db.ScanJob) ([]db.GuidelineRule, map[string]int64, error) {
	if job.GuidelineVersionID == nil {
		return nil, nil, nil
	}
	rules, err := r.DB.ListGuidelineRules(ctx, *job.GuidelineVersionID)
	if err != nil {
		return nil, nil, err
	}
	ruleIDMap, err := r.DB.RuleIDMap(ctx, *job.GuidelineVersionID)
	if err != nil {
		return nil, nil, err
	}
	return rules, ruleIDMap, nil
}

// loadExclusionSelectors collects the css_selector_exclude rules of the
// scan's exclusion profile. Lookup failures degrade to no extra
// selectors; URL-level rules were already applied at discovery time.
func (r *Runner) loadExclusionSelectors(ctx context.Context, opts types.ScanOptions) []string {
	if opts.ExclusionProfileID == nil {
		return nil
	}
	rules, err := r.DB.ListExclusionRules(ctx, *opts.ExclusionProfileID)
	if err != nil {
		r.logf("failed to load exclusion profile %d: %v", *opts.ExclusionProfileID, err)
		return nil
	}
	var selectors []string
	for _, rule := range rules {
		if rule.RuleType == types.ExclusionCSSSelector && rule.RuleValue != "" {
			selectors = append(selectors, rule.RuleValue)
		}
	}
	return selectors
}

// scrapePages fetches every page sequentially. A page that fails to
// scrape is recorded with scrape_status failed and skipped downstream;
// the scraped counter advances either way so progress reaches
// total_pages. The returned error is reserved for storage failures.
func (r *Runner) scrapePages(ctx context.Context, t *tracker, pages []db.ScanPage, extraExclude []string) ([]pageWork, error) {
	work := make([]pageWork, 0, len(pages))
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t.publish(ctx, page.URL, fmt.Sprintf("Scraping %s", page.URL))

		w, err := r.scrapeOne(ctx, page, extraExclude)
		if err != nil {
			return nil, err
		}
		work = append(work, w)
		t.pageScraped()
		if !w.ok {
			t.publish(ctx, page.URL, fmt.Sprintf("Scrape failed for %s", page.URL))
		}
	}
	return work, nil
}

func (r *Runner) scrapeOne(ctx context.Context, page db.ScanPage, extraExclude []string) (pageWork, error) {
	w := pageWork{url: page.URL}
	now := time.Now().UTC()

	content, scrapeErr := r.Scraper.ScrapePage(ctx, page.URL, extraExclude)

	row := db.ScanPage{
		JobID:     page.JobID,
		URL:       page.URL,
		Source:    page.Source,
		ScrapedAt: &now,
	}
	if scrapeErr != nil {
		r.logf("scrape failed for %s: %v", page.URL, scrapeErr)
		msg := scrapeErr.Error()
		row.Status = types.ScrapeFailed
		row.Error = &msg
	} else {
		row.Status = types.ScrapeDone
		row.Title = content.Title
		row.ContentHash = content.ContentHash
		row.WordCount = content.WordCount
	}

	pageID, err := r.DB.UpsertScanPage(ctx, &row)
	if err != nil {
		return w, err
	}
	w.pageID = pageID
	if scrapeErr != nil {
		return w, nil
	}

	chunks := make([]db.PageChunk, len(content.Chunks))
	for i, c := range content.Chunks {
		chunks[i] = db.PageChunk{
			ChunkIndex:    i,
			HeadingPath:   c.HeadingPath,
			Content:       c.Content,
			TokenEstimate: c.TokenEstimate,
		}
	}
	if err := r.DB.ReplacePageChunks(ctx, pageID, chunks); err != nil {
		return w, err
	}

	w.ok = true
	w.title = content.Title
	w.chunks = content.Chunks
	return w, nil
}

// validatePages runs the deterministic and model validators over every
// successfully scraped page, a bounded number of pages at a time. Model
// failures for one page degrade that page and never fail the job; pages
// that failed scraping are skipped but still advance the counter.
func (r *Runner) validatePages(ctx context.Context, t *tracker, job *db.ScanJob, opts types.ScanOptions, work []pageWork, guidelineRules []db.GuidelineRule, ruleIDMap map[string]int64) error {
	var det *validators.Deterministic
	if opts.RunDeterministic {
		det = validators.NewDeterministic(validators.BannedPhrasesFromRules(guidelineRules)...)
	}
	var llmv *validators.LLMValidator
	if opts.RunLLM && r.LLM != nil {
		var versionID int64
		if job.GuidelineVersionID != nil {
			versionID = *job.GuidelineVersionID
		}
		llmv = validators.NewLLMValidator(r.LLM, rag.NewRetriever(r.DB, r.LLM), versionID)
		llmv.Verbose = r.Verbose
	}
	if det == nil && llmv == nil {
		for range work {
			t.pageValidated()
		}
		return nil
	}

	limit := r.ValidateConcurrency
	if limit <= 0 {
		limit = DefaultValidateConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var dropped atomic.Int64
	for _, w := range work {
		w := w
		g.Go(func() error {
			if !w.ok {
				t.pageValidated()
				return nil
			}
			return r.validateOnePage(gctx, t, job.ID, w, det, llmv, ruleIDMap, &dropped)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if n := dropped.Load(); n > 0 {
		r.logf("job %s: dropped %d malformed findings", job.ID, n)
	}
	return nil
}

func (r *Runner) validateOnePage(ctx context.Context, t *tracker, jobID uuid.UUID, w pageWork, det *validators.Deterministic, llmv *validators.LLMValidator, ruleIDMap map[string]int64, dropped *atomic.Int64) error {
	t.publish(ctx, w.url, fmt.Sprintf("Validating %s", w.url))

	var raw []types.RawFinding
	if det != nil {
		for _, chunk := range w.chunks {
			raw = append(raw, det.Validate(chunk.Content, chunk.HeadingPath)...)
		}
	}
	if llmv != nil {
		findings, err := llmv.ValidateChunks(ctx, w.url, w.chunks)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			r.logf("model validation failed for %s: %v", w.url, err)
			t.publish(ctx, w.url, fmt.Sprintf("Validation degraded for %s", w.url))
		}
		raw = append(raw, findings...)
	}

	normalized := r.normalizeFindings(raw, w.url, w.title, dropped)
	if len(normalized) > 0 {
		if err := r.DB.InsertIssues(ctx, jobID, normalized, ruleIDMap); err != nil {
			return err
		}
	}
	t.pageValidated()
	return nil
}

// runTools executes the browser audits over the scraped pages. Axe runs
// under its own, smaller bound; lighthouse runs one page at a time since
// each audit spawns a full Chrome process. Audit failures are page
// failures, never job failures.
func (r *Runner) runTools(ctx context.Context, t *tracker, job *db.ScanJob, opts types.ScanOptions, work []pageWork, ruleIDMap map[string]int64) error {
	var okPages []pageWork
	for _, w := range work {
		if w.ok {
			okPages = append(okPages, w)
		}
	}
	if len(okPages) == 0 {
		return nil
	}

	var dropped atomic.Int64

	if opts.RunAxe && r.Axe != nil {
		limit := r.AxeConcurrency
		if limit <= 0 {
			limit = DefaultAxeConcurrency
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(limit)

		for _, w := range okPages {
			w := w
			g.Go(func() error {
				t.publish(gctx, w.url, fmt.Sprintf("Auditing %s", w.url))
				findings, err := r.Axe.Audit(gctx, w.url)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					r.logf("axe audit failed for %s: %v", w.url, err)
					t.publish(gctx, w.url, fmt.Sprintf("Audit failed for %s", w.url))
					return nil
				}
				normalized := r.normalizeFindings(findings, w.url, w.title, &dropped)
				if len(normalized) == 0 {
					return nil
				}
				return r.DB.InsertIssues(gctx, job.ID, normalized, ruleIDMap)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	if opts.RunLighthouse && r.Lighthouse != nil {
		if !r.Lighthouse.Available() {
			r.logf("lighthouse is not installed, skipping audits")
			t.publish(ctx, "", "Lighthouse is not available, skipping")
		} else {
			for _, w := range okPages {
				if err := ctx.Err(); err != nil {
					return err
				}
				t.publish(ctx, w.url, fmt.Sprintf("Running Lighthouse on %s", w.url))
				findings, err := r.Lighthouse.Audit(ctx, w.url)
				if err != nil {
					r.logf("lighthouse audit failed for %s: %v", w.url, err)
					continue
				}
				normalized := r.normalizeFindings(findings, w.url, w.title, &dropped)
				if len(normalized) == 0 {
					continue
				}
				if err := r.DB.InsertIssues(ctx, job.ID, normalized, ruleIDMap); err != nil {
					return err
				}
			}
		}
	}

	if n := dropped.Load(); n > 0 {
		r.logf("job %s: dropped %d malformed audit findings", job.ID, n)
	}
	return nil
}

// normalizeFindings converts raw findings into issues, counting and
// dropping the malformed ones.
func (r *Runner) normalizeFindings(raw []types.RawFinding, pageURL, pageTitle string, dropped *atomic.Int64) []types.Issue {
	normalized := make([]types.Issue, 0, len(raw))
	for _, finding := range raw {
		issue, err := issues.Normalize(finding, finding.Source, pageURL, pageTitle)
		if err != nil {
			dropped.Add(1)
			r.logf("dropped malformed finding on %s: %v", pageURL, err)
			continue
		}
		normalized = append(normalized, issue)
	}
	return normalized
}

func (r *Runner) logf(format string, args ...any) {
	if r.Verbose {
		log.Printf("[PIPELINE] "+format, args...)
	}
}
