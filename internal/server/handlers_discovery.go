package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/db"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/discovery"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

// handleDiscover finds a site's pages from its sitemap, navigation and a
// crawl, without scraping content. The response is the page inventory the
// client selects from before calling /api/validate.
func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	// Unset source toggles default to on
	req := types.DiscoverRequest{
		UseSitemap:    true,
		UseNav:        true,
		CrawlFallback: true,
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	ctx := r.Context()

	var rules []discovery.Rule
	if req.ExclusionProfileID != nil {
		dbRules, err := s.db.ListExclusionRules(ctx, *req.ExclusionProfileID)
		if err != nil {
			s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
			return
		}
		rules = toDiscoveryRules(dbRules)
	}

	resp, err := s.discoverer.Discover(ctx, req.BaseURL, discovery.Options{
		UseSitemap:     req.UseSitemap,
		UseNav:         req.UseNav,
		CrawlFallback:  req.CrawlFallback,
		MaxPages:       req.MaxPages,
		MaxDepth:       req.MaxDepth,
		ExclusionRules: rules,
	})
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	log.Printf("Discovered %d pages for %s (%d excluded)", len(resp.Pages), req.BaseURL, len(resp.Excluded))

	s.jsonResponse(w, http.StatusOK, resp)
}

func toDiscoveryRules(rows []db.ExclusionRule) []discovery.Rule {
	rules := make([]discovery.Rule, 0, len(rows))
	for _, row := range rows {
		rules = append(rules, discovery.Rule{Type: row.RuleType, Value: row.RuleValue})
	}
	return rules
}
