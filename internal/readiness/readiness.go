// Package readiness implements the readiness assessor of spec §4.6: a
// pure decision over domain metrics, DSPL coverage, and the prior
// determination, deciding whether a domain is worth attempting at all.
package readiness

import (
	"fmt"

	"github.com/ternarybob/hubscout/internal/models"
)

// Status is the readiness verdict of spec §4.6.
type Status string

const (
	StatusReady            Status = "ready"
	StatusDataLimited       Status = "data-limited"
	StatusInsufficientData  Status = "insufficient-data"
)

// Metrics is the input evidence the assessor reasons over.
type Metrics struct {
	VerifiedPatterns  int
	HistoricalHubs    int
	FetchHistoryCount int
	CandidateCount    int
	ProbesTimedOut    bool
}

// Readiness is the assessor's verdict.
type Readiness struct {
	Status          Status
	Reason          string
	Recommendations []string
	DSPLSummary     string
}

// Assess applies the rules of spec §4.6. dsplKnown reports whether host
// has a specific DSPL entry (vs. the generic fallback); latest is the
// domain's most recent determination, if any.
func Assess(domain string, dsplKnown bool, metrics Metrics, latest *models.DomainDetermination) Readiness {
	summary := dsplSummary(dsplKnown)

	if metrics.ProbesTimedOut {
		return Readiness{
			Status: StatusDataLimited,
			Reason: "readiness probes timed out",
			Recommendations: []string{
				fmt.Sprintf("Retry readiness assessment for %s once upstream latency recovers", domain),
			},
			DSPLSummary: summary,
		}
	}

	hasVerifiedPatterns := metrics.VerifiedPatterns > 0
	hasHistoricalCoverage := metrics.HistoricalHubs > 0
	hasFetchHistory := metrics.FetchHistoryCount > 0
	hasCandidates := metrics.CandidateCount > 0

	if !hasVerifiedPatterns && !hasHistoricalCoverage && !hasFetchHistory && !hasCandidates {
		return Readiness{
			Status: StatusInsufficientData,
			Reason: "no verified patterns, historical coverage, fetch history, or candidates",
			Recommendations: []string{
				fmt.Sprintf("Run crawl-place-hubs for %s", domain),
			},
			DSPLSummary: summary,
		}
	}

	if !hasVerifiedPatterns && !hasHistoricalCoverage {
		return Readiness{
			Status: StatusDataLimited,
			Reason: "no verified patterns or historical coverage, but some fetch/candidate history exists",
			Recommendations: []string{
				fmt.Sprintf("Expand DSPL coverage for %s before relying on generic fallback templates", domain),
			},
			DSPLSummary: summary,
		}
	}

	return Readiness{
		Status:      StatusReady,
		Reason:      "sufficient pattern and coverage evidence",
		DSPLSummary: summary,
	}
}

func dsplSummary(known bool) string {
	if known {
		return "host has a specific DSPL entry"
	}
	return "host falls back to generic templates (no domain-specific pattern library entry)"
}
