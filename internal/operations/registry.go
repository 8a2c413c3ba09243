// Package operations implements the operations registry of spec §4.8: a
// static table of named crawl operations, each a thin wrapper around one
// domainproc.Processor.Process invocation with fixed per-operation
// defaults.
package operations

import (
	"context"
	"time"

	"github.com/ternarybob/hubscout/internal/apperrors"
	"github.com/ternarybob/hubscout/internal/common"
	"github.com/ternarybob/hubscout/internal/domainproc"
	"github.com/ternarybob/hubscout/internal/models"
)

// OperationInfo describes one registered operation, returned by
// ListOperations and embedded in the facade's getAvailability response.
type OperationInfo struct {
	Name           string         `json:"name"`
	Summary        string         `json:"summary"`
	DefaultOptions map[string]any `json:"defaultOptions"`
}

// Result is the outcome of one RunOperation call, per spec §4.8.
type Result struct {
	Status    string            `json:"status"` // ok | error
	ElapsedMs int64             `json:"elapsedMs"`
	Stats     *domainproc.Summary `json:"stats,omitempty"`
	Error     string            `json:"error,omitempty"`
}

type operation struct {
	name     string
	summary  string
	defaults func() domainproc.Options
}

// Registry is the static operations table, bound to one domain processor.
type Registry struct {
	processor *domainproc.Processor
	ops       map[string]operation
	order     []string
}

// NewRegistry builds the registry with the fixed operation set this engine
// ships, each operation a named default-options wrapper over processor.
func NewRegistry(processor *domainproc.Processor) *Registry {
	r := &Registry{processor: processor, ops: make(map[string]operation)}

	r.register("crawlPlaceHubs", "Discover and validate hubs across country, region, and city places", func() domainproc.Options {
		return domainproc.Options{
			Kinds:            []models.PlaceKind{models.PlaceKindCountry, models.PlaceKindRegion, models.PlaceKindCity},
			Limit:            50,
			PatternsPerPlace: 3,
			Apply:            true,
			MaxAge:           7 * 24 * time.Hour,
			Refresh404:       180 * 24 * time.Hour,
			Retry4xx:         7 * 24 * time.Hour,
		}
	})

	r.register("ensureCountryHubs", "Ensure validated hubs exist for every known country", func() domainproc.Options {
		return domainproc.Options{
			Kinds:            []models.PlaceKind{models.PlaceKindCountry},
			Limit:            50,
			PatternsPerPlace: 3,
			Apply:            true,
			MaxAge:           7 * 24 * time.Hour,
			Refresh404:       180 * 24 * time.Hour,
			Retry4xx:         7 * 24 * time.Hour,
		}
	})

	r.register("exploreCountryHubs", "Probe for new country-hub candidates without persisting them", func() domainproc.Options {
		return domainproc.Options{
			Kinds:            []models.PlaceKind{models.PlaceKindCountry},
			Limit:            50,
			PatternsPerPlace: 5,
			Apply:            false,
			MaxAge:           7 * 24 * time.Hour,
			Refresh404:       180 * 24 * time.Hour,
			Retry4xx:         7 * 24 * time.Hour,
		}
	})

	r.register("discoverTopicHubs", "Discover and validate topic hubs", func() domainproc.Options {
		return domainproc.Options{
			EnableTopicDiscovery: true,
			PatternsPerPlace:     3,
			Apply:                true,
			MaxAge:               7 * 24 * time.Hour,
			Refresh404:           180 * 24 * time.Hour,
			Retry4xx:             7 * 24 * time.Hour,
		}
	})

	r.register("discoverPlaceTopicHubs", "Discover and validate place-topic combination hubs", func() domainproc.Options {
		return domainproc.Options{
			Kinds:                      []models.PlaceKind{models.PlaceKindCountry},
			EnableCombinationDiscovery: true,
			Limit:                      20,
			PatternsPerPlace:           3,
			Apply:                      true,
			MaxAge:                     7 * 24 * time.Hour,
			Refresh404:                 180 * 24 * time.Hour,
			Retry4xx:                   7 * 24 * time.Hour,
		}
	})

	return r
}

func (r *Registry) register(name, summary string, defaults func() domainproc.Options) {
	r.ops[name] = operation{name: name, summary: summary, defaults: defaults}
	r.order = append(r.order, name)
}

// ListOperations returns every registered operation's name, summary, and
// default options, in registration order.
func (r *Registry) ListOperations() []OperationInfo {
	out := make([]OperationInfo, 0, len(r.order))
	for _, name := range r.order {
		op := r.ops[name]
		out = append(out, OperationInfo{
			Name:           op.name,
			Summary:        op.summary,
			DefaultOptions: optionsToMap(op.defaults()),
		})
	}
	return out
}

// RunOperation resolves name, merges overrides onto its default options,
// and runs the pipeline once. Unknown names return an
// apperrors.UnknownOperationError, per spec §4.8.
func (r *Registry) RunOperation(ctx context.Context, name, startURL string, overrides map[string]any, control domainproc.JobControl) (*Result, error) {
	op, ok := r.ops[name]
	if !ok {
		return nil, &apperrors.UnknownOperationError{Name: name}
	}

	if _, _, _, err := common.ValidateBaseURL(startURL, nil); err != nil {
		return nil, &apperrors.InvalidInputError{Field: "startUrl", Message: err.Error()}
	}

	opts := op.defaults()
	applyOverrides(&opts, overrides)
	if opts.AttemptID == "" {
		opts.AttemptID = attemptIDFromOverrides(overrides)
	}

	start := time.Now()
	result, err := r.processor.Process(ctx, startURL, opts, control)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		return &Result{Status: "error", ElapsedMs: elapsed, Error: err.Error()}, err
	}
	return &Result{Status: "ok", ElapsedMs: elapsed, Stats: result.Summary}, nil
}

func attemptIDFromOverrides(overrides map[string]any) string {
	if overrides == nil {
		return ""
	}
	if v, ok := overrides["attemptId"].(string); ok {
		return v
	}
	return ""
}

func optionsToMap(opts domainproc.Options) map[string]any {
	kinds := make([]string, 0, len(opts.Kinds))
	for _, k := range opts.Kinds {
		kinds = append(kinds, string(k))
	}
	return map[string]any{
		"kinds":                      kinds,
		"limit":                      opts.Limit,
		"patternsPerPlace":           opts.PatternsPerPlace,
		"enableTopicDiscovery":       opts.EnableTopicDiscovery,
		"enableCombinationDiscovery": opts.EnableCombinationDiscovery,
		"apply":                      opts.Apply,
		"maxDownloads":               opts.MaxDownloads,
		"rateLimitMs":                opts.RateLimitMs,
		"maxAgeMs":                   opts.MaxAge.Milliseconds(),
		"refresh404Ms":               opts.Refresh404.Milliseconds(),
		"retry4xxMs":                 opts.Retry4xx.Milliseconds(),
	}
}
