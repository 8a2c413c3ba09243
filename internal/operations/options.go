package operations

import (
	"time"

	"github.com/ternarybob/hubscout/internal/domainproc"
	"github.com/ternarybob/hubscout/internal/models"
)

// applyOverrides mutates opts in place from a closed set of recognized
// override keys, implementing the "three-way merge ... on a known field
// set" replacement for dynamic-shape option objects called for in spec §9.
// Unknown keys are ignored rather than rejected, since the sequence runner
// may pass overrides meant for a different operation's default set.
func applyOverrides(opts *domainproc.Options, overrides map[string]any) {
	if overrides == nil {
		return
	}
	if v, ok := toStringSlice(overrides["kinds"]); ok {
		opts.Kinds = toPlaceKinds(v)
	}
	if v, ok := toInt(overrides["limit"]); ok {
		opts.Limit = v
	}
	if v, ok := toInt(overrides["patternsPerPlace"]); ok {
		opts.PatternsPerPlace = v
	}
	if v, ok := toBool(overrides["enableTopicDiscovery"]); ok {
		opts.EnableTopicDiscovery = v
	}
	if v, ok := toBool(overrides["enableCombinationDiscovery"]); ok {
		opts.EnableCombinationDiscovery = v
	}
	if v, ok := toBool(overrides["apply"]); ok {
		opts.Apply = v
	}
	if v, ok := toInt(overrides["maxDownloads"]); ok {
		opts.MaxDownloads = v
	}
	if v, ok := toInt(overrides["rateLimitMs"]); ok {
		opts.RateLimitMs = v
	}
	if v, ok := toDuration(overrides["maxAge"]); ok {
		opts.MaxAge = v
	}
	if v, ok := toDuration(overrides["refresh404"]); ok {
		opts.Refresh404 = v
	}
	if v, ok := toDuration(overrides["retry4xx"]); ok {
		opts.Retry4xx = v
	}
}

func toPlaceKinds(raw []string) []models.PlaceKind {
	out := make([]models.PlaceKind, 0, len(raw))
	for _, s := range raw {
		out = append(out, models.PlaceKind(s))
	}
	return out
}

func toStringSlice(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	default:
		return 0, false
	}
}

func toBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// toDuration accepts either a native time.Duration or a plain number,
// treated as milliseconds — JSON-decoded overrides never carry a
// time.Duration type, only numbers.
func toDuration(v any) (time.Duration, bool) {
	switch t := v.(type) {
	case time.Duration:
		return t, true
	case int:
		return time.Duration(t) * time.Millisecond, true
	case int64:
		return time.Duration(t) * time.Millisecond, true
	case float64:
		return time.Duration(t) * time.Millisecond, true
	default:
		return 0, false
	}
}
