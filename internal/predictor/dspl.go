// Package predictor implements the analyzers of spec §4.5: pure functions
// over a static domain-specific pattern library (DSPL) plus generic
// fallback templates, producing candidate hub URL predictions for a
// place, a topic, or a (place, topic) combination.
package predictor

import "strings"

// Entry is one domain's known-good set of URL templates, grouped by kind.
// Place and topic templates use the {slug} placeholder; combination
// templates use {place} and {topic}.
type Entry struct {
	Host            string
	CountryPatterns []string
	RegionPatterns  []string
	CityPatterns    []string
	TopicPatterns   []string
	CombinationPatterns []string
}

// DSPL is the static domain-specific pattern library: a lookup by host
// plus generic fallback templates for domains absent from it.
type DSPL struct {
	entries map[string]Entry
}

// genericFallback is used for any host with no DSPL entry, per spec §4.5's
// "generic fallback templates... for domains absent from the DSPL".
var genericFallback = Entry{
	CountryPatterns:     []string{"/{slug}", "/world/{slug}", "/country/{slug}"},
	RegionPatterns:      []string{"/{slug}", "/region/{slug}"},
	CityPatterns:        []string{"/{slug}", "/city/{slug}"},
	TopicPatterns:       []string{"/topic/{slug}", "/tag/{slug}", "/news/{slug}"},
	CombinationPatterns: []string{"/{topic}/{place}", "/{place}/{topic}"},
}

// NewDSPL builds a DSPL from a set of known-good per-domain entries.
func NewDSPL(entries ...Entry) *DSPL {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[e.Host] = e
	}
	return &DSPL{entries: m}
}

// Default returns the DSPL shipped with the engine: a handful of
// well-known news-site patterns plus the generic fallback for everything
// else. Grounded on spec.md's glossary example templates
// (/world/{country}, /tag/{topic}, /{topic}/{country}).
func Default() *DSPL {
	return NewDSPL(
		Entry{
			Host:                "example-news.test",
			CountryPatterns:     []string{"/world/{slug}"},
			RegionPatterns:      []string{"/world/{slug}"},
			CityPatterns:        []string{"/world/{slug}"},
			TopicPatterns:       []string{"/tag/{slug}"},
			CombinationPatterns: []string{"/{topic}/{place}"},
		},
	)
}

// Lookup returns the DSPL entry for host, or (genericFallback, false) if
// the host has no specific entry — the bool reports whether the host was
// a known DSPL entry, which the analyzers use to pick their strategy.
func (d *DSPL) Lookup(host string) (Entry, bool) {
	if e, ok := d.entries[host]; ok {
		return e, true
	}
	return genericFallback, false
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	return s
}

func expand(pattern string, replacements map[string]string) string {
	out := pattern
	for token, value := range replacements {
		out = strings.ReplaceAll(out, token, value)
	}
	return out
}
