// Package sequence implements the sequence runner and sequence-config
// loader of spec §4.9/§4.10: a strictly sequential step executor plus a
// YAML/JSON config loader with pluggable `@namespace.key` token
// resolution, grounded on the teacher's
// internal/jobs/job_definition_orchestrator.go step-execution loop and
// internal/common/replacement.go's regex-based reference substitution.
package sequence

import "strconv"

// PathSegment is one `.`-delimited component of a token path, optionally
// carrying an array index (`key[0]`).
type PathSegment struct {
	Key   string
	Index *int
}

// ParsePathSegments splits a dotted token path (everything after the
// namespace) into PathSegments, extracting any `[N]` array index suffix.
func ParsePathSegments(raw string) []PathSegment {
	if raw == "" {
		return nil
	}
	var segs []PathSegment
	start := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == '.' {
			segs = append(segs, parseSegment(raw[start:i]))
			start = i + 1
		}
	}
	return segs
}

func parseSegment(part string) PathSegment {
	if i := indexOf(part, '['); i >= 0 && len(part) > 0 && part[len(part)-1] == ']' {
		key := part[:i]
		if n, err := strconv.Atoi(part[i+1 : len(part)-1]); err == nil {
			return PathSegment{Key: key, Index: &n}
		}
	}
	return PathSegment{Key: part}
}

func indexOf(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// resolvePath walks root (a tree of map[string]any/[]any/scalars) following
// segs, returning (value, true) on a full match.
func resolvePath(root any, segs []PathSegment) (any, bool) {
	cur := root
	for _, seg := range segs {
		if seg.Key != "" {
			m, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			v, ok := m[seg.Key]
			if !ok {
				return nil, false
			}
			cur = v
		}
		if seg.Index != nil {
			arr, ok := cur.([]any)
			if !ok {
				return nil, false
			}
			if *seg.Index < 0 || *seg.Index >= len(arr) {
				return nil, false
			}
			cur = arr[*seg.Index]
		}
	}
	return cur, true
}

// Resolver resolves one namespace's token path against its own data.
type Resolver interface {
	Resolve(path []PathSegment) (any, bool)
}

// mapResolver is the shared plain-data implementation every namespace
// resolver below embeds; the three resolvers differ only in what
// populates their data, per spec §4.10's resolver table.
type mapResolver struct{ data map[string]any }

func (m mapResolver) Resolve(path []PathSegment) (any, bool) {
	if m.data == nil {
		return nil, false
	}
	return resolvePath(m.data, path)
}

// CLIResolver serves the `cli` namespace: the call's startUrl,
// sharedOverrides, and any ad-hoc `--config-cli-overrides` JSON keys.
type CLIResolver struct{ mapResolver }

// NewCLIResolver builds the `cli` namespace resolver for one call.
func NewCLIResolver(startURL string, sharedOverrides map[string]any, cliOverrides map[string]any) *CLIResolver {
	data := map[string]any{
		"startUrl":        startURL,
		"sharedOverrides": toAnyMap(sharedOverrides),
	}
	for k, v := range cliOverrides {
		data[k] = v
	}
	return &CLIResolver{mapResolver{data}}
}

// PlaybookResolver serves the `playbook` namespace: host-specific defaults
// supplied by an injected PlaybookProvider.
type PlaybookResolver struct{ mapResolver }

// NewPlaybookResolver builds the `playbook` namespace resolver from data
// already scoped to one host.
func NewPlaybookResolver(data map[string]any) *PlaybookResolver {
	return &PlaybookResolver{mapResolver{data}}
}

// ConfigResolver serves the `config` namespace: the global config snapshot
// plus featureFlags, supplied by an injected ConfigProvider.
type ConfigResolver struct{ mapResolver }

// NewConfigResolver builds the `config` namespace resolver.
func NewConfigResolver(data map[string]any) *ConfigResolver {
	return &ConfigResolver{mapResolver{data}}
}

func toAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
