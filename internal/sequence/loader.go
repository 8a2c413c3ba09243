package sequence

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ternarybob/hubscout/internal/apperrors"
	"github.com/ternarybob/hubscout/internal/models"
)

// fullTokenRe matches a string whose entire value is one token, so the
// replacement can carry any JSON type rather than being stringified.
var fullTokenRe = regexp.MustCompile(`^@([A-Za-z0-9_]+)((?:\.[A-Za-z0-9_]+(?:\[\d+\])?)+)$`)

// tokenRe finds tokens embedded inside a larger string, for interpolation.
var tokenRe = regexp.MustCompile(`@[A-Za-z0-9_]+(?:\.[A-Za-z0-9_]+(?:\[\d+\])?)+`)

// Loader parses a sequence-config document and resolves its `@ns.key`
// tokens against the resolvers supplied for that call.
type Loader struct{}

// NewLoader builds a sequence-config loader.
func NewLoader() *Loader { return &Loader{} }

// Load parses raw (format is "yaml"/"yml"/"json") and resolves tokens
// against resolvers, returning the decoded SequenceConfig with its
// Metadata populated. Structural faults (bad syntax, no steps) return
// *apperrors.SequenceConfigError; unknown operation names are deferred to
// the runner, per spec §4.10.
func (l *Loader) Load(source string, raw []byte, format string, resolvers map[string]Resolver) (*models.SequenceConfig, error) {
	var doc map[string]any
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, &apperrors.SequenceConfigError{Source: source, Reason: "invalid yaml: " + err.Error()}
		}
	case "json":
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, &apperrors.SequenceConfigError{Source: source, Reason: "invalid json: " + err.Error()}
		}
	default:
		return nil, &apperrors.SequenceConfigError{Source: source, Reason: fmt.Sprintf("unsupported sequence config format %q", format)}
	}
	return l.resolveDoc(source, doc, resolvers)
}

// ResolvePreset applies token resolution to an already-decoded preset
// config (one compiled into internal/sequence's DefaultPresets rather than
// loaded from a file), reusing the same token-resolution pass as Load.
func (l *Loader) ResolvePreset(source string, cfg *models.SequenceConfig, resolvers map[string]Resolver) (*models.SequenceConfig, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, &apperrors.SequenceConfigError{Source: source, Reason: err.Error()}
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &apperrors.SequenceConfigError{Source: source, Reason: err.Error()}
	}
	return l.resolveDoc(source, doc, resolvers)
}

func (l *Loader) resolveDoc(source string, doc map[string]any, resolvers map[string]Resolver) (*models.SequenceConfig, error) {
	var resolvedTokens, warnings []string
	resolved := l.resolveNode(doc, resolvers, &resolvedTokens, &warnings)

	m, ok := resolved.(map[string]any)
	if !ok {
		return nil, &apperrors.SequenceConfigError{Source: source, Reason: "sequence document must be an object"}
	}

	raw, err := json.Marshal(m)
	if err != nil {
		return nil, &apperrors.SequenceConfigError{Source: source, Reason: err.Error()}
	}
	var cfg models.SequenceConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, &apperrors.SequenceConfigError{Source: source, Reason: err.Error()}
	}
	if len(cfg.Steps) == 0 {
		return nil, &apperrors.SequenceConfigError{Source: source, Reason: "sequence has no steps"}
	}

	cfg.Metadata = models.SequenceMetadata{Source: source, ResolvedTokens: resolvedTokens, Warnings: warnings}
	return &cfg, nil
}

func (l *Loader) resolveNode(node any, resolvers map[string]Resolver, resolved, warnings *[]string) any {
	switch v := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = l.resolveNode(val, resolvers, resolved, warnings)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = l.resolveNode(val, resolvers, resolved, warnings)
		}
		return out
	case string:
		return l.resolveString(v, resolvers, resolved, warnings)
	default:
		return node
	}
}

func (l *Loader) resolveString(s string, resolvers map[string]Resolver, resolved, warnings *[]string) any {
	if fullTokenRe.MatchString(s) {
		val, ok := l.resolveToken(s, resolvers)
		if !ok {
			*warnings = append(*warnings, fmt.Sprintf("unresolved token %s", s))
			return nil
		}
		*resolved = append(*resolved, s)
		return val
	}
	if !tokenRe.MatchString(s) {
		return s
	}
	return tokenRe.ReplaceAllStringFunc(s, func(tok string) string {
		val, ok := l.resolveToken(tok, resolvers)
		if !ok {
			*warnings = append(*warnings, fmt.Sprintf("unresolved token %s", tok))
			return tok
		}
		*resolved = append(*resolved, tok)
		return fmt.Sprint(val)
	})
}

func (l *Loader) resolveToken(tok string, resolvers map[string]Resolver) (any, bool) {
	body := strings.TrimPrefix(tok, "@")
	parts := strings.SplitN(body, ".", 2)
	if len(parts) < 2 {
		return nil, false
	}
	resolver, ok := resolvers[parts[0]]
	if !ok {
		return nil, false
	}
	return resolver.Resolve(ParsePathSegments(parts[1]))
}
