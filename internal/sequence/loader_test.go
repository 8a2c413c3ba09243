package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadResolvesFullScalarTokenToItsNativeType(t *testing.T) {
	raw := []byte(`
name: evening-sequence
host: uk
startUrl: "@cli.startUrl"
sharedOverrides:
  plannerVerbosity: 2
  featureFlags: "@config.featureFlags"
steps:
  - id: ensureHubs
    operation: ensureCountryHubs
    overrides: { apply: true }
  - operation: exploreCountryHubs
    continueOnError: true
`)
	resolvers := map[string]Resolver{
		"cli":    NewCLIResolver("https://news.example", nil, nil),
		"config": NewConfigResolver(map[string]any{"featureFlags": map[string]any{"topics": true}}),
	}

	l := NewLoader()
	cfg, err := l.Load("evening-sequence.yaml", raw, "yaml", resolvers)
	require.NoError(t, err)

	assert.Equal(t, "https://news.example", cfg.StartURL)
	assert.Equal(t, map[string]any{"topics": true}, cfg.SharedOverrides["featureFlags"])
	assert.Len(t, cfg.Steps, 2)
	assert.Equal(t, "ensureHubs", cfg.Steps[0].ID)
	assert.Contains(t, cfg.Metadata.ResolvedTokens, "@cli.startUrl")
	assert.Empty(t, cfg.Metadata.Warnings)
}

func TestLoadUnresolvedTokenIsWarningNotError(t *testing.T) {
	raw := []byte(`{"name":"x","startUrl":"@playbook.primarySeed","steps":[{"operation":"ensureCountryHubs"}]}`)
	l := NewLoader()
	cfg, err := l.Load("x.json", raw, "json", map[string]Resolver{})
	require.NoError(t, err)
	assert.Empty(t, cfg.StartURL)
	require.NotEmpty(t, cfg.Metadata.Warnings)
	assert.Contains(t, cfg.Metadata.Warnings[0], "@playbook.primarySeed")
}

func TestLoadInvalidJSONIsSequenceConfigError(t *testing.T) {
	l := NewLoader()
	_, err := l.Load("bad.json", []byte("{not json"), "json", nil)
	require.Error(t, err)
}

func TestLoadMissingStepsIsSequenceConfigError(t *testing.T) {
	l := NewLoader()
	_, err := l.Load("empty.json", []byte(`{"name":"x","steps":[]}`), "json", nil)
	require.Error(t, err)
}

func TestParsePathSegmentsExtractsArrayIndex(t *testing.T) {
	segs := ParsePathSegments("seedPatterns[0].value")
	require.Len(t, segs, 2)
	assert.Equal(t, "seedPatterns", segs[0].Key)
	require.NotNil(t, segs[0].Index)
	assert.Equal(t, 0, *segs[0].Index)
	assert.Equal(t, "value", segs[1].Key)
}
