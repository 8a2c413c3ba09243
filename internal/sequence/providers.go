package sequence

import "context"

// PlaybookProvider is the "external service" spec §4.10 names for the
// `playbook` namespace: host-specific defaults such as primarySeed,
// seedPatterns, avoidanceRules, retryCadence, resumeToken, countryCode.
// This engine has no real external playbook service, so StaticPlaybookProvider
// stands in as the in-process default.
type PlaybookProvider interface {
	Playbook(ctx context.Context, host string) (map[string]any, bool)
}

// ConfigProvider is the "external service" spec §4.10 names for the
// `config` namespace: a global config snapshot plus featureFlags.*.
type ConfigProvider interface {
	Snapshot(ctx context.Context) map[string]any
}

// StaticPlaybookProvider serves a fixed, host-keyed playbook map, loaded
// once at startup rather than fetched from a remote service.
type StaticPlaybookProvider struct {
	byHost map[string]map[string]any
}

// NewStaticPlaybookProvider builds a PlaybookProvider over byHost.
func NewStaticPlaybookProvider(byHost map[string]map[string]any) *StaticPlaybookProvider {
	if byHost == nil {
		byHost = map[string]map[string]any{}
	}
	return &StaticPlaybookProvider{byHost: byHost}
}

func (p *StaticPlaybookProvider) Playbook(ctx context.Context, host string) (map[string]any, bool) {
	v, ok := p.byHost[host]
	return v, ok
}

// ConfigSnapshotProvider adapts an application config snapshot (already
// flattened to a plain map, e.g. from internal/common.Config) into a
// ConfigProvider.
type ConfigSnapshotProvider struct {
	snapshot map[string]any
}

// NewConfigSnapshotProvider builds a ConfigProvider over a fixed snapshot.
func NewConfigSnapshotProvider(snapshot map[string]any) *ConfigSnapshotProvider {
	if snapshot == nil {
		snapshot = map[string]any{}
	}
	return &ConfigSnapshotProvider{snapshot: snapshot}
}

func (p *ConfigSnapshotProvider) Snapshot(ctx context.Context) map[string]any {
	return p.snapshot
}
