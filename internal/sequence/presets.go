package sequence

import "github.com/ternarybob/hubscout/internal/models"

// DefaultPresets returns the built-in named sequences exposed through
// getAvailability's sequencePresets list, per spec §6. Presets are
// compiled in rather than file-loaded, but still carry `@cli.*` tokens so
// they exercise the same resolver path as a file-loaded sequence config.
func DefaultPresets() map[string]*models.SequenceConfig {
	return map[string]*models.SequenceConfig{
		"country-sweep": {
			Name:            "country-sweep",
			StartURL:        "@cli.startUrl",
			SharedOverrides: map[string]any{"patternsPerPlace": 3},
			ContinueOnError: true,
			Steps: []models.Step{
				{ID: "ensureHubs", Operation: "ensureCountryHubs", Label: "Ensure validated country hubs exist"},
				{ID: "exploreHubs", Operation: "exploreCountryHubs", Label: "Explore for new country hub candidates", ContinueOnError: true},
			},
		},
		"full-discovery": {
			Name:            "full-discovery",
			StartURL:        "@cli.startUrl",
			ContinueOnError: false,
			Steps: []models.Step{
				{Operation: "crawlPlaceHubs", Label: "Crawl all place hubs"},
				{Operation: "discoverTopicHubs", Label: "Discover topic hubs", ContinueOnError: true},
				{Operation: "discoverPlaceTopicHubs", Label: "Discover place-topic combination hubs", ContinueOnError: true},
			},
		},
	}
}
