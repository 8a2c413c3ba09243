// Package catalog provides the static/injectable gazetteer stand-in named
// in spec §1: a small built-in place and topic list, with no network calls
// to a real gazetteer service. Grounded on predictor.DSPL's pattern of
// shipping a fixed, compiled-in data set behind a constructor.
package catalog

import (
	"context"
	"sort"

	"github.com/ternarybob/hubscout/internal/models"
)

// Gazetteer implements interfaces.PlaceProvider from a static, in-memory
// list of places and topics, filtered/truncated per call.
type Gazetteer struct {
	places []models.Place
	topics []models.Topic
}

// New builds a Gazetteer from explicit place and topic lists.
func New(places []models.Place, topics []models.Topic) *Gazetteer {
	return &Gazetteer{places: places, topics: topics}
}

// Default returns the gazetteer shipped with the engine: a handful of
// high-importance countries, regions and cities plus a short list of
// recurring news topics, sufficient to exercise the predictor analyzers
// without a real gazetteer feed.
func Default() *Gazetteer {
	return New(defaultPlaces, defaultTopics)
}

// Places returns the places matching any of kinds (all kinds if kinds is
// empty), sorted by descending importance and truncated to limit.
func (g *Gazetteer) Places(ctx context.Context, kinds []models.PlaceKind, limit int) ([]models.Place, error) {
	want := make(map[models.PlaceKind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}

	matched := make([]models.Place, 0, len(g.places))
	for _, p := range g.places {
		if len(want) == 0 || want[p.Kind] {
			matched = append(matched, p)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Importance > matched[j].Importance
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Topics returns up to limit topics from the static list.
func (g *Gazetteer) Topics(ctx context.Context, limit int) ([]models.Topic, error) {
	topics := g.topics
	if limit > 0 && len(topics) > limit {
		topics = topics[:limit]
	}
	return topics, nil
}

var defaultPlaces = []models.Place{
	{Kind: models.PlaceKindCountry, Name: "United States", Code: "US", Importance: 1.0},
	{Kind: models.PlaceKindCountry, Name: "United Kingdom", Code: "GB", Importance: 0.95},
	{Kind: models.PlaceKindCountry, Name: "Germany", Code: "DE", Importance: 0.9},
	{Kind: models.PlaceKindCountry, Name: "France", Code: "FR", Importance: 0.9},
	{Kind: models.PlaceKindCountry, Name: "Japan", Code: "JP", Importance: 0.88},
	{Kind: models.PlaceKindCountry, Name: "India", Code: "IN", Importance: 0.87},
	{Kind: models.PlaceKindCountry, Name: "Australia", Code: "AU", Importance: 0.8},
	{Kind: models.PlaceKindCountry, Name: "Brazil", Code: "BR", Importance: 0.8},
	{Kind: models.PlaceKindCountry, Name: "Canada", Code: "CA", Importance: 0.79},
	{Kind: models.PlaceKindCountry, Name: "South Africa", Code: "ZA", Importance: 0.6},

	{Kind: models.PlaceKindRegion, Name: "California", Code: "US-CA", ParentCode: "US", Importance: 0.7},
	{Kind: models.PlaceKindRegion, Name: "Texas", Code: "US-TX", ParentCode: "US", Importance: 0.68},
	{Kind: models.PlaceKindRegion, Name: "Bavaria", Code: "DE-BY", ParentCode: "DE", Importance: 0.55},
	{Kind: models.PlaceKindRegion, Name: "Scotland", Code: "GB-SCT", ParentCode: "GB", Importance: 0.6},
	{Kind: models.PlaceKindRegion, Name: "Ontario", Code: "CA-ON", ParentCode: "CA", Importance: 0.5},

	{Kind: models.PlaceKindCity, Name: "New York", Code: "US-NYC", ParentCode: "US-NY", Importance: 0.75},
	{Kind: models.PlaceKindCity, Name: "London", Code: "GB-LON", ParentCode: "GB", Importance: 0.78},
	{Kind: models.PlaceKindCity, Name: "Berlin", Code: "DE-BER", ParentCode: "DE-BE", Importance: 0.65},
	{Kind: models.PlaceKindCity, Name: "Tokyo", Code: "JP-TKY", ParentCode: "JP", Importance: 0.7},
	{Kind: models.PlaceKindCity, Name: "Sydney", Code: "AU-SYD", ParentCode: "AU", Importance: 0.55},
}

var defaultTopics = []models.Topic{
	{Slug: "politics", Label: "Politics", Category: "news", Language: "en"},
	{Slug: "business", Label: "Business", Category: "news", Language: "en"},
	{Slug: "technology", Label: "Technology", Category: "news", Language: "en"},
	{Slug: "sport", Label: "Sport", Category: "news", Language: "en"},
	{Slug: "health", Label: "Health", Category: "news", Language: "en"},
	{Slug: "science", Label: "Science", Category: "news", Language: "en"},
	{Slug: "climate", Label: "Climate", Category: "news", Language: "en"},
	{Slug: "entertainment", Label: "Entertainment", Category: "news", Language: "en"},
}
