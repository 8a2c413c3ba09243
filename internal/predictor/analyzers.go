package predictor

import (
	"github.com/ternarybob/hubscout/internal/interfaces"
	"github.com/ternarybob/hubscout/internal/models"
)

// PlaceHubAnalyzer predicts hub URLs for country/region/city places,
// implementing interfaces.PlaceAnalyzer.
type PlaceHubAnalyzer struct {
	dspl *DSPL
}

var _ interfaces.PlaceAnalyzer = (*PlaceHubAnalyzer)(nil)

func NewPlaceHubAnalyzer(dspl *DSPL) *PlaceHubAnalyzer {
	return &PlaceHubAnalyzer{dspl: dspl}
}

func (a *PlaceHubAnalyzer) Name() string { return "dspl-place-analyzer" }

// PredictPlaceHubURLs expands the kind-appropriate template set against
// place.Code (falling back to a slugified place.Name) for host.
func (a *PlaceHubAnalyzer) PredictPlaceHubURLs(host string, place models.Place) ([]models.Prediction, error) {
	entry, known := a.dspl.Lookup(host)

	var patterns []string
	switch place.Kind {
	case models.PlaceKindCountry:
		patterns = entry.CountryPatterns
	case models.PlaceKindRegion:
		patterns = entry.RegionPatterns
	case models.PlaceKindCity:
		patterns = entry.CityPatterns
	default:
		patterns = entry.CountryPatterns
	}

	slug := place.Code
	if slug == "" {
		slug = slugify(place.Name)
	} else {
		slug = slugify(slug)
	}

	strategy := "dspl"
	if !known {
		strategy = "generic-fallback"
	}

	predictions := make([]models.Prediction, 0, len(patterns))
	for _, pattern := range patterns {
		url := expand(pattern, map[string]string{"{slug}": slug})
		score := 0.9
		confidence := 0.8
		if !known {
			score = 0.5
			confidence = 0.4
		}
		predictions = append(predictions, models.Prediction{
			URL:        url,
			Analyzer:   a.Name(),
			Strategy:   strategy,
			Pattern:    pattern,
			Score:      &score,
			Confidence: &confidence,
		})
	}
	return predictions, nil
}

// TopicHubAnalyzer predicts hub URLs for topics, implementing
// interfaces.TopicAnalyzer.
type TopicHubAnalyzer struct {
	dspl *DSPL
}

var _ interfaces.TopicAnalyzer = (*TopicHubAnalyzer)(nil)

func NewTopicHubAnalyzer(dspl *DSPL) *TopicHubAnalyzer {
	return &TopicHubAnalyzer{dspl: dspl}
}

func (a *TopicHubAnalyzer) Name() string { return "dspl-topic-analyzer" }

func (a *TopicHubAnalyzer) PredictTopicHubURLs(host string, topic models.Topic) ([]models.Prediction, error) {
	entry, known := a.dspl.Lookup(host)
	slug := topic.Slug
	if slug == "" {
		slug = slugify(topic.Label)
	}

	strategy := "dspl"
	if !known {
		strategy = "generic-fallback"
	}

	predictions := make([]models.Prediction, 0, len(entry.TopicPatterns))
	for _, pattern := range entry.TopicPatterns {
		url := expand(pattern, map[string]string{"{slug}": slug})
		score := 0.9
		confidence := 0.8
		if !known {
			score = 0.5
			confidence = 0.4
		}
		predictions = append(predictions, models.Prediction{
			URL:        url,
			Analyzer:   a.Name(),
			Strategy:   strategy,
			Pattern:    pattern,
			Score:      &score,
			Confidence: &confidence,
		})
	}
	return predictions, nil
}

// CombinationHubAnalyzer predicts hub URLs for (place, topic) pairs,
// implementing interfaces.CombinationAnalyzer.
type CombinationHubAnalyzer struct {
	dspl *DSPL
}

var _ interfaces.CombinationAnalyzer = (*CombinationHubAnalyzer)(nil)

func NewCombinationHubAnalyzer(dspl *DSPL) *CombinationHubAnalyzer {
	return &CombinationHubAnalyzer{dspl: dspl}
}

func (a *CombinationHubAnalyzer) Name() string { return "dspl-combination-analyzer" }

func (a *CombinationHubAnalyzer) PredictCombinationHubURLs(host string, place models.Place, topic models.Topic) ([]models.Prediction, error) {
	entry, known := a.dspl.Lookup(host)

	placeSlug := place.Code
	if placeSlug == "" {
		placeSlug = slugify(place.Name)
	} else {
		placeSlug = slugify(placeSlug)
	}
	topicSlug := topic.Slug
	if topicSlug == "" {
		topicSlug = slugify(topic.Label)
	}

	strategy := "dspl"
	if !known {
		strategy = "generic-fallback"
	}

	predictions := make([]models.Prediction, 0, len(entry.CombinationPatterns))
	for _, pattern := range entry.CombinationPatterns {
		url := expand(pattern, map[string]string{"{place}": placeSlug, "{topic}": topicSlug})
		score := 0.85
		confidence := 0.75
		if !known {
			score = 0.45
			confidence = 0.35
		}
		predictions = append(predictions, models.Prediction{
			URL:        url,
			Analyzer:   a.Name(),
			Strategy:   strategy,
			Pattern:    pattern,
			Score:      &score,
			Confidence: &confidence,
		})
	}
	return predictions, nil
}
