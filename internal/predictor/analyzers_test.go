package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/hubscout/internal/models"
)

func TestPlaceHubAnalyzerKnownDSPL(t *testing.T) {
	dspl := Default()
	a := NewPlaceHubAnalyzer(dspl)

	predictions, err := a.PredictPlaceHubURLs("example-news.test", models.Place{Kind: models.PlaceKindCountry, Name: "France", Code: "FR"})
	require.NoError(t, err)
	require.Len(t, predictions, 1)
	assert.Equal(t, "/world/fr", predictions[0].URL)
	assert.Equal(t, "dspl", predictions[0].Strategy)
	assert.Equal(t, a.Name(), predictions[0].Analyzer)
}

func TestPlaceHubAnalyzerFallsBackForUnknownHost(t *testing.T) {
	dspl := Default()
	a := NewPlaceHubAnalyzer(dspl)

	predictions, err := a.PredictPlaceHubURLs("unknown-site.test", models.Place{Kind: models.PlaceKindCountry, Name: "Spain"})
	require.NoError(t, err)
	assert.NotEmpty(t, predictions)
	for _, p := range predictions {
		assert.Equal(t, "generic-fallback", p.Strategy)
	}
}

func TestTopicHubAnalyzer(t *testing.T) {
	dspl := Default()
	a := NewTopicHubAnalyzer(dspl)

	predictions, err := a.PredictTopicHubURLs("example-news.test", models.Topic{Slug: "elections", Label: "Elections"})
	require.NoError(t, err)
	require.Len(t, predictions, 1)
	assert.Equal(t, "/tag/elections", predictions[0].URL)
}

func TestCombinationHubAnalyzer(t *testing.T) {
	dspl := Default()
	a := NewCombinationHubAnalyzer(dspl)

	predictions, err := a.PredictCombinationHubURLs("example-news.test", models.Place{Name: "France"}, models.Topic{Slug: "elections"})
	require.NoError(t, err)
	require.Len(t, predictions, 1)
	assert.Equal(t, "/elections/france", predictions[0].URL)
}

func TestAnalyzersArePureGivenSameInputs(t *testing.T) {
	dspl := Default()
	a := NewPlaceHubAnalyzer(dspl)
	place := models.Place{Kind: models.PlaceKindCountry, Name: "France", Code: "FR"}

	p1, err := a.PredictPlaceHubURLs("example-news.test", place)
	require.NoError(t, err)
	p2, err := a.PredictPlaceHubURLs("example-news.test", place)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}
