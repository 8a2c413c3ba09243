package interfaces

import (
	"context"

	"github.com/ternarybob/hubscout/internal/models"
)

// Fetcher is the fetch executor contract of spec §4.1.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts FetchOptions) (*FetchResult, error)
}

// FetchOptions configures one fetch call.
type FetchOptions struct {
	Method    string
	TimeoutMs int
	Headers   map[string]string
	UserAgent string
}

// FetchResult is the structured outcome of one fetch attempt. Network
// errors never surface as a Go error from Fetch; Ok=false carries the
// failure instead.
type FetchResult struct {
	Ok              bool
	HTTPStatus      int
	FinalURL        string
	Body            string
	Headers         map[string][]string
	Error           string
	RequestStartedAt int64 // unix millis
	FetchedAt        int64 // unix millis
	BytesDownloaded  int64
	ContentType      string
	ContentLength    int64
	TotalMs          int64
	RedirectCount    int
}

// PlaceAnalyzer predicts candidate hub URLs for a place (country/region/city).
type PlaceAnalyzer interface {
	Name() string
	PredictPlaceHubURLs(host string, place models.Place) ([]models.Prediction, error)
}

// TopicAnalyzer predicts candidate hub URLs for a topic.
type TopicAnalyzer interface {
	Name() string
	PredictTopicHubURLs(host string, topic models.Topic) ([]models.Prediction, error)
}

// CombinationAnalyzer predicts candidate hub URLs for a (place, topic) pair.
type CombinationAnalyzer interface {
	Name() string
	PredictCombinationHubURLs(host string, place models.Place, topic models.Topic) ([]models.Prediction, error)
}

// ValidationResult is the output of validating a fetched body against the
// content model for a hub kind.
type ValidationResult struct {
	IsValid           bool
	Reason            string
	Confidence        float64
	NavLinkCount      int
	ArticleLinkCount  int
	Title             string
	Metrics           map[string]any
}

// HubValidator classifies a fetched HTML body, per spec §4.4. It is the
// sole arbiter; callers never re-interpret its verdict.
type HubValidator interface {
	ValidatePlaceHub(body string, expectedPlace models.Place, domain string) ValidationResult
	ValidateTopicHub(body string, expectedTopic models.Topic, domain string) ValidationResult
	ValidatePlacePlaceHub(body string, expectedPlace models.Place, expectedTopic models.Topic, domain string) ValidationResult
}

// PlaceProvider is the opaque gazetteer collaborator named in spec §1: it
// returns the set of places known for a domain/run, with no network calls
// of its own implemented here.
type PlaceProvider interface {
	Places(ctx context.Context, kinds []models.PlaceKind, limit int) ([]models.Place, error)
	Topics(ctx context.Context, limit int) ([]models.Topic, error)
}
