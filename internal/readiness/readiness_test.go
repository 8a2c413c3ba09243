package readiness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssessInsufficientData(t *testing.T) {
	r := Assess("example.invalid", false, Metrics{}, nil)
	assert.Equal(t, StatusInsufficientData, r.Status)
	assert.Contains(t, r.Recommendations[0], "Run crawl-place-hubs for example.invalid")
}

func TestAssessDataLimitedWithSomeHistory(t *testing.T) {
	r := Assess("a.test", false, Metrics{FetchHistoryCount: 2}, nil)
	assert.Equal(t, StatusDataLimited, r.Status)
}

func TestAssessReadyWithVerifiedPatterns(t *testing.T) {
	r := Assess("a.test", true, Metrics{VerifiedPatterns: 3, HistoricalHubs: 10}, nil)
	assert.Equal(t, StatusReady, r.Status)
}

func TestAssessProbeTimeoutEscalatesToDataLimited(t *testing.T) {
	r := Assess("a.test", true, Metrics{ProbesTimedOut: true, VerifiedPatterns: 0}, nil)
	assert.Equal(t, StatusDataLimited, r.Status)
	assert.Contains(t, r.Reason, "timed out")
	assert.NotEmpty(t, r.Recommendations)
}
