package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/hubscout/internal/models"
)

func hubHTML(title string, navCount, articleCount int) string {
	var nav, articles strings.Builder
	for i := 0; i < navCount; i++ {
		nav.WriteString(`<a href="/section-`)
		nav.WriteString(strings.Repeat("x", i+1))
		nav.WriteString(`">Section</a>`)
	}
	for i := 0; i < articleCount; i++ {
		articles.WriteString(`<a href="/news/some-long-article-slug-`)
		articles.WriteString(strings.Repeat("a", i+1))
		articles.WriteString(`">Headline</a>`)
	}
	return `<html><head><title>` + title + `</title></head><body>
		<nav>` + nav.String() + `</nav>
		<article>` + articles.String() + `</article>
	</body></html>`
}

func TestValidatePlaceHub(t *testing.T) {
	v := New(Thresholds{})
	place := models.Place{Kind: models.PlaceKindCountry, Name: "France", Code: "FR"}

	t.Run("valid hub page", func(t *testing.T) {
		body := hubHTML("France News | a.test", 3, 5)
		result := v.ValidatePlaceHub(body, place, "a.test")
		assert.True(t, result.IsValid)
		assert.Empty(t, result.Reason)
		assert.GreaterOrEqual(t, result.Confidence, 0.5)
	})

	t.Run("too few article links is rejected with a reason", func(t *testing.T) {
		body := hubHTML("France News | a.test", 3, 1)
		result := v.ValidatePlaceHub(body, place, "a.test")
		assert.False(t, result.IsValid)
		assert.Contains(t, result.Reason, "insufficient-article-links")
	})

	t.Run("no token match is rejected", func(t *testing.T) {
		body := hubHTML("World News | a.test", 3, 5)
		result := v.ValidatePlaceHub(body, place, "a.test")
		assert.False(t, result.IsValid)
		assert.Equal(t, "no-expected-token-match", result.Reason)
	})

	t.Run("unparseable html is rejected without panicking", func(t *testing.T) {
		result := v.ValidatePlaceHub("\x00\x01", place, "a.test")
		assert.False(t, result.IsValid)
	})

	t.Run("is deterministic for the same body", func(t *testing.T) {
		body := hubHTML("France News | a.test", 3, 5)
		r1 := v.ValidatePlaceHub(body, place, "a.test")
		r2 := v.ValidatePlaceHub(body, place, "a.test")
		assert.Equal(t, r1, r2)
	})
}

func TestValidateTopicHub(t *testing.T) {
	v := New(Thresholds{})
	topic := models.Topic{Slug: "elections", Label: "Elections"}

	body := hubHTML("Elections Coverage | a.test", 4, 6)
	result := v.ValidateTopicHub(body, topic, "a.test")
	assert.True(t, result.IsValid)
}

func TestValidatePlacePlaceHub(t *testing.T) {
	v := New(Thresholds{})
	place := models.Place{Name: "France"}
	topic := models.Topic{Label: "Elections"}

	body := hubHTML("France Elections | a.test", 4, 6)
	result := v.ValidatePlacePlaceHub(body, place, topic, "a.test")
	assert.True(t, result.IsValid)
}
