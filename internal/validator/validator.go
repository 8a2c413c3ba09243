// Package validator implements the hub validator of spec §4.4: a
// deterministic, heuristic classifier over a fetched HTML body that
// decides whether the page is a valid structural "hub" page for an
// expected place, topic, or place-topic combination.
//
// Grounded on the teacher's internal/services/crawler/link_extractor.go
// for goquery-based link discovery and URL resolution, generalized from
// "extract and filter crawl-frontier links" to "count nav vs. article
// links and score title/body token matches against an expected place or
// topic".
package validator

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/hubscout/internal/interfaces"
	"github.com/ternarybob/hubscout/internal/models"
)

// Thresholds tunes the scoring pass. Zero-value Thresholds falls back to
// DefaultThresholds.
type Thresholds struct {
	MinNavLinks          int
	MinArticleLinks      int
	MinConfidence        float64
}

// DefaultThresholds mirrors the values the teacher's link/content
// heuristics settle on empirically for a "this looks like a hub page"
// pass: a handful of nav links plus several article-shaped links.
var DefaultThresholds = Thresholds{
	MinNavLinks:     3,
	MinArticleLinks: 5,
	MinConfidence:   0.5,
}

// Validator is the sole arbiter of spec §4.4; the orchestrator never
// re-interprets its verdict.
type Validator struct {
	thresholds Thresholds
}

var _ interfaces.HubValidator = (*Validator)(nil)

// New builds a Validator. Passing the zero Thresholds uses
// DefaultThresholds.
func New(thresholds Thresholds) *Validator {
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds
	}
	return &Validator{thresholds: thresholds}
}

// ValidatePlaceHub classifies body against an expected geographic place.
func (v *Validator) ValidatePlaceHub(body string, expectedPlace models.Place, domain string) interfaces.ValidationResult {
	return v.validate(body, domain, []string{expectedPlace.Name, expectedPlace.Code})
}

// ValidateTopicHub classifies body against an expected topic.
func (v *Validator) ValidateTopicHub(body string, expectedTopic models.Topic, domain string) interfaces.ValidationResult {
	return v.validate(body, domain, []string{expectedTopic.Label, expectedTopic.Slug})
}

// ValidatePlacePlaceHub classifies body against an expected (place, topic)
// combination — the name "PlacePlaceHub" follows spec.md's entry-point
// name for this case exactly.
func (v *Validator) ValidatePlacePlaceHub(body string, expectedPlace models.Place, expectedTopic models.Topic, domain string) interfaces.ValidationResult {
	return v.validate(body, domain, []string{expectedPlace.Name, expectedPlace.Code, expectedTopic.Label, expectedTopic.Slug})
}

func (v *Validator) validate(body, domain string, expectedTokens []string) interfaces.ValidationResult {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return interfaces.ValidationResult{
			IsValid: false,
			Reason:  "unparseable-html: " + err.Error(),
		}
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	navLinks, articleLinks := countLinks(doc, domain)

	metrics := map[string]any{
		"navLinks":     navLinks,
		"articleLinks": articleLinks,
		"title":        title,
	}

	tokenMatch := matchesAnyToken(title, expectedTokens) || matchesAnyToken(body, expectedTokens)

	confidence := confidenceScore(navLinks, articleLinks, tokenMatch, v.thresholds)
	metrics["tokenMatch"] = tokenMatch

	result := interfaces.ValidationResult{
		Confidence:       confidence,
		NavLinkCount:     navLinks,
		ArticleLinkCount: articleLinks,
		Title:            title,
		Metrics:          metrics,
	}

	switch {
	case navLinks < v.thresholds.MinNavLinks:
		result.IsValid = false
		result.Reason = "insufficient-nav-links: found " + strconv.Itoa(navLinks) + ", need " + strconv.Itoa(v.thresholds.MinNavLinks)
	case articleLinks < v.thresholds.MinArticleLinks:
		result.IsValid = false
		result.Reason = "insufficient-article-links: found " + strconv.Itoa(articleLinks) + ", need " + strconv.Itoa(v.thresholds.MinArticleLinks)
	case !tokenMatch:
		result.IsValid = false
		result.Reason = "no-expected-token-match"
	case confidence < v.thresholds.MinConfidence:
		result.IsValid = false
		result.Reason = "confidence-below-threshold"
	default:
		result.IsValid = true
	}

	return result
}

// countLinks counts same-host navigation-shaped links (short paths, under
// nav/header/footer landmarks) versus article-shaped links (longer,
// slug-bearing paths found in the body).
func countLinks(doc *goquery.Document, domain string) (navLinks, articleLinks int) {
	doc.Find("nav a[href], header a[href], footer a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && isSameHostOrRelative(href, domain) {
			navLinks++
		}
	})

	doc.Find("article a[href], main a[href], .content a[href], body a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || !isSameHostOrRelative(href, domain) {
			return
		}
		if looksLikeArticlePath(href) {
			articleLinks++
		}
	})

	return navLinks, articleLinks
}

func isSameHostOrRelative(href, domain string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	if u.Host == "" {
		return true
	}
	return strings.EqualFold(u.Host, domain)
}

func looksLikeArticlePath(href string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 0 {
		return false
	}
	last := segments[len(segments)-1]
	return len(last) > 8 && strings.Contains(last, "-")
}

func matchesAnyToken(haystack string, tokens []string) bool {
	lower := strings.ToLower(haystack)
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

func confidenceScore(navLinks, articleLinks int, tokenMatch bool, t Thresholds) float64 {
	score := 0.0
	if navLinks >= t.MinNavLinks {
		score += 0.3
	}
	if articleLinks >= t.MinArticleLinks {
		score += 0.4
	}
	if tokenMatch {
		score += 0.3
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
