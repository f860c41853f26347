// Package scorer evaluates content quality and relevance for a user. The
// primary implementation calls an OpenAI-compatible API; a keyword overlap
// heuristic serves as the fallback so decisions never depend on provider
// availability.
package scorer

import (
	"context"
	"sort"
	"strings"

	"github.com/arcpay/platform/internal/app/domain/content"
	"github.com/arcpay/platform/internal/app/domain/preference"
)

// Fallback constants used when no model is reachable.
const (
	fallbackQuality = 0.7
	fallbackValue   = 0.25
)

// Scorer produces an analysis for a content item given user preferences.
type Scorer interface {
	Analyze(ctx context.Context, item content.Item, prefs preference.Preferences) (content.Analysis, error)
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(ctx context.Context, item content.Item, prefs preference.Preferences) (content.Analysis, error)

func (f ScorerFunc) Analyze(ctx context.Context, item content.Item, prefs preference.Preferences) (content.Analysis, error) {
	return f(ctx, item, prefs)
}

// Keyword scores content by interest keyword overlap. Relevance is the
// fraction of the user's interests matched by the item's tags or title;
// quality is fixed since the heuristic cannot judge it.
type Keyword struct{}

var _ Scorer = Keyword{}

func (Keyword) Analyze(_ context.Context, item content.Item, prefs preference.Preferences) (content.Analysis, error) {
	interests := make([]string, 0, len(prefs.Interests))
	for _, interest := range prefs.Interests {
		interests = append(interests, strings.ToLower(interest))
	}

	keywords := make([]string, 0, len(item.Tags)+1)
	for _, tag := range item.Tags {
		keywords = append(keywords, strings.ToLower(tag))
	}
	keywords = append(keywords, strings.ToLower(item.Title))

	matches := 0
	for _, keyword := range keywords {
		for _, interest := range interests {
			if strings.Contains(keyword, interest) || strings.Contains(interest, keyword) {
				matches++
				break
			}
		}
	}

	denom := len(interests)
	if denom < 1 {
		denom = 1
	}
	relevance := float64(matches) / float64(denom)
	if relevance > 1 {
		relevance = 1
	}

	value := item.Price
	if value == 0 {
		value = fallbackValue
	}
	summary := item.Description
	if summary == "" {
		summary = "No summary available"
	}

	return content.Analysis{
		QualityScore:   fallbackQuality,
		RelevanceScore: relevance,
		DetectedTopics: append([]string(nil), item.Tags...),
		EstimatedValue: value,
		Summary:        summary,
	}, nil
}

// Rank scores the given items for the user and returns up to limit items
// ordered by descending mean of quality and relevance. Items that fail to
// score are skipped.
func Rank(ctx context.Context, s Scorer, prefs preference.Preferences, items []content.Item, limit int) []content.Item {
	type scored struct {
		item  content.Item
		score float64
	}
	results := make([]scored, 0, len(items))
	for _, item := range items {
		analysis, err := s.Analyze(ctx, item, prefs)
		if err != nil {
			continue
		}
		results = append(results, scored{
			item:  item,
			score: (analysis.QualityScore + analysis.RelevanceScore) / 2,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	ranked := make([]content.Item, 0, len(results))
	for _, r := range results {
		ranked = append(ranked, r.item)
	}
	return ranked
}
