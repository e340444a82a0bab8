package report

import (
	"fmt"

	"github.com/bryanwahyu/geo-authority/internal/domain/metrics"
)

// Conclusions renders the executive-summary findings. The order is fixed:
// visibility, organic mention, top-3 position, recommendation, sentiment,
// zero-mention gap, competitor leader.
func Conclusions(rate int, snap *metrics.Snapshot, competitors []CompetitorRow, zeroMentions int) []string {
	var out []string

	switch {
	case rate >= 70:
		out = append(out, fmt.Sprintf("Excellent visibility: the brand appears in %d%% of AI answers.", rate))
	case rate >= 50:
		out = append(out, fmt.Sprintf("Good visibility: the brand appears in %d%% of AI answers, with room to grow.", rate))
	case rate >= 25:
		out = append(out, fmt.Sprintf("Visibility needs work: the brand appears in only %d%% of AI answers.", rate))
	default:
		out = append(out, fmt.Sprintf("Critical visibility gap: the brand appears in just %d%% of AI answers.", rate))
	}

	var agnostic *metrics.Group
	if snap != nil {
		agnostic = snap.BrandAgnostic
	}
	if agnostic != nil {
		out = append(out, tiered(agnostic.BrandMentionRate,
			"Strong organic discovery: mentioned in %.1f%% of brand-agnostic prompts.",
			"Moderate organic discovery: mentioned in %.1f%% of brand-agnostic prompts.",
			"Weak organic discovery: mentioned in only %.1f%% of brand-agnostic prompts."))
		out = append(out, tiered(agnostic.Top3PositionRate,
			"The brand is usually placed in the top 3 answers (%.1f%%).",
			"The brand reaches the top 3 in %.1f%% of answers; positioning can improve.",
			"The brand rarely reaches the top 3 (%.1f%%)."))
		out = append(out, tiered(agnostic.RecommendationRate,
			"AI assistants actively recommend the brand (%.1f%%).",
			"AI assistants sometimes recommend the brand (%.1f%%).",
			"AI assistants seldom recommend the brand (%.1f%%)."))
	}

	if s := sentiment(snap); s.Total() > 0 {
		negative := percent(s.Negative, s.Total())
		positive := percent(s.Positive, s.Total())
		switch {
		case negative > 20:
			out = append(out, fmt.Sprintf("Negative sentiment shows up in %d%% of classified answers; review reputation signals.", negative))
		case positive >= 60:
			out = append(out, fmt.Sprintf("Sentiment is mostly positive (%d%% of classified answers).", positive))
		default:
			out = append(out, "Sentiment is mostly neutral.")
		}
	}

	if agnostic != nil {
		zeroMentions = agnostic.ZeroMentionCount
	}
	if zeroMentions > 0 {
		out = append(out, fmt.Sprintf("%d brand-agnostic prompts return no brand mention; target them with new content.", zeroMentions))
	}

	if len(competitors) > 0 {
		top := competitors[0]
		out = append(out, fmt.Sprintf("%s is the most mentioned competitor (%d answers).", top.Name, top.Answers))
	}
	return out
}

func tiered(v float64, high, mid, low string) string {
	switch {
	case v >= 50:
		return fmt.Sprintf(high, v)
	case v >= 20:
		return fmt.Sprintf(mid, v)
	default:
		return fmt.Sprintf(low, v)
	}
}

func sentiment(snap *metrics.Snapshot) metrics.Sentiment {
	var s metrics.Sentiment
	if snap == nil {
		return s
	}
	for _, g := range []*metrics.Group{snap.BrandAgnostic, snap.BrandIncluded} {
		if g == nil {
			continue
		}
		s.Positive += g.Sentiment.Positive
		s.Neutral += g.Sentiment.Neutral
		s.Negative += g.Sentiment.Negative
	}
	return s
}
