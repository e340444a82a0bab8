package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/bryanwahyu/geo-authority/internal/domain/evaluation"
	"github.com/bryanwahyu/geo-authority/internal/domain/exports"
	"github.com/bryanwahyu/geo-authority/internal/domain/metrics"
)

const (
	SheetPromptTracking = "Prompt Tracking"
	SheetSummary        = "Executive Summary"
	SheetZeroMention    = "Zero-Mention Opportunities"
	SheetCompetitors    = "Competitor Analysis"
	SheetAllQnA         = "All Q&A Data"
	SheetAuthority      = "Authority Evaluation"
)

const (
	BrandFoundYes     = "YES ✓"
	BrandFoundNo      = "NO ✗"
	BrandFoundPending = "PENDING"
)

const recommendedAction = "Publish content that answers this prompt and names the brand"

// Options carries the project context printed in the report.
type Options struct {
	BrandName   string
	Domain      string
	Nation      string
	State       string
	GeneratedAt time.Time
	// nil means DefaultCompetitors
	KnownCompetitors []string
}

func (o Options) known() []string {
	if o.KnownCompetitors == nil {
		return DefaultCompetitors
	}
	return o.KnownCompetitors
}

func (o Options) location() string {
	state := o.State
	if state == "" {
		state = "Local"
	}
	if o.Nation == "" {
		return state
	}
	return state + ", " + o.Nation
}

// BuildComprehensive derives the metrics-aware report.
func BuildComprehensive(results []evaluation.Result, snap *metrics.Snapshot, opts Options) (Workbook, error) {
	if len(results) == 0 || snap == nil {
		return Workbook{}, ErrExportUnavailable
	}
	brand := opts.BrandName
	if brand == "" {
		brand = snap.BrandName
	}
	opts.BrandName = brand

	competitors := Competitors(results, snap.CompetitorMentions, opts.known(), brand)
	zero := ZeroMention(results, brand)

	return Workbook{
		Filename: Filename(opts.Domain, opts.State, exports.VariantComprehensive),
		Sheets: []Sheet{
			promptTrackingSheet(results, brand),
			summarySheet(results, snap, competitors, zero, opts),
			zeroMentionSheet(zero),
			competitorSheet(competitors),
			allQnASheet(results),
		},
	}, nil
}

// BuildAuthority derives the simple single-sheet report. Metrics are not
// required.
func BuildAuthority(results []evaluation.Result, opts Options) (Workbook, error) {
	if len(results) == 0 {
		return Workbook{}, ErrExportUnavailable
	}
	s := Sheet{
		Name: SheetAuthority,
		Columns: []Column{
			{"Category", 25}, {"Question", 50}, {"AI Full Answer", 80}, {"Found (True/False)", 15},
		},
	}
	for _, r := range results {
		s.Rows = append(s.Rows, []any{r.Category, r.Question, r.FullAnswer, strings.ToUpper(fmt.Sprint(found(r)))})
	}
	return Workbook{
		Filename: Filename(opts.Domain, opts.State, exports.VariantAuthority),
		Sheets:   []Sheet{s},
	}, nil
}

func promptTrackingSheet(results []evaluation.Result, brand string) Sheet {
	s := Sheet{
		Name: SheetPromptTracking,
		Columns: []Column{
			{"#", 6}, {"Category", 22}, {"Prompt", 60}, {"Brand Agnostic", 15},
			{"Mentions", 10}, {"Rank", 8}, {"Intent Match", 13}, {"Conversion", 12},
			{"Total Score", 12}, {"Notes", 40},
		},
	}
	for i, r := range results {
		sc := ScoreOf(r)
		s.Rows = append(s.Rows, []any{
			i + 1, r.Category, r.Question, yesNo(IsBrandAgnostic(r, brand)),
			sc.Mentions, sc.Rank, sc.IntentMatch, sc.Conversion, sc.Total, NoteFor(r),
		})
	}
	return s
}

func summarySheet(results []evaluation.Result, snap *metrics.Snapshot, competitors []CompetitorRow, zero []evaluation.Result, opts Options) Sheet {
	s := Sheet{
		Name:    SheetSummary,
		Columns: []Column{{"Metric", 40}, {"Value", 70}},
	}
	row := func(k string, v any) { s.Rows = append(s.Rows, []any{k, v}) }

	rate := VisibilityRate(results)
	metricsDate := "N/A"
	if !snap.CreatedAt.IsZero() {
		metricsDate = snap.CreatedAt.Format("2006-01-02 15:04")
	}

	row("Brand", opts.BrandName)
	row("Domain", opts.Domain)
	row("Location", opts.location())
	row("Report Generated", opts.GeneratedAt.Format("2006-01-02 15:04"))
	row("Metrics Generated", metricsDate)
	row("Total Questions", len(results))
	row("Answered Questions", len(Answered(results)))
	row("Brand Found", FoundCount(results))
	row("Overall Visibility Rate", fmt.Sprintf("%d%%", rate))
	row("Performance", PerformanceLabel(rate))
	row("Brand-Agnostic Prompts", len(BrandAgnostic(results, opts.BrandName)))
	row("Zero-Mention Prompts", len(zero))

	groups := []struct {
		label string
		g     *metrics.Group
	}{
		{"Brand-Agnostic", snap.BrandAgnostic},
		{"Brand-Included", snap.BrandIncluded},
	}
	for _, gr := range groups {
		if gr.g == nil {
			continue
		}
		row("", "")
		row(gr.label+" Total Prompts", gr.g.TotalPrompts)
		row(gr.label+" Mentions", gr.g.Mentions)
		row(gr.label+" Mention Rate", pct(gr.g.BrandMentionRate))
		row(gr.label+" Top 3 Position Rate", pct(gr.g.Top3PositionRate))
		row(gr.label+" Recommendation Rate", pct(gr.g.RecommendationRate))
		row(gr.label+" Zero Mention Count", gr.g.ZeroMentionCount)
		row(gr.label+" Sentiment (+ / = / -)", fmt.Sprintf("%d / %d / %d",
			gr.g.Sentiment.Positive, gr.g.Sentiment.Neutral, gr.g.Sentiment.Negative))
	}
	if len(snap.BrandFeatures) > 0 {
		row("", "")
		row("Brand Features", strings.Join(snap.BrandFeatures, ", "))
	}

	row("", "")
	row("Key Conclusions", "")
	for i, c := range Conclusions(rate, snap, competitors, len(zero)) {
		row(fmt.Sprintf("%d", i+1), c)
	}
	return s
}

func zeroMentionSheet(zero []evaluation.Result) Sheet {
	s := Sheet{
		Name: SheetZeroMention,
		Columns: []Column{
			{"#", 6}, {"Category", 22}, {"Prompt", 60}, {"AI Answer", 80}, {"Recommended Action", 45},
		},
	}
	for i, r := range zero {
		s.Rows = append(s.Rows, []any{i + 1, r.Category, r.Question, r.FullAnswer, recommendedAction})
	}
	return s
}

func competitorSheet(rows []CompetitorRow) Sheet {
	s := Sheet{
		Name: SheetCompetitors,
		Columns: []Column{
			{"Rank", 8}, {"Competitor", 30}, {"Answers Mentioning", 20},
			{"Reported Mentions", 20}, {"Share of Answers (%)", 22},
		},
	}
	for i, c := range rows {
		s.Rows = append(s.Rows, []any{i + 1, c.Name, c.Answers, c.Reported, c.Share})
	}
	return s
}

func allQnASheet(results []evaluation.Result) Sheet {
	s := Sheet{
		Name: SheetAllQnA,
		Columns: []Column{
			{"Category", 22}, {"Category Found Rate", 20}, {"Question", 60},
			{"AI Answer", 80}, {"Brand Found", 14}, {"Notes", 40},
		},
	}
	for _, sec := range Categories(results) {
		rate := fmt.Sprintf("%d%% (%d/%d)", sec.Rate, sec.Found, sec.Total)
		for _, r := range sec.Results {
			s.Rows = append(s.Rows, []any{sec.Name, rate, r.Question, r.FullAnswer, BrandFound(r), NoteFor(r)})
		}
	}
	return s
}

// BrandFound is the Q&A sheet marker for one row.
func BrandFound(r evaluation.Result) string {
	switch {
	case !r.HasAnswer():
		return BrandFoundPending
	case r.Found:
		return BrandFoundYes
	default:
		return BrandFoundNo
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func pct(v float64) string { return fmt.Sprintf("%.1f%%", v) }
