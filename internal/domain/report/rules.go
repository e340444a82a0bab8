package report

import (
	"math"
	"sort"
	"strings"

	"github.com/bryanwahyu/geo-authority/internal/domain/evaluation"
	"github.com/bryanwahyu/geo-authority/internal/domain/matching"
)

// NA marks a score cell that does not apply.
const NA = "NA"

const (
	noteNoMention      = "No mention"
	noteNotRecommended = "not recommended, Competition recommend."
	noteNegative       = "Negative review from regulatory."
)

// Score is the per-question contribution to the tracking sheet.
// Rank and IntentMatch hold either an int or NA.
type Score struct {
	Mentions    int
	Rank        any
	IntentMatch any
	Conversion  int
	Total       int
}

func found(r evaluation.Result) bool { return r.Found && r.HasAnswer() }

// ScoreOf derives the score row of one result.
func ScoreOf(r evaluation.Result) Score {
	f := found(r)
	s := Score{Rank: NA, IntentMatch: NA}
	if f {
		s.Mentions = 1
		s.Rank = 1
		s.Conversion = 1
	}
	if r.HasAnswer() {
		s.IntentMatch = boolInt(f)
	}
	if f {
		// found implies an answer, so every part is numeric here
		s.Total = s.Mentions + 1 + s.IntentMatch.(int) + s.Conversion
	}
	return s
}

// NoteFor returns the notes cell; the first matching rule wins.
func NoteFor(r evaluation.Result) string {
	switch {
	case !found(r):
		return noteNoMention
	case matching.ContainsFold(r.FullAnswer, "not recommended"):
		return noteNotRecommended
	case matching.ContainsFold(r.FullAnswer, "negative"):
		return noteNegative
	default:
		return ""
	}
}

// Answered keeps rows with an answer.
func Answered(results []evaluation.Result) []evaluation.Result {
	var out []evaluation.Result
	for _, r := range results {
		if r.HasAnswer() {
			out = append(out, r)
		}
	}
	return out
}

// IsBrandAgnostic reports a question whose text does not name the brand.
func IsBrandAgnostic(r evaluation.Result, brand string) bool {
	return !matching.ContainsFold(r.Question, brand)
}

// BrandAgnostic keeps answered rows whose question does not name the brand.
func BrandAgnostic(results []evaluation.Result, brand string) []evaluation.Result {
	var out []evaluation.Result
	for _, r := range Answered(results) {
		if IsBrandAgnostic(r, brand) {
			out = append(out, r)
		}
	}
	return out
}

// ZeroMention keeps brand-agnostic rows whose answer does not name the brand.
func ZeroMention(results []evaluation.Result, brand string) []evaluation.Result {
	var out []evaluation.Result
	for _, r := range BrandAgnostic(results, brand) {
		if !matching.ContainsFold(r.FullAnswer, brand) {
			out = append(out, r)
		}
	}
	return out
}

// FoundCount counts rows whose answer mentioned the brand.
func FoundCount(results []evaluation.Result) int {
	n := 0
	for _, r := range results {
		if found(r) {
			n++
		}
	}
	return n
}

// VisibilityRate is the rounded share of found rows over all rows.
func VisibilityRate(results []evaluation.Result) int {
	return percent(FoundCount(results), len(results))
}

// PerformanceLabel buckets a visibility rate.
func PerformanceLabel(rate int) string {
	switch {
	case rate >= 70:
		return "Excellent"
	case rate >= 50:
		return "Good"
	case rate >= 25:
		return "Needs Work"
	default:
		return "Critical"
	}
}

// CategorySection is one category block of the Q&A sheet.
type CategorySection struct {
	Name    string
	Found   int
	Total   int
	Rate    int
	Results []evaluation.Result
}

// Categories groups rows by category, sections ordered by name and rows in
// their original order.
func Categories(results []evaluation.Result) []CategorySection {
	byName := map[string][]evaluation.Result{}
	for _, r := range results {
		byName[r.Category] = append(byName[r.Category], r)
	}
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]CategorySection, 0, len(names))
	for _, n := range names {
		rows := byName[n]
		f := FoundCount(rows)
		out = append(out, CategorySection{
			Name:    n,
			Found:   f,
			Total:   len(rows),
			Rate:    percent(f, len(rows)),
			Results: rows,
		})
	}
	return out
}

// DefaultCompetitors are directories and marketplaces that local-service
// answers tend to cite.
var DefaultCompetitors = []string{
	"Yelp",
	"Angi",
	"Angie's List",
	"HomeAdvisor",
	"Thumbtack",
	"Nextdoor",
	"Houzz",
	"Porch",
	"Bark",
	"TaskRabbit",
	"Better Business Bureau",
	"Google Business Profile",
}

// CompetitorRow is one line of the competitor sheet.
type CompetitorRow struct {
	Name     string
	Answers  int
	Reported int
	Share    int
}

// Competitors counts answers naming each supplied or known competitor.
// Zero-count names are dropped; rows are sorted by count, then name.
func Competitors(results []evaluation.Result, supplied map[string]int, known []string, brand string) []CompetitorRow {
	var names []string
	seen := map[string]bool{}
	add := func(n string) {
		key := strings.ToLower(strings.TrimSpace(n))
		if key == "" || seen[key] || (brand != "" && key == strings.ToLower(brand)) {
			return
		}
		seen[key] = true
		names = append(names, strings.TrimSpace(n))
	}
	suppliedNames := make([]string, 0, len(supplied))
	for n := range supplied {
		suppliedNames = append(suppliedNames, n)
	}
	sort.Strings(suppliedNames)
	for _, n := range suppliedNames {
		add(n)
	}
	for _, n := range known {
		add(n)
	}

	answered := Answered(results)
	var rows []CompetitorRow
	for _, n := range names {
		count := 0
		for _, r := range answered {
			if matching.ContainsFold(r.FullAnswer, n) {
				count++
			}
		}
		if count == 0 {
			continue
		}
		rows = append(rows, CompetitorRow{
			Name:     n,
			Answers:  count,
			Reported: supplied[n],
			Share:    percent(count, len(answered)),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Answers != rows[j].Answers {
			return rows[i].Answers > rows[j].Answers
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
