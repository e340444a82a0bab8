package matching

import (
	"iter"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind classifies a span of answer text for display.
type Kind string

const (
	KindPlain        Kind = "plain"
	KindTarget       Kind = "target"
	KindExternalLink Kind = "external-link"
)

// Token is one span of a tokenized answer.
type Token struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// minTermLength in characters: shorter terms are never highlighted.
const minTermLength = 3

var (
	linkPattern   = regexp.MustCompile(`(?i)(https?://\S+|[a-z0-9-]+\.(com|net|org|edu|gov|io|biz|info|co|uk|ca|au|in|us|me|tv|ai|app)\S*)`)
	trailingPunct = regexp.MustCompile(`[.,!?;:]+$`)
)

// Tokenize splits text into whitespace runs and words and classifies every
// word as a target mention, an external link or plain text. A target match
// wins over a link match. The returned sequence holds no state of its own and
// can be ranged over any number of times.
func Tokenize(text string, targetTerms []string) iter.Seq[Token] {
	target := targetPattern(targetTerms)
	return func(yield func(Token) bool) {
		for _, part := range splitKeepSpace(text) {
			if !yield(classify(part, target)) {
				return
			}
		}
	}
}

// Collect drains a token sequence into a slice.
func Collect(seq iter.Seq[Token]) []Token {
	var out []Token
	for tok := range seq {
		out = append(out, tok)
	}
	return out
}

func targetPattern(terms []string) *regexp.Regexp {
	var quoted []string
	for _, t := range terms {
		if utf8.RuneCountInString(t) < minTermLength {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(t))
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)(` + strings.Join(quoted, "|") + `)`)
}

func classify(part string, target *regexp.Regexp) Token {
	if strings.TrimSpace(part) == "" {
		return Token{Kind: KindPlain, Text: part}
	}
	clean := trailingPunct.ReplaceAllString(part, "")
	switch {
	case target != nil && target.MatchString(clean):
		return Token{Kind: KindTarget, Text: part}
	case linkPattern.MatchString(clean):
		return Token{Kind: KindExternalLink, Text: part}
	default:
		return Token{Kind: KindPlain, Text: part}
	}
}

// splitKeepSpace cuts text at whitespace boundaries, keeping the whitespace
// runs as their own parts.
func splitKeepSpace(text string) []string {
	var parts []string
	start := 0
	inSpace := false
	for i, r := range text {
		space := unicode.IsSpace(r)
		if i == 0 {
			inSpace = space
			continue
		}
		if space != inSpace {
			parts = append(parts, text[start:i])
			start = i
			inSpace = space
		}
	}
	if start < len(text) {
		parts = append(parts, text[start:])
	}
	return parts
}
