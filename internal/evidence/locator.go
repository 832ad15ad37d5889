// Package evidence finds the text snippet and page that support an
// extracted value. Every search is best effort: it runs in time linear in
// the document length and always returns a usable result.
package evidence

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	windowBefore   = 100
	windowAfter    = 200
	fuzzyRadius    = 200
	fallbackLength = 200
	minTokenLength = 3
	pagePrefix     = 30
	headerPrefix   = 20
)

// Strategy records which search step produced a snippet.
type Strategy string

const (
	StrategyExact           Strategy = "exact"
	StrategyCaseInsensitive Strategy = "case_insensitive"
	StrategyFuzzy           Strategy = "fuzzy"
	StrategyFallback        Strategy = "fallback"
	StrategyNone            Strategy = "none"
)

type Match struct {
	Snippet  string
	Page     int
	Strategy Strategy
}

// Found reports whether the snippet is anchored on the value rather than
// being the document-start fallback.
func (m Match) Found() bool {
	return m.Strategy != StrategyFallback && m.Strategy != StrategyNone
}

// Locate finds supporting text for value in doc and resolves its page.
func Locate(value any, doc Document) Match {
	needle := needleOf(value)
	snippet, strategy := FindSnippet(needle, doc.SearchText())
	return Match{Snippet: snippet, Page: ResolvePage(snippet, doc), Strategy: strategy}
}

// FindSnippet searches text for needle: exact match, then case-insensitive,
// then a token scan keeping the occurrence with the widest context, and
// finally the start of the document.
func FindSnippet(needle, text string) (string, Strategy) {
	if text == "" {
		return "", StrategyNone
	}
	needle = strings.TrimSpace(needle)
	if needle != "" {
		if i := strings.Index(text, needle); i >= 0 {
			return window(text, i-windowBefore, i+len(needle)+windowAfter), StrategyExact
		}
		lowerText := lowerASCII(text)
		lowerNeedle := lowerASCII(needle)
		if i := strings.Index(lowerText, lowerNeedle); i >= 0 {
			return window(text, i-windowBefore, i+len(needle)+windowAfter), StrategyCaseInsensitive
		}
		if s, ok := fuzzyScan(lowerText, text, lowerNeedle); ok {
			return s, StrategyFuzzy
		}
	}
	return window(text, 0, fallbackLength), StrategyFallback
}

// fuzzyScan visits every occurrence of every significant needle token and
// keeps the one with the largest surrounding window.
func fuzzyScan(lowerText, text, lowerNeedle string) (string, bool) {
	bestStart, bestEnd := -1, -1
	for _, tok := range tokens(lowerNeedle) {
		from := 0
		for {
			i := strings.Index(lowerText[from:], tok)
			if i < 0 {
				break
			}
			i += from
			start := max(0, i-fuzzyRadius)
			end := min(len(text), i+len(tok)+fuzzyRadius)
			if end-start > bestEnd-bestStart {
				bestStart, bestEnd = start, end
			}
			from = i + len(tok)
		}
	}
	if bestStart < 0 {
		return "", false
	}
	return window(text, bestStart, bestEnd), true
}

// ResolvePage maps a snippet to a page: direct containment, then a
// prefix match against page text, then (for PDFs) a prefix match against
// section headers, else page 1.
func ResolvePage(snippet string, doc Document) int {
	snippet = strings.TrimSpace(snippet)
	if snippet == "" || len(doc.Pages) == 0 {
		return headerPage(snippet, doc)
	}
	pages := doc.pageNumbers()
	for _, n := range pages {
		if strings.Contains(doc.Pages[n], snippet) {
			return n
		}
	}
	prefix := lowerASCII(runePrefix(snippet, pagePrefix))
	for _, n := range pages {
		if strings.Contains(lowerASCII(doc.Pages[n]), prefix) {
			return n
		}
	}
	return headerPage(snippet, doc)
}

func headerPage(snippet string, doc Document) int {
	if doc.Kind == KindPDF && snippet != "" {
		lowerSnippet := lowerASCII(snippet)
		for _, s := range doc.Sections {
			h := lowerASCII(runePrefix(strings.TrimSpace(s.Header), headerPrefix))
			if h != "" && strings.Contains(lowerSnippet, h) && s.Page > 0 {
				return s.Page
			}
		}
	}
	return 1
}

func needleOf(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return ""
	}
	return ""
}

func tokens(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, f := range strings.FieldsFunc(s, func(r rune) bool {
		return !(r == '.' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 0x80)
	}) {
		f = strings.Trim(f, ".")
		if len(f) < minTokenLength || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// window returns text[start:end] clamped to the text and widened to rune
// boundaries.
func window(text string, start, end int) string {
	start = max(0, start)
	end = min(len(text), end)
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	if start >= end {
		return ""
	}
	return strings.TrimSpace(text[start:end])
}

func runePrefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// lowerASCII lower-cases ASCII letters only, so byte offsets stay valid
// against the original text.
func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}
