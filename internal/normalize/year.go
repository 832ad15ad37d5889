package normalize

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	MinYear = 1900
	MaxYear = 2100
)

var (
	// 2023-24, 2023/24, 2023–2024
	yearRange = regexp.MustCompile(`((?:19|20)\d{2})\s*[-–/]\s*(\d{2}|\d{4})\b`)
	digitRun  = regexp.MustCompile(`\d+`)
)

// ParseYear reads a year from a value. Academic-year ranges resolve to
// their ending year ("2023-24" is 2024). Numbers are accepted when they
// are whole and inside [MinYear, MaxYear].
func ParseYear(v any) (int, bool) {
	switch x := v.(type) {
	case float64:
		return wholeYear(x)
	case int:
		return wholeYear(float64(x))
	case int64:
		return wholeYear(float64(x))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return wholeYear(f)
	case string:
		return parseYearString(x)
	}
	return 0, false
}

// ParseStartYear is ParseYear except that an academic-year range resolves
// to its starting year ("2023-24" is 2023).
func ParseStartYear(v any) (int, bool) {
	if s, ok := v.(string); ok {
		if m := yearRange.FindStringSubmatch(s); m != nil {
			if _, ok := rangeEnd(m[1], m[2]); ok {
				y, _ := strconv.Atoi(m[1])
				return y, true
			}
		}
	}
	return ParseYear(v)
}

func parseYearString(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if m := yearRange.FindStringSubmatch(s); m != nil {
		if y, ok := rangeEnd(m[1], m[2]); ok {
			return y, true
		}
	}
	for _, tok := range digitRun.FindAllString(s, -1) {
		if len(tok) != 4 {
			continue
		}
		y, _ := strconv.Atoi(tok)
		if inRange(y) {
			return y, true
		}
	}
	return 0, false
}

// Years returns every year mentioned in s: each standalone four digit
// year plus the ending year of every academic-year range.
func Years(s string) []int {
	var out []int
	for _, m := range yearRange.FindAllStringSubmatch(s, -1) {
		if y, ok := rangeEnd(m[1], m[2]); ok {
			out = append(out, y)
		}
	}
	for _, tok := range digitRun.FindAllString(s, -1) {
		if len(tok) != 4 {
			continue
		}
		if y, _ := strconv.Atoi(tok); inRange(y) {
			out = append(out, y)
		}
	}
	return out
}

func rangeEnd(startTok, endTok string) (int, bool) {
	start, _ := strconv.Atoi(startTok)
	end, _ := strconv.Atoi(endTok)
	if len(endTok) == 2 {
		century := start / 100 * 100
		end += century
		if end < start {
			end += 100
		}
	}
	if !inRange(end) || end < start {
		return 0, false
	}
	return end, true
}

func wholeYear(f float64) (int, bool) {
	if f != math.Trunc(f) {
		return 0, false
	}
	y := int(f)
	return y, inRange(y)
}

func inRange(y int) bool { return y >= MinYear && y <= MaxYear }
