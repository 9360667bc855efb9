package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// numericUnitRe matches a digit count immediately before "unit"/"dwelling",
	// tolerating parentheses and hyphens: "19 unit", "(8) dwelling units",
	// "12-unit".
	numericUnitRe = regexp.MustCompile(`\(?(\d+)\)?[\s-]+(?:unit|dwelling)s?\b`)

	// numericFamilyRe matches a digit count before "family"/"household":
	// "8-family", "19 family", "eight (8) family".
	numericFamilyRe = regexp.MustCompile(`\(?(\d+)\)?[\s-]*(?:family|household)`)

	// wordNumberRes maps a word-number pattern to its value. The word must be
	// followed somewhere later in the text by family/dwelling/unit, so "triple
	// the lot width" alone never counts.
	wordNumberRes = buildWordNumberRes()
)

type wordNumberRe struct {
	re *regexp.Regexp
	n  int
}

func buildWordNumberRes() []wordNumberRe {
	words := []struct {
		word string
		n    int
	}{
		{"single", 1}, {"one", 1},
		{"two", 2}, {"double", 2},
		{"three", 3}, {"triple", 3},
		{"four", 4}, {"quad", 4},
		{"five", 5}, {"six", 6}, {"seven", 7}, {"eight", 8}, {"nine", 9},
		{"ten", 10}, {"eleven", 11}, {"twelve", 12}, {"thirteen", 13},
		{"fourteen", 14}, {"fifteen", 15}, {"sixteen", 16}, {"seventeen", 17},
		{"eighteen", 18}, {"nineteen", 19}, {"twenty", 20},
	}

	res := make([]wordNumberRe, len(words))
	for i, w := range words {
		res[i] = wordNumberRe{
			re: regexp.MustCompile(fmt.Sprintf(`\b%s\b.*?(?:family|dwelling|unit)`, w.word)),
			n:  w.n,
		}
	}
	return res
}

// ExtractUnitCount mines a free-text permit or appeal description for a
// residential unit count. It never fails: empty input and texts with no
// recognizable phrasing both yield Unset.
//
// Three heuristics each contribute candidates over the lower-cased text:
// digits adjacent to unit/dwelling, digits adjacent to family/household, and
// word-numbers ("single" through "twenty", plus double/triple/quad) followed
// later by family/dwelling/unit. The maximum candidate wins, treating the
// largest stated count as the most specific. This favors catching large
// developments over precision; an unrelated number in the text can win, which
// is an accepted trade-off for digest ranking.
func ExtractUnitCount(text string) UnitCount {
	if text == "" {
		return Unset()
	}

	lower := strings.ToLower(text)
	var candidates []int

	for _, m := range numericUnitRe.FindAllStringSubmatch(lower, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil {
			candidates = append(candidates, n)
		}
	}
	for _, m := range numericFamilyRe.FindAllStringSubmatch(lower, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil {
			candidates = append(candidates, n)
		}
	}
	for _, w := range wordNumberRes {
		if w.re.MatchString(lower) {
			candidates = append(candidates, w.n)
		}
	}

	if len(candidates) == 0 {
		return Unset()
	}

	best := candidates[0]
	for _, n := range candidates[1:] {
		if n > best {
			best = n
		}
	}
	return Known(best)
}
