package util

import (
	"regexp"
	"strings"
)

// Delimiter joins players, scores and winners inside one cell.
const Delimiter = "+"

var reSpaces = regexp.MustCompile(`\s+`)

// SplitTokens splits a delimited cell into trimmed, non-empty tokens.
func SplitTokens(cell string) []string {
	parts := strings.Split(cell, Delimiter)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NormalizeHeader lower-cases a column header and collapses whitespace so
// "  Date " and "date" address the same column.
func NormalizeHeader(input string) string {
	s := strings.ToLower(strings.ReplaceAll(input, "\u00A0", " "))
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// ClosestMatch returns the candidate most similar to input, or "" when none
// scores at least minScore.
func ClosestMatch(input string, candidates []string, minScore float64) string {
	best := ""
	bestScore := minScore
	needle := strings.ToLower(input)
	for _, c := range candidates {
		score := DiceCoefficient(needle, strings.ToLower(c))
		if score >= bestScore {
			best = c
			bestScore = score
		}
	}
	return best
}

func DiceCoefficient(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	pairs := func(s string) []string {
		r := []rune(s)
		if len(r) < 2 {
			return nil
		}
		out := make([]string, 0, len(r)-1)
		for i := 0; i < len(r)-1; i++ {
			out = append(out, string(r[i:i+2]))
		}
		return out
	}

	aPairs := pairs(a)
	bPairs := pairs(b)
	if len(aPairs) == 0 || len(bPairs) == 0 {
		return 0
	}

	bCount := map[string]int{}
	for _, p := range bPairs {
		bCount[p]++
	}
	inter := 0
	for _, p := range aPairs {
		if bCount[p] > 0 {
			inter++
			bCount[p]--
		}
	}

	return float64(2*inter) / float64(len(aPairs)+len(bPairs))
}

