package csv

import "strings"

// DetectDelimiter detects the CSV delimiter by analyzing the first few lines.
// The candidate with the highest, most consistent per-line count wins.
func DetectDelimiter(content string) Delimiter {
	lines := strings.Split(content, "\n")

	sampleLines := make([]string, 0, 5)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			sampleLines = append(sampleLines, trimmed)
			if len(sampleLines) >= 5 {
				break
			}
		}
	}
	if len(sampleLines) == 0 {
		return DelimiterComma
	}

	delimiters := []Delimiter{DelimiterComma, DelimiterSemicolon, DelimiterTab}
	best := DelimiterComma
	maxConsistency := 0.0

	for _, delim := range delimiters {
		counts := make([]int, 0, len(sampleLines))
		for _, line := range sampleLines {
			counts = append(counts, strings.Count(line, string(delim)))
		}

		sum := 0
		for _, c := range counts {
			sum += c
		}
		avg := float64(sum) / float64(len(counts))
		if avg == 0 {
			continue
		}

		variance := 0.0
		for _, c := range counts {
			diff := float64(c) - avg
			variance += diff * diff
		}
		variance /= float64(len(counts))

		consistency := avg / (1.0 + variance)
		if consistency > maxConsistency {
			maxConsistency = consistency
			best = delim
		}
	}
	return best
}
