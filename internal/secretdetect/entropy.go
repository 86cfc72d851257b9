package secretdetect

import (
	"math"
)

// DefaultEntropyThreshold separates random-looking tokens from words.
// Lower than the usual base64 cutoff because header values are short.
const DefaultEntropyThreshold = 3.0

// CalculateEntropy calculates the Shannon entropy of a string in bits per rune.
func CalculateEntropy(s string) float64 {
	if s == "" {
		return 0
	}

	counts := make(map[rune]int)
	total := 0
	for _, r := range s {
		counts[r]++
		total++
	}

	length := float64(total)
	var entropy float64
	for _, count := range counts {
		freq := float64(count) / length
		entropy -= freq * math.Log2(freq)
	}

	return entropy
}
