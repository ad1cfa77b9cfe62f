package llm

import "strings"

// turkishStopwords are common function words used as a fallback signal when
// the text contains no Turkish-specific characters.
var turkishStopwords = []string{"bir", "ve", "bu", "için", "ile", "var", "olan", "gibi", "daha", "çok"}

// IsTurkish reports whether the text looks Turkish, from its script first
// and common stopwords second.
func IsTurkish(text string) bool {
	if strings.ContainsAny(text, "ğüşıöçĞÜŞİÖÇ") {
		return true
	}

	lower := strings.ToLower(text)
	hits := 0
	for _, w := range turkishStopwords {
		if strings.Contains(lower, w) {
			hits++
		}
	}
	return hits >= 2
}
