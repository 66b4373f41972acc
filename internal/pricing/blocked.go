package pricing

import "strings"

// blockSignals are markers of anti-bot interstitials and denial pages.
// Matching is a case-insensitive substring scan, cheapest first.
var blockSignals = []string{
	"captcha",
	"cf-challenge",
	"just a moment",
	"attention required",
	"access denied",
	"rate limit",
	"too many requests",
	"are you a robot",
	"are you human",
	"bot detection",
	"pardon our interruption",
	"ddos protection",
}

// DetectBlockSignal scans markup for anti-bot signals and returns the
// first one found. A block is a property of the source/IP pair, so the
// caller stops querying that source for the current product.
func DetectBlockSignal(markup string) (string, bool) {
	lower := strings.ToLower(markup)
	for _, signal := range blockSignals {
		if strings.Contains(lower, signal) {
			return signal, true
		}
	}
	return "", false
}
