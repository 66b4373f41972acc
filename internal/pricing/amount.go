package pricing

import (
	"math"
	"strconv"
	"strings"
)

// MaxPrice bounds accepted samples: anything above is treated as garbage
// pulled from unrelated markup (article numbers, timestamps).
const MaxPrice = 1_000_000

// NormalizeAmount parses a raw numeric-looking substring into a price.
// Separator handling: when both "," and "." appear, the right-most one is
// the decimal point and the other marks thousands; a lone "," is treated
// as the decimal point. Values outside (0, MaxPrice] are rejected.
func NormalizeAmount(raw string) (float64, bool) {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, false
	}

	lastSep := strings.LastIndexAny(cleaned, ",.")
	if lastSep >= 0 {
		head := strings.Map(dropSeparators, cleaned[:lastSep])
		tail := cleaned[lastSep+1:]
		if strings.ContainsAny(tail, ",.") {
			return 0, false
		}
		cleaned = head + "." + tail
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	value = round2(value)
	if value <= 0 || value > MaxPrice {
		return 0, false
	}
	return value, true
}

func dropSeparators(r rune) rune {
	if r == ',' || r == '.' {
		return -1
	}
	return r
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
