package pricing

import (
	"fmt"
	"regexp"
)

// Sanity filter window relative to the retailer's own price: samples
// outside [0.35r, 2.8r] are almost always a different product or bundle.
const (
	sanityLowerFactor = 0.35
	sanityUpperFactor = 2.8
)

// priceRules is the ordered set of extraction patterns applied to the
// whole markup. Each rule is independent; matches are unioned and
// de-duplicated at two-decimal precision.
var priceRules = []*regexp.Regexp{
	// JSON-LD / embedded state: "price":"179.00" or "price": 179.00
	regexp.MustCompile(`(?i)"price"\s*:\s*"?([0-9][0-9.,]*)`),
	// Microdata: itemprop="price" content="179.00" (either attribute order)
	regexp.MustCompile(`(?i)itemprop=["']price["'][^>]*content=["']([0-9][0-9.,]*)["']`),
	regexp.MustCompile(`(?i)content=["']([0-9][0-9.,]*)["'][^>]*itemprop=["']price["']`),
	// Shop-system data attributes: data-price="179.00", data-price-amount="179"
	regexp.MustCompile(`(?i)data-price(?:-amount)?=["']([0-9][0-9.,]*)["']`),
	// Currency-adjacent numbers: 179,00 € / €179.00 / EUR 179
	regexp.MustCompile(`([0-9][0-9.,]*)\s*(?:€|&euro;|EUR)`),
	regexp.MustCompile(`(?:€|&euro;|EUR)\s*([0-9][0-9.,]*)`),
}

// ExtractPrices pulls every plausible price from markup. When a positive
// reference price is supplied the result is filtered to the sanity window;
// if filtering would remove every sample the unfiltered set is returned
// instead and filterBypassed is true, so a mismatched page never produces
// an empty result purely because of the filter.
func ExtractPrices(markup string, referencePrice float64) (prices []float64, filterBypassed bool) {
	seen := make(map[string]struct{})
	for _, rule := range priceRules {
		for _, match := range rule.FindAllStringSubmatch(markup, -1) {
			amount, ok := NormalizeAmount(match[1])
			if !ok {
				continue
			}
			key := fmt.Sprintf("%.2f", amount)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			prices = append(prices, amount)
		}
	}

	if referencePrice <= 0 || len(prices) == 0 {
		return prices, false
	}

	low := referencePrice * sanityLowerFactor
	high := referencePrice * sanityUpperFactor
	filtered := make([]float64, 0, len(prices))
	for _, p := range prices {
		if p >= low && p <= high {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) == 0 {
		return prices, true
	}
	return filtered, false
}

// Summarize folds a non-empty sample pool into lowest/average/highest.
func Summarize(samples []float64) PriceStats {
	stats := PriceStats{
		Lowest:  samples[0],
		Highest: samples[0],
		Samples: len(samples),
	}
	sum := 0.0
	for _, s := range samples {
		if s < stats.Lowest {
			stats.Lowest = s
		}
		if s > stats.Highest {
			stats.Highest = s
		}
		sum += s
	}
	stats.Lowest = round2(stats.Lowest)
	stats.Highest = round2(stats.Highest)
	stats.Average = round2(sum / float64(len(samples)))
	return stats
}
