package pricing

import (
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMaxLinks caps how many candidate product links are followed per source.
const DefaultMaxLinks = 3

// nonProductPathHints mark URLs that are navigation, not product detail pages.
var nonProductPathHints = []string{
	"search", "suche", "cart", "warenkorb", "checkout", "kasse",
	"login", "account", "konto", "register", "wishlist", "merkzettel",
	"compare", "contact", "kontakt", "impressum", "datenschutz", "agb",
}

type scoredLink struct {
	url   string
	score int
}

// ExtractCandidateLinks scans anchors in a search result page, resolves
// them against pageURL, discards obvious non-product paths and anything
// carrying a query string, and returns the most title-relevant URLs,
// best first, capped at maxLinks (DefaultMaxLinks when <= 0).
func ExtractCandidateLinks(markup, pageURL string, matcher *TitleMatcher, maxLinks int) []string {
	if maxLinks <= 0 {
		maxLinks = DefaultMaxLinks
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	best := make(map[string]int)
	order := make([]string, 0, 16)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		resolved, ok := resolveProductLink(base, href)
		if !ok {
			return
		}
		text := strings.TrimSpace(sel.Text())
		score, relevant := matcher.Match(text + " " + resolved.Path)
		if !relevant {
			return
		}
		key := resolved.String()
		if prev, seen := best[key]; seen {
			if score > prev {
				best[key] = score
			}
			return
		}
		best[key] = score
		order = append(order, key)
	})

	ranked := make([]scoredLink, 0, len(order))
	for _, u := range order {
		ranked = append(ranked, scoredLink{url: u, score: best[u]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > maxLinks {
		ranked = ranked[:maxLinks]
	}
	out := make([]string, len(ranked))
	for i, l := range ranked {
		out[i] = l.url
	}
	return out
}

func resolveProductLink(base *url.URL, href string) (*url.URL, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return nil, false
	}
	resolved, err := base.Parse(href)
	if err != nil {
		return nil, false
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil, false
	}
	if resolved.RawQuery != "" {
		return nil, false
	}
	resolved.Fragment = ""
	if resolved.String() == base.String() {
		return nil, false
	}
	lowerPath := strings.ToLower(resolved.Path)
	for _, hint := range nonProductPathHints {
		if strings.Contains(lowerPath, hint) {
			return nil, false
		}
	}
	return resolved, true
}
