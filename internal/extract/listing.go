package extract

import (
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"github.com/brogergvhs/mangasrc/internal/source"
)

type listingStrategy struct {
	name  string
	apply func(doc *goquery.Document, base string) []source.Listing
}

// Ordered most specific first. The generic article strategy is the only one
// allowed to fall back to "any img tag" for covers.
var listingStrategies = []listingStrategy{
	{"listing/card-grid", listingsFromCards},
	{"listing/series-links", listingsFromSeriesLinks},
	{"listing/article-blocks", listingsFromArticles},
}

var reChapterHint = regexp.MustCompile(`(?i)(?:chapter|ch\.?)\s*0*(\d+)`)

// listingsFromCards matches the card-grid containers most themes render
// search results into.
func listingsFromCards(doc *goquery.Document, base string) []source.Listing {
	var out []source.Listing

	doc.Find("div.bsx, div.page-item-detail, div.manga-item, div.book-item").Each(func(_ int, card *goquery.Selection) {
		a := card.Find("a[href]").First()
		href := attrFallback(a, "href")
		id := Resolve(base, href)
		if id == "" {
			return
		}

		title := attrFallback(a, "title")
		if title == "" {
			title = cleanText(card.Find(".tt, .post-title, h3, h4").First().Text())
		}

		rec := source.Listing{
			ID:       id,
			Title:    title,
			CoverURL: Resolve(base, imageURL(card.Find("img").First())),
		}

		if m := reChapterHint.FindStringSubmatch(card.Find(".epxs, .chapter, .latest-chap").Text()); m != nil {
			rec.ChapterCount, _ = strconv.Atoi(m[1])
		}

		out = append(out, rec)
	})

	return out
}

// listingsFromSeriesLinks matches anchors whose class or path marks them as
// series links, for themes without card containers.
func listingsFromSeriesLinks(doc *goquery.Document, base string) []source.Listing {
	var out []source.Listing
	seen := map[string]bool{}

	doc.Find(`a.series, a[href*="/manga/"], a[href*="/series/"]`).Each(func(_ int, a *goquery.Selection) {
		href := attrFallback(a, "href")
		id := Resolve(base, href)
		if id == "" || seen[id] {
			return
		}

		title := attrFallback(a, "title")
		if title == "" {
			title = cleanText(a.Text())
		}
		if title == "" {
			return
		}

		seen[id] = true
		out = append(out, source.Listing{
			ID:       id,
			Title:    title,
			CoverURL: Resolve(base, imageURL(a.Find("img").First())),
		})
	})

	return out
}

// listingsFromArticles is the lowest tier: generic article blocks, covers
// from whatever img tag is structurally adjacent.
func listingsFromArticles(doc *goquery.Document, base string) []source.Listing {
	var out []source.Listing

	doc.Find("article").Each(func(_ int, block *goquery.Selection) {
		a := block.Find("a[href]").First()
		id := Resolve(base, attrFallback(a, "href"))
		if id == "" {
			return
		}

		img := block.Find("img").First()
		title := cleanText(block.Find("h1, h2, h3, h4").First().Text())
		if title == "" {
			title = attrFallback(a, "title")
		}
		if title == "" {
			title = attrFallback(img, "alt")
		}

		out = append(out, source.Listing{
			ID:       id,
			Title:    title,
			CoverURL: Resolve(base, imageURL(img)),
		})
	})

	return out
}
