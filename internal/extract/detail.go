package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/brogergvhs/mangasrc/internal/source"
)

type detailStrategy struct {
	name  string
	apply func(doc *goquery.Document, base, id string) *source.Detail
}

var detailStrategies = []detailStrategy{
	{"detail/info-box", detailFromInfoBox},
	{"detail/meta-tags", detailFromMetaTags},
}

// detailFromInfoBox reads the structured info box of a series page. Missing
// secondary fields stay empty; only a missing title sinks the strategy.
func detailFromInfoBox(doc *goquery.Document, base, id string) *source.Detail {
	title := cleanText(doc.Find("h1.entry-title, .post-title h1, .seriestitle, h1").First().Text())
	if title == "" {
		return nil
	}

	rec := &source.Detail{
		ID:          id,
		Title:       title,
		Description: cleanText(doc.Find(".entry-content-single, .summary__content, .description, .summary, [itemprop=description]").First().Text()),
		CoverURL:    Resolve(base, imageURL(doc.Find(".thumb img, .summary_image img, .infomanga img, .series-cover img").First())),
	}

	rec.Author = labeledValue(doc, "Author")
	rec.Artist = labeledValue(doc, "Artist")
	rec.Status = labeledValue(doc, "Status")
	if rec.Status == "" {
		rec.Status = cleanText(doc.Find(".status, .post-status .summary-content").First().Text())
	}

	doc.Find(".mgen a, .genres-content a, .seriestugenre a, a[rel=tag]").Each(func(_ int, a *goquery.Selection) {
		if g := cleanText(a.Text()); g != "" {
			rec.Genres = append(rec.Genres, g)
		}
	})

	return rec
}

// labeledValue finds "Label: value" rows in the usual info-table shapes.
func labeledValue(doc *goquery.Document, label string) string {
	var out string

	doc.Find(".imptdt, .fmed, .post-content_item, .infotable tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		text := cleanText(row.Text())
		if !strings.HasPrefix(strings.ToLower(text), strings.ToLower(label)) {
			return true
		}

		val := cleanText(row.Find("i, span, a, td:last-child, .summary-content").Last().Text())
		if val == "" {
			val = cleanText(strings.TrimPrefix(text, label))
			val = strings.TrimLeft(val, ": ")
		}
		if strings.EqualFold(val, label) {
			return true
		}

		out = val
		return out == ""
	})

	return out
}

// detailFromMetaTags is the fallback tier: OpenGraph metadata present on
// nearly every page even when the theme changes.
func detailFromMetaTags(doc *goquery.Document, base, id string) *source.Detail {
	title := attrFallback(doc.Find(`meta[property="og:title"]`), "content")
	if title == "" {
		title = cleanText(doc.Find("title").First().Text())
	}
	if title == "" {
		return nil
	}

	return &source.Detail{
		ID:          id,
		Title:       title,
		Description: attrFallback(doc.Find(`meta[property="og:description"], meta[name="description"]`).First(), "content"),
		CoverURL:    Resolve(base, attrFallback(doc.Find(`meta[property="og:image"]`), "content")),
	}
}
