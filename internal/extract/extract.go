// Package extract recovers structured records from unstable, semi-structured
// markup. Each record kind has an ordered list of independent strategies;
// the first strategy producing at least one candidate wins and the rest are
// skipped, so incompatible partial matches are never merged. Extraction
// never fails: malformed input degrades to an empty result.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/brogergvhs/mangasrc/internal/source"
)

func parse(markup string) (*goquery.Document, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, false
	}
	return doc, true
}

// Listings extracts search/popular listing records. Returns the records and
// the name of the strategy tier that produced them, for diagnostics.
func Listings(markup, base string) ([]source.Listing, string) {
	doc, ok := parse(markup)
	if !ok {
		return nil, ""
	}

	for _, st := range listingStrategies {
		if recs := st.apply(doc, base); len(recs) > 0 {
			return recs, st.name
		}
	}
	return nil, ""
}

// Detail extracts a single detail-page record, or nil if nothing usable was
// found.
func Detail(markup, base, id string) (*source.Detail, string) {
	doc, ok := parse(markup)
	if !ok {
		return nil, ""
	}

	for _, st := range detailStrategies {
		if rec := st.apply(doc, base, id); rec != nil {
			return rec, st.name
		}
	}
	return nil, ""
}

// Chapters extracts a chapter list from a series page.
func Chapters(markup, base string) ([]source.Chapter, string) {
	doc, ok := parse(markup)
	if !ok {
		return nil, ""
	}

	for _, st := range chapterStrategies {
		if recs := st.apply(doc, base); len(recs) > 0 {
			return recs, st.name
		}
	}
	return nil, ""
}

// Pages extracts the page-image gallery of a chapter. Strategies also mine
// embedded reader script state, so this one gets the raw markup alongside
// the parsed document.
func Pages(markup, base string) ([]source.Page, string) {
	doc, ok := parse(markup)
	if !ok {
		return nil, ""
	}

	for _, st := range pageStrategies {
		if recs := st.apply(doc, markup, base); len(recs) > 0 {
			return recs, st.name
		}
	}
	return nil, ""
}

// attrFallback returns the first non-empty value among the given attribute
// names.
func attrFallback(sel *goquery.Selection, names ...string) string {
	for _, n := range names {
		if v, ok := sel.Attr(n); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// imageURL mines an img tag with the usual lazy-load fallback chain.
func imageURL(img *goquery.Selection) string {
	if img.Length() == 0 {
		return ""
	}
	if v := attrFallback(img, "data-src", "data-lazy-src", "data-original"); v != "" {
		return v
	}
	if srcset, ok := img.Attr("srcset"); ok {
		if first := strings.TrimSpace(strings.Split(srcset, ",")[0]); first != "" {
			return strings.Fields(first)[0]
		}
	}
	return attrFallback(img, "src")
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
