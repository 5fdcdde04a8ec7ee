package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/brogergvhs/mangasrc/internal/source"
)

type pageStrategy struct {
	name  string
	apply func(doc *goquery.Document, raw, base string) []source.Page
}

var pageStrategies = []pageStrategy{
	{"pages/reader-area", pagesFromReaderArea},
	{"pages/script-state", pagesFromScriptState},
	{"pages/any-img", pagesFromAnyImg},
}

var (
	reImageExt   = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|webp|gif)(?:\?[^"']*)?$`)
	reImageArray = regexp.MustCompile(`(?s)"(?:images|sources?)"\s*:\s*\[(.*?)\]`)
	reQuotedURL  = regexp.MustCompile(`"(https?:\\?/\\?/[^"]+?\.(?:jpe?g|png|webp))"`)
	reLooseURL   = regexp.MustCompile(`https?://[^\s"'<>\\]+?\.(?:jpe?g|png|webp)`)
)

// skip obvious chrome images so a site logo never becomes page one
var skipImageWords = []string{"logo", "cover", "profile", "avatar", "banner"}

func isPageImage(u string) bool {
	lu := strings.ToLower(u)
	if u == "" || strings.HasPrefix(lu, "data:") || strings.HasPrefix(lu, "javascript:") {
		return false
	}
	if !reImageExt.MatchString(lu) {
		return false
	}
	for _, w := range skipImageWords {
		if strings.Contains(lu, w) {
			return false
		}
	}
	return true
}

// pageCollector dedupes and indexes candidates in discovery order.
type pageCollector struct {
	pages []source.Page
	seen  map[string]bool
}

func newPageCollector() *pageCollector {
	return &pageCollector{seen: map[string]bool{}}
}

func (c *pageCollector) add(u string) {
	if !isPageImage(u) || c.seen[u] {
		return
	}
	c.seen[u] = true
	c.pages = append(c.pages, source.Page{URL: u, Index: len(c.pages)})
}

// pagesFromReaderArea matches the dedicated reader containers.
func pagesFromReaderArea(doc *goquery.Document, _ string, base string) []source.Page {
	col := newPageCollector()

	doc.Find("#readerarea img, .reading-content img, .container-chapter-reader img, .chapter-images img").Each(func(_ int, img *goquery.Selection) {
		col.add(Resolve(base, imageURL(img)))
	})

	return col.pages
}

// pagesFromScriptState mines reader state embedded in script tags: image
// arrays in reader config JSON, then loose image URLs anywhere in scripts.
func pagesFromScriptState(doc *goquery.Document, raw, base string) []source.Page {
	col := newPageCollector()

	if m := reImageArray.FindStringSubmatch(raw); m != nil {
		for _, q := range reQuotedURL.FindAllStringSubmatch(m[1], -1) {
			col.add(strings.ReplaceAll(q[1], `\/`, "/"))
		}
	}

	if len(col.pages) == 0 {
		doc.Find("script").Each(func(_ int, sc *goquery.Selection) {
			for _, u := range reLooseURL.FindAllString(sc.Text(), -1) {
				col.add(u)
			}
		})
	}

	return col.pages
}

// pagesFromAnyImg is the last resort: every img tag on the page minus
// obvious chrome.
func pagesFromAnyImg(doc *goquery.Document, _ string, base string) []source.Page {
	col := newPageCollector()

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		col.add(Resolve(base, imageURL(img)))
	})

	return col.pages
}
