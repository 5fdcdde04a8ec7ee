package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/brogergvhs/mangasrc/internal/source"
)

type chapterStrategy struct {
	name  string
	apply func(doc *goquery.Document, base string) []source.Chapter
}

var chapterStrategies = []chapterStrategy{
	{"chapters/list-items", chaptersFromListItems},
	{"chapters/anchors", chaptersFromAnchors},
}

var (
	reChapterPath   = regexp.MustCompile(`(?i)(?:^|[/_-])(?:chapter|ch)[/_-]?0*(\d+(?:\.\d+)?)`)
	reChapterText   = regexp.MustCompile(`(?i)(?:chapter|ch)[.\s_-]*0*(\d+(?:\.\d+)?)`)
	reNumberPrefix  = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*[.\-\s]`)
	reVolumeText    = regexp.MustCompile(`(?i)vol(?:ume)?[.\s_-]*(\d+)`)
	reLikelyChapter = regexp.MustCompile(`(?i)(?:^|[-_/])(?:ch|chapter)[-_]?\d+`)
)

var chapterDateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02",
	"02/01/2006",
}

func parseChapterDate(s string) time.Time {
	s = cleanText(s)
	for _, layout := range chapterDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// chapterNumber mines the chapter number with ordered fallbacks: URL path
// first, then the link text, then a bare numeric prefix.
func chapterNumber(href, text string) (float64, bool) {
	if m := reChapterPath.FindStringSubmatch(strings.ToLower(href)); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		return n, err == nil
	}
	if m := reChapterText.FindStringSubmatch(text); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		return n, err == nil
	}
	if m := reNumberPrefix.FindStringSubmatch(text); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		return n, err == nil
	}
	return 0, false
}

func looksLikeChapterLink(href, text string) bool {
	if reLikelyChapter.MatchString(strings.ToLower(href)) {
		return true
	}
	t := strings.ToLower(cleanText(text))
	return strings.HasPrefix(t, "ch ") || strings.HasPrefix(t, "chapter ")
}

// chaptersFromListItems matches dedicated chapter-list markup, where the
// release date usually sits in a sibling node.
func chaptersFromListItems(doc *goquery.Document, base string) []source.Chapter {
	var out []source.Chapter
	seen := map[string]bool{}

	doc.Find("#chapterlist li, li.wp-manga-chapter, ul.chapter-list li, .eplister li").Each(func(_ int, li *goquery.Selection) {
		a := li.Find("a[href]").First()
		href := attrFallback(a, "href")
		id := Resolve(base, href)
		if id == "" || seen[id] {
			return
		}

		name := cleanText(a.Find(".chapternum").Text())
		if name == "" {
			name = cleanText(a.Text())
		}

		ch := source.Chapter{
			ID:   id,
			Name: name,
			Date: parseChapterDate(li.Find(".chapterdate, .chapter-release-date, .dt").First().Text()),
		}

		if n, ok := chapterNumber(href, name); ok {
			ch.Number = n
		}
		if m := reVolumeText.FindStringSubmatch(name); m != nil {
			ch.Volume = m[1]
		}
		if g := cleanText(li.Find(".chapter-group, .release-group").First().Text()); g != "" {
			ch.Group = g
		}

		seen[id] = true
		out = append(out, ch)
	})

	sortChapters(out)
	return out
}

// chaptersFromAnchors is the loose tier: any anchor on the page that looks
// like a chapter link.
func chaptersFromAnchors(doc *goquery.Document, base string) []source.Chapter {
	var out []source.Chapter
	seen := map[string]bool{}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := attrFallback(a, "href")
		text := cleanText(a.Text())
		if !looksLikeChapterLink(href, text) {
			return
		}

		id := Resolve(base, href)
		if id == "" || seen[id] {
			return
		}

		n, ok := chapterNumber(href, text)
		if !ok {
			return
		}

		name := text
		if name == "" {
			name = "Chapter " + strconv.FormatFloat(n, 'f', -1, 64)
		}

		seen[id] = true
		out = append(out, source.Chapter{ID: id, Name: name, Number: n})
	})

	sortChapters(out)
	return out
}

func sortChapters(chs []source.Chapter) {
	sort.SliceStable(chs, func(i, j int) bool {
		return chs[i].Number < chs[j].Number
	})
}
