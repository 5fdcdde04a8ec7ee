package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const base = "https://site.example"

const listingCards = `<html><body><div class="listupd">
<div class="bsx"><a href="/manga/alpha" title="A"><img data-src="/covers/a.jpg"/></a><div class="epxs">Chapter 12</div></div>
<div class="bsx"><a href="/manga/beta" title="B"><img src="/covers/b.jpg"/></a></div>
<div class="bsx"><a href="/manga/gamma"><div class="tt">C</div></a></div>
<div class="bsx"><span>broken card without a link</span></div>
</div></body></html>`

func TestListingsOmitsRecordsWithoutIdentifier(t *testing.T) {
	recs, strategy := Listings(listingCards, base)
	require.Equal(t, "listing/card-grid", strategy)
	require.Len(t, recs, 3, "the malformed block is dropped, not fatal")

	require.Equal(t, "https://site.example/manga/alpha", recs[0].ID)
	require.Equal(t, "A", recs[0].Title)
	require.Equal(t, "https://site.example/covers/a.jpg", recs[0].CoverURL)
	require.Equal(t, 12, recs[0].ChapterCount)

	require.Equal(t, "B", recs[1].Title)
	require.Equal(t, "C", recs[2].Title, "title mined from inner text when the attr is missing")
}

func TestListingsFallsBackToSeriesLinks(t *testing.T) {
	markup := `<html><body>
<a class="series" href="/series/one" title="One"></a>
<a class="series" href="/series/two">Two</a>
<a class="series" href="/series/one" title="One (dup)"></a>
</body></html>`

	recs, strategy := Listings(markup, base)
	require.Equal(t, "listing/series-links", strategy)
	require.Len(t, recs, 2, "duplicate hrefs collapse to one record")
	require.Equal(t, "One", recs[0].Title)
}

func TestListingsGenericArticleTierUsesImgAlt(t *testing.T) {
	markup := `<html><body>
<article><a href="/manga/x"></a><img src="/covers/x.jpg" alt="X Title"/></article>
</body></html>`

	recs, strategy := Listings(markup, base)
	require.Equal(t, "listing/article-blocks", strategy)
	require.Len(t, recs, 1)
	require.Equal(t, "X Title", recs[0].Title)
	require.Equal(t, "https://site.example/covers/x.jpg", recs[0].CoverURL)
}

func TestListingsIsIdempotent(t *testing.T) {
	a, sa := Listings(listingCards, base)
	b, sb := Listings(listingCards, base)
	require.Equal(t, a, b)
	require.Equal(t, sa, sb)
}

func TestListingsMalformedInputDegradesToEmpty(t *testing.T) {
	recs, strategy := Listings(`<<<< not even close to html`, base)
	require.Empty(t, recs)
	require.Empty(t, strategy)
}

const detailPage = `<html><body>
<h1 class="entry-title">Solo Farming</h1>
<div class="thumb"><img src="/covers/solo.jpg"/></div>
<div class="imptdt">Author <i>Kim</i></div>
<div class="imptdt">Artist <i>Park</i></div>
<div class="imptdt">Status <i>Ongoing</i></div>
<div class="summary">A farmer levels up alone.</div>
<div class="mgen"><a>Action</a><a>Fantasy</a></div>
</body></html>`

func TestDetailFromInfoBox(t *testing.T) {
	rec, strategy := Detail(detailPage, base, base+"/manga/solo-farming")
	require.Equal(t, "detail/info-box", strategy)
	require.NotNil(t, rec)

	require.Equal(t, base+"/manga/solo-farming", rec.ID)
	require.Equal(t, "Solo Farming", rec.Title)
	require.Equal(t, "Kim", rec.Author)
	require.Equal(t, "Park", rec.Artist)
	require.Equal(t, "Ongoing", rec.Status)
	require.Equal(t, "A farmer levels up alone.", rec.Description)
	require.Equal(t, []string{"Action", "Fantasy"}, rec.Genres)
	require.Equal(t, "https://site.example/covers/solo.jpg", rec.CoverURL)
}

func TestDetailFallsBackToMetaTags(t *testing.T) {
	markup := `<html><head>
<meta property="og:title" content="Meta Title"/>
<meta property="og:image" content="https://cdn.example/meta.jpg"/>
<meta property="og:description" content="desc"/>
</head><body><p>nothing structured here</p></body></html>`

	rec, strategy := Detail(markup, base, "id1")
	require.Equal(t, "detail/meta-tags", strategy)
	require.NotNil(t, rec)
	require.Equal(t, "Meta Title", rec.Title)
	require.Equal(t, "https://cdn.example/meta.jpg", rec.CoverURL)
	require.Equal(t, "desc", rec.Description)
}

func TestDetailPartialRecordKeepsNulls(t *testing.T) {
	rec, _ := Detail(`<html><body><h1>Only A Title</h1></body></html>`, base, "id2")
	require.NotNil(t, rec)
	require.Equal(t, "Only A Title", rec.Title)
	require.Empty(t, rec.Author)
	require.Empty(t, rec.Genres)
}

const chapterList = `<html><body><div id="chapterlist"><ul>
<li><a href="/manga/x/chapter-2/"><span class="chapternum">Chapter 2</span></a><span class="chapterdate">January 5, 2024</span></li>
<li><a href="/manga/x/chapter-1/"><span class="chapternum">Chapter 1</span></a><span class="chapterdate">January 1, 2024</span></li>
<li><a href="/manga/x/chapter-2.5/"><span class="chapternum">Chapter 2.5</span></a></li>
</ul></div></body></html>`

func TestChaptersFromListItems(t *testing.T) {
	recs, strategy := Chapters(chapterList, base)
	require.Equal(t, "chapters/list-items", strategy)
	require.Len(t, recs, 3)

	// sorted ascending by number
	require.Equal(t, 1.0, recs[0].Number)
	require.Equal(t, 2.0, recs[1].Number)
	require.Equal(t, 2.5, recs[2].Number)

	require.Equal(t, "https://site.example/manga/x/chapter-1/", recs[0].ID)
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), recs[0].Date)
	require.True(t, recs[2].Date.IsZero(), "missing date stays zero rather than discarding the record")
}

func TestChaptersFallsBackToAnchors(t *testing.T) {
	markup := `<html><body>
<a href="/read/x/ch-3">Chapter 3</a>
<a href="/read/x/ch-1">Chapter 1</a>
<a href="/about">About us</a>
</body></html>`

	recs, strategy := Chapters(markup, base)
	require.Equal(t, "chapters/anchors", strategy)
	require.Len(t, recs, 2)
	require.Equal(t, 1.0, recs[0].Number)
	require.Equal(t, 3.0, recs[1].Number)
}

func TestChapterNumberFallbackOrder(t *testing.T) {
	n, ok := chapterNumber("/manga/x/chapter-7", "whatever")
	require.True(t, ok)
	require.Equal(t, 7.0, n)

	n, ok = chapterNumber("/read/8842", "Chapter 12.5")
	require.True(t, ok)
	require.Equal(t, 12.5, n)

	n, ok = chapterNumber("/read/8842", "3 - The Return")
	require.True(t, ok)
	require.Equal(t, 3.0, n)

	_, ok = chapterNumber("/about", "About us")
	require.False(t, ok)
}

func TestPagesFromReaderArea(t *testing.T) {
	markup := `<html><body><div id="readerarea">
<img src="https://cdn.example/ch/001.jpg"/>
<img data-src="https://cdn.example/ch/002.jpg"/>
<img src="https://cdn.example/site-logo.png"/>
</div></body></html>`

	recs, strategy := Pages(markup, base)
	require.Equal(t, "pages/reader-area", strategy)
	require.Len(t, recs, 2, "chrome images are skipped")
	require.Equal(t, 0, recs[0].Index)
	require.Equal(t, "https://cdn.example/ch/002.jpg", recs[1].URL)
}

func TestPagesFromScriptState(t *testing.T) {
	markup := `<html><body><div class="wrapper"></div>
<script>ts_reader.run({"sources":[{"source":"Server 1","images":["https:\/\/cdn.example\/p\/1.jpg","https:\/\/cdn.example\/p\/2.jpg"]}]});</script>
</body></html>`

	recs, strategy := Pages(markup, base)
	require.Equal(t, "pages/script-state", strategy)
	require.Len(t, recs, 2)
	require.Equal(t, "https://cdn.example/p/1.jpg", recs[0].URL)
	require.Equal(t, "https://cdn.example/p/2.jpg", recs[1].URL)
}

func TestPagesAnyImgLastResort(t *testing.T) {
	markup := `<html><body>
<img src="/pages/001.webp"/>
<img src="/pages/002.webp"/>
<img src="/banner-ad.png"/>
</body></html>`

	recs, strategy := Pages(markup, base)
	require.Equal(t, "pages/any-img", strategy)
	require.Len(t, recs, 2)
	require.Equal(t, "https://site.example/pages/001.webp", recs[0].URL)
}

func TestResolve(t *testing.T) {
	require.Equal(t, "https://site.example/a/b", Resolve("https://site.example/a/", "b"))
	require.Equal(t, "https://other.example/x", Resolve(base, "https://other.example/x"))
	require.Equal(t, "", Resolve(base, ""))
}
