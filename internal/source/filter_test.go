package source

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func chapterFixture() []Chapter {
	return []Chapter{
		{ID: "c1", Number: 1},
		{ID: "c2", Number: 2},
		{ID: "c3", Number: 2.5},
		{ID: "c4", Number: 3},
		{ID: "c5", Number: 4},
	}
}

func TestFilterChaptersByNumber(t *testing.T) {
	out := FilterChapters(chapterFixture(), "2.5", "", "")
	require.Len(t, out, 1)
	require.Equal(t, "c3", out[0].ID)
}

func TestFilterChaptersByIndexFallback(t *testing.T) {
	// "5" matches no chapter number, so it is taken as a 1-based index
	out := FilterChapters(chapterFixture(), "5", "", "")
	require.Len(t, out, 1)
	require.Equal(t, "c5", out[0].ID)
}

func TestFilterChapterRange(t *testing.T) {
	out := FilterChapters(chapterFixture(), "", "2-4", "")
	require.Len(t, out, 3)
	require.Equal(t, "c2", out[0].ID)
	require.Equal(t, "c4", out[2].ID)

	require.Nil(t, FilterChapters(chapterFixture(), "", "4-2", ""))
	require.Nil(t, FilterChapters(chapterFixture(), "", "1-99", ""))
}

func TestFilterChapterList(t *testing.T) {
	out := FilterChapters(chapterFixture(), "", "", "1, 3, 99")
	require.Len(t, out, 2)
	require.Equal(t, "c1", out[0].ID)
	require.Equal(t, "c3", out[1].ID)
}

func TestFilterChaptersNoSelectorsReturnsAll(t *testing.T) {
	require.Len(t, FilterChapters(chapterFixture(), "", "", ""), 5)
}
