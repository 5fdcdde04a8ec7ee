package source

import (
	"strconv"
	"strings"
)

// FilterChapters narrows a chapter list for preloading: a single chapter by
// number or 1-based index, an index range like "5-12", or an index list like
// "1,3,5". Empty selectors return the full list.
func FilterChapters(all []Chapter, chapter, rng, list string) []Chapter {
	if chapter != "" {
		byNumber := FilterChaptersByNumber(all, chapter)
		if len(byNumber) > 0 {
			return byNumber
		}

		if idx, err := strconv.Atoi(chapter); err == nil {
			if idx > 0 && idx <= len(all) {
				return []Chapter{all[idx-1]}
			}
		}

		return nil
	}

	if rng != "" {
		return FilterChapterRange(all, rng)
	}
	if list != "" {
		return FilterChapterList(all, list)
	}

	return all
}

func FilterChaptersByNumber(all []Chapter, number string) []Chapter {
	want, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return nil
	}

	var out []Chapter
	for _, c := range all {
		if c.Number == want {
			out = append(out, c)
		}
	}

	return out
}

func FilterChapterRange(all []Chapter, rng string) []Chapter {
	parts := strings.Split(rng, "-")
	if len(parts) != 2 {
		return nil
	}

	start, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	end, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))

	if err1 != nil || err2 != nil {
		return nil
	}
	if start <= 0 || end <= 0 || start > end || end > len(all) {
		return nil
	}

	return all[start-1 : end]
}

func FilterChapterList(all []Chapter, list string) []Chapter {
	var out []Chapter

	for p := range strings.SplitSeq(list, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		idx, err := strconv.Atoi(p)
		if err != nil || idx <= 0 || idx > len(all) {
			continue
		}

		out = append(out, all[idx-1])
	}

	return out
}
