package extract

import "net/url"

// Resolve makes href absolute against the currently-active domain. Bad
// input falls through unchanged; the caller drops records without usable
// identifiers anyway.
func Resolve(base, href string) string {
	if href == "" {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.IsAbs() {
		return u.String()
	}

	b, err := url.Parse(base)
	if err != nil {
		return href
	}

	return b.ResolveReference(u).String()
}
