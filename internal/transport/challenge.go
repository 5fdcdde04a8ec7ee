package transport

import (
	"net/http"
	"strings"
)

// Challenge pages come back as 403/503 from the edge provider with an
// interstitial "verify you are human" body instead of the real payload.
var challengeMarkers = []string{
	"cf-browser-verification",
	"cf_chl_opt",
	"challenge-platform",
	"Checking your browser",
	"Just a moment",
	"Attention Required!",
}

func isChallengeStatus(code int) bool {
	return code == http.StatusForbidden || code == http.StatusServiceUnavailable
}

func isEdgeServer(h http.Header) bool {
	return strings.Contains(strings.ToLower(h.Get("Server")), "cloudflare")
}

// IsChallenge reports whether the response is an anti-bot interstitial
// rather than real content. All three conditions must hold: a 403/503
// status, the edge provider's server header, and a challenge marker in
// the body.
func IsChallenge(code int, header http.Header, body []byte) bool {
	if !isChallengeStatus(code) || !isEdgeServer(header) {
		return false
	}

	s := string(body)
	for _, marker := range challengeMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}

	return false
}
