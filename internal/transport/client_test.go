package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(clock *fakeClock) *Client {
	return NewClient(ClientOptions{
		Gate:    newHostGate(100, time.Second, clock, clock),
		Sleeper: clock,
	})
}

const challengeBody = `<html><head><title>Just a moment...</title></head>
<body><div id="cf-browser-verification">Checking your browser before accessing.</div></body></html>`

func TestDoRetriesThroughChallenge(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.Header().Set("Server", "cloudflare")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(challengeBody))
			return
		}
		w.Write([]byte("<html>real content</html>"))
	}))
	defer srv.Close()

	clock := newFakeClock()
	c := newTestClient(clock)

	res, err := c.Get(context.Background(), srv.URL, Options{CheckChallenge: true})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, int32(3), hits.Load())

	// blocked attempts back off 2^(attempt+1): 2s then 4s
	require.Equal(t, 6*time.Second, clock.totalSlept())
}

func TestDoBlockedAfterRetryBudget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "cloudflare")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(challengeBody))
	}))
	defer srv.Close()

	clock := newFakeClock()
	c := newTestClient(clock)

	_, err := c.Get(context.Background(), srv.URL, Options{CheckChallenge: true, MaxAttempts: 3})
	require.ErrorIs(t, err, ErrBlocked)
}

func TestDoPlainErrorStatusIsNotBlocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 503 without the edge server header is an ordinary failure
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(challengeBody))
	}))
	defer srv.Close()

	clock := newFakeClock()
	c := newTestClient(clock)

	_, err := c.Get(context.Background(), srv.URL, Options{CheckChallenge: true, MaxAttempts: 2})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrBlocked)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusServiceUnavailable, se.Code)

	// ordinary failures back off 2^attempt: 1s after the first attempt
	require.Equal(t, time.Second, clock.totalSlept())
}

func TestDoRecoversFromTransientFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	clock := newFakeClock()
	c := newTestClient(clock)

	res, err := c.Get(context.Background(), srv.URL, Options{})
	require.NoError(t, err)

	var body struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, res.JSON(&body))
	require.True(t, body.OK)
}

func TestDoCallerDeadlineSurfacesTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	clock := newFakeClock()
	c := newTestClient(clock)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Get(ctx, srv.URL, Options{})
	require.ErrorIs(t, err, ErrTimeout)
}

func TestDoAttemptTimeoutIsDistinctFromNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	clock := newFakeClock()
	c := newTestClient(clock)

	_, err := c.Get(context.Background(), srv.URL, Options{
		Timeout:     20 * time.Millisecond,
		MaxAttempts: 1,
	})
	require.ErrorIs(t, err, ErrTimeout)
}

func TestDoConnectionRefusedIsNetworkError(t *testing.T) {
	clock := newFakeClock()
	c := newTestClient(clock)

	_, err := c.Get(context.Background(), "http://127.0.0.1:1", Options{MaxAttempts: 1})
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrTimeout))
	require.False(t, errors.Is(err, ErrBlocked))
}

func TestDocumentAndHeaderAccessors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><h1>Title</h1></body></html>`))
	}))
	defer srv.Close()

	clock := newFakeClock()
	c := newTestClient(clock)

	res, err := c.Get(context.Background(), srv.URL, Options{})
	require.NoError(t, err)
	require.Equal(t, "text/html", res.Header.Get("Content-Type"))

	doc, err := res.Document()
	require.NoError(t, err)
	require.Equal(t, "Title", doc.Find("h1").Text())
}
