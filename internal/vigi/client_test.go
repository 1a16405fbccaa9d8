package vigi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// newTestClient returns a client for srv with fast retries and a silent logger.
func newTestClient(t *testing.T, srv *httptest.Server, retries int) *Client {
	t.Helper()

	c, err := NewClient(Config{
		BaseURL:      srv.URL,
		Timeout:      5 * time.Second,
		UserAgent:    "vigireport-test",
		MaxRetries:   retries,
		RetryBackoff: time.Millisecond,
	}, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("rejects invalid base URL", func(t *testing.T) {
		t.Parallel()
		for _, u := range []string{"", "vigiaccess.org", "ftp://vigiaccess.org", "https://"} {
			_, err := NewClient(Config{BaseURL: u})
			if !errors.Is(err, ErrInvalidBaseURL) {
				t.Errorf("%q: expected ErrInvalidBaseURL, got %v", u, err)
			}
		}
	})

	t.Run("rejects invalid proxy address", func(t *testing.T) {
		t.Parallel()
		_, err := NewClient(Config{BaseURL: "https://vigiaccess.org", ProxyAddress: "localhost"})
		if !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})

	t.Run("accepts SOCKS5 proxy", func(t *testing.T) {
		t.Parallel()
		c, err := NewClient(Config{BaseURL: "https://vigiaccess.org", ProxyAddress: "127.0.0.1:9050"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.httpClient == nil {
			t.Error("expected HTTP client to be built")
		}
	})
}

func TestIsValidProxyAddress(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"127.0.0.1:9050": true,
		"localhost:1":    true,
		"host:65535":     true,
		"host:0":         false,
		"host:65536":     false,
		":9050":          false,
		"host":           false,
		"host:port":      false,
		"a:b:c":          false,
	}
	for addr, want := range tests {
		if got := isValidProxyAddress(addr); got != want {
			t.Errorf("isValidProxyAddress(%q) = %v, want %v", addr, got, want)
		}
	}
}

func TestSearchDrug(t *testing.T) {
	t.Parallel()

	t.Run("returns first encrypted id", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != searchPath {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.Header.Get("User-Agent") != "vigireport-test" {
				t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
			}
			var body []string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body) != 1 || body[0] != "covid-19 vaccine" {
				t.Errorf("unexpected body %v (err=%v)", body, err)
			}
			_, _ = io.WriteString(w, `[{"DrugId":{"DrugId":{"Encrypted":"enc-1"}}},{"DrugId":{"DrugId":{"Encrypted":"enc-2"}}}]`)
		}))
		defer srv.Close()

		id, err := newTestClient(t, srv, 0).SearchDrug(context.Background(), "covid-19 vaccine")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "enc-1" {
			t.Errorf("expected enc-1, got %q", id)
		}
	})

	t.Run("empty result is ErrDrugNotFound", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `[]`)
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv, 0).SearchDrug(context.Background(), "nothing")
		if !errors.Is(err, ErrDrugNotFound) {
			t.Fatalf("expected ErrDrugNotFound, got %v", err)
		}
		var opErr *OpError
		if !errors.As(err, &opErr) || opErr.Op != "search" {
			t.Errorf("expected search OpError, got %v", err)
		}
	})
}

func TestDistribution(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []distributionRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body) != 1 || body[0].DrugID.Encrypted != "enc-1" {
			t.Errorf("unexpected body %+v (err=%v)", body, err)
		}
		_, _ = io.WriteString(w, `{
			"TotalCount": 42,
			"Reaction": [
				{"Description":{"Obfuscated":"ꓚardiac"},"Count":30,"SocId":{"SocId":{"Encrypted":"soc-1"}}},
				{"Description":{"Obfuscated":"Eye"},"Count":12,"SocId":{"SocId":{"Encrypted":"soc-2"}}}
			],
			"Continent": [{"Description":"Europe","Count":40},{"Description":{"Obfuscated":"Asia"},"Count":2}],
			"AgeGroup": [],
			"Sex": [{"Description":"Female","Count":42}]
		}`)
	}))
	defer srv.Close()

	s, err := newTestClient(t, srv, 0).Distribution(context.Background(), "enc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.TotalCount != 42 {
		t.Errorf("expected total 42, got %d", s.TotalCount)
	}
	if len(s.Reactions) != 2 || s.Reactions[0].SocID != "soc-1" || s.Reactions[0].Description != "ꓚardiac" {
		t.Errorf("unexpected reactions %+v", s.Reactions)
	}
	if len(s.Continent) != 2 || s.Continent[0].Description != "Europe" || s.Continent[1].Description != "Asia" {
		t.Errorf("unexpected continents %+v", s.Continent)
	}
	if s.Continent[0].Obfuscated || !s.Continent[1].Obfuscated {
		t.Errorf("expected only the object label to be marked obfuscated, got %+v", s.Continent)
	}
	if len(s.AgeGroup) != 0 || len(s.Year) != 0 {
		t.Errorf("expected empty age group and year, got %+v %+v", s.AgeGroup, s.Year)
	}
}

func TestDetailPage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []primaryTermRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body) != 1 {
			t.Errorf("unexpected body %+v (err=%v)", body, err)
			return
		}
		req := body[0]
		if req.DrugID.DrugID.Encrypted != "enc-1" || req.SocID.SocID.Encrypted != "soc-1" {
			t.Errorf("unexpected identifiers %+v", req)
		}
		switch req.Page {
		case 0:
			_, _ = io.WriteString(w, `{"Pts":[{"Description":{"Obfuscated":"Palpitations"},"Count":3}]}`)
		case 1:
			_, _ = io.WriteString(w, `{"Pts":[]}`)
		default:
			_, _ = io.WriteString(w, `{}`)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv, 0)
	ctx := context.Background()

	t.Run("page with terms", func(t *testing.T) {
		details, err := c.DetailPage(ctx, "enc-1", "soc-1", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(details) != 1 || details[0].Description != "Palpitations" || details[0].Count != 3 {
			t.Errorf("unexpected details %+v", details)
		}
	})

	t.Run("empty list is empty but not nil", func(t *testing.T) {
		details, err := c.DetailPage(ctx, "enc-1", "soc-1", 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if details == nil || len(details) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", details)
		}
	})

	t.Run("missing list is nil", func(t *testing.T) {
		details, err := c.DetailPage(ctx, "enc-1", "soc-1", 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if details != nil {
			t.Errorf("expected nil, got %#v", details)
		}
	})
}

func TestRetry(t *testing.T) {
	t.Parallel()

	t.Run("recovers from transient failures", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) <= 2 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = io.WriteString(w, `[{"DrugId":{"DrugId":{"Encrypted":"enc-1"}}}]`)
		}))
		defer srv.Close()

		id, err := newTestClient(t, srv, 3).SearchDrug(context.Background(), "term")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "enc-1" {
			t.Errorf("expected enc-1, got %q", id)
		}
		if calls.Load() != 3 {
			t.Errorf("expected 3 calls, got %d", calls.Load())
		}
	})

	t.Run("gives up after the last retry", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv, 2).Distribution(context.Background(), "enc-1")
		var opErr *OpError
		if !errors.As(err, &opErr) {
			t.Fatalf("expected OpError, got %v", err)
		}
		if opErr.Op != "distribution" || opErr.Attempts != 3 {
			t.Errorf("unexpected op error %+v", opErr)
		}
		var se *StatusError
		if !errors.As(err, &se) || se.StatusCode != http.StatusBadGateway {
			t.Errorf("expected StatusError 502, got %v", err)
		}
		if calls.Load() != 3 {
			t.Errorf("expected 3 calls, got %d", calls.Load())
		}
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv, 3).DetailPage(context.Background(), "d", "s", 0)
		if err == nil {
			t.Fatal("expected error")
		}
		if calls.Load() != 1 {
			t.Errorf("expected 1 call, got %d", calls.Load())
		}
	})

	t.Run("malformed bodies are not retried", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			_, _ = io.WriteString(w, `<html>maintenance</html>`)
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv, 3).SearchDrug(context.Background(), "term")
		if !errors.Is(err, ErrMalformedResponse) {
			t.Fatalf("expected ErrMalformedResponse, got %v", err)
		}
		if calls.Load() != 1 {
			t.Errorf("expected 1 call, got %d", calls.Load())
		}
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c, err := NewClient(Config{
			BaseURL:      srv.URL,
			Timeout:      time.Second,
			MaxRetries:   5,
			RetryBackoff: time.Hour,
		}, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err = c.SearchDrug(ctx, "term")
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	})
}

func TestStatusErrorTemporary(t *testing.T) {
	t.Parallel()

	tests := map[int]bool{
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusServiceUnavailable:  true,
		http.StatusBadRequest:          false,
		http.StatusForbidden:           false,
	}
	for code, want := range tests {
		if got := (&StatusError{StatusCode: code}).Temporary(); got != want {
			t.Errorf("status %d: expected %v, got %v", code, want, got)
		}
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, `[{"DrugId":{"DrugId":{"Encrypted":"enc-1"}}}]`)
	}))
	defer srv.Close()

	// One token every two seconds: the second request has to wait.
	c, err := NewClient(Config{
		BaseURL:   srv.URL,
		Timeout:   time.Second,
		RateLimit: 0.5,
	}, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	if _, err := c.SearchDrug(context.Background(), "term"); err != nil {
		t.Fatalf("first request: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = c.SearchDrug(ctx, "term")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded while throttled, got %v", err)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("expected 1 request to reach the server, got %d", n)
	}
}
