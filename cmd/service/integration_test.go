// cmd/service/integration_test.go
package main

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github-repo-proxy/internal/config"
)

// setupProxy starts a fake GitHub API and returns a router wired against it.
func setupProxy(t *testing.T, upstream http.Handler) http.Handler {
	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	return setupProxyWithURL(t, server.URL, 5*time.Second)
}

func setupProxyWithURL(t *testing.T, apiURL string, timeout time.Duration) http.Handler {
	cfg := &config.Config{
		GithubAPIURL:      apiURL,
		GithubToken:       "test-token",
		BranchConcurrency: 3,
		RequestTimeout:    timeout,
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	router, err := newRouter(cfg, logger)
	require.NoError(t, err)
	return router
}

func get(router http.Handler, path, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", accept)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestProxy_Integration(t *testing.T) {
	t.Run("aggregates non-fork repositories with branches", func(t *testing.T) {
		upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "token test-token", r.Header.Get("Authorization"))
			switch r.URL.Path {
			case "/users/testuser/repos":
				w.Write([]byte(`[{"name":"repo1","fork":false},{"name":"repo2","fork":true}]`))
			case "/repos/testuser/repo1/branches":
				w.Write([]byte(`[{"name":"main","commit":{"sha":"123abc","url":"https://example.com"}}]`))
			default:
				t.Errorf("unexpected upstream call %s", r.URL.Path)
				w.WriteHeader(http.StatusNotFound)
			}
		})
		router := setupProxy(t, upstream)

		rec := get(router, "/api/repositories/testuser", "application/json")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[{"name":"repo1","fork":false,"branches":[{"name":"main","commit":{"sha":"123abc"}}]}]`, rec.Body.String())
	})

	t.Run("null branch listing becomes empty array", func(t *testing.T) {
		upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/users/testuser/repos":
				w.Write([]byte(`[{"name":"repo1","owner":{"login":"testuser"},"fork":false}]`))
			case "/repos/testuser/repo1/branches":
				w.Write([]byte(`null`))
			}
		})
		router := setupProxy(t, upstream)

		rec := get(router, "/api/repositories/testuser", "application/json")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[{"name":"repo1","owner":{"login":"testuser"},"fork":false,"branches":[]}]`, rec.Body.String())
	})

	t.Run("wrong accept header never reaches upstream", func(t *testing.T) {
		var calls int32
		upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
		})
		router := setupProxy(t, upstream)

		rec := get(router, "/api/repositories/testuser", "text/plain")

		assert.Equal(t, http.StatusNotAcceptable, rec.Code)
		assert.Equal(t, "Accept header must be 'application/json'", rec.Body.String())
		assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	})

	t.Run("unknown user", func(t *testing.T) {
		upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"Not Found"}`))
		})
		router := setupProxy(t, upstream)

		rec := get(router, "/api/repositories/ghost", "application/json")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"status":404,"message":"User not found"}`, rec.Body.String())
	})

	t.Run("403 on branch listing is reported as rate limit", func(t *testing.T) {
		upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/users/testuser/repos":
				w.Write([]byte(`[{"name":"repo1","fork":false},{"name":"repo2","fork":false}]`))
			case "/repos/testuser/repo2/branches":
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"message":"API rate limit exceeded"}`))
			default:
				w.Write([]byte(`[]`))
			}
		})
		router := setupProxy(t, upstream)

		rec := get(router, "/api/repositories/testuser", "application/json")

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.JSONEq(t, `{"status":403,"message":"API rate limit exceeded. Please try again later."}`, rec.Body.String())
	})

	t.Run("403 on repository listing is reported as rate limit", func(t *testing.T) {
		upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", "1")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"message":"API rate limit exceeded"}`))
		})
		router := setupProxy(t, upstream)

		rec := get(router, "/api/repositories/testuser", "application/json")

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.JSONEq(t, `{"status":403,"message":"API rate limit exceeded. Please try again later."}`, rec.Body.String())
	})

	t.Run("other upstream statuses pass through with body", func(t *testing.T) {
		upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"Bad credentials"}`))
		})
		router := setupProxy(t, upstream)

		rec := get(router, "/api/repositories/testuser", "application/json")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":401`)
		assert.Contains(t, rec.Body.String(), "Bad credentials")
	})

	t.Run("unreachable upstream is a network error", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		apiURL := server.URL
		server.Close()
		router := setupProxyWithURL(t, apiURL, 5*time.Second)

		rec := get(router, "/api/repositories/testuser", "application/json")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":500`)
		assert.Contains(t, rec.Body.String(), "Network error: ")
	})

	t.Run("slow upstream hits the request timeout as a network error", func(t *testing.T) {
		upstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			w.Write([]byte(`[]`))
		})
		server := httptest.NewServer(upstream)
		t.Cleanup(server.Close)
		router := setupProxyWithURL(t, server.URL, 50*time.Millisecond)

		started := time.Now()
		rec := get(router, "/api/repositories/testuser", "application/json")

		assert.Less(t, time.Since(started), time.Second)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), `"status":500`)
		assert.Contains(t, rec.Body.String(), "Network error: ")
		assert.Contains(t, rec.Body.String(), "deadline exceeded")
	})
}
