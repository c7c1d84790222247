package config

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Egham-7/oracle-proxy/internal/models"
	"github.com/Egham-7/oracle-proxy/internal/services/attemptlog"
	"github.com/Egham-7/oracle-proxy/pkg/builder"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUpstream(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer hf_busy" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"generated_text":"The oracle speaks"}]`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestProxy(t *testing.T, b *builder.Builder) *fiber.App {
	t.Helper()
	p := NewProxyWithBuilder(b)
	t.Cleanup(p.Close)
	app, err := p.App()
	require.NoError(t, err)
	return app
}

func send(t *testing.T, app *fiber.App, r *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(r, 5000)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, string(body)
}

func TestProxy_GenerateEndToEnd(t *testing.T) {
	up := newUpstream(t)

	var mu sync.Mutex
	var events []models.AttemptEvent
	observer := attemptlog.ObserverFunc(func(e models.AttemptEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	})

	app := newTestProxy(t, builder.New().
		Credentials("hf_busy", "hf_good").
		Endpoint(up.URL).
		WithAttemptObserver(observer))

	r := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"inputs":"Speak"}`))
	r.Header.Set("Origin", "https://oracle.example")
	resp, body := send(t, app, r)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"generated_text":"The oracle speaks"}]`, body)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	assert.Equal(t, models.AttemptRateLimited, events[0].Outcome)
	assert.Equal(t, models.AttemptSuccess, events[1].Outcome)
	assert.Equal(t, resp.Header.Get(fiber.HeaderXRequestID), events[1].RequestID)
}

func TestProxy_AttemptEventsKeepTheirRequestID(t *testing.T) {
	up := newUpstream(t)

	var mu sync.Mutex
	var events []models.AttemptEvent
	observer := attemptlog.ObserverFunc(func(e models.AttemptEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	})

	app := newTestProxy(t, builder.New().
		Credentials("hf_good").
		Endpoint(up.URL).
		WithAttemptObserver(observer))

	const n = 50
	ids := make([]string, n)
	for i := range n {
		ids[i] = fmt.Sprintf("trace-%02d-%s", i, strings.Repeat(string(rune('a'+i%26)), 20))
		r := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"inputs":"Speak"}`))
		r.Header.Set(fiber.HeaderXRequestID, ids[i])
		resp, _ := send(t, app, r)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, n)
	for i, e := range events {
		assert.Equal(t, ids[i], e.RequestID, "event %d", i)
	}
}

func TestProxy_ErrorResponsesCarryCORS(t *testing.T) {
	up := newUpstream(t)
	app := newTestProxy(t, builder.New().Endpoint(up.URL))

	r := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"inputs":"Speak"}`))
	r.Header.Set("Origin", "https://oracle.example")
	resp, body := send(t, app, r)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"No API tokens configured on server."}`, body)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestProxy_Preflight(t *testing.T) {
	up := newUpstream(t)
	app := newTestProxy(t, builder.New().Credentials("hf_good").Endpoint(up.URL))

	t.Run("browser preflight", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodOptions, "/api/generate", nil)
		r.Header.Set("Origin", "https://oracle.example")
		r.Header.Set("Access-Control-Request-Method", "POST")
		r.Header.Set("Access-Control-Request-Headers", "Content-Type")
		resp, _ := send(t, app, r)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
		assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "OPTIONS")
		assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Content-Type")
		assert.Empty(t, resp.Header.Get("Access-Control-Allow-Credentials"))
	})

	t.Run("bare options on any path", func(t *testing.T) {
		resp, _ := send(t, app, httptest.NewRequest(http.MethodOptions, "/anything", nil))
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})
}

func TestProxy_RateLimit(t *testing.T) {
	up := newUpstream(t)
	app := newTestProxy(t, builder.New().
		Credentials("hf_good").
		Endpoint(up.URL).
		WithRateLimit(2, time.Minute))

	var statuses []int
	for range 3 {
		resp, _ := send(t, app, httptest.NewRequest(http.MethodGet, "/health", nil))
		statuses = append(statuses, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}

func TestProxy_CustomMiddleware(t *testing.T) {
	up := newUpstream(t)
	app := newTestProxy(t, builder.New().
		Credentials("hf_good").
		Endpoint(up.URL).
		WithMiddleware(func(c *fiber.Ctx) error {
			c.Set("X-Oracle", "listening")
			return c.Next()
		}))

	resp, _ := send(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "listening", resp.Header.Get("X-Oracle"))
}

func TestProxy_ParsesCredentialsOnce(t *testing.T) {
	up := newUpstream(t)
	p := NewProxyWithBuilder(builder.New().CredentialsFromString(" hf_a, ,hf_b ").Endpoint(up.URL))
	t.Cleanup(p.Close)

	first, err := p.App()
	require.NoError(t, err)
	second, err := p.App()
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, []string{"hf_a", "hf_b"}, p.Dispatcher().Credentials().Values())
}

func TestProxy_InvalidConfig(t *testing.T) {
	p := NewProxyWithBuilder(builder.New().Endpoint("not a url"))
	t.Cleanup(p.Close)

	_, err := p.App()
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestNewProxy_NilConfigPanics(t *testing.T) {
	assert.Panics(t, func() { NewProxy(nil) })
}

func TestProxy_ServeShutsDownOnCancel(t *testing.T) {
	up := newUpstream(t)
	p := NewProxyWithBuilder(builder.New().Credentials("hf_good").Endpoint(up.URL).Production())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	url := fmt.Sprintf("http://%s/health", ln.Addr().String())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	require.Eventually(t, func() bool {
		resp, err := client.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
