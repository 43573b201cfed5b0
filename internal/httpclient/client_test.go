package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()

	c := New(nil)
	require.NotNil(t, c)
	assert.Equal(t, DefaultTimeout, c.defaultTimeout)
	assert.Equal(t, defaultUserAgent, c.userAgent)

	c = New(&Config{UserAgent: "pitchpod-test"})
	assert.Equal(t, "pitchpod-test", c.userAgent)
	assert.Equal(t, DefaultTimeout, c.defaultTimeout, "zero timeout falls back to default")
}

func TestDoInjectsUserAgent(t *testing.T) {
	t.Parallel()

	var gotAgent atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent.Store(r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(nil)
	defer c.Close()

	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, defaultUserAgent, gotAgent.Load())
}

func TestPostSendsBody(t *testing.T) {
	t.Parallel()

	var gotBody atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody.Store(string(body))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := New(nil)
	defer c.Close()

	resp, err := c.Post(context.Background(), srv.URL, "text/csv", "a,b\n1,2\n")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "a,b\n1,2\n", gotBody.Load())
}

func TestPostRejectsUnsupportedBody(t *testing.T) {
	t.Parallel()

	c := New(nil)
	defer c.Close()

	_, err := c.Post(context.Background(), "http://127.0.0.1:0", "", 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported body type")
}

func TestDoAppliesDefaultTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(&Config{DefaultTimeout: 50 * time.Millisecond})
	defer c.Close()

	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestHooksObserveRequests(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(nil)
	defer c.Close()

	var before, after atomic.Int32
	c.SetBeforeRequestHook(func(*http.Request) { before.Add(1) })
	c.SetAfterResponseHook(func(_ *http.Request, resp *http.Response, err error) {
		after.Add(1)
	})

	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, int32(1), before.Load())
	assert.Equal(t, int32(1), after.Load())
}
