package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

var rewriteOverrideMu sync.Mutex

func stubProxyRewrite(t *testing.T, fn func(string) (string, bool)) {
	t.Helper()
	rewriteOverrideMu.Lock()
	restore := proxyRewrite
	proxyRewrite = fn
	t.Cleanup(func() {
		proxyRewrite = restore
		rewriteOverrideMu.Unlock()
	})
}

func TestEnsureDownloadsOnce(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("artifact-bytes"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "artifacts", "t_renderer")
	require.NoError(t, Ensure(context.Background(), srv.URL, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "artifact-bytes", string(data))
	require.EqualValues(t, 1, hits.Load())

	// A second call must not touch the network.
	require.NoError(t, Ensure(context.Background(), srv.URL, dest))
	require.EqualValues(t, 1, hits.Load())
}

func TestEnsureFallsBackToMirror(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer broken.Close()

	mirror := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("mirrored"))
	}))
	defer mirror.Close()

	stubProxyRewrite(t, func(raw string) (string, bool) {
		require.Equal(t, broken.URL, raw)
		return mirror.URL, true
	})

	dest := filepath.Join(t.TempDir(), "rules")
	require.NoError(t, Ensure(context.Background(), broken.URL, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "mirrored", string(data))
}

func TestEnsureFailsWithoutEligibleMirror(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	stubProxyRewrite(t, func(string) (string, bool) { return "", false })

	dest := filepath.Join(t.TempDir(), "missing")
	err := Ensure(context.Background(), srv.URL, dest)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, srv.URL, fetchErr.URL)

	_, statErr := os.Stat(dest)
	require.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestEnsureReportsBothFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	stubProxyRewrite(t, func(string) (string, bool) { return srv.URL, true })

	dest := filepath.Join(t.TempDir(), "artifact")
	err := Ensure(context.Background(), srv.URL, dest)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	require.Contains(t, fetchErr.Error(), "502")
}

func TestProxyRewriteTargetsGitHubOnly(t *testing.T) {
	mirror, ok := proxyRewrite("https://github.com/acados/tera_renderer/releases/download/v0.0.34/t_renderer-v0.0.34-linux")
	require.True(t, ok)
	require.Equal(t, "http://gh-proxy.com/https://github.com/acados/tera_renderer/releases/download/v0.0.34/t_renderer-v0.0.34-linux", mirror)

	_, ok = proxyRewrite("https://example.com/file")
	require.False(t, ok)
}

func TestEnsureHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	stubProxyRewrite(t, func(string) (string, bool) { return "", false })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Ensure(ctx, srv.URL, filepath.Join(t.TempDir(), "never"))
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
}
