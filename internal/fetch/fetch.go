// Package fetch downloads build artifacts that must exist locally before an
// image build. Downloads are idempotent: an existing destination file is
// never re-fetched. GitHub URLs that fail get one retry through a proxy
// mirror before the failure is surfaced.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/log"
	"golang.org/x/term"
)

// Error reports that an artifact could not be downloaded, after any eligible
// fallback attempt.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

var httpClient = &http.Client{Timeout: 5 * time.Minute}

// proxyRewrite maps a failed URL to a fallback mirror URL. Only GitHub is
// eligible; everything else fails without a retry.
var proxyRewrite = func(raw string) (string, bool) {
	if strings.HasPrefix(raw, "https://github.com") {
		return "http://gh-proxy.com/" + raw, true
	}
	return "", false
}

// Ensure makes sure the artifact at url exists at dest. Existing files are a
// logged no-op.
func Ensure(ctx context.Context, url, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		log.Info("resource already exists, skipping download", "path", dest)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return &Error{URL: url, Err: err}
	}

	log.Info("downloading resource", "url", url, "dest", dest)
	err := download(ctx, url, dest)
	if err == nil {
		return nil
	}

	mirror, ok := proxyRewrite(url)
	if !ok {
		return &Error{URL: url, Err: err}
	}
	log.Warn("download failed, retrying through proxy mirror", "url", url, "error", err)
	if perr := download(ctx, mirror, dest); perr != nil {
		return &Error{URL: url, Err: fmt.Errorf("direct: %v; proxy: %w", err, perr)}
	}
	return nil
}

func download(ctx context.Context, url, dest string) error {
	stop := startSpinner(url)
	defer stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".download-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, dest)
}

// startSpinner shows progress on interactive terminals only; in pipes and CI
// the log line above is enough.
func startSpinner(url string) func() {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " Downloading " + filepath.Base(url) + "..."
	s.Start()
	return s.Stop
}
