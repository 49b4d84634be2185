// Package fetch retrieves scene documents and their assets from a URL or
// the local filesystem.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	// ErrStatus indicates a non-2xx HTTP response.
	ErrStatus = errors.New("fetch: unexpected status")
	// ErrTooLarge indicates a body over the Fetcher's MaxBytes.
	ErrTooLarge = errors.New("fetch: response too large")
	// ErrEmptySource indicates an empty source string.
	ErrEmptySource = errors.New("fetch: empty source")
)

// DefaultMaxBytes bounds a single fetched file.
const DefaultMaxBytes = 64 << 20

// Fetcher reads http(s) URLs with Client and everything else from disk.
type Fetcher struct {
	Client *http.Client
	// BaseDir resolves relative file paths. Empty means the working directory.
	BaseDir  string
	MaxBytes int64
}

// Fetch is Fetcher{BaseDir: baseDir}.Fetch.
func Fetch(ctx context.Context, src, baseDir string) ([]byte, error) {
	return (&Fetcher{BaseDir: baseDir}).Fetch(ctx, src)
}

// Fetch returns the contents of src. src is an http(s) URL, a file URL or a
// plain path.
func (f *Fetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	if src == "" {
		return nil, ErrEmptySource
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if isHTTP(src) {
		return f.fetchHTTP(ctx, src)
	}
	return f.readFile(src)
}

func (f *Fetcher) limit() int64 {
	if f.MaxBytes > 0 {
		return f.MaxBytes
	}
	return DefaultMaxBytes
}

func (f *Fetcher) fetchHTTP(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: request %s: %w", src, err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: get %s: %w", src, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: get %s: %s", ErrStatus, src, resp.Status)
	}

	limit := f.limit()
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("fetch: read %s: %w", src, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s over %d bytes", ErrTooLarge, src, limit)
	}
	return data, nil
}

func (f *Fetcher) readFile(src string) ([]byte, error) {
	p := f.localPath(src)
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("fetch: stat %s: %w", p, err)
	}
	if info.Size() > f.limit() {
		return nil, fmt.Errorf("%w: %s over %d bytes", ErrTooLarge, p, f.limit())
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("fetch: read %s: %w", p, err)
	}
	return data, nil
}

func (f *Fetcher) localPath(src string) string {
	if strings.HasPrefix(src, "file://") {
		if u, err := url.Parse(src); err == nil {
			src = filepath.FromSlash(u.Path)
		}
	}
	if !filepath.IsAbs(src) && f.BaseDir != "" {
		src = filepath.Join(f.BaseDir, src)
	}
	return src
}

func isHTTP(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// BaseName returns the last path element of src without query or fragment.
func BaseName(src string) string {
	if isHTTP(src) || strings.HasPrefix(src, "file://") {
		if u, err := url.Parse(src); err == nil {
			return path.Base(u.Path)
		}
	}
	return filepath.Base(src)
}

// Sibling resolves ref against the location of src, the way a relative
// link in src would be resolved.
func Sibling(src, ref string) string {
	if isHTTP(src) || strings.HasPrefix(src, "file://") {
		base, err := url.Parse(src)
		if err != nil {
			return ref
		}
		r, err := url.Parse(ref)
		if err != nil {
			return ref
		}
		return base.ResolveReference(r).String()
	}
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(filepath.Dir(src), filepath.FromSlash(ref))
}
