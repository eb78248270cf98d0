package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ContentFetcher retrieves archive files relative to a single root, which is
// either an HTTP(S) base URL or a local directory. Every fetch is a single
// round trip with no retry; callers decide what a failure means.
type ContentFetcher struct {
	root   string
	remote bool
	client *http.Client
}

// NewContentFetcher creates a fetcher for the given archive root.
func NewContentFetcher(root string) *ContentFetcher {
	return &ContentFetcher{
		root:   strings.TrimRight(root, "/"),
		remote: strings.HasPrefix(root, "http://") || strings.HasPrefix(root, "https://"),
		client: &http.Client{},
	}
}

// Remote reports whether the root is an HTTP(S) base rather than a local
// directory.
func (f *ContentFetcher) Remote() bool {
	return f.remote
}

// Location resolves a site-root-relative path to the absolute URL or
// filesystem path that a fetch would hit. Used both for fetching and for
// verbatim diagnostics.
func (f *ContentFetcher) Location(relPath string) string {
	relPath = NormalizePath(relPath)
	if f.remote {
		return f.root + "/" + relPath
	}
	return filepath.Join(f.root, filepath.FromSlash(relPath))
}

// Fetch retrieves one file. A non-2xx status or transport error returns a
// FetchError carrying the exact location attempted.
func (f *ContentFetcher) Fetch(relPath string) ([]byte, error) {
	location := f.Location(relPath)
	if !f.remote {
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, &FetchError{Location: location, Err: err}
		}
		return data, nil
	}

	req, err := http.NewRequest(http.MethodGet, location, nil)
	if err != nil {
		return nil, &FetchError{Location: location, Err: err}
	}
	// The index and content files must always reflect the latest publish;
	// ask intermediaries to revalidate instead of serving a stale copy.
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Location: location, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Location: location, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Location: location, Err: fmt.Errorf("reading response body: %w", err)}
	}
	return data, nil
}

// SiblingPath resolves a reference relative to the directory of a primary
// file. A secondary body file and its assets are colocated with the primary,
// never with the site root.
func SiblingPath(primaryPath, ref string) string {
	ref = NormalizePath(strings.TrimSpace(ref))
	dir := path.Dir(NormalizePath(primaryPath))
	if dir == "." {
		return ref
	}
	return path.Join(dir, ref)
}

// ResolveRef resolves a possibly-relative reference against a base URL (or
// base path; net/url treats plain paths as relative URLs).
func ResolveRef(base, ref string) (string, error) {
	refURL, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("parsing reference %q: %w", ref, err)
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing base %q: %w", base, err)
	}
	return baseURL.ResolveReference(refURL).String(), nil
}
