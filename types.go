package main

import "fmt"

// RawRecord is one entry of the crawler-produced index. The exporter has
// changed field names across generations, so nothing here has a fixed schema;
// NormalizeRecord applies per-field fallback chains.
type RawRecord map[string]any

// Post is the canonical view model derived from a RawRecord. It is built once
// per index load and never mutated afterwards.
type Post struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	DateText    string   `json:"date_text"`
	DatetimeRaw string   `json:"datetime_raw"`
	ContentPath string   `json:"content_path"` // site-root relative; empty means unrenderable
	OriginalURL string   `json:"original_url"`
	Images      []string `json:"images,omitempty"`
}

// Openable reports whether the post has a content file that can be fetched.
func (p Post) Openable() bool {
	return p.ContentPath != ""
}

// ContentKind identifies how resolved content should be rendered.
type ContentKind string

const (
	KindMarkdown ContentKind = "markdown"
	KindHTML     ContentKind = "html"
)

// ResolvedContent is the outcome of resolving one content path: the final
// text to render, where it came from, and any front-matter metadata found in
// the primary file.
type ResolvedContent struct {
	Kind ContentKind
	Text string

	// Path is the site-root-relative path of the file Text was read from.
	// Relative links inside Text resolve against it.
	Path string

	// Location is the absolute URL or filesystem path that was fetched,
	// kept for diagnostics.
	Location string

	Meta map[string]any

	// Degraded is non-nil when a body-reference directive was found but the
	// secondary fetch failed and the primary markdown is shown instead.
	Degraded error
}

// RenderedPost is what the viewer displays: a sanitized HTML fragment plus
// enough context to attribute it.
type RenderedPost struct {
	Path     string `json:"path"`
	HTML     string `json:"html"`
	Kind     string `json:"kind"`
	Location string `json:"location"`
	Note     string `json:"note,omitempty"`
}

// IndexLoadError reports an index fetch that failed at the transport level.
type IndexLoadError struct {
	Location   string
	StatusCode int
	Err        error
}

func (e *IndexLoadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("loading index %s: HTTP %d", e.Location, e.StatusCode)
	}
	return fmt.Sprintf("loading index %s: %v", e.Location, e.Err)
}

func (e *IndexLoadError) Unwrap() error { return e.Err }

// IndexFormatError reports an index that was fetched but is neither a JSON
// array nor an object wrapping one under "posts" or "items".
type IndexFormatError struct {
	Location string
	Err      error
}

func (e *IndexFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("index %s: %v", e.Location, e.Err)
	}
	return fmt.Sprintf("index %s: not an array or {posts:[...]}/{items:[...]} document", e.Location)
}

func (e *IndexFormatError) Unwrap() error { return e.Err }

// FetchError reports a failed content fetch. Location is the exact URL or
// path attempted, shown verbatim to the user because bad path construction is
// the dominant failure mode for this kind of archive.
type FetchError struct {
	Location   string
	StatusCode int
	Secondary  bool
	Err        error
}

func (e *FetchError) Error() string {
	role := "primary"
	if e.Secondary {
		role = "secondary"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s content %s: HTTP %d", role, e.Location, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s content %s: %v", role, e.Location, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
