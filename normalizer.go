package main

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// primaryFilename is the canonical name of a post's primary content file.
// Early exporter generations wrote page.html directly; everything since
// writes index.md with an optional body reference pointing at page.html, so
// index.md is the convention the viewer trusts.
const primaryFilename = "index.md"

// noTitlePlaceholder is shown for records without any title-like field.
const noTitlePlaceholder = "(no title)"

// NormalizePath converts an arbitrary path string into a canonical
// site-root-relative form: forward slashes only, no leading "./", no leading
// "/". The archive may be hosted under a sub-path, so an absolute path can
// never be trusted as site-absolute. Total and idempotent; empty in, empty
// out.
func NormalizePath(p string) string {
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, "\\", "/")
	for {
		trimmed := strings.TrimLeft(p, "/")
		for strings.HasPrefix(trimmed, "./") {
			trimmed = trimmed[2:]
		}
		if trimmed == p {
			return p
		}
		p = trimmed
	}
}

// pickString returns the first non-empty string-ish value among the given
// keys. Numeric ids appear as float64 after JSON decoding and are rendered
// back without a fractional part.
func pickString(raw RawRecord, keys ...string) string {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			if v == float64(int64(v)) {
				return fmt.Sprintf("%d", int64(v))
			}
			return fmt.Sprintf("%v", v)
		case int:
			return fmt.Sprintf("%d", v)
		}
	}
	return ""
}

// pickStrings returns the first key whose value is a list, with non-string
// elements skipped.
func pickStrings(raw RawRecord, keys ...string) []string {
	for _, key := range keys {
		list, ok := raw[key].([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// dateLayouts are tried in order when formatting a raw datetime for display.
// The crawler writes "2006.01.02 15:04"; older snapshots and hand-edited
// records use the other forms.
var dateLayouts = []string{
	"2006.01.02 15:04",
	"2006-01-02 15:04",
	"2006/01/02 15:04",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006.01.02",
	"2006-01-02",
	"2006/01/02",
}

// formatDateText renders a raw datetime as "YYYY-MM-DD HH:MM" on a
// best-effort basis. Unparsable input is returned verbatim so no information
// is ever dropped.
func formatDateText(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "unknown" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			if t.Hour() == 0 && t.Minute() == 0 && len(raw) <= len("2006/01/02") {
				return t.Format("2006-01-02")
			}
			return t.Format("2006-01-02 15:04")
		}
	}
	return raw
}

// NormalizeRecord maps a raw index record onto the canonical view model.
// Each field is resolved through an ordered fallback chain over the key names
// observed across exporter generations.
func NormalizeRecord(raw RawRecord) Post {
	p := Post{
		ID:          pickString(raw, "id"),
		Title:       pickString(raw, "title", "subject", "headline", "name"),
		DatetimeRaw: pickString(raw, "datetime", "date", "published_at", "updated_at", "time"),
		OriginalURL: pickString(raw, "url", "source_url", "original_url"),
		Images:      pickStrings(raw, "images"),
	}
	if p.Title == "" {
		p.Title = noTitlePlaceholder
	}
	p.DateText = formatDateText(p.DatetimeRaw)

	// An explicit content path wins over a directory-derived one.
	if cp := pickString(raw, "path", "content_path", "file"); cp != "" {
		p.ContentPath = NormalizePath(cp)
	} else if dir := pickString(raw, "local_dir", "folder", "dir", "path_dir"); dir != "" {
		p.ContentPath = NormalizePath(dir) + "/" + primaryFilename
	}
	return p
}

// BuildPosts normalizes every record, newest first. The returned slice keeps
// unrenderable posts (they count toward totals); callers filter with
// OpenablePosts for anything clickable.
func BuildPosts(records []RawRecord) []Post {
	posts := make([]Post, 0, len(records))
	for _, raw := range records {
		posts = append(posts, NormalizeRecord(raw))
	}
	SortPosts(posts)
	return posts
}

// SortPosts orders posts by raw datetime descending using plain lexical
// comparison. This is correct only while every record shares one zero-padded
// format; mixed separators ("2025/06/01" vs "2025-06-01") interleave wrongly
// and are a documented limitation, not something to silently repair. Records
// without a usable datetime — empty or the crawler's literal "unknown" —
// sort last.
func SortPosts(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := sortKey(posts[i]), sortKey(posts[j])
		if (a == "") != (b == "") {
			return b == ""
		}
		return a > b
	})
}

func sortKey(p Post) string {
	if p.DatetimeRaw == "unknown" {
		return ""
	}
	return p.DatetimeRaw
}

// OpenablePosts filters to posts with a resolvable content path.
func OpenablePosts(posts []Post) []Post {
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if p.Openable() {
			out = append(out, p)
		}
	}
	return out
}

// FindPost locates a post by normalized content path or, if target is all
// digits, by record id. Returns the zero Post and false when nothing matches.
func FindPost(posts []Post, target string) (Post, bool) {
	if target == "" {
		return Post{}, false
	}
	if isDigits(target) {
		for _, p := range posts {
			if p.ID == target {
				return p, true
			}
		}
	}
	normalized := NormalizePath(target)
	for _, p := range posts {
		if p.ContentPath == normalized {
			return p, true
		}
	}
	return Post{}, false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
