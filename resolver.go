package main

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// bodyRefPattern matches a body-reference directive: an optionally
// bullet-prefixed label ("本文" or "body", any case) followed by an ASCII or
// full-width colon and a non-empty reference. A label without a colon (e.g.
// "本文を書きました") is ordinary prose, not a directive.
var bodyRefPattern = regexp.MustCompile(`^\s*(?:[-*・]\s*)?(?i:本文|body)\s*[:：]\s*(\S.*)$`)

// ContentResolver turns a canonical content path into renderable text. The
// primary file is fetched first; if it carries a body-reference directive the
// referenced HTML file (colocated with the primary) is promoted to be the
// rendered body. A failed secondary fetch degrades to the primary markdown
// rather than failing the whole resolution.
type ContentResolver struct {
	fetcher *ContentFetcher
}

// NewContentResolver creates a resolver reading through the given fetcher.
func NewContentResolver(fetcher *ContentFetcher) *ContentResolver {
	return &ContentResolver{fetcher: fetcher}
}

// Resolve runs one resolution attempt. A primary fetch failure is terminal
// and returns a FetchError with the exact location attempted.
func (r *ContentResolver) Resolve(contentPath string) (*ResolvedContent, error) {
	contentPath = NormalizePath(contentPath)

	data, err := r.fetcher.Fetch(contentPath)
	if err != nil {
		return nil, err
	}

	meta, body := SplitFrontMatter(string(data))

	ref, found := FindBodyRef(body)
	if !found {
		return &ResolvedContent{
			Kind:     KindMarkdown,
			Text:     body,
			Path:     contentPath,
			Location: r.fetcher.Location(contentPath),
			Meta:     meta,
		}, nil
	}

	secondaryPath := SiblingPath(contentPath, ref)
	secondary, err := r.fetcher.Fetch(secondaryPath)
	if err != nil {
		if fe, ok := err.(*FetchError); ok {
			fe.Secondary = true
		}
		// Show the primary markdown instead of failing the operation.
		return &ResolvedContent{
			Kind:     KindMarkdown,
			Text:     body,
			Path:     contentPath,
			Location: r.fetcher.Location(contentPath),
			Meta:     meta,
			Degraded: err,
		}, nil
	}

	return &ResolvedContent{
		Kind:     KindHTML,
		Text:     string(secondary),
		Path:     secondaryPath,
		Location: r.fetcher.Location(secondaryPath),
		Meta:     meta,
	}, nil
}

// SplitFrontMatter strips a leading front-matter block (a first line of
// exactly "---" closed by the next line starting with "---") and parses it as
// YAML. Text without a front-matter block is returned unchanged with nil
// metadata; an unparsable block is still stripped, since it is metadata
// either way.
func SplitFrontMatter(text string) (map[string]any, string) {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], "\r") != "---" {
		return nil, text
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimRight(lines[i], "\r"), "---") {
			end = i
			break
		}
	}
	if end == -1 {
		return nil, text
	}

	var meta map[string]any
	block := strings.Join(lines[1:end], "\n")
	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		meta = nil
	}

	body := strings.Join(lines[end+1:], "\n")
	body = strings.TrimPrefix(body, "\n")
	return meta, body
}

// FindBodyRef scans line by line for a body-reference directive and returns
// the first reference found. Later lines are not considered once one matches.
func FindBodyRef(text string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if m := bodyRefPattern.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}
