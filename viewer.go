package main

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrSuperseded reports that an open request was overtaken by a newer one
// before its content finished loading. Callers discard it silently; the
// newer request owns the display.
var ErrSuperseded = errors.New("open request superseded by a newer one")

// Viewer owns the shared display state: which post is open and what its
// rendered body looks like. Every open request is tagged with a monotonically
// increasing generation token at call time, and a completion may only touch
// the display if its token is still the newest. That single rule is what
// keeps a slow first fetch from overwriting a fast second one — the last
// user-initiated open always wins, regardless of fetch completion order.
type Viewer struct {
	resolver *ContentResolver

	generation atomic.Int64

	mu       sync.Mutex
	current  *RenderedPost
	fragment Fragment
}

// NewViewer creates a viewer resolving content through the given resolver.
func NewViewer(resolver *ContentResolver) *Viewer {
	return &Viewer{resolver: resolver, fragment: ParseFragment("")}
}

// Current returns the most recently applied rendered post, or nil.
func (v *Viewer) Current() *RenderedPost {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Fragment returns the current navigation fragment.
func (v *Viewer) Fragment() Fragment {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fragment
}

// Open resolves and renders one post. The navigation fragment is updated
// before any fetching starts, so a reload or deep link reproduces the same
// state without replaying clicks. Stale completions — ours or a failure —
// return ErrSuperseded and leave the display alone.
func (v *Viewer) Open(contentPath string) (*RenderedPost, error) {
	contentPath = NormalizePath(contentPath)
	token := v.generation.Add(1)

	v.mu.Lock()
	v.fragment = v.fragment.WithPath(contentPath)
	v.mu.Unlock()

	resolved, err := v.resolver.Resolve(contentPath)
	if err != nil {
		if v.generation.Load() != token {
			return nil, ErrSuperseded
		}
		return nil, err
	}

	rendered := &RenderedPost{
		Path:     contentPath,
		HTML:     ExtractBody(resolved.Text, resolved.Kind, resolved.Path),
		Kind:     string(resolved.Kind),
		Location: resolved.Location,
	}
	if resolved.Degraded != nil {
		rendered.Note = fmt.Sprintf("secondary content unavailable, showing primary (%v)", resolved.Degraded)
	}

	if !v.apply(token, rendered) {
		return nil, ErrSuperseded
	}
	return rendered, nil
}

// OpenFragment treats a fragment change (deep link, back/forward) exactly
// like a programmatic open request. With no path in the fragment, the first
// post in sorted order is opened and written back into the fragment so the
// state is shareable from then on.
func (v *Viewer) OpenFragment(fragment string, posts []Post) (*RenderedPost, error) {
	state := ParseFragment(fragment)

	v.mu.Lock()
	v.fragment = state
	v.mu.Unlock()

	contentPath := state.Path()
	if contentPath == "" {
		openable := OpenablePosts(posts)
		if len(openable) == 0 {
			return nil, errors.New("no openable posts in index")
		}
		contentPath = openable[0].ContentPath
	}
	return v.Open(contentPath)
}

// apply installs a rendered post unless the token went stale while the
// content was in flight.
func (v *Viewer) apply(token int64, rendered *RenderedPost) bool {
	if v.generation.Load() != token {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.generation.Load() != token {
		return false
	}
	v.current = rendered
	return true
}
