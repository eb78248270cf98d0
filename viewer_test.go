package main

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestViewer(root string) *Viewer {
	return NewViewer(NewContentResolver(NewContentFetcher(root)))
}

func TestViewerOpenRendersPost(t *testing.T) {
	root := writeArchive(t, map[string]string{
		"posts/p1/index.md": "---\ntitle: t\n---\n# hello\nbody line",
	})
	viewer := newTestViewer(root)

	rendered, err := viewer.Open("/posts/p1/index.md")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if rendered.Path != "posts/p1/index.md" {
		t.Errorf("Path = %q, want normalized form", rendered.Path)
	}
	if !strings.Contains(rendered.HTML, "<h1>hello</h1>") {
		t.Errorf("HTML = %q", rendered.HTML)
	}
	if viewer.Current() != rendered {
		t.Error("Current() should be the applied render")
	}
	if viewer.Fragment().Path() != "posts/p1/index.md" {
		t.Errorf("fragment = %q", viewer.Fragment().Encode())
	}
}

// The defining ordering guarantee: when a second open request starts before
// the first one's fetch completes, only the second result is ever applied,
// regardless of completion order.
func TestViewerLastOpenWins(t *testing.T) {
	slowArrived := make(chan struct{})
	slowGate := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "slow") {
			close(slowArrived)
			<-slowGate
			io.WriteString(w, "slow post A")
			return
		}
		io.WriteString(w, "fast post B")
	}))
	defer server.Close()

	viewer := newTestViewer(server.URL)

	slowDone := make(chan error, 1)
	go func() {
		_, err := viewer.Open("posts/slow/index.md")
		slowDone <- err
	}()

	// Wait until A is provably in flight, then open B.
	select {
	case <-slowArrived:
	case <-time.After(5 * time.Second):
		t.Fatal("slow fetch never started")
	}

	renderedB, err := viewer.Open("posts/fast/index.md")
	if err != nil {
		t.Fatalf("Open(B) error = %v", err)
	}

	// Let A's fetch complete after B already rendered.
	close(slowGate)
	if err := <-slowDone; !errors.Is(err, ErrSuperseded) {
		t.Errorf("stale open returned %v, want ErrSuperseded", err)
	}

	current := viewer.Current()
	if current != renderedB {
		t.Fatalf("Current() = %+v, want B's render", current)
	}
	if !strings.Contains(current.HTML, "fast post B") {
		t.Errorf("display shows %q, want B's content", current.HTML)
	}
	if viewer.Fragment().Path() != "posts/fast/index.md" {
		t.Errorf("fragment = %q, want B's path", viewer.Fragment().Encode())
	}
}

func TestViewerOpenDegradedNote(t *testing.T) {
	root := writeArchive(t, map[string]string{
		"posts/p1/index.md": "primary text\n本文: missing.html\n",
	})
	viewer := newTestViewer(root)

	rendered, err := viewer.Open("posts/p1/index.md")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if rendered.Note == "" {
		t.Error("degraded resolution should carry a diagnostic note")
	}
	if !strings.Contains(rendered.HTML, "primary text") {
		t.Errorf("HTML = %q, want primary content", rendered.HTML)
	}
}

func TestViewerOpenFragmentDeepLink(t *testing.T) {
	root := writeArchive(t, map[string]string{
		"posts/p1/index.md": "post one",
		"posts/p2/index.md": "post two",
	})
	viewer := newTestViewer(root)
	posts := []Post{
		{ContentPath: "posts/p1/index.md", DatetimeRaw: "2025-06-01"},
		{ContentPath: "posts/p2/index.md", DatetimeRaw: "2025-01-01"},
	}

	rendered, err := viewer.OpenFragment("#p=posts%2Fp2%2Findex.md&tab=1", posts)
	if err != nil {
		t.Fatalf("OpenFragment() error = %v", err)
	}
	if !strings.Contains(rendered.HTML, "post two") {
		t.Errorf("HTML = %q", rendered.HTML)
	}
	// Unrelated fragment keys survive the update.
	if !strings.Contains(viewer.Fragment().Encode(), "tab=1") {
		t.Errorf("fragment = %q, unrelated key dropped", viewer.Fragment().Encode())
	}
}

func TestViewerOpenFragmentDefaultsToFirstPost(t *testing.T) {
	root := writeArchive(t, map[string]string{
		"posts/p1/index.md": "newest post",
	})
	viewer := newTestViewer(root)
	posts := []Post{
		{DatetimeRaw: "2025-12-01"}, // unrenderable, must be skipped
		{ContentPath: "posts/p1/index.md", DatetimeRaw: "2025-06-01"},
	}

	rendered, err := viewer.OpenFragment("", posts)
	if err != nil {
		t.Fatalf("OpenFragment() error = %v", err)
	}
	if !strings.Contains(rendered.HTML, "newest post") {
		t.Errorf("HTML = %q", rendered.HTML)
	}
	// The opened path is written back so the state is shareable.
	if viewer.Fragment().Path() != "posts/p1/index.md" {
		t.Errorf("fragment = %q", viewer.Fragment().Encode())
	}
}

func TestViewerOpenFragmentNoOpenablePosts(t *testing.T) {
	viewer := newTestViewer(t.TempDir())
	if _, err := viewer.OpenFragment("", []Post{{Title: "unrenderable"}}); err == nil {
		t.Error("expected an error with no openable posts")
	}
}
