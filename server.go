package main

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed config/viewer.html
var viewerTemplateHTML string

var viewerTemplate = template.Must(template.New("viewer").Parse(viewerTemplateHTML))

// Server serves the archive directory, a minimal viewer page, and a JSON API
// over one loaded index.
type Server struct {
	settings *Settings
	fetcher  *ContentFetcher
	loader   *IndexLoader
	viewer   *Viewer

	mu       sync.RWMutex
	posts    []Post
	rawCount int
}

// NewServer wires a server for the given settings.
func NewServer(settings *Settings) *Server {
	fetcher := NewContentFetcher(settings.Root)
	return &Server{
		settings: settings,
		fetcher:  fetcher,
		loader:   NewIndexLoader(fetcher),
		viewer:   NewViewer(NewContentResolver(fetcher)),
	}
}

// ReloadIndex fetches the index and rebuilds the whole post set. There is no
// incremental update; the set is derived from scratch on every load.
func (s *Server) ReloadIndex() error {
	records, err := s.loader.Load(s.settings.IndexPath)
	if err != nil {
		return err
	}
	posts := BuildPosts(records)

	s.mu.Lock()
	s.posts = posts
	s.rawCount = len(records)
	s.mu.Unlock()

	log.Printf("index loaded: %d records, %d openable", len(records), len(OpenablePosts(posts)))
	return nil
}

// Posts returns the current post set and the raw record count.
func (s *Server) Posts() ([]Post, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.posts, s.rawCount
}

// Router builds the chi router.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleViewerPage)
	r.Get("/api/posts", s.handlePosts)
	r.Get("/api/content", s.handleContent)

	// Post images and secondary pages are fetched by the browser relative
	// to the viewer page, so the archive root is mounted at /. A remote root
	// cannot back an http.Dir; those requests go through the fetcher instead.
	if s.fetcher.Remote() {
		r.Handle("/*", http.HandlerFunc(s.proxyArchive))
	} else {
		r.Handle("/*", http.FileServer(http.Dir(filepath.FromSlash(s.settings.Root))))
	}

	return r
}

// proxyArchive serves an archive file from a remote root, so the
// site-root-relative references inside rendered fragments resolve against
// this server in both deployment modes.
func (s *Server) proxyArchive(w http.ResponseWriter, r *http.Request) {
	rel := NormalizePath(r.URL.Path)
	if rel == "" {
		http.NotFound(w, r)
		return
	}
	data, err := s.fetcher.Fetch(rel)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			http.Error(w, fmt.Sprintf("archive file not available\nattempted: %s\n%v", fe.Location, err), http.StatusBadGateway)
			return
		}
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	ctype := mime.TypeByExtension(path.Ext(rel))
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", ctype)
	w.Write(data)
}

// Run loads the index, optionally starts the index watcher, and serves until
// the listener fails.
func (s *Server) Run() error {
	if err := s.ReloadIndex(); err != nil {
		return err
	}
	if s.settings.Watch {
		if err := s.watchIndex(); err != nil {
			log.Printf("index watch disabled: %v", err)
		}
	}
	log.Printf("serving %s on %s", s.settings.Root, s.settings.Listen)
	return http.ListenAndServe(s.settings.Listen, s.Router())
}

func (s *Server) handleViewerPage(w http.ResponseWriter, r *http.Request) {
	posts, total := s.Posts()
	openable := OpenablePosts(posts)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := viewerTemplate.Execute(w, map[string]any{
		"Posts":         openable,
		"OpenableCount": len(openable),
		"Total":         total,
	})
	if err != nil {
		log.Printf("rendering viewer page: %v", err)
	}
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	posts, total := s.Posts()
	writeJSON(w, http.StatusOK, map[string]any{
		"total": total,
		"posts": OpenablePosts(posts),
	})
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	contentPath := r.URL.Query().Get("p")
	if contentPath == "" {
		http.Error(w, "missing p parameter", http.StatusBadRequest)
		return
	}

	rendered, err := s.viewer.Open(contentPath)
	if err != nil {
		if errors.Is(err, ErrSuperseded) {
			// A newer request owns the display; this response is moot.
			w.WriteHeader(http.StatusNoContent)
			return
		}
		var fe *FetchError
		if errors.As(err, &fe) {
			http.Error(w, fmt.Sprintf("content not available\nattempted: %s\n%v", fe.Location, err), http.StatusBadGateway)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rendered)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}

// watchIndex reloads the post set when the index file changes on disk.
// Debounced because editors and the crawler both write in bursts.
func (s *Server) watchIndex() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	indexDir := filepath.Dir(filepath.Join(s.settings.Root, filepath.FromSlash(NormalizePath(s.settings.IndexPath))))
	if err := watcher.Add(indexDir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", indexDir, err)
	}
	log.Printf("watching %s for index changes", indexDir)

	go func() {
		defer watcher.Close()
		var lastReload time.Time
		const debounce = 500 * time.Millisecond

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if time.Since(lastReload) < debounce {
					continue
				}
				lastReload = time.Now()
				time.Sleep(100 * time.Millisecond)
				if err := s.ReloadIndex(); err != nil {
					log.Printf("index reload failed: %v", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("watcher error: %v", err)
			}
		}
	}()
	return nil
}
