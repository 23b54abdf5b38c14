// Package web serves the client to browsers. Each browser session owns a
// router and a screen; GET requests render the screen and POST requests turn
// form submissions into events.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Luca-B431/bill-app/internal/api"
	"github.com/Luca-B431/bill-app/internal/auth"
	"github.com/Luca-B431/bill-app/internal/containers"
	"github.com/Luca-B431/bill-app/internal/metrics"
	"github.com/Luca-B431/bill-app/internal/middleware"
	"github.com/Luca-B431/bill-app/internal/router"
	"github.com/Luca-B431/bill-app/internal/routes"
	"github.com/Luca-B431/bill-app/internal/session"
	"github.com/Luca-B431/bill-app/internal/storage"
	"github.com/Luca-B431/bill-app/internal/store"
	"github.com/Luca-B431/bill-app/internal/ui"
	"github.com/Luca-B431/bill-app/internal/views"
)

const (
	// MaxUploadSize bounds a receipt file.
	MaxUploadSize int64 = 10 << 20
	// MaxRequestSize bounds a posted form body, receipt included.
	MaxRequestSize = MaxUploadSize + 1<<20

	defaultRenderTimeout = 5 * time.Second
	defaultIdleTimeout   = 30 * time.Minute

	pageTitle = "Billed"
)

// ErrUploadTooLarge is returned for a posted file over MaxUploadSize.
var ErrUploadTooLarge = errors.New("web: uploaded file too large")

// Config holds configuration for creating a Server.
type Config struct {
	// Storage hands out the per-session key-value scopes. Required.
	Storage storage.Provider
	// Client talks to the backend. If nil, pages render without data.
	Client *api.Client
	// Sessions signs the session cookie. Required.
	Sessions *auth.SessionManager
	// SecureCookie marks the session cookie Secure.
	SecureCookie bool
	// IdleTimeout is how long an unused session stays in memory.
	IdleTimeout time.Duration
	// RenderTimeout bounds how long a request waits for a route to settle
	// before the loading view is sent instead.
	RenderTimeout time.Duration
	// ExcludedEmails are hidden from the dashboard.
	ExcludedEmails []string
	// Pages overrides the router's pages. If nil, router.DefaultPages() is used.
	Pages map[string]router.PageFunc
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
	// Metrics is served on /metrics and fed by every layer. May be nil.
	Metrics *metrics.Metrics
}

// app is the in-memory state of one browser session.
type app struct {
	router *router.Router
	// mu serialises the requests of a session.
	mu       sync.Mutex
	started  bool
	lastSeen time.Time
}

// Server is the browser-facing HTTP server.
type Server struct {
	config Config
	logger *slog.Logger
	now    func() time.Time

	mu   sync.Mutex
	apps map[string]*app
}

// NewServer creates a Server.
func NewServer(config Config) (*Server, error) {
	if config.Storage == nil {
		return nil, fmt.Errorf("web: Storage is required")
	}
	if config.Sessions == nil {
		return nil, fmt.Errorf("web: Sessions is required")
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = defaultIdleTimeout
	}
	if config.RenderTimeout <= 0 {
		config.RenderTimeout = defaultRenderTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		config: config,
		logger: logger,
		now:    time.Now,
		apps:   make(map[string]*app),
	}, nil
}

// Handler returns the server's routes wrapped in its middleware.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)
	if s.config.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.config.Metrics.Registry(), promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	pages := r.NewRoute().Subrouter()
	pages.Use(middleware.Session(s.config.Sessions, s.config.SecureCookie))
	pages.HandleFunc("/history/back", s.handleBack).Methods(http.MethodPost)
	pages.PathPrefix("/").HandlerFunc(s.handlePage).Methods(http.MethodGet)
	pages.PathPrefix("/").HandlerFunc(s.handleEvent).Methods(http.MethodPost)

	return middleware.Logging(s.config.Metrics)(r)
}

// session returns the app of the request's browser session, creating it on
// first use.
func (s *Server) session(r *http.Request) (*app, error) {
	id := middleware.SessionID(r.Context())
	if id == "" {
		return nil, errors.New("web: request without session")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.apps[id]; ok {
		a.lastSeen = s.now()
		return a, nil
	}

	sess := session.New(s.config.Storage.Scope(id))
	var backend *store.Store
	if s.config.Client != nil {
		backend = store.New(s.config.Client, sess)
	}
	logger := s.logger.With("session_id", id)
	env := containers.NewEnv(backend, sess, ui.NewRoot(), nil, logger)
	env.ExcludedEmails = s.config.ExcludedEmails

	rt, err := router.New(router.Config{
		Env:     env,
		Pages:   s.config.Pages,
		Logger:  logger,
		Metrics: s.config.Metrics,
	})
	if err != nil {
		return nil, err
	}

	a := &app{router: rt, lastSeen: s.now()}
	s.apps[id] = a
	s.config.Metrics.SetActiveSessions(len(s.apps))
	return a, nil
}

// Sweep closes the sessions unused since IdleTimeout before now. Their
// storage is kept, so a returning browser is still signed in.
func (s *Server) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	swept := 0
	for id, a := range s.apps {
		if now.Sub(a.lastSeen) < s.config.IdleTimeout {
			continue
		}
		a.router.Close()
		delete(s.apps, id)
		swept++
	}
	s.config.Metrics.SetActiveSessions(len(s.apps))
	if swept > 0 {
		s.logger.Debug("Idle sessions swept", "count", swept, "remaining", len(s.apps))
	}
	return swept
}

// Sessions returns the number of sessions held in memory.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.apps)
}

// Close closes every session.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.apps {
		a.router.Close()
		delete(s.apps, id)
	}
	s.config.Metrics.SetActiveSessions(0)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	a, err := s.session(r)
	if err != nil {
		s.internalError(w, err)
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	requested := routes.Normalize(r.URL.Path)
	switch {
	case !a.started:
		a.router.Start(requested)
		a.started = true
	case requested != a.router.Path():
		a.router.Navigate(requested)
	}

	settled := s.settle(r.Context(), a)
	if path := a.router.Path(); path != requested {
		http.Redirect(w, r, path, http.StatusSeeOther)
		return
	}

	status := http.StatusOK
	if !routes.Known(requested) {
		status = http.StatusNotFound
	}
	if !settled {
		w.Header().Set("Refresh", "1")
	}
	s.writeScreen(w, status, a.router.Root())
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := readEvent(r)
	if err != nil {
		s.logger.Warn("Event rejected", "path", r.URL.Path, "error", err)
		var tooBig *http.MaxBytesError
		if errors.Is(err, ErrUploadTooLarge) || errors.As(err, &tooBig) {
			http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	a, err := s.session(r)
	if err != nil {
		s.internalError(w, err)
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	requested := routes.Normalize(r.URL.Path)
	if !a.started {
		a.router.Start(requested)
		a.started = true
	}
	s.settle(r.Context(), a)

	if requested != a.router.Path() {
		s.logger.Debug("Event for a page no longer shown", "event", ev.Name, "path", requested, "current", a.router.Path())
	} else if err := a.router.Dispatch(r.Context(), ev); err != nil {
		s.logger.Debug("Event not handled", "event", ev.Name, "path", requested, "error", err)
	}

	s.settle(r.Context(), a)
	http.Redirect(w, r, a.router.Path(), http.StatusSeeOther)
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	a, err := s.session(r)
	if err != nil {
		s.internalError(w, err)
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		a.router.Start(routes.Login)
		a.started = true
	}
	if err := a.router.Back(); err != nil {
		s.internalError(w, err)
		return
	}
	s.settle(r.Context(), a)
	http.Redirect(w, r, a.router.Path(), http.StatusSeeOther)
}

// settle waits for the router's latest navigation, at most RenderTimeout.
// It reports whether the navigation settled.
func (s *Server) settle(ctx context.Context, a *app) bool {
	ctx, cancel := context.WithTimeout(ctx, s.config.RenderTimeout)
	defer cancel()
	return a.router.Wait(ctx) == nil
}

func (s *Server) writeScreen(w http.ResponseWriter, status int, root *ui.Root) {
	doc, err := views.Document(pageTitle, root.Background(), root.HTML())
	if err != nil {
		s.internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	io.WriteString(w, string(doc))
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.logger.Error("Request failed", "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// readEvent builds the event posted by a form. Multipart forms may carry a
// "file" field.
func readEvent(r *http.Request) (ui.Event, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestSize)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
			return ui.Event{}, fmt.Errorf("parsing multipart form: %w", err)
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return ui.Event{}, fmt.Errorf("parsing form: %w", err)
		}
	}

	ev := ui.Event{
		Name:   r.PostFormValue("event"),
		Target: r.PostFormValue("target"),
		Values: r.PostForm,
	}
	if ev.Name == "" {
		return ui.Event{}, errors.New("missing event")
	}

	if r.MultipartForm == nil {
		return ev, nil
	}
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return ev, nil
	}
	if err != nil {
		return ui.Event{}, fmt.Errorf("reading file: %w", err)
	}
	defer file.Close()
	if header.Size > MaxUploadSize {
		return ui.Event{}, fmt.Errorf("%w: %s is %d bytes", ErrUploadTooLarge, header.Filename, header.Size)
	}
	data, err := io.ReadAll(io.LimitReader(file, MaxUploadSize+1))
	if err != nil {
		return ui.Event{}, fmt.Errorf("reading file: %w", err)
	}
	if int64(len(data)) > MaxUploadSize {
		return ui.Event{}, fmt.Errorf("%w: %s", ErrUploadTooLarge, header.Filename)
	}
	if len(data) == 0 && header.Filename == "" {
		return ev, nil
	}
	ev.Upload = &ui.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	return ev, nil
}
