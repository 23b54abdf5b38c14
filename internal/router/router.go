// Package router maps route paths to pages and drives their life cycle:
// a loading view is shown synchronously, the page's data is fetched on a
// goroutine, and the page (or an error view) replaces the loading view once
// the fetch settles. Starting a new navigation cancels the previous fetch
// and discards its result.
package router

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"sync"
	"time"

	"github.com/Luca-B431/bill-app/internal/containers"
	"github.com/Luca-B431/bill-app/internal/metrics"
	"github.com/Luca-B431/bill-app/internal/routes"
	"github.com/Luca-B431/bill-app/internal/session"
	"github.com/Luca-B431/bill-app/internal/ui"
	"github.com/Luca-B431/bill-app/internal/views"
)

// ErrNoContainer is returned by Dispatch while no page is installed, e.g.
// during loading or on an error view.
var ErrNoContainer = errors.New("router: no page installed")

// maxHistory bounds the navigation history.
const maxHistory = 50

// Page is the container of one route.
type Page interface {
	ui.Container
	// Load fetches the page's data. It must honor ctx cancellation.
	Load(ctx context.Context) error
	// Render draws the page on the screen.
	Render() error
}

// PageFunc builds the page of a route.
type PageFunc func(env containers.Env) Page

// DefaultPages returns the client's pages.
func DefaultPages() map[string]PageFunc {
	return map[string]PageFunc{
		routes.Login:     func(env containers.Env) Page { return containers.NewLogin(env) },
		routes.Bills:     func(env containers.Env) Page { return containers.NewBills(env) },
		routes.NewBill:   func(env containers.Env) Page { return containers.NewNewBill(env) },
		routes.Dashboard: func(env containers.Env) Page { return containers.NewDashboard(env) },
	}
}

// Config holds configuration for creating a Router.
type Config struct {
	// Env is passed to every page. Root and Session are required; Navigate
	// is replaced by the router's own.
	Env containers.Env
	// Pages maps route paths to pages. If nil, DefaultPages() is used.
	Pages map[string]PageFunc
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
	// Metrics counts route outcomes. May be nil.
	Metrics *metrics.Metrics
}

// Router is the route state machine of one browser session.
type Router struct {
	env     containers.Env
	pages   map[string]PageFunc
	logger  *slog.Logger
	metrics *metrics.Metrics

	ctx   context.Context
	close context.CancelFunc

	mu         sync.Mutex
	path       string
	history    []string
	generation uint64
	cancel     context.CancelFunc
	current    Page
	active     int
	settled    chan struct{}
}

// New creates a Router. Call Start to render the first page.
func New(config Config) (*Router, error) {
	if config.Env.Root == nil {
		return nil, fmt.Errorf("router: Env.Root is required")
	}
	if config.Env.Session == nil {
		return nil, fmt.Errorf("router: Env.Session is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pages := config.Pages
	if pages == nil {
		pages = DefaultPages()
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Router{
		env:     config.Env,
		pages:   pages,
		logger:  logger,
		metrics: config.Metrics,
		ctx:     ctx,
		close:   cancel,
		settled: closedChan(),
	}
	r.env.Navigate = r.Navigate
	if r.env.Logger == nil {
		r.env.Logger = logger
	}
	return r, nil
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Start renders the page for the initial location. Legacy hash locations
// ("#employee/bills") are accepted.
func (r *Router) Start(location string) {
	path := routes.Normalize(location)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = []string{path}
	r.navigateLocked(path)
}

// Navigate pushes pathname on the history and renders its page. It returns
// once the loading view is on screen.
func (r *Router) Navigate(pathname string) {
	path := routes.Normalize(pathname)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.push(path)
	r.navigateLocked(path)
}

// Back handles a history pop. A signed-out user on the login path gets the
// login page; a signed-in user is sent to the previous location.
func (r *Router) Back() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.history) > 1 {
		r.history = r.history[:len(r.history)-1]
	}
	location := r.history[len(r.history)-1]

	user, err := r.env.Session.User(r.ctx)
	if err != nil {
		return err
	}
	if user == nil {
		if location != routes.Login {
			r.history[len(r.history)-1] = routes.Login
		}
		r.navigateLocked(routes.Login)
		return nil
	}

	previous, err := r.env.Session.PreviousLocation(r.ctx)
	if err != nil {
		return err
	}
	if previous == "" {
		previous = homeFor(user)
	}
	r.push(previous)
	r.navigateLocked(previous)
	return nil
}

// Dispatch delivers ev to the installed page.
func (r *Router) Dispatch(ctx context.Context, ev ui.Event) error {
	r.mu.Lock()
	page := r.current
	r.mu.Unlock()

	if page == nil {
		return ErrNoContainer
	}
	return page.Handle(ctx, ev)
}

// Wait blocks until the latest navigation has settled or ctx is done.
func (r *Router) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		settled := r.settled
		r.mu.Unlock()

		select {
		case <-settled:
		case <-ctx.Done():
			return ctx.Err()
		}

		r.mu.Lock()
		same := settled == r.settled
		r.mu.Unlock()
		if same {
			return nil
		}
	}
}

// Path returns the current route path.
func (r *Router) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}

// ActiveIcon returns the highlighted sidebar icon (views.IconWindow,
// views.IconMail or views.IconNone).
func (r *Router) ActiveIcon() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Root returns the screen the router draws on.
func (r *Router) Root() *ui.Root {
	return r.env.Root
}

// Close cancels any in-flight fetch. The router must not be used afterwards.
func (r *Router) Close() {
	r.close()
}

func (r *Router) push(path string) {
	r.history = append(r.history, path)
	if len(r.history) > maxHistory {
		r.history = r.history[len(r.history)-maxHistory:]
	}
}

func homeFor(user *session.User) string {
	if user.IsAdmin() {
		return routes.Dashboard
	}
	return routes.Bills
}

func activeIcon(path string) int {
	switch path {
	case routes.Bills, routes.Dashboard:
		return views.IconWindow
	case routes.NewBill:
		return views.IconMail
	default:
		return views.IconNone
	}
}

// guard redirects protected paths: signed-out users go to the login page and
// employees never reach the dashboard.
func (r *Router) guard(path string) (string, error) {
	if !routes.Protected(path) {
		return path, nil
	}
	user, err := r.env.Session.User(r.ctx)
	if err != nil {
		return "", err
	}
	if user == nil {
		return routes.Login, nil
	}
	if routes.AdminOnly(path) && !user.IsAdmin() {
		return routes.Bills, nil
	}
	return path, nil
}

func (r *Router) navigateLocked(requested string) {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.generation++
	generation := r.generation
	r.current = nil
	done := make(chan struct{})
	r.settled = done

	path, err := r.guard(requested)
	if err != nil {
		r.fail(requested, err)
		close(done)
		return
	}
	if path != requested {
		r.logger.Info("Navigation redirected", "from", requested, "to", path)
		r.history[len(r.history)-1] = path
	}
	r.path = path
	r.active = activeIcon(path)

	newPage, ok := r.pages[path]
	if !ok {
		r.fail(path, fmt.Errorf("Page introuvable : %s", path))
		close(done)
		return
	}
	page := newPage(r.env)

	if path == routes.Login {
		if err := page.Render(); err != nil {
			r.fail(path, err)
		} else {
			r.env.Root.SetBackground(ui.BackgroundLogin)
			r.current = page
			r.metrics.ObserveRoute(routes.Name(path), "ok")
		}
		close(done)
		return
	}

	if err := r.env.Session.SetPreviousLocation(r.ctx, path); err != nil {
		r.logger.Warn("Previous location not saved", "path", path, "error", err)
	}
	r.env.Root.SetBackground(ui.BackgroundApp)
	loading, err := views.Loading(views.Layout{ActiveIcon: r.active})
	if err != nil {
		r.fail(path, err)
		close(done)
		return
	}
	r.env.Root.Set(loading)

	ctx, cancel := context.WithCancel(r.ctx)
	r.cancel = cancel
	go r.load(ctx, generation, path, page, done)
}

func (r *Router) load(ctx context.Context, generation uint64, path string, page Page, done chan struct{}) {
	defer close(done)
	start := time.Now()
	err := page.Load(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	if generation != r.generation || r.ctx.Err() != nil {
		r.logger.Debug("Discarding superseded route result", "path", path)
		r.metrics.ObserveRoute(routes.Name(path), "stale")
		return
	}
	if err != nil {
		r.fail(path, err)
		return
	}
	if err := page.Render(); err != nil {
		r.fail(path, err)
		return
	}
	r.current = page
	r.metrics.ObserveRoute(routes.Name(path), "ok")
	r.logger.Debug("Route rendered", "path", path, "duration", time.Since(start))
}

// fail renders the error view carrying err's message.
func (r *Router) fail(path string, err error) {
	r.logger.Warn("Route failed", "path", path, "error", err)
	r.metrics.ObserveRoute(routes.Name(path), "error")

	html, rerr := views.Error(views.Layout{ActiveIcon: r.active}, err.Error())
	if rerr != nil {
		r.logger.Error("Error view failed", "error", rerr)
		html = template.HTML(template.HTMLEscapeString(err.Error()))
	}
	r.env.Root.Set(html)
}
