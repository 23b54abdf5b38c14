// Package ui holds the screen of one browser session and the events posted
// back by its forms.
package ui

import (
	"context"
	"html/template"
	"net/url"
	"sync"
)

// Background colours of the page body.
const (
	BackgroundLogin = "#0E5AE5"
	BackgroundApp   = "#fff"
)

// Event names posted by the rendered pages.
const (
	EventNewBill      = "new-bill"
	EventIconEye      = "icon-eye"
	EventCloseModal   = "close-modal"
	EventShowTickets  = "show-tickets"
	EventEditTicket   = "edit-ticket"
	EventIconEyeAdmin = "icon-eye-d"
	EventAcceptBill   = "accept-bill"
	EventRefuseBill   = "refuse-bill"
	EventChangeFile   = "change-file"
	EventSubmit       = "submit"
	EventLoginEmp     = "login-employee"
	EventLoginAdmin   = "login-admin"
	EventLogout       = "logout"
)

// Upload is a file picked in a form.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Event is one user interaction: the element it came from and the form
// values submitted with it.
type Event struct {
	Name string
	// Target identifies the element (a column index, a bill id, a receipt URL).
	Target string
	Values url.Values
	Upload *Upload
}

// Value returns the first form value for key.
func (e Event) Value(key string) string {
	return e.Values.Get(key)
}

// Navigate requests a route change. It returns once the loading view is on
// screen; the route's data arrives asynchronously.
type Navigate func(pathname string)

// Container reacts to the events of the page it was installed for.
type Container interface {
	Handle(ctx context.Context, ev Event) error
}

// Root is the screen: the markup inside the page root and the body
// background. It is safe for concurrent use.
type Root struct {
	mu         sync.RWMutex
	html       template.HTML
	background string
}

// NewRoot creates an empty screen on the login background.
func NewRoot() *Root {
	return &Root{background: BackgroundLogin}
}

// Set replaces the screen markup.
func (r *Root) Set(html template.HTML) {
	r.mu.Lock()
	r.html = html
	r.mu.Unlock()
}

// HTML returns the current markup.
func (r *Root) HTML() template.HTML {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.html
}

// SetBackground changes the body background colour.
func (r *Root) SetBackground(color string) {
	r.mu.Lock()
	r.background = color
	r.mu.Unlock()
}

// Background returns the body background colour.
func (r *Root) Background() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.background
}
