// Package containers holds the behavior behind each page: they load the
// page's data, react to its UI events and re-render the screen from their
// own state.
package containers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/Luca-B431/bill-app/internal/models"
	"github.com/Luca-B431/bill-app/internal/session"
	"github.com/Luca-B431/bill-app/internal/store"
	"github.com/Luca-B431/bill-app/internal/ui"
)

var (
	// ErrUnknownEvent is returned for an event the page does not handle.
	ErrUnknownEvent = errors.New("containers: unknown event")
	// ErrUnknownBill is returned when an event targets a bill that is not on
	// the page.
	ErrUnknownBill = errors.New("containers: unknown bill")
	// ErrInvalidFile is returned when a receipt is not a JPG or PNG image.
	ErrInvalidFile = errors.New("containers: invalid receipt file")
	// ErrNoReceipt is returned when a bill is submitted before its receipt
	// was uploaded.
	ErrNoReceipt = errors.New("containers: no receipt uploaded")
	// ErrInvalidAmount is returned when a bill's amount is not a finite number.
	ErrInvalidAmount = errors.New("containers: invalid amount")
)

// BillResource is the part of the bills facade the containers use.
// *store.Entity[models.Bill] implements it.
type BillResource interface {
	List(ctx context.Context, opts ...store.Option) ([]models.Bill, error)
	Create(ctx context.Context, body store.Body, opts ...store.Option) (json.RawMessage, error)
	Update(ctx context.Context, selector string, body store.Body, opts ...store.Option) (models.Bill, error)
}

// UserResource creates accounts. *store.Entity[models.User] implements it.
type UserResource interface {
	Create(ctx context.Context, body store.Body, opts ...store.Option) (json.RawMessage, error)
}

// Authenticator exchanges credentials for a token. *store.Store implements it.
type Authenticator interface {
	Login(ctx context.Context, creds store.Credentials) (*store.LoginResponse, error)
}

// Env carries the dependencies every container is built with.
type Env struct {
	// Bills is nil when no backend is configured.
	Bills    BillResource
	Users    UserResource
	Auth     Authenticator
	Session  *session.Session
	Root     *ui.Root
	Navigate ui.Navigate
	Logger   *slog.Logger
	// ExcludedEmails are accounts whose bills never show up on the
	// dashboard, in addition to the signed-in administrator's own.
	ExcludedEmails []string
}

func (e Env) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// NewEnv wires an Env to a Store.
func NewEnv(s *store.Store, sess *session.Session, root *ui.Root, navigate ui.Navigate, logger *slog.Logger) Env {
	env := Env{
		Session:  sess,
		Root:     root,
		Navigate: navigate,
		Logger:   logger,
	}
	if s != nil {
		env.Bills = s.Bills()
		env.Users = s.Users()
		env.Auth = s
	}
	return env
}
