package containers

import (
	"context"
	"fmt"

	"github.com/Luca-B431/bill-app/internal/routes"
	"github.com/Luca-B431/bill-app/internal/ui"
)

// Logout signs the user out from any signed-in page.
type Logout struct {
	env Env
}

// NewLogout creates a Logout.
func NewLogout(env Env) *Logout {
	return &Logout{env: env}
}

// Handle clears the session and goes back to the login page.
func (l *Logout) Handle(ctx context.Context, ev ui.Event) error {
	if ev.Name != ui.EventLogout {
		return fmt.Errorf("%w: %s", ErrUnknownEvent, ev.Name)
	}
	if err := l.env.Session.Clear(ctx); err != nil {
		return err
	}
	l.env.logger().Info("User signed out")
	l.env.Navigate(routes.Login)
	return nil
}
