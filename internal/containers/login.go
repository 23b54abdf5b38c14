package containers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Luca-B431/bill-app/internal/models"
	"github.com/Luca-B431/bill-app/internal/routes"
	"github.com/Luca-B431/bill-app/internal/session"
	"github.com/Luca-B431/bill-app/internal/store"
	"github.com/Luca-B431/bill-app/internal/ui"
	"github.com/Luca-B431/bill-app/internal/views"
)

// Login is the sign-in page. Employees and administrators each have their
// own form; an unknown account is created on first sign-in.
type Login struct {
	env     Env
	message string
}

// NewLogin creates the container of the login page.
func NewLogin(env Env) *Login {
	return &Login{env: env}
}

// Load has nothing to fetch.
func (l *Login) Load(ctx context.Context) error {
	return nil
}

// Render draws the page on the login background.
func (l *Login) Render() error {
	html, err := views.Login(views.LoginPage{Error: l.message})
	if err != nil {
		return err
	}
	l.env.Root.Set(html)
	l.env.Root.SetBackground(ui.BackgroundLogin)
	return nil
}

// Handle reacts to the page's events.
func (l *Login) Handle(ctx context.Context, ev ui.Event) error {
	switch ev.Name {
	case ui.EventLoginEmp:
		return l.Submit(ctx, models.RoleEmployee, ev.Value("email"), ev.Value("password"))
	case ui.EventLoginAdmin:
		return l.Submit(ctx, models.RoleAdmin, ev.Value("email"), ev.Value("password"))
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, ev.Name)
	}
}

// Submit signs in with role. The user record is stored first, then the
// token; employees land on their bills and administrators on the dashboard.
func (l *Login) Submit(ctx context.Context, role models.Role, email, password string) error {
	email = strings.TrimSpace(email)
	if err := l.env.Session.SetUser(ctx, session.User{Type: role, Email: email, Status: "connected"}); err != nil {
		return err
	}

	creds := store.Credentials{Email: email, Password: password}
	if err := l.login(ctx, creds); err != nil {
		l.env.logger().Info("Login failed, creating account", "email", email, "role", role, "error", err)
		if err := l.createUser(ctx, role, creds); err != nil {
			l.env.logger().Error("Account creation failed", "email", email, "error", err)
			if rerr := l.env.Session.RemoveUser(ctx); rerr != nil {
				l.env.logger().Warn("User record not removed", "email", email, "error", rerr)
			}
			l.message = err.Error()
			if rerr := l.Render(); rerr != nil {
				return rerr
			}
			return err
		}
	}

	target := routes.Bills
	if role == models.RoleAdmin {
		target = routes.Dashboard
	}
	if err := l.env.Session.SetPreviousLocation(ctx, target); err != nil {
		return err
	}

	l.env.logger().Info("User signed in", "email", email, "role", role)
	l.env.Root.SetBackground(ui.BackgroundApp)
	l.env.Navigate(target)
	return nil
}

func (l *Login) login(ctx context.Context, creds store.Credentials) error {
	if l.env.Auth == nil {
		return nil
	}
	resp, err := l.env.Auth.Login(ctx, creds)
	if err != nil {
		return err
	}
	return l.env.Session.SetToken(ctx, resp.JWT)
}

func (l *Login) createUser(ctx context.Context, role models.Role, creds store.Credentials) error {
	if l.env.Users == nil {
		return fmt.Errorf("containers: cannot create user %s without a backend", creds.Email)
	}
	name, _, _ := strings.Cut(creds.Email, "@")
	body, err := store.JSONBody(models.User{
		Type:     role,
		Name:     name,
		Email:    creds.Email,
		Password: creds.Password,
	})
	if err != nil {
		return err
	}
	if _, err := l.env.Users.Create(ctx, body); err != nil {
		return fmt.Errorf("containers: creating user %s: %w", creds.Email, err)
	}
	l.env.logger().Info("User created", "email", creds.Email, "role", role)
	return l.login(ctx, creds)
}
