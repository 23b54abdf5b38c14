package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Luca-B431/bill-app/internal/auth"
)

func TestSession_IssuesCookie(t *testing.T) {
	manager := auth.NewSessionManager("secret", time.Hour)

	var seen string
	handler := Session(manager, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatal("expected a session id in context")
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName || !cookies[0].HttpOnly {
		t.Fatalf("unexpected cookies %+v", cookies)
	}

	claims, err := manager.Validate(cookies[0].Value)
	if err != nil || claims.SessionID != seen {
		t.Errorf("cookie does not carry the session: %v", err)
	}
}

func TestSession_ReusesValidCookie(t *testing.T) {
	manager := auth.NewSessionManager("secret", time.Hour)
	id := auth.NewSessionID()
	token, _ := manager.Issue(id)

	var seen string
	handler := Session(manager, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != id {
		t.Errorf("expected session %s, got %s", id, seen)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("valid cookie must not be reissued")
	}
}

func TestSession_ReplacesForgedCookie(t *testing.T) {
	manager := auth.NewSessionManager("secret", time.Hour)
	forged, _ := auth.NewSessionManager("attacker", time.Hour).Issue(auth.NewSessionID())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: forged})
	rec := httptest.NewRecorder()
	Session(manager, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)

	if len(rec.Result().Cookies()) != 1 {
		t.Error("expected a fresh cookie")
	}
}

func TestLogging_RecordsStatus(t *testing.T) {
	handler := Logging(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
}
