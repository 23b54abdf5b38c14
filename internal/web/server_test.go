package web

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Luca-B431/bill-app/internal/api"
	"github.com/Luca-B431/bill-app/internal/auth"
	"github.com/Luca-B431/bill-app/internal/metrics"
	"github.com/Luca-B431/bill-app/internal/middleware"
	"github.com/Luca-B431/bill-app/internal/models"
	"github.com/Luca-B431/bill-app/internal/storage"
	"github.com/Luca-B431/bill-app/internal/testutil"
)

// backend is a fake Billed API.
type backend struct {
	mu      sync.Mutex
	uploads int
	logins  int
	bills   []models.Bill
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/auth/login":
		b.logins++
		json.NewEncoder(w).Encode(map[string]string{"jwt": "token-1"})
	case r.Method == http.MethodGet && r.URL.Path == "/bills":
		json.NewEncoder(w).Encode(b.bills)
	case r.Method == http.MethodPost && r.URL.Path == "/bills":
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, `{"message":"bad upload"}`, http.StatusBadRequest)
			return
		}
		b.uploads++
		json.NewEncoder(w).Encode(map[string]string{"fileUrl": "https://localhost:3456/images/receipt.png", "key": "1234"})
	default:
		http.NotFound(w, r)
	}
}

func (b *backend) counts() (logins, uploads int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.logins, b.uploads
}

type harness struct {
	t       *testing.T
	server  *Server
	http    *httptest.Server
	backend *backend
	client  *http.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	be := &backend{bills: []models.Bill{
		{ID: "a", Email: "employee@test.tld", Type: "Transports", Name: "Train", Amount: 40, Date: "2004-04-04", Status: models.StatusPending},
		{ID: "b", Email: "employee@test.tld", Type: "Hôtel et logement", Name: "Hôtel", Amount: 300, Date: "2003-03-03", Status: models.StatusAccepted},
	}}
	backendServer := httptest.NewServer(be)
	t.Cleanup(backendServer.Close)

	client, err := api.NewClient(api.ClientConfig{BaseURL: backendServer.URL})
	if err != nil {
		t.Fatalf("api client: %v", err)
	}

	srv, err := NewServer(Config{
		Storage:       storage.NewMemory(),
		Client:        client,
		Sessions:      auth.NewSessionManager("0123456789abcdef0123", time.Hour),
		RenderTimeout: 2 * time.Second,
		Metrics:       metrics.New(),
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})

	jar, _ := cookiejar.New(nil)
	return &harness{
		t:       t,
		server:  srv,
		http:    ts,
		backend: be,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (h *harness) do(req *http.Request) (*http.Response, string) {
	h.t.Helper()
	resp, err := h.client.Do(req)
	if err != nil {
		h.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func (h *harness) get(path string) (*http.Response, string) {
	h.t.Helper()
	req, _ := http.NewRequest(http.MethodGet, h.http.URL+path, nil)
	return h.do(req)
}

func (h *harness) post(path string, form url.Values) *http.Response {
	h.t.Helper()
	req, _ := http.NewRequest(http.MethodPost, h.http.URL+path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, _ := h.do(req)
	return resp
}

func (h *harness) login() {
	h.t.Helper()
	h.get("/")
	resp := h.post("/", url.Values{
		"event":    {"login-employee"},
		"email":    {"employee@test.tld"},
		"password": {"employee"},
	})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/employee/bills" {
		h.t.Fatalf("login: got %d to %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	resp, body := h.get("/healthz")
	if resp.StatusCode != http.StatusOK || body != "OK" {
		t.Errorf("got %d %q", resp.StatusCode, body)
	}
}

func TestPage_LoginIssuesCookie(t *testing.T) {
	h := newHarness(t)

	resp, body := h.get("/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var found bool
	for _, c := range resp.Cookies() {
		found = found || c.Name == middleware.CookieName
	}
	if !found {
		t.Error("expected a session cookie")
	}

	doc := testutil.Parse(t, body)
	if testutil.ByTestID(doc, "form-employee") == nil || testutil.ByTestID(doc, "form-admin") == nil {
		t.Error("expected both login forms")
	}
	if !strings.Contains(body, "#0E5AE5") {
		t.Error("expected the login background")
	}
}

func TestPage_ProtectedRedirectsToLogin(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.get("/employee/bills")
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Errorf("got %d to %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestPage_UnknownPath(t *testing.T) {
	h := newHarness(t)

	resp, body := h.get("/nowhere")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d", resp.StatusCode)
	}
	msg := testutil.ByTestID(testutil.Parse(t, body), "error-message")
	if msg == nil || !strings.Contains(testutil.Text(msg), "/nowhere") {
		t.Errorf("expected the error view naming the path, got %q", body)
	}
}

func TestEvent_LoginThenBills(t *testing.T) {
	h := newHarness(t)
	h.login()

	resp, body := h.get("/employee/bills")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	doc := testutil.Parse(t, body)
	if rows := testutil.AllByTestID(doc, "bill-row"); len(rows) != 2 {
		t.Errorf("expected 2 bill rows, got %d", len(rows))
	}
	icon := testutil.ByTestID(doc, "icon-window")
	if icon == nil || !testutil.HasClass(icon, "active-icon") {
		t.Error("expected the window icon highlighted")
	}
	if logins, _ := h.backend.counts(); logins != 1 {
		t.Errorf("expected one login call, got %d", logins)
	}
}

func TestEvent_LogoutReturnsToLogin(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.get("/employee/bills")

	resp := h.post("/employee/bills", url.Values{"event": {"logout"}})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Fatalf("got %d to %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, _ = h.get("/employee/bills")
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("expected the signed-out user redirected, got %d", resp.StatusCode)
	}
}

func TestEvent_MissingName(t *testing.T) {
	h := newHarness(t)
	resp := h.post("/", url.Values{"email": {"x@y"}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestEvent_StalePageIgnored(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.get("/employee/bills")

	// A form left open on the login page posts after navigation.
	resp := h.post("/", url.Values{"event": {"login-admin"}, "email": {"a@b"}, "password": {"x"}})
	if resp.Header.Get("Location") != "/employee/bills" {
		t.Errorf("expected to stay on bills, got %q", resp.Header.Get("Location"))
	}
	if logins, _ := h.backend.counts(); logins != 1 {
		t.Errorf("stale event reached the backend: %d logins", logins)
	}
}

func TestEvent_ReceiptUpload(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.get("/employee/bill/new")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("event", "change-file")
	part, _ := mw.CreateFormFile("file", "receipt.png")
	part.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00"))
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, h.http.URL+"/employee/bill/new", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, _ := h.do(req)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/employee/bill/new" {
		t.Fatalf("got %d to %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	if _, uploads := h.backend.counts(); uploads != 1 {
		t.Errorf("expected one upload, got %d", uploads)
	}

	_, body := h.get("/employee/bill/new")
	name := testutil.ByTestID(testutil.Parse(t, body), "file-name")
	if name == nil || testutil.Text(name) != "receipt.png" {
		t.Errorf("expected the uploaded file name, got %q", body)
	}
}

func TestBack_SignedOutGoesToLogin(t *testing.T) {
	h := newHarness(t)
	h.get("/")

	resp := h.post("/history/back", nil)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Errorf("got %d to %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestSweep_KeepsStorage(t *testing.T) {
	h := newHarness(t)
	h.login()

	if n := h.server.Sessions(); n != 1 {
		t.Fatalf("expected 1 session, got %d", n)
	}
	if swept := h.server.Sweep(time.Now()); swept != 0 {
		t.Errorf("active session swept")
	}
	if swept := h.server.Sweep(time.Now().Add(time.Hour)); swept != 1 {
		t.Errorf("expected the idle session swept, got %d", swept)
	}
	if n := h.server.Sessions(); n != 0 {
		t.Errorf("expected no session left, got %d", n)
	}

	resp, _ := h.get("/employee/bills")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("returning browser should still be signed in, got %d", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	h.get("/")

	_, body := h.get("/metrics")
	for _, name := range []string{"billed_http_requests_total", "billed_route_renders_total", "billed_active_sessions 1"} {
		if !strings.Contains(body, name) {
			t.Errorf("expected %s in metrics output", name)
		}
	}
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	if _, err := NewServer(Config{Sessions: auth.NewSessionManager("0123456789abcdef", time.Hour)}); err == nil {
		t.Error("expected error without storage")
	}
	if _, err := NewServer(Config{Storage: storage.NewMemory()}); err == nil {
		t.Error("expected error without session manager")
	}
}

func TestEvent_OversizedUploadNotTransmitted(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.get("/employee/bill/new")

	req := multipartRequest(t, "receipt.jpg", jpeg(int(MaxUploadSize)+1<<10))
	req.RequestURI = ""
	u, _ := url.Parse(h.http.URL + "/employee/bill/new")
	req.URL = u
	req.Host = u.Host
	resp, _ := h.do(req)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
	if _, uploads := h.backend.counts(); uploads != 0 {
		t.Errorf("oversized receipt reached the backend %d times", uploads)
	}
}
