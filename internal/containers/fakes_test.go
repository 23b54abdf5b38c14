package containers

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/Luca-B431/bill-app/internal/models"
	"github.com/Luca-B431/bill-app/internal/session"
	"github.com/Luca-B431/bill-app/internal/storage"
	"github.com/Luca-B431/bill-app/internal/store"
	"github.com/Luca-B431/bill-app/internal/ui"
)

type updateCall struct {
	Selector string
	Body     string
}

type fakeBills struct {
	mu        sync.Mutex
	records   []models.Bill
	listErr   error
	updateErr error
	createErr error
	upload    store.UploadResponse
	updates   []updateCall
	creates   []store.Body
	createOpt store.HeaderOptions
}

func (f *fakeBills) List(ctx context.Context, opts ...store.Option) ([]models.Bill, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Bill(nil), f.records...), nil
}

func (f *fakeBills) Create(ctx context.Context, body store.Body, opts ...store.Option) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, body)
	for _, opt := range opts {
		opt(&f.createOpt)
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	return json.Marshal(f.upload)
}

func (f *fakeBills) Update(ctx context.Context, selector string, body store.Body, opts ...store.Option) (models.Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updateCall{Selector: selector, Body: string(body.Data)})
	if f.updateErr != nil {
		return models.Bill{}, f.updateErr
	}
	var bill models.Bill
	err := json.Unmarshal(body.Data, &bill)
	return bill, err
}

type fakeUsers struct {
	created []models.User
	err     error
}

func (f *fakeUsers) Create(ctx context.Context, body store.Body, opts ...store.Option) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	var u models.User
	if err := json.Unmarshal(body.Data, &u); err != nil {
		return nil, err
	}
	f.created = append(f.created, u)
	return json.RawMessage(`{}`), nil
}

type fakeAuth struct {
	known map[string]bool
	calls int
}

var errBadCredentials = errors.New("Erreur 401")

func (f *fakeAuth) Login(ctx context.Context, creds store.Credentials) (*store.LoginResponse, error) {
	f.calls++
	if !f.known[creds.Email] {
		return nil, errBadCredentials
	}
	return &store.LoginResponse{JWT: "jwt-" + creds.Email}, nil
}

type navigations struct {
	mu    sync.Mutex
	paths []string
}

func (n *navigations) navigate(path string) {
	n.mu.Lock()
	n.paths = append(n.paths, path)
	n.mu.Unlock()
}

func (n *navigations) list() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

type testEnv struct {
	Env
	bills *fakeBills
	users *fakeUsers
	auth  *fakeAuth
	nav   *navigations
}

func newTestEnv(t *testing.T, user *session.User) *testEnv {
	t.Helper()

	bills := &fakeBills{}
	users := &fakeUsers{}
	auth := &fakeAuth{known: map[string]bool{}}
	nav := &navigations{}
	sess := session.New(storage.NewMemory().Scope("test"))
	if user != nil {
		if err := sess.SetUser(context.Background(), *user); err != nil {
			t.Fatalf("SetUser failed: %v", err)
		}
	}

	return &testEnv{
		Env: Env{
			Bills:    bills,
			Users:    users,
			Auth:     auth,
			Session:  sess,
			Root:     ui.NewRoot(),
			Navigate: nav.navigate,
		},
		bills: bills,
		users: users,
		auth:  auth,
		nav:   nav,
	}
}

func event(name, target string, values url.Values) ui.Event {
	return ui.Event{Name: name, Target: target, Values: values}
}

func fixtureBills() []models.Bill {
	return []models.Bill{
		{ID: "47qAXb6fIm2zOKkLzMro", Email: "a@a", Type: "Hôtel et logement", Name: "encore", Amount: 400, Date: "2004-04-04", VAT: "80", Pct: 20, Commentary: "séminaire billed", Status: models.StatusPending, FileURL: "https://test.storage.tld/a.jpg", FileName: "preview-facture-free-201801-pdf-1.jpg"},
		{ID: "BeKy5Mo4jkmdfPGYpTxZ", Email: "a@a", Type: "Transports", Name: "test1", Amount: 100, Date: "2001-01-01", VAT: "", Pct: 20, Status: models.StatusRefused, FileURL: "https://test.storage.tld/b.jpg", FileName: "1592770761.jpeg", CommentAdmin: "en fait non"},
		{ID: "UIUZtnPQvnbFnB0ozvJh", Email: "a@a", Type: "Services en ligne", Name: "test3", Amount: 300, Date: "2003-03-03", VAT: "60", Pct: 20, Status: models.StatusAccepted, FileURL: "https://test.storage.tld/c.jpg", FileName: "facture-client-php-exportee-dans-document-pdf-enregistre-sur-disque-dur.png", CommentAdmin: "bon bah d'accord"},
		{ID: "qcCK3SzECmaZAGRrHjaC", Email: "a@a", Type: "Restaurants et bars", Name: "test2", Amount: 200, Date: "2002-02-02", VAT: "40", Pct: 20, Status: models.StatusRefused, FileURL: "https://test.storage.tld/d.jpg", FileName: "preview-facture-free-201801-pdf-1.jpg", CommentAdmin: "pas la bonne facture"},
	}
}

// usersThatRegister makes created accounts known to the fake authenticator.
type usersThatRegister struct {
	users *fakeUsers
	auth  *fakeAuth
}

func (u usersThatRegister) Create(ctx context.Context, body store.Body, opts ...store.Option) (json.RawMessage, error) {
	raw, err := u.users.Create(ctx, body, opts...)
	if err != nil {
		return nil, err
	}
	created := u.users.created[len(u.users.created)-1]
	u.auth.known[created.Email] = true
	return raw, nil
}
