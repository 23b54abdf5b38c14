package views

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/Luca-B431/bill-app/internal/models"
	"github.com/Luca-B431/bill-app/internal/testutil"
)

func fixtureBills() []models.Bill {
	return []models.Bill{
		{ID: "47qAXb6fIm2zOKkLzMro", Email: "a@a", Type: "Hôtel et logement", Name: "encore", Amount: 400, Date: "2004-04-04", Status: models.StatusPending, FileURL: "https://test.storage.tld/v0/b/billable-677b6.a.png"},
		{ID: "BeKy5Mo4jkmdfPGYpTxZ", Email: "a@a", Type: "Transports", Name: "test1", Amount: 100, Date: "2001-01-01", Status: models.StatusRefused, FileURL: "https://test.storage.tld/v0/b/billable-677b6.b.png"},
		{ID: "UIUZtnPQvnbFnB0ozvJh", Email: "john.doe@a", Type: "Services en ligne", Name: "test3", Amount: 300, Date: "2003-03-03", Status: models.StatusAccepted, FileURL: "https://test.storage.tld/v0/b/billable-677b6.c.png"},
		{ID: "qcCK3SzECmaZAGRrHjaC", Email: "a@a", Type: "Restaurants et bars", Name: "test2", Amount: 200, Date: "2002-02-02", Status: models.StatusRefused, FileURL: "https://test.storage.tld/v0/b/billable-677b6.d.png"},
	}
}

func rowsOf(bills []models.Bill) []BillRow {
	rows := make([]BillRow, 0, len(bills))
	for _, b := range bills {
		rows = append(rows, BillRow{Type: b.Type, Name: b.Name, Date: b.Date, RawDate: b.Date, Amount: b.Amount, Status: string(b.Status), FileURL: b.FileURL})
	}
	return rows
}

func TestBills_ReverseChronological(t *testing.T) {
	rows := []BillRow{{RawDate: "2022-12-31"}, {RawDate: "2024-01-01"}, {RawDate: "2023-06-15"}}

	markup, err := Bills(Layout{ActiveIcon: IconWindow}, BillsPage{Rows: rows})
	if err != nil {
		t.Fatalf("Bills failed: %v", err)
	}

	doc := testutil.Parse(t, string(markup))
	var got []string
	for _, n := range testutil.AllByTestID(doc, "bill-date") {
		got = append(got, testutil.Attr(n, "data-raw-date"))
	}
	want := []string{"2024-01-01", "2023-06-15", "2022-12-31"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, got)
	}
	if rows[0].RawDate != "2022-12-31" {
		t.Error("Bills must not reorder the caller's rows")
	}
}

func TestBills_EyeIconsCarryReceiptURLs(t *testing.T) {
	bills := fixtureBills()

	markup, err := Bills(Layout{ActiveIcon: IconWindow}, BillsPage{Rows: rowsOf(bills)})
	if err != nil {
		t.Fatalf("Bills failed: %v", err)
	}

	doc := testutil.Parse(t, string(markup))
	icons := testutil.AllByTestID(doc, "icon-eye")
	if len(icons) != 4 {
		t.Fatalf("expected 4 eye icons, got %d", len(icons))
	}

	// Rows are displayed most recent first: 2004, 2003, 2002, 2001.
	want := []string{bills[0].FileURL, bills[2].FileURL, bills[3].FileURL, bills[1].FileURL}
	for i, icon := range icons {
		if got := testutil.Attr(icon, "data-bill-url"); got != want[i] {
			t.Errorf("icon %d: data-bill-url = %q, want %q", i, got, want[i])
		}
	}
	if testutil.ByTestID(doc, "btn-new-bill") == nil {
		t.Error("expected new bill button")
	}
}

func TestBills_Modal(t *testing.T) {
	markup, err := Bills(Layout{}, BillsPage{Modal: &Modal{ID: "modaleFile", URL: "https://x/y.png", Width: ReceiptWidthEmployee}})
	if err != nil {
		t.Fatalf("Bills failed: %v", err)
	}
	doc := testutil.Parse(t, string(markup))
	img := testutil.ByTestID(doc, "modal-image")
	if img == nil {
		t.Fatal("expected modal image")
	}
	if testutil.Attr(img, "src") != "https://x/y.png" {
		t.Errorf("src = %q", testutil.Attr(img, "src"))
	}
	if !strings.Contains(testutil.Attr(img, "style"), "50%") {
		t.Errorf("style = %q", testutil.Attr(img, "style"))
	}
}

func TestLayout_ActiveIcon(t *testing.T) {
	tests := []struct {
		active      int
		icon1Active bool
		icon2Active bool
	}{
		{IconWindow, true, false},
		{IconMail, false, true},
		{IconNone, false, false},
	}

	for _, tt := range tests {
		markup, err := Loading(Layout{ActiveIcon: tt.active})
		if err != nil {
			t.Fatalf("Loading failed: %v", err)
		}
		doc := testutil.Parse(t, string(markup))
		if got := testutil.HasClass(testutil.ByTestID(doc, "icon-window"), "active-icon"); got != tt.icon1Active {
			t.Errorf("active=%d: icon-window active = %v", tt.active, got)
		}
		if got := testutil.HasClass(testutil.ByTestID(doc, "icon-mail"), "active-icon"); got != tt.icon2Active {
			t.Errorf("active=%d: icon-mail active = %v", tt.active, got)
		}
		if testutil.ByTestID(doc, "loading") == nil {
			t.Error("expected loading placeholder")
		}
	}
}

func TestError(t *testing.T) {
	markup, err := Error(Layout{ActiveIcon: IconWindow}, "Erreur 404")
	if err != nil {
		t.Fatalf("Error failed: %v", err)
	}
	doc := testutil.Parse(t, string(markup))
	if got := testutil.Text(testutil.ByTestID(doc, "error-message")); !strings.Contains(got, "Erreur 404") {
		t.Errorf("expected message in error view, got %q", got)
	}
}

func TestError_EscapesMessage(t *testing.T) {
	markup, _ := Error(Layout{}, "<script>alert(1)</script>")
	if strings.Contains(string(markup), "<script>") {
		t.Error("error message must be escaped")
	}
}

func TestNameParts(t *testing.T) {
	tests := []struct {
		email, first, last string
	}{
		{"john.doe@company.tld", "john", "doe"},
		{"a@a", "", "a"},
		{"jane.m.smith@x", "jane", "m"},
		{"", "", ""},
	}
	for _, tt := range tests {
		first, last := NameParts(tt.email)
		if first != tt.first || last != tt.last {
			t.Errorf("NameParts(%q) = %q, %q; want %q, %q", tt.email, first, last, tt.first, tt.last)
		}
	}
}

func TestCards(t *testing.T) {
	bills := fixtureBills()

	markup, err := Cards(bills, bills[2].ID)
	if err != nil {
		t.Fatalf("Cards failed: %v", err)
	}
	doc := testutil.Parse(t, string(markup))

	for _, b := range bills {
		card := testutil.ByTestID(doc, "open-bill"+b.ID)
		if card == nil {
			t.Fatalf("missing card for %s", b.ID)
		}
		style := testutil.Attr(card, "style")
		if b.ID == bills[2].ID {
			if !strings.Contains(style, "#2A2B35") {
				t.Errorf("selected card style = %q", style)
			}
			if !strings.Contains(testutil.Text(card), "john doe") {
				t.Errorf("expected split name, got %q", testutil.Text(card))
			}
		} else if !strings.Contains(style, "#0D5AE5") {
			t.Errorf("card %s style = %q", b.ID, style)
		}
	}

	empty, err := Cards(nil, "")
	if err != nil || empty != "" {
		t.Errorf("expected empty markup, got %q, %v", empty, err)
	}
}

func TestCard_FormatsDate(t *testing.T) {
	markup, err := Card(models.Bill{ID: "x", Email: "a@a", Date: "2004-04-04"}, false)
	if err != nil {
		t.Fatalf("Card failed: %v", err)
	}
	if !strings.Contains(string(markup), "4 Avr. 04") {
		t.Errorf("expected formatted date in %s", markup)
	}

	markup, _ = Card(models.Bill{ID: "y", Email: "a@a", Date: "garbage"}, false)
	if !strings.Contains(string(markup), "garbage") {
		t.Error("expected raw date fallback")
	}
}

func TestDashboard_Columns(t *testing.T) {
	cards, _ := Cards(fixtureBills()[:1], "")
	markup, err := Dashboard(Layout{ActiveIcon: IconWindow}, DashboardPage{
		Columns: []Column{
			{Index: 1, Title: "En attente", Open: true, Cards: cards},
			{Index: 2, Title: "Validé"},
			{Index: 3, Title: "Refusé"},
		},
	})
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	doc := testutil.Parse(t, string(markup))

	if style := testutil.Attr(testutil.ByTestID(doc, "arrow-icon1"), "style"); !strings.Contains(style, "rotate(0deg)") {
		t.Errorf("arrow 1 style = %q", style)
	}
	if style := testutil.Attr(testutil.ByTestID(doc, "arrow-icon2"), "style"); !strings.Contains(style, "rotate(90deg)") {
		t.Errorf("arrow 2 style = %q", style)
	}
	if testutil.ByTestID(doc, "open-bill47qAXb6fIm2zOKkLzMro") == nil {
		t.Error("expected card in column 1")
	}
	if c := testutil.ByTestID(doc, "status-bills-container2"); c == nil || c.FirstChild != nil {
		t.Error("expected empty column 2")
	}
}

func TestDashboardForm(t *testing.T) {
	bill := fixtureBills()[0]
	bill.Commentary = "séminaire **billed**"

	markup, err := DashboardForm(bill)
	if err != nil {
		t.Fatalf("DashboardForm failed: %v", err)
	}
	doc := testutil.Parse(t, string(markup))

	for _, id := range []string{"dashboard-form", "commentary2", "btn-accept-bill", "btn-refuse-bill", "icon-eye-d"} {
		if testutil.ByTestID(doc, id) == nil {
			t.Errorf("missing %s", id)
		}
	}
	if !strings.Contains(string(markup), "<strong>billed</strong>") {
		t.Error("expected markdown commentary")
	}
	if testutil.Attr(testutil.ByTestID(doc, "icon-eye-d"), "data-bill-url") != bill.FileURL {
		t.Error("expected receipt url on icon-eye-d")
	}

	bill.Status = models.StatusAccepted
	bill.CommentAdmin = "ok pour moi"
	markup, _ = DashboardForm(bill)
	doc = testutil.Parse(t, string(markup))
	if testutil.ByTestID(doc, "btn-accept-bill") != nil {
		t.Error("reviewed bills have no review buttons")
	}
	if got := testutil.Text(testutil.ByTestID(doc, "comment-admin")); got != "ok pour moi" {
		t.Errorf("comment-admin = %q", got)
	}
}

func TestMarkdown_DropsRawHTML(t *testing.T) {
	out, err := Markdown("<script>x</script>")
	if err != nil {
		t.Fatalf("Markdown failed: %v", err)
	}
	if strings.Contains(string(out), "<script>") {
		t.Errorf("raw html rendered: %s", out)
	}
}

func TestNewBill_FileError(t *testing.T) {
	markup, err := NewBill(Layout{ActiveIcon: IconMail}, NewBillPage{FileError: "Veuillez télécharger une image JPG ou PNG."})
	if err != nil {
		t.Fatalf("NewBill failed: %v", err)
	}
	doc := testutil.Parse(t, string(markup))
	if testutil.ByTestID(doc, "form-new-bill") == nil {
		t.Error("expected form-new-bill")
	}
	if got := testutil.Text(testutil.ByTestID(doc, "file-error")); got != "Veuillez télécharger une image JPG ou PNG." {
		t.Errorf("file-error = %q", got)
	}
	if len(testutil.Find(doc, func(n *html.Node) bool { return n.Data == "option" })) != len(ExpenseTypes) {
		t.Error("expected one option per expense type")
	}
}

func TestDocument(t *testing.T) {
	markup, err := Document("Billed", "#0E5AE5", "<p data-testid=\"x\">hi</p>")
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	doc := testutil.Parse(t, string(markup))
	body := testutil.Find(doc, func(n *html.Node) bool { return n.Data == "body" })[0]
	if !strings.Contains(testutil.Attr(body, "style"), "#0E5AE5") {
		t.Errorf("body style = %q", testutil.Attr(body, "style"))
	}
	if testutil.ByTestID(doc, "x") == nil {
		t.Error("expected screen markup inside root")
	}
}
