// Package views renders the client's pages. Every renderer is a pure
// function of its input; containers keep the state and re-render.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"slices"
	"strconv"
	"strings"

	"github.com/Luca-B431/bill-app/internal/format"
	"github.com/Luca-B431/bill-app/internal/models"
)

//go:embed templates/*.html
var templateFiles embed.FS

var templates = template.Must(template.New("views").ParseFS(templateFiles, "templates/*.html"))

// Active sidebar icons.
const (
	IconNone   = 0
	IconWindow = 1
	IconMail   = 2
)

// Receipt image widths, in percent of the modal.
const (
	ReceiptWidthEmployee = 50
	ReceiptWidthAdmin    = 100
)

// ExpenseTypes lists the categories offered on the new bill form.
var ExpenseTypes = []string{
	"Transports",
	"Restaurants et bars",
	"Hôtel et logement",
	"Services en ligne",
	"IT et électronique",
	"Equipement et matériel",
	"Fournitures de bureau",
}

func render(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("views: rendering %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

// Layout is the frame around every signed-in page.
type Layout struct {
	ActiveIcon int
}

func (l Layout) wrap(content template.HTML, err error) (template.HTML, error) {
	if err != nil {
		return "", err
	}
	return render("layout", struct {
		ActiveIcon int
		Content    template.HTML
	}{l.ActiveIcon, content})
}

// Modal is an open receipt viewer.
type Modal struct {
	ID    string
	URL   string
	Width int
}

// Document is a complete HTML page around the screen markup.
func Document(title, background string, body template.HTML) (template.HTML, error) {
	return render("document", struct {
		Title      string
		Background string
		Body       template.HTML
	}{title, background, body})
}

// Loading renders the placeholder shown while a route fetches its data.
func Loading(layout Layout) (template.HTML, error) {
	return layout.wrap(render("loading", nil))
}

// Error renders the error view with message inline.
func Error(layout Layout, message string) (template.HTML, error) {
	return layout.wrap(render("error", message))
}

// LoginPage is the input of Login.
type LoginPage struct {
	Error string
}

// Login renders the two sign-in forms.
func Login(page LoginPage) (template.HTML, error) {
	return render("login", page)
}

// BillRow is one line of the employee's bill table.
type BillRow struct {
	Type    string
	Name    string
	Date    string
	RawDate string
	Amount  float64
	Status  string
	FileURL string
}

// BillsPage is the input of Bills.
type BillsPage struct {
	Rows  []BillRow
	Modal *Modal
}

// Bills renders the employee's bill table, most recent first.
func Bills(layout Layout, page BillsPage) (template.HTML, error) {
	rows := slices.Clone(page.Rows)
	slices.SortStableFunc(rows, func(a, b BillRow) int {
		return strings.Compare(b.RawDate, a.RawDate)
	})
	page.Rows = rows
	return layout.wrap(render("bills", page))
}

// NewBillPage is the input of NewBill.
type NewBillPage struct {
	FileError string
	FormError string
	FileName  string
	Uploaded  bool
}

// NewBill renders the new bill form.
func NewBill(layout Layout, page NewBillPage) (template.HTML, error) {
	return layout.wrap(render("newbill", struct {
		NewBillPage
		ExpenseTypes []string
	}{page, ExpenseTypes}))
}

// Column is one triage column of the dashboard.
type Column struct {
	Index int
	Title string
	Open  bool
	Cards template.HTML
}

// DashboardPage is the input of Dashboard.
type DashboardPage struct {
	Columns []Column
	// Detail is the right-hand panel: the selected bill's form or the
	// placeholder icon.
	Detail template.HTML
	Modal  *Modal
}

// Dashboard renders the administrator's triage page.
func Dashboard(layout Layout, page DashboardPage) (template.HTML, error) {
	return layout.wrap(render("dashboard", page))
}

// NameParts splits the local part of email on "." into first and last name.
// Without a dot the first name is empty and the last name is the whole local
// part.
func NameParts(email string) (first, last string) {
	local, _, _ := strings.Cut(email, "@")
	if !strings.Contains(local, ".") {
		return "", local
	}
	parts := strings.Split(local, ".")
	return parts[0], parts[1]
}

type cardData struct {
	ID        string
	FirstName string
	LastName  string
	Name      string
	Amount    float64
	Date      string
	Type      string
	Selected  bool
}

func displayDate(iso string) string {
	if formatted, err := format.Date(iso); err == nil {
		return formatted
	}
	return iso
}

// Card renders one bill summary. A selected card is highlighted.
func Card(bill models.Bill, selected bool) (template.HTML, error) {
	first, last := NameParts(bill.Email)
	return render("card", cardData{
		ID:        bill.ID,
		FirstName: first,
		LastName:  last,
		Name:      bill.Name,
		Amount:    bill.Amount,
		Date:      displayDate(bill.Date),
		Type:      bill.Type,
		Selected:  selected,
	})
}

// Cards renders bills in order, highlighting the one whose ID is selectedID.
// It returns "" for no bills.
func Cards(bills []models.Bill, selectedID string) (template.HTML, error) {
	var b strings.Builder
	for _, bill := range bills {
		card, err := Card(bill, selectedID != "" && bill.ID == selectedID)
		if err != nil {
			return "", err
		}
		b.WriteString(string(card))
	}
	return template.HTML(b.String()), nil
}

// Placeholder renders the icon shown when no ticket is expanded.
func Placeholder() (template.HTML, error) {
	return render("placeholder", nil)
}

// DashboardForm renders the detail panel of bill. Pending bills get the
// review form; reviewed ones show the administrator's comment.
func DashboardForm(bill models.Bill) (template.HTML, error) {
	commentary, err := Markdown(bill.Commentary)
	if err != nil {
		return "", err
	}
	return render("dashboard-form", struct {
		models.Bill
		Date       string
		Pct        string
		Commentary template.HTML
		Pending    bool
	}{
		Bill:       bill,
		Date:       displayDate(bill.Date),
		Pct:        strconv.FormatFloat(bill.Pct, 'f', -1, 64),
		Commentary: commentary,
		Pending:    bill.Status == models.StatusPending,
	})
}
