package containers

import (
	"context"
	"fmt"
	"html/template"
	"slices"
	"strconv"

	"github.com/Luca-B431/bill-app/internal/models"
	"github.com/Luca-B431/bill-app/internal/routes"
	"github.com/Luca-B431/bill-app/internal/store"
	"github.com/Luca-B431/bill-app/internal/ui"
	"github.com/Luca-B431/bill-app/internal/views"
)

// TicketState is the display state of one ticket card.
type TicketState int

const (
	// Collapsed shows the placeholder icon in the detail panel.
	Collapsed TicketState = iota
	// Expanded shows the ticket's detail form and highlights its card.
	Expanded
)

func (s TicketState) String() string {
	if s == Expanded {
		return "expanded"
	}
	return "collapsed"
}

var columns = []struct {
	status models.Status
	title  string
}{
	{models.StatusPending, "En attente"},
	{models.StatusAccepted, "Validé"},
	{models.StatusRefused, "Refusé"},
}

// ColumnStatus maps a triage column (1, 2 or 3) to the status it lists.
func ColumnStatus(column int) (models.Status, bool) {
	if column < 1 || column > len(columns) {
		return "", false
	}
	return columns[column-1].status, true
}

// FilteredBills returns the bills of data whose status is status and whose
// submitter is not in excluded. It returns an empty slice for empty input.
func FilteredBills(data []models.Bill, status models.Status, excluded ...string) []models.Bill {
	filtered := []models.Bill{}
	for _, bill := range data {
		if bill.Status == status && !slices.Contains(excluded, bill.Email) {
			filtered = append(filtered, bill)
		}
	}
	return filtered
}

// Dashboard is the administrator's triage page.
type Dashboard struct {
	env      Env
	logout   *Logout
	bills    []models.Bill
	excluded []string

	toggles  map[int]bool
	tickets  map[string]TicketState
	selected string
	modal    *views.Modal
}

// NewDashboard creates the container of the dashboard page.
func NewDashboard(env Env) *Dashboard {
	return &Dashboard{
		env:     env,
		logout:  NewLogout(env),
		toggles: make(map[int]bool),
		tickets: make(map[string]TicketState),
	}
}

// GetBillsAllUsers fetches every bill, unmodified. Without a backend it
// returns nil, nil.
func (d *Dashboard) GetBillsAllUsers(ctx context.Context) ([]models.Bill, error) {
	if d.env.Bills == nil {
		return nil, nil
	}
	return d.env.Bills.List(ctx)
}

// Load fetches the page data and the exclusion list for the signed-in
// administrator.
func (d *Dashboard) Load(ctx context.Context) error {
	bills, err := d.GetBillsAllUsers(ctx)
	if err != nil {
		return err
	}
	d.bills = bills

	d.excluded = slices.Clone(d.env.ExcludedEmails)
	user, err := d.env.Session.User(ctx)
	if err != nil {
		return err
	}
	if user != nil {
		d.excluded = append(d.excluded, user.Email)
	}
	return nil
}

// Bills returns the loaded bills.
func (d *Dashboard) Bills() []models.Bill {
	return d.bills
}

// ColumnOpen reports whether a triage column is showing its cards.
func (d *Dashboard) ColumnOpen(column int) bool {
	return d.toggles[column]
}

// Ticket returns the display state of a ticket.
func (d *Dashboard) Ticket(id string) TicketState {
	return d.tickets[id]
}

// ShowTickets opens a closed column and closes an open one.
func (d *Dashboard) ShowTickets(column int) error {
	if _, ok := ColumnStatus(column); !ok {
		return fmt.Errorf("containers: no triage column %d", column)
	}
	d.toggles[column] = !d.toggles[column]
	return d.Render()
}

// EditTicket alternates a ticket between Expanded and Collapsed. Selecting
// a different ticket starts it from Collapsed, so the first click on any
// ticket expands it.
func (d *Dashboard) EditTicket(id string) error {
	if _, ok := d.bill(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBill, id)
	}
	if id != d.selected {
		if d.selected != "" {
			d.tickets[d.selected] = Collapsed
		}
		d.tickets[id] = Collapsed
		d.selected = id
	}

	if d.tickets[id] == Collapsed {
		d.tickets[id] = Expanded
	} else {
		d.tickets[id] = Collapsed
	}
	return d.Render()
}

// AcceptSubmit records an accept decision, then reloads the dashboard.
func (d *Dashboard) AcceptSubmit(ctx context.Context, id, comment string) error {
	return d.review(ctx, id, models.StatusAccepted, comment)
}

// RefuseSubmit records a refuse decision, then reloads the dashboard.
func (d *Dashboard) RefuseSubmit(ctx context.Context, id, comment string) error {
	return d.review(ctx, id, models.StatusRefused, comment)
}

// review persists best-effort: a failed update is logged and the dashboard
// is reloaded anyway. The error is still returned to the caller.
func (d *Dashboard) review(ctx context.Context, id string, status models.Status, comment string) error {
	bill, ok := d.bill(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBill, id)
	}

	_, err := d.UpdateBill(ctx, bill.WithReview(status, comment))
	if err != nil {
		d.env.logger().Error("Bill review could not be saved", "bill_id", id, "status", status, "error", err)
	} else {
		d.env.logger().Info("Bill reviewed", "bill_id", id, "status", status)
	}
	d.env.Navigate(routes.Dashboard)
	return err
}

// UpdateBill saves bill and returns the record echoed by the backend.
func (d *Dashboard) UpdateBill(ctx context.Context, bill models.Bill) (models.Bill, error) {
	if d.env.Bills == nil {
		return bill, nil
	}
	body, err := store.JSONBody(bill)
	if err != nil {
		return models.Bill{}, err
	}
	return d.env.Bills.Update(ctx, bill.ID, body)
}

// bill returns the bill with the given id if the administrator may review
// it: its status is a triage column and its submitter is not excluded.
func (d *Dashboard) bill(id string) (models.Bill, bool) {
	for _, b := range d.bills {
		if b.ID != id || !b.Status.Valid() {
			continue
		}
		if len(FilteredBills([]models.Bill{b}, b.Status, d.excluded...)) == 1 {
			return b, true
		}
	}
	return models.Bill{}, false
}

// Render draws the page from the container state.
func (d *Dashboard) Render() error {
	highlighted := ""
	if d.selected != "" && d.tickets[d.selected] == Expanded {
		highlighted = d.selected
	}

	page := views.DashboardPage{Modal: d.modal}
	for i, col := range columns {
		index := i + 1
		column := views.Column{Index: index, Title: col.title, Open: d.toggles[index]}
		if column.Open {
			cards, err := views.Cards(FilteredBills(d.bills, col.status, d.excluded...), highlighted)
			if err != nil {
				return err
			}
			column.Cards = cards
		}
		page.Columns = append(page.Columns, column)
	}

	var (
		detail template.HTML
		err    error
	)
	if highlighted != "" {
		bill, _ := d.bill(highlighted)
		detail, err = views.DashboardForm(bill)
	} else {
		detail, err = views.Placeholder()
	}
	if err != nil {
		return err
	}
	page.Detail = detail

	html, err := views.Dashboard(views.Layout{ActiveIcon: views.IconWindow}, page)
	if err != nil {
		return err
	}
	d.env.Root.Set(html)
	return nil
}

// Handle reacts to the page's events.
func (d *Dashboard) Handle(ctx context.Context, ev ui.Event) error {
	switch ev.Name {
	case ui.EventShowTickets:
		column, err := strconv.Atoi(ev.Target)
		if err != nil {
			return fmt.Errorf("containers: invalid column %q: %w", ev.Target, err)
		}
		return d.ShowTickets(column)
	case ui.EventEditTicket:
		return d.EditTicket(ev.Target)
	case ui.EventIconEyeAdmin:
		d.modal = &views.Modal{ID: "modaleFileAdmin1", URL: ev.Target, Width: views.ReceiptWidthAdmin}
		return d.Render()
	case ui.EventCloseModal:
		d.modal = nil
		return d.Render()
	case ui.EventAcceptBill:
		return d.AcceptSubmit(ctx, ev.Target, ev.Value("commentary2"))
	case ui.EventRefuseBill:
		return d.RefuseSubmit(ctx, ev.Target, ev.Value("commentary2"))
	case ui.EventLogout:
		return d.logout.Handle(ctx, ev)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, ev.Name)
	}
}
