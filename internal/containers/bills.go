package containers

import (
	"context"
	"fmt"

	"github.com/Luca-B431/bill-app/internal/format"
	"github.com/Luca-B431/bill-app/internal/models"
	"github.com/Luca-B431/bill-app/internal/routes"
	"github.com/Luca-B431/bill-app/internal/ui"
	"github.com/Luca-B431/bill-app/internal/views"
)

// Row is a bill prepared for the employee's table.
type Row struct {
	Bill models.Bill
	// Date is the display date, or the raw date when it could not be
	// formatted.
	Date   string
	Status string
}

func (r Row) view() views.BillRow {
	return views.BillRow{
		Type:    r.Bill.Type,
		Name:    r.Bill.Name,
		Date:    r.Date,
		RawDate: r.Bill.Date,
		Amount:  r.Bill.Amount,
		Status:  r.Status,
		FileURL: r.Bill.FileURL,
	}
}

// Bills is the employee's bill list.
type Bills struct {
	env    Env
	logout *Logout
	rows   []Row
	modal  *views.Modal
}

// NewBills creates the container of the bills page.
func NewBills(env Env) *Bills {
	return &Bills{env: env, logout: NewLogout(env)}
}

// GetBills fetches the signed-in employee's bills and formats them for
// display, in backend order. Without a backend it returns nil, nil.
//
// A record whose date cannot be formatted keeps its raw date; the failure
// is logged and the rest of the batch is unaffected.
func (b *Bills) GetBills(ctx context.Context) ([]Row, error) {
	if b.env.Bills == nil {
		return nil, nil
	}

	records, err := b.env.Bills.List(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(records))
	for _, record := range records {
		row := Row{Bill: record, Date: record.Date, Status: format.Status(record.Status)}
		if date, err := format.Date(record.Date); err != nil {
			b.env.logger().Warn("Bill date could not be formatted", "error", err, "bill", record)
		} else {
			row.Date = date
		}
		rows = append(rows, row)
	}

	b.env.logger().Debug("Bills fetched", "count", len(rows))
	return rows, nil
}

// Load fetches the page data.
func (b *Bills) Load(ctx context.Context) error {
	rows, err := b.GetBills(ctx)
	if err != nil {
		return err
	}
	b.rows = rows
	return nil
}

// Rows returns the loaded rows.
func (b *Bills) Rows() []Row {
	return b.rows
}

// Render draws the page from the container state.
func (b *Bills) Render() error {
	rows := make([]views.BillRow, 0, len(b.rows))
	for _, r := range b.rows {
		rows = append(rows, r.view())
	}
	html, err := views.Bills(views.Layout{ActiveIcon: views.IconWindow}, views.BillsPage{Rows: rows, Modal: b.modal})
	if err != nil {
		return err
	}
	b.env.Root.Set(html)
	return nil
}

// Handle reacts to the page's events.
func (b *Bills) Handle(ctx context.Context, ev ui.Event) error {
	switch ev.Name {
	case ui.EventNewBill:
		b.env.Navigate(routes.NewBill)
		return nil
	case ui.EventIconEye:
		b.modal = &views.Modal{ID: "modaleFile", URL: ev.Target, Width: views.ReceiptWidthEmployee}
		return b.Render()
	case ui.EventCloseModal:
		b.modal = nil
		return b.Render()
	case ui.EventLogout:
		return b.logout.Handle(ctx, ev)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, ev.Name)
	}
}
