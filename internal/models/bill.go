package models

// Status is the approval state of a bill.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRefused  Status = "refused"
)

// Valid reports whether s is one of the three workflow states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRefused:
		return true
	}
	return false
}

// Bill represents an expense report.
// The JSON field order matches what the backend stores, so a bill built by
// the client serializes to the same payload the backend echoes back.
type Bill struct {
	// ID is assigned by the backend and never changes afterwards.
	// Empty for a bill that has not been created yet.
	ID string `json:"id,omitempty"`

	// Email is the submitting employee's address.
	Email string `json:"email"`

	// Type is the expense category (e.g., "Transports", "Restaurants et bars").
	Type string `json:"type"`

	// Name is the employee-provided label for the expense.
	Name string `json:"name"`

	// Amount is the total including VAT, in euros.
	Amount float64 `json:"amount"`

	// Date is the expense date as an ISO string (YYYY-MM-DD).
	Date string `json:"date"`

	// VAT is the VAT amount as typed by the employee.
	VAT string `json:"vat"`

	// Pct is the VAT rate in percent.
	Pct float64 `json:"pct"`

	// Commentary is the employee's free-form note.
	Commentary string `json:"commentary"`

	// FileURL points at the uploaded receipt image.
	FileURL string `json:"fileUrl"`

	// FileName is the original name of the receipt file.
	FileName string `json:"fileName"`

	// Status is the approval state.
	Status Status `json:"status"`

	// CommentAdmin is the reviewer's note, set on accept/refuse.
	CommentAdmin string `json:"commentAdmin,omitempty"`
}

// WithReview returns a copy of b carrying the reviewer's decision.
func (b Bill) WithReview(status Status, comment string) Bill {
	b.Status = status
	b.CommentAdmin = comment
	return b
}
