package containers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Luca-B431/bill-app/internal/models"
	"github.com/Luca-B431/bill-app/internal/routes"
	"github.com/Luca-B431/bill-app/internal/store"
	"github.com/Luca-B431/bill-app/internal/ui"
	"github.com/Luca-B431/bill-app/internal/views"
)

// InvalidFileMessage is shown when a receipt is not a JPG or PNG image.
const InvalidFileMessage = "Veuillez télécharger une image JPG ou PNG."

// InvalidAmountMessage is shown when the amount is not a finite number.
const InvalidAmountMessage = "Veuillez saisir un montant valide."

// DefaultPct is the VAT rate used when the form leaves it empty.
const DefaultPct = 20

var receiptTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// ValidateReceipt checks that upload is a JPG or PNG image, both by file
// extension and by content. It returns the detected content type.
func ValidateReceipt(upload *ui.Upload) (string, error) {
	if upload == nil || upload.FileName == "" {
		return "", fmt.Errorf("%w: no file", ErrInvalidFile)
	}
	ext := strings.ToLower(filepath.Ext(upload.FileName))
	want, ok := receiptTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: extension %q", ErrInvalidFile, ext)
	}
	detected := mimetype.Detect(upload.Data)
	if !detected.Is(want) {
		return "", fmt.Errorf("%w: %s content is %s", ErrInvalidFile, ext, detected.String())
	}
	return want, nil
}

// NewBill is the new bill form.
type NewBill struct {
	env    Env
	logout *Logout

	fileURL   string
	fileName  string
	key       string
	fileError string
	formError string
}

// NewNewBill creates the container of the new bill page.
func NewNewBill(env Env) *NewBill {
	return &NewBill{env: env, logout: NewLogout(env)}
}

// Load has nothing to fetch.
func (n *NewBill) Load(ctx context.Context) error {
	return nil
}

// Render draws the page from the container state.
func (n *NewBill) Render() error {
	html, err := views.NewBill(views.Layout{ActiveIcon: views.IconMail}, views.NewBillPage{
		FileError: n.fileError,
		FormError: n.formError,
		FileName:  n.fileName,
		Uploaded:  n.key != "",
	})
	if err != nil {
		return err
	}
	n.env.Root.Set(html)
	return nil
}

func (n *NewBill) email(ctx context.Context) (string, error) {
	user, err := n.env.Session.User(ctx)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", nil
	}
	return user.Email, nil
}

// ChangeFile validates a picked receipt and uploads it. An invalid file is
// reported on the page and never sent.
func (n *NewBill) ChangeFile(ctx context.Context, upload *ui.Upload) error {
	contentType, err := ValidateReceipt(upload)
	if err != nil {
		n.env.logger().Warn("Receipt rejected", "error", err)
		n.fileError = InvalidFileMessage
		n.fileURL, n.fileName, n.key = "", "", ""
		if rerr := n.Render(); rerr != nil {
			return rerr
		}
		return err
	}
	n.fileError = ""

	if n.env.Bills == nil {
		n.fileName = upload.FileName
		return n.Render()
	}

	email, err := n.email(ctx)
	if err != nil {
		return err
	}
	body, err := store.MultipartBody(
		map[string]string{"email": email},
		store.FilePart{Field: "file", FileName: upload.FileName, ContentType: contentType, Data: upload.Data},
	)
	if err != nil {
		return err
	}

	raw, err := n.env.Bills.Create(ctx, body, store.WithoutContentType())
	if err != nil {
		n.env.logger().Error("Receipt upload failed", "file_name", upload.FileName, "error", err)
		return err
	}
	var resp store.UploadResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("containers: decoding upload response: %w", err)
	}

	n.fileURL = resp.FileURL
	n.key = resp.Key
	n.fileName = upload.FileName
	n.env.logger().Info("Receipt uploaded", "file_name", n.fileName, "key", n.key)
	return n.Render()
}

// BuildBill reads the new bill form. Amount must be a number; an empty or
// unparsable VAT rate falls back to DefaultPct.
func BuildBill(form url.Values, email, fileURL, fileName string) (models.Bill, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(form.Get("amount")), 64)
	if err != nil {
		return models.Bill{}, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, form.Get("amount"), err)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return models.Bill{}, fmt.Errorf("%w: %q", ErrInvalidAmount, form.Get("amount"))
	}
	pct, err := strconv.ParseFloat(strings.TrimSpace(form.Get("pct")), 64)
	if err != nil || pct == 0 || math.IsNaN(pct) || math.IsInf(pct, 0) {
		pct = DefaultPct
	}

	return models.Bill{
		Email:      email,
		Type:       form.Get("expense-type"),
		Name:       form.Get("expense-name"),
		Amount:     amount,
		Date:       form.Get("datepicker"),
		VAT:        form.Get("vat"),
		Pct:        pct,
		Commentary: form.Get("commentary"),
		FileURL:    fileURL,
		FileName:   fileName,
		Status:     models.StatusPending,
	}, nil
}

// Submit saves the bill under the key returned by the receipt upload, then
// goes back to the bill list. A failed save is logged; navigation happens
// regardless and the error is returned.
func (n *NewBill) Submit(ctx context.Context, form url.Values) error {
	if n.key == "" {
		n.fileError = InvalidFileMessage
		if err := n.Render(); err != nil {
			return err
		}
		return ErrNoReceipt
	}

	email, err := n.email(ctx)
	if err != nil {
		return err
	}
	bill, err := BuildBill(form, email, n.fileURL, n.fileName)
	if err != nil {
		n.env.logger().Warn("Bill rejected", "error", err)
		n.formError = InvalidAmountMessage
		if rerr := n.Render(); rerr != nil {
			return rerr
		}
		return err
	}
	n.formError = ""

	if n.env.Bills != nil {
		body, err := store.JSONBody(bill)
		if err != nil {
			return err
		}
		if _, err = n.env.Bills.Update(ctx, n.key, body); err != nil {
			n.env.logger().Error("Bill could not be saved", "key", n.key, "error", err)
			n.env.Navigate(routes.Bills)
			return err
		}
	}

	n.env.logger().Info("Bill submitted", "key", n.key, "type", bill.Type, "amount", bill.Amount)
	n.env.Navigate(routes.Bills)
	return nil
}

// Handle reacts to the page's events. A rejected or missing receipt is not
// an error for the caller: the page already shows the diagnostic.
func (n *NewBill) Handle(ctx context.Context, ev ui.Event) error {
	switch ev.Name {
	case ui.EventChangeFile:
		if err := n.ChangeFile(ctx, ev.Upload); err != nil && !errors.Is(err, ErrInvalidFile) {
			return err
		}
		return nil
	case ui.EventSubmit:
		err := n.Submit(ctx, ev.Values)
		if err != nil && !errors.Is(err, ErrNoReceipt) && !errors.Is(err, ErrInvalidAmount) {
			return err
		}
		return nil
	case ui.EventLogout:
		return n.logout.Handle(ctx, ev)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, ev.Name)
	}
}
