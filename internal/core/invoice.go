package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPaid    Status = "paid"
	StatusPending Status = "pending"
	StatusOverdue Status = "overdue"
)

type (
	// Status is an invoice lifecycle state. The value stored on an Invoice is
	// the persisted status; the value used for listing and aggregation is the
	// effective status derived by EffectiveStatus.
	Status string

	// Date is a calendar date with day granularity. The time-of-day portion is
	// always truncated, so comparisons never depend on clock time.
	Date struct {
		time.Time
	}

	// LineItem is one billable row on an invoice. Total is derived from
	// Quantity and UnitPrice and is never authoritative on its own.
	LineItem struct {
		ID          string  `json:"id"`
		Description string  `json:"description"`
		Quantity    float64 `json:"quantity"`
		UnitPrice   float64 `json:"unitPrice"`
		Total       float64 `json:"total"`
	}

	// Attachment is an immutable file attached to an invoice. Content is the
	// raw payload; encoding/json embeds it base64-encoded in the stored blob.
	Attachment struct {
		ID         string    `json:"id"`
		Name       string    `json:"name"`
		Content    []byte    `json:"content"`
		Size       int64     `json:"size"`
		UploadedAt time.Time `json:"uploadedAt"`
	}

	Invoice struct {
		ID            string       `json:"id"`
		InvoiceNumber string       `json:"invoiceNumber"`
		ClientName    string       `json:"clientName"`
		IssueDate     Date         `json:"issueDate"`
		DueDate       Date         `json:"dueDate"`
		Items         []LineItem   `json:"items"`
		Subtotal      float64      `json:"subtotal"`
		Tax           float64      `json:"tax"`      // percentage
		Discount      float64      `json:"discount"` // percentage
		Total         float64      `json:"total"`
		Status        Status       `json:"status"`
		Attachments   []Attachment `json:"attachments"`
		CreatedAt     time.Time    `json:"createdAt"`
		UpdatedAt     time.Time    `json:"updatedAt"`
	}
)

var (
	ErrEmptyClientName  = errors.New("empty client name")
	ErrMissingIssueDate = errors.New("missing issue date")
	ErrMissingDueDate   = errors.New("missing due date")
	ErrNoItems          = errors.New("invoice needs at least one line item")
	ErrInvalidStatus    = errors.New("invalid status")
)

// IsValid reports whether s is one of the three lifecycle states.
func (s Status) IsValid() bool {
	switch s {
	case StatusPaid, StatusPending, StatusOverdue:
		return true
	}
	return false
}

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to calendar-day granularity.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Before reports whether d is an earlier calendar day than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

// UnmarshalJSON accepts "YYYY-MM-DD" and full RFC 3339 timestamps; only the
// calendar day survives either way. An empty string is the zero date.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("parse date %q: %w", s, err)
		}
	}
	d.Time = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return nil
}

// NewLineItem returns an empty line item with a fresh id, quantity 1, the
// defaults a new invoice row starts from.
func NewLineItem() LineItem {
	return LineItem{ID: uuid.NewString(), Quantity: 1}
}

// Validate checks the fields required at submission time. Totals are not
// checked here; they are recomputed before storage, never trusted.
func (inv Invoice) Validate() error {
	if strings.TrimSpace(inv.ClientName) == "" {
		return ErrEmptyClientName
	}
	if inv.IssueDate.IsZero() {
		return ErrMissingIssueDate
	}
	if inv.DueDate.IsZero() {
		return ErrMissingDueDate
	}
	if len(inv.Items) == 0 {
		return ErrNoItems
	}
	if !inv.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// Recompute rewrites every derived money field from its inputs: each line
// total from quantity and price, then subtotal and total from the items and
// the tax/discount percentages.
func (inv *Invoice) Recompute() {
	for i := range inv.Items {
		inv.Items[i].Total = inv.Items[i].Quantity * inv.Items[i].UnitPrice
	}
	t := ComputeTotals(inv.Items, inv.Tax, inv.Discount)
	inv.Subtotal = t.Subtotal
	inv.Total = t.Total
}

// AddItem appends a fresh empty line item and returns its id.
func (inv *Invoice) AddItem() string {
	item := NewLineItem()
	inv.Items = append(inv.Items, item)
	inv.Recompute()
	return item.ID
}

// RemoveItem deletes the line item with the given id. An invoice always keeps
// at least one item: removing the last one is a no-op. Reports whether an
// item was removed.
func (inv *Invoice) RemoveItem(id string) bool {
	if len(inv.Items) <= 1 {
		return false
	}
	for i, item := range inv.Items {
		if item.ID == id {
			inv.Items = append(inv.Items[:i], inv.Items[i+1:]...)
			inv.Recompute()
			return true
		}
	}
	return false
}

// SetItemDescription updates the description of the item with the given id.
func (inv *Invoice) SetItemDescription(id, description string) bool {
	for i := range inv.Items {
		if inv.Items[i].ID == id {
			inv.Items[i].Description = description
			return true
		}
	}
	return false
}

// SetItemQuantity updates the quantity of the item with the given id and
// recomputes the derived totals.
func (inv *Invoice) SetItemQuantity(id string, quantity float64) bool {
	for i := range inv.Items {
		if inv.Items[i].ID == id {
			inv.Items[i].Quantity = quantity
			inv.Recompute()
			return true
		}
	}
	return false
}

// SetItemUnitPrice updates the unit price of the item with the given id and
// recomputes the derived totals.
func (inv *Invoice) SetItemUnitPrice(id string, price float64) bool {
	for i := range inv.Items {
		if inv.Items[i].ID == id {
			inv.Items[i].UnitPrice = price
			inv.Recompute()
			return true
		}
	}
	return false
}

// MarkPaid sets the stored status to paid. Paid is sticky: the effective
// status resolver never overrides it.
func (inv *Invoice) MarkPaid(now time.Time) {
	inv.Status = StatusPaid
	inv.UpdatedAt = now
}

// AddAttachment attaches a file. Attachments are immutable once added.
func (inv *Invoice) AddAttachment(name string, content []byte, now time.Time) Attachment {
	att := Attachment{
		ID:         uuid.NewString(),
		Name:       name,
		Content:    content,
		Size:       int64(len(content)),
		UploadedAt: now,
	}
	inv.Attachments = append(inv.Attachments, att)
	return att
}

// RemoveAttachment detaches the attachment with the given id. Reports whether
// one was removed.
func (inv *Invoice) RemoveAttachment(id string) bool {
	for i, att := range inv.Attachments {
		if att.ID == id {
			inv.Attachments = append(inv.Attachments[:i], inv.Attachments[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the invoice. Resolver helpers hand out copies
// so the stored record is never mutated by a computed view.
func (inv Invoice) Clone() Invoice {
	out := inv
	out.Items = append([]LineItem(nil), inv.Items...)
	out.Attachments = append([]Attachment(nil), inv.Attachments...)
	return out
}
