package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"fatture/internal/core"
)

// flexNumber decodes a JSON number that clients may also send as a string.
// Empty strings and null collapse to zero, matching form inputs cleared by
// the user.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parse number %q: %w", s, err)
		}
		*n = flexNumber(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = flexNumber(v)
	return nil
}

type lineItemPayload struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Quantity    flexNumber `json:"quantity"`
	UnitPrice   flexNumber `json:"unitPrice"`
}

type attachmentPayload struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Content    []byte    `json:"content"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// invoicePayload is the request body for create and update. Derived fields
// (totals, invoice number, timestamps) and the status are not part of the
// payload: the service recomputes or preserves them, and the stored status
// only ever changes through the pay operation.
type invoicePayload struct {
	ClientName  string              `json:"clientName"`
	IssueDate   core.Date           `json:"issueDate"`
	DueDate     core.Date           `json:"dueDate"`
	Items       []lineItemPayload   `json:"items"`
	Tax         flexNumber          `json:"tax"`
	Discount    flexNumber          `json:"discount"`
	Attachments []attachmentPayload `json:"attachments"`
}

const maxBodySize = 10 << 20 // attachments ride in the JSON body

func decodeInvoicePayload(r *http.Request) (invoicePayload, error) {
	var p invoicePayload
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodySize))
	if err := dec.Decode(&p); err != nil {
		return invoicePayload{}, fmt.Errorf("decode invoice body: %w", err)
	}
	return p, nil
}

// toInvoice converts the payload into a domain invoice. Items and
// attachments without an id get a fresh one; totals are left for Recompute.
func (p invoicePayload) toInvoice() core.Invoice {
	inv := core.Invoice{
		ClientName: strings.TrimSpace(p.ClientName),
		IssueDate:  p.IssueDate,
		DueDate:    p.DueDate,
		Tax:        float64(p.Tax),
		Discount:   float64(p.Discount),
	}

	for _, item := range p.Items {
		id := item.ID
		if id == "" {
			id = uuid.NewString()
		}
		inv.Items = append(inv.Items, core.LineItem{
			ID:          id,
			Description: item.Description,
			Quantity:    float64(item.Quantity),
			UnitPrice:   float64(item.UnitPrice),
		})
	}

	for _, att := range p.Attachments {
		id := att.ID
		if id == "" {
			id = uuid.NewString()
		}
		size := att.Size
		if size == 0 {
			size = int64(len(att.Content))
		}
		inv.Attachments = append(inv.Attachments, core.Attachment{
			ID:         id,
			Name:       att.Name,
			Content:    att.Content,
			Size:       size,
			UploadedAt: att.UploadedAt,
		})
	}

	inv.Recompute()
	return inv
}
