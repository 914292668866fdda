package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewInvoiceID returns a globally unique invoice id.
func NewInvoiceID() string {
	return uuid.NewString()
}

// NewInvoiceNumber derives the display number from the creation instant:
// "INV-" plus the last six digits of the millisecond timestamp. Two creations
// in the same millisecond tick get the same number; the uuid id, not the
// number, is what uniqueness rides on.
func NewInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%06d", now.UnixMilli()%1_000_000)
}
