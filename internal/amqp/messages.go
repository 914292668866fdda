package amqp

import (
	"encoding/json"
	"time"
)

// Actions carried by invoice events. Upserted covers create, update and
// mark-paid; the worker re-reads the record anyway so the distinction does
// not matter to it.
const (
	ActionUpserted = "upserted"
	ActionDeleted  = "deleted"
)

// InvoiceEventMessage is the lightweight event published after a successful
// repository mutation. It carries only the invoice id and the action; the
// worker fetches the full record itself.
type InvoiceEventMessage struct {
	InvoiceID string    `json:"invoiceId"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// NewInvoiceEventMessage creates an event for the given invoice and action.
func NewInvoiceEventMessage(invoiceID, action string) *InvoiceEventMessage {
	return &InvoiceEventMessage{
		InvoiceID: invoiceID,
		Action:    action,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *InvoiceEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// InvoiceEventMessageFromJSON decodes a message from JSON bytes.
func InvoiceEventMessageFromJSON(data []byte) (*InvoiceEventMessage, error) {
	var msg InvoiceEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
