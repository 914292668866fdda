package amqp

import (
	"testing"
	"time"
)

func TestInvoiceEventMessageJSON(t *testing.T) {
	msg := NewInvoiceEventMessage("inv-123", ActionUpserted)
	if msg.Timestamp.IsZero() {
		t.Error("timestamp should be set on creation")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	back, err := InvoiceEventMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if back.InvoiceID != "inv-123" || back.Action != ActionUpserted {
		t.Errorf("round trip = %+v", back)
	}
	if !back.Timestamp.Truncate(time.Millisecond).Equal(msg.Timestamp.Truncate(time.Millisecond)) {
		t.Errorf("timestamp drifted: %v vs %v", back.Timestamp, msg.Timestamp)
	}
}

func TestInvoiceEventMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := InvoiceEventMessageFromJSON([]byte("not json")); err == nil {
		t.Error("expected error for malformed payload")
	}
}
