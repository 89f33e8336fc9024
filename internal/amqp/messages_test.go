package amqp

import (
	"testing"
	"time"
)

func TestReminderMessageJSONRoundTrip(t *testing.T) {
	msg := &ReminderMessage{
		RecordKind:   "bill",
		RecordID:     42,
		UserID:       7,
		Name:         "Rent",
		AmountCents:  120000,
		DueDate:      "2024-04-01",
		DaysUntilDue: -2,
		Urgency:      "overdue",
		Timestamp:    time.Date(2024, 4, 3, 9, 0, 0, 0, time.UTC),
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := ReminderMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if *got != *msg {
		t.Errorf("round trip changed message:\ngot  %+v\nwant %+v", got, msg)
	}
}

func TestReminderMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := ReminderMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("malformed payload should fail")
	}
}
