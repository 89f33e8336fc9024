// Package amqp publishes payment reminder events to RabbitMQ. Delivery to
// users (mail, push, chat) belongs to downstream consumers of the queue.
package amqp

import (
	"encoding/json"
	"time"
)

// ReminderMessage announces that a bill or subscription needs attention.
// It carries enough to render a notification without a database round trip.
type ReminderMessage struct {
	RecordKind   string    `json:"record_kind"` // "bill" or "subscription"
	RecordID     int64     `json:"record_id"`
	UserID       int64     `json:"user_id"`
	Name         string    `json:"name"`
	AmountCents  int64     `json:"amount_cents"`
	DueDate      string    `json:"due_date"` // YYYY-MM-DD
	DaysUntilDue int       `json:"days_until_due"`
	Urgency      string    `json:"urgency"`
	Timestamp    time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes.
func (m *ReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReminderMessageFromJSON creates a message from JSON bytes.
func ReminderMessageFromJSON(data []byte) (*ReminderMessage, error) {
	var msg ReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
