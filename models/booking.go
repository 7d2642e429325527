package models

import "time"

// Booking status values. A booking whose calendar event could not be created
// is kept as pending_calendar so a reconciliation pass can pick it up instead
// of the record silently diverging from the calendar.
const (
	BookingStatusConfirmed       = "confirmed"
	BookingStatusPendingCalendar = "pending_calendar"
	BookingStatusCancelled       = "cancelled"
)

// Booking is the durable record persisted once a user confirms a slot.
type Booking struct {
	ID            string    `bson:"id" json:"id"`
	TelegramID    string    `bson:"telegramId" json:"telegramId"`
	SessionType   string    `bson:"sessionType" json:"sessionType"`
	Slot          Slot      `bson:"slot" json:"slot"`
	GoogleEventID string    `bson:"googleEventId,omitempty" json:"googleEventId,omitempty"`
	Status        string    `bson:"status" json:"status"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
}

// ReminderPayload is the asynq task payload for session reminders.
type ReminderPayload struct {
	TelegramID  string    `json:"telegramId"`
	SessionType string    `json:"sessionType"`
	Start       time.Time `json:"start"`
}
