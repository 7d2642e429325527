package graph

import (
	"context"
	"time"

	"github.com/gabedeluna/kambo-klarity/models"
)

// Agent turns free-form user text into a structured booking decision.
type Agent interface {
	RunBookingAgent(ctx context.Context, req models.AgentRequest) (*models.AgentOutcome, error)
}

// CalendarEventRequest describes the event submitted to the calendar.
type CalendarEventRequest struct {
	Start       time.Time
	End         time.Time
	Summary     string
	Description string
}

// Calendar discovers open slots and manages practitioner calendar events.
type Calendar interface {
	FindFreeSlots(ctx context.Context, start, end time.Time, duration time.Duration) ([]models.Slot, error)
	CreateEvent(ctx context.Context, req CalendarEventRequest) (string, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// Notifier delivers outbound chat messages to the user.
type Notifier interface {
	SendTextMessage(ctx context.Context, telegramID, text string) error
	SendWaiverLink(ctx context.Context, telegramID, sessionType string) error
}

// Persistence stores durable booking records and resets conversational state.
type Persistence interface {
	StoreBookingData(ctx context.Context, booking models.Booking) error
	MarkPendingCalendar(ctx context.Context, telegramID string) error
	ResetUserState(ctx context.Context, telegramID string) error
}

// ReminderScheduler enqueues a session reminder for later delivery.
type ReminderScheduler interface {
	ScheduleSessionReminder(ctx context.Context, payload models.ReminderPayload) error
}
