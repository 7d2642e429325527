package state

import (
	"context"
	"time"

	"go.uber.org/zap"

	bookingRepo "github.com/gabedeluna/kambo-klarity/database/repository/booking"
	"github.com/gabedeluna/kambo-klarity/graph"
	"github.com/gabedeluna/kambo-klarity/models"
)

// Manager is the persistence collaborator of the booking graph: durable
// booking records in Mongo, conversational state in Redis.
type Manager struct {
	Sessions *SessionStore
	Bookings bookingRepo.BookingRepository
	Logger   *zap.Logger
}

var _ graph.Persistence = (*Manager)(nil)

// StoreBookingData persists a confirmed booking record.
func (m *Manager) StoreBookingData(ctx context.Context, booking models.Booking) error {
	id, err := m.Bookings.Create(ctx, booking)
	if err != nil {
		return graph.NewToolError("failed to store booking: %v", err)
	}
	m.Logger.Info("booking stored",
		zap.String("bookingId", id),
		zap.String("telegramId", booking.TelegramID))
	return nil
}

// MarkPendingCalendar flags the user's latest booking as missing its
// calendar event.
func (m *Manager) MarkPendingCalendar(ctx context.Context, telegramID string) error {
	return m.Bookings.MarkLatestPendingCalendar(ctx, telegramID)
}

// ResetUserState clears the user's conversational state. Booking records are
// durable and stay put; only the in-flight conversation is discarded.
func (m *Manager) ResetUserState(ctx context.Context, telegramID string) error {
	if err := m.Sessions.Clear(ctx, telegramID); err != nil {
		return graph.NewToolError("failed to reset state: %v", err)
	}
	return nil
}

// PastSessionDates returns the user's booking history, used to enrich the
// agent's context.
func (m *Manager) PastSessionDates(ctx context.Context, telegramID string) ([]time.Time, error) {
	return m.Bookings.PastSessionDates(ctx, telegramID)
}
