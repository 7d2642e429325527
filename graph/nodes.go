package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gabedeluna/kambo-klarity/models"
)

// Fixed trace strings every node stamps into lastToolResponse. They are
// advisory only and never gate control flow.
const (
	respSlotsFound    = "Found available slots."
	respNoSlots       = "No available slots found for the requested time."
	respSlotsError    = "Error finding slots."
	respBookingStored = "Booking data stored."
	respBookingError  = "Error storing booking data."
	respEventCreated  = "Calendar event created."
	respEventError    = "Error creating Google Calendar event."
	respWaiverSent    = "Waiver sent."
	respWaiverError   = "Error sending waiver."
	respStateReset    = "User state reset."
	respResetError    = "Error resetting state."
)

const (
	errMissingInput    = "User input missing for agent."
	errAgentUnexpected = "Unexpected error in agent interaction."
	errNoConfirmedSlot = "Cannot store booking without a confirmed slot."
	errNoSlotForEvent  = "Cannot create calendar event without a confirmed slot."

	maxErrorDetailLength = 100
	fallbackErrorDetail  = "Unknown error"
)

// agentNode asks the booking agent to interpret the user's latest message.
// A missing userInput is a local guard, not an agent failure, and never
// reaches the agent at all.
func (e *Engine) agentNode(ctx context.Context, st *models.BookingState) StateUpdate {
	if st.UserInput == "" {
		return StateUpdate{AgentOutcomeSet: true, Err: errMissingInput}
	}

	var outcome *models.AgentOutcome
	err := e.guard(ctx, "booking agent", func(ctx context.Context) error {
		var callErr error
		outcome, callErr = e.agent.RunBookingAgent(ctx, models.AgentRequest{
			UserInput:      st.UserInput,
			TelegramID:     st.TelegramID,
			ChatHistory:    st.ChatHistory,
			SessionType:    st.SessionType,
			AvailableSlots: st.AvailableSlots,
		})
		return callErr
	})
	if err != nil {
		msg := errAgentUnexpected
		if toolErr, ok := asToolError(err); ok {
			msg = toolErr.Msg
		}
		e.logger.Error("agent node failed",
			zap.String("telegramId", st.TelegramID),
			zap.Error(err))
		return StateUpdate{AgentOutcomeSet: true, Err: msg}
	}
	if outcome == nil {
		return StateUpdate{AgentOutcomeSet: true, Err: errAgentUnexpected}
	}

	e.logger.Debug("agent node produced outcome",
		zap.String("telegramId", st.TelegramID),
		zap.String("intent", string(outcome.Intent)))
	return StateUpdate{AgentOutcome: outcome, AgentOutcomeSet: true}
}

// findSlotsNode searches the calendar for open slots within the configured
// booking window, with duration derived from the session type. Zero results
// is a valid success, not an error.
func (e *Engine) findSlotsNode(ctx context.Context, st *models.BookingState) StateUpdate {
	now := e.cfg.Now()
	windowEnd := now.AddDate(0, 0, e.cfg.BookingWindowDays)
	duration := e.cfg.durationFor(st.SessionType)

	var slots []models.Slot
	err := e.guard(ctx, "calendar", func(ctx context.Context) error {
		var callErr error
		slots, callErr = e.calendar.FindFreeSlots(ctx, now, windowEnd, duration)
		return callErr
	})
	if err != nil {
		e.logger.Error("find slots node failed",
			zap.String("telegramId", st.TelegramID),
			zap.Error(err))
		return StateUpdate{
			AvailableSlotsSet: true,
			Err:               errMessage(err, "Unexpected error finding slots."),
			LastToolResponse:  respSlotsError,
		}
	}

	if len(slots) == 0 {
		return StateUpdate{
			AvailableSlots:    []models.Slot{},
			AvailableSlotsSet: true,
			LastToolResponse:  respNoSlots,
		}
	}
	e.logger.Info("found available slots",
		zap.String("telegramId", st.TelegramID),
		zap.Int("count", len(slots)))
	return StateUpdate{
		AvailableSlots:    slots,
		AvailableSlotsSet: true,
		LastToolResponse:  respSlotsFound,
	}
}

// storeBookingNode persists the confirmed slot as a durable booking record.
func (e *Engine) storeBookingNode(ctx context.Context, st *models.BookingState) StateUpdate {
	if st.ConfirmedSlot == nil || st.ConfirmedSlot.Start.IsZero() {
		return StateUpdate{Err: errNoConfirmedSlot, LastToolResponse: respBookingError}
	}

	booking := models.Booking{
		ID:          uuid.New().String(),
		TelegramID:  st.TelegramID,
		SessionType: st.SessionType,
		Slot:        *st.ConfirmedSlot,
		Status:      models.BookingStatusConfirmed,
		CreatedAt:   e.cfg.Now(),
	}
	err := e.guard(ctx, "state manager", func(ctx context.Context) error {
		return e.store.StoreBookingData(ctx, booking)
	})
	if err != nil {
		e.logger.Error("store booking node failed",
			zap.String("telegramId", st.TelegramID),
			zap.Error(err))
		return StateUpdate{
			Err:              errMessage(err, "Unexpected error storing booking data."),
			LastToolResponse: respBookingError,
		}
	}
	return StateUpdate{LastToolResponse: respBookingStored}
}

// createCalendarEventNode creates the practitioner calendar event for the
// confirmed session. Requires a complete slot, both start and end.
func (e *Engine) createCalendarEventNode(ctx context.Context, st *models.BookingState) StateUpdate {
	if !st.HasConfirmedSlot() {
		return StateUpdate{Err: errNoSlotForEvent, LastToolResponse: respEventError}
	}

	sessionType := st.SessionType
	if sessionType == "" {
		sessionType = "kambo"
	}
	displayName := st.UserProfile.DisplayName(st.TelegramID)

	var eventID string
	err := e.guard(ctx, "calendar", func(ctx context.Context) error {
		var callErr error
		eventID, callErr = e.calendar.CreateEvent(ctx, CalendarEventRequest{
			Start:   st.ConfirmedSlot.Start,
			End:     st.ConfirmedSlot.End,
			Summary: fmt.Sprintf("%s session: %s", sessionType, displayName),
			Description: fmt.Sprintf("Session type: %s\nTelegram user: %s",
				sessionType, st.TelegramID),
		})
		return callErr
	})
	if err != nil {
		e.logger.Error("create calendar event node failed",
			zap.String("telegramId", st.TelegramID),
			zap.Error(err))
		return StateUpdate{
			GoogleEventIDSet: true,
			Err:              errMessage(err, "Unexpected error creating calendar event."),
			LastToolResponse: respEventError,
		}
	}
	e.logger.Info("calendar event created",
		zap.String("telegramId", st.TelegramID),
		zap.String("eventId", eventID))
	return StateUpdate{
		GoogleEventID:    eventID,
		GoogleEventIDSet: true,
		LastToolResponse: respEventCreated,
	}
}

// sendWaiverNode delivers the liability waiver link, keyed by session type.
func (e *Engine) sendWaiverNode(ctx context.Context, st *models.BookingState) StateUpdate {
	err := e.guard(ctx, "telegram notifier", func(ctx context.Context) error {
		return e.notifier.SendWaiverLink(ctx, st.TelegramID, st.SessionType)
	})
	if err != nil {
		e.logger.Error("send waiver node failed",
			zap.String("telegramId", st.TelegramID),
			zap.Error(err))
		return StateUpdate{
			Err:              errMessage(err, "Unexpected error sending waiver."),
			LastToolResponse: respWaiverError,
		}
	}
	return StateUpdate{LastToolResponse: respWaiverSent}
}

// resetStateNode clears the user's persisted conversational state. Whether
// the graph terminates or restarts afterwards is the engine's call, not this
// node's.
func (e *Engine) resetStateNode(ctx context.Context, st *models.BookingState) StateUpdate {
	err := e.guard(ctx, "state manager", func(ctx context.Context) error {
		return e.store.ResetUserState(ctx, st.TelegramID)
	})
	if err != nil {
		e.logger.Error("reset state node failed",
			zap.String("telegramId", st.TelegramID),
			zap.Error(err))
		return StateUpdate{
			Err:              errMessage(err, "Unexpected error resetting state."),
			LastToolResponse: respResetError,
		}
	}
	return StateUpdate{LastToolResponse: respStateReset}
}

// handleErrorNode is the single sink for error-bearing states: it notifies
// the user with a truncated detail and logs regardless of the notification
// outcome. It never fails and never changes state.
func (e *Engine) handleErrorNode(ctx context.Context, st *models.BookingState) StateUpdate {
	detail := truncateDetail(st.Err)
	text := fmt.Sprintf("Sorry, something went wrong on our end: %s. Please try again.", detail)

	if err := e.guard(ctx, "telegram notifier", func(ctx context.Context) error {
		return e.notifier.SendTextMessage(ctx, st.TelegramID, text)
	}); err != nil {
		e.logger.Error("failed to notify user of error",
			zap.String("telegramId", st.TelegramID),
			zap.Error(err))
	}

	e.logger.Error("booking turn ended in error",
		zap.String("telegramId", st.TelegramID),
		zap.String("sessionId", st.SessionID),
		zap.String("detail", detail),
		zap.String("lastToolResponse", st.LastToolResponse))
	return StateUpdate{}
}

// truncateDetail converts an error value into a display string of at most
// maxErrorDetailLength runes, falling back when nothing is present.
func truncateDetail(errText string) string {
	if errText == "" {
		return fallbackErrorDetail
	}
	runes := []rune(errText)
	if len(runes) > maxErrorDetailLength {
		return string(runes[:maxErrorDetailLength])
	}
	return errText
}

// errMessage extracts a human-readable message from a collaborator error.
func errMessage(err error, fallback string) string {
	if toolErr, ok := asToolError(err); ok && toolErr.Msg != "" {
		return toolErr.Msg
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

func asToolError(err error) (*ToolError, bool) {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr, true
	}
	return nil, false
}
