package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gabedeluna/kambo-klarity/models"
)

// Config carries the booking policy the engine applies. Zero values fall
// back to the reference defaults.
type Config struct {
	// BookingWindowDays bounds how far ahead slot searches look.
	BookingWindowDays int
	// SessionDurations maps session types to their booked duration.
	SessionDurations map[string]time.Duration
	// DefaultDuration applies to session types missing from the table.
	DefaultDuration time.Duration
	// ToolCallTimeout bounds every collaborator call.
	ToolCallTimeout time.Duration
	// Now is swappable for tests.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.BookingWindowDays <= 0 {
		c.BookingWindowDays = 14
	}
	if c.DefaultDuration <= 0 {
		c.DefaultDuration = 60 * time.Minute
	}
	if c.ToolCallTimeout <= 0 {
		c.ToolCallTimeout = 30 * time.Second
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

func (c Config) durationFor(sessionType string) time.Duration {
	if d, ok := c.SessionDurations[sessionType]; ok && d > 0 {
		return d
	}
	return c.DefaultDuration
}

// Deps are the collaborators the engine closes over. Reminders is optional;
// everything else is required.
type Deps struct {
	Agent     Agent
	Calendar  Calendar
	Notifier  Notifier
	Store     Persistence
	Reminders ReminderScheduler
	Logger    *zap.Logger
	Config    Config
}

// Engine sequences the booking graph nodes for one conversation turn.
// It holds no cross-turn state beyond the per-user locks.
type Engine struct {
	agent     Agent
	calendar  Calendar
	notifier  Notifier
	store     Persistence
	reminders ReminderScheduler
	logger    *zap.Logger
	cfg       Config
	locks     *KeyedMutex
}

// NewEngine validates all required collaborators up front and returns a
// ConfigError rather than terminating the process when one is missing.
func NewEngine(deps Deps) (*Engine, error) {
	switch {
	case deps.Agent == nil:
		return nil, &ConfigError{Missing: "booking agent"}
	case deps.Calendar == nil:
		return nil, &ConfigError{Missing: "calendar service"}
	case deps.Notifier == nil:
		return nil, &ConfigError{Missing: "telegram notifier"}
	case deps.Store == nil:
		return nil, &ConfigError{Missing: "state manager"}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		agent:     deps.Agent,
		calendar:  deps.Calendar,
		notifier:  deps.Notifier,
		store:     deps.Store,
		reminders: deps.Reminders,
		logger:    logger,
		cfg:       deps.Config.withDefaults(),
		locks:     NewKeyedMutex(),
	}, nil
}

// RunTurn drives one user turn through the graph: interpret intent, route to
// the matching node sequence, and sink any error into handleErrorNode. The
// returned state is the input state with all node updates merged in. Nodes
// never surface collaborator failures as Go errors; RunTurn only errors on a
// structurally invalid turn.
func (e *Engine) RunTurn(ctx context.Context, st *models.BookingState) (*models.BookingState, error) {
	if st == nil {
		return nil, errors.New("run turn: nil booking state")
	}
	if st.TelegramID == "" || st.SessionID == "" {
		return nil, errors.New("run turn: booking state missing telegramId or sessionId")
	}

	unlock := e.locks.Lock(st.TelegramID)
	defer unlock()

	Merge(st, e.agentNode(ctx, st))
	st.UserInput = "" // consumed by the agent this turn
	if st.Err != "" {
		Merge(st, e.handleErrorNode(ctx, st))
		return st, nil
	}

	out := st.AgentOutcome
	if out == nil {
		return st, nil
	}
	if out.SessionType != "" {
		st.SessionType = out.SessionType
	}
	if out.ConfirmedSlot != nil {
		st.ConfirmedSlot = out.ConfirmedSlot
	}

	switch out.Intent {
	case models.IntentSearch:
		Merge(st, e.findSlotsNode(ctx, st))

	case models.IntentConfirm:
		e.runConfirmSequence(ctx, st)

	case models.IntentCancel:
		if st.GoogleEventID != "" {
			// Best effort: a stale event on the calendar is preferable to
			// failing the whole cancel flow.
			if err := e.guard(ctx, "calendar", func(ctx context.Context) error {
				return e.calendar.DeleteEvent(ctx, st.GoogleEventID)
			}); err != nil {
				e.logger.Warn("failed to delete calendar event during cancel",
					zap.String("telegramId", st.TelegramID),
					zap.String("eventId", st.GoogleEventID),
					zap.Error(err))
			}
		}
		Merge(st, e.resetStateNode(ctx, st))

	case models.IntentChat:
		// Nothing to do; the caller replies with the agent's text.

	default:
		e.logger.Warn("agent returned unknown intent, treating as chat",
			zap.String("telegramId", st.TelegramID),
			zap.String("intent", string(out.Intent)))
	}

	if st.Err != "" {
		Merge(st, e.handleErrorNode(ctx, st))
	}
	return st, nil
}

// runConfirmSequence executes store -> calendar event -> waiver in strict
// order, short-circuiting on the first failure. A calendar failure after a
// successful store flags the record pending_calendar so reconciliation can
// repair it later.
func (e *Engine) runConfirmSequence(ctx context.Context, st *models.BookingState) {
	Merge(st, e.storeBookingNode(ctx, st))
	if st.Err != "" {
		return
	}

	Merge(st, e.createCalendarEventNode(ctx, st))
	if st.Err != "" {
		if err := e.guard(ctx, "state manager", func(ctx context.Context) error {
			return e.store.MarkPendingCalendar(ctx, st.TelegramID)
		}); err != nil {
			e.logger.Error("failed to flag booking pending_calendar",
				zap.String("telegramId", st.TelegramID),
				zap.Error(err))
		}
		return
	}

	Merge(st, e.sendWaiverNode(ctx, st))
	if st.Err != "" {
		return
	}

	if e.reminders != nil && st.ConfirmedSlot != nil {
		payload := models.ReminderPayload{
			TelegramID:  st.TelegramID,
			SessionType: st.SessionType,
			Start:       st.ConfirmedSlot.Start,
		}
		if err := e.reminders.ScheduleSessionReminder(ctx, payload); err != nil {
			// The booking itself succeeded; a missed reminder is log-worthy
			// but must not fail the turn.
			e.logger.Warn("failed to schedule session reminder",
				zap.String("telegramId", st.TelegramID),
				zap.Error(err))
		}
	}
}

// guard wraps a collaborator call with the configured timeout and converts
// panics into errors so no failure escapes a node as control flow.
func (e *Engine) guard(ctx context.Context, tool string, fn func(context.Context) error) (err error) {
	cctx, cancel := context.WithTimeout(ctx, e.cfg.ToolCallTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tool call panicked",
				zap.String("tool", tool),
				zap.Any("panic", r))
			err = fmt.Errorf("%s call panicked", tool)
		}
	}()
	return fn(cctx)
}
