package graph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gabedeluna/kambo-klarity/models"
)

var testNow = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

type stubAgent struct {
	outcome *models.AgentOutcome
	err     error
	fn      func(context.Context, models.AgentRequest) (*models.AgentOutcome, error)
	calls   int
	lastReq models.AgentRequest
}

func (s *stubAgent) RunBookingAgent(ctx context.Context, req models.AgentRequest) (*models.AgentOutcome, error) {
	s.calls++
	s.lastReq = req
	if s.fn != nil {
		return s.fn(ctx, req)
	}
	return s.outcome, s.err
}

type stubCalendar struct {
	slots        []models.Slot
	findErr      error
	findCalls    int
	lastDuration time.Duration

	eventID     string
	createErr   error
	createCalls int
	lastCreate  CalendarEventRequest
	createFn    func(context.Context, CalendarEventRequest) (string, error)

	deleteCalls int
	deletedIDs  []string
	deleteErr   error
}

func (s *stubCalendar) FindFreeSlots(ctx context.Context, start, end time.Time, duration time.Duration) ([]models.Slot, error) {
	s.findCalls++
	s.lastDuration = duration
	return s.slots, s.findErr
}

func (s *stubCalendar) CreateEvent(ctx context.Context, req CalendarEventRequest) (string, error) {
	s.createCalls++
	s.lastCreate = req
	if s.createFn != nil {
		return s.createFn(ctx, req)
	}
	return s.eventID, s.createErr
}

func (s *stubCalendar) DeleteEvent(ctx context.Context, eventID string) error {
	s.deleteCalls++
	s.deletedIDs = append(s.deletedIDs, eventID)
	return s.deleteErr
}

type stubNotifier struct {
	texts      []string
	textErr    error
	waivers    []string
	waiverErr  error
	waiverFn   func(context.Context, string, string) error
	textFn     func(context.Context, string, string) error
	waiverCall int
}

func (s *stubNotifier) SendTextMessage(ctx context.Context, telegramID, text string) error {
	if s.textFn != nil {
		return s.textFn(ctx, telegramID, text)
	}
	s.texts = append(s.texts, text)
	return s.textErr
}

func (s *stubNotifier) SendWaiverLink(ctx context.Context, telegramID, sessionType string) error {
	s.waiverCall++
	if s.waiverFn != nil {
		return s.waiverFn(ctx, telegramID, sessionType)
	}
	s.waivers = append(s.waivers, sessionType)
	return s.waiverErr
}

type stubStore struct {
	stored   []models.Booking
	storeErr error
	storeFn  func(context.Context, models.Booking) error

	resets   int
	resetErr error

	pending []string
}

func (s *stubStore) StoreBookingData(ctx context.Context, booking models.Booking) error {
	if s.storeFn != nil {
		return s.storeFn(ctx, booking)
	}
	s.stored = append(s.stored, booking)
	return s.storeErr
}

func (s *stubStore) MarkPendingCalendar(ctx context.Context, telegramID string) error {
	s.pending = append(s.pending, telegramID)
	return nil
}

func (s *stubStore) ResetUserState(ctx context.Context, telegramID string) error {
	s.resets++
	return s.resetErr
}

type stubReminders struct {
	payloads []models.ReminderPayload
	err      error
}

func (s *stubReminders) ScheduleSessionReminder(ctx context.Context, payload models.ReminderPayload) error {
	s.payloads = append(s.payloads, payload)
	return s.err
}

type testDeps struct {
	agent     *stubAgent
	calendar  *stubCalendar
	notifier  *stubNotifier
	store     *stubStore
	reminders *stubReminders
}

func newTestDeps() *testDeps {
	return &testDeps{
		agent:     &stubAgent{},
		calendar:  &stubCalendar{eventID: "evt-1"},
		notifier:  &stubNotifier{},
		store:     &stubStore{},
		reminders: &stubReminders{},
	}
}

func newTestEngine(t *testing.T, d *testDeps) *Engine {
	t.Helper()
	eng, err := NewEngine(Deps{
		Agent:     d.agent,
		Calendar:  d.calendar,
		Notifier:  d.notifier,
		Store:     d.store,
		Reminders: d.reminders,
		Config: Config{
			SessionDurations: map[string]time.Duration{"private": 90 * time.Minute},
			DefaultDuration:  60 * time.Minute,
			Now:              func() time.Time { return testNow },
		},
	})
	require.NoError(t, err)
	return eng
}

func newTurnState(t *testing.T, input string) *models.BookingState {
	t.Helper()
	st, err := models.NewBookingState("u1", "s1")
	require.NoError(t, err)
	st.UserInput = input
	return st
}
