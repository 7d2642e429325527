package graph

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabedeluna/kambo-klarity/models"
)

func TestAgentNode_MissingInputNeverCallsAgent(t *testing.T) {
	d := newTestDeps()
	eng := newTestEngine(t, d)
	st := newTurnState(t, "")

	update := eng.agentNode(context.Background(), st)

	assert.Equal(t, 0, d.agent.calls)
	assert.True(t, update.AgentOutcomeSet)
	assert.Nil(t, update.AgentOutcome)
	assert.Equal(t, "User input missing for agent.", update.Err)
}

func TestAgentNode_DomainFailurePassesMessageThrough(t *testing.T) {
	d := newTestDeps()
	d.agent.err = NewToolError("agent could not interpret the request")
	eng := newTestEngine(t, d)

	update := eng.agentNode(context.Background(), newTurnState(t, "book me in"))

	assert.True(t, update.AgentOutcomeSet)
	assert.Nil(t, update.AgentOutcome)
	assert.Equal(t, "agent could not interpret the request", update.Err)
}

func TestAgentNode_UnexpectedFailureGetsGenericMessage(t *testing.T) {
	d := newTestDeps()
	d.agent.err = errors.New("connection reset by peer")
	eng := newTestEngine(t, d)

	update := eng.agentNode(context.Background(), newTurnState(t, "book me in"))

	assert.Equal(t, "Unexpected error in agent interaction.", update.Err)
	assert.Nil(t, update.AgentOutcome)
}

func TestAgentNode_PanicIsContained(t *testing.T) {
	d := newTestDeps()
	d.agent.fn = func(context.Context, models.AgentRequest) (*models.AgentOutcome, error) {
		panic("boom")
	}
	eng := newTestEngine(t, d)

	var update StateUpdate
	require.NotPanics(t, func() {
		update = eng.agentNode(context.Background(), newTurnState(t, "hello"))
	})
	assert.NotEmpty(t, update.Err)
}

func TestFindSlotsNode_DurationMapping(t *testing.T) {
	cases := []struct {
		sessionType string
		want        time.Duration
	}{
		{"private", 90 * time.Minute},
		{"group", 60 * time.Minute},
		{"", 60 * time.Minute},
	}
	for _, tc := range cases {
		t.Run("type="+tc.sessionType, func(t *testing.T) {
			d := newTestDeps()
			eng := newTestEngine(t, d)
			st := newTurnState(t, "any times?")
			st.SessionType = tc.sessionType

			eng.findSlotsNode(context.Background(), st)

			assert.Equal(t, tc.want, d.calendar.lastDuration)
		})
	}
}

func TestFindSlotsNode_EmptyIsSuccessNotError(t *testing.T) {
	d := newTestDeps()
	d.calendar.slots = nil
	eng := newTestEngine(t, d)

	update := eng.findSlotsNode(context.Background(), newTurnState(t, "any times?"))

	assert.True(t, update.AvailableSlotsSet)
	assert.NotNil(t, update.AvailableSlots)
	assert.Len(t, update.AvailableSlots, 0)
	assert.Empty(t, update.Err)
	assert.Equal(t, "No available slots found for the requested time.", update.LastToolResponse)
}

func TestFindSlotsNode_FailureClearsSlotsAndSetsError(t *testing.T) {
	d := newTestDeps()
	d.calendar.findErr = NewToolError("free/busy query failed")
	eng := newTestEngine(t, d)

	update := eng.findSlotsNode(context.Background(), newTurnState(t, "any times?"))

	assert.True(t, update.AvailableSlotsSet)
	assert.Nil(t, update.AvailableSlots)
	assert.Equal(t, "free/busy query failed", update.Err)
	assert.Equal(t, "Error finding slots.", update.LastToolResponse)
}

func TestStoreBookingNode_PreconditionNeverCallsStore(t *testing.T) {
	for name, slot := range map[string]*models.Slot{
		"nil slot":   nil,
		"empty slot": {},
	} {
		t.Run(name, func(t *testing.T) {
			d := newTestDeps()
			eng := newTestEngine(t, d)
			st := newTurnState(t, "")
			st.ConfirmedSlot = slot

			update := eng.storeBookingNode(context.Background(), st)

			assert.Empty(t, d.store.stored)
			assert.Equal(t, "Cannot store booking without a confirmed slot.", update.Err)
			assert.Equal(t, "Error storing booking data.", update.LastToolResponse)
		})
	}
}

func TestStoreBookingNode_PersistsConfirmedSlot(t *testing.T) {
	d := newTestDeps()
	eng := newTestEngine(t, d)
	st := newTurnState(t, "")
	st.SessionType = "private"
	st.ConfirmedSlot = &models.Slot{
		Start: testNow.Add(24 * time.Hour),
		End:   testNow.Add(25 * time.Hour),
	}

	update := eng.storeBookingNode(context.Background(), st)

	require.Len(t, d.store.stored, 1)
	booking := d.store.stored[0]
	assert.Equal(t, "u1", booking.TelegramID)
	assert.Equal(t, "private", booking.SessionType)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, "Booking data stored.", update.LastToolResponse)
	assert.Empty(t, update.Err)
}

func TestCreateCalendarEventNode_PreconditionRequiresBothEnds(t *testing.T) {
	for name, slot := range map[string]*models.Slot{
		"nil slot":      nil,
		"missing end":   {Start: testNow},
		"missing start": {End: testNow},
	} {
		t.Run(name, func(t *testing.T) {
			d := newTestDeps()
			eng := newTestEngine(t, d)
			st := newTurnState(t, "")
			st.ConfirmedSlot = slot

			update := eng.createCalendarEventNode(context.Background(), st)

			assert.Equal(t, 0, d.calendar.createCalls)
			assert.Equal(t, "Cannot create calendar event without a confirmed slot.", update.Err)
			assert.Equal(t, "Error creating Google Calendar event.", update.LastToolResponse)
		})
	}
}

func TestCreateCalendarEventNode_SummaryFallsBackToIDLabel(t *testing.T) {
	d := newTestDeps()
	eng := newTestEngine(t, d)
	st := newTurnState(t, "")
	st.SessionType = "group"
	st.ConfirmedSlot = &models.Slot{Start: testNow, End: testNow.Add(time.Hour)}

	update := eng.createCalendarEventNode(context.Background(), st)

	assert.Equal(t, "evt-1", update.GoogleEventID)
	assert.True(t, update.GoogleEventIDSet)
	assert.Contains(t, d.calendar.lastCreate.Summary, "group")
	assert.Contains(t, d.calendar.lastCreate.Summary, "Telegram user u1")
	assert.Contains(t, d.calendar.lastCreate.Description, "u1")
}

func TestCreateCalendarEventNode_UsesProfileName(t *testing.T) {
	d := newTestDeps()
	eng := newTestEngine(t, d)
	st := newTurnState(t, "")
	st.UserProfile = &models.UserProfile{TelegramID: "u1", FirstName: "Ana", LastName: "Cruz"}
	st.ConfirmedSlot = &models.Slot{Start: testNow, End: testNow.Add(time.Hour)}

	eng.createCalendarEventNode(context.Background(), st)

	assert.Contains(t, d.calendar.lastCreate.Summary, "Ana Cruz")
}

func TestSendWaiverNode_Outcomes(t *testing.T) {
	d := newTestDeps()
	eng := newTestEngine(t, d)
	st := newTurnState(t, "")
	st.SessionType = "private"

	update := eng.sendWaiverNode(context.Background(), st)
	assert.Equal(t, "Waiver sent.", update.LastToolResponse)
	assert.Empty(t, update.Err)
	assert.Equal(t, []string{"private"}, d.notifier.waivers)

	d.notifier.waiverErr = NewToolError("telegram send failed")
	update = eng.sendWaiverNode(context.Background(), st)
	assert.Equal(t, "telegram send failed", update.Err)
	assert.Equal(t, "Error sending waiver.", update.LastToolResponse)
}

func TestResetStateNode_Outcomes(t *testing.T) {
	d := newTestDeps()
	eng := newTestEngine(t, d)
	st := newTurnState(t, "")

	update := eng.resetStateNode(context.Background(), st)
	assert.Equal(t, "User state reset.", update.LastToolResponse)
	assert.Equal(t, 1, d.store.resets)

	d.store.resetErr = errors.New("redis down")
	update = eng.resetStateNode(context.Background(), st)
	assert.Equal(t, "redis down", update.Err)
	assert.Equal(t, "Error resetting state.", update.LastToolResponse)
}

func TestHandleErrorNode_NeverFailsAndReturnsNoUpdate(t *testing.T) {
	d := newTestDeps()
	d.notifier.textFn = func(context.Context, string, string) error {
		panic("notifier exploded")
	}
	eng := newTestEngine(t, d)
	st := newTurnState(t, "")
	st.Err = "something broke"

	var update StateUpdate
	require.NotPanics(t, func() {
		update = eng.handleErrorNode(context.Background(), st)
	})
	assert.Equal(t, StateUpdate{}, update)
}

func TestHandleErrorNode_TruncatesAndFallsBack(t *testing.T) {
	d := newTestDeps()
	eng := newTestEngine(t, d)

	st := newTurnState(t, "")
	st.Err = strings.Repeat("x", 250)
	eng.handleErrorNode(context.Background(), st)
	require.Len(t, d.notifier.texts, 1)
	assert.Contains(t, d.notifier.texts[0], strings.Repeat("x", 100))
	assert.NotContains(t, d.notifier.texts[0], strings.Repeat("x", 101))

	st.Err = ""
	eng.handleErrorNode(context.Background(), st)
	require.Len(t, d.notifier.texts, 2)
	assert.Contains(t, d.notifier.texts[1], "Unknown error")
}

func TestTruncateDetail(t *testing.T) {
	assert.Equal(t, "Unknown error", truncateDetail(""))
	assert.Equal(t, "short", truncateDetail("short"))
	long := strings.Repeat("é", 150)
	assert.Equal(t, strings.Repeat("é", 100), truncateDetail(long))
}
