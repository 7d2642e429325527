package graph

import "github.com/gabedeluna/kambo-klarity/models"

// StateUpdate is the partial result of one node. Zero-valued fields leave the
// running state unchanged; the *Set flags force a field to the carried value,
// which lets a node distinguish "no update" from "set to empty/nil". Failure
// is data here, never a returned error: a node that hit trouble sets Err and
// the engine routes the turn to error handling.
type StateUpdate struct {
	AgentOutcome    *models.AgentOutcome
	AgentOutcomeSet bool

	AvailableSlots    []models.Slot
	AvailableSlotsSet bool

	GoogleEventID    string
	GoogleEventIDSet bool

	Err              string
	LastToolResponse string
}

// Merge applies a partial update to the running state.
func Merge(st *models.BookingState, u StateUpdate) {
	if u.AgentOutcomeSet {
		st.AgentOutcome = u.AgentOutcome
	}
	if u.AvailableSlotsSet {
		st.AvailableSlots = u.AvailableSlots
	}
	if u.GoogleEventIDSet {
		st.GoogleEventID = u.GoogleEventID
	}
	if u.Err != "" {
		st.Err = u.Err
	}
	if u.LastToolResponse != "" {
		st.LastToolResponse = u.LastToolResponse
	}
}
