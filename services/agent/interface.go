package agent

import (
	"context"

	"github.com/gabedeluna/kambo-klarity/models"
)

// BookingAgent interprets a user's free-form message into a structured
// booking decision. The agent is an opaque capability: callers see only the
// request/outcome contract, never prompt internals.
type BookingAgent interface {
	RunBookingAgent(ctx context.Context, req models.AgentRequest) (*models.AgentOutcome, error)
}
