package graph

import "fmt"

// ConfigError reports an engine constructed without a required collaborator.
// The hosting layer decides whether that is fatal; the engine itself only
// refuses to run turns.
type ConfigError struct {
	Missing string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("booking graph misconfigured: missing %s", e.Missing)
}

// ToolError marks a failure a collaborator itself reported, as opposed to an
// unexpected transport or runtime error. Nodes pass its message through into
// state verbatim; anything else gets a node-specific generic message.
type ToolError struct {
	Msg string
}

func (e *ToolError) Error() string { return e.Msg }

func NewToolError(format string, args ...any) error {
	return &ToolError{Msg: fmt.Sprintf(format, args...)}
}
