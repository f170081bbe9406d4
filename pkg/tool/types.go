package tool

import (
	"context"
	"fmt"
)

// Kind classifies what a tool does to the workspace.
type Kind string

const (
	KindRead   Kind = "read"
	KindEdit   Kind = "edit"
	KindThink  Kind = "think"
	KindSearch Kind = "search"
)

// Parameter describes one named argument of a tool.
type Parameter struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Required    bool        `json:"required"`
	Default     interface{} `json:"default,omitempty"`
}

// Declaration is the stable, agent-visible identity of a tool. The agent's
// tool catalog references declarations only; everything per-call lives on the
// Invocation the declaration's builder produces.
type Declaration struct {
	Name                 string      `json:"name"`
	Description          string      `json:"description"`
	Kind                 Kind        `json:"kind"`
	Parameters           []Parameter `json:"parameters"`
	RequiresConfirmation bool        `json:"requires_confirmation"`
	RequiresPlanMode     bool        `json:"requires_plan_mode"`
}

// Builder constructs an invocation from already schema-validated parameters.
type Builder func(params map[string]interface{}) (Invocation, error)

// Result is what every executed operation returns to the agent: content the
// model reasons over, a short human-readable summary, and the call-level
// error if the operation failed outright.
type Result struct {
	ModelContent   string `json:"model_content"`
	DisplaySummary string `json:"display_summary"`
	Err            error  `json:"-"`
}

// ErrorResult builds a Result carrying err in both audiences' views.
func ErrorResult(summary string, err error) Result {
	return Result{
		ModelContent:   fmt.Sprintf("Error: %v", err),
		DisplaySummary: summary,
		Err:            err,
	}
}

// Invocation is one tool call bound to its parameters. It is created per
// call and discarded after Execute resolves; never reused.
type Invocation interface {
	// Description renders a short human-readable account of what this
	// invocation will do.
	Description() string

	// Locations lists the resolved filesystem paths the invocation touches.
	Locations() []string

	// Confirmation computes the confirmation details for this invocation,
	// or nil when no prompt is needed. It must not mutate anything.
	Confirmation(ctx context.Context) (*ConfirmationDetails, error)

	// Execute runs the operation and returns the aggregate result.
	Execute(ctx context.Context) Result
}

// ContentReplacer is implemented by mutating invocations that can accept
// externally edited content in place of what the agent proposed.
type ContentReplacer interface {
	ReplaceProposedContent(path, content string)
}
