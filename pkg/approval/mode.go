// Package approval decides, per invocation, whether execution proceeds
// immediately, must be confirmed by the user, or is denied. It owns the
// session-scoped proceed-always allowlist and the workspace-boundary
// downgrade that forces a prompt for auto-approved calls targeting paths
// outside the permitted root.
package approval

// Mode is the approval mode the policy engine assigns for a session.
type Mode string

const (
	// ModeDefault prompts for every mutating call.
	ModeDefault Mode = "default"
	// ModeAutoEdit skips confirmation for edit-kind tools.
	ModeAutoEdit Mode = "auto_edit"
	// ModeDeny refuses mutating calls outright.
	ModeDeny Mode = "deny"
)

// Decision is the gate's verdict for one invocation.
type Decision string

const (
	// DecisionAuto means execution may proceed without a prompt.
	DecisionAuto Decision = "auto"
	// DecisionConfirm means a confirmation prompt must be answered first.
	DecisionConfirm Decision = "confirm"
	// DecisionDeny means the call is refused.
	DecisionDeny Decision = "deny"
)
