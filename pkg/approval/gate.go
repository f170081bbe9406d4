package approval

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"toolflow/pkg/tool"
	"toolflow/pkg/workspace"
)

// EditObserver is an optional side channel (an IDE-style diff view) that can
// return content the user edited while reviewing the prompt. When absent,
// confirmation degrades to the plain diff-preview path.
type EditObserver interface {
	// ObserveEdit presents the edit externally. When edited is true the
	// returned content replaces the invocation's proposed content.
	ObserveEdit(ctx context.Context, details *tool.ConfirmationDetails) (content string, edited bool, err error)
}

// Gate decides whether an invocation may execute unattended.
type Gate struct {
	boundary *workspace.Boundary
	observer EditObserver
}

// NewGate creates a gate. The observer may be nil.
func NewGate(boundary *workspace.Boundary, observer EditObserver) *Gate {
	return &Gate{boundary: boundary, observer: observer}
}

// Decide evaluates one invocation against the session's approval mode, the
// allowlist, and the workspace boundary. When the decision is
// DecisionConfirm, the returned details carry the prompt; their OnConfirm is
// wrapped so proceed-always records allowlist entries and a side-channel edit
// replaces the proposed content before execution.
//
// A reconciliation failure inside the invocation's confirmation computation
// does not produce a prompt: the gate logs it and returns DecisionAuto, and
// execution surfaces the same error for that target.
func (g *Gate) Decide(ctx context.Context, session *Session, decl tool.Declaration, inv tool.Invocation) (Decision, *tool.ConfirmationDetails, error) {
	if session == nil {
		return DecisionDeny, nil, fmt.Errorf("approval session is required")
	}

	if !decl.RequiresConfirmation {
		return DecisionAuto, nil, nil
	}

	if session.Mode == ModeDeny {
		log.Warn().Str("tool", decl.Name).Msg("Invocation denied by approval mode")
		return DecisionDeny, nil, nil
	}

	// An allowlist entry names an exact (action, resolved path) pair the
	// user already approved with proceed-always, so it is honored wherever
	// the target lives, out-of-root paths included.
	if g.allowlisted(session, decl.Name, inv.Locations()) {
		log.Debug().Str("tool", decl.Name).Msg("Invocation allowlisted, skipping confirmation")
		return DecisionAuto, nil, nil
	}

	// Unattended mode-based mutation is only honored inside the workspace
	// root; a target beyond it downgrades auto-approval to a mandatory
	// prompt.
	if session.Mode == ModeAutoEdit && decl.Kind == tool.KindEdit && !g.outsideBoundary(inv.Locations()) {
		return DecisionAuto, nil, nil
	}

	details, err := inv.Confirmation(ctx)
	if err != nil {
		log.Warn().Str("tool", decl.Name).Err(err).Msg("Confirmation details unavailable, deferring to execution")
		return DecisionAuto, nil, nil
	}
	if details == nil {
		return DecisionAuto, nil, nil
	}

	g.wrapOnConfirm(ctx, session, decl.Name, inv, details)

	return DecisionConfirm, details, nil
}

func (g *Gate) outsideBoundary(locations []string) bool {
	if g.boundary == nil {
		return false
	}
	for _, loc := range locations {
		if reason := g.boundary.ValidateAccess(loc, workspace.AccessWrite); reason != "" {
			return true
		}
	}
	return false
}

func (g *Gate) allowlisted(session *Session, action string, locations []string) bool {
	if len(locations) == 0 {
		return false
	}
	for _, loc := range locations {
		if !session.Allowlist.IsAllowed(action, loc) {
			return false
		}
	}
	return true
}

func (g *Gate) wrapOnConfirm(ctx context.Context, session *Session, action string, inv tool.Invocation, details *tool.ConfirmationDetails) {
	inner := details.OnConfirm

	details.OnConfirm = func(outcome tool.Outcome) {
		switch outcome {
		case tool.OutcomeProceedAlways:
			for _, loc := range inv.Locations() {
				session.Allowlist.Add(action, loc)
			}

		case tool.OutcomeModifyThenProceed:
			if g.observer != nil {
				content, edited, err := g.observer.ObserveEdit(ctx, details)
				if err != nil {
					log.Warn().Err(err).Msg("Side-channel edit failed, keeping proposed content")
					break
				}
				if edited {
					if replacer, ok := inv.(tool.ContentReplacer); ok {
						replacer.ReplaceProposedContent(details.FilePath, content)
						log.Info().Str("path", details.FilePath).Msg("Proposed content replaced by user edit")
					}
				}
			}
		}

		if inner != nil {
			inner(outcome)
		}
	}
}
