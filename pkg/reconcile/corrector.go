// Package reconcile adjusts agent-proposed file content against the live
// filesystem before it is shown for confirmation or written, and renders the
// unified diffs those previews carry.
package reconcile

import "context"

// Corrector produces corrected content for a proposed file mutation. The
// LLM-backed implementations ask a model to repair truncated or mangled
// content; Passthrough is used when correction is disabled.
type Corrector interface {
	// CorrectEdit treats the entire current content as the old side of an
	// edit and the proposed content as the new side, returning the corrected
	// new content.
	CorrectEdit(ctx context.Context, path, currentContent, proposedContent string) (string, error)

	// CorrectNew ensures proposed content for a file that does not exist yet
	// is complete, returning the corrected content.
	CorrectNew(ctx context.Context, path, proposedContent string) (string, error)
}

// Passthrough is a no-op corrector: proposed content is returned unchanged.
type Passthrough struct{}

// CorrectEdit implements Corrector.
func (Passthrough) CorrectEdit(ctx context.Context, path, currentContent, proposedContent string) (string, error) {
	return proposedContent, nil
}

// CorrectNew implements Corrector.
func (Passthrough) CorrectNew(ctx context.Context, path, proposedContent string) (string, error) {
	return proposedContent, nil
}
