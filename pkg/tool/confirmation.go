package tool

// ConfirmationType tags the variant of a confirmation prompt.
type ConfirmationType string

const (
	// ConfirmInfo is a free-text prompt with no diff attached.
	ConfirmInfo ConfirmationType = "info"
	// ConfirmEdit carries a file diff for the user to review.
	ConfirmEdit ConfirmationType = "edit"
)

// Outcome is the user's decision on a confirmation prompt.
type Outcome string

const (
	OutcomeProceed           Outcome = "proceed"
	OutcomeProceedAlways     Outcome = "proceed_always"
	OutcomeCancel            Outcome = "cancel"
	OutcomeModifyThenProceed Outcome = "modify_then_proceed"
)

// ConfirmationDetails describes the prompt shown to the user before a gated
// invocation executes. It is created lazily, only when the approval gate
// actually requires a prompt.
type ConfirmationDetails struct {
	Type  ConfirmationType
	Title string

	// Prompt is the free text of an info confirmation.
	Prompt string

	// Edit confirmation fields.
	FileName        string
	FilePath        string
	FileDiff        string
	OriginalContent string
	ProposedContent string

	// OnConfirm receives the user's decision. The approval gate wraps it to
	// record proceed-always allowlist entries.
	OnConfirm func(Outcome)
}
