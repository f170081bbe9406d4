package reconcile

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

// FileReader is the narrow filesystem surface the reconciler reads through.
type FileReader interface {
	ReadText(path string) (string, error)
}

// CorrectedContent is the outcome of reconciling proposed content against a
// target path. FileExists=false with no Err means new-file creation;
// FileExists=true with Err set means the target exists but could not be read,
// in which case correction was skipped and the caller must fail fast.
type CorrectedContent struct {
	OriginalContent  string
	CorrectedContent string
	FileExists       bool
	Err              error
}

// Reconciler computes corrected content for mutation tools. It never writes;
// reconciliation is pure computation over reads.
type Reconciler struct {
	fs        FileReader
	corrector Corrector
}

// NewReconciler creates a reconciler. A nil corrector falls back to
// Passthrough.
func NewReconciler(fs FileReader, corrector Corrector) *Reconciler {
	if corrector == nil {
		corrector = Passthrough{}
	}
	return &Reconciler{fs: fs, corrector: corrector}
}

// Reconcile reads the current content at path and runs the appropriate
// corrector over the proposed content. A missing file is not an error; any
// other read failure short-circuits with Err set and no correction attempted.
func (r *Reconciler) Reconcile(ctx context.Context, path, proposedContent string) CorrectedContent {
	current, err := r.fs.ReadText(path)
	if err != nil {
		if os.IsNotExist(err) {
			corrected, cerr := r.corrector.CorrectNew(ctx, path, proposedContent)
			if cerr != nil {
				return CorrectedContent{
					Err: fmt.Errorf("content correction failed: %w", cerr),
				}
			}
			return CorrectedContent{
				OriginalContent:  "",
				CorrectedContent: corrected,
				FileExists:       false,
			}
		}

		log.Warn().Str("path", path).Err(err).Msg("Target exists but could not be read")
		return CorrectedContent{
			FileExists: true,
			Err:        fmt.Errorf("failed to read %s: %w", path, err),
		}
	}

	corrected, cerr := r.corrector.CorrectEdit(ctx, path, current, proposedContent)
	if cerr != nil {
		return CorrectedContent{
			OriginalContent: current,
			FileExists:      true,
			Err:             fmt.Errorf("content correction failed: %w", cerr),
		}
	}

	return CorrectedContent{
		OriginalContent:  current,
		CorrectedContent: corrected,
		FileExists:       true,
	}
}
