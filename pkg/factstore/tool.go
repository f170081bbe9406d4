package factstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"toolflow/internal/telemetry"
	"toolflow/pkg/reconcile"
	"toolflow/pkg/tool"
)

const toolName = "fact_store"

// Action is the closed set of operations the fact tool performs. Parsing
// happens once at the tool boundary; everything downstream switches
// exhaustively over the typed value.
type Action string

const (
	ActionSave   Action = "save"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionFetch  Action = "fetch"
)

func parseAction(raw string) (Action, error) {
	switch Action(raw) {
	case ActionSave, ActionUpdate, ActionDelete, ActionFetch:
		return Action(raw), nil
	default:
		return "", fmt.Errorf("unknown action %q (expected save, update, delete, or fetch)", raw)
	}
}

// Declaration returns the fact tool's catalog entry.
func Declaration() tool.Declaration {
	return tool.Declaration{
		Name:                 toolName,
		Description:          "Save, update, delete, or fetch a remembered fact by id.",
		Kind:                 tool.KindThink,
		RequiresConfirmation: true,
		Parameters: []tool.Parameter{
			{Name: "action", Type: "string", Description: "One of save, update, delete, fetch", Required: true},
			{Name: "fact", Type: "string", Description: "Fact text (save and update)"},
			{Name: "id", Type: "integer", Description: "Record id (update, delete, fetch)"},
		},
	}
}

// RegisterTool registers the fact tool against the given store.
func RegisterTool(registry *tool.Registry, store *Store, collector *telemetry.Collector) error {
	return registry.Register(Declaration(), func(params map[string]interface{}) (tool.Invocation, error) {
		return newInvocation(store, collector, params)
	})
}

type invocation struct {
	store     *Store
	collector *telemetry.Collector
	action    Action
	fact      string
	id        int

	// userEdited holds verbatim content accepted through a side-channel
	// edit. When set, execution writes it instead of recomputing from
	// parsed records; the two paths are mutually exclusive per invocation.
	userEdited *string
}

func newInvocation(store *Store, collector *telemetry.Collector, params map[string]interface{}) (tool.Invocation, error) {
	raw, _ := params["action"].(string)
	action, err := parseAction(raw)
	if err != nil {
		return nil, err
	}

	inv := &invocation{store: store, collector: collector, action: action}

	if fact, ok := params["fact"].(string); ok {
		inv.fact = NormalizeFact(fact)
	}
	if rawID, ok := params["id"]; ok {
		f, ok := rawID.(float64)
		if !ok {
			if n, isInt := rawID.(int); isInt {
				f = float64(n)
			} else {
				return nil, fmt.Errorf("id must be an integer")
			}
		}
		inv.id = int(f)
	}

	switch action {
	case ActionSave:
		if inv.fact == "" {
			return nil, fmt.Errorf("fact is required for save")
		}
	case ActionUpdate:
		if inv.fact == "" {
			return nil, fmt.Errorf("fact is required for update")
		}
		if inv.id <= 0 {
			return nil, fmt.Errorf("a positive id is required for update")
		}
	case ActionDelete, ActionFetch:
		if inv.id <= 0 {
			return nil, fmt.Errorf("a positive id is required for %s", action)
		}
	}

	return inv, nil
}

func (inv *invocation) Description() string {
	switch inv.action {
	case ActionSave:
		return fmt.Sprintf("Save fact: %s", inv.fact)
	case ActionUpdate:
		return fmt.Sprintf("Update fact %d", inv.id)
	case ActionDelete:
		return fmt.Sprintf("Delete fact %d", inv.id)
	case ActionFetch:
		return fmt.Sprintf("Fetch fact %d", inv.id)
	}
	return string(inv.action)
}

func (inv *invocation) Locations() []string {
	return []string{inv.store.Path()}
}

// Confirmation previews the store file after the mutation as an edit diff.
// Fetch never prompts.
func (inv *invocation) Confirmation(ctx context.Context) (*tool.ConfirmationDetails, error) {
	if inv.action == ActionFetch {
		return nil, nil
	}

	records, err := inv.store.All()
	if err != nil {
		return nil, err
	}

	proposed, err := inv.applyTo(records)
	if err != nil {
		// Not-found and no-op outcomes are reported by execution, without
		// a prompt standing in the way.
		if errors.Is(err, tool.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	original := FormatRecords(records)
	proposedContent := FormatRecords(proposed)
	if proposedContent == original {
		// Nothing would change; execution reports the no-op.
		return nil, nil
	}
	fileName := filepath.Base(inv.store.Path())

	diff, err := reconcile.UnifiedDiff(original, proposedContent, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to render diff preview: %w", err)
	}

	return &tool.ConfirmationDetails{
		Type:            tool.ConfirmEdit,
		Title:           fmt.Sprintf("Confirm fact store %s", inv.action),
		FileName:        fileName,
		FilePath:        inv.store.Path(),
		FileDiff:        diff,
		OriginalContent: original,
		ProposedContent: proposedContent,
	}, nil
}

// applyTo computes the record list after this invocation's mutation.
func (inv *invocation) applyTo(records []Record) ([]Record, error) {
	switch inv.action {
	case ActionSave:
		return append(append([]Record(nil), records...), Record{ID: NextID(records), Fact: inv.fact}), nil
	case ActionUpdate:
		updated := append([]Record(nil), records...)
		for i, r := range updated {
			if r.ID == inv.id {
				updated[i].Fact = inv.fact
				return updated, nil
			}
		}
		return nil, fmt.Errorf("%w: fact %d", tool.ErrNotFound, inv.id)
	case ActionDelete:
		kept := make([]Record, 0, len(records))
		for _, r := range records {
			if r.ID != inv.id {
				kept = append(kept, r)
			}
		}
		return kept, nil
	}
	return records, nil
}

// ReplaceProposedContent switches execution to the verbatim user-edit path.
func (inv *invocation) ReplaceProposedContent(path, content string) {
	inv.userEdited = &content
}

func (inv *invocation) Execute(ctx context.Context) tool.Result {
	start := time.Now()

	if ctx.Err() != nil {
		err := fmt.Errorf("%w: %v", tool.ErrCancelled, ctx.Err())
		return tool.ErrorResult("Fact store operation cancelled", err)
	}

	if inv.userEdited != nil && inv.action != ActionFetch {
		if err := inv.store.WriteVerbatim(*inv.userEdited); err != nil {
			inv.recordError()
			return tool.ErrorResult("Fact store update failed", err)
		}
		inv.record("edit", start)
		return tool.Result{
			ModelContent:   "Fact store updated with user-edited content.",
			DisplaySummary: "Updated fact store",
		}
	}

	switch inv.action {
	case ActionSave:
		record, err := inv.store.Save(inv.fact)
		if err != nil {
			inv.recordError()
			return tool.ErrorResult("Failed to save fact", err)
		}
		inv.record("save", start)
		return tool.Result{
			ModelContent:   fmt.Sprintf("Saved fact with ID %d.", record.ID),
			DisplaySummary: fmt.Sprintf("Saved fact %d", record.ID),
		}

	case ActionUpdate:
		record, err := inv.store.Update(inv.id, inv.fact)
		if err != nil {
			inv.recordError()
			return tool.ErrorResult("Failed to update fact", err)
		}
		inv.record("update", start)
		return tool.Result{
			ModelContent:   fmt.Sprintf("Updated fact %d.", record.ID),
			DisplaySummary: fmt.Sprintf("Updated fact %d", record.ID),
		}

	case ActionDelete:
		removed, err := inv.store.Delete(inv.id)
		if err != nil {
			inv.recordError()
			return tool.ErrorResult("Failed to delete fact", err)
		}
		inv.record("delete", start)
		if !removed {
			return tool.Result{
				ModelContent:   fmt.Sprintf("Fact %d did not exist; nothing deleted.", inv.id),
				DisplaySummary: fmt.Sprintf("Fact %d not present", inv.id),
			}
		}
		return tool.Result{
			ModelContent:   fmt.Sprintf("Deleted fact %d.", inv.id),
			DisplaySummary: fmt.Sprintf("Deleted fact %d", inv.id),
		}

	case ActionFetch:
		record, err := inv.store.Fetch(inv.id)
		if err != nil {
			if errors.Is(err, tool.ErrNotFound) {
				return tool.Result{
					ModelContent:   fmt.Sprintf("Fact %d not found.", inv.id),
					DisplaySummary: fmt.Sprintf("Fact %d not found", inv.id),
				}
			}
			inv.recordError()
			return tool.ErrorResult("Failed to fetch fact", err)
		}
		inv.record("fetch", start)
		return tool.Result{
			ModelContent:   fmt.Sprintf("[ID: %d] %s", record.ID, record.Fact),
			DisplaySummary: fmt.Sprintf("Fetched fact %d", record.ID),
		}
	}

	return tool.ErrorResult("Fact store operation failed", fmt.Errorf("unknown action %q", inv.action))
}

func (inv *invocation) record(operation string, start time.Time) {
	if inv.collector == nil {
		return
	}
	inv.collector.Record(telemetry.Event{
		Tool:      toolName,
		Operation: operation,
		Path:      inv.store.Path(),
		Duration:  time.Since(start),
	})
}

func (inv *invocation) recordError() {
	if inv.collector != nil {
		inv.collector.RecordError(toolName)
	}
}
