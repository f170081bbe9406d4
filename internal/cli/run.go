package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"toolflow/pkg/approval"
	"toolflow/pkg/tool"
)

var assumeYes bool

var runCmd = &cobra.Command{
	Use:   "run <tool> <params-json>",
	Short: "Run a tool invocation through the full lifecycle",
	Long: `Run builds the named tool from JSON parameters, validates them
against the tool's schema, asks for confirmation when the approval gate
requires it, and executes.

Example:
  toolflow run write_file '{"path": "notes.txt", "content": "a\nb\n"}'`,
	Args: cobra.ExactArgs(2),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "answer confirmation prompts with proceed")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	var params map[string]interface{}
	if err := json.Unmarshal([]byte(args[1]), &params); err != nil {
		return fmt.Errorf("invalid params JSON: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := executeOne(ctx, rt, args[0], params, cmd.OutOrStdout(), cmd.InOrStdin())
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.ModelContent)
	if result.Err != nil {
		return fmt.Errorf("%s: %w", result.DisplaySummary, result.Err)
	}
	if result.DisplaySummary != "" {
		fmt.Fprintln(cmd.OutOrStdout(), result.DisplaySummary)
	}
	return nil
}

// executeOne drives a single invocation through build, gate, prompt, and
// execute.
func executeOne(ctx context.Context, rt *runtime, name string, params map[string]interface{}, out io.Writer, in io.Reader) (tool.Result, error) {
	decl := rt.registry.Get(name)
	if decl == nil {
		return tool.Result{}, fmt.Errorf("unknown tool %q", name)
	}

	inv, err := rt.registry.Build(name, params)
	if err != nil {
		return tool.Result{}, err
	}

	decision, details, err := rt.gate.Decide(ctx, rt.session, *decl, inv)
	if err != nil {
		return tool.Result{}, err
	}

	switch decision {
	case approval.DecisionDeny:
		return tool.Result{}, fmt.Errorf("refused by approval policy: %s", inv.Description())
	case approval.DecisionConfirm:
		outcome, err := promptUser(details, out, in)
		if err != nil {
			return tool.Result{}, err
		}
		if details.OnConfirm != nil {
			details.OnConfirm(outcome)
		}
		if outcome == tool.OutcomeCancel {
			return tool.Result{}, fmt.Errorf("cancelled: %s", inv.Description())
		}
	}

	return inv.Execute(ctx), nil
}

func promptUser(details *tool.ConfirmationDetails, out io.Writer, in io.Reader) (tool.Outcome, error) {
	if details.Title != "" {
		fmt.Fprintln(out, details.Title)
	}
	if details.Prompt != "" {
		fmt.Fprintln(out, details.Prompt)
	}
	if details.FileDiff != "" {
		fmt.Fprintln(out, details.FileDiff)
	}

	if assumeYes {
		return tool.OutcomeProceed, nil
	}

	fmt.Fprint(out, "Proceed? [y]es / [a]lways / [n]o: ")
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return tool.OutcomeCancel, fmt.Errorf("failed to read confirmation answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return tool.OutcomeProceed, nil
	case "a", "always":
		return tool.OutcomeProceedAlways, nil
	default:
		return tool.OutcomeCancel, nil
	}
}
