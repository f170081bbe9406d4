package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List registered tools",
	RunE:  runTools,
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	for _, decl := range rt.registry.Declarations() {
		confirm := ""
		if decl.RequiresConfirmation {
			confirm = " (requires confirmation)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s%s\n", decl.Name, decl.Description, confirm)
		for _, p := range decl.Parameters {
			required := ""
			if p.Required {
				required = ", required"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "    %s (%s%s): %s\n", p.Name, p.Type, required, p.Description)
		}
	}
	return nil
}
