package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ocular/pkg/flow"
)

var validateCmd = &cobra.Command{
	Use:   "validate <workflow.json>",
	Short: "Structurally validate a workflow document",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	wf, err := flow.LoadWorkflow(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	ok, errs := wf.Validate()
	if ok {
		fmt.Fprintf(out, "OK: %s (%d nodes, %d connections)\n", wf.Name, len(wf.Nodes()), len(wf.Connections()))
		return nil
	}

	fmt.Fprintf(out, "INVALID: %s\n", wf.Name)
	for _, e := range errs {
		fmt.Fprintf(out, "  - %s\n", e)
	}
	return fmt.Errorf("workflow has %d structural error(s)", len(errs))
}
