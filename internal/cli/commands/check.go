package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate assets without materializing anything",
		Long: `Run every validation rule over the discovered assets and report each
rule's outcome. Nothing is written to the database. The exit status is
non-zero when any rule fails.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd)
		},
	}
}

func runCheck(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	results, err := cmdCtx.Engine.Check()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	failures := 0
	for _, res := range results {
		if res.Passed {
			fmt.Fprintf(w, "ok    %s\n", res.Rule)
			continue
		}
		failures++
		fmt.Fprintf(w, "FAIL  %s\n", res.Rule)
		for _, problem := range res.Problems {
			fmt.Fprintf(w, "      %s\n", problem)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d check(s) failed", failures)
	}
	return nil
}
