package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/barefootlabs/bdp/internal/engine"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all assets in execution order",
		Long: `List every discovered asset with its kind, source file, and dependencies,
in the order a full materialization would run them.`,
		Example: `  # List all assets
  bdp list

  # List assets as JSON
  bdp list --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd)
		},
	}
	return cmd
}

func runList(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	eng := cmdCtx.Engine
	if err := eng.Discover(); err != nil {
		return err
	}

	if cmdCtx.Cfg.OutputFormat == "json" {
		return listJSON(cmd, eng)
	}
	return listText(cmd, eng)
}

// listText prints assets in execution order with their dependencies drawn
// as tree connectors.
func listText(cmd *cobra.Command, eng *engine.Engine) error {
	w := cmd.OutOrStdout()
	plan, err := eng.Plan(nil)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Assets (%d total)\n\n", len(plan))
	for i, a := range plan {
		fmt.Fprintf(w, "%3d. %s (%s)  %s\n", i+1, a.QualifiedName(), a.Kind.String(), a.Path)
		deps := eng.Graph().Parents(a.QualifiedName())
		for j, dep := range deps {
			connector := "├─"
			if j == len(deps)-1 {
				connector = "└─"
			}
			fmt.Fprintf(w, "     %s %s\n", connector, dep)
		}
	}
	return nil
}

// assetInfo is the JSON shape of one listed asset.
type assetInfo struct {
	Name         string   `json:"name"`
	Schema       string   `json:"schema"`
	Kind         string   `json:"kind"`
	Path         string   `json:"path"`
	Dependencies []string `json:"dependencies"`
	Dependents   []string `json:"dependents"`
}

func listJSON(cmd *cobra.Command, eng *engine.Engine) error {
	plan, err := eng.Plan(nil)
	if err != nil {
		return err
	}

	infos := make([]assetInfo, len(plan))
	for i, a := range plan {
		infos[i] = assetInfo{
			Name:         a.Name,
			Schema:       a.Schema,
			Kind:         a.Kind.String(),
			Path:         a.Path,
			Dependencies: orEmpty(eng.Graph().Parents(a.QualifiedName())),
			Dependents:   orEmpty(eng.Graph().Children(a.QualifiedName())),
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(infos)
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
