package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/samhoang/skillkit/internal/agent"
	"github.com/samhoang/skillkit/internal/config"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List supported agents and their skill directories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := config.ResolvePaths(global)
		if err != nil {
			return errors.Wrap(err, "failed to resolve paths")
		}

		detected := make(map[string]bool)
		for _, a := range agent.Detect(paths.BaseDir, global) {
			detected[a.Name] = true
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tAGENT\tDIRECTORY\tDETECTED")
		for _, a := range agent.All() {
			dir := a.Dir(paths.BaseDir, global)
			if dir == "" {
				dir = paths.CanonicalDir + " (shared)"
			}
			mark := ""
			if detected[a.Name] {
				mark = "yes"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.Name, a.DisplayName, dir, mark)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(agentsCmd)
}
