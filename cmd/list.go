package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/samhoang/skillkit/internal/config"
	"github.com/samhoang/skillkit/internal/lock"
)

var listOutput string

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List installed skills recorded in the lock file",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := config.ResolvePaths(global)
		if err != nil {
			return errors.Wrap(err, "failed to resolve paths")
		}

		entries, err := lock.NewStore(paths.LockPath).List()
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if listOutput == "json" {
			return writeJSON(w, introspection("skills", map[string]any{"skills": entries}))
		}

		if len(entries) == 0 {
			fmt.Fprintln(w, "No skills installed.")
			return nil
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tSOURCE\tUPDATED\tPATH")
		for _, e := range entries {
			source := e.Source
			if e.SourceURL != "" {
				source += " " + e.SourceURL
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Name, source, e.UpdatedAt.Format("2006-01-02 15:04"), e.SkillPath)
		}
		return tw.Flush()
	},
}

func init() {
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "Output format (table, json)")
	setChoices(listCmd.Flags(), "output", "table", "json")
	rootCmd.AddCommand(listCmd)
}
