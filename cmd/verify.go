package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/samhoang/skillkit/internal/config"
	"github.com/samhoang/skillkit/internal/lock"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check installed skill documents against the hashes in the lock file",
	Long: `Verify recomputes the SKILL.md hash of every skill recorded in the lock
file. It fails when a document changed since install (drifted) or was
deleted (missing). Entries migrated from an older lock file have no hash
and are reported as unhashed until they are installed again.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := config.ResolvePaths(global)
		if err != nil {
			return errors.Wrap(err, "failed to resolve paths")
		}

		results, err := lock.NewStore(paths.LockPath).Verify()
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if len(results) == 0 {
			fmt.Fprintln(w, "No skills installed.")
			return nil
		}

		failed := 0
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tSTATUS\tPATH")
		for _, v := range results {
			status := string(v.Status)
			switch v.Status {
			case lock.StatusOK:
				status = successColor.Sprint(status)
			case lock.StatusDrifted, lock.StatusMissing:
				status = errorColor.Sprint(status)
				failed++
			default:
				status = warnColor.Sprint(status)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", v.Name, status, v.Path)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		if failed > 0 {
			return errors.Errorf("%d skill(s) failed verification", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
