package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/samhoang/skillkit/internal/agent"
	"github.com/samhoang/skillkit/internal/config"
	"github.com/samhoang/skillkit/internal/installer"
	"github.com/samhoang/skillkit/internal/lock"
)

var removeCmd = &cobra.Command{
	Use:     "remove <skill>...",
	Aliases: []string{"rm", "uninstall"},
	Short:   "Remove installed skills and their agent links",
	Args:    cobra.MinimumNArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		paths, err := config.ResolvePaths(global)
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		entries, err := lock.NewStore(paths.LockPath).List()
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := newPrinter(cmd.OutOrStdout(), cmd.InOrStdin())

		paths, err := config.ResolvePaths(global)
		if err != nil {
			return errors.Wrap(err, "failed to resolve paths")
		}

		// every agent directory of the scope; Uninstall only clears entries it placed
		targets, err := agent.ResolveTargetDirs(agent.Names(), paths.BaseDir, global)
		if err != nil {
			return err
		}
		cfg := installer.NewConfig(paths.CanonicalDir, targets...)

		inst := installer.New()
		store := lock.NewStore(paths.LockPath)
		for _, name := range args {
			if _, ok, err := store.Get(name); err != nil {
				return err
			} else if !ok {
				out.warn("Skill '%s' is not installed, skipping.", name)
				continue
			}
			if err := inst.Uninstall(cmd.Context(), name, cfg); err != nil {
				return err
			}
			if err := store.Remove(name); err != nil {
				return err
			}
			out.success("Removed %s", name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}
