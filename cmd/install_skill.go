package cmd

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/samhoang/skillkit/internal/agent"
	"github.com/samhoang/skillkit/internal/config"
	"github.com/samhoang/skillkit/internal/discovery"
	"github.com/samhoang/skillkit/internal/installer"
	"github.com/samhoang/skillkit/internal/lock"
	"github.com/samhoang/skillkit/internal/logger"
	"github.com/samhoang/skillkit/internal/picker"
	"github.com/samhoang/skillkit/internal/provider"
	_ "github.com/samhoang/skillkit/internal/provider/remote"
	"github.com/samhoang/skillkit/internal/skill"
)

// installOptions are the flags of install-skill
type installOptions struct {
	Source         string
	Agent          []string
	Skill          string
	Global         bool
	Yes            bool
	NonInteractive bool
	Copy           bool
	NoFallback     bool
}

var installOpts installOptions

var installSkillCmd = &cobra.Command{
	Use:   "install-skill",
	Short: "Install a skill",
	Long: `Discover skills from a source, install them into .agents/skills and link
them into the directories of the requested agents.

Sources:
  self | embedded              skills bundled with skillkit (default)
  local:<path> | ./path        a directory on disk
  github:owner/repo[@ref]      a GitHub repository (also gitlab:)
  https://host/pkg.tar.gz      an archive download`,
	Example: `  skillkit install-skill --agent claude --yes
  skillkit install-skill --source ./skills --skill pdf --agent claude,cursor
  skillkit install-skill --source github:acme/skills@v1 --global --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		installOpts.Global = global
		return runInstallSkill(cmd.Context(), cmd, installOpts)
	},
}

func runInstallSkill(ctx context.Context, cmd *cobra.Command, opts installOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	out := newPrinter(cmd.OutOrStdout(), cmd.InOrStdin())

	paths, err := config.ResolvePaths(opts.Global)
	if err != nil {
		return errors.Wrap(err, "failed to resolve paths")
	}
	settings, err := config.LoadSettings(paths.SettingsPath)
	if err != nil {
		return err
	}

	src, err := skill.ParseSource(opts.Source)
	if err != nil {
		return err
	}
	src.SkillFilter = opts.Skill

	agents := agent.ParseAgents(opts.Agent)
	if len(agents) == 0 {
		agents = agent.ParseAgents(settings.DefaultAgents)
	}
	// unknown agents fail before anything is fetched
	targets, err := agent.ResolveTargetDirs(agents, paths.BaseDir, opts.Global)
	if err != nil {
		return err
	}

	p := provider.ForSource(src, provider.WithScanPolicy(settings.MaxDepth, settings.Ignore))
	defer func() {
		if err := provider.Close(p); err != nil {
			logger.G(ctx).WithError(err).Warn("failed to clean up provider")
		}
	}()

	out.line("Discovering skills from %s (scope: %s)", describeSource(src), scopeName(opts.Global))

	resolver := discovery.New(settings.DiscoveryConfig(), discovery.WithProvider(p))
	skills, err := resolver.Discover(ctx, src)
	if err != nil {
		return err
	}
	if len(skills) == 0 {
		if src.SkillFilter != "" {
			out.line("No skill matching '%s' found.", src.SkillFilter)
		} else {
			out.line("No skills found.")
		}
		return nil
	}

	out.header("Found %d skill(s):", len(skills))
	for _, s := range skills {
		out.line("  - %s (%s)", s.Name, s.Description)
	}

	cfg, err := settings.InstallConfig(paths.CanonicalDir, targets)
	if err != nil {
		return err
	}
	if opts.Copy {
		cfg.Mode = installer.ModeCopy
	}
	if opts.NoFallback {
		cfg.FallbackToCopy = false
	}

	selected, err := selectSkills(cmd.InOrStdin(), out, skills, opts.Yes || opts.NonInteractive)
	if err != nil {
		return err
	}

	inst := installer.New(installer.WithProvider(p))
	store := lock.NewStore(paths.LockPath)

	for _, s := range selected {
		out.line("Installing skill '%s'...", s.Name)

		result, err := inst.Install(ctx, s, cfg)
		if err != nil {
			return err
		}
		out.detail("Installed to:", result.Path)
		for _, t := range result.Targets {
			switch t.Method {
			case installer.MethodSymlink:
				out.detail("Linked to:", t.Path)
			case installer.MethodCopy:
				out.detail("Copied to:", t.Path)
			}
		}
		if result.SymlinkFailed {
			out.warn("  Note: Some symlinks failed, used copy fallback.")
		}

		hash := ""
		if p != nil {
			if hash, err = p.Hash(ctx, s); err != nil {
				return errors.Wrapf(err, "failed to hash skill %s", s.Name)
			}
		}
		if _, err := store.Upsert(s.Name, src, result.Path, hash); err != nil {
			return err
		}
		out.detail("Lock file updated:", store.Path())
	}

	out.line("")
	out.success("Installation complete!")
	return nil
}

// selectSkills decides which discovered skills get installed: all of them
// when confirmation is skipped, a picker on a terminal, otherwise one y/n
// question per skill read from in.
func selectSkills(in io.Reader, out *printer, skills []skill.Skill, autoConfirm bool) ([]skill.Skill, error) {
	if autoConfirm {
		return skills, nil
	}

	if isTerminal(in) {
		items := make([]picker.Item, len(skills))
		for i, s := range skills {
			items[i] = picker.Item{ID: s.Name, Label: s.Name, Detail: s.Description, Selected: true}
		}
		names, err := picker.Run("Select skills to install", items)
		if err != nil {
			return nil, errors.Wrap(err, "skill picker failed")
		}
		chosen := make(map[string]bool, len(names))
		for _, n := range names {
			chosen[n] = true
		}
		var selected []skill.Skill
		for _, s := range skills {
			if chosen[s.Name] {
				selected = append(selected, s)
			}
		}
		return selected, nil
	}

	var selected []skill.Skill
	for _, s := range skills {
		if out.confirm("Install skill '" + s.Name + "'?") {
			selected = append(selected, s)
			continue
		}
		out.line("Skipped.")
	}
	return selected, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func describeSource(src skill.Source) string {
	switch {
	case src.Kind.IsEmbedded():
		return "embedded skills"
	case src.URL == "":
		return src.Kind.String()
	case src.Subpath != "":
		return src.URL + " (" + src.Subpath + ")"
	}
	return src.URL
}

func scopeName(isGlobal bool) string {
	if isGlobal {
		return "global"
	}
	return "project"
}

func init() {
	f := installSkillCmd.Flags()
	f.StringVarP(&installOpts.Source, "source", "s", "self", "Where to discover skills")
	f.StringSliceVarP(&installOpts.Agent, "agent", "a", nil, "Target agent name(s), comma-separated or repeated")
	f.StringVar(&installOpts.Skill, "skill", "", "Specific skill name to install")
	f.BoolVarP(&installOpts.Yes, "yes", "y", false, "Skip confirmation prompts")
	f.BoolVar(&installOpts.NonInteractive, "non-interactive", false, "Run in non-interactive mode")
	f.BoolVar(&installOpts.Copy, "copy", false, "Copy into agent directories instead of linking")
	f.BoolVar(&installOpts.NoFallback, "no-fallback", false, "Fail when a symlink cannot be created instead of copying")
	setChoices(f, "source", skill.KindNames()...)

	_ = installSkillCmd.RegisterFlagCompletionFunc("agent", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return agent.Names(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = installSkillCmd.RegisterFlagCompletionFunc("source", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return skill.KindNames(), cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(installSkillCmd)
}
