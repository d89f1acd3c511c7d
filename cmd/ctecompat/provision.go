package main

import (
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc"
	"github.com/leodido/structcli"
	"github.com/spf13/cobra"

	"github.com/leodido/ctecompat"
	"github.com/leodido/ctecompat/internal/host"
	"github.com/leodido/ctecompat/internal/install"
)

// LocateOptions defines flags for the locate subcommand.
type LocateOptions struct {
	OS       string `flag:"os" flagdescr:"OS descriptor (default: this host's os-release PRETTY_NAME)"`
	Version  string `flag:"agent-version" flagshort:"a" flagdescr:"Agent version; without it the repository listing is consulted"`
	Discover bool   `flag:"discover" flagdescr:"Read the repository listing even when --agent-version is set"`
	JSON     bool   `flag:"json" flagshort:"j" flagdescr:"Output in JSON format"`
}

func (o *LocateOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func locateCmd(global *GlobalOptions) *cobra.Command {
	opts := &LocateOptions{}

	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Compute the agent installer download target",
		Example: heredoc.Doc(`
			$ ctecompat locate --os "Red Hat Enterprise Linux 9.2" --agent-version 7.6.0
			$ ctecompat locate --os "Ubuntu 24.04 LTS"
		`),
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			a, err := newApp(global)
			if err != nil {
				return err
			}
			defer a.Close()

			osDescriptor, err := hostPlatform(c, opts.OS)
			if err != nil {
				return err
			}
			base, err := a.repoBase(c.Context())
			if err != nil {
				return err
			}

			version := opts.Version
			if opts.Discover {
				version = ""
			}
			inst := &install.Installer{Locator: ctecompat.NewLocator(base, a.fetcher, a.log)}
			target, err := inst.Target(c.Context(), osDescriptor, version)
			if err != nil {
				return err
			}

			if opts.JSON {
				return printJSON(target)
			}
			fmt.Printf("Platform: %s\nBinary:   %s\nURL:      %s\n", target.PlatformCode, target.BinaryFilename, target.DownloadURL)
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

// InstallOptions defines flags for the install subcommand.
type InstallOptions struct {
	Version    string `flag:"agent-version" flagshort:"a" flagdescr:"Agent version (default: recommended by the compatibility check)"`
	Force      bool   `flag:"force" flagdescr:"Install even when the kernel is not reported compatible"`
	DryRun     bool   `flag:"dry-run" flagdescr:"Resolve the download target without downloading"`
	NoProgress bool   `flag:"no-progress" flagdescr:"Do not show the download progress bar"`
	JSON       bool   `flag:"json" flagshort:"j" flagdescr:"Output in JSON format"`
}

func (o *InstallOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func installCmd(global *GlobalOptions) *cobra.Command {
	opts := &InstallOptions{}

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Check compatibility, then download and run the agent installer",
		Long: heredoc.Doc(`
			Resolve the running kernel, locate the installer for this platform in the
			active repository, download it and run it with --install --quiet.

			The installation is refused unless the verdict is Compatible; use --force
			to override.
		`),
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			a, err := newApp(global)
			if err != nil {
				return err
			}
			defer a.Close()

			info, err := host.Probe(ctx)
			if err != nil {
				return err
			}
			release := info.KernelRelease
			resolver, err := a.resolver(sourceJSON)
			if err != nil {
				return err
			}
			res, err := resolver.Resolve(ctx, release)
			if err != nil && !opts.Force {
				return fmt.Errorf("cannot verify compatibility, re-run with --force to install anyway: %w", err)
			}
			if !res.Compatible() && !opts.Force {
				return fmt.Errorf("kernel %s is not reported compatible (%s: %s)", release, res.Verdict, res.Reason)
			}

			version := opts.Version
			if version == "" && res != nil {
				version = res.Recommended
			}

			base, err := a.repoBase(ctx)
			if err != nil {
				return err
			}

			inst := &install.Installer{
				Locator:     ctecompat.NewLocator(base, a.fetcher, a.log),
				Opener:      a.fetcher,
				Runner:      a.runner,
				DownloadDir: a.cfg.DownloadDir,
				NoProgress:  opts.NoProgress || opts.JSON,
				DryRun:      opts.DryRun,
				Log:         a.log,
			}
			out, err := inst.Install(ctx, info.Platform(), version)
			if err != nil {
				return err
			}
			if opts.JSON {
				return printJSON(out)
			}
			if opts.DryRun {
				fmt.Printf("Would download %s\n", out.Target.DownloadURL)
				return nil
			}
			fmt.Printf("Installed %s\n", out.Target.BinaryFilename)
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

// EncryptOptions defines flags for the encrypt subcommand.
type EncryptOptions struct {
	JSON bool `flag:"json" flagshort:"j" flagdescr:"Output in JSON format"`
}

func (o *EncryptOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func encryptCmd(global *GlobalOptions) *cobra.Command {
	opts := &EncryptOptions{}

	cmd := &cobra.Command{
		Use:   "encrypt [path...]",
		Short: "Prepare candidate directories for encryption",
		Long: heredoc.Doc(`
			Walk the candidate directories (arguments, or config encrypt_paths) and run
			the configured guard_command for each one that exists. Without a guard
			command the directories are only reported.
		`),
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			a, err := newApp(global)
			if err != nil {
				return err
			}
			defer a.Close()

			paths := args
			if len(paths) == 0 {
				paths = a.cfg.EncryptPaths
			}
			e := &install.Encrypter{
				Paths:        paths,
				GuardCommand: a.cfg.GuardCommand,
				Runner:       a.runner,
				Log:          a.log,
			}
			results := e.Encrypt(c.Context())
			if opts.JSON {
				return printJSON(results)
			}
			for _, r := range results {
				fmt.Printf("%-16s %s\n", r.State, r.Path)
			}
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

// ResolveOptions defines flags for the resolve subcommand.
type ResolveOptions struct {
	JSON bool `flag:"json" flagshort:"j" flagdescr:"Output in JSON format"`
}

func (o *ResolveOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func resolveCmd(global *GlobalOptions) *cobra.Command {
	opts := &ResolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Check the agent kernel module and reload it when missing",
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			a, err := newApp(global)
			if err != nil {
				return err
			}
			defer a.Close()

			r := &install.Repairer{
				ModuleNames:   a.cfg.ModuleNames,
				Modules:       func() ([]string, error) { return host.LoadedModules("") },
				ReloadCommand: a.cfg.ReloadCommand,
				Runner:        a.runner,
				Log:           a.log,
			}
			report, err := r.Repair(c.Context())
			if err != nil {
				return err
			}
			if opts.JSON {
				return printJSON(report)
			}
			switch report.Action {
			case install.ActionNone:
				fmt.Println("Agent module loaded")
			case install.ActionReloaded:
				fmt.Println("Agent module reloaded")
			default:
				fmt.Fprintln(os.Stderr, "Agent module not loaded; set reload_command or reinstall the agent")
			}
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

// hostPlatform returns override, or the OS descriptor of this host.
func hostPlatform(c *cobra.Command, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	info, err := host.Probe(c.Context())
	if err != nil {
		return "", fmt.Errorf("detect host OS (use --os): %w", err)
	}
	return info.Platform(), nil
}
