package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/leodido/ctecompat/internal/host"
)

// Build metadata injected via ldflags.
// When built without ldflags these remain at their zero values and the
// version command omits them.
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	// Host facts are probed at most once per command tree.
	host.ResetCache()
	global := &GlobalOptions{}

	root := &cobra.Command{
		Use:   "ctecompat",
		Short: "CTE agent compatibility checks and provisioning",
		Long: heredoc.Doc(`
			ctecompat resolves the running kernel against the CipherTrust Transparent
			Encryption (CTE) compatibility matrix and the agent release support status.

			When the host is compatible it can locate, download and install the matching
			agent installer, prepare directories for encryption and repair a missing
			agent kernel module.
		`),
		Example: heredoc.Doc(`
			$ ctecompat check
			$ ctecompat check --kernel 4.18.0-372.41.1.el8_6.x86_64 --json
			$ ctecompat check --source html --offline
			$ ctecompat host --cm-host cm.example.com --require root,cm-port-443
			$ sudo ctecompat install
		`),
		SilenceUsage: true,
	}
	global.Attach(root)

	root.AddCommand(checkCmd(global))
	root.AddCommand(hostCmd(global))
	root.AddCommand(locateCmd(global))
	root.AddCommand(installCmd(global))
	root.AddCommand(encryptCmd(global))
	root.AddCommand(resolveCmd(global))
	root.AddCommand(versionCmd())
	return root
}

// GlobalOptions are shared by every subcommand.
type GlobalOptions struct {
	Config  string
	Verbose bool
	Offline bool
	NoCache bool
}

func (o *GlobalOptions) Attach(c *cobra.Command) {
	flags := c.PersistentFlags()
	flags.StringVar(&o.Config, "config", "", "Config file (default $XDG_CONFIG_HOME/ctecompat/config.yaml)")
	flags.BoolVarP(&o.Verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&o.Offline, "offline", false, "Serve remote documents from the local cache only")
	flags.BoolVar(&o.NoCache, "no-cache", false, "Do not read or write the local document cache")
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show tool version",
		RunE: func(c *cobra.Command, args []string) error {
			if version == "" {
				fmt.Println("ctecompat (dev)")
				return nil
			}
			fmt.Printf("ctecompat %s", version)
			if commit != "" {
				fmt.Printf(" (%s)", commit)
			}
			if date != "" {
				fmt.Printf(" built %s", date)
			}
			fmt.Println()
			return nil
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
