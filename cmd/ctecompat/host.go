package main

import (
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/leodido/structcli"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leodido/ctecompat/internal/host"
	"github.com/leodido/ctecompat/internal/render"
)

// HostOptions defines flags for the host subcommand.
type HostOptions struct {
	CMHost  string           `flag:"cm-host" flagdescr:"CipherTrust Manager host to test TCP 443 against (default: config cm_host)"`
	Require hostRequirements `flag:"require" flagshort:"r" flagdescr:"Prerequisites that must hold (root, cap-sys-admin, cm-port-443, ldt)" flagcustom:"true"`
	NoDB    bool             `flag:"no-databases" flagdescr:"Skip database engine detection"`
	JSON    bool             `flag:"json" flagshort:"j" flagdescr:"Output in JSON format"`
}

func (o *HostOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func (o *HostOptions) DefineRequire(name, short, descr string, structField reflect.StructField, fieldValue reflect.Value) (pflag.Value, string) {
	fieldPtr := fieldValue.Addr().Interface().(*hostRequirements)
	*fieldPtr = nil
	return fieldPtr, descr
}

func (o *HostOptions) DecodeRequire(input any) (any, error) {
	s, ok := input.(string)
	if !ok {
		return input, nil
	}
	return parseHostRequirements(s)
}

func (o *HostOptions) CompleteRequire(c *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completeRequirements(toComplete)
}

func hostCmd(global *GlobalOptions) *cobra.Command {
	opts := &HostOptions{}

	cmd := &cobra.Command{
		Use:   "host",
		Short: "Collect host facts relevant to an agent installation",
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			a, err := newApp(global)
			if err != nil {
				return err
			}
			defer a.Close()

			cm := opts.CMHost
			if cm == "" {
				cm = a.cfg.ManagementServer
			}
			var run host.Runner = a.runner
			if opts.NoDB {
				run = nil
			}
			info, err := host.Probe(c.Context(),
				host.WithAll(cm, run),
				host.WithPortTimeout(a.cfg.PortTimeout),
				host.WithEncryptionDir(firstExistingDir(a.cfg.EncryptPaths)),
			)
			if err != nil {
				return err
			}

			checkErr := host.Check(info, opts.Require...)
			if opts.JSON {
				out := map[string]any{"host": info, "ok": checkErr == nil}
				var re *host.RequirementError
				if errors.As(checkErr, &re) {
					out["requirement"] = re.Requirement
					out["reason"] = re.Reason
				}
				if err := printJSON(out); err != nil {
					return err
				}
			} else {
				fmt.Println(render.Host(info))
			}

			if checkErr != nil {
				var re *host.RequirementError
				if errors.As(checkErr, &re) {
					if !opts.JSON {
						fmt.Fprintf(os.Stderr, "FAIL: %s: %s\n", re.Requirement, re.Reason)
					}
					os.Exit(1)
				}
				return checkErr
			}
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

func firstExistingDir(paths []string) string {
	for _, p := range paths {
		if fi, err := os.Stat(p); err == nil && fi.IsDir() {
			return p
		}
	}
	return ""
}
