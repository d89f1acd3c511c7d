package main

import (
	"fmt"
	"os"
	"reflect"

	"github.com/MakeNowJust/heredoc"
	"github.com/leodido/structcli"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thediveo/enumflag/v2"

	"github.com/leodido/ctecompat"
	"github.com/leodido/ctecompat/internal/host"
	"github.com/leodido/ctecompat/internal/render"
)

// CheckOptions defines flags for the check subcommand.
type CheckOptions struct {
	Kernel kernelList `flag:"kernel" flagshort:"k" flagdescr:"Kernel release to check, repeatable (default: running kernel)" flagcustom:"true"`
	Source sourceKind `flag:"source" flagshort:"s" flagdescr:"Primary compatibility source (json, html)" flagcustom:"true"`
	JSON   bool       `flag:"json" flagshort:"j" flagdescr:"Output in JSON format"`
}

func (o *CheckOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func (o *CheckOptions) DefineKernel(name, short, descr string, structField reflect.StructField, fieldValue reflect.Value) (pflag.Value, string) {
	fieldPtr := fieldValue.Addr().Interface().(*kernelList)
	*fieldPtr = nil
	return fieldPtr, descr
}

func (o *CheckOptions) DecodeKernel(input any) (any, error) {
	s, ok := input.(string)
	if !ok {
		return input, nil
	}
	return parseKernelList(s), nil
}

func (o *CheckOptions) DefineSource(name, short, descr string, structField reflect.StructField, fieldValue reflect.Value) (pflag.Value, string) {
	fieldPtr := fieldValue.Addr().Interface().(*sourceKind)
	*fieldPtr = sourceJSON
	return enumflag.New(fieldPtr, "source", sourceIdentifiers, enumflag.EnumCaseInsensitive), descr
}

func (o *CheckOptions) DecodeSource(input any) (any, error) {
	s, ok := input.(string)
	if !ok {
		return input, nil
	}
	return parseSourceKind(s)
}

func checkCmd(global *GlobalOptions) *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Resolve kernel compatibility with the CTE agent",
		Long: heredoc.Doc(`
			Resolve kernels against the CTE compatibility matrix and the agent
			release support status.

			Exits with code 0 for every verdict (Compatible, EndOfSupport, Unknown)
			and with code 1 only when no compatibility source could be loaded.
		`),
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			kernels := []string(opts.Kernel)
			if len(kernels) == 0 {
				release, err := host.KernelRelease()
				if err != nil {
					return fmt.Errorf("detect running kernel (use --kernel): %w", err)
				}
				kernels = []string{release}
			}

			a, err := newApp(global)
			if err != nil {
				return err
			}
			defer a.Close()

			resolver, err := a.resolver(opts.Source)
			if err != nil {
				return err
			}

			results, err := resolver.ResolveMany(c.Context(), kernels...)
			if opts.JSON {
				out := make([]checkOutput, 0, len(results))
				for _, res := range results {
					out = append(out, newCheckOutput(res))
				}
				if jerr := printJSON(out); jerr != nil {
					return jerr
				}
			} else {
				for i, res := range results {
					if i > 0 {
						fmt.Println()
					}
					if render.IsTerminal(os.Stdout) {
						fmt.Print(render.Result(res))
					} else {
						fmt.Print(res)
					}
				}
			}
			// Verdicts never fail the command; only missing data does.
			return err
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

// checkOutput is the JSON shape of one resolution.
type checkOutput struct {
	*ctecompat.Result
	Table   ctecompat.Table   `json:"table"`
	Summary ctecompat.Summary `json:"summary"`
}

func newCheckOutput(res *ctecompat.Result) checkOutput {
	return checkOutput{
		Result:  res,
		Table:   ctecompat.Format(res),
		Summary: ctecompat.Summarize(res),
	}
}
