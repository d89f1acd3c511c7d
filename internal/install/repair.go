package install

import (
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ModuleLister returns the loaded kernel module names.
type ModuleLister func() ([]string, error)

// Repair outcome actions.
const (
	ActionNone     = "none"
	ActionReloaded = "reloaded"
	ActionManual   = "manual"
)

// RepairReport describes the agent kernel module state.
type RepairReport struct {
	Loaded []string `json:"loaded"`
	Action string   `json:"action"`
	Output string   `json:"output,omitempty"`
}

// Repairer checks that the agent kernel module is loaded and reloads it
// when it is not.
type Repairer struct {
	ModuleNames []string
	Modules     ModuleLister
	// ReloadCommand is run when no agent module is loaded. Empty leaves
	// the repair to the operator.
	ReloadCommand string
	Runner        Runner
	Log           logrus.FieldLogger
}

// Repair inspects the loaded modules and runs the reload command if needed.
func (r *Repairer) Repair(ctx context.Context) (*RepairReport, error) {
	log := r.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	mods, err := r.Modules()
	if err != nil {
		return nil, errors.Wrap(err, "list kernel modules")
	}
	report := &RepairReport{Loaded: agentModules(mods, r.ModuleNames)}
	if len(report.Loaded) > 0 {
		log.WithField("modules", strings.Join(report.Loaded, ",")).Info("agent module present")
		report.Action = ActionNone
		return report, nil
	}

	log.Warn("no agent kernel module loaded")
	cmd := strings.Fields(r.ReloadCommand)
	if len(cmd) == 0 || r.Runner == nil {
		report.Action = ActionManual
		return report, nil
	}
	out, err := r.Runner.Run(ctx, cmd[0], cmd[1:]...)
	report.Output = out
	if err != nil {
		return report, errors.Wrap(err, "reload agent module")
	}
	report.Action = ActionReloaded
	return report, nil
}

// agentModules returns the loaded modules whose name matches one of names.
func agentModules(loaded, names []string) []string {
	found := []string{}
	for _, m := range loaded {
		for _, n := range names {
			if m == n {
				found = append(found, m)
				break
			}
		}
	}
	return found
}
