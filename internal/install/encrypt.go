package install

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// PathState is the outcome of preparing one encryption candidate.
type PathState string

const (
	PathMissing PathState = "missing"
	PathReady   PathState = "ready"
	PathGuarded PathState = "guarded"
	PathFailed  PathState = "failed"
	PathNotADir PathState = "not-a-directory"
)

// PathResult reports what happened to a candidate path.
type PathResult struct {
	Path   string    `json:"path"`
	State  PathState `json:"state"`
	Output string    `json:"output,omitempty"`
	Error  string    `json:"error,omitempty"`
}

// Encrypter walks candidate directories and applies a guard command to the
// ones that exist.
type Encrypter struct {
	Paths []string
	// GuardCommand is run for each existing directory with the path
	// appended as last argument. Empty only reports readiness.
	GuardCommand string
	Runner       Runner
	Log          logrus.FieldLogger
}

// Encrypt processes every candidate path; a failure on one path does not
// stop the others.
func (e *Encrypter) Encrypt(ctx context.Context) []PathResult {
	log := e.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	guard := strings.Fields(e.GuardCommand)
	results := make([]PathResult, 0, len(e.Paths))
	for _, p := range e.Paths {
		res := PathResult{Path: p}
		fi, err := os.Stat(p)
		switch {
		case err != nil:
			log.WithField("path", p).Debug("path not found, skipping")
			res.State = PathMissing
		case !fi.IsDir():
			res.State = PathNotADir
		case len(guard) == 0 || e.Runner == nil:
			log.WithField("path", p).Info("path ready for encryption")
			res.State = PathReady
		default:
			args := append(append([]string{}, guard[1:]...), p)
			out, err := e.Runner.Run(ctx, guard[0], args...)
			res.Output = out
			if err != nil {
				log.WithError(err).WithField("path", p).Error("guard command failed")
				res.State = PathFailed
				res.Error = err.Error()
			} else {
				log.WithField("path", p).Info("path guarded")
				res.State = PathGuarded
			}
		}
		results = append(results, res)
	}
	return results
}
