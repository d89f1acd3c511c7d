package host

import (
	"context"
	"regexp"
	"slices"
)

// Runner runs a command and returns its trimmed standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// Database engines reported by [DetectDatabases].
const (
	EngineMySQL      = "MYSQL"
	EnginePostgreSQL = "POSTGRESQL"
)

var (
	mysqlBinaries    = []string{"mysqld", "mariadbd"}
	postgresBinaries = []string{"postgres"}
	versionRe        = regexp.MustCompile(`\d+\.\d+(?:\.\d+)?`)
)

// DetectDatabases finds running MySQL/MariaDB and PostgreSQL servers from
// the process table and listening sockets. Command failures degrade to
// empty output rather than errors.
func DetectDatabases(ctx context.Context, run Runner) []Database {
	procs := parseProcesses(safeRun(ctx, run, "ps", "-eo", "pid,comm"))
	listeners := parseListeners(safeRun(ctx, run, "ss", "-ltnp"))

	var dbs []Database
	dbs = append(dbs, detectMySQL(ctx, run, procs, listeners)...)
	dbs = append(dbs, detectPostgres(ctx, run, procs, listeners)...)
	return dbs
}

// detectMySQL reports one entry per server process.
func detectMySQL(ctx context.Context, run Runner, procs []Process, listeners []Listener) []Database {
	var dbs []Database
	for _, p := range procs {
		if !slices.Contains(mysqlBinaries, p.Comm) {
			continue
		}
		dbs = append(dbs, Database{
			Engine:  EngineMySQL,
			Version: extractVersion(safeRun(ctx, run, p.Comm, "--version")),
			Ports:   portsOf(listeners, p.PID),
			Service: p.Comm,
		})
	}
	return dbs
}

// detectPostgres reports a single entry for the postmaster: the first
// postgres process that listens, or any postgres process otherwise.
func detectPostgres(ctx context.Context, run Runner, procs []Process, listeners []Listener) []Database {
	var pids []string
	for _, p := range procs {
		if slices.Contains(postgresBinaries, p.Comm) {
			pids = append(pids, p.PID)
		}
	}
	if len(pids) == 0 {
		return nil
	}

	owner := pids[0]
	for _, l := range listeners {
		if slices.Contains(pids, l.PID) {
			owner = l.PID
			break
		}
	}
	return []Database{{
		Engine:  EnginePostgreSQL,
		Version: extractVersion(safeRun(ctx, run, "psql", "--version")),
		Ports:   portsOf(listeners, owner),
		Service: "postgres",
	}}
}

func portsOf(listeners []Listener, pid string) []string {
	var ports []string
	for _, l := range listeners {
		if l.PID == pid && !slices.Contains(ports, l.Port) {
			ports = append(ports, l.Port)
		}
	}
	if len(ports) == 0 {
		return []string{"Unknown"}
	}
	return ports
}

func extractVersion(out string) string {
	if v := versionRe.FindString(out); v != "" {
		return v
	}
	return "Unknown"
}

func safeRun(ctx context.Context, run Runner, name string, args ...string) string {
	if run == nil {
		return ""
	}
	out, err := run.Run(ctx, name, args...)
	if err != nil {
		return ""
	}
	return out
}
