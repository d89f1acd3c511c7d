package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/leodido/ctecompat"
	"github.com/leodido/ctecompat/internal/cache"
)

const testMatrix = `{"MAPPING":[
  {"OS":"RHEL 8","KERNEL":[{"NUM":"4.18.0-372","START":"7.2.0","END":"0"}]},
  {"OS":"CentOS 7","KERNEL":[{"NUM":"3.10.0-1160","START":"6.3.0","END":"7.0.0"}]}
]}`

const testStatus = "CTE Release Support Status\n7.2.0 0045 Active\n6.3.0 0010 End of Support\n"

// setupCheckEnv points the configuration at local documents.
func setupCheckEnv(t *testing.T, matrix string) {
	t.Helper()
	dir := t.TempDir()
	status := filepath.Join(dir, "status.txt")
	if err := os.WriteFile(status, []byte(testStatus), 0600); err != nil {
		t.Fatal(err)
	}
	if matrix != "" {
		path := filepath.Join(dir, "matrix.json")
		if err := os.WriteFile(path, []byte(matrix), 0600); err != nil {
			t.Fatal(err)
		}
		t.Setenv("CTECOMPAT_MATRIX_URL", path)
	} else {
		t.Setenv("CTECOMPAT_MATRIX_URL", filepath.Join(dir, "absent.json"))
	}
	t.Setenv("CTECOMPAT_STATUS_LOCATION", status)
	t.Setenv("CTECOMPAT_CACHE_PATH", filepath.Join(dir, "documents.db"))
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	root := rootCmd()
	root.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "config.yaml"), "--no-cache"))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestCheckSucceedsForEveryVerdict(t *testing.T) {
	setupCheckEnv(t, testMatrix)

	tests := []struct {
		name   string
		kernel string
	}{
		{"compatible", "4.18.0-372.41.1.el8_6.x86_64"},
		{"end of support", "3.10.0-1160.el7.x86_64"},
		{"unknown", "6.8.0-31-generic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := execute(t, "check", "--kernel", tt.kernel, "--json"); err != nil {
				t.Errorf("check --kernel %s error = %v, want nil", tt.kernel, err)
			}
		})
	}
}

func TestCheckFailsWithoutData(t *testing.T) {
	setupCheckEnv(t, "")

	err := execute(t, "check", "--kernel", "4.18.0-372")
	if !errors.Is(err, ctecompat.ErrDataUnavailable) {
		t.Fatalf("check error = %v, want ErrDataUnavailable", err)
	}
}

func TestCheckSourceHTMLNeedsURL(t *testing.T) {
	setupCheckEnv(t, testMatrix)

	if err := execute(t, "check", "--kernel", "4.18.0-372", "--source", "html"); err == nil {
		t.Fatal("check --source html without html_url expected error")
	}
}

func TestLogCachedDocuments(t *testing.T) {
	c := &cache.Cache{Config: &cache.Config{Path: filepath.Join(t.TempDir(), "documents.db")}}
	if err := c.Open(); err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if err := c.Put("https://example.com/matrix.json", []byte("{}")); err != nil {
		t.Fatal(err)
	}

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	logCachedDocuments(log, c)

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("got %d log entries, want 2", len(entries))
	}
	if got := entries[0].Data["documents"]; got != 1 {
		t.Errorf("documents = %v, want 1", got)
	}
	if got := entries[1].Data["url"]; got != "https://example.com/matrix.json" {
		t.Errorf("url = %v", got)
	}
}
