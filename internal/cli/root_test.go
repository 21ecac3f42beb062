package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func newTestRoot() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	return root, &out, &errOut
}

func TestRun_ExitCodes(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PATH", t.TempDir())
	t.Setenv("ACTILOG_LOG_DIR", "")
	t.Setenv("ACTILOG_ARCHIVE", "")

	tests := []struct {
		name      string
		args      []string
		wantCode  int
		wantOut   string
		wantError string
	}{
		{"version", []string{"version"}, 0, "actilog dev", ""},
		{"help", []string{"--help"}, 0, "Exit codes:", ""},
		{"bad date", []string{"summary", "--log-dir", t.TempDir(), "2024-13-01"}, 2, "", "Error:"},
		{"missing config", []string{"--config", "/nonexistent.yaml", "summary"}, 2, "", "reading config file"},
		{"unknown flag", []string{"summary", "--bogus"}, 2, "", "unknown flag"},
		{"unknown command", []string{"frobnicate"}, 2, "", "actilog-frobnicate anywhere in your PATH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, out, errOut := newTestRoot()
			code := run(root, tt.args)

			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, errOut.String())
			}
			if tt.wantOut != "" && !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("stdout missing %q:\n%s", tt.wantOut, out.String())
			}
			if tt.wantError != "" && !strings.Contains(errOut.String(), tt.wantError) {
				t.Errorf("stderr missing %q:\n%s", tt.wantError, errOut.String())
			}
		})
	}
}

func TestRun_Plugin(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".actilog", "plugins")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	script := "#!/bin/sh\necho \"plugin $*\"\nexit 1\n"
	if err := os.WriteFile(filepath.Join(dir, "actilog-export"), []byte(script), 0755); err != nil {
		t.Fatal(err)
	}

	root, out, _ := newTestRoot()
	code := run(root, []string{"export", "--since", "2024-01-01"})

	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if got := strings.TrimSpace(out.String()); got != "plugin --since 2024-01-01" {
		t.Errorf("plugin output = %q", got)
	}
}

func TestRun_BuiltinShadowsPlugin(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".actilog", "plugins")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "actilog-version"), []byte("#!/bin/sh\nexit 7\n"), 0755); err != nil {
		t.Fatal(err)
	}

	root, out, _ := newTestRoot()
	if code := run(root, []string{"version"}); code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if !strings.Contains(out.String(), "actilog") {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestNewRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()

	want := []string{"summary", "report", "timeline", "smoke", "serve", "generate", "history", "diagnose", "validate", "version"}
	for _, name := range want {
		if !isBuiltinCommand(root, name) {
			t.Errorf("missing subcommand %q", name)
		}
	}
	for _, flag := range []string{"config", "log-dir", "verbose"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag %q", flag)
		}
	}
}
