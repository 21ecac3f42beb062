// Package plugins runs external actilog-<command> binaries for subcommands
// actilog does not define itself, the way kubectl and git do.
package plugins

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Prefix is prepended to a subcommand name to form the plugin binary name.
const Prefix = "actilog-"

// ErrNotFound is returned when no plugin binary can be located.
var ErrNotFound = errors.New("plugin not found")

// Dirs returns the directories searched before PATH: the directory of the
// running binary, then ~/.actilog/plugins.
func Dirs() []string {
	var dirs []string
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".actilog", "plugins"))
	}
	return dirs
}

// Find returns the path of the plugin for command.
func Find(command string) (string, error) {
	if command == "" || strings.ContainsAny(command, `/\`) {
		return "", ErrNotFound
	}
	name := Prefix + command

	for _, dir := range Dirs() {
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}
	return "", ErrNotFound
}

// Run executes a plugin and returns its exit code. The environment, including
// any ACTILOG_* overrides, is inherited.
func Run(ctx context.Context, path string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		_, _ = fmt.Fprintf(stderr, "Error: running plugin %s: %v\n", filepath.Base(path), err)
		return 2
	}
	return 0
}

// NotFoundMessage explains where a plugin for command would have to live.
func NotFoundMessage(command string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "unknown command %q for \"actilog\"\n", command)
	sb.WriteString("\nIf this is a plugin, install the binary as one of:\n")
	fmt.Fprintf(&sb, "  - %s%s in the same directory as actilog\n", Prefix, command)
	fmt.Fprintf(&sb, "  - ~/.actilog/plugins/%s%s\n", Prefix, command)
	fmt.Fprintf(&sb, "  - %s%s anywhere in your PATH\n", Prefix, command)
	sb.WriteString("\nRun 'actilog --help' for usage.")
	return sb.String()
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode()&0o111 != 0
}
