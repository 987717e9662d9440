package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// The engine is an opaque subprocess. These variables are the whole wire
// contract; tests swap them to observe and fake invocations.
var (
	runCommand        = runCommandImpl
	runCommandCapture = runCommandCaptureImpl
	commandOutput     = commandOutputImpl
	runInteractive    = runInteractiveImpl
)

func ensureCommand(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return &MissingRuntimeError{Name: name}
	}
	return nil
}

func runCommandImpl(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// runCommandCaptureImpl streams output to the terminal while keeping a copy
// of stderr so callers can classify failures.
func runCommandCaptureImpl(ctx context.Context, name string, args ...string) (string, error) {
	var buf bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = io.MultiWriter(os.Stderr, &buf)
	err := cmd.Run()
	return buf.String(), err
}

func commandOutputImpl(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return "", fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
		}
		return "", fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return string(out), nil
}

// runInteractiveImpl attaches the caller's terminal and blocks until the
// session ends. No context: an interactive session belongs to the user, not
// to our cancellation.
func runInteractiveImpl(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
