package printer

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrPrintTimeout is returned when the print command does not finish in time.
var ErrPrintTimeout = errors.New("printer: submission timed out")

// runFunc executes a command and returns its combined output.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// CommandPrinter submits documents through a CUPS-style command such as lp or lpr.
type CommandPrinter struct {
	command []string
	printer string
	timeout time.Duration
	run     runFunc
}

// NewCommandPrinter builds a printer for command (may carry extra flags, e.g. "lp -o fit-to-page").
// printer selects a destination queue; empty means the system default.
func NewCommandPrinter(command, printer string, timeout time.Duration) *CommandPrinter {
	return &CommandPrinter{
		command: strings.Fields(command),
		printer: printer,
		timeout: timeout,
		run:     runCommand,
	}
}

// Submit sends the file at path to the printer and waits for the command to exit.
func (p *CommandPrinter) Submit(ctx context.Context, path string) error {
	if len(p.command) == 0 {
		return errors.New("printer: no print command configured")
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	name := p.command[0]
	args := append([]string{}, p.command[1:]...)
	if p.printer != "" {
		args = append(args, destinationFlag(name), p.printer)
	}
	args = append(args, path)

	out, err := p.run(ctx, name, args...)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s %s after %s", ErrPrintTimeout, name, path, p.timeout)
		}
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("printer: %s %s: %w: %s", name, path, err, msg)
		}
		return fmt.Errorf("printer: %s %s: %w", name, path, err)
	}
	return nil
}

// destinationFlag returns the queue selection flag: lpr uses -P, lp and everything else -d.
func destinationFlag(command string) string {
	if filepath.Base(command) == "lpr" {
		return "-P"
	}
	return "-d"
}
