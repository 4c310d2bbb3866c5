package epd

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"strconv"
	"time"

	"github.com/k1LoW/errors"
	"github.com/k1LoW/exec"
	"github.com/k1LoW/inkcard/template"
)

const (
	envOp     = "INKCARD_OP"
	envWidth  = "INKCARD_WIDTH"
	envHeight = "INKCARD_HEIGHT"

	closeTimeout = 30 * time.Second
)

// Command is a Display that delegates every operation to an external command,
// typically a small script around the vendor driver. The command line is a
// template that may refer to {{op}}, {{width}}, {{height}} and {{env.XXX}}.
// For the display operation the packed frame is written to its stdin.
type Command struct {
	command string
	panel   Panel
}

func NewCommand(command string, panel Panel) *Command {
	return &Command{command: command, panel: panel}
}

func (c *Command) Init(ctx context.Context) error {
	return c.run(ctx, "init", nil)
}

func (c *Command) Clear(ctx context.Context) error {
	return c.run(ctx, "clear", nil)
}

func (c *Command) Display(ctx context.Context, f *Frame) error {
	if err := checkFrame(c, f); err != nil {
		return err
	}
	return c.run(ctx, "display", f.Data)
}

func (c *Command) Sleep(ctx context.Context) error {
	return c.run(ctx, "sleep", nil)
}

// Close runs the exit operation even when the caller's context is already done.
func (c *Command) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	return c.run(ctx, "exit", nil)
}

func (c *Command) Bounds() image.Rectangle {
	return c.panel.Bounds()
}

func (c *Command) run(ctx context.Context, op string, stdin []byte) (err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if c.command == "" {
		return fmt.Errorf("display command is not configured")
	}
	store := map[string]any{
		"op":     op,
		"width":  c.panel.Width,
		"height": c.panel.Height,
		"env":    template.EnvironToMap(),
	}
	expanded, err := template.Expand(c.command, store)
	if err != nil {
		return fmt.Errorf("failed to expand display command template: %w", err)
	}
	name, args, err := buildCommand(expanded)
	if err != nil {
		return fmt.Errorf("failed to build display command: %w", err)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	cmd.Env = append(os.Environ(),
		envOp+"="+op,
		envWidth+"="+strconv.Itoa(c.panel.Width),
		envHeight+"="+strconv.Itoa(c.panel.Height),
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run display command (%s): %w\nstderr: %s", op, err, stderr.String())
	}
	return nil
}

// buildCommand wraps cmdStr in the user's shell.
func buildCommand(cmdStr string) (string, []string, error) {
	shell, err := detectShell()
	if err != nil {
		return "", nil, err
	}
	return shell, []string{"-c", cmdStr}, nil
}

func detectShell() (string, error) {
	shells := []string{
		os.Getenv("SHELL"),
		"/bin/bash",
		"/bin/sh",
	}
	for _, shell := range shells {
		if shell == "" {
			continue
		}
		if _, err := os.Stat(shell); err == nil {
			return shell, nil
		}
	}
	return "", fmt.Errorf("failed to detect shell")
}
