package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Actions are the operations an operator can trigger from the terminal.
type Actions struct {
	Check func(ctx context.Context) error
	Test  func(ctx context.Context) error
}

// Prompt reads operator commands line by line: "m" runs a manual check,
// "t" sends a test notification. Other input is ignored.
type Prompt struct {
	in      io.Reader
	out     io.Writer
	actions Actions
	logger  *slog.Logger
}

// NewPrompt builds a prompt over in, writing hints to out.
func NewPrompt(in io.Reader, out io.Writer, actions Actions, log *slog.Logger) *Prompt {
	if out == nil {
		out = io.Discard
	}
	if log == nil {
		log = slog.Default()
	}
	return &Prompt{in: in, out: out, actions: actions, logger: log}
}

// Run serves commands until in is exhausted or ctx is cancelled.
func (p *Prompt) Run(ctx context.Context) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(p.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	fmt.Fprintln(p.out, "Manual check: 'm' + Enter, test notification: 't' + Enter, stop: Ctrl+C")

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("read operator input: %w", err)
					}
				default:
				}
				return nil
			}
			p.handle(ctx, line)
		}
	}
}

func (p *Prompt) handle(ctx context.Context, line string) {
	var (
		name   string
		action func(context.Context) error
	)
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "m":
		name, action = "manual check", p.actions.Check
	case "t":
		name, action = "test notification", p.actions.Test
	default:
		return
	}
	if action == nil {
		return
	}

	p.logger.Info("operator command", "action", name)
	if err := action(ctx); err != nil {
		fmt.Fprintf(p.out, "%s failed: %v\n", name, err)
		return
	}
	fmt.Fprintf(p.out, "%s done\n", name)
}
