// Package prompt implements line-oriented terminal prompts for the add
// workflow.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"dmhy/internal/model"
)

// Terminal asks questions on out and reads answers from in, one line each.
type Terminal struct {
	in       *bufio.Reader
	out      io.Writer
	colorize bool

	// pending holds a read abandoned by a cancelled prompt.
	pending chan lineResult
}

// New creates a Terminal. Output is colored when out is a terminal.
func New(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:       bufio.NewReader(in),
		out:      out,
		colorize: isTerminal(out),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Text asks for a free-text answer. An empty answer returns initial.
func (t *Terminal) Text(ctx context.Context, message, initial string) (string, error) {
	if initial != "" {
		fmt.Fprintf(t.out, "%s [%s]: ", message, initial)
	} else {
		fmt.Fprintf(t.out, "%s: ", message)
	}

	answer, err := t.readLine(ctx)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return initial, nil
	}
	return answer, nil
}

// List asks for a list of values on one line, split on separator. Tokens are
// returned as typed; cleaning them up is left to the parser.
func (t *Terminal) List(ctx context.Context, message, separator string) ([]string, error) {
	fmt.Fprintf(t.out, "%s: ", message)

	answer, err := t.readLine(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(answer) == "" {
		return nil, nil
	}
	return strings.Split(answer, separator), nil
}

// Confirm asks a yes/no question until it gets y, n or an empty answer,
// which selects def.
func (t *Terminal) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	choices := "y/N"
	if def {
		choices = "Y/n"
	}

	for {
		fmt.Fprintf(t.out, "%s [%s] ", message, choices)

		answer, err := t.readLine(ctx)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(t.out, "Please answer y or n.")
	}
}

// Success reports a stored subscription.
func (t *Terminal) Success(sub model.Subscription) {
	line := fmt.Sprintf("Subscribed to %q (%s)", sub.Title, sub.ID)
	if t.colorize {
		line = text.FgGreen.Sprint(line)
	}
	fmt.Fprintln(t.out, line)
}

// Error reports a recoverable problem.
func (t *Terminal) Error(err error) {
	line := "Error: " + err.Error()
	if t.colorize {
		line = text.FgRed.Sprint(line)
	}
	fmt.Fprintln(t.out, line)
}

type lineResult struct {
	line string
	err  error
}

// readLine returns the next line without its line ending. A final line
// without a newline is returned as is; io.EOF is returned only when nothing
// was read. A read interrupted by ctx stays pending and its line goes to the
// next prompt; the reading goroutine lives until input arrives or in closes.
func (t *Terminal) readLine(ctx context.Context) (string, error) {
	if t.pending == nil {
		done := make(chan lineResult, 1)
		go func() {
			line, err := t.in.ReadString('\n')
			done <- lineResult{line: line, err: err}
		}()
		t.pending = done
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-t.pending:
		t.pending = nil
		if r.err != nil {
			if !errors.Is(r.err, io.EOF) {
				return "", fmt.Errorf("read answer: %w", r.err)
			}
			if r.line == "" {
				return "", io.EOF
			}
		}
		return strings.TrimRight(r.line, "\r\n"), nil
	}
}
