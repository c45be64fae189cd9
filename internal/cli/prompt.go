package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lotoarchive/zabava-archive/internal/datespec"
)

const promptText = "📅 До какой даты хотите извлечь данные? (формат: 2 августа 2025): "

// ErrNoInput is returned when input ends before a valid date was entered.
var ErrNoInput = errors.New("no date entered")

// inputLine is one read from the prompt input. ok is false at end of input.
type inputLine struct {
	text string
	ok   bool
	err  error
}

// readLines scans in on its own goroutine so a blocked read cannot hold up
// cancellation. The goroutine stops after end of input or when done closes.
func readLines(in io.Reader, done <-chan struct{}) <-chan inputLine {
	lines := make(chan inputLine)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for {
			l := inputLine{ok: scanner.Scan()}
			if l.ok {
				l.text = scanner.Text()
			} else {
				l.err = scanner.Err()
			}
			select {
			case lines <- l:
			case <-done:
				return
			}
			if !l.ok {
				return
			}
		}
	}()
	return lines
}

// PromptDate asks for the cut-off date until the validator accepts an answer.
// Rejections are reported on out and the question is asked again.
// Cancelling ctx returns ctx.Err() even while waiting for input.
func PromptDate(ctx context.Context, in io.Reader, out io.Writer, v *datespec.Validator) (datespec.DateSpec, error) {
	if err := ctx.Err(); err != nil {
		return datespec.DateSpec{}, err
	}

	done := make(chan struct{})
	defer close(done)
	lines := readLines(in, done)

	for {
		fmt.Fprint(out, promptText)

		var l inputLine
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return datespec.DateSpec{}, ctx.Err()
		case l = <-lines:
		}

		if !l.ok {
			if l.err != nil {
				return datespec.DateSpec{}, fmt.Errorf("reading input: %w", l.err)
			}
			fmt.Fprintln(out)
			return datespec.DateSpec{}, ErrNoInput
		}

		spec, err := v.Validate(strings.TrimRight(l.text, "\r"))
		if err != nil {
			fmt.Fprintf(out, "❌ %s\n", datespec.Message(err))
			continue
		}
		return spec, nil
	}
}
