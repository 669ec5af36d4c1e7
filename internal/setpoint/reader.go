package setpoint

import (
	"bufio"
	"context"
	"fmt"
	"github.com/markusressel/daq2go/internal/ui"
	"io"
	"math"
	"strconv"
	"strings"
)

// Reader parses operator input line by line and stores every valid number in a Cell
type Reader struct {
	in     io.Reader
	out    io.Writer
	prompt string
	cell   *Cell
}

func NewReader(in io.Reader, out io.Writer, prompt string, cell *Cell) *Reader {
	return &Reader{
		in:     in,
		out:    out,
		prompt: prompt,
		cell:   cell,
	}
}

// Run reads until the input ends or ctx is cancelled. The blocking read happens
// in a separate goroutine, which is abandoned on cancellation.
func (r *Reader) Run(ctx context.Context) error {
	lines := make(chan string)
	done := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(r.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		done <- scanner.Err()
	}()

	r.printPrompt()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-done:
			return err
		case line := <-lines:
			r.handle(line)
			r.printPrompt()
		}
	}
}

func (r *Reader) handle(line string) {
	text := strings.TrimSpace(line)
	if len(text) <= 0 {
		return
	}
	value, err := ParseValue(text)
	if err != nil {
		ui.Warning("Ignoring setpoint input: %v", err)
		return
	}
	r.cell.Set(value)
	ui.Info("Setpoint changed to %s", text)
}

func (r *Reader) printPrompt() {
	if r.out == nil || len(r.prompt) <= 0 {
		return
	}
	_, _ = fmt.Fprint(r.out, r.prompt)
}

// ParseValue parses a finite setpoint value
func ParseValue(text string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: '%s'", text)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("setpoint must be finite: '%s'", text)
	}
	return value, nil
}
