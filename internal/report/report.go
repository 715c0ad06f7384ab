// Package report renders in-place terminal progress for a runner driving
// tracker cases to completion: a progress bar per case, pass/fail marks,
// and circuit-breaker skips.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

const (
	barFilled = "█"
	barEmpty  = "░"
	barWidth  = 20
)

// Writer handles in-place status updates to the terminal.
type Writer struct {
	w            io.Writer
	color        bool
	mu           sync.Mutex
	linesWritten int
}

// New creates a report writer that outputs to stdout.
func New(colorEnabled bool) *Writer {
	return &Writer{w: os.Stdout, color: colorEnabled}
}

// NewWithWriter creates a report writer with a custom output.
func NewWithWriter(w io.Writer, colorEnabled bool) *Writer {
	return &Writer{w: w, color: colorEnabled}
}

// Clear erases any previously written status lines.
func (s *Writer) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Writer) clearLocked() {
	for i := 0; i < s.linesWritten; i++ {
		fmt.Fprint(s.w, "\033[A\033[2K")
	}
	fmt.Fprint(s.w, "\r")
	s.linesWritten = 0
}

// Update clears previous status and writes new status.
func (s *Writer) Update(lines ...string) {
	s.Clear()
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, line := range lines {
		fmt.Fprintln(s.w, line)
	}
	s.linesWritten = len(lines)
}

func (s *Writer) progressBar(completed, total int) string {
	if total <= 0 {
		return strings.Repeat(barEmpty, barWidth)
	}

	filled := (completed * barWidth) / total
	if filled > barWidth {
		filled = barWidth
	}

	if !s.color {
		return strings.Repeat(barFilled, filled) + strings.Repeat(barEmpty, barWidth-filled)
	}
	return color.GreenString(strings.Repeat(barFilled, filled)) +
		color.New(color.Faint).Sprint(strings.Repeat(barEmpty, barWidth-filled))
}

// Case displays a case's progress as the fraction of its cycle budget
// spent so far.
func (s *Writer) Case(caseNum, totalCases int, name string, cycle, maxCycles int) {
	s.CaseWithRetry(caseNum, totalCases, name, cycle, maxCycles, 0, 0)
}

// CaseWithRetry is Case plus a retry attempt indicator.
func (s *Writer) CaseWithRetry(caseNum, totalCases int, name string, cycle, maxCycles, attempt, maxRetries int) {
	bar := s.progressBar(cycle, maxCycles)
	label := fmt.Sprintf("%d/%d", caseNum, totalCases)

	var line string
	if attempt > 0 {
		line = fmt.Sprintf("%s %s %s (retry %d/%d)", bar, label, name, attempt, maxRetries)
	} else {
		line = fmt.Sprintf("%s %s %s", bar, label, name)
	}
	s.Update(line)
}

// Passed reports a case's success.
func (s *Writer) Passed(caseNum, totalCases int, name string, cycles int) {
	bar := s.progressBar(caseNum, totalCases)
	mark := "v " + name + " passed"
	if s.color {
		mark = color.New(color.FgGreen, color.Bold).Sprint("✓ ") + name + " passed"
	}
	s.Update(fmt.Sprintf("%s %s (%d cycles)", bar, mark, cycles))
}

// Failed reports a case's failure. The message is left on screen rather
// than cleared on the next update.
func (s *Writer) Failed(caseNum, totalCases int, name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()

	bar := s.progressBar(caseNum-1, totalCases)
	fmt.Fprintln(s.w, fmt.Sprintf("%s %d/%d", bar, caseNum, totalCases))

	failMark := fmt.Sprintf("x %s failed", name)
	if s.color {
		failMark = color.New(color.FgRed, color.Bold).Sprintf("✗ %s failed", name)
	}
	fmt.Fprintln(s.w, failMark)
	fmt.Fprintln(s.w, err)

	s.linesWritten = 0
}

// CircuitOpen reports that a case's circuit breaker tripped and its body
// is being skipped for this cycle. failures is the consecutive failure
// count that tripped the breaker, and lastErr is the error from the most
// recent one, if any.
func (s *Writer) CircuitOpen(caseNum, totalCases int, name string, failures int, lastErr error) {
	bar := s.progressBar(caseNum-1, totalCases)

	warn := fmt.Sprintf("* %s circuit open", name)
	if s.color {
		warn = color.New(color.FgYellow, color.Bold).Sprintf("⚡ %s circuit open", name)
	}

	skipLine := fmt.Sprintf("skipping after %d consecutive failures", failures)
	if lastErr != nil {
		skipLine = fmt.Sprintf("%s: %v", skipLine, lastErr)
	}

	lines := []string{
		fmt.Sprintf("%s %d/%d", bar, caseNum, totalCases),
		warn,
		skipLine,
	}
	s.Update(lines...)
}

// Summary prints the final tally for a suite run.
func (s *Writer) Summary(passed, total int) {
	bar := s.progressBar(passed, total)
	count := fmt.Sprintf("%d/%d passed", passed, total)
	if s.color {
		if passed == total {
			count = color.New(color.FgGreen, color.Bold).Sprint(count)
		} else {
			count = color.New(color.FgRed, color.Bold).Sprint(count)
		}
	}
	s.Update(fmt.Sprintf("%s %s", bar, count))
}
