// Package progress provides progress reporting for remote waits.
package progress

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Reporter is the interface for reporting an in-flight remote operation.
type Reporter interface {
	Start(description string)
	Finish()
	Error(err error)
}

// Spinner implements Reporter with an indeterminate terminal spinner on
// stderr, so stdout stays clean for table output.
type Spinner struct {
	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	done chan struct{}
}

// NewSpinner creates a terminal spinner reporter.
func NewSpinner() *Spinner {
	return &Spinner{}
}

// Start begins spinning with the given description. A second Start before
// Finish replaces the description.
func (s *Spinner) Start(description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bar != nil {
		s.bar.Describe(description)
		return
	}
	s.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	s.done = make(chan struct{})
	go func(bar *progressbar.ProgressBar, done chan struct{}) {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}(s.bar, s.done)
}

// Finish stops the spinner and clears the line.
func (s *Spinner) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bar == nil {
		return
	}
	close(s.done)
	_ = s.bar.Finish()
	s.bar = nil
	s.done = nil
}

// Error stops the spinner and prints the error.
func (s *Spinner) Error(err error) {
	s.Finish()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}

// NoOp is a Reporter that does nothing, for non-interactive runs.
type NoOp struct{}

// NewNoOp creates a no-op reporter.
func NewNoOp() *NoOp {
	return &NoOp{}
}

// Start does nothing.
func (NoOp) Start(description string) {}

// Finish does nothing.
func (NoOp) Finish() {}

// Error does nothing.
func (NoOp) Error(err error) {}
