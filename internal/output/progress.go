package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// writerIsTTY returns true if w is a file attached to a terminal. Plain
// writers such as *bytes.Buffer never are.
func writerIsTTY(w io.Writer) bool {
	type fder interface {
		Fd() uintptr
	}
	if f, ok := w.(fder); ok {
		return isatty.IsTerminal(f.Fd())
	}
	return false
}

// ProgressBar shows how many of a known number of items are done.
// Example: [=========>          ]  45% Importing packages
type ProgressBar struct {
	mu          sync.Mutex
	w           io.Writer
	tty         bool
	total       int
	current     int
	width       int
	description string
}

// NewProgress creates a progress bar writing to w.
func NewProgress(w io.Writer, total int, description string) *ProgressBar {
	return &ProgressBar{
		w:           w,
		tty:         writerIsTTY(w),
		total:       total,
		width:       40,
		description: description,
	}
}

// Increment marks one more item done.
func (p *ProgressBar) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current < p.total {
		p.current++
	}
	// Off a terminal only the final state is worth a line.
	if p.tty {
		fmt.Fprintf(p.w, "\r%s", p.line())
	}
}

// Finish draws the completed bar and ends the line.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = p.total
	if p.tty {
		fmt.Fprintf(p.w, "\r%s\n", p.line())
		return
	}
	fmt.Fprintln(p.w, p.line())
}

func (p *ProgressBar) line() string {
	percent, filled := 100, p.width
	if p.total > 0 {
		percent = p.current * 100 / p.total
		filled = p.current * p.width / p.total
	}

	bar := strings.Repeat("=", filled)
	if filled > 0 && filled < p.width {
		bar = bar[:filled-1] + ">"
	}
	return fmt.Sprintf("[%-*s] %3d%% %s", p.width, bar, percent, p.description)
}

// Spinner shows that a step without measurable progress is running.
// Example: |  Detecting drivers (3s elapsed)
type Spinner struct {
	mu      sync.Mutex
	w       io.Writer
	message string
	started time.Time
	stop    chan struct{}
	done    sync.WaitGroup
}

// NewSpinner creates a spinner writing to w.
func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{w: w, message: message}
}

// Start begins the animation. Off a terminal the message is printed once
// instead.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		return
	}
	s.started = time.Now()
	s.stop = make(chan struct{})

	if !writerIsTTY(s.w) {
		fmt.Fprintf(s.w, "%s...\n", s.message)
		return
	}

	s.done.Add(1)
	go s.spin(s.stop)
}

func (s *Spinner) spin(stop <-chan struct{}) {
	defer s.done.Done()

	frames := []string{"|", "/", "-", "\\"}
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			elapsed := int(time.Since(s.started).Seconds())
			fmt.Fprintf(s.w, "\r%s  %s (%ds elapsed)", frames[i%len(frames)], s.message, elapsed)
			s.mu.Unlock()
		}
	}
}

// Stop ends the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	s.done.Wait()

	if writerIsTTY(s.w) {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len(s.message)+24))
	}
}

// StopWithMessage stops the spinner and prints a final message.
func (s *Spinner) StopWithMessage(message string) {
	s.Stop()
	fmt.Fprintln(s.w, message)
}
