package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var spinnerStyle = lipgloss.NewStyle().Foreground(Primary)

// StatusLine manages an in-place updating status line in the terminal
type StatusLine struct {
	mu          sync.Mutex
	out         io.Writer
	active      bool
	message     string
	spinner     []string
	spinnerIdx  int
	stopCh      chan struct{}
	done        chan struct{}
	lastLineLen int
	isTTY       bool
}

// NewStatusLine creates a status line on stdout
func NewStatusLine() *StatusLine {
	fileInfo, err := os.Stdout.Stat()
	isTTY := err == nil && (fileInfo.Mode()&os.ModeCharDevice) != 0
	return NewStatusLineTo(os.Stdout, isTTY)
}

// NewStatusLineTo creates a status line on out. Without a TTY messages
// are printed once per line and no spinner runs.
func NewStatusLineTo(out io.Writer, isTTY bool) *StatusLine {
	return &StatusLine{
		out:     out,
		spinner: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		isTTY:   isTTY,
	}
}

// ShowWithSpinner displays a status message with an animated spinner
func (s *StatusLine) ShowWithSpinner(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.message = msg
	if !s.isTTY {
		fmt.Fprintln(s.out, msg)
		return
	}
	if s.active {
		return
	}

	s.active = true
	s.spinnerIdx = 0
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	go s.animate(s.stopCh, s.done)
}

// Update changes the message
func (s *StatusLine) Update(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.message = msg
	if !s.isTTY {
		fmt.Fprintln(s.out, msg)
	}
}

// Clear removes the status line and waits for the animation to stop
func (s *StatusLine) Clear() {
	s.mu.Lock()
	if !s.active {
		s.message = ""
		s.mu.Unlock()
		return
	}
	s.active = false
	stop, done := s.stopCh, s.done
	s.mu.Unlock()

	close(stop)
	<-done

	s.mu.Lock()
	s.clear()
	s.message = ""
	s.mu.Unlock()
}

func (s *StatusLine) animate(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.spinnerIdx = (s.spinnerIdx + 1) % len(s.spinner)
			s.clear()
			s.print(spinnerStyle.Render(s.spinner[s.spinnerIdx]) + " " + s.message)
			s.mu.Unlock()
		}
	}
}

func (s *StatusLine) print(text string) {
	fmt.Fprint(s.out, text)
	s.lastLineLen = lipgloss.Width(text)
}

// clear erases the current line
func (s *StatusLine) clear() {
	if s.lastLineLen > 0 {
		fmt.Fprint(s.out, "\r"+strings.Repeat(" ", s.lastLineLen)+"\r")
		s.lastLineLen = 0
	}
}
