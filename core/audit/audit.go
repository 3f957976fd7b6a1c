// Package audit appends agent decisions to a JSON-lines trail.
package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry is one audited agent action
type Entry struct {
	Timestamp  time.Time              `json:"timestamp"`
	Agent      string                 `json:"agent"`
	Action     string                 `json:"action"`
	Subject    string                 `json:"subject,omitempty"`
	Confidence float64                `json:"confidence,omitempty"`
	Detail     map[string]interface{} `json:"detail,omitempty"`
	DurationMS int64                  `json:"duration_ms,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// Common actions
const (
	ActionDiscovery  = "discovery"
	ActionSuggestion = "suggestion"
	ActionAccept     = "accept"
	ActionExpire     = "expire"
	ActionDecision   = "decision"
	ActionAdjust     = "threshold_adjust"
	ActionFeedback   = "feedback"
)

// Logger writes entries to a file. A disabled logger drops everything.
type Logger struct {
	path    string
	enabled bool
	mu      sync.Mutex
}

// New creates an audit logger for path
func New(path string, enabled bool) *Logger {
	return &Logger{path: path, enabled: enabled && path != ""}
}

// Enabled reports whether entries are written
func (l *Logger) Enabled() bool {
	return l != nil && l.enabled
}

// Path returns the log file path
func (l *Logger) Path() string {
	return l.path
}

// Log appends an entry
func (l *Logger) Log(e Entry) error {
	if !l.Enabled() {
		return nil
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create audit log directory: %w", err)
	}

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}

	return nil
}

// Read returns every entry in the log. Malformed lines are skipped.
func (l *Logger) Read() ([]Entry, error) {
	l.mu.Lock()
	data, err := os.ReadFile(l.path)
	l.mu.Unlock()
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	entries := []Entry{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan audit log: %w", err)
	}

	return entries, nil
}

// Recent returns the n most recent entries
func (l *Logger) Recent(n int) ([]Entry, error) {
	entries, err := l.Read()
	if err != nil {
		return nil, err
	}

	if n <= 0 || len(entries) <= n {
		return entries, nil
	}

	return entries[len(entries)-n:], nil
}
