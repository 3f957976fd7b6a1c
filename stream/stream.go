// Package stream paces agent cycles and turns each cycle into a sequence of
// events for live display.
package stream

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cryptointel/agent"
)

// EventType classifies an event
type EventType string

const (
	EventCycle        EventType = "cycle"
	EventDiscovery    EventType = "discovery"
	EventSuggestion   EventType = "suggestion"
	EventDecision     EventType = "decision"
	EventFeedback     EventType = "feedback"
	EventOptimization EventType = "optimization"
	EventError        EventType = "error"
)

// Event is one observable step of a cycle
type Event struct {
	Type       EventType   `json:"type"`
	Cycle      int         `json:"cycle"`
	Agent      string      `json:"agent,omitempty"`
	Message    string      `json:"message"`
	Confidence float64     `json:"confidence,omitempty"`
	At         time.Time   `json:"at"`
	Payload    interface{} `json:"payload,omitempty"`
}

// CycleRunner runs one agent cycle
type CycleRunner interface {
	RunCycle(ctx context.Context) (*agent.CycleReport, error)
}

// Runner runs cycles on a fixed interval
type Runner struct {
	cycles   CycleRunner
	Interval time.Duration
	Cycles   int // 0 runs until the context ends
	logger   *zap.Logger
}

// NewRunner creates a runner
func NewRunner(cycles CycleRunner, interval time.Duration, n int, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cycles:   cycles,
		Interval: interval,
		Cycles:   n,
		logger:   logger.Named("stream"),
	}
}

// Run starts streaming. The first cycle runs immediately, later ones on each
// tick. The channel is closed after the last cycle or when ctx ends.
func (r *Runner) Run(ctx context.Context) <-chan Event {
	out := make(chan Event, 16)

	go func() {
		defer close(out)

		interval := r.Interval
		if interval <= 0 {
			interval = time.Second
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for n := 0; r.Cycles == 0 || n < r.Cycles; n++ {
			if n > 0 {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			}

			report, err := r.cycles.RunCycle(ctx)
			if ctx.Err() != nil {
				return
			}

			var events []Event
			if report != nil {
				events = Events(report)
			}
			if err != nil {
				r.logger.Warn("cycle failed", zap.Error(err))
				// Agent failures are already in the report
				if report == nil || len(report.Errors) == 0 {
					cycle := 0
					if report != nil {
						cycle = report.Cycle
					}
					events = append(events, Event{Type: EventError, Cycle: cycle, Message: err.Error(), At: time.Now()})
				}
			}

			for _, e := range events {
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// Events flattens a cycle report into events in the order they happened
func Events(r *agent.CycleReport) []Event {
	at := r.StartedAt
	var events []Event
	add := func(e Event) {
		e.Cycle = r.Cycle
		e.At = at
		events = append(events, e)
	}

	add(Event{Type: EventCycle, Message: fmt.Sprintf("cycle %d started", r.Cycle)})

	for _, d := range r.Discoveries {
		add(Event{
			Type:       EventDiscovery,
			Agent:      d.AgentID,
			Message:    fmt.Sprintf("%s %s (ev %+.2f%%, %s)", d.Symbol, d.Kind, d.ExpectedValue*100, d.Timeframe),
			Confidence: d.Confidence,
			Payload:    d,
		})
	}

	for _, sg := range r.Suggestions {
		add(Event{
			Type:       EventSuggestion,
			Agent:      sg.AgentID,
			Message:    fmt.Sprintf("[%s] %s", sg.Urgency, sg.Rationale),
			Confidence: sg.Confidence,
			Payload:    sg,
		})
	}

	if d := r.Decision; d != nil {
		add(Event{
			Type:       EventDecision,
			Agent:      d.AgentID,
			Message:    fmt.Sprintf("%s: %s", d.DecisionType, d.Rationale),
			Confidence: d.Confidence,
			Payload:    d,
		})
	}

	for _, fb := range r.Feedback {
		add(Event{
			Type:    EventFeedback,
			Agent:   fb.AgentID,
			Message: fmt.Sprintf("%s on %s (%+.2f)", fb.Outcome, fb.SuggestionID, fb.Score),
			Payload: fb,
		})
	}

	for _, c := range r.Adjustments {
		msg := fmt.Sprintf("%s threshold held at %.2f (accuracy %.0f%%)", c.AgentID, c.After, c.Accuracy*100)
		if c.Moved() {
			msg = fmt.Sprintf("%s threshold %.2f -> %.2f (accuracy %.0f%%)", c.AgentID, c.Before, c.After, c.Accuracy*100)
		}
		add(Event{
			Type:       EventOptimization,
			Agent:      c.AgentID,
			Message:    msg,
			Confidence: c.Accuracy,
			Payload:    c,
		})
	}

	for _, e := range r.Errors {
		add(Event{Type: EventError, Message: e})
	}

	return events
}
