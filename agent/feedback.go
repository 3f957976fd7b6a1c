package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"cryptointel/database"
)

// ErrBusTimeout is returned when the feedback buffer stays full
var ErrBusTimeout = errors.New("feedback bus timeout")

// FeedbackHandler processes recorded feedback
type FeedbackHandler func(context.Context, *database.Feedback) error

// FeedbackBus fans recorded feedback out to handlers registered per outcome
type FeedbackBus struct {
	feedbackChan chan *database.Feedback
	mu           sync.RWMutex
	handlers     map[database.FeedbackOutcome][]FeedbackHandler
	timeout      time.Duration
	logger       *zap.Logger
	wg           sync.WaitGroup
}

// NewFeedbackBus creates a bus with the given buffer size
func NewFeedbackBus(buffer int, logger *zap.Logger) *FeedbackBus {
	if buffer <= 0 {
		buffer = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackBus{
		feedbackChan: make(chan *database.Feedback, buffer),
		handlers:     make(map[database.FeedbackOutcome][]FeedbackHandler),
		timeout:      100 * time.Millisecond,
		logger:       logger.Named("feedback-bus"),
	}
}

// Send queues feedback (non-blocking with timeout)
func (fb *FeedbackBus) Send(feedback *database.Feedback) error {
	if feedback == nil {
		return fmt.Errorf("feedback cannot be nil")
	}

	select {
	case fb.feedbackChan <- feedback:
		return nil
	case <-time.After(fb.timeout):
		return ErrBusTimeout
	}
}

// RegisterHandler adds a handler for an outcome
func (fb *FeedbackBus) RegisterHandler(outcome database.FeedbackOutcome, handler FeedbackHandler) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.handlers[outcome] = append(fb.handlers[outcome], handler)
}

// RegisterAll adds a handler for every outcome
func (fb *FeedbackBus) RegisterAll(handler FeedbackHandler) {
	for _, o := range []database.FeedbackOutcome{database.OutcomePositive, database.OutcomeNegative, database.OutcomeNeutral} {
		fb.RegisterHandler(o, handler)
	}
}

// Start begins processing feedback until ctx is done. Feedback already
// queued when ctx ends is still delivered.
func (fb *FeedbackBus) Start(ctx context.Context) {
	fb.wg.Add(1)
	go func() {
		defer fb.wg.Done()
		for {
			select {
			case feedback := <-fb.feedbackChan:
				fb.processFeedback(ctx, feedback)
			case <-ctx.Done():
				fb.drain(ctx)
				return
			}
		}
	}()
}

func (fb *FeedbackBus) drain(ctx context.Context) {
	for {
		select {
		case feedback := <-fb.feedbackChan:
			fb.processFeedback(ctx, feedback)
		default:
			return
		}
	}
}

// Wait blocks until the processing loop and in-flight handlers return
func (fb *FeedbackBus) Wait() {
	fb.wg.Wait()
}

// processFeedback routes feedback to its handlers
func (fb *FeedbackBus) processFeedback(ctx context.Context, feedback *database.Feedback) {
	fb.mu.RLock()
	handlers := append([]FeedbackHandler(nil), fb.handlers[feedback.Outcome]...)
	fb.mu.RUnlock()

	if len(handlers) == 0 {
		fb.logger.Debug("no handler for outcome", zap.String("outcome", string(feedback.Outcome)))
		return
	}

	for _, h := range handlers {
		fb.wg.Add(1)
		go func(h FeedbackHandler) {
			defer fb.wg.Done()
			if err := h(ctx, feedback); err != nil {
				fb.logger.Warn("handler error",
					zap.String("outcome", string(feedback.Outcome)),
					zap.Int64("feedback_id", feedback.ID),
					zap.Error(err))
			}
		}(h)
	}
}

// RecordFeedback stores feedback and publishes it on the bus when one is
// configured. A full bus does not fail the call; the feedback is already
// persisted.
func RecordFeedback(ctx context.Context, deps Deps, fb *database.Feedback) error {
	if deps.Store == nil {
		return fmt.Errorf("database not available")
	}
	if err := deps.Store.RecordFeedback(ctx, fb); err != nil {
		return err
	}
	if deps.Metrics != nil {
		deps.Metrics.Feedback.WithLabelValues(string(fb.Outcome)).Inc()
	}
	if deps.Bus == nil {
		return nil
	}
	if err := deps.Bus.Send(fb); err != nil {
		deps.Bus.logger.Warn("feedback not published", zap.Int64("feedback_id", fb.ID), zap.Error(err))
	}
	return nil
}
