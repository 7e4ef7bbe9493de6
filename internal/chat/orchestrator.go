package chat

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"bakerychat/internal/catalog"
	"bakerychat/internal/models"
	"bakerychat/internal/orders"
	"bakerychat/internal/rag"
	"bakerychat/internal/session"
)

// DefaultDelegationTimeout bounds how long a turn waits for the chat engine
const DefaultDelegationTimeout = 60 * time.Second

// Recorder receives turn outcomes for metrics
type Recorder interface {
	RecordTurn(outcome string, elapsed time.Duration)
	RecordOrder(lines int, total float64)
	RecordDelegation(elapsed time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordTurn(string, time.Duration)       {}
func (nopRecorder) RecordOrder(int, float64)               {}
func (nopRecorder) RecordDelegation(time.Duration, error) {}

// Orchestrator decides, per message, whether the visitor is ordering or
// asking a question, and produces the reply
type Orchestrator struct {
	catalog  *catalog.Catalog
	ledger   *orders.Ledger
	engine   rag.Engine
	timeout  time.Duration
	recorder Recorder
	logger   logrus.FieldLogger
}

// Option customizes an Orchestrator
type Option func(*Orchestrator)

// WithTimeout sets the delegation timeout
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithRecorder attaches a metrics recorder
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewOrchestrator wires the menu, the order log and the chat engine together
func NewOrchestrator(cat *catalog.Catalog, ledger *orders.Ledger, engine rag.Engine, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		catalog:  cat,
		ledger:   ledger,
		engine:   engine,
		timeout:  DefaultDelegationTimeout,
		recorder: nopRecorder{},
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Handle runs one turn for sess. On success the prompt and the reply are
// appended to the session transcript; on error the transcript is untouched.
func (o *Orchestrator) Handle(ctx context.Context, sess *session.Session, prompt string) (Turn, error) {
	end := sess.BeginTurn()
	defer end()

	started := time.Now()
	logger := o.logger.WithField("session", sess.ID)
	history := sess.Transcript()

	logger.WithField("state", Matching).Debug("matching message against menu")
	menu, err := o.catalog.Load()
	if err != nil {
		logger.WithError(err).Warn("menu unreadable, matching against default menu")
	}

	var turn Turn
	if order, ok := orders.Detect(prompt, menu.Items); ok {
		turn, err = o.confirm(order)
	} else {
		turn, err = o.delegate(ctx, prompt, history)
	}
	if err != nil {
		o.recorder.RecordTurn("error", time.Since(started))
		logger.WithError(err).Warn("chat turn failed")
		return Turn{}, err
	}

	sess.Commit(ctx,
		models.ChatMessage{Role: models.RoleUser, Content: prompt},
		models.ChatMessage{Role: models.RoleAssistant, Content: turn.Reply},
	)
	o.recorder.RecordTurn(turn.Path.String(), time.Since(started))
	logger.WithFields(logrus.Fields{
		"state":   Responded,
		"path":    turn.Path,
		"elapsed": time.Since(started),
	}).Info("chat turn answered")
	return turn, nil
}

func (o *Orchestrator) confirm(order models.Order) (Turn, error) {
	if err := o.ledger.Append(order); err != nil {
		return Turn{}, err
	}
	o.recorder.RecordOrder(len(order.Lines), order.Total())
	return Turn{Reply: orders.Confirmation(order), Order: &order, Path: OrderConfirmed}, nil
}

type engineResult struct {
	reply string
	err   error
}

func (o *Orchestrator) delegate(ctx context.Context, prompt string, history []models.ChatMessage) (Turn, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	started := time.Now()
	done := make(chan engineResult, 1)
	go func() {
		reply, err := o.engine.Chat(ctx, prompt, history)
		done <- engineResult{reply: reply, err: err}
	}()

	var res engineResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ctx.Err()
	}

	if res.err != nil {
		err := &DelegationError{
			Timeout:  o.timeout,
			TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
			Err:      res.err,
		}
		o.recorder.RecordDelegation(time.Since(started), err)
		return Turn{}, err
	}
	o.recorder.RecordDelegation(time.Since(started), nil)
	return Turn{Reply: res.reply, Path: Delegating}, nil
}
