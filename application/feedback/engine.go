// Package feedback implements optimistic comment submission on top of a
// remote comment store.
package feedback

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"silo-planner/application/ports"
	"silo-planner/domain/config"
	"silo-planner/domain/core/entities"
	appErrors "silo-planner/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrEngineClosed is returned by Submit after Close
var ErrEngineClosed = errors.New("feedback engine is closed")

// SubmissionState tags where a submission is in its lifecycle
type SubmissionState int

const (
	StatePending SubmissionState = iota
	StateConfirmed
	StateFailed
)

// String returns the state name
func (s SubmissionState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateConfirmed:
		return "confirmed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Submission tracks one optimistic comment
type Submission struct {
	TempID    string
	Key       string
	State     SubmissionState
	ThreadID  int
	CommentID int64
	Reason    string
	Comment   entities.Comment
}

// Engine owns the comment index and applies optimistic submissions to it
type Engine struct {
	store          ports.CommentStore
	logger         *zap.Logger
	metrics        ports.Metrics
	now            ports.Clock
	newTempID      func() string
	reconcileDelay time.Duration

	mu          sync.Mutex
	index       *entities.CommentIndex
	submissions map[string]*Submission
	timers      map[*time.Timer]struct{}
	closed      bool
	wg          sync.WaitGroup
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics sets the business metrics recorder
func WithMetrics(m ports.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the clock used for optimistic timestamps
func WithClock(now ports.Clock) Option {
	return func(e *Engine) { e.now = now }
}

// WithReconcileDelay overrides the grace period before reconciliation
func WithReconcileDelay(d time.Duration) Option {
	return func(e *Engine) { e.reconcileDelay = d }
}

// WithTempIDs overrides temporary id generation
func WithTempIDs(gen func() string) Option {
	return func(e *Engine) { e.newTempID = gen }
}

// NewEngine creates an engine with an empty index
func NewEngine(store ports.CommentStore, opts ...Option) *Engine {
	e := &Engine{
		store:          store,
		logger:         zap.NewNop(),
		metrics:        noopMetrics{},
		now:            time.Now,
		newTempID:      func() string { return uuid.New().String() },
		reconcileDelay: config.DefaultDomainConfig().ReconcileDelay,
		index:          entities.NewCommentIndex(),
		submissions:    make(map[string]*Submission),
		timers:         make(map[*time.Timer]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit appends an optimistic comment, sends it, and settles it.
// On failure the optimistic entry is removed and the error returned.
func (e *Engine) Submit(ctx context.Context, session Session, key, text string) (Submission, error) {
	author := strings.TrimSpace(session.CommenterName)
	text = strings.TrimSpace(text)
	switch {
	case key == "":
		return Submission{}, appErrors.NewValidationError("key is required")
	case author == "":
		return Submission{}, appErrors.NewValidationError("commenter name is required")
	case text == "":
		return Submission{}, appErrors.NewValidationError("comment text is required")
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return Submission{}, ErrEngineClosed
	}
	threadID, _ := e.index.ThreadID(key)
	tempID := e.newTempID()
	comment := e.index.Append(key, entities.Comment{
		Author:    author,
		Text:      text,
		Timestamp: e.now().UnixMilli(),
		TempID:    tempID,
	})
	sub := &Submission{TempID: tempID, Key: key, State: StatePending, Comment: comment}
	e.submissions[tempID] = sub
	e.mu.Unlock()

	result, err := e.store.Submit(ctx, ports.SubmitRequest{
		Key:      key,
		Author:   author,
		Text:     text,
		ThreadID: threadID,
	})
	if err != nil {
		e.rollback(sub, err)
		e.metrics.CommentSubmitted(ports.OutcomeFailure)
		return e.snapshot(sub), err
	}

	e.confirm(sub, result)
	e.metrics.CommentSubmitted(ports.OutcomeSuccess)
	return e.snapshot(sub), nil
}

func (e *Engine) rollback(sub *Submission, cause error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	removed := e.index.RemoveTemp(sub.Key, sub.TempID)
	sub.State = StateFailed
	sub.Reason = cause.Error()

	e.logger.Warn("Comment submission rolled back",
		zap.String("key", sub.Key),
		zap.String("temp_id", sub.TempID),
		zap.Bool("entry_removed", removed),
		zap.Error(cause),
	)
}

func (e *Engine) confirm(sub *Submission, result ports.SubmitResult) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.index.AssignThread(sub.Key, sub.TempID, result.ThreadID)
	sub.State = StateConfirmed
	sub.ThreadID = result.ThreadID
	sub.CommentID = result.CommentID
	sub.Comment.ThreadID = result.ThreadID

	e.logger.Info("Comment submitted",
		zap.String("key", sub.Key),
		zap.Int("thread_id", result.ThreadID),
		zap.Int64("comment_id", result.CommentID),
	)

	if !e.closed {
		e.scheduleReconcileLocked()
	}
}

func (e *Engine) scheduleReconcileLocked() {
	e.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(e.reconcileDelay, func() {
		defer e.wg.Done()

		e.mu.Lock()
		delete(e.timers, timer)
		e.mu.Unlock()

		if err := e.Refresh(context.Background()); err != nil {
			e.logger.Warn("Comment reconciliation failed; keeping optimistic state", zap.Error(err))
		}
	})
	e.timers[timer] = struct{}{}
}

// Refresh replaces the index with the remote store's contents.
// Comments of submissions still in flight are kept at the end of their key.
func (e *Engine) Refresh(ctx context.Context) error {
	fresh, err := e.store.FetchAll(ctx)
	if err != nil {
		e.metrics.CommentsReconciled(ports.OutcomeFailure)
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next := entities.NewCommentIndexFrom(fresh)
	for _, key := range e.index.Keys() {
		for _, c := range e.index.Get(key) {
			if !c.IsOptimistic() {
				continue
			}
			if sub, ok := e.submissions[c.TempID]; ok && sub.State == StatePending {
				next.Append(key, c)
			}
		}
	}
	e.index = next

	for id, sub := range e.submissions {
		if sub.State != StatePending {
			delete(e.submissions, id)
		}
	}

	e.metrics.CommentsReconciled(ports.OutcomeSuccess)
	return nil
}

// Comments returns the comments under key
func (e *Engine) Comments(key string) []entities.Comment {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index.Get(key)
}

// Index returns a copy of the whole comment index
func (e *Engine) Index() map[string][]entities.Comment {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index.Snapshot()
}

// Keys returns every key that has comments
func (e *Engine) Keys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index.Keys()
}

// Submission returns the tracked state of a submission that has not been pruned yet
func (e *Engine) Submission(tempID string) (Submission, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sub, ok := e.submissions[tempID]
	if !ok {
		return Submission{}, false
	}
	return *sub, true
}

// Wait blocks until every scheduled reconciliation has run
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close stops pending reconciliations and rejects new submissions
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	for timer := range e.timers {
		if timer.Stop() {
			e.wg.Done()
		}
		delete(e.timers, timer)
	}
	e.mu.Unlock()

	e.wg.Wait()
}

func (e *Engine) snapshot(sub *Submission) Submission {
	e.mu.Lock()
	defer e.mu.Unlock()
	return *sub
}

type noopMetrics struct{}

func (noopMetrics) CommentSubmitted(string)                          {}
func (noopMetrics) CommentsReconciled(string)                        {}
func (noopMetrics) RoadmapSaved(string, time.Duration)               {}
func (noopMetrics) RemoteCall(string, string, string, time.Duration) {}
