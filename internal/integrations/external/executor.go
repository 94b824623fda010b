package external

import (
	"context"
	"fmt"
	"time"

	"prospecting_backend/platform/logger"
)

const (
	DefaultTimeout = 10 * time.Second
	DefaultBackoff = 500 * time.Millisecond

	// maxAttempts is the first attempt plus one retry.
	maxAttempts = 2
)

// Options bound every provider call. Zero values take the defaults; a negative Backoff retries immediately.
type Options struct {
	Timeout time.Duration
	Backoff time.Duration
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Backoff < 0 {
		o.Backoff = 0
	} else if o.Backoff == 0 {
		o.Backoff = DefaultBackoff
	}
	return o
}

// Recorder receives one observation per Execute call. *metrics.Metrics implements it.
type Recorder interface {
	ObserveExternalCall(service, outcome string, elapsed time.Duration)
}

// Operation is one attempt at a provider call. It must honour ctx.
type Operation[T any] func(ctx context.Context) (T, error)

// Result carries either a value or a classified error, never both.
type Result[T any] struct {
	Value    T
	Err      *ServiceError
	Attempts int
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

// Get returns the value and a nil-safe error interface.
func (r Result[T]) Get() (T, error) {
	if r.Err != nil {
		return r.Value, r.Err
	}
	return r.Value, nil
}

// Executor runs provider operations under a hard timeout with a single retry.
type Executor struct {
	opts       Options
	classifier *Classifier
	log        *logger.Logger
	recorder   Recorder
}

type ExecutorOption func(*Executor)

// WithRecorder reports call outcomes to r.
func WithRecorder(r Recorder) ExecutorOption {
	return func(e *Executor) { e.recorder = r }
}

// WithClassifier overrides the default classifier, usually to change the message locale.
func WithClassifier(c *Classifier) ExecutorOption {
	return func(e *Executor) { e.classifier = c }
}

func NewExecutor(opts Options, log *logger.Logger, options ...ExecutorOption) *Executor {
	if log == nil {
		log = logger.Discard()
	}
	e := &Executor{
		opts:       opts.withDefaults(),
		classifier: DefaultClassifier(),
		log:        log,
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

func (e *Executor) Options() Options        { return e.opts }
func (e *Executor) Classifier() *Classifier { return e.classifier }
func (e *Executor) Catalog() *Catalog       { return e.classifier.catalog }

// Execute runs op, retrying once after the backoff when the failure category is retryable.
// It never panics and never blocks longer than about 2*Timeout+Backoff.
// A cancelled parent context stops the retry.
func Execute[T any](ctx context.Context, e *Executor, service ServiceName, op string, fn Operation[T]) Result[T] {
	start := time.Now()
	var res Result[T]

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res.Attempts = attempt
		value, err := runAttempt(ctx, e.opts.Timeout, fn)
		if err == nil {
			res.Value = value
			res.Err = nil
			break
		}
		res.Err = e.classifier.Classify(service, err)
		if !res.Err.Retryable || attempt == maxAttempts || ctx.Err() != nil {
			break
		}
		if !sleep(ctx, e.opts.Backoff) {
			break
		}
	}

	e.observe(ctx, service, op, res.Attempts, time.Since(start), res.Err)
	return res
}

// Fail builds a failed Result without calling the provider.
func Fail[T any](e *Executor, service ServiceName, op string, err error) Result[T] {
	se := e.classifier.Classify(service, err)
	e.log.ExternalCall(string(service), op, 0, 0, string(se.Category))
	return Result[T]{Err: se}
}

// runAttempt abandons fn when the timeout fires; the buffered channel lets the goroutine finish without leaking.
func runAttempt[T any](ctx context.Context, timeout time.Duration, fn Operation[T]) (T, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: %v", ErrOperationPanicked, r)}
			}
		}()
		v, err := fn(attemptCtx)
		done <- outcome{value: v, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var zero T
	select {
	case o := <-done:
		return o.value, o.err
	case <-timer.C:
		return zero, ErrAttemptTimeout
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (e *Executor) observe(ctx context.Context, service ServiceName, op string, attempts int, elapsed time.Duration, se *ServiceError) {
	outcome, category := "ok", ""
	if se != nil {
		outcome, category = string(se.Category), string(se.Category)
	}
	e.log.WithContext(ctx).ExternalCall(string(service), op, attempts, elapsed, category)
	if e.recorder != nil {
		e.recorder.ObserveExternalCall(string(service), outcome, elapsed)
	}
}
