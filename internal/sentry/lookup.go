package sentry

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
)

// Defaults for the retry loop, overridable via LookupConfig.
const (
	DefaultMaxAttempts     = 4
	DefaultInitialInterval = 2 * time.Second
	DefaultMultiplier      = 1.3
)

// EventKind identifies one progress update from a lookup run.
type EventKind int

const (
	KindFetching EventKind = iota
	KindRetrying
	KindResolved
	KindExhausted
)

func (k EventKind) String() string {
	switch k {
	case KindFetching:
		return "fetching"
	case KindRetrying:
		return "retrying"
	case KindResolved:
		return "resolved"
	case KindExhausted:
		return "exhausted"
	}
	return "unknown"
}

// Event is one progress update handed to a Reporter.
type Event struct {
	Kind    EventKind
	ErrorID string

	// Attempt is the 1-based attempt that just came up empty; set for
	// KindRetrying.
	Attempt int
	// Wait is the backoff before the next attempt; set for KindRetrying.
	Wait time.Duration
	// Issue is the resolved record; set for KindResolved.
	Issue *Issue
	// Attempts is the total attempt count; set for KindResolved and
	// KindExhausted.
	Attempts int
}

// Reporter receives progress events from a lookup run. Implementations own
// a single editable status message per invocation: the first event creates
// it, every later event edits it in place. Report errors are logged by the
// caller and never abort the run.
type Reporter interface {
	Report(ctx context.Context, ev Event) error
}

// Searcher is the fetch side of a lookup.
type Searcher interface {
	Search(ctx context.Context, errorID string) (json.RawMessage, error)
}

// LookupConfig carries the retry parameters. Zero values mean defaults.
type LookupConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	Multiplier      float64

	// IssueURLBase is the organization's web origin used to build issue
	// detail links. Empty leaves links off resolved records.
	IssueURLBase string
}

func (c LookupConfig) withDefaults() LookupConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = DefaultInitialInterval
	}
	if c.Multiplier <= 0 {
		c.Multiplier = DefaultMultiplier
	}
	return c
}

// Backoff returns the wait before the next attempt, the geometric series
// initial * multiplier^(attempt-1) for the 1-based attempt that just
// finished.
func Backoff(initial time.Duration, multiplier float64, attempt int) time.Duration {
	return time.Duration(float64(initial) * math.Pow(multiplier, float64(attempt-1)))
}

// Lookup drives repeated search attempts with exponential backoff until an
// issue resolves, the attempt budget runs out, or the context is
// cancelled. Each invocation of Run is independent; concurrent runs for
// the same error ID are not deduplicated.
type Lookup struct {
	client Searcher
	cfg    LookupConfig
	logger *slog.Logger

	// sleep suspends between attempts; swapped out by tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLookup creates a Lookup over the given search client.
func NewLookup(client Searcher, cfg LookupConfig) *Lookup {
	return &Lookup{
		client: client,
		cfg:    cfg.withDefaults(),
		logger: slog.Default(),
		sleep:  sleepCtx,
	}
}

// Outcome is the terminal state of one run: either a resolved issue or
// exhaustion after Attempts tries. Fetch failures never surface here.
type Outcome struct {
	Issue    *Issue // nil when every attempt came up empty
	Attempts int
}

// Run executes the retry loop for one error ID. Fetch failures of any kind
// fold into the same retry path as an empty result. The only error Run
// returns is the context's, when the invocation is cancelled; after
// cancellation no further fetches or progress events happen.
func (l *Lookup) Run(ctx context.Context, errorID string, rep Reporter) (Outcome, error) {
	log := l.logger.With("run_id", uuid.NewString(), "error_id", errorID)
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	l.report(ctx, rep, log, Event{Kind: KindFetching, ErrorID: errorID})

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}

		issue := l.attempt(ctx, log, errorID, attempt)
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}

		if issue != nil {
			log.Info("issue resolved", "attempts", attempt, "elapsed", time.Since(start))
			l.report(ctx, rep, log, Event{Kind: KindResolved, ErrorID: errorID, Issue: issue, Attempts: attempt})
			return Outcome{Issue: issue, Attempts: attempt}, nil
		}

		if attempt >= l.cfg.MaxAttempts {
			log.Warn("no matching issue after all attempts", "attempts", attempt)
			l.report(ctx, rep, log, Event{Kind: KindExhausted, ErrorID: errorID, Attempts: attempt})
			return Outcome{Attempts: attempt}, nil
		}

		wait := Backoff(l.cfg.InitialInterval, l.cfg.Multiplier, attempt)
		l.report(ctx, rep, log, Event{Kind: KindRetrying, ErrorID: errorID, Attempt: attempt, Wait: wait})
		if err := l.sleep(ctx, wait); err != nil {
			return Outcome{}, err
		}
	}
}

// attempt performs one fetch+parse. Every failure mode, transport error,
// error status, or an empty payload, comes back as nil: the caller does
// not distinguish them beyond the log line.
func (l *Lookup) attempt(ctx context.Context, log *slog.Logger, errorID string, attempt int) *Issue {
	payload, err := l.client.Search(ctx, errorID)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			log.Error("search returned error status", "attempt", attempt, "status", se.Code, "body", se.Body)
		} else {
			log.Error("search failed", "attempt", attempt, "error", err)
		}
		return nil
	}

	issue := ParseIssue(payload, l.cfg.IssueURLBase)
	if issue == nil {
		log.Warn("no issues in response", "attempt", attempt)
	}
	return issue
}

// report delivers one event, swallowing reporter failures: the lookup's
// outcome does not depend on the status display surviving.
func (l *Lookup) report(ctx context.Context, rep Reporter, log *slog.Logger, ev Event) {
	if err := rep.Report(ctx, ev); err != nil {
		log.Warn("progress update failed", "kind", ev.Kind.String(), "error", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
