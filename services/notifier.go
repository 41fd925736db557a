package services

import (
	"context"
	"police_case_app_go/metrics"
	"police_case_app_go/models"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// maxNotificationFanOut bounds concurrent deliveries for one committed operation
const maxNotificationFanOut = 4

// Notice is one message for one user
type Notice struct {
	UserID  string
	Type    models.NotificationType
	Title   string
	Message string
	CaseID  string // case the notice is about
}

// Notifier delivers notices; delivery is best effort
type Notifier interface {
	Notify(ctx context.Context, notice Notice) error
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(ctx context.Context, notice Notice) error

func (f NotifierFunc) Notify(ctx context.Context, notice Notice) error {
	return f(ctx, notice)
}

// outbox collects notices inside a transaction; they are only sent once it commits
type outbox struct {
	notices []Notice
}

func (o *outbox) add(n Notice) {
	o.notices = append(o.notices, n)
}

// dispatch delivers every queued notice. Failures are logged and counted but
// never returned, so a committed state change is never reported as failed.
func dispatch(ctx context.Context, notifier Notifier, logger zerolog.Logger, box *outbox) {
	if notifier == nil || box == nil || len(box.notices) == 0 {
		return
	}

	// Detach from request cancellation; the state change is already committed
	ctx = context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(maxNotificationFanOut)
	for _, n := range box.notices {
		g.Go(func() error {
			if err := notifier.Notify(ctx, n); err != nil {
				metrics.ObserveNotificationFailure()
				logger.Warn().Err(err).
					Str("user_id", n.UserID).
					Str("type", string(n.Type)).
					Str("case_id", n.CaseID).
					Msg("notification delivery failed")
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Courier sends committed outboxes in the background so callers get their
// response without waiting on mail or inbox writes
type Courier struct {
	notifier Notifier
	logger   zerolog.Logger
	inflight sync.WaitGroup
}

func NewCourier(notifier Notifier, logger zerolog.Logger) *Courier {
	return &Courier{notifier: notifier, logger: logger}
}

// send hands box to a detached goroutine
func (c *Courier) send(ctx context.Context, box *outbox) {
	if c == nil || c.notifier == nil || box == nil || len(box.notices) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		dispatch(ctx, c.notifier, c.logger, box)
	}()
}

// Wait blocks until every delivery started so far has finished
func (c *Courier) Wait() {
	if c == nil {
		return
	}
	c.inflight.Wait()
}
