package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/anjiri1684/appointment_reminder/models"
	"github.com/anjiri1684/appointment_reminder/notifications"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrPassInProgress = errors.New("pass already in progress")

const commitTimeout = 10 * time.Second

type Kind string

const (
	KindReminder Kind = "reminder"
	KindFeedback Kind = "feedback"
)

type BookingStore interface {
	// ListPending returns bookings with flag unset dated on or after notBefore.
	ListPending(ctx context.Context, flag models.Flag, notBefore string) ([]models.Booking, error)
	MarkSent(ctx context.Context, id uuid.UUID, flag models.Flag) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, b models.Booking, msg notifications.Message) notifications.Delivery
}

// Template renders the notification for one booking.
type Template func(b models.Booking) notifications.Message

type TaskConfig struct {
	Kind     Kind
	Flag     models.Flag
	Window   Window
	Template Template
	EventKey string
}

// Task is one scan-evaluate-dispatch-commit engine owning a single flag.
// At most one pass of a given Task runs at a time.
type Task struct {
	cfg        TaskConfig
	store      BookingStore
	dispatcher Dispatcher
	events     notifications.EventPublisher
	loc        *time.Location
	now        func() time.Time
	log        zerolog.Logger

	running sync.Mutex
}

type TaskOption func(*Task)

func WithClock(now func() time.Time) TaskOption {
	return func(t *Task) { t.now = now }
}

func WithLocation(loc *time.Location) TaskOption {
	return func(t *Task) { t.loc = loc }
}

func WithLogger(l zerolog.Logger) TaskOption {
	return func(t *Task) { t.log = l }
}

// WithEvents publishes a NotificationSent event after each committed flag.
func WithEvents(p notifications.EventPublisher) TaskOption {
	return func(t *Task) { t.events = p }
}

func NewTask(cfg TaskConfig, store BookingStore, dispatcher Dispatcher, opts ...TaskOption) *Task {
	t := &Task{
		cfg:        cfg,
		store:      store,
		dispatcher: dispatcher,
		loc:        time.Local,
		now:        time.Now,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log = t.log.With().Str("task", string(cfg.Kind)).Logger()
	return t
}

func (t *Task) Kind() Kind {
	return t.cfg.Kind
}

// Run performs one pass. Per-booking failures are recorded in the summary;
// the returned error is non-nil only when the pass could not run at all.
func (t *Task) Run(ctx context.Context) (PassSummary, error) {
	sum := PassSummary{Kind: t.cfg.Kind}
	if !t.running.TryLock() {
		return sum, ErrPassInProgress
	}
	defer t.running.Unlock()

	started := time.Now()
	now := t.now().In(t.loc)
	sum.RunID = uuid.New()
	sum.Now = now
	sum.WindowStart, sum.WindowEnd = t.cfg.Window.Bounds(now)

	l := t.log.With().Str("run_id", sum.RunID.String()).Logger()

	// Nothing dated before the window opens can become eligible again.
	pending, err := t.store.ListPending(ctx, t.cfg.Flag, sum.WindowStart.Format(models.DateLayout))
	if err != nil {
		l.Error().Err(err).Msg("🔥 Could not load pending bookings")
		return sum, fmt.Errorf("%s pass: %w", t.cfg.Kind, err)
	}
	sum.Scanned = len(pending)
	l.Debug().
		Int("pending", len(pending)).
		Time("window_start", sum.WindowStart).
		Time("window_end", sum.WindowEnd).
		Msgf("Running job: %s pass...", t.cfg.Kind)

	for _, b := range pending {
		if ctx.Err() != nil {
			sum.Cancelled = true
			l.Warn().Int("remaining", sum.Scanned-len(sum.Results)).Msg("Pass cancelled, remaining bookings stay pending")
			break
		}
		sum.add(t.process(ctx, l, now, b))
	}

	sum.Duration = time.Since(started)
	ev := l.Info()
	if sum.Sent == 0 && sum.Failed == 0 {
		ev = l.Debug()
	}
	ev.Int("scanned", sum.Scanned).
		Int("sent", sum.Sent).
		Int("skipped", sum.Skipped).
		Int("failed", sum.Failed).
		Dur("duration", sum.Duration).
		Msgf("✅ %s pass finished", t.cfg.Kind)
	return sum, nil
}

func (t *Task) process(ctx context.Context, l zerolog.Logger, now time.Time, b models.Booking) Result {
	l = l.With().Str("booking_id", b.ID.String()).Logger()

	at, err := b.AppointmentAt(t.loc)
	if err != nil {
		l.Warn().Err(err).Msg("Skipping booking with malformed date/slot")
		return failed(b.ID, ReasonParseError, err)
	}
	if !t.cfg.Window.Contains(now, at) {
		return Result{BookingID: b.ID, Outcome: OutcomeSkipped, Reason: ReasonOutsideWindow}
	}

	l.Info().Time("appointment", at).Msgf("Sending %s", t.cfg.Kind)
	d := t.dispatcher.Dispatch(ctx, b, t.cfg.Template(b))
	if !d.Delivered() {
		return failed(b.ID, ReasonDispatchFailed, d.MessageErr)
	}

	// The message is out; the flag must land even if the pass is being cancelled.
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()
	if err := t.store.MarkSent(commitCtx, b.ID, t.cfg.Flag); err != nil {
		l.Error().Err(err).Msg("🔥 Sent but could not persist flag, booking stays eligible")
		return failed(b.ID, ReasonStoreFailed, err)
	}

	r := Result{BookingID: b.ID, Outcome: OutcomeSent, EmailSent: d.EmailSent}
	if d.EmailErr != nil {
		r.EmailError = d.EmailErr.Error()
	}
	t.publish(commitCtx, l, b, d)
	return r
}

func (t *Task) publish(ctx context.Context, l zerolog.Logger, b models.Booking, d notifications.Delivery) {
	if t.events == nil || t.cfg.EventKey == "" {
		return
	}
	ev := notifications.NotificationSent{
		BookingID: b.ID.String(),
		Kind:      string(t.cfg.Kind),
		Phone:     b.Phone,
		EmailSent: d.EmailSent,
		SentAt:    t.now().Unix(),
	}
	if err := t.events.PublishJSON(ctx, t.cfg.EventKey, ev); err != nil {
		l.Warn().Err(err).Str("key", t.cfg.EventKey).Msg("Failed to publish notification event")
	}
}
