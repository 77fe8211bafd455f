// Package dispatcher fans the weekly prompt out to every eligible user on a
// minute timer, isolating per-user failures so one bad send never aborts
// the rest of the batch.
package dispatcher

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/reflectbot/internal/rotation"
	"github.com/example/reflectbot/pkg/models"
)

const (
	defaultBatchSize   = 50
	defaultUserTimeout = 15 * time.Second
)

// ScheduleSource lists delivery preferences for the eligibility scan.
// Implemented by database.ScheduleRepository.
type ScheduleSource interface {
	ListAll(ctx context.Context) ([]models.SchedulePreference, error)
}

// Engine produces the next prompt for a user. Implemented by
// rotation.Engine.
type Engine interface {
	NextPromptFor(ctx context.Context, userID string, policy rotation.Policy) (models.Prompt, error)
}

// Messenger delivers a prompt to a user. A failed send must only fail that
// user; the bot's Telegram sender implements this.
type Messenger interface {
	Send(ctx context.Context, userID string, prompt models.Prompt) error
}

// Outcome is the per-user result of one tick.
type Outcome struct {
	UserID string
	Err    error // nil on success
}

// Run is the ephemeral summary of one tick. It exists for logging only and
// is discarded afterwards.
type Run struct {
	ID        string
	StartedAt time.Time
	Eligible  int
	Outcomes  []Outcome
}

// Succeeded counts successful deliveries in the run.
func (r *Run) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}

// Failed counts failed deliveries in the run.
func (r *Run) Failed() int {
	return len(r.Outcomes) - r.Succeeded()
}

// Dispatcher drives the weekly delivery loop.
type Dispatcher struct {
	scheduler   *gocron.Scheduler
	schedules   ScheduleSource
	engine      Engine
	messenger   Messenger
	log         *zap.Logger
	loc         *time.Location
	batchSize   int
	userTimeout time.Duration
	now         func() time.Time
}

// Option tweaks dispatcher construction.
type Option func(*Dispatcher)

// WithBatchSize bounds how many users are dispatched concurrently. Batch
// size affects throughput only, never correctness.
func WithBatchSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.batchSize = n
		}
	}
}

// WithUserTimeout bounds one user's rotation plus delivery.
func WithUserTimeout(t time.Duration) Option {
	return func(d *Dispatcher) {
		if t > 0 {
			d.userTimeout = t
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// New creates a dispatcher. Schedule slots are matched against the current
// time in loc.
func New(schedules ScheduleSource, engine Engine, messenger Messenger, loc *time.Location, log *zap.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		scheduler:   gocron.NewScheduler(loc),
		schedules:   schedules,
		engine:      engine,
		messenger:   messenger,
		log:         log,
		loc:         loc,
		batchSize:   defaultBatchSize,
		userTimeout: defaultUserTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start registers the minute tick and begins running it in the background.
// It must not be called before the database connection is up.
func (d *Dispatcher) Start() error {
	if _, err := d.scheduler.Every(1).Minute().Do(d.tick); err != nil {
		return err
	}
	d.scheduler.StartAsync()
	d.log.Info("dispatcher started", zap.String("timezone", d.loc.String()))
	return nil
}

// Stop terminates the timer. In-flight ticks finish on their own.
func (d *Dispatcher) Stop() {
	d.scheduler.Stop()
	d.log.Info("dispatcher stopped")
}

func (d *Dispatcher) tick() {
	run := d.RunTick(context.Background())
	if run.Eligible == 0 {
		return
	}
	d.log.Info("dispatch tick finished",
		zap.String("run_id", run.ID),
		zap.Int("eligible", run.Eligible),
		zap.Int("succeeded", run.Succeeded()),
		zap.Int("failed", run.Failed()),
		zap.Duration("elapsed", d.now().Sub(run.StartedAt)),
	)
}

// RunTick performs one dispatch cycle: list eligible users for the current
// minute, then send each one their next prompt. The result is best effort;
// partial success is normal and failed users are retried on their next
// scheduled slot, not within the tick.
func (d *Dispatcher) RunTick(ctx context.Context) *Run {
	run := &Run{
		ID:        uuid.NewString(),
		StartedAt: d.now(),
	}
	now := run.StartedAt.In(d.loc)

	prefs, err := d.schedules.ListAll(ctx)
	if err != nil {
		d.log.Error("listing schedules failed, skipping tick",
			zap.String("run_id", run.ID),
			zap.Error(err),
		)
		return run
	}

	var eligible []string
	for _, pref := range prefs {
		if pref.Matches(now) {
			eligible = append(eligible, pref.UserID)
		}
	}
	run.Eligible = len(eligible)
	if len(eligible) == 0 {
		return run
	}

	d.log.Info("dispatching prompts",
		zap.String("run_id", run.ID),
		zap.Int("eligible", len(eligible)),
	)
	run.Outcomes = d.dispatch(ctx, run.ID, eligible)
	return run
}

// dispatch processes users concurrently with a bounded worker pool. Each
// user is independent: an error is captured in their outcome and the
// remaining users proceed.
func (d *Dispatcher) dispatch(ctx context.Context, runID string, userIDs []string) []Outcome {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = make([]Outcome, 0, len(userIDs))
		sem      = make(chan struct{}, d.batchSize)
	)

	for _, userID := range userIDs {
		userID := userID
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			err := d.deliverOne(ctx, userID)
			if err != nil {
				d.log.Warn("prompt delivery failed",
					zap.String("run_id", runID),
					zap.String("user_id", userID),
					zap.Error(err),
				)
			}
			mu.Lock()
			outcomes = append(outcomes, Outcome{UserID: userID, Err: err})
			mu.Unlock()
		}()
	}
	wg.Wait()
	return outcomes
}

// deliverOne runs one user's rotation and delivery under its own timeout.
func (d *Dispatcher) deliverOne(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, d.userTimeout)
	defer cancel()

	prompt, err := d.engine.NextPromptFor(ctx, userID, rotation.Alternate)
	if err != nil {
		return err
	}
	return d.messenger.Send(ctx, userID, prompt)
}
