package dispatcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/reflectbot/internal/rotation"
	"github.com/example/reflectbot/pkg/models"
)

type fakeSchedules struct {
	prefs []models.SchedulePreference
	err   error
}

func (f *fakeSchedules) ListAll(context.Context) ([]models.SchedulePreference, error) {
	return f.prefs, f.err
}

type fakeEngine struct {
	mu     sync.Mutex
	calls  []string
	errFor map[string]error
}

func (f *fakeEngine) NextPromptFor(_ context.Context, userID string, _ rotation.Policy) (models.Prompt, error) {
	f.mu.Lock()
	f.calls = append(f.calls, userID)
	f.mu.Unlock()
	if err := f.errFor[userID]; err != nil {
		return models.Prompt{}, err
	}
	return models.Prompt{Category: models.CategorySelfAwareness, Text: "p", Count: 1}, nil
}

type fakeMessenger struct {
	mu      sync.Mutex
	sent    []string
	errFor  map[string]error
	delay   time.Duration
	active  int
	maxSeen int
}

func (f *fakeMessenger) Send(_ context.Context, userID string, _ models.Prompt) error {
	f.mu.Lock()
	f.active++
	if f.active > f.maxSeen {
		f.maxSeen = f.active
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.active--
	f.sent = append(f.sent, userID)
	f.mu.Unlock()

	return f.errFor[userID]
}

// 2026-08-26 was a Wednesday.
func wednesdayAt(hour, minute int) func() time.Time {
	return func() time.Time {
		return time.Date(2026, time.August, 26, hour, minute, 0, 0, time.UTC)
	}
}

func pref(userID string, day, hour, minute int, enabled bool) models.SchedulePreference {
	return models.SchedulePreference{
		UserID:    userID,
		DayOfWeek: day,
		Hour:      hour,
		Minute:    minute,
		Enabled:   enabled,
	}
}

func newTestDispatcher(schedules ScheduleSource, engine Engine, messenger Messenger, opts ...Option) *Dispatcher {
	return New(schedules, engine, messenger, time.UTC, zap.NewNop(), opts...)
}

func TestEligibilityFilter(t *testing.T) {
	tests := []struct {
		name     string
		pref     models.SchedulePreference
		now      func() time.Time
		eligible bool
	}{
		{name: "exact match", pref: pref("u", 3, 9, 0, true), now: wednesdayAt(9, 0), eligible: true},
		{name: "wrong hour", pref: pref("u", 3, 9, 0, true), now: wednesdayAt(10, 0), eligible: false},
		{name: "wrong minute", pref: pref("u", 3, 9, 30, true), now: wednesdayAt(9, 0), eligible: false},
		{name: "wrong day", pref: pref("u", 4, 9, 0, true), now: wednesdayAt(9, 0), eligible: false},
		{name: "disabled never matches", pref: pref("u", 3, 9, 0, false), now: wednesdayAt(9, 0), eligible: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{}
			messenger := &fakeMessenger{}
			d := newTestDispatcher(
				&fakeSchedules{prefs: []models.SchedulePreference{tt.pref}},
				engine, messenger,
				WithClock(tt.now),
			)

			run := d.RunTick(context.Background())
			if tt.eligible {
				require.Equal(t, 1, run.Eligible)
				require.Equal(t, 1, run.Succeeded())
			} else {
				require.Zero(t, run.Eligible)
				require.Empty(t, engine.calls)
				require.Empty(t, messenger.sent)
			}
		})
	}
}

func TestPartialFailureIsolation(t *testing.T) {
	engine := &fakeEngine{}
	messenger := &fakeMessenger{errFor: map[string]error{"x": errors.New("delivery failed")}}
	d := newTestDispatcher(
		&fakeSchedules{prefs: []models.SchedulePreference{
			pref("x", 3, 9, 0, true),
			pref("y", 3, 9, 0, true),
			pref("z", 3, 9, 0, true),
		}},
		engine, messenger,
		WithClock(wednesdayAt(9, 0)),
	)

	run := d.RunTick(context.Background())
	require.Equal(t, 3, run.Eligible)
	require.Equal(t, 2, run.Succeeded())
	require.Equal(t, 1, run.Failed())

	failed := map[string]bool{}
	for _, o := range run.Outcomes {
		if o.Err != nil {
			failed[o.UserID] = true
		}
	}
	require.Equal(t, map[string]bool{"x": true}, failed)

	// every user's rotation ran; x's progress was recorded before the
	// delivery was attempted and is not rolled back
	require.ElementsMatch(t, []string{"x", "y", "z"}, engine.calls)
}

func TestEngineFailureSkipsDelivery(t *testing.T) {
	engine := &fakeEngine{errFor: map[string]error{"x": errors.New("store unavailable")}}
	messenger := &fakeMessenger{}
	d := newTestDispatcher(
		&fakeSchedules{prefs: []models.SchedulePreference{
			pref("x", 3, 9, 0, true),
			pref("y", 3, 9, 0, true),
		}},
		engine, messenger,
		WithClock(wednesdayAt(9, 0)),
	)

	run := d.RunTick(context.Background())
	require.Equal(t, 1, run.Succeeded())
	require.Equal(t, 1, run.Failed())
	// no prompt is delivered when rotation could not be recorded
	require.Equal(t, []string{"y"}, messenger.sent)
}

func TestListFailureSkipsTick(t *testing.T) {
	engine := &fakeEngine{}
	messenger := &fakeMessenger{}
	d := newTestDispatcher(
		&fakeSchedules{err: errors.New("store unavailable")},
		engine, messenger,
		WithClock(wednesdayAt(9, 0)),
	)

	run := d.RunTick(context.Background())
	require.Zero(t, run.Eligible)
	require.Empty(t, run.Outcomes)
	require.Empty(t, engine.calls)
}

func TestBoundedConcurrency(t *testing.T) {
	var prefs []models.SchedulePreference
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		prefs = append(prefs, pref(id, 3, 9, 0, true))
	}
	engine := &fakeEngine{}
	messenger := &fakeMessenger{delay: 20 * time.Millisecond}
	d := newTestDispatcher(
		&fakeSchedules{prefs: prefs},
		engine, messenger,
		WithClock(wednesdayAt(9, 0)),
		WithBatchSize(2),
	)

	run := d.RunTick(context.Background())
	require.Equal(t, 6, run.Succeeded())
	require.LessOrEqual(t, messenger.maxSeen, 2)
}

func TestAbsentScheduleIsNotAnError(t *testing.T) {
	engine := &fakeEngine{}
	messenger := &fakeMessenger{}
	d := newTestDispatcher(
		&fakeSchedules{},
		engine, messenger,
		WithClock(wednesdayAt(9, 0)),
	)

	run := d.RunTick(context.Background())
	require.Zero(t, run.Eligible)
	require.Empty(t, run.Outcomes)
}
