package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunNowNotifiesObservers(t *testing.T) {
	b := booking("+1", "2024-06-01", "14:00")
	store := newMemStore(b)
	d := &fakeDispatcher{}
	clock := WithClock(fixedClock(at("2024-06-01T13:30")))
	r := NewRunner(time.Minute, zerolog.Nop(),
		NewReminderTask(ReminderWindow, store, d, clock, WithLocation(time.UTC)),
		NewFeedbackTask(FeedbackWindow, store, d, clock, WithLocation(time.UTC)),
	)

	var mu sync.Mutex
	var seen []Kind
	r.Observe(func(s PassSummary) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s.Kind)
	})

	sum, err := r.RunNow(context.Background(), KindReminder)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Sent)

	_, err = r.RunNow(context.Background(), KindFeedback)
	require.NoError(t, err)

	assert.Equal(t, []Kind{KindReminder, KindFeedback}, seen)
	assert.Equal(t, []Kind{KindReminder, KindFeedback}, r.Kinds())
}

func TestRunNowUnknownKind(t *testing.T) {
	r := NewRunner(time.Minute, zerolog.Nop())

	_, err := r.RunNow(context.Background(), Kind("birthday"))
	assert.ErrorIs(t, err, ErrUnknownTask)
}

func TestRunNowRefusesOverlapWithInflightPass(t *testing.T) {
	b := booking("+1", "2024-06-01", "14:00")
	store := newMemStore(b)
	d := &fakeDispatcher{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	r := NewRunner(time.Minute, zerolog.Nop(),
		NewReminderTask(ReminderWindow, store, d, WithClock(fixedClock(at("2024-06-01T13:30"))), WithLocation(time.UTC)))

	done := make(chan error, 1)
	go func() {
		_, err := r.RunNow(context.Background(), KindReminder)
		done <- err
	}()
	<-d.entered

	_, err := r.RunNow(context.Background(), KindReminder)
	assert.ErrorIs(t, err, ErrPassInProgress)

	close(d.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, d.count())
}

func TestStopWaitsForInflightPass(t *testing.T) {
	b := booking("+1", "2024-06-01", "14:00")
	store := newMemStore(b)
	d := &fakeDispatcher{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	r := NewRunner(time.Minute, zerolog.Nop(),
		NewReminderTask(ReminderWindow, store, d, WithClock(fixedClock(at("2024-06-01T13:30"))), WithLocation(time.UTC)))
	r.Start()

	passDone := make(chan struct{})
	go func() {
		_, _ = r.RunNow(context.Background(), KindReminder)
		close(passDone)
	}()
	<-d.entered

	stopped := make(chan error, 1)
	go func() { stopped <- r.Stop(context.Background()) }()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a pass was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(d.block)
	<-passDone
	require.NoError(t, <-stopped)
	assert.True(t, store.get(b.ID).ReminderSent)

	_, err := r.RunNow(context.Background(), KindReminder)
	assert.ErrorIs(t, err, ErrRunnerStopped)
}

func TestStopDeadlineCancelsRemainingBookings(t *testing.T) {
	first := booking("+1", "2024-06-01", "14:00")
	second := booking("+2", "2024-06-01", "14:10")
	store := newMemStore(first, second)
	d := &fakeDispatcher{block: make(chan struct{}), entered: make(chan struct{}, 2)}
	r := NewRunner(time.Minute, zerolog.Nop(),
		NewReminderTask(ReminderWindow, store, d, WithClock(fixedClock(at("2024-06-01T13:30"))), WithLocation(time.UTC)))

	sums := make(chan PassSummary, 1)
	go func() {
		s, _ := r.RunNow(context.Background(), KindReminder)
		sums <- s
	}()
	<-d.entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	go func() {
		time.Sleep(40 * time.Millisecond)
		close(d.block)
	}()
	err := r.Stop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	s := <-sums
	assert.True(t, s.Cancelled)
	assert.Equal(t, 1, s.Sent)
	assert.True(t, store.get(first.ID).ReminderSent)
	assert.False(t, store.get(second.ID).ReminderSent)
}

func TestScheduledTickRunsPass(t *testing.T) {
	b := booking("+1", "2024-06-01", "14:00")
	store := newMemStore(b)
	d := &fakeDispatcher{}
	r := NewRunner(time.Second, zerolog.Nop(),
		NewReminderTask(ReminderWindow, store, d, WithClock(fixedClock(at("2024-06-01T13:30"))), WithLocation(time.UTC)))

	got := make(chan PassSummary, 4)
	r.Observe(func(s PassSummary) { got <- s })
	r.Start()
	defer func() { _ = r.Stop(context.Background()) }()

	select {
	case s := <-got:
		assert.Equal(t, KindReminder, s.Kind)
		assert.Equal(t, 1, s.Sent)
	case <-time.After(5 * time.Second):
		t.Fatal("no scheduled pass within 5s")
	}
}
