package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/provider-portal/modules/provider/domain/entities/syncresult"
)

type triggerFunc func(ctx context.Context, source string) (*syncresult.Result, error)

func (f triggerFunc) Trigger(ctx context.Context, source string) (*syncresult.Result, error) {
	return f(ctx, source)
}

func TestNewScheduler_RejectsBadSpec(t *testing.T) {
	_, err := NewScheduler(triggerFunc(nil), SchedulerOptions{Spec: "every morning"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid sync schedule")

	_, err = NewScheduler(triggerFunc(nil), SchedulerOptions{Spec: "0 7 * * *"})
	require.Error(t, err, "five-field specs lack the seconds field")
}

func TestScheduler_RunOnStartup(t *testing.T) {
	sources := make(chan string, 1)
	trigger := triggerFunc(func(ctx context.Context, source string) (*syncresult.Result, error) {
		sources <- source
		return syncresult.New(), nil
	})

	s, err := NewScheduler(trigger, SchedulerOptions{RunOnStartup: true})
	require.NoError(t, err)
	s.Start()

	select {
	case src := <-sources:
		require.Equal(t, SourceScheduler, src)
	case <-time.After(time.Second):
		t.Fatal("startup run did not fire")
	}
	require.False(t, s.Next().IsZero())
	require.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_TicksOnSchedule(t *testing.T) {
	calls := make(chan struct{}, 8)
	trigger := triggerFunc(func(ctx context.Context, source string) (*syncresult.Result, error) {
		calls <- struct{}{}
		return nil, errors.New("registry down")
	})

	s, err := NewScheduler(trigger, SchedulerOptions{Spec: "* * * * * *"})
	require.NoError(t, err)
	s.Start()

	select {
	case <-calls:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled tick did not fire")
	}
	require.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_StopWaitsForRunningTick(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	trigger := triggerFunc(func(ctx context.Context, source string) (*syncresult.Result, error) {
		close(started)
		<-release
		return syncresult.New(), nil
	})

	s, err := NewScheduler(trigger, SchedulerOptions{RunOnStartup: true})
	require.NoError(t, err)
	s.Start()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Error(t, s.Stop(ctx))

	close(release)
	require.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_RunNow(t *testing.T) {
	trigger := triggerFunc(func(ctx context.Context, source string) (*syncresult.Result, error) {
		res := syncresult.New()
		res.FirmsCreated = 1
		return res, nil
	})
	s, err := NewScheduler(trigger, SchedulerOptions{})
	require.NoError(t, err)

	res, err := s.RunNow(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.FirmsCreated)
}
