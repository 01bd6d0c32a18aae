package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"messmate/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd(t *testing.T) {
	s := NewScheduler(logger.Discard())
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Add(Job{Name: "reconcile", Spec: "@every 1h", Run: noop}))
	require.NoError(t, s.Add(Job{Name: "disabled", Spec: "", Run: noop}))
	assert.Error(t, s.Add(Job{Name: "broken", Spec: "every tuesday", Run: noop}))

	assert.Equal(t, 1, s.Len())
}

func TestRunOnceAppliesTimeout(t *testing.T) {
	s := NewScheduler(logger.Discard())

	var deadline time.Time
	var hasDeadline bool
	s.runOnce(Job{Name: "probe", Run: func(ctx context.Context) error {
		deadline, hasDeadline = ctx.Deadline()
		return errors.New("boom")
	}}, time.Second)

	require.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(logger.Discard())
	ran := make(chan struct{}, 1)
	require.NoError(t, s.Add(Job{Name: "tick", Spec: "@every 1s", Run: func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}}))

	s.Start()
	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestFields(t *testing.T) {
	f := fields([]interface{}{"entry", 1, "next", "soon", "dangling"})
	assert.Equal(t, 1, f["entry"])
	assert.Equal(t, "soon", f["next"])
	assert.Len(t, f, 2)
}
