package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/squad-service/internal/config"
	"github.com/spec-kit/squad-service/internal/observability"
	"github.com/spec-kit/squad-service/internal/service"
)

type fakeDispatcher struct {
	calls  int
	report service.DispatchReport
	err    error
}

func (f *fakeDispatcher) DispatchDue(context.Context) (service.DispatchReport, error) {
	f.calls++
	return f.report, f.err
}

func TestRunOnceReportsOutcome(t *testing.T) {
	dispatcher := &fakeDispatcher{report: service.DispatchReport{Claimed: 3, Sent: 2, Failed: 1}}
	w, err := NewScheduledCallupWorker(config.SchedulerConfig{Spec: "@every 1m"}, dispatcher, nil, observability.NewMetrics("test"))
	require.NoError(t, err)

	report, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, dispatcher.calls)
	assert.Equal(t, 2, report.Sent)
	assert.Equal(t, 1, report.Failed)
}

func TestRunOncePropagatesError(t *testing.T) {
	dispatcher := &fakeDispatcher{err: errors.New("db down")}
	w, err := NewScheduledCallupWorker(config.SchedulerConfig{Spec: "*/5 * * * *"}, dispatcher, nil, nil)
	require.NoError(t, err)

	_, err = w.RunOnce(context.Background())
	assert.EqualError(t, err, "db down")
}

func TestInvalidSpec(t *testing.T) {
	_, err := NewScheduledCallupWorker(config.SchedulerConfig{Spec: "every now and then"}, &fakeDispatcher{}, nil, nil)
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	w, err := NewScheduledCallupWorker(config.SchedulerConfig{Spec: "@every 1h"}, &fakeDispatcher{}, nil, nil)
	require.NoError(t, err)
	w.Start()
	w.Stop(context.Background())
}
