package usecase

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"PublicationsMonitor/internal/domain"
)

type manualDriver struct {
	job     func(time.Time)
	stopped bool
}

func (d *manualDriver) Start(_ context.Context, job func(time.Time)) error {
	d.job = job
	return nil
}

func (d *manualDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerRunsCheckOnTrigger(t *testing.T) {
	t.Parallel()

	n := &recordingNotifier{}
	store := &memoryStore{}
	m := newTestMonitor(staticSource{pubs: []domain.Publication{fsr}}, store, n, "")
	driver := &manualDriver{}
	s := NewScheduler(driver, m, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, s.Start(context.Background()))
	require.NotNil(t, driver.job)

	driver.job(checkTime)
	require.Len(t, n.calls, 1)
	require.Len(t, store.state, 1)

	require.NoError(t, s.Stop(context.Background()))
	require.True(t, driver.stopped)
}

func TestSchedulerWithoutDriver(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil, nil, nil)
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}
