package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"PublicationsMonitor/internal/domain"
	"PublicationsMonitor/internal/notifier"
	"PublicationsMonitor/internal/patterns"
	"PublicationsMonitor/internal/ports"
)

type staticSource struct {
	pubs []domain.Publication
}

func (s staticSource) Fetch(context.Context) []domain.Publication {
	return s.pubs
}

type memoryStore struct {
	mu      sync.Mutex
	state   domain.KnownPublications
	loadErr error
	saveErr error
	saves   int
}

func (s *memoryStore) Load(context.Context) (domain.KnownPublications, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := domain.KnownPublications{}
	if s.loadErr != nil {
		return out, s.loadErr
	}
	for k, v := range s.state {
		out[k] = v
	}
	return out, nil
}

func (s *memoryStore) Save(_ context.Context, state domain.KnownPublications) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.state = domain.KnownPublications{}
	for k, v := range state {
		s.state[k] = v
	}
	return nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	err   error
	calls [][]domain.Publication
}

func (n *recordingNotifier) Notify(_ context.Context, pubs []domain.Publication) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, pubs)
	return n.err
}

var (
	checkTime = time.Date(2025, time.June, 23, 7, 0, 0, 0, time.UTC)
	fsr       = domain.Publication{
		PubID:     "financial_stability_report",
		Title:     "Financial Stability Report – June 2025",
		DateText:  "12th of June 2025",
		Priority:  domain.PriorityHighest,
		SourceTag: "h2",
	}
	mbs = domain.Publication{
		PubID:     "monthly_business_survey",
		Title:     "Monthly Business Survey – beginning of June 2025",
		Priority:  domain.PriorityHigh,
		SourceTag: domain.SourceTextSearch,
	}
)

func newTestMonitor(source staticSource, store *memoryStore, n *recordingNotifier, mode domain.DedupeMode) *Monitor {
	return NewMonitor(MonitorDeps{
		Source:   source,
		Store:    store,
		Notifier: n,
		Mode:     mode,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:      func() time.Time { return checkTime },
	})
}

func TestCheckFirstRunNotifiesAndRecords(t *testing.T) {
	t.Parallel()

	store := &memoryStore{}
	n := &recordingNotifier{}
	m := newTestMonitor(staticSource{pubs: []domain.Publication{fsr, mbs}}, store, n, "")

	res, err := m.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, CheckResult{Found: 2, Pending: 2, Notified: 2}, res)
	require.Len(t, n.calls, 1)
	require.Equal(t, []domain.Publication{fsr, mbs}, n.calls[0])

	require.Len(t, store.state, 2)
	require.Equal(t, checkTime, store.state[fsr.Key()].FirstSeen)
}

func TestCheckFilterSeenSkipsKnown(t *testing.T) {
	t.Parallel()

	store := &memoryStore{state: domain.KnownPublications{}}
	store.state.Record(fsr, checkTime.Add(-24*time.Hour))
	n := &recordingNotifier{}
	m := newTestMonitor(staticSource{pubs: []domain.Publication{fsr, mbs}}, store, n, domain.DedupeFilterSeen)

	res, err := m.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, CheckResult{Found: 2, Pending: 1, Notified: 1}, res)
	require.Equal(t, []domain.Publication{mbs}, n.calls[0])

	res, err = m.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, CheckResult{Found: 2}, res)
	require.Len(t, n.calls, 1, "nothing new on the second run")
	require.Equal(t, 2, store.saves, "state saved after every check")
}

func TestCheckNeverFilterResendsKnown(t *testing.T) {
	t.Parallel()

	firstSeen := checkTime.Add(-24 * time.Hour)
	store := &memoryStore{state: domain.KnownPublications{}}
	store.state.Record(fsr, firstSeen)
	n := &recordingNotifier{}
	m := newTestMonitor(staticSource{pubs: []domain.Publication{fsr}}, store, n, domain.DedupeNeverFilter)

	res, err := m.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, CheckResult{Found: 1, Pending: 1, Notified: 1}, res)
	require.Len(t, n.calls, 1)
	require.Equal(t, firstSeen, store.state[fsr.Key()].FirstSeen, "first-seen time is kept")
}

func TestCheckSendFailureRecordsNothing(t *testing.T) {
	t.Parallel()

	boom := errors.New("smtp unavailable")
	store := &memoryStore{}
	n := &recordingNotifier{err: boom}
	m := newTestMonitor(staticSource{pubs: []domain.Publication{fsr}}, store, n, "")

	res, err := m.Check(context.Background())
	require.ErrorIs(t, err, boom)
	require.Equal(t, CheckResult{Found: 1, Pending: 1}, res)
	require.Empty(t, store.state)
	require.Equal(t, 1, store.saves)

	n.err = nil
	res, err = m.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Notified, "unsent records are retried next cycle")
}

func TestCheckNothingFound(t *testing.T) {
	t.Parallel()

	store := &memoryStore{}
	n := &recordingNotifier{}
	m := newTestMonitor(staticSource{}, store, n, "")

	res, err := m.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, CheckResult{}, res)
	require.Empty(t, n.calls)
	require.Equal(t, 1, store.saves)
}

func TestCheckStorageErrorsAreNotFatal(t *testing.T) {
	t.Parallel()

	store := &memoryStore{loadErr: errors.New("corrupt"), saveErr: errors.New("disk full")}
	n := &recordingNotifier{}
	m := newTestMonitor(staticSource{pubs: []domain.Publication{fsr}}, store, n, "")

	res, err := m.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Notified)
}

func TestSendTestLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	store := &memoryStore{}
	n := &recordingNotifier{}
	m := newTestMonitor(staticSource{}, store, n, "")

	require.NoError(t, m.SendTest(context.Background()))
	require.Len(t, n.calls, 1)
	require.Len(t, n.calls[0], 1)
	require.Equal(t, domain.PriorityTest, n.calls[0][0].Priority)
	require.Equal(t, domain.SourceManualTest, n.calls[0][0].SourceTag)
	require.Zero(t, store.saves)

	n.err = errors.New("boom")
	require.Error(t, m.SendTest(context.Background()))
}

type blockingSource struct {
	active  atomic.Int32
	overlap atomic.Bool
}

func (s *blockingSource) Fetch(context.Context) []domain.Publication {
	if s.active.Add(1) > 1 {
		s.overlap.Store(true)
	}
	time.Sleep(10 * time.Millisecond)
	s.active.Add(-1)
	return nil
}

func TestCheckIsSerialized(t *testing.T) {
	t.Parallel()

	source := &blockingSource{}
	m := NewMonitor(MonitorDeps{
		Source:   source,
		Store:    &memoryStore{},
		Notifier: &recordingNotifier{},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Check(context.Background())
		}()
	}
	wg.Wait()
	require.False(t, source.overlap.Load())
}

type flakySender struct {
	name  string
	fail  bool
	sends int
}

func (s *flakySender) Name() string { return s.name }

func (s *flakySender) Send(context.Context, domain.Message) error {
	s.sends++
	if s.fail {
		return errors.New(s.name + " unavailable")
	}
	return nil
}

func TestCheckPartialSendFailureResendsEveryChannel(t *testing.T) {
	t.Parallel()

	mail := &flakySender{name: "smtp"}
	chat := &flakySender{name: "telegram", fail: true}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := &memoryStore{}
	m := NewMonitor(MonitorDeps{
		Source:   staticSource{pubs: []domain.Publication{fsr}},
		Store:    store,
		Notifier: notifier.New(patterns.Default(), []ports.Sender{mail, chat}, notifier.Options{SourceName: "Banque de France"}, logger),
		Logger:   logger,
		Now:      func() time.Time { return checkTime },
	})

	_, err := m.Check(context.Background())
	require.ErrorContains(t, err, "telegram")
	require.Empty(t, store.state, "a partial failure records nothing")

	chat.fail = false
	res, err := m.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Notified)
	require.Equal(t, 2, mail.sends, "the working channel receives the publication again")
	require.Equal(t, 2, chat.sends)
	require.Len(t, store.state, 1)
}
