package controller

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/tabswipe/internal/counters"
	"github.com/dgnsrekt/tabswipe/internal/relay"
	"github.com/dgnsrekt/tabswipe/internal/triage"
)

type fakeDriver struct {
	mu        sync.Mutex
	tabs      []triage.TabSnapshot
	listErr   error
	closeErr  error
	activated []triage.TabID
	closed    []triage.TabID
	restored  []triage.UndoToken
}

func (f *fakeDriver) ListTabs(ctx context.Context) ([]triage.TabSnapshot, error) {
	return f.tabs, f.listErr
}

func (f *fakeDriver) CloseTab(ctx context.Context, id triage.TabID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closeErr != nil {
		return f.closeErr
	}
	f.closed = append(f.closed, id)
	return nil
}

func (f *fakeDriver) MostRecentlyClosed(ctx context.Context) (triage.UndoToken, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.closed) == 0 {
		return "", false
	}
	return triage.UndoToken("tok-" + string(f.closed[len(f.closed)-1])), true
}

func (f *fakeDriver) RestoreByToken(ctx context.Context, token triage.UndoToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restored = append(f.restored, token)
	return nil
}

func (f *fakeDriver) ActivateTab(ctx context.Context, id triage.TabID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activated = append(f.activated, id)
	return nil
}

func (f *fakeDriver) activations() []triage.TabID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]triage.TabID(nil), f.activated...)
}

type failingStore struct{}

func (s *failingStore) Load(ctx context.Context) (counters.Counters, error) {
	return counters.Counters{}, errors.New("disk gone")
}
func (s *failingStore) SaveLifetimeClosed(ctx context.Context, n int) error {
	return errors.New("disk gone")
}
func (s *failingStore) SavePreviewMode(ctx context.Context, on bool) error {
	return errors.New("disk gone")
}
func (s *failingStore) Close() error { return nil }

func tabs() []triage.TabSnapshot {
	return []triage.TabSnapshot{
		{ID: "a", URL: "https://a.com/1", Title: "A"},
		{ID: "dup", URL: "https://a.com/1", Title: "A again"},
		{ID: "b", URL: "https://b.org", Title: "B"},
		{ID: "active", URL: "https://now.com", Active: true},
	}
}

func newTestService(t *testing.T, d *fakeDriver) (*Service, counters.Store) {
	t.Helper()
	store, err := counters.NewFileStore(filepath.Join(t.TempDir(), "counters.json"))
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if err := store.SaveLifetimeClosed(context.Background(), 5); err != nil {
		t.Fatalf("SaveLifetimeClosed() error = %v", err)
	}
	s := NewService(d, store, relay.NewBroker())
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	if _, err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return s, store
}

func TestStartLoadsCountersAndExcludesActive(t *testing.T) {
	s, _ := newTestService(t, &fakeDriver{tabs: tabs()})
	st := s.State()
	if st.LifetimeClosed != 5 {
		t.Fatalf("LifetimeClosed = %d; want 5", st.LifetimeClosed)
	}
	if st.Visible != 3 || st.Total != 3 {
		t.Fatalf("Visible/Total = %d/%d; want 3/3", st.Visible, st.Total)
	}
	if st.Current == nil || st.Current.ID != "a" || st.Next == nil || st.Next.ID != "dup" {
		t.Fatalf("Current/Next = %+v/%+v; want a/dup", st.Current, st.Next)
	}
	if st.Duplicates != 1 {
		t.Fatalf("Duplicates = %d; want 1", st.Duplicates)
	}
	if st.SessionID == "" {
		t.Fatalf("SessionID empty")
	}
}

func TestClosePersistsLifetimeAndUndoRestoresIt(t *testing.T) {
	s, store := newTestService(t, &fakeDriver{tabs: tabs()})
	ctx := context.Background()

	out, err := s.Close(ctx)
	if err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if out.State.LifetimeClosed != 6 {
		t.Fatalf("LifetimeClosed = %d; want 6", out.State.LifetimeClosed)
	}
	if c, _ := store.Load(ctx); c.TotalClosed != 6 {
		t.Fatalf("stored TotalClosed = %d; want 6", c.TotalClosed)
	}

	out, err = s.Undo(ctx)
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if !out.WasClosed || out.State.LifetimeClosed != 5 {
		t.Fatalf("Undo() = %+v; want WasClosed and lifetime 5", out)
	}
	if c, _ := store.Load(ctx); c.TotalClosed != 5 {
		t.Fatalf("stored TotalClosed = %d; want 5", c.TotalClosed)
	}
}

func TestUndoKeepLeavesLifetime(t *testing.T) {
	s, _ := newTestService(t, &fakeDriver{tabs: tabs()})
	ctx := context.Background()
	if _, err := s.Keep(ctx); err != nil {
		t.Fatalf("Keep() error = %v", err)
	}
	out, err := s.Undo(ctx)
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if out.WasClosed || out.State.LifetimeClosed != 5 || out.State.Kept != 0 {
		t.Fatalf("Undo() = %+v; want kept undo", out)
	}
	if _, err := s.Undo(ctx); !triage.HasCode(err, triage.CodeNoActionToUndo) {
		t.Fatalf("second Undo() error = %v; want %s", err, triage.CodeNoActionToUndo)
	}
}

func TestCloseDuplicatesUpdatesLifetime(t *testing.T) {
	s, _ := newTestService(t, &fakeDriver{tabs: tabs()})
	out, err := s.CloseDuplicates(context.Background())
	if err != nil {
		t.Fatalf("CloseDuplicates() error = %v", err)
	}
	if out.Closed != 1 || out.State.LifetimeClosed != 6 || out.State.CanUndo {
		t.Fatalf("CloseDuplicates() = %+v; want 1 closed, lifetime 6, no undo", out)
	}
}

func TestStoreFailureIsNotFatal(t *testing.T) {
	d := &fakeDriver{tabs: tabs()}
	s := NewService(d, &failingStore{}, nil)
	ctx := context.Background()
	if _, err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	out, err := s.Close(ctx)
	if err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if out.State.LifetimeClosed != 1 {
		t.Fatalf("LifetimeClosed = %d; want cached 1", out.State.LifetimeClosed)
	}
}

func TestFilterSummaryAndContinueAll(t *testing.T) {
	s, _ := newTestService(t, &fakeDriver{tabs: tabs()})
	ctx := context.Background()

	st, err := s.ApplyFilter(ctx, " B.ORG ")
	if err != nil {
		t.Fatalf("ApplyFilter() error = %v", err)
	}
	if st.Filter != "b.org" || st.Visible != 1 {
		t.Fatalf("ApplyFilter() state = %+v; want b.org with 1 visible", st)
	}
	if _, err := s.Keep(ctx); err != nil {
		t.Fatalf("Keep() error = %v", err)
	}
	sum := s.Summary()
	if !sum.FilterActive || !sum.ContinueAllOffered || sum.Unprocessed != 2 || sum.Kept != 1 {
		t.Fatalf("Summary() = %+v; want continue-all offered", sum)
	}
	if s.State().Done != true {
		t.Fatalf("State().Done = false; want true")
	}

	st, err = s.ContinueAll(ctx)
	if err != nil {
		t.Fatalf("ContinueAll() error = %v", err)
	}
	if st.Filter != "" || st.Visible != 2 || st.Current.ID != "a" {
		t.Fatalf("ContinueAll() state = %+v; want unfiltered a", st)
	}

	if _, err := s.ApplyFilter(ctx, "a.com"); err != nil {
		t.Fatalf("ApplyFilter() error = %v", err)
	}
	st, err = s.ApplyFilter(ctx, "   ")
	if err != nil || st.Filter != "" {
		t.Fatalf("ApplyFilter(blank) = %+v, %v; want cleared", st, err)
	}
}

func TestPreviewModeActivatesCurrent(t *testing.T) {
	d := &fakeDriver{tabs: tabs()}
	s, store := newTestService(t, d)
	ctx := context.Background()

	if _, err := s.SetPreviewMode(ctx, true); err != nil {
		t.Fatalf("SetPreviewMode() error = %v", err)
	}
	if c, _ := store.Load(ctx); !c.PreviewMode {
		t.Fatalf("stored PreviewMode = false; want true")
	}
	if _, err := s.Keep(ctx); err != nil {
		t.Fatalf("Keep() error = %v", err)
	}
	got := d.activations()
	if len(got) != 2 || got[0] != "a" || got[1] != "dup" {
		t.Fatalf("activations = %v; want [a dup]", got)
	}

	if _, err := s.SetPreviewMode(ctx, false); err != nil {
		t.Fatalf("SetPreviewMode(false) error = %v", err)
	}
	_, _ = s.Keep(ctx)
	if n := len(d.activations()); n != 2 {
		t.Fatalf("activations = %d after preview off; want 2", n)
	}
}

func TestFocusCurrent(t *testing.T) {
	d := &fakeDriver{tabs: []triage.TabSnapshot{{ID: "only", URL: "https://x.com"}}}
	s, _ := newTestService(t, d)
	ctx := context.Background()
	rec, err := s.FocusCurrent(ctx)
	if err != nil || rec.ID != "only" {
		t.Fatalf("FocusCurrent() = %v, %v; want only", rec.ID, err)
	}
	_, _ = s.Keep(ctx)
	if _, err := s.FocusCurrent(ctx); !triage.HasCode(err, triage.CodeNoCurrentTab) {
		t.Fatalf("FocusCurrent() error = %v; want %s", err, triage.CodeNoCurrentTab)
	}
}

func TestConcurrentMutationIsBusy(t *testing.T) {
	s, _ := newTestService(t, &fakeDriver{tabs: tabs()})
	ctx := context.Background()

	// Hold the session lock as an in-flight action would.
	s.mu.Lock()
	_, err := s.Keep(ctx)
	var coded *CodedError
	if !errors.As(err, &coded) || coded.Code != CodeBusy {
		s.mu.Unlock()
		t.Fatalf("Keep() error = %v; want %s", err, CodeBusy)
	}
	if _, err := s.ApplyFilter(ctx, "a.com"); !errors.As(err, &coded) || coded.Code != CodeBusy {
		s.mu.Unlock()
		t.Fatalf("ApplyFilter() error = %v; want %s", err, CodeBusy)
	}
	s.mu.Unlock()

	if st := s.State(); st.Kept != 0 || st.Filter != "" {
		t.Fatalf("State() = %+v; want untouched session", st)
	}
	if _, err := s.Keep(ctx); err != nil {
		t.Fatalf("Keep() after release error = %v", err)
	}
}

func TestReloadStartsFreshSession(t *testing.T) {
	s, _ := newTestService(t, &fakeDriver{tabs: tabs()})
	ctx := context.Background()
	first := s.State().SessionID
	_, _ = s.Keep(ctx)
	st, err := s.Reload(ctx)
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if st.SessionID == first || st.Kept != 0 || st.LifetimeClosed != 5 {
		t.Fatalf("Reload() state = %+v; want new session with zero session counters", st)
	}
}

func TestReloadFailureKeepsSession(t *testing.T) {
	d := &fakeDriver{tabs: tabs()}
	s, _ := newTestService(t, d)
	before := s.State()
	d.listErr = errors.New("cdp down")
	if _, err := s.Reload(context.Background()); !triage.HasCode(err, triage.CodeSourceFailed) {
		t.Fatalf("Reload() error = %v; want %s", err, triage.CodeSourceFailed)
	}
	if s.State().SessionID != before.SessionID {
		t.Fatalf("session replaced after failed reload")
	}
}

func TestMutationsPublishEvents(t *testing.T) {
	d := &fakeDriver{tabs: tabs()}
	broker := relay.NewBroker()
	store, _ := counters.NewFileStore(filepath.Join(t.TempDir(), "c.json"))
	s := NewService(d, store, broker)
	id, ch := broker.Subscribe()
	defer broker.Unsubscribe(id)

	if _, err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	feeds := map[string]int{}
	for len(ch) > 0 {
		evt := <-ch
		feeds[evt.Feed]++
	}
	if feeds[relay.FeedState] != 1 || feeds[relay.FeedAction] != 1 {
		t.Fatalf("feeds = %v; want one state and one action", feeds)
	}
}
