package controller

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgnsrekt/tabswipe/internal/counters"
	"github.com/dgnsrekt/tabswipe/internal/relay"
	"github.com/dgnsrekt/tabswipe/internal/triage"
)

// Driver is a CDP driver seen through the engine's collaborator interfaces.
type Driver interface {
	triage.TabSource
	triage.TabActuator
}

// Service owns one review session at a time and serializes access to it.
type Service struct {
	driver Driver
	store  counters.Store
	events *relay.Broker
	now    func() time.Time

	// mu guards everything below. Mutations take it with TryLock and fail
	// with BUSY; reads wait.
	mu        sync.Mutex
	engine    *triage.Engine
	sessionID string
	startedAt time.Time
	lifetime  int
	preview   bool
}

func NewService(driver Driver, store counters.Store, events *relay.Broker) *Service {
	return &Service{
		driver: driver,
		store:  store,
		events: events,
		now:    time.Now,
		engine: triage.NewEngine(driver),
	}
}

func (s *Service) lockMutation() error {
	if !s.mu.TryLock() {
		return newError(CodeBusy, "another action is in progress", nil)
	}
	return nil
}

// Start reads the persisted counters and loads a first session.
func (s *Service) Start(ctx context.Context) (State, error) {
	if err := s.lockMutation(); err != nil {
		return State{}, err
	}
	defer s.mu.Unlock()

	c, err := s.store.Load(ctx)
	if err != nil {
		slog.Warn("counters load failed, starting from zero", "error", err)
		c = counters.Counters{}
	}
	s.lifetime = c.TotalClosed
	s.preview = c.PreviewMode
	slog.Info("counters loaded", "lifetime_closed", s.lifetime, "preview_mode", s.preview)

	return s.reloadLocked(ctx)
}

// Reload starts a fresh session: new engine, cursor and session counters.
func (s *Service) Reload(ctx context.Context) (State, error) {
	if err := s.lockMutation(); err != nil {
		return State{}, err
	}
	defer s.mu.Unlock()
	return s.reloadLocked(ctx)
}

func (s *Service) reloadLocked(ctx context.Context) (State, error) {
	engine := triage.NewEngine(s.driver)
	visible, err := engine.LoadFrom(ctx, s.driver)
	if err != nil {
		slog.Error("session load failed", "error", err)
		return State{}, err
	}
	s.engine = engine
	s.sessionID = uuid.New().String()
	s.startedAt = s.now().UTC()

	slog.Info("session started", "session_id", s.sessionID, "visible", visible)
	s.afterMutation(ctx, "reload", fmt.Sprintf("loaded %d tabs", visible))
	return s.stateLocked(), nil
}

func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Service) Tabs() []triage.TabRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Records()
}

func (s *Service) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaryLocked()
}

// Close closes the current tab.
func (s *Service) Close(ctx context.Context) (Outcome, error) {
	if err := s.lockMutation(); err != nil {
		return Outcome{}, err
	}
	defer s.mu.Unlock()

	res, err := s.engine.Close(ctx, s.lifetime)
	if err != nil {
		s.publishAction("close", "failed: "+err.Error())
		return Outcome{}, err
	}
	s.setLifetime(ctx, res.NewLifetimeTotal)
	rec := res.Record
	s.afterMutation(ctx, "close", "closed "+rec.URL)
	return Outcome{Action: "close", Record: &rec, State: s.stateLocked()}, nil
}

// Keep keeps the current tab.
func (s *Service) Keep(ctx context.Context) (Outcome, error) {
	if err := s.lockMutation(); err != nil {
		return Outcome{}, err
	}
	defer s.mu.Unlock()

	rec, err := s.engine.Keep()
	if err != nil {
		return Outcome{}, err
	}
	s.afterMutation(ctx, "keep", "kept "+rec.URL)
	return Outcome{Action: "keep", Record: &rec, State: s.stateLocked()}, nil
}

// Undo reverses the last keep or single close.
func (s *Service) Undo(ctx context.Context) (Outcome, error) {
	if err := s.lockMutation(); err != nil {
		return Outcome{}, err
	}
	defer s.mu.Unlock()

	res, err := s.engine.Undo(ctx, s.lifetime)
	if err != nil {
		if !triage.HasCode(err, triage.CodeNoActionToUndo) {
			s.publishAction("undo", "failed: "+err.Error())
		}
		return Outcome{}, err
	}
	if res.WasClosed {
		s.setLifetime(ctx, res.NewLifetimeTotal)
	}
	rec := res.Record
	detail := "unkept " + rec.URL
	if res.WasClosed {
		detail = "reopened " + rec.URL
	}
	s.afterMutation(ctx, "undo", detail)
	return Outcome{Action: "undo", Record: &rec, WasClosed: res.WasClosed, State: s.stateLocked()}, nil
}

// CloseDuplicates closes every visible tab sharing the current tab's URL.
func (s *Service) CloseDuplicates(ctx context.Context) (Outcome, error) {
	if err := s.lockMutation(); err != nil {
		return Outcome{}, err
	}
	defer s.mu.Unlock()

	res := s.engine.CloseDuplicates(ctx, s.lifetime)
	if res.Closed > 0 {
		s.setLifetime(ctx, res.NewLifetimeTotal)
	}
	s.afterMutation(ctx, "close-duplicates", fmt.Sprintf("closed %d duplicates", res.Closed))
	return Outcome{Action: "close-duplicates", Closed: res.Closed, State: s.stateLocked()}, nil
}

// ApplyFilter restricts review to hostnames containing host. A blank host
// clears the filter.
func (s *Service) ApplyFilter(ctx context.Context, host string) (State, error) {
	if err := s.lockMutation(); err != nil {
		return State{}, err
	}
	defer s.mu.Unlock()

	host = strings.TrimSpace(host)
	if host == "" {
		s.engine.ClearFilter()
		s.afterMutation(ctx, "filter", "cleared")
		return s.stateLocked(), nil
	}
	visible := s.engine.ApplyFilter(host)
	s.afterMutation(ctx, "filter", fmt.Sprintf("%q matches %d tabs", s.engine.Filter().String(), visible))
	return s.stateLocked(), nil
}

func (s *Service) ClearFilter(ctx context.Context) (State, error) {
	return s.ApplyFilter(ctx, "")
}

// ContinueAll drops the filter so review resumes over every unprocessed tab.
func (s *Service) ContinueAll(ctx context.Context) (State, error) {
	if err := s.lockMutation(); err != nil {
		return State{}, err
	}
	defer s.mu.Unlock()

	visible := s.engine.ClearFilter()
	s.afterMutation(ctx, "continue-all", fmt.Sprintf("%d tabs left", visible))
	return s.stateLocked(), nil
}

func (s *Service) PreviewMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preview
}

// SetPreviewMode persists the flag. Turning it on activates the current tab.
func (s *Service) SetPreviewMode(ctx context.Context, on bool) (State, error) {
	if err := s.lockMutation(); err != nil {
		return State{}, err
	}
	defer s.mu.Unlock()

	s.preview = on
	if err := s.store.SavePreviewMode(ctx, on); err != nil {
		slog.Warn("counters save preview mode failed", "error", err)
	}
	s.afterMutation(ctx, "preview", fmt.Sprintf("preview mode %t", on))
	return s.stateLocked(), nil
}

// FocusCurrent brings the current tab to the front.
func (s *Service) FocusCurrent(ctx context.Context) (triage.TabRecord, error) {
	if err := s.lockMutation(); err != nil {
		return triage.TabRecord{}, err
	}
	defer s.mu.Unlock()

	cur, ok := s.engine.Current()
	if !ok {
		return triage.TabRecord{}, &triage.CodedError{Code: triage.CodeNoCurrentTab, Message: "no tab to focus"}
	}
	if err := s.driver.ActivateTab(ctx, cur.ID); err != nil {
		return triage.TabRecord{}, err
	}
	s.publishAction("focus", "focused "+cur.URL)
	return cur, nil
}

// setLifetime updates the cached total and persists it. Store failures are
// logged; the cache is authoritative for this process.
func (s *Service) setLifetime(ctx context.Context, n int) {
	s.lifetime = n
	if err := s.store.SaveLifetimeClosed(ctx, n); err != nil {
		slog.Warn("counters save lifetime closed failed", "lifetime_closed", n, "error", err)
	}
}

func (s *Service) afterMutation(ctx context.Context, action, detail string) {
	if s.preview {
		if cur, ok := s.engine.Current(); ok {
			if err := s.driver.ActivateTab(ctx, cur.ID); err != nil {
				slog.Warn("preview activate failed", "tab_id", cur.ID, "error", err)
			}
		}
	}
	s.publishAction(action, detail)
	if s.events != nil {
		s.events.PublishJSON(relay.FeedState, s.stateLocked())
	}
}

func (s *Service) publishAction(action, detail string) {
	slog.Debug("session action", "session_id", s.sessionID, "action", action, "detail", detail)
	if s.events == nil {
		return
	}
	s.events.PublishJSON(relay.FeedAction, ActionEvent{
		SessionID: s.sessionID,
		Action:    action,
		Detail:    detail,
		At:        s.now().UTC(),
	})
}
