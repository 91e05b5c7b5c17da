package triage

import (
	"cmp"
	"context"
	"iter"
	"log/slog"
	"slices"
)

// CloseResult is returned by a successful Close.
type CloseResult struct {
	Record           TabRecord `json:"record"`
	NewLifetimeTotal int       `json:"new_lifetime_total"`
}

// UndoResult is returned by a successful Undo.
type UndoResult struct {
	Record           TabRecord `json:"record"`
	WasClosed        bool      `json:"was_closed"`
	NewLifetimeTotal int       `json:"new_lifetime_total"`
}

// DuplicatesResult is returned by CloseDuplicates.
type DuplicatesResult struct {
	Closed           int `json:"closed"`
	NewLifetimeTotal int `json:"new_lifetime_total"`
}

// Engine is the tab review state machine for one session.
//
// The cursor indexes the visible sequence (unprocessed records that pass the
// filter), not the record slice. Keeping or closing the current record drops
// it out of that sequence, so the next record slides into the cursor's slot
// without the cursor moving. Only filter changes reset the cursor. Never
// advance the cursor after a disposition; that skips a record.
//
// Engine is not safe for concurrent use. Callers serialize mutations.
type Engine struct {
	actuator TabActuator

	records    []*TabRecord
	cursor     int
	filter     Filter
	lastAction *TabRecord

	closed int
	kept   int
}

// NewEngine returns an empty engine that acts on tabs through actuator.
func NewEngine(actuator TabActuator) *Engine {
	return &Engine{actuator: actuator}
}

// Load replaces the working set with tabs, minus the tab excludeID, ordered by
// ascending last activity. Tabs without a timestamp sort first. Session
// counters are left alone. It returns the visible count.
func (e *Engine) Load(tabs []TabSnapshot, excludeID TabID) int {
	kept := make([]TabSnapshot, 0, len(tabs))
	for _, t := range tabs {
		if excludeID != "" && t.ID == excludeID {
			continue
		}
		kept = append(kept, t)
	}
	slices.SortStableFunc(kept, func(a, b TabSnapshot) int {
		return cmp.Compare(lastActiveMillis(a.LastActiveAt), lastActiveMillis(b.LastActiveAt))
	})

	e.records = make([]*TabRecord, 0, len(kept))
	for _, t := range kept {
		e.records = append(e.records, newRecord(t))
	}
	e.cursor = 0
	e.lastAction = nil

	slog.Debug("triage load", "listed", len(tabs), "loaded", len(e.records), "excluded_id", excludeID)
	return e.VisibleCount()
}

// LoadFrom lists tabs from src and loads them, excluding the active tab.
func (e *Engine) LoadFrom(ctx context.Context, src TabSource) (int, error) {
	tabs, err := src.ListTabs(ctx)
	if err != nil {
		return 0, newError(CodeSourceFailed, "list tabs failed", err)
	}
	var active TabID
	for _, t := range tabs {
		if t.Active {
			active = t.ID
			break
		}
	}
	return e.Load(tabs, active), nil
}

func (e *Engine) visible() iter.Seq[*TabRecord] {
	return func(yield func(*TabRecord) bool) {
		for _, r := range e.records {
			if r.Processed() || !e.filter.Matches(*r) {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

// Visible yields the unprocessed records that pass the filter, in record
// order. The sequence is recomputed on every iteration.
func (e *Engine) Visible() iter.Seq[TabRecord] {
	return func(yield func(TabRecord) bool) {
		for r := range e.visible() {
			if !yield(*r) {
				return
			}
		}
	}
}

func (e *Engine) visibleAt(i int) *TabRecord {
	if i < 0 {
		return nil
	}
	n := 0
	for r := range e.visible() {
		if n == i {
			return r
		}
		n++
	}
	return nil
}

func (e *Engine) current() *TabRecord { return e.visibleAt(e.cursor) }

// Current returns the record under review.
func (e *Engine) Current() (TabRecord, bool) {
	r := e.current()
	if r == nil {
		return TabRecord{}, false
	}
	return *r, true
}

// PeekNext returns the record after the current one without changing state.
func (e *Engine) PeekNext() (TabRecord, bool) {
	r := e.visibleAt(e.cursor + 1)
	if r == nil {
		return TabRecord{}, false
	}
	return *r, true
}

func (e *Engine) duplicatesOfCurrent() []*TabRecord {
	cur := e.current()
	if cur == nil {
		return nil
	}
	var dupes []*TabRecord
	for r := range e.visible() {
		if r != cur && r.URL == cur.URL {
			dupes = append(dupes, r)
		}
	}
	return dupes
}

// DuplicatesOfCurrent returns the other visible records whose URL equals the
// current record's URL exactly.
func (e *Engine) DuplicatesOfCurrent() []TabRecord {
	dupes := e.duplicatesOfCurrent()
	out := make([]TabRecord, 0, len(dupes))
	for _, r := range dupes {
		out = append(out, *r)
	}
	return out
}

func (e *Engine) VisibleCount() int {
	n := 0
	for range e.visible() {
		n++
	}
	return n
}

// UnprocessedCount counts unprocessed records regardless of the filter.
func (e *Engine) UnprocessedCount() int {
	n := 0
	for _, r := range e.records {
		if !r.Processed() {
			n++
		}
	}
	return n
}

// Records returns every loaded record in review order.
func (e *Engine) Records() []TabRecord {
	out := make([]TabRecord, 0, len(e.records))
	for _, r := range e.records {
		out = append(out, *r)
	}
	return out
}

func (e *Engine) Total() int       { return len(e.records) }
func (e *Engine) ClosedCount() int { return e.closed }
func (e *Engine) KeptCount() int   { return e.kept }
func (e *Engine) Filter() Filter   { return e.filter }
func (e *Engine) CanUndo() bool    { return e.lastAction != nil }

// Close closes the current tab through the actuator. On failure nothing
// changes. The cursor is not advanced.
func (e *Engine) Close(ctx context.Context, lifetimeClosed int) (CloseResult, error) {
	rec := e.current()
	if rec == nil {
		return CloseResult{}, newError(CodeNoCurrentTab, "no tab to close", nil)
	}

	if err := guard(func() error { return e.actuator.CloseTab(ctx, rec.ID) }); err != nil {
		slog.Warn("triage close failed", "tab_id", rec.ID, "error", err)
		return CloseResult{}, newError(CodeCloseFailed, "close tab failed", err)
	}

	rec.Disposition = ClosedWithToken(e.recentToken(ctx))
	e.closed++
	e.lastAction = rec

	_, undoable := rec.Disposition.Token()
	slog.Debug("triage close", "tab_id", rec.ID, "undoable", undoable)
	return CloseResult{Record: *rec, NewLifetimeTotal: lifetimeClosed + 1}, nil
}

func (e *Engine) recentToken(ctx context.Context) UndoToken {
	var token UndoToken
	err := guard(func() error {
		t, ok := e.actuator.MostRecentlyClosed(ctx)
		if ok {
			token = t
		}
		return nil
	})
	if err != nil {
		slog.Debug("triage undo token lookup failed", "error", err)
		return ""
	}
	return token
}

// Keep marks the current record kept. No actuator call is made.
func (e *Engine) Keep() (TabRecord, error) {
	rec := e.current()
	if rec == nil {
		return TabRecord{}, newError(CodeNoCurrentTab, "no tab to keep", nil)
	}
	rec.Disposition = KeptDisposition()
	e.kept++
	e.lastAction = rec
	return *rec, nil
}

// CloseDuplicates closes every visible duplicate of the current record, one
// at a time in visible order. Failures are skipped. Bulk closes are not
// undoable and do not touch the undo slot.
func (e *Engine) CloseDuplicates(ctx context.Context, lifetimeClosed int) DuplicatesResult {
	dupes := e.duplicatesOfCurrent()
	closed := 0
	for _, rec := range dupes {
		if err := guard(func() error { return e.actuator.CloseTab(ctx, rec.ID) }); err != nil {
			slog.Warn("triage duplicate close failed", "tab_id", rec.ID, "url", rec.URL, "error", err)
			continue
		}
		rec.Disposition = ClosedTerminal()
		e.closed++
		closed++
	}
	if len(dupes) > 0 {
		slog.Debug("triage close duplicates", "found", len(dupes), "closed", closed)
	}
	return DuplicatesResult{Closed: closed, NewLifetimeTotal: lifetimeClosed + closed}
}

// Undo reverses the most recent keep or single close.
func (e *Engine) Undo(ctx context.Context, lifetimeClosed int) (UndoResult, error) {
	rec := e.lastAction
	if rec == nil {
		return UndoResult{}, newError(CodeNoActionToUndo, "nothing to undo", nil)
	}

	switch rec.Disposition.kind {
	case Kept:
		rec.Disposition = NotProcessed()
		e.kept--
		e.lastAction = nil
		return UndoResult{Record: *rec, NewLifetimeTotal: lifetimeClosed}, nil

	case Closed:
		token, ok := rec.Disposition.Token()
		if !ok {
			return UndoResult{}, newError(CodeRestoreFailed, "closed tab has no undo token", nil)
		}
		if err := guard(func() error { return e.actuator.RestoreByToken(ctx, token) }); err != nil {
			slog.Warn("triage restore failed", "tab_id", rec.ID, "error", err)
			return UndoResult{}, newError(CodeRestoreFailed, "restore tab failed", err)
		}
		rec.Disposition = NotProcessed()
		e.closed--
		e.lastAction = nil
		return UndoResult{Record: *rec, WasClosed: true, NewLifetimeTotal: lifetimeClosed - 1}, nil
	}

	// An unprocessed record in the undo slot cannot happen through the
	// public operations; drop it.
	e.lastAction = nil
	return UndoResult{}, newError(CodeNoActionToUndo, "nothing to undo", nil)
}

// ApplyFilter restricts the visible sequence to hostnames containing host.
// Dispositions and counters are untouched.
func (e *Engine) ApplyFilter(host string) int {
	e.filter = NewFilter(host)
	e.cursor = 0
	return e.VisibleCount()
}

// ClearFilter removes the filter.
func (e *Engine) ClearFilter() int {
	e.filter = Filter{}
	e.cursor = 0
	return e.VisibleCount()
}
