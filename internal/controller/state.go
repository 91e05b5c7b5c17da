package controller

import (
	"time"

	"github.com/dgnsrekt/tabswipe/internal/triage"
)

// Card is a record as shown in the review view.
type Card struct {
	triage.TabRecord
	Age *triage.RelativeAge `json:"age,omitempty"`
}

// State is a read-only view of the session.
type State struct {
	SessionID      string    `json:"session_id"`
	StartedAt      time.Time `json:"started_at"`
	Current        *Card     `json:"current,omitempty"`
	Next           *Card     `json:"next,omitempty"`
	Duplicates     int       `json:"duplicates"`
	Visible        int       `json:"visible"`
	Unprocessed    int       `json:"unprocessed"`
	Total          int       `json:"total"`
	Closed         int       `json:"closed"`
	Kept           int       `json:"kept"`
	LifetimeClosed int       `json:"lifetime_closed"`
	Filter         string    `json:"filter,omitempty"`
	CanUndo        bool      `json:"can_undo"`
	PreviewMode    bool      `json:"preview_mode"`
	Done           bool      `json:"done"`
}

// Summary is shown when the visible sequence runs out.
type Summary struct {
	Closed         int    `json:"closed"`
	Kept           int    `json:"kept"`
	LifetimeClosed int    `json:"lifetime_closed"`
	FilterActive   bool   `json:"filter_active"`
	Filter         string `json:"filter,omitempty"`
	Unprocessed    int    `json:"unprocessed"`
	// ContinueAllOffered is set when a filter hides unprocessed tabs.
	ContinueAllOffered bool `json:"continue_all_offered"`
}

// Outcome is the result of a review action.
type Outcome struct {
	Action    string            `json:"action"`
	Record    *triage.TabRecord `json:"record,omitempty"`
	WasClosed bool              `json:"was_closed,omitempty"`
	Closed    int               `json:"closed,omitempty"`
	State     State             `json:"state"`
}

// ActionEvent is published on the action feed.
type ActionEvent struct {
	SessionID string    `json:"session_id"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail"`
	At        time.Time `json:"at"`
}

func (s *Service) card(rec triage.TabRecord, ok bool) *Card {
	if !ok {
		return nil
	}
	c := &Card{TabRecord: rec}
	if rec.LastActiveAt != nil {
		age := triage.DescribeAge(*rec.LastActiveAt, s.now())
		c.Age = &age
	}
	return c
}

func (s *Service) stateLocked() State {
	e := s.engine
	st := State{
		SessionID:      s.sessionID,
		StartedAt:      s.startedAt,
		Current:        s.card(e.Current()),
		Next:           s.card(e.PeekNext()),
		Duplicates:     len(e.DuplicatesOfCurrent()),
		Visible:        e.VisibleCount(),
		Unprocessed:    e.UnprocessedCount(),
		Total:          e.Total(),
		Closed:         e.ClosedCount(),
		Kept:           e.KeptCount(),
		LifetimeClosed: s.lifetime,
		Filter:         e.Filter().String(),
		CanUndo:        e.CanUndo(),
		PreviewMode:    s.preview,
	}
	st.Done = st.Visible == 0
	return st
}

func (s *Service) summaryLocked() Summary {
	e := s.engine
	f := e.Filter()
	unprocessed := e.UnprocessedCount()
	return Summary{
		Closed:             e.ClosedCount(),
		Kept:               e.KeptCount(),
		LifetimeClosed:     s.lifetime,
		FilterActive:       f.Active(),
		Filter:             f.String(),
		Unprocessed:        unprocessed,
		ContinueAllOffered: f.Active() && unprocessed > 0,
	}
}
