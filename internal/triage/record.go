package triage

import (
	"encoding/json"
	"net/url"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// TabID is the browser's handle for a tab. It stays valid until the tab closes.
type TabID string

// UndoToken identifies a just-closed tab so the actuator can reopen it.
type UndoToken string

// TabSnapshot is one tab as reported by a TabSource.
type TabSnapshot struct {
	ID           TabID
	URL          string
	Title        string
	IconURL      string
	LastActiveAt *time.Time
	Active       bool
}

// DispositionKind is the tag of a Disposition.
type DispositionKind int

const (
	Unprocessed DispositionKind = iota
	Kept
	Closed
)

func (k DispositionKind) String() string {
	switch k {
	case Kept:
		return "kept"
	case Closed:
		return "closed"
	default:
		return "unprocessed"
	}
}

// Disposition is the triage outcome of a record. Only Closed carries a token,
// and only when the close can be reversed.
type Disposition struct {
	kind  DispositionKind
	token UndoToken
}

// NotProcessed returns the initial disposition.
func NotProcessed() Disposition { return Disposition{} }

// KeptDisposition marks a record the user chose to keep.
func KeptDisposition() Disposition { return Disposition{kind: Kept} }

// ClosedWithToken marks a single-item close that can be undone. An empty
// token yields a terminal close.
func ClosedWithToken(token UndoToken) Disposition {
	return Disposition{kind: Closed, token: token}
}

// ClosedTerminal marks a close that cannot be undone (bulk closes).
func ClosedTerminal() Disposition { return Disposition{kind: Closed} }

func (d Disposition) Kind() DispositionKind { return d.kind }

// Token returns the undo token of a Closed disposition.
func (d Disposition) Token() (UndoToken, bool) {
	if d.kind != Closed || d.token == "" {
		return "", false
	}
	return d.token, true
}

func (d Disposition) String() string { return d.kind.String() }

func (d Disposition) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.kind.String())
}

// Schema describes the JSON form, a bare string.
func (d Disposition) Schema(r huma.Registry) *huma.Schema {
	return &huma.Schema{
		Type: huma.TypeString,
		Enum: []any{Unprocessed.String(), Kept.String(), Closed.String()},
	}
}

// TabRecord is a loaded tab plus its disposition. Descriptive fields are
// captured once at load and never refreshed.
type TabRecord struct {
	ID           TabID       `json:"id"`
	URL          string      `json:"url"`
	Title        string      `json:"title"`
	IconURL      string      `json:"icon_url,omitempty"`
	LastActiveAt *time.Time  `json:"last_active_at,omitempty"`
	Hostname     string      `json:"hostname,omitempty"`
	Disposition  Disposition `json:"disposition"`
}

func newRecord(s TabSnapshot) *TabRecord {
	return &TabRecord{
		ID:           s.ID,
		URL:          s.URL,
		Title:        s.Title,
		IconURL:      s.IconURL,
		LastActiveAt: s.LastActiveAt,
		Hostname:     HostnameOf(s.URL),
		Disposition:  NotProcessed(),
	}
}

// Processed reports whether the record has left Unprocessed.
func (r TabRecord) Processed() bool { return r.Disposition.kind != Unprocessed }

// HostnameOf returns the host of rawURL without port, or "" when the URL has
// no host or cannot be parsed.
func HostnameOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func lastActiveMillis(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixMilli()
}
