package cdp

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dgnsrekt/tabswipe/internal/types"
)

// DefaultClosedLogSize matches the browser's own recently-closed limit.
const DefaultClosedLogSize = 25

// ClosedTab is a tab this process closed, kept so it can be reopened.
type ClosedTab struct {
	Token    string
	Tab      types.TabInfo
	ClosedAt time.Time
}

// ClosedLog is a bounded list of closed tabs, most recent first.
type ClosedLog struct {
	mu      sync.Mutex
	max     int
	entries []ClosedTab
}

func NewClosedLog(max int) *ClosedLog {
	if max <= 0 {
		max = DefaultClosedLogSize
	}
	return &ClosedLog{max: max}
}

// Push records tab and returns its token. The oldest entry falls off when the
// log is full.
func (l *ClosedLog) Push(tab types.TabInfo) string {
	entry := ClosedTab{Token: ulid.Make().String(), Tab: tab, ClosedAt: time.Now()}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append([]ClosedTab{entry}, l.entries...)
	if len(l.entries) > l.max {
		l.entries = l.entries[:l.max]
	}
	return entry.Token
}

// Latest returns the most recently pushed entry.
func (l *ClosedLog) Latest() (ClosedTab, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return ClosedTab{}, false
	}
	return l.entries[0], true
}

// Take removes and returns the entry for token.
func (l *ClosedLog) Take(token string) (ClosedTab, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.entries {
		if e.Token == token {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return e, true
		}
	}
	return ClosedTab{}, false
}

// Return puts an entry taken with Take back at the front.
func (l *ClosedLog) Return(entry ClosedTab) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append([]ClosedTab{entry}, l.entries...)
	if len(l.entries) > l.max {
		l.entries = l.entries[:l.max]
	}
}

func (l *ClosedLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
