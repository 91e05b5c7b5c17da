package cdp

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/target"

	"github.com/dgnsrekt/tabswipe/internal/cdpcontrol"
	"github.com/dgnsrekt/tabswipe/internal/triage"
	"github.com/dgnsrekt/tabswipe/internal/types"
)

// Browser is the set of target operations a CDP driver provides.
type Browser interface {
	ListPages(ctx context.Context) ([]types.TabInfo, error)
	CloseTarget(ctx context.Context, targetID string) error
	ActivateTarget(ctx context.Context, targetID string) error
	CreateTarget(ctx context.Context, url string, background bool) (string, error)
}

// TabsOptions configures Tabs.
type TabsOptions struct {
	// MRUOrdered means ListPages reports the most recently active page first.
	MRUOrdered bool
	// IgnorePrefixes hides pages whose URL starts with any of them.
	IgnorePrefixes []string
	// ClosedLogSize bounds how many closed tabs can be reopened.
	ClosedLogSize int
}

// Tabs adapts a Browser to the triage engine's source and actuator.
type Tabs struct {
	browser  Browser
	opts     TabsOptions
	registry *TabRegistry
	closed   *ClosedLog

	// A restored tab gets a new target ID; records loaded earlier still
	// carry the old one.
	aliasMu sync.Mutex
	aliases map[string]string
}

var (
	_ triage.TabSource   = (*Tabs)(nil)
	_ triage.TabActuator = (*Tabs)(nil)
)

func NewTabs(browser Browser, opts TabsOptions) *Tabs {
	return &Tabs{
		browser:  browser,
		opts:     opts,
		registry: NewTabRegistry(),
		closed:   NewClosedLog(opts.ClosedLogSize),
		aliases:  make(map[string]string),
	}
}

func (t *Tabs) resolve(id triage.TabID) string {
	t.aliasMu.Lock()
	defer t.aliasMu.Unlock()
	if next, ok := t.aliases[string(id)]; ok {
		return next
	}
	return string(id)
}

// ListTabs returns the open pages, least recently active first when the
// browser reports activity order. The first page of an MRU listing is
// flagged Active.
func (t *Tabs) ListTabs(ctx context.Context) ([]triage.TabSnapshot, error) {
	pages, err := t.browser.ListPages(ctx)
	if err != nil {
		return nil, err
	}

	var activeID string
	if t.opts.MRUOrdered && len(pages) > 0 {
		activeID = pages[0].TargetID
	}

	kept := make([]types.TabInfo, 0, len(pages))
	for _, p := range pages {
		if t.ignored(p.URL) {
			continue
		}
		kept = append(kept, p)
	}
	t.registry.Replace(kept)
	t.aliasMu.Lock()
	t.aliases = make(map[string]string)
	t.aliasMu.Unlock()

	if t.opts.MRUOrdered {
		slices.Reverse(kept)
	}

	out := make([]triage.TabSnapshot, 0, len(kept))
	for _, p := range kept {
		out = append(out, triage.TabSnapshot{
			ID:      triage.TabID(p.TargetID),
			URL:     p.URL,
			Title:   p.Title,
			IconURL: p.IconURL,
			Active:  p.TargetID == activeID,
		})
	}
	slog.Debug("cdp list tabs", "pages", len(pages), "listed", len(out), "registered", t.registry.Count(), "active", activeID)
	return out, nil
}

func (t *Tabs) ignored(url string) bool {
	for _, prefix := range t.opts.IgnorePrefixes {
		if prefix != "" && strings.HasPrefix(url, prefix) {
			return true
		}
	}
	return false
}

// CloseTab closes the target and records it in the closed log. A listed
// target the browser no longer knows counts as closed.
func (t *Tabs) CloseTab(ctx context.Context, id triage.TabID) error {
	info, ok := t.registry.GetByStringID(t.resolve(id))
	if !ok {
		return cdpcontrol.NewError(cdpcontrol.CodeTabNotFound, "tab not in latest listing: "+string(id), nil)
	}
	if err := t.browser.CloseTarget(ctx, info.TargetID); err != nil {
		if !cdpcontrol.HasCode(err, cdpcontrol.CodeTabNotFound) {
			return err
		}
		slog.Warn("tab already gone from browser", "tab_id", info.ShortID(), "error", err)
	}
	t.registry.Remove(target.ID(info.TargetID))
	t.closed.Push(*info)
	slog.Info("tab closed", "tab_id", info.ShortID(), "url", truncateURL(info.URL), "reopenable", t.closed.Len())
	return nil
}

func (t *Tabs) MostRecentlyClosed(ctx context.Context) (triage.UndoToken, bool) {
	entry, ok := t.closed.Latest()
	if !ok {
		return "", false
	}
	return triage.UndoToken(entry.Token), true
}

// RestoreByToken reopens a closed tab in the background. The token stays
// usable when the reopen fails.
func (t *Tabs) RestoreByToken(ctx context.Context, token triage.UndoToken) error {
	entry, ok := t.closed.Take(string(token))
	if !ok {
		return cdpcontrol.NewError(cdpcontrol.CodeTokenNotFound, "no closed tab for token", nil)
	}
	newID, err := t.browser.CreateTarget(ctx, entry.Tab.URL, true)
	if err != nil {
		t.closed.Return(entry)
		return err
	}
	restored := entry.Tab
	restored.TargetID = newID
	t.registry.Register(restored)

	t.aliasMu.Lock()
	for from, to := range t.aliases {
		if to == entry.Tab.TargetID {
			t.aliases[from] = newID
		}
	}
	t.aliases[entry.Tab.TargetID] = newID
	t.aliasMu.Unlock()
	slog.Info("tab restored", "tab_id", restored.ShortID(), "url", truncateURL(restored.URL))
	return nil
}

func (t *Tabs) ActivateTab(ctx context.Context, id triage.TabID) error {
	return t.browser.ActivateTarget(ctx, t.resolve(id))
}

func truncateURL(url string) string {
	if len(url) > 120 {
		return url[:120] + "..."
	}
	return url
}
