package cdp

import (
	"sync"

	"github.com/chromedp/cdproto/target"

	"github.com/dgnsrekt/tabswipe/internal/types"
)

// TabRegistry maps CDP target IDs to the tab metadata of the latest listing.
type TabRegistry struct {
	tabs map[target.ID]*types.TabInfo
	mu   sync.RWMutex
}

func NewTabRegistry() *TabRegistry {
	return &TabRegistry{tabs: make(map[target.ID]*types.TabInfo)}
}

// Replace drops every entry and registers tabs.
func (r *TabRegistry) Replace(tabs []types.TabInfo) {
	next := make(map[target.ID]*types.TabInfo, len(tabs))
	for i := range tabs {
		info := tabs[i]
		next[target.ID(info.TargetID)] = &info
	}
	r.mu.Lock()
	r.tabs = next
	r.mu.Unlock()
}

func (r *TabRegistry) Register(info types.TabInfo) *types.TabInfo {
	stored := &info
	r.mu.Lock()
	r.tabs[target.ID(info.TargetID)] = stored
	r.mu.Unlock()
	return stored
}

func (r *TabRegistry) Get(targetID target.ID) (*types.TabInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.tabs[targetID]
	return info, ok
}

func (r *TabRegistry) GetByStringID(tabID string) (*types.TabInfo, bool) {
	return r.Get(target.ID(tabID))
}

func (r *TabRegistry) Remove(targetID target.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tabs, targetID)
}

func (r *TabRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tabs)
}
