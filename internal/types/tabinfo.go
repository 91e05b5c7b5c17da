package types

// TabInfo describes a page target as reported by the browser.
type TabInfo struct {
	TargetID string `json:"target_id"`
	Type     string `json:"type,omitempty"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	IconURL  string `json:"icon_url,omitempty"`
}

// ShortID returns the first 8 chars of the target ID for log lines.
func (t TabInfo) ShortID() string {
	if len(t.TargetID) >= 8 {
		return t.TargetID[:8]
	}
	return t.TargetID
}
