package triage

import "strings"

// Filter is a hostname substring filter. The zero value matches everything.
type Filter struct {
	host string
}

// NewFilter normalizes s to trimmed lowercase.
func NewFilter(s string) Filter {
	return Filter{host: strings.ToLower(strings.TrimSpace(s))}
}

// Active reports whether the filter restricts anything.
func (f Filter) Active() bool { return f.host != "" }

func (f Filter) String() string { return f.host }

// Matches reports whether r passes the filter. Records without a hostname
// only pass an inactive filter.
func (f Filter) Matches(r TabRecord) bool {
	if f.host == "" {
		return true
	}
	if r.Hostname == "" {
		return false
	}
	return strings.Contains(strings.ToLower(r.Hostname), f.host)
}
