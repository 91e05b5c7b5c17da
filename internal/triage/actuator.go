package triage

import "context"

// TabSource lists the browser's tabs at load time.
type TabSource interface {
	ListTabs(ctx context.Context) ([]TabSnapshot, error)
}

// TabActuator performs browser-level tab operations.
type TabActuator interface {
	CloseTab(ctx context.Context, id TabID) error
	// MostRecentlyClosed is called right after a successful CloseTab. It is
	// best effort; ok is false when no token is available.
	MostRecentlyClosed(ctx context.Context) (token UndoToken, ok bool)
	RestoreByToken(ctx context.Context, token UndoToken) error
	ActivateTab(ctx context.Context, id TabID) error
}
