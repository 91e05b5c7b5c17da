package cdpcontrol

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dgnsrekt/tabswipe/internal/types"
)

// transientHints are substrings in error causes that indicate a broken
// connection worth one reconnect.
var transientHints = []string{
	"not connected",
	"websocket",
	"connection reset",
	"broken pipe",
	"eof",
	"connection refused",
	"connection closed",
}

// Client drives page targets over a raw browser-level CDP connection.
type Client struct {
	cdpURL     string
	cmdTimeout time.Duration

	mu  sync.Mutex
	cdp *rawCDP
}

func NewClient(cdpURL string, cmdTimeout time.Duration) *Client {
	return &Client{
		cdpURL:     cdpURL,
		cmdTimeout: cmdTimeout,
	}
}

func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *Client) connectLocked(ctx context.Context) error {
	if c.cdpURL == "" {
		return newError(CodeCDPUnavailable, "missing CDP URL", nil)
	}

	slog.Info("cdpcontrol connect start", "cdp_url", c.cdpURL)
	c.cleanupLocked()

	c.cdp = newRawCDP(c.cdpURL)
	if err := c.cdp.connect(ctx); err != nil {
		c.cdp = nil
		return newError(CodeCDPUnavailable, "connect to CDP failed", err)
	}

	slog.Info("cdpcontrol connect ok", "cdp_url", c.cdpURL)
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupLocked()
	return nil
}

func (c *Client) cleanupLocked() {
	if c.cdp != nil {
		c.cdp.close()
		c.cdp = nil
	}
}

// ListPages returns page targets in the browser's /json/list order, which is
// most recently active first.
func (c *Client) ListPages(ctx context.Context) ([]types.TabInfo, error) {
	if c.cdpURL == "" {
		return nil, newError(CodeCDPUnavailable, "missing CDP URL", nil)
	}
	c.mu.Lock()
	cdp := c.cdp
	c.mu.Unlock()
	if cdp == nil {
		cdp = newRawCDP(c.cdpURL)
	}

	targets, err := cdp.listTargets(ctx)
	if err != nil {
		slog.Warn("cdpcontrol list pages failed", "error", err)
		return nil, newError(CodeCDPUnavailable, "failed to list targets", err)
	}

	pages := make([]types.TabInfo, 0, len(targets))
	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		pages = append(pages, t)
	}
	slog.Debug("cdpcontrol list pages", "targets", len(targets), "pages", len(pages))
	return pages, nil
}

func (c *Client) CloseTarget(ctx context.Context, targetID string) error {
	if strings.TrimSpace(targetID) == "" {
		return newError(CodeValidation, "target id is required", nil)
	}
	return c.command(ctx, "close", targetID, false, func(ctx context.Context, cdp *rawCDP) error {
		return cdp.closeTarget(ctx, targetID)
	})
}

func (c *Client) ActivateTarget(ctx context.Context, targetID string) error {
	if strings.TrimSpace(targetID) == "" {
		return newError(CodeValidation, "target id is required", nil)
	}
	return c.command(ctx, "activate", targetID, true, func(ctx context.Context, cdp *rawCDP) error {
		return cdp.activateTarget(ctx, targetID)
	})
}

// CreateTarget opens url in a new tab and returns its target ID.
func (c *Client) CreateTarget(ctx context.Context, url string, background bool) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", newError(CodeValidation, "url is required", nil)
	}
	var id string
	err := c.command(ctx, "create", url, false, func(ctx context.Context, cdp *rawCDP) error {
		var err error
		id, err = cdp.createTarget(ctx, url, background)
		return err
	})
	return id, err
}

// command runs fn with a per-command timeout. A connection failure triggers
// one reconnect and retry. Commands that are not idempotent are only retried
// when they never reached the browser.
func (c *Client) command(ctx context.Context, op, subject string, idempotent bool, fn func(context.Context, *rawCDP) error) error {
	err := c.runOnce(ctx, fn)
	if err == nil {
		return nil
	}
	if !idempotent && errors.Is(err, errDroppedInFlight) {
		slog.Warn("cdpcontrol command outcome unknown, not retrying", "op", op, "subject", subject, "error", err)
		return err
	}
	if !c.shouldRetry(err) {
		slog.Warn("cdpcontrol command failed", "op", op, "subject", subject, "error", err)
		return err
	}

	slog.Warn("cdpcontrol command retry after transient failure", "op", op, "subject", subject, "error", err)
	if recErr := c.reconnect(ctx); recErr != nil {
		slog.Error("cdpcontrol reconnect failed during retry", "op", op, "error", recErr)
		return recErr
	}
	if err := c.runOnce(ctx, fn); err != nil {
		slog.Warn("cdpcontrol command failed (retry)", "op", op, "subject", subject, "error", err)
		return err
	}
	return nil
}

func (c *Client) runOnce(ctx context.Context, fn func(context.Context, *rawCDP) error) error {
	if err := c.ensureConnected(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	cdp := c.cdp
	c.mu.Unlock()
	if cdp == nil {
		return newError(CodeCDPUnavailable, "CDP client not connected", nil)
	}

	cmdCtx, cancel := context.WithTimeout(ctx, c.cmdTimeout)
	defer cancel()

	err := fn(cmdCtx, cdp)
	if err == nil {
		return nil
	}

	var cmdErr *commandError
	switch {
	case errors.As(err, &cmdErr):
		if strings.Contains(strings.ToLower(cmdErr.Message), "no target") {
			return newError(CodeTabNotFound, cmdErr.Message, err)
		}
		return newError(CodeCommandFailed, cmdErr.Message, err)
	case errors.Is(err, context.DeadlineExceeded):
		return newError(CodeCommandFailed, "command timed out", err)
	case !cdp.connected():
		return newError(CodeCDPUnavailable, "connection lost", err)
	default:
		return newError(CodeCommandFailed, "command failed", err)
	}
}

func (c *Client) reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *Client) ensureConnected(ctx context.Context) error {
	c.mu.Lock()
	connected := c.cdp != nil && c.cdp.connected()
	c.mu.Unlock()
	if connected {
		return nil
	}
	return c.reconnect(ctx)
}

func (c *Client) shouldRetry(err error) bool {
	var coded *CodedError
	if !errors.As(err, &coded) {
		return false
	}

	switch coded.Code {
	case CodeCDPUnavailable:
		return true
	case CodeCommandFailed:
		if coded.Cause == nil {
			return false
		}
		var cmdErr *commandError
		if errors.As(coded.Cause, &cmdErr) {
			return false
		}
		cause := strings.ToLower(coded.Cause.Error())
		for _, hint := range transientHints {
			if strings.Contains(cause, hint) {
				return true
			}
		}
	}
	return false
}
