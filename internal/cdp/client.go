package cdp

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto"
	protocdp "github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/dgnsrekt/tabswipe/internal/cdpcontrol"
	"github.com/dgnsrekt/tabswipe/internal/types"
)

// Client drives page targets through a chromedp browser connection. It
// talks to the browser endpoint only and never creates a page of its own.
type Client struct {
	cdpURL     string
	cmdTimeout time.Duration

	mu            sync.Mutex
	browserCancel context.CancelFunc
	browser       *chromedp.Browser
}

func NewClient(cdpURL string, cmdTimeout time.Duration) *Client {
	return &Client{cdpURL: cdpURL, cmdTimeout: cmdTimeout}
}

func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *Client) connectLocked(ctx context.Context) error {
	if c.cdpURL == "" {
		return cdpcontrol.NewError(cdpcontrol.CodeCDPUnavailable, "missing CDP URL", nil)
	}
	slog.Info("Connecting to Chromium", "url", c.cdpURL)
	c.cleanupLocked()

	wsURL, err := cdpcontrol.BrowserWSURL(ctx, c.cdpURL)
	if err != nil {
		return cdpcontrol.NewError(cdpcontrol.CodeCDPUnavailable, "failed to resolve browser endpoint", err)
	}

	browserCtx, browserCancel := context.WithCancel(context.Background())
	browser, err := chromedp.NewBrowser(browserCtx, wsURL)
	if err != nil {
		browserCancel()
		return cdpcontrol.NewError(cdpcontrol.CodeCDPUnavailable, "failed to connect to browser", err)
	}
	c.browser = browser
	c.browserCancel = browserCancel

	slog.Info("Connected to Chromium", "url", c.cdpURL)
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupLocked()
	slog.Info("CDP client closed")
	return nil
}

func (c *Client) cleanupLocked() {
	if c.browserCancel != nil {
		c.browserCancel()
		c.browserCancel = nil
	}
	c.browser = nil
}

// executor returns a context bound to the browser connection, reconnecting
// once when the connection is gone.
func (c *Client) executor(ctx context.Context) (context.Context, context.CancelFunc, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.browser == nil || c.lostLocked() {
		if err := c.connectLocked(ctx); err != nil {
			return nil, nil, err
		}
	}
	cmdCtx, cancel := context.WithTimeout(ctx, c.cmdTimeout)
	return protocdp.WithExecutor(cmdCtx, c.browser), cancel, nil
}

func (c *Client) lostLocked() bool {
	select {
	case <-c.browser.LostConnection:
		slog.Warn("Chromium connection lost, reconnecting", "url", c.cdpURL)
		return true
	default:
		return false
	}
}

func (c *Client) ListPages(ctx context.Context) ([]types.TabInfo, error) {
	execCtx, cancel, err := c.executor(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	infos, err := target.GetTargets().Do(execCtx)
	if err != nil {
		return nil, c.wrap("failed to list targets", err)
	}
	pages := make([]types.TabInfo, 0, len(infos))
	for _, t := range infos {
		if t.Type != "page" {
			continue
		}
		// target.Info carries no favicon, so IconURL stays empty here.
		pages = append(pages, types.TabInfo{
			TargetID: string(t.TargetID),
			Type:     t.Type,
			URL:      t.URL,
			Title:    t.Title,
		})
	}
	slog.Debug("Found browser targets", "count", len(infos), "pages", len(pages))
	return pages, nil
}

func (c *Client) CloseTarget(ctx context.Context, targetID string) error {
	execCtx, cancel, err := c.executor(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	if err := target.CloseTarget(target.ID(targetID)).Do(execCtx); err != nil {
		return c.wrap("close target failed", err)
	}
	return nil
}

func (c *Client) ActivateTarget(ctx context.Context, targetID string) error {
	execCtx, cancel, err := c.executor(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	if err := target.ActivateTarget(target.ID(targetID)).Do(execCtx); err != nil {
		return c.wrap("activate target failed", err)
	}
	return nil
}

func (c *Client) CreateTarget(ctx context.Context, url string, background bool) (string, error) {
	execCtx, cancel, err := c.executor(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()
	id, err := target.CreateTarget(url).WithBackground(background).Do(execCtx)
	if err != nil {
		return "", c.wrap("create target failed", err)
	}
	return string(id), nil
}

func (c *Client) wrap(msg string, err error) error {
	var cdpErr *cdproto.Error
	switch {
	case errors.As(err, &cdpErr) && strings.Contains(strings.ToLower(cdpErr.Message), "no target"):
		return cdpcontrol.NewError(cdpcontrol.CodeTabNotFound, msg+": "+cdpErr.Message, err)
	case errors.As(err, &cdpErr):
		return cdpcontrol.NewError(cdpcontrol.CodeCommandFailed, msg+": "+cdpErr.Message, err)
	case errors.Is(err, context.DeadlineExceeded):
		return cdpcontrol.NewError(cdpcontrol.CodeCommandFailed, msg+": timed out", err)
	default:
		return cdpcontrol.NewError(cdpcontrol.CodeCDPUnavailable, msg, err)
	}
}
