package cdpcontrol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/dgnsrekt/tabswipe/internal/types"
)

var (
	// errNotConnected is returned when a command is sent on a closed connection.
	errNotConnected = errors.New("rawcdp: not connected")
	// errDroppedInFlight means the command was written but the connection
	// closed before its reply arrived. The browser may have run it.
	errDroppedInFlight = errors.New("rawcdp: connection closed")
)

// rawCDP is a minimal browser-level CDP client. It only speaks Target.*
// commands and never attaches to pages, so the user's tabs are not touched
// beyond what a command asks for.
type rawCDP struct {
	httpBase string // e.g. "http://127.0.0.1:9222"

	mu   sync.Mutex
	conn net.Conn
	seq  atomic.Int64

	pending   map[int64]chan json.RawMessage
	pendingMu sync.Mutex
}

// commandError is an error object returned by the browser for a command.
type commandError struct {
	Method  string
	Code    int
	Message string
}

func (e *commandError) Error() string {
	return fmt.Sprintf("rawcdp: %s: %s (%d)", e.Method, e.Message, e.Code)
}

func newRawCDP(httpBase string) *rawCDP {
	return &rawCDP{
		httpBase: strings.TrimRight(httpBase, "/"),
		pending:  make(map[int64]chan json.RawMessage),
	}
}

// connect dials the browser-level WebSocket endpoint.
func (r *rawCDP) connect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn != nil {
		return nil
	}

	wsURL, err := r.browserWSURL(ctx)
	if err != nil {
		return fmt.Errorf("rawcdp: browser ws url: %w", err)
	}

	slog.Debug("rawcdp connecting", "ws_url", wsURL)
	conn, _, _, err := ws.Dial(ctx, wsURL)
	if err != nil {
		return fmt.Errorf("rawcdp: dial: %w", err)
	}

	r.conn = conn
	r.pending = make(map[int64]chan json.RawMessage)
	go r.readLoop(conn)
	return nil
}

func (r *rawCDP) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil {
		r.conn.Close()
		r.conn = nil
	}
}

func (r *rawCDP) connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn != nil
}

// readLoop dispatches responses to waiters. Events are ignored.
func (r *rawCDP) readLoop(conn net.Conn) {
	for {
		data, err := wsutil.ReadServerText(conn)
		if err != nil {
			slog.Debug("rawcdp read loop exit", "error", err)
			r.mu.Lock()
			if r.conn == conn {
				r.conn = nil
			}
			r.mu.Unlock()
			r.closeAllPending()
			return
		}

		var msg struct {
			ID int64 `json:"id"`
		}
		if json.Unmarshal(data, &msg) != nil || msg.ID == 0 {
			continue
		}
		r.pendingMu.Lock()
		ch, ok := r.pending[msg.ID]
		if ok {
			delete(r.pending, msg.ID)
		}
		r.pendingMu.Unlock()
		if ok {
			ch <- json.RawMessage(data)
		}
	}
}

func (r *rawCDP) closeAllPending() {
	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()
	for id, ch := range r.pending {
		close(ch)
		delete(r.pending, id)
	}
}

func (r *rawCDP) deletePending(id int64) {
	r.pendingMu.Lock()
	delete(r.pending, id)
	r.pendingMu.Unlock()
}

// sendRaw marshals an envelope, sends it over the WebSocket, and waits for
// the response keyed by the given id.
func (r *rawCDP) sendRaw(ctx context.Context, id int64, envelope any) (json.RawMessage, error) {
	r.mu.Lock()
	conn := r.conn
	r.mu.Unlock()
	if conn == nil {
		return nil, errNotConnected
	}

	ch := make(chan json.RawMessage, 1)
	r.pendingMu.Lock()
	r.pending[id] = ch
	r.pendingMu.Unlock()

	data, err := json.Marshal(envelope)
	if err != nil {
		r.deletePending(id)
		return nil, fmt.Errorf("rawcdp: marshal: %w", err)
	}

	r.mu.Lock()
	err = wsutil.WriteClientText(conn, data)
	r.mu.Unlock()
	if err != nil {
		r.deletePending(id)
		return nil, fmt.Errorf("rawcdp: send: %w", err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, errDroppedInFlight
		}
		return resp, nil
	case <-ctx.Done():
		r.deletePending(id)
		return nil, ctx.Err()
	}
}

// send sends a CDP command and decodes the result into out (when non-nil).
func (r *rawCDP) send(ctx context.Context, method string, params, out any) error {
	id := r.seq.Add(1)
	req := struct {
		ID     int64  `json:"id"`
		Method string `json:"method"`
		Params any    `json:"params,omitempty"`
	}{ID: id, Method: method, Params: params}

	raw, err := r.sendRaw(ctx, id, req)
	if err != nil {
		return err
	}

	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("rawcdp: unmarshal %s: %w", method, err)
	}
	if resp.Error != nil {
		return &commandError{Method: method, Code: resp.Error.Code, Message: resp.Error.Message}
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("rawcdp: unmarshal %s result: %w", method, err)
	}
	return nil
}

func (r *rawCDP) closeTarget(ctx context.Context, targetID string) error {
	return r.send(ctx, target.CommandCloseTarget, target.CloseTarget(target.ID(targetID)), nil)
}

func (r *rawCDP) activateTarget(ctx context.Context, targetID string) error {
	return r.send(ctx, target.CommandActivateTarget, target.ActivateTarget(target.ID(targetID)), nil)
}

func (r *rawCDP) createTarget(ctx context.Context, url string, background bool) (string, error) {
	var out target.CreateTargetReturns
	params := target.CreateTarget(url).WithBackground(background)
	if err := r.send(ctx, target.CommandCreateTarget, params, &out); err != nil {
		return "", err
	}
	return string(out.TargetID), nil
}

// listTargets fetches open targets via the HTTP /json/list endpoint, in the
// order the browser reports them.
func (r *rawCDP) listTargets(ctx context.Context) ([]types.TabInfo, error) {
	listCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(listCtx, http.MethodGet, r.httpBase+"/json/list", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rawcdp: /json/list: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var entries []struct {
		ID         string `json:"id"`
		Type       string `json:"type"`
		Title      string `json:"title"`
		URL        string `json:"url"`
		FaviconURL string `json:"faviconUrl"`
	}
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, err
	}

	out := make([]types.TabInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, types.TabInfo{
			TargetID: e.ID,
			Type:     e.Type,
			Title:    e.Title,
			URL:      e.URL,
			IconURL:  e.FaviconURL,
		})
	}
	return out, nil
}

// browserWSURL fetches the WebSocket debugger URL from /json/version.
func (r *rawCDP) browserWSURL(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.httpBase+"/json/version", nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("rawcdp: /json/version: HTTP %d", resp.StatusCode)
	}

	var info struct {
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", err
	}
	if info.WebSocketDebuggerURL == "" {
		return "", fmt.Errorf("empty webSocketDebuggerUrl")
	}
	return info.WebSocketDebuggerURL, nil
}

// BrowserWSURL resolves the browser WebSocket endpoint behind a DevTools
// HTTP base URL.
func BrowserWSURL(ctx context.Context, httpBase string) (string, error) {
	return newRawCDP(httpBase).browserWSURL(ctx)
}
