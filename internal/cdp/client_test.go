package cdp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chromedp/cdproto"

	"github.com/dgnsrekt/tabswipe/internal/cdpcontrol"
)

func TestClientConnectUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, time.Second)
	err := c.Connect(context.Background())
	if !cdpcontrol.HasCode(err, cdpcontrol.CodeCDPUnavailable) {
		t.Fatalf("Connect() error = %v; want %s", err, cdpcontrol.CodeCDPUnavailable)
	}
	if _, err := c.ListPages(context.Background()); !cdpcontrol.HasCode(err, cdpcontrol.CodeCDPUnavailable) {
		t.Fatalf("ListPages() error = %v; want %s", err, cdpcontrol.CodeCDPUnavailable)
	}
}

func TestClientMissingURL(t *testing.T) {
	c := NewClient("", time.Second)
	if err := c.CloseTarget(context.Background(), "x"); !cdpcontrol.HasCode(err, cdpcontrol.CodeCDPUnavailable) {
		t.Fatalf("CloseTarget() error = %v; want %s", err, cdpcontrol.CodeCDPUnavailable)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestClientWrapCodes(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second)
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"no target", &cdproto.Error{Code: -32602, Message: "No target with given id found"}, cdpcontrol.CodeTabNotFound},
		{"browser error", &cdproto.Error{Code: -32000, Message: "Permission denied"}, cdpcontrol.CodeCommandFailed},
		{"timeout", context.DeadlineExceeded, cdpcontrol.CodeCommandFailed},
		{"transport", errors.New("websocket: close 1006"), cdpcontrol.CodeCDPUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.wrap("close target failed", tt.err); !cdpcontrol.HasCode(err, tt.want) {
				t.Fatalf("wrap() = %v; want %s", err, tt.want)
			}
		})
	}
}
