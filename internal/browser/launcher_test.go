package browser

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func devtoolsServer(t *testing.T, status int) (string, int) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/version" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	host, port, err := net.SplitHostPort(srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	p, _ := strconv.Atoi(port)
	return host, p
}

func TestLaunchSkipsWhenPortInUse(t *testing.T) {
	host, port := devtoolsServer(t, http.StatusOK)
	l := NewLauncher(Config{CDPAddress: host, CDPPort: port, Binary: "/nonexistent/chromium"})
	if err := l.Launch(context.Background()); err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	if l.Running() {
		t.Fatal("Running() = true; want false when a browser already listens")
	}
}

func TestLaunchFailsForMissingBinary(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	l := NewLauncher(Config{CDPAddress: "127.0.0.1", CDPPort: port, ProfileDir: t.TempDir(), Binary: "/nonexistent/chromium"})
	if err := l.Launch(context.Background()); err == nil {
		t.Fatal("Launch() error = nil; want start failure")
	}
	if l.Running() {
		t.Fatal("Running() = true after failed start")
	}
}

func TestWaitForCDP(t *testing.T) {
	host, port := devtoolsServer(t, http.StatusOK)
	l := NewLauncher(Config{CDPAddress: host, CDPPort: port, ReadyTimeout: 2 * time.Second})
	if err := l.waitForCDP(context.Background()); err != nil {
		t.Fatalf("waitForCDP() error = %v", err)
	}
}

func TestWaitForCDPTimesOut(t *testing.T) {
	host, port := devtoolsServer(t, http.StatusServiceUnavailable)
	l := NewLauncher(Config{CDPAddress: host, CDPPort: port, ReadyTimeout: 600 * time.Millisecond})
	if err := l.waitForCDP(context.Background()); err == nil {
		t.Fatal("waitForCDP() error = nil; want timeout")
	}
}
