package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"syscall"
	"time"
)

// Config holds browser launch configuration.
type Config struct {
	CDPAddress string
	CDPPort    int
	ProfileDir string
	// Binary overrides browser detection.
	Binary string
	// ReadyTimeout bounds the wait for the DevTools endpoint. Zero means 15s.
	ReadyTimeout time.Duration
}

// Launcher starts a Chromium with remote debugging when none is listening on
// the configured port.
type Launcher struct {
	cfg     Config
	cmd     *exec.Cmd
	running bool
}

func NewLauncher(cfg Config) *Launcher {
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 15 * time.Second
	}
	return &Launcher{cfg: cfg}
}

// detectBrowser finds an available Chrome/Chromium binary.
func detectBrowser() (string, error) {
	candidates := []string{"chromium-browser", "chromium", "google-chrome", "google-chrome-stable"}
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	if runtime.GOOS == "darwin" {
		macPath := "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"
		if _, err := os.Stat(macPath); err == nil {
			return macPath, nil
		}
	}
	return "", fmt.Errorf("no supported browser found (tried %v)", candidates)
}

func (l *Launcher) hostPort() string {
	return net.JoinHostPort(l.cfg.CDPAddress, strconv.Itoa(l.cfg.CDPPort))
}

// portInUse checks whether something already listens on the CDP port.
func (l *Launcher) portInUse() bool {
	conn, err := net.DialTimeout("tcp", l.hostPort(), time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Launch starts the browser unless the CDP port is already in use, then
// waits for /json/version to answer.
func (l *Launcher) Launch(ctx context.Context) error {
	if l.portInUse() {
		slog.Info("browser already running, skipping launch", "addr", l.hostPort())
		return nil
	}

	browserPath := l.cfg.Binary
	if browserPath == "" {
		var err error
		if browserPath, err = detectBrowser(); err != nil {
			return err
		}
	}
	slog.Info("detected browser", "path", browserPath)

	if err := os.MkdirAll(l.cfg.ProfileDir, 0o755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}

	args := []string{
		fmt.Sprintf("--remote-debugging-port=%d", l.cfg.CDPPort),
		fmt.Sprintf("--remote-debugging-address=%s", l.cfg.CDPAddress),
		fmt.Sprintf("--user-data-dir=%s", l.cfg.ProfileDir),
		"--no-first-run",
		"--no-default-browser-check",
		"--restore-last-session",
	}

	l.cmd = exec.Command(browserPath, args...)
	l.cmd.Stdout = os.Stdout
	l.cmd.Stderr = os.Stderr
	if err := l.cmd.Start(); err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	l.running = true
	slog.Info("browser process started", "pid", l.cmd.Process.Pid)

	if err := l.waitForCDP(ctx); err != nil {
		l.Stop()
		return fmt.Errorf("waiting for CDP: %w", err)
	}
	slog.Info("CDP endpoint ready", "addr", l.hostPort())
	return nil
}

// waitForCDP polls the CDP /json/version endpoint until it responds.
func (l *Launcher) waitForCDP(ctx context.Context) error {
	url := "http://" + l.hostPort() + "/json/version"
	deadline := time.After(l.cfg.ReadyTimeout)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	client := &http.Client{Timeout: time.Second}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("CDP did not become ready within %s at %s", l.cfg.ReadyTimeout, url)
		case <-ticker.C:
			resp, err := client.Get(url)
			if err != nil {
				continue
			}
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
	}
}

// Running reports whether this launcher spawned a browser process.
func (l *Launcher) Running() bool {
	return l.running
}

// Stop terminates the browser process with SIGTERM, falling back to SIGKILL.
func (l *Launcher) Stop() {
	if l.cmd == nil || l.cmd.Process == nil {
		return
	}
	slog.Info("stopping browser", "pid", l.cmd.Process.Pid)
	_ = l.cmd.Process.Signal(syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		_ = l.cmd.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("browser stopped gracefully")
	case <-time.After(5 * time.Second):
		slog.Warn("browser did not exit, sending SIGKILL")
		_ = l.cmd.Process.Kill()
		<-done
	}
	l.running = false
}
