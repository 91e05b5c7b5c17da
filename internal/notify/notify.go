package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// SessionSummary is the part of a finished review session worth reporting.
type SessionSummary struct {
	Closed         int
	Kept           int
	LifetimeClosed int
	Unprocessed    int
}

// Message renders s as a single line.
func (s SessionSummary) Message() string {
	msg := fmt.Sprintf("tabswipe session: closed %d, kept %d, %d closed all time", s.Closed, s.Kept, s.LifetimeClosed)
	if s.Unprocessed > 0 {
		msg += fmt.Sprintf(", %d left to review", s.Unprocessed)
	}
	return msg
}

// SendSummary posts the session summary to an ntfy topic URL.
func SendSummary(ctx context.Context, client *http.Client, endpoint string, s SessionSummary) error {
	return Send(ctx, client, endpoint, s.Message())
}

// Send sends a message to the requested endpoint using HTTP POST.
func Send(ctx context.Context, client *http.Client, endpoint, message string) error {
	if endpoint == "" {
		return errors.New("ntfy notification failed: missing endpoint")
	}
	c := client
	if c == nil {
		c = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(message))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Title", "tabswipe")
	req.Header.Set("Tags", "broom")

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy notification failed: status=%d", resp.StatusCode)
	}
	return nil
}
