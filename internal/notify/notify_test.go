package notify

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func okResponse() *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader("ok")),
		Header:     make(http.Header),
	}
}

func TestSendSummaryPostsMessage(t *testing.T) {
	ctx := context.Background()

	var receivedMethod string
	var receivedPath string
	var receivedBody string
	var receivedTitle string

	client := &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			receivedMethod = r.Method
			receivedPath = r.URL.Path
			receivedTitle = r.Header.Get("Title")
			rawBody, err := io.ReadAll(r.Body)
			if err != nil {
				t.Fatalf("read body: %v", err)
			}
			receivedBody = string(rawBody)
			return okResponse(), nil
		}),
	}

	summary := SessionSummary{Closed: 4, Kept: 2, LifetimeClosed: 40}
	if err := SendSummary(ctx, client, "http://example.com/tabswipe", summary); err != nil {
		t.Fatalf("SendSummary() error = %v", err)
	}

	if got, want := receivedMethod, http.MethodPost; got != want {
		t.Fatalf("method = %q; want %q", got, want)
	}
	if got, want := receivedPath, "/tabswipe"; got != want {
		t.Fatalf("path = %q; want %q", got, want)
	}
	if got, want := receivedTitle, "tabswipe"; got != want {
		t.Fatalf("title = %q; want %q", got, want)
	}
	if got, want := receivedBody, "tabswipe session: closed 4, kept 2, 40 closed all time"; got != want {
		t.Fatalf("body = %q; want %q", got, want)
	}
}

func TestSummaryMessageMentionsRemaining(t *testing.T) {
	msg := SessionSummary{Closed: 1, Unprocessed: 3}.Message()
	if !strings.HasSuffix(msg, ", 3 left to review") {
		t.Fatalf("Message() = %q; want remaining count", msg)
	}
}

func TestSendReturnsErrorForServerError(t *testing.T) {
	ctx := context.Background()

	client := &http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusInternalServerError,
				Body:       io.NopCloser(strings.NewReader("server failure")),
				Header:     make(http.Header),
			}, nil
		}),
	}

	err := Send(ctx, client, "http://example.com/tabswipe", "hello")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "ntfy notification failed") {
		t.Fatalf("error = %q; want to contain %q", err, "ntfy notification failed")
	}
}

func TestSendDisallowsMissingEndpoint(t *testing.T) {
	ctx := context.Background()
	err := Send(ctx, http.DefaultClient, "", "hello")
	if err == nil {
		t.Fatal("expected error for missing endpoint")
	}
}
