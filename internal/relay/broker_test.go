package relay

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
	b := NewBroker()
	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	for range subscriberBufSize + 10 {
		b.Publish(Event{Feed: FeedAction, Payload: "x"})
	}
	if len(ch) != subscriberBufSize {
		t.Fatalf("buffered = %d; want %d", len(ch), subscriberBufSize)
	}
	if b.ClientCount() != 1 {
		t.Fatalf("ClientCount() = %d; want 1", b.ClientCount())
	}
}

func TestBrokerLastAndJSON(t *testing.T) {
	b := NewBroker()
	if _, ok := b.Last(FeedState); ok {
		t.Fatalf("Last() ok = true on empty broker")
	}
	b.PublishJSON(FeedState, map[string]int{"visible": 3})
	evt, ok := b.Last(FeedState)
	if !ok || evt.Payload != `{"visible":3}` {
		t.Fatalf("Last() = %+v, %v; want visible payload", evt, ok)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker()
	id, ch := b.Subscribe()
	b.Unsubscribe(id)
	if _, ok := <-ch; ok {
		t.Fatalf("channel open after Unsubscribe()")
	}
	b.Unsubscribe(id)
}

func TestSSEHandlerReplaysStateAndFilters(t *testing.T) {
	b := NewBroker()
	b.PublishJSON(FeedState, map[string]int{"visible": 1})

	srv := httptest.NewServer(SSEHandler(b))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?feeds=state", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q; want text/event-stream", ct)
	}

	reader := bufio.NewReader(resp.Body)
	readEvent := func() string {
		var lines []string
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("read error = %v", err)
			}
			line = strings.TrimRight(line, "\n")
			if line == "" {
				return strings.Join(lines, "|")
			}
			lines = append(lines, line)
		}
	}

	if got := readEvent(); got != `event: state|data: {"visible":1}` {
		t.Fatalf("first event = %q; want replayed state", got)
	}

	for b.ClientCount() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	b.Publish(Event{Feed: FeedAction, Payload: "keep"})
	b.PublishJSON(FeedState, map[string]int{"visible": 0})
	if got := readEvent(); got != `event: state|data: {"visible":0}` {
		t.Fatalf("second event = %q; want filtered state", got)
	}
}
