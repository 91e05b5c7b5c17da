package relay

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

const keepAliveInterval = 25 * time.Second

// SSEHandler streams broker events as SSE. Clients may filter feeds via the
// ?feeds=state,action query parameter. A new client first receives the last
// state event, if any.
func SSEHandler(broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}

		var feedFilter map[string]bool
		if q := r.URL.Query().Get("feeds"); q != "" {
			feedFilter = make(map[string]bool)
			for _, f := range strings.Split(q, ",") {
				if f = strings.TrimSpace(f); f != "" {
					feedFilter[f] = true
				}
			}
		}
		wants := func(feed string) bool { return feedFilter == nil || feedFilter[feed] }

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		id, ch := broker.Subscribe()
		defer broker.Unsubscribe(id)

		if evt, ok := broker.Last(FeedState); ok && wants(FeedState) {
			writeEvent(w, evt)
		}
		flusher.Flush()

		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
				fmt.Fprint(w, ": keep-alive\n\n")
				flusher.Flush()
			case evt, ok := <-ch:
				if !ok {
					return
				}
				if !wants(evt.Feed) {
					continue
				}
				writeEvent(w, evt)
				flusher.Flush()
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, evt Event) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Feed, evt.Payload)
}
