package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dicehouse/dicehouse-server/internal/events"
)

func TestHub_BroadcastsEvents(t *testing.T) {
	hub := NewHub(nil)
	feed := make(chan events.Event, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx, feed)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Registration happens in the handler goroutine; give it a beat before
	// publishing or the event lands on an empty client set.
	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.clients) == 1
	}, time.Second, 5*time.Millisecond)

	feed <- events.Event{
		Kind: events.TypePlayResult,
		TxID: "tx-1",
		Time: 1_700_000_000,
		Payload: events.PlayResult{
			Player:       "dice:alice",
			ChosenNumber: 3,
			RolledNumber: 3,
			Won:          true,
		},
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var evt events.Event
	require.NoError(t, json.Unmarshal(message, &evt))
	assert.Equal(t, events.TypePlayResult, evt.Kind)
	assert.Equal(t, "tx-1", evt.TxID)
}

func TestHub_RefusesClientsAfterShutdown(t *testing.T) {
	hub := NewHub(nil)
	feed := make(chan events.Event)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx, feed)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// A connection arriving after shutdown is closed by the server instead
	// of being registered against the stopped feed.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)

	hub.mu.Lock()
	defer hub.mu.Unlock()
	assert.Empty(t, hub.clients)
}

func TestHub_RunStopsWhenFeedCloses(t *testing.T) {
	hub := NewHub(nil)
	feed := make(chan events.Event)

	done := make(chan struct{})
	go func() {
		hub.Run(context.Background(), feed)
		close(done)
	}()

	close(feed)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop after feed closed")
	}
}
