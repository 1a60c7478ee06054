package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/signalhand/internal/controller"
	"github.com/ayusman/signalhand/internal/store"
	"github.com/ayusman/signalhand/internal/transport"
)

func startApp(t *testing.T) (*controller.App, *transport.Memory, *store.Store) {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	mem := transport.NewMemory()
	app, err := controller.New(controller.Config{Transport: mem, Store: s})
	if err != nil {
		t.Fatalf("controller.New() error = %v", err)
	}
	if err := app.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(app.Stop)
	return app, mem, s
}

func TestAPI_SliderWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app, mem, s := startApp(t)
	srv := New(Config{Store: s, Controller: app})
	defer srv.Close()
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. Move the red slider
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/timing/red", bytes.NewBufferString(`{"value":3200}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("PUT /api/timing/red error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	resp.Body.Close()

	found := false
	for _, line := range mem.Written() {
		if line == "cmd:redTime=3200;" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected cmd:redTime=3200; on the wire, got %q", mem.Written())
	}

	// 2. Read it back
	resp, _ = client.Get(ts.URL + "/api/timing")
	var params struct {
		Red int `json:"red"`
	}
	json.NewDecoder(resp.Body).Decode(&params)
	resp.Body.Close()
	if params.Red != 3200 {
		t.Errorf("GET red = %d, want 3200", params.Red)
	}

	// 3. The edit shows up in history
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, _ = client.Get(ts.URL + "/api/events?limit=5")
		var listed struct {
			Events []struct {
				Kind  string `json:"kind"`
				Value int    `json:"value"`
			} `json:"events"`
		}
		json.NewDecoder(resp.Body).Decode(&listed)
		resp.Body.Close()
		if len(listed.Events) > 0 && listed.Events[0].Kind == "timing" && listed.Events[0].Value == 3200 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timing event not recorded, got %+v", listed.Events)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestAPI_StateFeed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app, mem, _ := startApp(t)
	srv := New(Config{Controller: app, FeedInterval: 10 * time.Millisecond})
	defer srv.Close()
	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()

	var snap controller.Snapshot
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read initial state error = %v", err)
	}
	if snap.Timing.Green != 2000 {
		t.Errorf("expected default green, got %d", snap.Timing.Green)
	}

	// A slider edit sent over the socket reaches the wire and comes back in the feed.
	if err := conn.WriteJSON(map[string]any{"channel": "green", "value": 1500}); err != nil {
		t.Fatalf("write error = %v", err)
	}

	for {
		if err := conn.ReadJSON(&snap); err != nil {
			t.Fatalf("read state error = %v", err)
		}
		if snap.Timing.Green == 1500 {
			break
		}
	}

	found := false
	for _, line := range mem.Written() {
		if line == "cmd:greenTime=1500;" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected cmd:greenTime=1500; on the wire, got %q", mem.Written())
	}
}
