package stream

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rickgao/market-terminal/internal/model"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", h.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readSnapshot(t *testing.T, conn *websocket.Conn) model.Snapshot {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}

	var msg struct {
		Type string         `json:"type"`
		Data model.Snapshot `json:"data"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if msg.Type != MessageSnapshot {
		t.Errorf("Type = %q, want %q", msg.Type, MessageSnapshot)
	}
	return msg.Data
}

func snapshot() model.Snapshot {
	return model.Snapshot{
		CycleID: uuid.New(),
		TakenAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		Markets: []model.Market{{Ticker: "KXFED-26DEC-T4.00", DisplayTitle: "Above 4.00%"}},
	}
}

func TestHub_Broadcast(t *testing.T) {
	h := NewHub(Config{}, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	a := dial(t, srv)
	b := dial(t, srv)
	waitForClients(t, h, 2)

	s := snapshot()
	if err := h.HandleSnapshot(s); err != nil {
		t.Fatalf("HandleSnapshot() error = %v", err)
	}

	for _, conn := range []*websocket.Conn{a, b} {
		got := readSnapshot(t, conn)
		if got.CycleID != s.CycleID {
			t.Errorf("CycleID = %s, want %s", got.CycleID, s.CycleID)
		}
		if len(got.Markets) != 1 || got.Markets[0].Ticker != "KXFED-26DEC-T4.00" {
			t.Errorf("Markets = %+v", got.Markets)
		}
	}
}

func TestHub_LatestOnConnect(t *testing.T) {
	h := NewHub(Config{}, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	s := snapshot()
	if err := h.HandleSnapshot(s); err != nil {
		t.Fatalf("HandleSnapshot() error = %v", err)
	}

	conn := dial(t, srv)
	if got := readSnapshot(t, conn); got.CycleID != s.CycleID {
		t.Errorf("CycleID = %s, want %s", got.CycleID, s.CycleID)
	}
}

func TestHub_ClientDisconnect(t *testing.T) {
	h := NewHub(Config{}, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dial(t, srv)
	waitForClients(t, h, 1)

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	waitForClients(t, h, 0)
}

func TestHub_DropsSlowClient(t *testing.T) {
	h := NewHub(Config{ClientBuffer: 1}, nil)

	c := &client{id: uuid.New(), send: make(chan []byte, 1)}
	if !h.add(c) {
		t.Fatal("add() = false")
	}

	if err := h.HandleSnapshot(snapshot()); err != nil {
		t.Fatalf("HandleSnapshot() error = %v", err)
	}
	if h.ClientCount() != 1 {
		t.Fatalf("ClientCount() = %d after first snapshot, want 1", h.ClientCount())
	}

	if err := h.HandleSnapshot(snapshot()); err != nil {
		t.Fatalf("HandleSnapshot() error = %v", err)
	}
	if h.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after overflow, want 0", h.ClientCount())
	}

	<-c.send
	if _, ok := <-c.send; ok {
		t.Error("send channel still open after drop")
	}
}

func TestHub_Close(t *testing.T) {
	h := NewHub(Config{}, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dial(t, srv)
	waitForClients(t, h, 1)

	h.Close()
	if h.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", h.ClientCount())
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("ReadMessage() error = %v, want going-away close", err)
	}

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("Dial succeeded after Close")
	}
	if resp == nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("response = %v, want 503", resp)
	}
}
