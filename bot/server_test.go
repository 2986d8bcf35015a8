package bot

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	b, _ := newTestBot(LocalRunner{Timeout: time.Second})
	ts := httptest.NewServer(NewServer("", b).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postMessage(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url+"/message", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServerMessage(t *testing.T) {
	ts := newTestServer(t)

	resp := postMessage(t, ts.URL, `{"chat_id": 7, "text": "code (+ 2 3)"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var reply Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		t.Fatal(err)
	}
	if reply.ChatID != 7 || reply.Reply != "5" {
		t.Fatalf("unexpected reply %+v", reply)
	}
}

func TestServerMessageNoReply(t *testing.T) {
	ts := newTestServer(t)
	for _, body := range []string{
		`{"chat_id": 1, "text": "hello"}`,
		`{"chat_id": 1, "text": "code (/ 1 0)"}`,
	} {
		resp := postMessage(t, ts.URL, body)
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("%s: expected 204, got %d", body, resp.StatusCode)
		}
	}
}

func TestServerMessageBadRequest(t *testing.T) {
	ts := newTestServer(t)
	resp := postMessage(t, ts.URL, `not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	get, err := http.Get(ts.URL + "/message")
	if err != nil {
		t.Fatal(err)
	}
	get.Body.Close()
	if get.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", get.StatusCode)
	}
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServerWebSocket(t *testing.T) {
	ts := newTestServer(t)
	conn := dialWS(t, ts)

	// Silent messages produce no frame, so the first frame answers the last.
	for _, text := range []string{"hello", "code missing", "code (* 6 7)"} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(msg) != "42" {
		t.Fatalf("expected 42, got %q", msg)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("/start")); err != nil {
		t.Fatal(err)
	}
	_, msg, err = conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if string(msg) != startText {
		t.Fatalf("unexpected greeting %q", msg)
	}
}

func TestServerWebSocketOversizedMessage(t *testing.T) {
	ts := newTestServer(t)
	conn := dialWS(t, ts)

	// The write may fail once the server drops the connection mid-frame.
	big := "code " + strings.Repeat("(", 2*maxMessageSize)
	conn.WriteMessage(websocket.TextMessage, []byte(big))
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected the oversized message to close the connection")
	}

	// Other users are unaffected.
	next := dialWS(t, ts)
	if err := next.WriteMessage(websocket.TextMessage, []byte("code (+ 1 1)")); err != nil {
		t.Fatal(err)
	}
	next.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := next.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(msg) != "2" {
		t.Fatalf("expected 2, got %q", msg)
	}
}

func TestServerMessageDeepNesting(t *testing.T) {
	b, _ := newTestBot(LocalRunner{Timeout: time.Second, MaxDepth: 1000})
	ts := httptest.NewServer(NewServer("", b).Handler())
	t.Cleanup(ts.Close)

	code := strings.Repeat("(", 100000) + strings.Repeat(")", 100000)
	body, err := json.Marshal(Message{ChatID: 1, Text: "code " + code})
	if err != nil {
		t.Fatal(err)
	}
	resp := postMessage(t, ts.URL, string(body))
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}
