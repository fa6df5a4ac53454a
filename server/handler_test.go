package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alimasry/go-scratchpad/store"
)

func setupTestServer(t *testing.T, st store.DocumentStore) (*httptest.Server, *Hub) {
	t.Helper()
	hub := newTestHub(st)
	server := httptest.NewServer(NewHandler(hub))
	t.Cleanup(server.Close)
	return server, hub
}

func wsConnect(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	return conn
}

// readWsType reads until a message of the given type arrives.
func readWsType(t *testing.T, conn *websocket.Conn, typ string) ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read waiting for %q: %v", typ, err)
		}
		var msg ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Type == typ {
			return msg
		}
	}
}

func TestHandler_OpenEditAndSave(t *testing.T) {
	st := store.NewMemoryStore()
	st.Save(ctx(), "notes", "hello")
	server, _ := setupTestServer(t, st)

	conn := wsConnect(t, server)
	defer conn.Close()

	if err := conn.WriteJSON(ClientMessage{Type: MsgOpen, DocID: "notes"}); err != nil {
		t.Fatal(err)
	}
	doc := readWsType(t, conn, MsgDoc)
	if doc.Content != "hello" {
		t.Errorf("content = %q, want %q", doc.Content, "hello")
	}

	conn.WriteJSON(ClientMessage{Type: MsgEdit, Content: "hello world"})
	conn.WriteJSON(ClientMessage{Type: MsgFlush})

	waitContent(t, st, "notes", "hello world")
}

func TestHandler_DisconnectFlushes(t *testing.T) {
	st := store.NewMemoryStore()
	server, hub := setupTestServer(t, st)

	conn := wsConnect(t, server)
	conn.WriteJSON(ClientMessage{Type: MsgOpen, DocID: "notes"})
	readWsType(t, conn, MsgDoc)
	conn.WriteJSON(ClientMessage{Type: MsgEdit, Content: "typed then left"})
	readWsType(t, conn, MsgStatus)
	conn.Close()

	waitContent(t, st, "notes", "typed then left")

	deadline := time.Now().Add(2 * time.Second)
	for hub.Holder("notes") != nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.Holder("notes") != nil {
		t.Error("document still held after disconnect")
	}
}

func TestHandler_SecondEditorRejected(t *testing.T) {
	server, _ := setupTestServer(t, store.NewMemoryStore())

	conn1 := wsConnect(t, server)
	defer conn1.Close()
	conn2 := wsConnect(t, server)
	defer conn2.Close()

	conn1.WriteJSON(ClientMessage{Type: MsgOpen, DocID: "shared"})
	readWsType(t, conn1, MsgDoc)

	conn2.WriteJSON(ClientMessage{Type: MsgOpen, DocID: "shared"})
	msg := readWsType(t, conn2, MsgError)
	if !strings.Contains(msg.Message, "another session") {
		t.Errorf("unexpected error: %q", msg.Message)
	}
}

func TestHandler_EditBeforeOpen(t *testing.T) {
	server, _ := setupTestServer(t, store.NewMemoryStore())

	conn := wsConnect(t, server)
	defer conn.Close()

	conn.WriteJSON(ClientMessage{Type: MsgEdit, Content: "x"})
	msg := readWsType(t, conn, MsgError)
	if msg.Message != "no document open" {
		t.Errorf("unexpected error: %q", msg.Message)
	}

	conn.WriteJSON(ClientMessage{Type: "bogus"})
	msg = readWsType(t, conn, MsgError)
	if msg.Message != "unknown message type: bogus" {
		t.Errorf("unexpected error: %q", msg.Message)
	}
}

func TestHandler_GetDocument(t *testing.T) {
	st := store.NewMemoryStore()
	st.Save(ctx(), "notes", "persisted")
	server, _ := setupTestServer(t, st)

	resp, err := http.Get(server.URL + "/docs/notes")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var doc documentResponse
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	if doc.ID != "notes" || doc.Content != "persisted" {
		t.Errorf("unexpected doc: %+v", doc)
	}

	missing, err := http.Get(server.URL + "/docs/missing")
	if err != nil {
		t.Fatal(err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("missing status = %d, want 404", missing.StatusCode)
	}
}

func TestHandler_ListDocuments(t *testing.T) {
	st := store.NewMemoryStore()
	st.Save(ctx(), "a", "1")
	st.Save(ctx(), "b", "2")
	server, _ := setupTestServer(t, st)

	resp, err := http.Get(server.URL + "/docs")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var docs []documentResponse
	if err := json.NewDecoder(resp.Body).Decode(&docs); err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 || docs[0].ID != "a" {
		t.Errorf("unexpected docs: %+v", docs)
	}
}
