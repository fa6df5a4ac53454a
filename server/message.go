package server

import (
	"encoding/json"

	"github.com/alimasry/go-scratchpad/autosave"
)

// Message types exchanged over WebSocket.
const (
	MsgOpen   = "open"
	MsgEdit   = "edit"
	MsgFlush  = "flush"
	MsgDoc    = "doc"
	MsgStatus = "status"
	MsgError  = "error"
)

// ClientMessage is a message from client to server.
type ClientMessage struct {
	Type    string `json:"type"`
	DocID   string `json:"docId,omitempty"`
	Content string `json:"content"`
}

// ServerMessage is a message from server to client.
type ServerMessage struct {
	Type    string `json:"type"`
	DocID   string `json:"docId,omitempty"`
	Content string `json:"content,omitempty"`
	Status  string `json:"status,omitempty"`
	Phase   string `json:"phase,omitempty"`
	Dirty   bool   `json:"dirty"`
	Message string `json:"message,omitempty"`
}

// Encode serializes a ServerMessage to JSON bytes.
func (m ServerMessage) Encode() []byte {
	b, _ := json.Marshal(m)
	return b
}

func statusMessage(snap autosave.Snapshot) ServerMessage {
	return ServerMessage{
		Type:   MsgStatus,
		DocID:  snap.DocID,
		Status: snap.Status.String(),
		Phase:  snap.Phase.String(),
		Dirty:  snap.Dirty,
	}
}
