package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alimasry/go-scratchpad/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type documentResponse struct {
	ID        string    `json:"id"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewHandler creates the HTTP handler with all routes.
func NewHandler(hub *Hub) http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint.
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.logger.Warn("websocket upgrade error", "error", err)
			return
		}
		client := newClient(hub, conn)
		hub.register(client)
		go client.WritePump()
		go client.ReadPump()
	})

	// Read-only view of persisted documents.
	mux.HandleFunc("GET /docs", func(w http.ResponseWriter, r *http.Request) {
		docs, err := hub.store.List(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		resp := make([]documentResponse, 0, len(docs))
		for _, d := range docs {
			resp = append(resp, documentResponse{ID: d.ID, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt})
		}
		writeJSON(w, resp)
	})

	mux.HandleFunc("GET /docs/{id}", func(w http.ResponseWriter, r *http.Request) {
		info, err := hub.store.Get(r.Context(), r.PathValue("id"))
		switch {
		case errors.Is(err, store.ErrNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		case errors.Is(err, store.ErrInvalidID):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, documentResponse{
			ID:        info.ID,
			Content:   info.Content,
			CreatedAt: info.CreatedAt,
			UpdatedAt: info.UpdatedAt,
		})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
