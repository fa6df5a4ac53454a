package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alimasry/go-scratchpad/autosave"
	"github.com/alimasry/go-scratchpad/store"
)

// ErrDocumentBusy is returned when another connection is editing the document.
var ErrDocumentBusy = errors.New("document is open in another session")

// Hub tracks connected clients and which client holds which document.
// At most one client edits a given document at a time.
type Hub struct {
	store    store.DocumentStore
	syncOpts []autosave.Option
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*Client]bool
	holders map[string]*Client
}

// NewHub creates a hub whose sessions persist to st. syncOpts are applied to
// every session's synchronizer.
func NewHub(st store.DocumentStore, logger *slog.Logger, syncOpts ...autosave.Option) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		store:    st,
		syncOpts: syncOpts,
		logger:   logger,
		clients:  make(map[*Client]bool),
		holders:  make(map[string]*Client),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	h.logger.Debug("client connected", "client", c.ID)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	h.logger.Debug("client disconnected", "client", c.ID)
}

func (h *Hub) acquire(docID string, c *Client) error {
	if docID == "" {
		return fmt.Errorf("%w: empty", store.ErrInvalidID)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if holder, ok := h.holders[docID]; ok && holder != c {
		return fmt.Errorf("%q: %w", docID, ErrDocumentBusy)
	}
	h.holders[docID] = c
	return nil
}

func (h *Hub) release(docID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.holders[docID] == c {
		delete(h.holders, docID)
	}
}

// Holder returns the client editing docID, if any.
func (h *Hub) Holder(docID string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.holders[docID]
}

// Shutdown flushes every connected session. It is called when the server
// stops, before connections are dropped.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	var errs []error
	for _, c := range clients {
		if err := c.session.close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("client %s: %w", c.ID, err))
		}
	}
	return errors.Join(errs...)
}
