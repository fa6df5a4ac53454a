package server

import (
	"context"
	"sync"

	"github.com/alimasry/go-scratchpad/autosave"
)

// Session binds one client connection to its own autosave.Synchronizer.
type Session struct {
	hub    *Hub
	client *Client
	sync   *autosave.Synchronizer

	mu    sync.Mutex
	docID string
}

func newSession(h *Hub, c *Client) *Session {
	s := &Session{hub: h, client: c}
	opts := append(append([]autosave.Option{}, h.syncOpts...),
		autosave.WithLogger(h.logger.With("client", c.ID)),
		autosave.WithOnChange(s.onChange),
	)
	s.sync = autosave.New(h.store, opts...)
	return s
}

// open switches the session to docID. The hub must grant the document
// before the synchronizer flushes the outgoing one.
func (s *Session) open(docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if docID == s.docID {
		return nil
	}
	if err := s.hub.acquire(docID, s.client); err != nil {
		return err
	}
	if err := s.sync.Open(docID); err != nil {
		s.hub.release(docID, s.client)
		return err
	}
	prev := s.docID
	s.docID = docID
	if prev != "" {
		s.releaseWhenSaved(prev)
	}
	return nil
}

// releaseWhenSaved gives up docID once its outstanding saves have landed, so
// no other session loads content older than this session's edits.
func (s *Session) releaseWhenSaved(docID string) {
	settled := s.sync.Settled(docID)
	go func() {
		<-settled
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.docID != docID {
			s.hub.release(docID, s.client)
		}
	}()
}

func (s *Session) edit(content string) error {
	return s.sync.Edit(content)
}

func (s *Session) flush() error {
	return s.sync.Flush()
}

// close flushes pending edits and gives up the held document.
func (s *Session) close(ctx context.Context) error {
	err := s.sync.Close(ctx)

	s.mu.Lock()
	docID := s.docID
	s.docID = ""
	s.mu.Unlock()
	if docID != "" {
		s.hub.release(docID, s.client)
	}
	return err
}

func (s *Session) onChange(ev autosave.Event, snap autosave.Snapshot) {
	switch ev {
	case autosave.EventClosed:
		return
	case autosave.EventLoaded:
		s.client.sendMsg(ServerMessage{
			Type:    MsgDoc,
			DocID:   snap.DocID,
			Content: snap.Content,
			Dirty:   snap.Dirty,
		})
	case autosave.EventLoadFailed:
		s.client.sendError("load failed: " + snap.LoadErr.Error())
	}
	s.client.sendMsg(statusMessage(snap))
}
