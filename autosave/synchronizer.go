package autosave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alimasry/go-scratchpad/store"
)

// Loader fetches the persisted content of a document.
type Loader interface {
	Load(ctx context.Context, id string) (string, error)
}

// Saver persists a whole-document snapshot.
type Saver interface {
	Save(ctx context.Context, id, content string) error
}

// Store is the persistence collaborator of a Synchronizer.
type Store interface {
	Loader
	Saver
}

// Invalidator is implemented by stores that cache loads. Refresh drops the
// cached entry before reloading.
type Invalidator interface {
	Invalidate(id string)
}

// Synchronizer keeps one document's edit buffer coherent with the store.
// All state transitions are serialized through mu.
type Synchronizer struct {
	store Store
	opts  *options
	log   *slog.Logger

	mu       sync.Mutex
	docID    string
	gen      uint64 // bumped on every document switch
	rev      uint64 // bumped on every edit
	loadSeq  uint64 // identifies the most recent load
	armSeq   uint64 // identifies the live timer
	content  string
	dirty    bool
	phase    Phase
	loadErr  error
	saveErr  error
	timer    Timer
	pending  int
	inflight map[string]int    // queued or running saves per document
	issued   map[string]uint64 // saves ever issued per document
	settled  map[string]chan struct{}
	reload   bool // a load waits for the active document's saves to land
	closed   bool

	notifyMu sync.Mutex
	writer   *writer

	loadCtx     context.Context
	cancelLoads context.CancelFunc
	loads       sync.WaitGroup
}

type loadRequest struct {
	seq    uint64
	docID  string
	issued uint64
}

// New creates a Synchronizer backed by st and starts its writer goroutine.
// No document is active until Open is called.
func New(st Store, opts ...Option) *Synchronizer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	loadCtx, cancel := context.WithCancel(context.Background())
	s := &Synchronizer{
		store:       st,
		opts:        o,
		log:         logger.With("component", "autosave"),
		inflight:    make(map[string]int),
		issued:      make(map[string]uint64),
		settled:     make(map[string]chan struct{}),
		loadCtx:     loadCtx,
		cancelLoads: cancel,
	}
	s.writer = newWriter(s.execute)
	go s.writer.run()
	return s
}

// Open makes id the active document. A dirty buffer for the outgoing document
// is flushed before the new document's state is created. Opening the document
// that is already active is a no-op.
//
// If saves for id are still queued or running, the load starts once they
// have landed.
func (s *Synchronizer) Open(id string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.phase != PhaseIdle && id == s.docID {
		s.mu.Unlock()
		return nil
	}

	s.stopTimerLocked()
	started := s.flushLocked()
	if started {
		s.log.Debug("flushed outgoing document", "doc", s.docID, "next", id)
	}

	s.docID = id
	s.gen++
	s.content = ""
	s.dirty = false
	s.phase = PhaseLoading
	s.loadErr = nil
	s.saveErr = nil
	req, ok := s.startLoadLocked()
	s.mu.Unlock()

	if started {
		s.notify(EventSaveStarted)
	}
	s.notify(EventSwitch)
	if ok {
		s.spawnLoad(req)
	}
	return nil
}

// Refresh re-issues the load for the active document. The result replaces the
// buffer only if it is not dirty.
func (s *Synchronizer) Refresh() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.phase == PhaseIdle {
		s.mu.Unlock()
		return ErrNoDocument
	}
	if s.phase == PhaseError {
		s.phase = PhaseLoading
		s.loadErr = nil
	}
	id := s.docID
	req, ok := s.startLoadLocked()
	s.mu.Unlock()

	if inv, isCache := s.store.(Invalidator); isCache {
		inv.Invalidate(id)
	}
	if ok {
		s.spawnLoad(req)
	}
	return nil
}

// Edit replaces the buffer with content, marks it dirty and restarts the
// quiet-period countdown.
func (s *Synchronizer) Edit(content string) error {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrClosed
	case s.phase == PhaseIdle:
		s.mu.Unlock()
		return ErrNoDocument
	case s.phase == PhaseError:
		id := s.docID
		s.mu.Unlock()
		return fmt.Errorf("document %q: %w", id, ErrLoadFailed)
	}

	s.content = content
	s.dirty = true
	s.rev++
	s.armLocked()
	s.mu.Unlock()

	s.notify(EventEdit)
	return nil
}

// Flush saves the buffer immediately if it is dirty and cancels any pending
// timer. It never issues a save for a clean buffer.
func (s *Synchronizer) Flush() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.stopTimerLocked()
	started := s.flushLocked()
	s.mu.Unlock()

	if started {
		s.notify(EventSaveStarted)
	}
	return nil
}

// Close tears the synchronizer down: a dirty buffer is flushed, further
// events are rejected and queued saves are drained. Close waits for the drain
// until ctx is done; saves still running at that point are cancelled.
// Calling Close more than once is safe.
func (s *Synchronizer) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return s.wait(ctx)
	}
	s.stopTimerLocked()
	started := s.flushLocked()
	s.closed = true
	s.mu.Unlock()

	if started {
		s.notify(EventSaveStarted)
	}
	s.cancelLoads()
	s.writer.drain()
	s.notify(EventClosed)
	return s.wait(ctx)
}

func (s *Synchronizer) wait(ctx context.Context) error {
	idle := make(chan struct{})
	go func() {
		<-s.writer.done
		s.loads.Wait()
		close(idle)
	}()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		s.writer.cancel()
		return fmt.Errorf("waiting for pending saves: %w", ctx.Err())
	}
}

// Snapshot returns the current state.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Settled returns a channel that is closed once no save for id is queued or
// running.
func (s *Synchronizer) Settled(id string) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[id] == 0 {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	ch, ok := s.settled[id]
	if !ok {
		ch = make(chan struct{})
		s.settled[id] = ch
	}
	return ch
}

func (s *Synchronizer) snapshotLocked() Snapshot {
	return Snapshot{
		DocID:   s.docID,
		Content: s.content,
		Dirty:   s.dirty,
		Phase:   s.phase,
		Status:  statusOf(s.pending, s.dirty),
		LoadErr: s.loadErr,
		SaveErr: s.saveErr,
	}
}

// armLocked replaces any live timer with a fresh one.
func (s *Synchronizer) armLocked() {
	s.stopTimerLocked()
	s.armSeq++
	seq := s.armSeq
	s.timer = s.opts.clock.AfterFunc(s.opts.quietPeriod, func() { s.fire(seq) })
}

func (s *Synchronizer) stopTimerLocked() {
	if s.timer == nil {
		return
	}
	s.timer.Stop()
	s.timer = nil
}

// fire runs when the quiet period elapses. A timer that was replaced or
// cancelled after it had already started firing is ignored via armSeq.
func (s *Synchronizer) fire(seq uint64) {
	s.mu.Lock()
	if s.closed || s.timer == nil || seq != s.armSeq {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	started := s.flushLocked()
	s.mu.Unlock()

	if started {
		s.notify(EventSaveStarted)
	}
}

// flushLocked issues a save for the current buffer if it is dirty and clears
// the dirty flag. It reports whether a save was issued.
func (s *Synchronizer) flushLocked() bool {
	if !s.dirty {
		return false
	}
	s.writer.enqueue(saveRequest{
		docID:   s.docID,
		content: s.content,
		gen:     s.gen,
		rev:     s.rev,
	})
	s.pending++
	s.inflight[s.docID]++
	s.issued[s.docID]++
	s.dirty = false
	return true
}

// settleLocked records that a save for id finished.
func (s *Synchronizer) settleLocked(id string) {
	s.pending--
	s.inflight[id]--
	if s.inflight[id] > 0 {
		return
	}
	delete(s.inflight, id)
	if ch, ok := s.settled[id]; ok {
		close(ch)
		delete(s.settled, id)
	}
}

// startLoadLocked supersedes any running load for the active document. While
// saves for the document are outstanding the store may still hold older
// content, so the load is deferred until execute sees them land.
func (s *Synchronizer) startLoadLocked() (loadRequest, bool) {
	s.loadSeq++
	if s.inflight[s.docID] > 0 {
		s.reload = true
		return loadRequest{}, false
	}
	s.reload = false
	s.loads.Add(1)
	return loadRequest{seq: s.loadSeq, docID: s.docID, issued: s.issued[s.docID]}, true
}

func (s *Synchronizer) spawnLoad(req loadRequest) {
	go func() {
		defer s.loads.Done()
		s.load(req)
	}()
}

func (s *Synchronizer) load(req loadRequest) {
	ctx, cancel := context.WithTimeout(s.loadCtx, s.opts.loadTimeout)
	defer cancel()

	content, err := s.store.Load(ctx, req.docID)
	if errors.Is(err, store.ErrNotFound) {
		content, err = "", nil
	}

	s.mu.Lock()
	if s.closed || req.seq != s.loadSeq {
		s.mu.Unlock()
		s.log.Debug("discarding stale load", "doc", req.docID)
		return
	}
	ev := EventLoaded
	switch {
	case err != nil:
		s.phase = PhaseError
		s.loadErr = err
		ev = EventLoadFailed
		s.log.Error("load failed", "doc", req.docID, "error", err)
	case s.issued[req.docID] != req.issued:
		// Edits saved while loading are newer than anything the load read.
		s.phase = PhaseReady
		s.loadErr = nil
		s.log.Debug("keeping edits saved during load", "doc", req.docID)
	default:
		s.applyLoadedLocked(content)
	}
	s.mu.Unlock()

	s.notify(ev)
}

// applyLoadedLocked seeds the buffer with persisted content unless local
// edits are pending.
func (s *Synchronizer) applyLoadedLocked(content string) {
	s.phase = PhaseReady
	s.loadErr = nil
	if s.dirty {
		s.log.Debug("ignoring load over unsaved edits", "doc", s.docID)
		return
	}
	s.content = content
}

// execute runs on the writer goroutine.
func (s *Synchronizer) execute(ctx context.Context, req saveRequest) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.saveTimeout)
	err := s.store.Save(ctx, req.docID, req.content)
	cancel()

	s.mu.Lock()
	s.settleLocked(req.docID)
	ev := EventSaved
	current := req.gen == s.gen
	waiting := s.reload && !s.closed && req.docID == s.docID && s.inflight[req.docID] == 0
	if err != nil {
		ev = EventSaveFailed
		if current {
			s.saveErr = err
		}
		retry := s.opts.retry && !s.closed && current && req.rev == s.rev && !s.dirty
		if retry {
			s.dirty = true
			s.armLocked()
		}
		// The document was reopened while its last save was running. The
		// store never got that content, so it becomes the buffer again.
		if !retry && waiting && s.opts.retry && !s.dirty {
			s.content = req.content
			s.dirty = true
			s.phase = PhaseReady
			s.saveErr = err
			s.loadSeq++
			s.reload = false
			waiting = false
			retry = true
			s.armLocked()
		}
		s.log.Error("save failed", "doc", req.docID, "retry", retry, "error", err)
	} else {
		if current {
			s.saveErr = nil
		}
		s.log.Debug("saved", "doc", req.docID, "bytes", len(req.content))
	}
	var next loadRequest
	if waiting {
		next, waiting = s.startLoadLocked()
	}
	s.mu.Unlock()

	s.notify(ev)
	if waiting {
		s.spawnLoad(next)
	}
}

// notify delivers ev with the state current at delivery time. Deliveries are
// serialized, so the last callback always carries the latest state.
func (s *Synchronizer) notify(ev Event) {
	if s.opts.onChange == nil {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.opts.onChange(ev, s.Snapshot())
}
