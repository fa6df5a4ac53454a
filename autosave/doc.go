// Package autosave keeps the edit buffer of a single scratchpad document in
// step with its persisted copy.
//
// A Synchronizer owns the buffer, a dirty flag and at most one pending flush
// timer. Every local edit marks the buffer dirty and restarts a quiet-period
// countdown; when the countdown elapses without a further edit the current
// buffer is handed to the store. Switching to another document or closing the
// synchronizer flushes immediately, so the last edit of the outgoing document
// is always written.
//
// Loads never overwrite a dirty buffer: a load that resolves after the user
// has started typing is discarded in favour of the local edits.
//
// Saves are issued in order by a single writer goroutine. The dirty flag is
// cleared as soon as a save is issued; if that save fails and nothing has been
// typed since, the buffer is marked dirty again and the countdown re-armed.
package autosave
