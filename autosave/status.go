package autosave

// Status is the save indicator shown to the user.
type Status int

const (
	StatusSaved Status = iota
	StatusUnsaved
	StatusSaving
)

func (s Status) String() string {
	switch s {
	case StatusSaved:
		return "saved"
	case StatusUnsaved:
		return "unsaved"
	case StatusSaving:
		return "saving"
	default:
		return "unknown"
	}
}

// Phase describes where the active document is in its load lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota // no document open
	PhaseLoading
	PhaseReady
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Event names the transition that produced a change notification.
type Event int

const (
	EventEdit Event = iota
	EventSwitch
	EventLoaded
	EventLoadFailed
	EventSaveStarted
	EventSaved
	EventSaveFailed
	EventClosed
)

func (e Event) String() string {
	switch e {
	case EventEdit:
		return "edit"
	case EventSwitch:
		return "switch"
	case EventLoaded:
		return "loaded"
	case EventLoadFailed:
		return "load_failed"
	case EventSaveStarted:
		return "save_started"
	case EventSaved:
		return "saved"
	case EventSaveFailed:
		return "save_failed"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time copy of the synchronizer state.
type Snapshot struct {
	DocID   string
	Content string
	Dirty   bool
	Phase   Phase
	Status  Status
	LoadErr error
	SaveErr error
}

func statusOf(pending int, dirty bool) Status {
	switch {
	case pending > 0:
		return StatusSaving
	case dirty:
		return StatusUnsaved
	default:
		return StatusSaved
	}
}
