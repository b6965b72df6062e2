package model

// ItemPhase distinguishes the start of an item from its terminal state.
type ItemPhase string

const (
	ItemPhaseStarted   ItemPhase = "started"
	ItemPhaseCompleted ItemPhase = "completed"
)

// EventKind enumerates the canonical event variants.
type EventKind string

const (
	EventKindItem     EventKind = "item_event"
	EventKindFileDiff EventKind = "file_diff_event"
)

// Event is the sealed union of normalized log occurrences consumed by the
// timeline reducer.
type Event interface {
	canonicalEvent()
	EventKind() EventKind
}

// ItemEvent reports that an item started or reached a terminal state. Item
// carries the fields known at this point; zero values mean "not reported".
type ItemEvent struct {
	Phase ItemPhase
	Item  Item
}

// FileDiffEvent attaches full texts for one file of a file_change item.
type FileDiffEvent struct {
	ItemID      string
	Path        string
	Kind        ChangeKind
	UnifiedDiff string
	OldText     string
	NewText     string
}

func (ItemEvent) canonicalEvent()     {}
func (FileDiffEvent) canonicalEvent() {}

func (ItemEvent) EventKind() EventKind     { return EventKindItem }
func (FileDiffEvent) EventKind() EventKind { return EventKindFileDiff }

// Diff converts the event into the entry appended to a FileChange.
func (e FileDiffEvent) Diff() FileDiff {
	return FileDiff{
		Path:        e.Path,
		Kind:        e.Kind,
		OldText:     e.OldText,
		NewText:     e.NewText,
		UnifiedDiff: e.UnifiedDiff,
	}
}
