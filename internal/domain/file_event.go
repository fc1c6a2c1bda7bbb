package domain

// FileEventKind classifies a filesystem change
type FileEventKind int

const (
	FileCreated FileEventKind = iota
	FileModified
	FileRemoved // deleted, or renamed away from Path
)

func (k FileEventKind) String() string {
	switch k {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// FileEvent is a change to a single path
type FileEvent struct {
	Path string
	Kind FileEventKind
}
