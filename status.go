package rehydrate

// Status is the rehydration lifecycle position of a slice. It only moves
// forward.
type Status int

const (
	StatusDiscovered Status = iota
	StatusPending
	StatusLoading
	StatusMerged
	StatusDone
)

func (s Status) String() string {
	switch s {
	case StatusDiscovered:
		return "discovered"
	case StatusPending:
		return "pending"
	case StatusLoading:
		return "loading"
	case StatusMerged:
		return "merged"
	case StatusDone:
		return "done"
	default:
		return "unknown"
	}
}
