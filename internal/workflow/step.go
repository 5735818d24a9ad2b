package workflow

// Step is the position in the review pipeline. Values are persisted in
// checkpoints, so they are stable: never renumber.
type Step int

const (
	Start Step = iota
	DataLoaded
	Enriched
	FieldsCopied
	Completed
	DuplicateReview
)

func (s Step) String() string {
	switch s {
	case Start:
		return "start"
	case DataLoaded:
		return "data-loaded"
	case Enriched:
		return "enriched"
	case FieldsCopied:
		return "fields-copied"
	case Completed:
		return "completed"
	case DuplicateReview:
		return "duplicate-review"
	default:
		return "unknown"
	}
}
