package scanner

// State is the lifecycle position of a Session.
type State int

const (
	// StateIdle is the state of a new session.
	StateIdle State = iota
	// StateLoading is entered by LoadResumes and held, with the documents
	// in memory, until TopCandidates runs.
	StateLoading
	// StateVectorizing covers fitting the TF-IDF matrix.
	StateVectorizing
	// StateRanking covers scoring, filtering and sorting.
	StateRanking
	// StateDone follows a completed ranking, including an empty one.
	StateDone
	// StateError marks a whole-batch failure. Per-file failures never lead here.
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateVectorizing:
		return "vectorizing"
	case StateRanking:
		return "ranking"
	case StateDone:
		return "done"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
