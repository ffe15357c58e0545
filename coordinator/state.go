package coordinator

// State is the connectivity decision made by the startup probe.
type State int32

const (
	// Unknown is the state before the probe has answered.
	Unknown State = iota
	// Live means reads and writes go to the backend.
	Live
	// Demo means the backend was unreachable; the demo dataset is served.
	Demo
)

func (s State) String() string {
	switch s {
	case Live:
		return "live"
	case Demo:
		return "demo"
	default:
		return "unknown"
	}
}

// Kind names a collection the coordinator loads.
type Kind string

const (
	KindBooks Kind = "books"
	KindUsers Kind = "users"
	KindStats Kind = "stats"

	// view-only kinds
	KindDashboard Kind = "dashboard"
	KindSearch    Kind = "search"
)

// ParseKind accepts the loadable kinds.
func ParseKind(value string) (Kind, bool) {
	switch k := Kind(value); k {
	case KindBooks, KindUsers, KindStats:
		return k, true
	default:
		return "", false
	}
}

// Section is the part of the interface currently on screen.
type Section string

const (
	SectionDashboard       Section = "dashboard"
	SectionBooks           Section = "books"
	SectionUsers           Section = "users"
	SectionBorrow          Section = "borrow"
	SectionSearch          Section = "search"
	SectionNavigation      Section = "navigation"
	SectionRecommendations Section = "recommendations"
)
