package stack

// State is a pipeline's lifecycle stage.
type State int

const (
	StateUnbuilt State = iota
	StateBuilt
	StateTornDown
)

func (s State) String() string {
	switch s {
	case StateUnbuilt:
		return "unbuilt"
	case StateBuilt:
		return "built"
	case StateTornDown:
		return "torn down"
	default:
		return "unknown"
	}
}
