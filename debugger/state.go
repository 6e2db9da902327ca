package debugger

// State is the lifecycle state of a debug session.
type State uint8

const (
	StateDetached State = iota
	StateListening
	StateWaitingForDebugger
	StateAttached
	StateClosed
)

var stateNames = [...]string{
	StateDetached:           "detached",
	StateListening:          "listening",
	StateWaitingForDebugger: "waiting_for_debugger",
	StateAttached:           "attached",
	StateClosed:             "closed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}
