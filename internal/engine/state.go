package engine

import "fmt"

// State is where a render session is in its lifecycle.
type State int

const (
	Idle State = iota
	Priming
	Running
	Finalizing
	Complete
	Failed
)

var stateNames = [...]string{"idle", "priming", "running", "finalizing", "complete", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Complete || s == Failed
}

var transitions = map[State][]State{
	Idle:       {Priming},
	Priming:    {Running, Failed},
	Running:    {Finalizing, Failed},
	Finalizing: {Complete, Failed},
}

// CanTransition reports whether from → to is a legal move.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
