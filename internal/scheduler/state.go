package scheduler

// State is the scheduling state of a goal.
type State int

const (
	Unscheduled State = iota
	Planning
	Blocked
	Ready
	Executing
	Finished
	Failed
)

var stateNames = [...]string{
	Unscheduled: "UNSCHEDULED",
	Planning:    "PLANNING",
	Blocked:     "BLOCKED",
	Ready:       "READY",
	Executing:   "EXECUTING",
	Finished:    "FINISHED",
	Failed:      "FAILED",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == Finished || s == Failed
}

var transitions = map[State][]State{
	Unscheduled: {Planning},
	Planning:    {Blocked, Ready, Failed},
	Blocked:     {Ready, Failed},
	Ready:       {Executing},
	Executing:   {Finished, Failed},
}

// canTransition reports whether from -> to is a legal move.
func canTransition(from, to State) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
