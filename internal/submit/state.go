package submit

// State tracks one transaction through its lifecycle.
type State int

const (
	StateBuilding State = iota
	StateSigned
	StateSubmitted
	StateProvisional
	StateValidated
	StateExpired
	StateEngineRejected
)

var stateNames = map[State]string{
	StateBuilding:       "building",
	StateSigned:         "signed",
	StateSubmitted:      "submitted",
	StateProvisional:    "provisional",
	StateValidated:      "validated",
	StateExpired:        "expired",
	StateEngineRejected: "rejected",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further transition can happen from s.
func (s State) Terminal() bool {
	switch s {
	case StateProvisional, StateValidated, StateExpired, StateEngineRejected:
		return true
	}
	return false
}
