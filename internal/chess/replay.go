package chess

// State is the phase of a replay.
type State int

const (
	StateInit State = iota
	StateReplaying
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateReplaying:
		return "replaying"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// StopReason explains why a replay reached StateStopped.
type StopReason int

const (
	NotStopped StopReason = iota
	Exhausted
	MoveFailed
	Halted
)

func (r StopReason) String() string {
	switch r {
	case Exhausted:
		return "exhausted"
	case MoveFailed:
		return "move_error"
	case Halted:
		return "halted"
	default:
		return "none"
	}
}

// Step is the position reached after one successfully applied token.
type Step struct {
	Ply         int
	Token       string
	Fingerprint Fingerprint
}

// ReplayResult describes how a replay ended. Err is the *MoveError that
// stopped it when Reason is MoveFailed.
type ReplayResult struct {
	State  State
	Reason StopReason
	Plies  int
	Err    error
}

// Replay applies tokens in order to a fresh starting-position board and
// calls visit after every applied move. A false return from visit halts
// the replay. The first move error stops the replay without being
// propagated; it is reported in the result.
//
// No board is created for an empty token list.
func Replay(tokens []string, visit func(Step) bool) ReplayResult {
	if len(tokens) == 0 {
		return ReplayResult{State: StateStopped, Reason: Exhausted}
	}

	res := ReplayResult{State: StateReplaying}
	board := NewBoard()
	for _, tok := range tokens {
		if err := board.Apply(tok); err != nil {
			res.State, res.Reason, res.Err = StateStopped, MoveFailed, err
			return res
		}
		res.Plies = board.Ply()
		if visit != nil && !visit(Step{Ply: res.Plies, Token: tok, Fingerprint: board.Fingerprint()}) {
			res.State, res.Reason = StateStopped, Halted
			return res
		}
	}
	res.State, res.Reason = StateStopped, Exhausted
	return res
}
