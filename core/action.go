package core

type ActionKind int

const (
	Stake ActionKind = iota
	Unstake
	Status
)

func (k ActionKind) String() string {
	switch k {
	case Stake:
		return "stake"
	case Unstake:
		return "unstake"
	case Status:
		return "status"
	default:
		return "unknown"
	}
}

// StakeAction is one requested bonder operation. Amount is in human units
// and is ignored for Status.
type StakeAction struct {
	Network string
	Chain   string
	Token   string
	Amount  string
	Kind    ActionKind
}
