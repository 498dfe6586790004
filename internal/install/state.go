package install

// State is a stage of one install attempt.
type State int

const (
	StateIdle State = iota
	StateVerifying
	StateExtracting
	StateRelocating
	StatePostInstall
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateVerifying:
		return "Verifying"
	case StateExtracting:
		return "Extracting"
	case StateRelocating:
		return "Relocating"
	case StatePostInstall:
		return "PostInstall"
	case StateDone:
		return "Done"
	case StateAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}
