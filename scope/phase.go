package scope

import "fmt"

type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseDigest
	PhaseApply
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDigest:
		return "digest"
	case PhaseApply:
		return "apply"
	default:
		return "unknown"
	}
}

// Phase reports the tree-wide phase.
func (s *Scope) Phase() Phase {
	return s.tree.phase
}

func (t *tree) beginPhase(p Phase) error {
	if t.phase != PhaseIdle {
		return fmt.Errorf("%w: %s", ErrPhaseInProgress, t.phase)
	}
	t.phase = p
	return nil
}

func (t *tree) clearPhase() {
	t.phase = PhaseIdle
}
