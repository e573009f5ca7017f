package light

import "fmt"

// Phase is the color state of a signal.
type Phase int32

const (
	// PhaseStop is the zero value; a new signal starts stopped.
	PhaseStop Phase = iota
	// PhaseGo allows traffic through.
	PhaseGo
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseStop:
		return "stop"
	case PhaseGo:
		return "go"
	default:
		return fmt.Sprintf("phase(%d)", int32(p))
	}
}

// Next returns the phase that follows p.
func (p Phase) Next() Phase {
	if p == PhaseGo {
		return PhaseStop
	}
	return PhaseGo
}

// ParsePhase parses a phase name. "red" and "green" are accepted as aliases.
func ParsePhase(s string) (Phase, error) {
	switch s {
	case "stop", "red":
		return PhaseStop, nil
	case "go", "green":
		return PhaseGo, nil
	default:
		return PhaseStop, fmt.Errorf("unknown phase %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	if p != PhaseStop && p != PhaseGo {
		return nil, fmt.Errorf("invalid phase %d", int32(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(b []byte) error {
	parsed, err := ParsePhase(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
