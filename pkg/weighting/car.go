package weighting

import "github.com/azybler/chrouter/pkg/graph"

const (
	// MaxSpeed is the highest encodable car speed in km/h.
	MaxSpeed = 140.0
	// DefaultSpeed is used when an edge carries no speed payload.
	DefaultSpeed = 50.0
)

// CarFlags encodes direction bits and a speed in km/h. Speeds are clamped to
// [1, MaxSpeed].
func CarFlags(speedKmh int, forward, backward bool) graph.Flags {
	var dir graph.Flags
	if forward {
		dir |= graph.Forward
	}
	if backward {
		dir |= graph.Backward
	}
	speedKmh = min(max(speedKmh, 1), int(MaxSpeed))
	return dir.WithPayload(uint32(speedKmh))
}

// Speed decodes the speed payload of flags, falling back to DefaultSpeed.
func Speed(flags graph.Flags) float64 {
	s := float64(flags.Payload())
	if s == 0 {
		return DefaultSpeed
	}
	return min(s, MaxSpeed)
}
