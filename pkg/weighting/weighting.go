// Package weighting converts edge distances and flags into search weights
// and travel times.
package weighting

import (
	"errors"
	"fmt"
	"time"

	"github.com/azybler/chrouter/pkg/graph"
)

// ErrUnknownWeighting is returned by New for an unsupported name.
var ErrUnknownWeighting = errors.New("weighting: unknown weighting")

// Weighting is the strategy consumed by contraction and search. Weights must
// be non-negative and finite; this is not checked.
type Weighting interface {
	// Weight returns the search weight of an edge.
	Weight(distance float64, flags graph.Flags) float64
	// MinWeight returns a lower bound of Weight over all flags.
	MinWeight(distance float64) float64
	// Time returns the travel time of an edge.
	Time(distance float64, flags graph.Flags) time.Duration
	// RevertWeight recovers the distance from a weight produced by Weight.
	RevertWeight(weight float64, flags graph.Flags) float64
	Name() string
}

// New returns the weighting registered under name.
func New(name string) (Weighting, error) {
	switch name {
	case "fastest", "":
		return NewFastest(), nil
	case "shortest":
		return Shortest{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownWeighting, name)
	}
}

// Shortest weighs edges by distance only.
type Shortest struct{}

func (Shortest) Weight(distance float64, _ graph.Flags) float64 { return distance }

func (Shortest) MinWeight(distance float64) float64 { return distance }

func (Shortest) Time(distance float64, flags graph.Flags) time.Duration {
	return travelTime(distance, Speed(flags))
}

func (Shortest) RevertWeight(weight float64, _ graph.Flags) float64 { return weight }

func (Shortest) Name() string { return "shortest" }

// Fastest weighs edges by distance scaled by the inverse of the speed
// relative to maxSpeed, so a road at maxSpeed weighs its distance.
type Fastest struct {
	maxSpeed float64
}

// NewFastest returns a Fastest weighting with MaxSpeed as the reference.
func NewFastest() *Fastest {
	return &Fastest{maxSpeed: MaxSpeed}
}

func (f *Fastest) speedPart(flags graph.Flags) float64 {
	return Speed(flags) / f.maxSpeed
}

func (f *Fastest) Weight(distance float64, flags graph.Flags) float64 {
	return distance / f.speedPart(flags)
}

func (f *Fastest) MinWeight(distance float64) float64 { return distance }

func (f *Fastest) Time(distance float64, flags graph.Flags) time.Duration {
	return travelTime(distance, Speed(flags))
}

func (f *Fastest) RevertWeight(weight float64, flags graph.Flags) float64 {
	return weight * f.speedPart(flags)
}

func (f *Fastest) Name() string { return "fastest" }

// travelTime converts meters at km/h into a duration.
func travelTime(distance, speedKmh float64) time.Duration {
	seconds := distance * 3.6 / speedKmh
	return time.Duration(seconds * float64(time.Second))
}
