package imagebudget

import (
	"errors"
	"fmt"
)

// Attempt is one point of the scale/quality search space.
type Attempt struct {
	Scale   float64 `json:"scale"`
	Quality int     `json:"quality"`
}

func (a Attempt) String() string {
	return fmt.Sprintf("scale=%.2f quality=%d", a.Scale, a.Quality)
}

// Validate reports whether the attempt lies inside (0,1] x [1,100].
func (a Attempt) Validate() error {
	if a.Scale <= 0 || a.Scale > 1 {
		return fmt.Errorf("imagebudget: scale %.3f out of range (0,1]", a.Scale)
	}
	if a.Quality < 1 || a.Quality > 100 {
		return fmt.Errorf("imagebudget: quality %d out of range [1,100]", a.Quality)
	}
	return nil
}

// Ladder is an ordered list of attempts, least aggressive first.
// The order is the quality/size policy: earlier rungs keep more legible text.
type Ladder []Attempt

// DefaultLadder walks from full resolution at q75 down to 30% at q45.
var DefaultLadder = Ladder{
	{Scale: 1.0, Quality: 75},
	{Scale: 1.0, Quality: 60},
	{Scale: 0.85, Quality: 70},
	{Scale: 0.85, Quality: 55},
	{Scale: 0.7, Quality: 65},
	{Scale: 0.7, Quality: 50},
	{Scale: 0.55, Quality: 60},
	{Scale: 0.45, Quality: 50},
	{Scale: 0.3, Quality: 45},
}

// LastResort is tried once the whole ladder has failed.
var LastResort = Attempt{Scale: 0.25, Quality: 35}

func (l Ladder) Validate() error {
	if len(l) == 0 {
		return errors.New("imagebudget: empty ladder")
	}
	for i, a := range l {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("rung %d: %w", i, err)
		}
	}
	return nil
}
