// Package steak holds the static doneness reference data used to build
// cooking guides. Loaded once at startup, never call-scoped.
package steak

import (
	"strings"
	"time"
)

// Doneness is a steak cooking preference.
type Doneness string

const (
	Rare       Doneness = "rare"
	MediumRare Doneness = "medium rare"
	Medium     Doneness = "medium"
	MediumWell Doneness = "medium well"
	WellDone   Doneness = "well done"
)

func (d Doneness) String() string { return string(d) }

// Valid reports whether d is one of the known doneness labels.
func (d Doneness) Valid() bool {
	_, ok := profiles[d]
	return ok
}

// ParseDoneness maps a label to its Doneness, case-insensitively.
func ParseDoneness(s string) (Doneness, bool) {
	d := Doneness(strings.ToLower(strings.TrimSpace(s)))
	if d.Valid() {
		return d, true
	}
	return "", false
}

// Profile describes how to cook a one-inch steak to a given doneness.
type Profile struct {
	TargetFahrenheit int
	TimePerSide      time.Duration
}

var profiles = map[Doneness]Profile{
	Rare:       {TargetFahrenheit: 125, TimePerSide: 3 * time.Minute},
	MediumRare: {TargetFahrenheit: 135, TimePerSide: 4 * time.Minute},
	Medium:     {TargetFahrenheit: 145, TimePerSide: 5 * time.Minute},
	MediumWell: {TargetFahrenheit: 150, TimePerSide: 6 * time.Minute},
	WellDone:   {TargetFahrenheit: 160, TimePerSide: 7 * time.Minute},
}

// ProfileFor returns the cooking profile for a doneness.
func ProfileFor(d Doneness) (Profile, bool) {
	p, ok := profiles[d]
	return p, ok
}
