// Package models defines the catalog entities of the elasticity simulator.
// These models describe consumer segments, the products they belong to, and
// the macroeconomic scenarios that shift demand. Every model carries its own
// validation so that hand-written catalog files cannot introduce a segment
// with a non-positive slope or a scenario with a non-positive shock.
//
// Terminology:
//   - Segment: one consumer profile with its own linear demand curve.
//   - Product: a set of segments sold at one shared price.
//   - Scenario: a named multiplier applied to every segment's demand level.
package models

import (
	"errors"
	"fmt"
)

// Segment holds the demand coefficients of one consumer profile.
//
// A segment is linear (Q = a·s − b·P) when PriceCeiling is zero and
// ceiling-shaped (Q = a·s·(1 − P/ceiling)) when PriceCeiling is positive.
type Segment struct {
	Name      string  `json:"name" toml:"name"`
	Intercept float64 `json:"intercept" toml:"intercept"`
	// Slope is b. Ignored for ceiling-shaped segments.
	Slope float64 `json:"slope,omitempty" toml:"slope"`
	// PriceCeiling is the choke price of the ceiling shape.
	PriceCeiling float64 `json:"price_ceiling,omitempty" toml:"price_ceiling"`
}

// IsCeiling reports whether the segment uses the price-ceiling demand shape.
func (s *Segment) IsCeiling() bool {
	return s.PriceCeiling > 0
}

// Validate checks that all segment fields are valid
func (s *Segment) Validate() error {
	if s.Name == "" {
		return errors.New("segment name must not be empty")
	}
	if s.Intercept < 0 {
		return fmt.Errorf("segment %s: intercept must not be negative", s.Name)
	}
	if s.PriceCeiling < 0 {
		return fmt.Errorf("segment %s: price ceiling must not be negative", s.Name)
	}
	if !s.IsCeiling() && s.Slope <= 0 {
		return fmt.Errorf("segment %s: slope must be positive", s.Name)
	}
	return nil
}
