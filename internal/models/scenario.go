package models

import (
	"errors"
	"fmt"
	"math"
)

// Scenario represents a macroeconomic condition that scales demand intercepts
type Scenario struct {
	ID    string  `json:"id" toml:"id"`
	Name  string  `json:"name" toml:"name"`
	Shock float64 `json:"shock" toml:"shock"`
}

// Validate checks that all scenario fields are valid
func (s *Scenario) Validate() error {
	if s.ID == "" {
		return errors.New("scenario ID must not be empty")
	}
	if math.IsNaN(s.Shock) || math.IsInf(s.Shock, 0) || s.Shock <= 0 {
		return fmt.Errorf("scenario %s: shock must be a positive finite number", s.ID)
	}
	return nil
}

// DisplayName returns Name, falling back to ID.
func (s *Scenario) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}
