package models

import (
	"errors"
	"time"
)

// Round outcomes recorded in the archive.
const (
	OutcomeWin  = "win"
	OutcomeLoss = "loss"
)

// RoundResult represents a finished guessing-game round.
// Only finished rounds are archived; abandoned rounds leave no trace.
type RoundResult struct {
	ID           string    `json:"id"`
	ChatID       int64     `json:"chat_id"`
	ProductID    string    `json:"product_id"`
	ScenarioID   string    `json:"scenario_id"`
	OptimalPrice float64   `json:"optimal_price"`
	MaxRevenue   float64   `json:"max_revenue"`
	Attempts     int       `json:"attempts"`
	Outcome      string    `json:"outcome"` // "win" or "loss"
	BestFraction float64   `json:"best_fraction"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Validate checks that all round fields are valid
func (r *RoundResult) Validate() error {
	if r.ID == "" {
		return errors.New("round ID must not be empty")
	}
	if r.ProductID == "" {
		return errors.New("product ID must not be empty")
	}
	if r.ScenarioID == "" {
		return errors.New("scenario ID must not be empty")
	}
	if r.Attempts < 1 {
		return errors.New("attempts must be at least 1")
	}
	if r.Outcome != OutcomeWin && r.Outcome != OutcomeLoss {
		return errors.New("outcome must be 'win' or 'loss'")
	}
	if r.BestFraction < 0.0 || r.BestFraction > 1.0+1e-9 {
		return errors.New("best fraction must be between 0.0 and 1.0")
	}
	if r.MaxRevenue < 0 {
		return errors.New("max revenue must not be negative")
	}
	if r.FinishedAt.After(time.Now()) {
		return errors.New("finished at must not be in the future")
	}
	return nil
}
