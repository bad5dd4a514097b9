// Package game implements the "guess the optimal price" round.
//
// A round is a State value. Transitions are methods on an Engine that take
// the current State and return the next one; the Engine itself holds only the
// shared catalog and immutable settings, so one Engine serves every session.
// Randomness (product and scenario draw, bracket slack, hint band) comes from
// a caller-supplied Rand so that rounds can be replayed in tests.
//
//	Idle --Start--> Active --Guess--> Active | Idle (win or loss)
//	                Active --Hint---> Active (once per round)
//	                Active --Reset--> Idle
package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rewired-gh/elasticity/internal/catalog"
	"github.com/rewired-gh/elasticity/internal/demand"
	"github.com/rewired-gh/elasticity/internal/logger"
)

var (
	// ErrOutOfRange rejects a guess outside the price domain.
	ErrOutOfRange = errors.New("guess out of range")
	// ErrOffStep rejects a guess that is not on the price grid.
	ErrOffStep = errors.New("guess not on price step")
	// ErrNoActiveRound is returned when guessing or hinting while idle.
	ErrNoActiveRound = errors.New("no active round")
	// ErrHintUsed is returned on a second hint in the same round.
	ErrHintUsed = errors.New("hint already used this round")
)

// Rand is the random source used by the engine. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// Settings tunes the game. Thresholds are in price units and assume a
// domain in the thousands.
type Settings struct {
	Domain        demand.Domain
	MaxAttempts   int
	HotThreshold  float64
	WarmThreshold float64
	TrendEpsilon  float64
	SlackChoices  []float64
	HintWidths    []float64
	HintJitter    int
}

// DefaultSettings returns the classroom defaults.
func DefaultSettings() Settings {
	return Settings{
		Domain:        demand.Domain{Min: 1000, Max: 3000, Step: 10},
		MaxAttempts:   3,
		HotThreshold:  200,
		WarmThreshold: 500,
		TrendEpsilon:  1e-9,
		SlackChoices:  []float64{50, 100, 150},
		HintWidths:    []float64{500, 600, 700, 800},
		HintJitter:    50,
	}
}

// Validate checks that the settings are usable
func (s Settings) Validate() error {
	if err := s.Domain.Validate(); err != nil {
		return err
	}
	if s.MaxAttempts < 1 {
		return errors.New("max attempts must be at least 1")
	}
	if s.HotThreshold <= 0 || s.WarmThreshold < s.HotThreshold {
		return errors.New("thresholds must satisfy 0 < hot <= warm")
	}
	if s.TrendEpsilon <= 0 {
		return errors.New("trend epsilon must be positive")
	}
	if len(s.SlackChoices) == 0 || len(s.HintWidths) == 0 {
		return errors.New("slack choices and hint widths must not be empty")
	}
	if s.HintJitter < 0 {
		return errors.New("hint jitter must not be negative")
	}
	return nil
}

// Range is a closed price interval.
type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// GuessRecord is one entry of a round's history.
type GuessRecord struct {
	Price    float64 `json:"price"`
	Revenue  float64 `json:"revenue"`
	Fraction float64 `json:"fraction"`
}

// State is one session's round. The zero value is Idle.
type State struct {
	ID           string        `json:"id"`
	Active       bool          `json:"active"`
	ProductID    string        `json:"product_id"`
	ScenarioID   string        `json:"scenario_id"`
	Shock        float64       `json:"shock"`
	OptimalPrice float64       `json:"optimal_price"`
	MaxRevenue   float64       `json:"max_revenue"`
	MaxAttempts  int           `json:"max_attempts"`
	Attempts     int           `json:"attempts"`
	History      []GuessRecord `json:"history"`
	Range        Range         `json:"range"`
	HintUsed     bool          `json:"hint_used"`
	HintRange    Range         `json:"hint_range"`
	Outcome      Outcome       `json:"outcome,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
}

// AttemptsLeft returns the number of guesses remaining in the round.
func (s State) AttemptsLeft() int {
	if s.Attempts >= s.MaxAttempts {
		return 0
	}
	return s.MaxAttempts - s.Attempts
}

// BestFraction returns the highest fraction of maximum revenue reached so far.
func (s State) BestFraction() float64 {
	var best float64
	for _, h := range s.History {
		if h.Fraction > best {
			best = h.Fraction
		}
	}
	return best
}

// clone copies the history so the returned State never aliases the input.
func (s State) clone() State {
	s.History = append([]GuessRecord(nil), s.History...)
	return s
}

// Engine runs rounds against a catalog. It is safe for concurrent use.
type Engine struct {
	catalog  *catalog.Catalog
	settings Settings
}

// New creates a new Engine instance
func New(cat *catalog.Catalog, settings Settings) (*Engine, error) {
	if cat == nil {
		return nil, errors.New("catalog is required")
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game settings: %w", err)
	}
	settings.SlackChoices = append([]float64(nil), settings.SlackChoices...)
	settings.HintWidths = append([]float64(nil), settings.HintWidths...)
	return &Engine{catalog: cat, settings: settings}, nil
}

// Settings returns the engine settings.
func (e *Engine) Settings() Settings {
	return e.settings
}

// Start draws a product and a scenario uniformly at random and opens a new
// round. Any previous state is simply replaced by the returned value.
//
// The optimum is found by grid search over the domain so that it is a price
// the player can actually type.
func (e *Engine) Start(rng Rand) (State, error) {
	product := e.catalog.ProductAt(rng.Intn(e.catalog.NumProducts()))
	scenario := e.catalog.ScenarioAt(rng.Intn(e.catalog.NumScenarios()))

	optimal, maxRevenue, err := demand.OptimalPriceAggregate(product, scenario.Shock, e.settings.Domain, demand.GridSearch)
	if err != nil {
		return State{}, fmt.Errorf("failed to compute optimum for %s/%s: %w", product.ID, scenario.ID, err)
	}

	st := State{
		ID:           uuid.New().String(),
		Active:       true,
		ProductID:    product.ID,
		ScenarioID:   scenario.ID,
		Shock:        scenario.Shock,
		OptimalPrice: optimal,
		MaxRevenue:   maxRevenue,
		MaxAttempts:  e.settings.MaxAttempts,
		History:      []GuessRecord{},
		Range:        Range{Low: e.settings.Domain.Min, High: e.settings.Domain.Max},
		StartedAt:    time.Now(),
	}

	logger.Debug("Started round %s (product=%s, scenario=%s, optimum=%.2f)", st.ID, st.ProductID, st.ScenarioID, st.OptimalPrice)
	return st, nil
}

// Reset abandons the round unconditionally. History is discarded.
func (e *Engine) Reset(st State) State {
	if st.Active {
		logger.Debug("Round %s abandoned after %d attempts", st.ID, st.Attempts)
	}
	return State{}
}
