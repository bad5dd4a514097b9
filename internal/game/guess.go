package game

import (
	"fmt"
	"math"

	"github.com/rewired-gh/elasticity/internal/demand"
	"github.com/rewired-gh/elasticity/internal/logger"
)

// Bucket is the distance class of a guess.
type Bucket string

const (
	Hot  Bucket = "hot"
	Warm Bucket = "warm"
	Cold Bucket = "cold"
)

// Direction tells the player which way to move.
type Direction string

const (
	Raise Direction = "raise"
	Lower Direction = "lower"
	Exact Direction = "exact"
)

// Trend is the local slope of revenue one step above the guess.
type Trend string

const (
	Rising  Trend = "rising"
	Falling Trend = "falling"
	Flat    Trend = "flat"
)

// Comparison relates a guess to the previous one.
type Comparison string

const (
	NoComparison Comparison = ""
	Warmer       Comparison = "warmer"
	Colder       Comparison = "colder"
	Same         Comparison = "same"
)

// Outcome is the round status after a guess.
type Outcome string

const (
	Continue Outcome = "continue"
	Win      Outcome = "win"
	Loss     Outcome = "loss"
)

// Feedback describes one accepted guess.
type Feedback struct {
	Price        float64    `json:"price"`
	Revenue      float64    `json:"revenue"`
	Fraction     float64    `json:"fraction"`
	Distance     float64    `json:"distance"`
	Bucket       Bucket     `json:"bucket"`
	Direction    Direction  `json:"direction"`
	Trend        Trend      `json:"trend"`
	Comparison   Comparison `json:"comparison,omitempty"`
	Range        Range      `json:"range"`
	Attempt      int        `json:"attempt"`
	AttemptsLeft int        `json:"attempts_left"`
	Outcome      Outcome    `json:"outcome"`
	// Set only once the round is over.
	OptimalPrice float64 `json:"optimal_price,omitempty"`
	MaxRevenue   float64 `json:"max_revenue,omitempty"`
}

// Guess scores a price against the round's optimum and returns the next state.
//
// Rejected guesses (ErrOutOfRange, ErrOffStep, ErrNoActiveRound) leave the
// state untouched and do not consume an attempt.
func (e *Engine) Guess(rng Rand, st State, price float64) (State, Feedback, error) {
	if !st.Active {
		return st, Feedback{}, ErrNoActiveRound
	}

	domain := e.settings.Domain
	if math.IsNaN(price) || !domain.Contains(price) {
		return st, Feedback{}, fmt.Errorf("%w: %v is outside [%v, %v]", ErrOutOfRange, price, domain.Min, domain.Max)
	}
	snapped, onGrid := domain.Snap(price)
	if !onGrid {
		return st, Feedback{}, fmt.Errorf("%w: %v is not a multiple of %v from %v", ErrOffStep, price, domain.Step, domain.Min)
	}
	price = snapped

	product, err := e.catalog.Product(st.ProductID)
	if err != nil {
		return st, Feedback{}, err
	}

	revenue, err := demand.AggregateRevenue(product, price, st.Shock)
	if err != nil {
		return st, Feedback{}, err
	}
	fraction := 0.0
	if st.MaxRevenue != 0 {
		fraction = revenue / st.MaxRevenue
	}

	next := st.clone()
	next.History = append(next.History, GuessRecord{Price: price, Revenue: revenue, Fraction: fraction})
	next.Attempts++

	distance := math.Abs(price - st.OptimalPrice)
	fb := Feedback{
		Price:     price,
		Revenue:   revenue,
		Fraction:  fraction,
		Distance:  distance,
		Bucket:    e.bucket(distance),
		Direction: direction(price, st.OptimalPrice),
		Attempt:   next.Attempts,
	}

	upper := math.Min(price+domain.Step, domain.Max)
	upperRevenue, err := demand.AggregateRevenue(product, upper, st.Shock)
	if err != nil {
		return st, Feedback{}, err
	}
	fb.Trend = e.trend(revenue, upperRevenue)

	// Best effort only: a large slack can push the bracket past the optimum.
	if fb.Direction != Exact {
		slack := e.settings.SlackChoices[rng.Intn(len(e.settings.SlackChoices))]
		if price < st.OptimalPrice {
			next.Range.Low = math.Max(next.Range.Low, price+slack)
		} else {
			next.Range.High = math.Min(next.Range.High, price-slack)
		}
	}
	fb.Range = next.Range

	if n := len(next.History); n >= 2 {
		prev := math.Abs(next.History[n-2].Price - st.OptimalPrice)
		switch {
		case distance < prev:
			fb.Comparison = Warmer
		case distance > prev:
			fb.Comparison = Colder
		default:
			fb.Comparison = Same
		}
	}

	switch {
	case price == st.OptimalPrice:
		fb.Outcome = Win
	case next.Attempts >= next.MaxAttempts:
		fb.Outcome = Loss
	default:
		fb.Outcome = Continue
	}

	if fb.Outcome != Continue {
		next.Active = false
		next.Outcome = fb.Outcome
		fb.OptimalPrice = st.OptimalPrice
		fb.MaxRevenue = st.MaxRevenue
		logger.Debug("Round %s finished: %s after %d attempts (optimum=%.2f)", st.ID, fb.Outcome, next.Attempts, st.OptimalPrice)
	}
	fb.AttemptsLeft = next.AttemptsLeft()

	return next, fb, nil
}

func (e *Engine) bucket(distance float64) Bucket {
	switch {
	case distance <= e.settings.HotThreshold:
		return Hot
	case distance <= e.settings.WarmThreshold:
		return Warm
	default:
		return Cold
	}
}

func (e *Engine) trend(revenue, upperRevenue float64) Trend {
	diff := upperRevenue - revenue
	switch {
	case math.Abs(diff) < e.settings.TrendEpsilon:
		return Flat
	case diff > 0:
		return Rising
	default:
		return Falling
	}
}

func direction(price, optimal float64) Direction {
	switch {
	case price < optimal:
		return Raise
	case price > optimal:
		return Lower
	default:
		return Exact
	}
}

// Hint returns an approximate band around the optimum. The band width is
// drawn from the configured widths and each edge is jittered independently,
// so the optimum cannot be recovered from the band's midpoint.
func (e *Engine) Hint(rng Rand, st State) (State, Range, error) {
	if !st.Active {
		return st, Range{}, ErrNoActiveRound
	}
	if st.HintUsed {
		return st, Range{}, ErrHintUsed
	}

	domain := e.settings.Domain
	width := e.settings.HintWidths[rng.Intn(len(e.settings.HintWidths))]
	low := st.OptimalPrice - width/2 + e.jitter(rng)
	high := st.OptimalPrice + width/2 + e.jitter(rng)

	band := Range{Low: domain.Clamp(low), High: domain.Clamp(high)}
	if band.Low > band.High {
		band.Low, band.High = band.High, band.Low
	}

	next := st.clone()
	next.HintUsed = true
	next.HintRange = band
	return next, band, nil
}

func (e *Engine) jitter(rng Rand) float64 {
	j := e.settings.HintJitter
	if j == 0 {
		return 0
	}
	return float64(rng.Intn(2*j+1) - j)
}
