package game

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/rewired-gh/elasticity/internal/catalog"
	"github.com/rewired-gh/elasticity/internal/demand"
	"github.com/rewired-gh/elasticity/internal/models"
)

// scriptedRand replays fixed values, reduced modulo n.
type scriptedRand struct {
	values []int
	calls  int
}

func (s *scriptedRand) Intn(n int) int {
	v := s.values[s.calls%len(s.values)]
	s.calls++
	return v % n
}

func script(values ...int) *scriptedRand {
	return &scriptedRand{values: values}
}

// phoneEngine has a single product and scenario whose grid optimum is 1140.
func phoneEngine(t *testing.T) *Engine {
	t.Helper()
	cat, err := catalog.New(
		[]models.Product{{
			ID: "phone",
			Segments: []models.Segment{
				{Name: "students", Intercept: 12000, Slope: 5.8},
				{Name: "families", Intercept: 9500, Slope: 3.6},
			},
		}},
		[]models.Scenario{{ID: "base", Shock: 1.0}},
	)
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}
	e, err := New(cat, DefaultSettings())
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	return e
}

func mustStart(t *testing.T, e *Engine, rng Rand) State {
	t.Helper()
	st, err := e.Start(rng)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return st
}

func TestStart(t *testing.T) {
	e := phoneEngine(t)
	st := mustStart(t, e, script(0))

	if !st.Active {
		t.Fatal("Expected active round")
	}
	if st.ID == "" {
		t.Error("Expected round ID")
	}
	if st.OptimalPrice != 1140 {
		t.Errorf("Expected grid optimum 1140, got %f", st.OptimalPrice)
	}
	want := 1140 * (21500 - 9.4*1140)
	if math.Abs(st.MaxRevenue-want) > 1e-3 {
		t.Errorf("Expected max revenue %f, got %f", want, st.MaxRevenue)
	}
	if st.Attempts != 0 || len(st.History) != 0 || st.HintUsed {
		t.Errorf("Expected fresh round, got %+v", st)
	}
	if st.Range.Low != 1000 || st.Range.High != 3000 {
		t.Errorf("Expected range [1000, 3000], got %+v", st.Range)
	}
	if st.AttemptsLeft() != 3 {
		t.Errorf("Expected 3 attempts left, got %d", st.AttemptsLeft())
	}
}

func TestStart_ReproducibleWithSeed(t *testing.T) {
	e, err := New(catalog.Default(), DefaultSettings())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for seed := int64(1); seed <= 20; seed++ {
		a := mustStart(t, e, rand.New(rand.NewSource(seed)))
		b := mustStart(t, e, rand.New(rand.NewSource(seed)))
		if a.ProductID != b.ProductID || a.ScenarioID != b.ScenarioID || a.OptimalPrice != b.OptimalPrice {
			t.Fatalf("seed %d: rounds differ: %+v vs %+v", seed, a, b)
		}
		if a.ID == b.ID {
			t.Fatalf("seed %d: expected distinct round IDs", seed)
		}

		product, _ := catalog.Default().Product(a.ProductID)
		wantPrice, wantRevenue, _ := demand.OptimalPriceAggregate(product, a.Shock, e.Settings().Domain, demand.GridSearch)
		if a.OptimalPrice != wantPrice || a.MaxRevenue != wantRevenue {
			t.Fatalf("seed %d: optimum (%v, %v), want (%v, %v)", seed, a.OptimalPrice, a.MaxRevenue, wantPrice, wantRevenue)
		}
	}
}

func TestGuess_LossRevealsStartOptimum(t *testing.T) {
	e := phoneEngine(t)
	rng := script(0, 0, 0, 2, 1)
	start := mustStart(t, e, rng)

	st, fb, err := e.Guess(rng, start, 1000)
	if err != nil {
		t.Fatalf("Guess 1 failed: %v", err)
	}
	if fb.Bucket != Hot || fb.Direction != Raise || fb.Trend != Rising {
		t.Errorf("Guess 1: unexpected feedback %+v", fb)
	}
	if fb.Comparison != NoComparison {
		t.Errorf("Guess 1: expected no comparison, got %s", fb.Comparison)
	}
	if st.Range.Low != 1050 || st.Range.High != 3000 {
		t.Errorf("Guess 1: expected range [1050, 3000], got %+v", st.Range)
	}
	if fb.Outcome != Continue || fb.AttemptsLeft != 2 || !st.Active {
		t.Errorf("Guess 1: expected round to continue with 2 attempts left, got %+v", fb)
	}
	if fb.OptimalPrice != 0 {
		t.Error("Guess 1: optimum must not be revealed mid-round")
	}

	st, fb, err = e.Guess(rng, st, 1500)
	if err != nil {
		t.Fatalf("Guess 2 failed: %v", err)
	}
	if fb.Bucket != Warm || fb.Direction != Lower || fb.Trend != Falling || fb.Comparison != Colder {
		t.Errorf("Guess 2: unexpected feedback %+v", fb)
	}
	if st.Range.Low != 1050 || st.Range.High != 1350 {
		t.Errorf("Guess 2: expected range [1050, 1350], got %+v", st.Range)
	}

	st, fb, err = e.Guess(rng, st, 2000)
	if err != nil {
		t.Fatalf("Guess 3 failed: %v", err)
	}
	if fb.Bucket != Cold || fb.Comparison != Colder {
		t.Errorf("Guess 3: unexpected feedback %+v", fb)
	}
	if fb.Outcome != Loss || st.Active || st.Outcome != Loss {
		t.Fatalf("Guess 3: expected loss and idle state, got %+v / %+v", fb, st)
	}
	if fb.OptimalPrice != start.OptimalPrice || fb.MaxRevenue != start.MaxRevenue {
		t.Errorf("Revealed optimum (%v, %v) differs from start (%v, %v)", fb.OptimalPrice, fb.MaxRevenue, start.OptimalPrice, start.MaxRevenue)
	}
	if fb.AttemptsLeft != 0 || st.Attempts != 3 {
		t.Errorf("Expected 3 attempts used, got %d (left %d)", st.Attempts, fb.AttemptsLeft)
	}

	wantPrices := []float64{1000, 1500, 2000}
	if len(st.History) != len(wantPrices) {
		t.Fatalf("Expected %d history entries, got %d", len(wantPrices), len(st.History))
	}
	for i, h := range st.History {
		if h.Price != wantPrices[i] {
			t.Errorf("History[%d]: expected price %v, got %v", i, wantPrices[i], h.Price)
		}
		if h.Fraction < 0 || h.Fraction > 1 {
			t.Errorf("History[%d]: fraction %v out of [0, 1]", i, h.Fraction)
		}
	}

	if _, _, err := e.Guess(rng, st, 1140); !errors.Is(err, ErrNoActiveRound) {
		t.Errorf("Expected ErrNoActiveRound after loss, got %v", err)
	}
}

func TestGuess_ExactHitWins(t *testing.T) {
	e := phoneEngine(t)
	rng := script(0)
	st := mustStart(t, e, rng)

	st, fb, err := e.Guess(rng, st, 1140)
	if err != nil {
		t.Fatalf("Guess failed: %v", err)
	}
	if fb.Outcome != Win || fb.Direction != Exact || fb.Distance != 0 {
		t.Errorf("Expected exact win, got %+v", fb)
	}
	if fb.Fraction != 1 {
		t.Errorf("Expected full revenue fraction, got %v", fb.Fraction)
	}
	if st.Active || st.Outcome != Win {
		t.Errorf("Expected idle state after win, got %+v", st)
	}
	if st.BestFraction() != 1 {
		t.Errorf("Expected best fraction 1, got %v", st.BestFraction())
	}
}

func TestGuess_RejectedGuessesDoNotConsumeAttempts(t *testing.T) {
	e := phoneEngine(t)
	rng := script(0)
	st := mustStart(t, e, rng)

	tests := []struct {
		name    string
		price   float64
		wantErr error
	}{
		{name: "below domain", price: 999, wantErr: ErrOutOfRange},
		{name: "above domain", price: 3000.5, wantErr: ErrOutOfRange},
		{name: "negative", price: -10, wantErr: ErrOutOfRange},
		{name: "NaN", price: math.NaN(), wantErr: ErrOutOfRange},
		{name: "off step", price: 1005, wantErr: ErrOffStep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, _, err := e.Guess(rng, st, tt.price)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if next.Attempts != 0 || len(next.History) != 0 || !next.Active {
				t.Errorf("rejected guess changed state: %+v", next)
			}
		})
	}

	if _, _, err := e.Guess(rng, State{}, 1500); !errors.Is(err, ErrNoActiveRound) {
		t.Errorf("Expected ErrNoActiveRound for idle state, got %v", err)
	}
}

func TestGuess_DoesNotMutateInput(t *testing.T) {
	e := phoneEngine(t)
	rng := script(0)
	st := mustStart(t, e, rng)

	next, _, err := e.Guess(rng, st, 1200)
	if err != nil {
		t.Fatalf("Guess failed: %v", err)
	}
	if st.Attempts != 0 || len(st.History) != 0 || st.Range.High != 3000 {
		t.Errorf("input state was mutated: %+v", st)
	}
	if next.Attempts != 1 || len(next.History) != 1 {
		t.Errorf("unexpected next state: %+v", next)
	}

	// Two branches from the same state stay independent.
	a, _, _ := e.Guess(rng, next, 1300)
	b, _, _ := e.Guess(rng, next, 1400)
	if a.History[1].Price != 1300 || b.History[1].Price != 1400 {
		t.Errorf("branches share history: %+v / %+v", a.History, b.History)
	}
}

func TestGuess_BracketIsBestEffort(t *testing.T) {
	e := phoneEngine(t)
	rng := script(0, 0, 2)
	st := mustStart(t, e, rng)

	st, fb, err := e.Guess(rng, st, 1100)
	if err != nil {
		t.Fatalf("Guess failed: %v", err)
	}
	if fb.Direction != Raise {
		t.Fatalf("Expected raise, got %s", fb.Direction)
	}
	// 1100 + 150 slack overshoots the optimum at 1140.
	if st.Range.Low != 1250 {
		t.Errorf("Expected low bound 1250, got %v", st.Range.Low)
	}
	if st.Range.Low <= st.OptimalPrice {
		t.Errorf("Expected bracket to exclude the optimum here, got %+v", st.Range)
	}
}

func TestGuess_SameDistanceComparison(t *testing.T) {
	e := phoneEngine(t)
	rng := script(0)
	st := mustStart(t, e, rng)

	st, _, _ = e.Guess(rng, st, 1100)
	_, fb, err := e.Guess(rng, st, 1180)
	if err != nil {
		t.Fatalf("Guess failed: %v", err)
	}
	if fb.Comparison != Same {
		t.Errorf("Expected same distance, got %s", fb.Comparison)
	}
	if fb.Direction != Lower {
		t.Errorf("Expected lower, got %s", fb.Direction)
	}
}

func TestGuess_FlatTrendAtDomainEdge(t *testing.T) {
	e := phoneEngine(t)
	rng := script(0)
	st := mustStart(t, e, rng)

	_, fb, err := e.Guess(rng, st, 3000)
	if err != nil {
		t.Fatalf("Guess failed: %v", err)
	}
	if fb.Trend != Flat {
		t.Errorf("Expected flat trend at the upper bound, got %s", fb.Trend)
	}
	if fb.Revenue != 0 || fb.Fraction != 0 {
		t.Errorf("Expected no revenue above every choke price, got %v", fb.Revenue)
	}
}

func TestHint(t *testing.T) {
	e := phoneEngine(t)
	st := State{Active: true, OptimalPrice: 1800, MaxAttempts: 3}

	next, band, err := e.Hint(script(1, 50, 50), st)
	if err != nil {
		t.Fatalf("Hint failed: %v", err)
	}
	if band.Low != 1500 || band.High != 2100 {
		t.Errorf("Expected band [1500, 2100], got %+v", band)
	}
	if !next.HintUsed || next.HintRange != band {
		t.Errorf("Expected hint recorded in state, got %+v", next)
	}
	if st.HintUsed {
		t.Error("input state was mutated")
	}

	if _, _, err := e.Hint(script(0), next); !errors.Is(err, ErrHintUsed) {
		t.Errorf("Expected ErrHintUsed, got %v", err)
	}
	if _, _, err := e.Hint(script(0), State{}); !errors.Is(err, ErrNoActiveRound) {
		t.Errorf("Expected ErrNoActiveRound, got %v", err)
	}
}

func TestHint_JitteredAndClamped(t *testing.T) {
	e := phoneEngine(t)
	st := State{Active: true, OptimalPrice: 1140, MaxAttempts: 3}

	_, band, err := e.Hint(script(3, 0, 100), st)
	if err != nil {
		t.Fatalf("Hint failed: %v", err)
	}
	// 1140 ± 400, low jittered by -50 then clamped, high jittered by +50.
	if band.Low != 1000 || band.High != 1590 {
		t.Errorf("Expected band [1000, 1590], got %+v", band)
	}

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		_, band, _ := e.Hint(rng, st)
		if band.Low < 1000 || band.High > 3000 || band.Low > band.High {
			t.Fatalf("band %+v escapes the domain", band)
		}
	}
}

func TestReset(t *testing.T) {
	e := phoneEngine(t)
	rng := script(0)
	st := mustStart(t, e, rng)
	st, _, _ = e.Guess(rng, st, 1500)

	idle := e.Reset(st)
	if idle.Active || len(idle.History) != 0 || idle.Attempts != 0 {
		t.Errorf("Expected idle state after reset, got %+v", idle)
	}
	if _, _, err := e.Guess(rng, idle, 1500); !errors.Is(err, ErrNoActiveRound) {
		t.Errorf("Expected ErrNoActiveRound after reset, got %v", err)
	}
}

func TestNew_InvalidSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Settings)
	}{
		{name: "bad domain", mutate: func(s *Settings) { s.Domain.Step = 0 }},
		{name: "no attempts", mutate: func(s *Settings) { s.MaxAttempts = 0 }},
		{name: "warm below hot", mutate: func(s *Settings) { s.WarmThreshold = 100 }},
		{name: "no slack", mutate: func(s *Settings) { s.SlackChoices = nil }},
		{name: "no widths", mutate: func(s *Settings) { s.HintWidths = nil }},
		{name: "negative jitter", mutate: func(s *Settings) { s.HintJitter = -1 }},
		{name: "zero epsilon", mutate: func(s *Settings) { s.TrendEpsilon = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			if _, err := New(catalog.Default(), s); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := New(nil, DefaultSettings()); err == nil {
		t.Error("expected error for nil catalog")
	}
}
