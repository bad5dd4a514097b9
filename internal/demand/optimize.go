package demand

import (
	"fmt"
	"math"

	"github.com/rewired-gh/elasticity/internal/models"
)

// gridEpsilon absorbs floating-point error when deciding whether a price
// sits on the grid or how many steps fit in the domain.
const gridEpsilon = 1e-9

// MaxGridSteps bounds the number of steps in a Domain so that grid scans and
// sweeps stay small and the step count always fits in an int.
const MaxGridSteps = 1_000_000

// Domain is the bounded, stepped price range searched by the optimizer and
// accepted by the guessing game.
type Domain struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// Validate checks that the domain is well formed
func (d Domain) Validate() error {
	for _, v := range []float64{d.Min, d.Max, d.Step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: domain bounds and step must be finite", ErrInvalidParameter)
		}
	}
	if d.Min < 0 {
		return fmt.Errorf("%w: domain min %v must not be negative", ErrInvalidParameter, d.Min)
	}
	if d.Max <= d.Min {
		return fmt.Errorf("%w: domain max %v must exceed min %v", ErrInvalidParameter, d.Max, d.Min)
	}
	if d.Step <= 0 || d.Step > d.Max-d.Min {
		return fmt.Errorf("%w: domain step %v must be positive and at most max-min", ErrInvalidParameter, d.Step)
	}
	if steps := (d.Max - d.Min) / d.Step; steps > MaxGridSteps+gridEpsilon {
		return fmt.Errorf("%w: domain step %v gives %.0f grid steps, at most %d allowed", ErrInvalidParameter, d.Step, steps, MaxGridSteps)
	}
	return nil
}

// Contains reports whether price lies in [Min, Max].
func (d Domain) Contains(price float64) bool {
	return price >= d.Min && price <= d.Max
}

// Clamp limits price to [Min, Max].
func (d Domain) Clamp(price float64) float64 {
	return math.Max(d.Min, math.Min(d.Max, price))
}

// Steps returns the number of grid steps that fit in the domain.
func (d Domain) Steps() int {
	return int(math.Floor((d.Max-d.Min)/d.Step + gridEpsilon))
}

// Point returns the i-th grid price, Min + i·Step.
func (d Domain) Point(i int) float64 {
	return d.Min + float64(i)*d.Step
}

// Points returns every grid price in ascending order.
func (d Domain) Points() []float64 {
	n := d.Steps()
	points := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		points = append(points, d.Point(i))
	}
	return points
}

// Snap returns the grid price nearest to price and whether price was on the
// grid to within rounding error.
func (d Domain) Snap(price float64) (float64, bool) {
	i := math.Round((price - d.Min) / d.Step)
	snapped := d.Point(int(i))
	return snapped, math.Abs(snapped-price) <= gridEpsilon*math.Max(1, d.Step)
}

// Method selects how the aggregate optimum is found.
type Method int

const (
	// ClosedForm uses P* = s·Σa/(2·Σb) clamped to the domain.
	ClosedForm Method = iota
	// GridSearch scans every grid price and keeps the first maximum.
	GridSearch
)

func (m Method) String() string {
	switch m {
	case ClosedForm:
		return "closed-form"
	case GridSearch:
		return "grid-search"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// OptimalPriceAggregate returns the revenue-maximising price of the whole
// product and the revenue earned there.
//
// The closed form treats aggregate demand as one linear curve and is exact
// whenever no segment is choked at the optimum. The grid search is exact on
// the grid for any shape; its error against the continuous optimum is bounded
// by the domain step.
func OptimalPriceAggregate(product models.Product, shock float64, domain Domain, method Method) (float64, float64, error) {
	curves, err := checkProduct(product)
	if err != nil {
		return 0, 0, err
	}
	if err := checkShock(shock); err != nil {
		return 0, 0, err
	}
	if err := domain.Validate(); err != nil {
		return 0, 0, err
	}

	switch method {
	case ClosedForm:
		return closedFormOptimum(curves, shock, domain)
	case GridSearch:
		return gridOptimum(curves, shock, domain)
	default:
		return 0, 0, fmt.Errorf("%w: unknown optimization method %v", ErrInvalidParameter, method)
	}
}

func closedFormOptimum(curves []Curve, shock float64, domain Domain) (float64, float64, error) {
	var sumA, sumB float64
	for _, c := range curves {
		a, b := c.Coefficients(shock)
		sumA += a
		sumB += b
	}
	if sumB <= 0 {
		return 0, 0, fmt.Errorf("%w: aggregate slope %v must be positive", ErrInvalidParameter, sumB)
	}
	price := domain.Clamp(sumA / (2 * sumB))
	return price, sumRevenue(curves, price, shock), nil
}

func gridOptimum(curves []Curve, shock float64, domain Domain) (float64, float64, error) {
	bestPrice := domain.Min
	bestRevenue := math.Inf(-1)
	n := domain.Steps()
	for i := 0; i <= n; i++ {
		price := domain.Point(i)
		revenue := sumRevenue(curves, price, shock)
		// Strict comparison keeps the first maximum in ascending price order.
		if revenue > bestRevenue {
			bestPrice = price
			bestRevenue = revenue
		}
	}
	return bestPrice, bestRevenue, nil
}
