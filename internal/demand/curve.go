// Package demand implements the price-elasticity demand model.
//
// Every consumer segment has a demand curve whose level is scaled by a
// scenario shock s. Two shapes are supported:
//
//	linear:  Q(P) = max(0, a·s − b·P)
//	ceiling: Q(P) = max(0, a·s·(1 − P/c))    zero at and above the ceiling c
//
// From the curve the package derives point elasticity E = (dQ/dP)·(P/Q),
// revenue R = P·Q, and the revenue-maximising price. For an isolated segment
// the optimum has the closed form a·s/(2b) (or c/2 for the ceiling shape).
// For a product the segments are summed; since both shapes are linear before
// clamping, the aggregate optimum is s·Σa/(2·Σb) over the linearised
// coefficients. A grid search over a bounded price Domain is provided as a
// shape-agnostic reference that cross-validates the closed form.
//
// The package is stateless; every function is safe for concurrent use.
package demand

import (
	"math"

	"github.com/rewired-gh/elasticity/internal/models"
)

// chokeEpsilon snaps quantities that are zero up to rounding error, so that
// evaluating a curve exactly at its choke price yields no demand.
const chokeEpsilon = 1e-9

// Curve is a demand curve for one consumer segment.
// Prices passed to a Curve are expected to be non-negative; validation
// happens in the package-level functions.
type Curve interface {
	// QuantityAt returns the quantity demanded, never negative.
	QuantityAt(price, shock float64) float64
	// RevenueAt returns price × quantity.
	RevenueAt(price, shock float64) float64
	// ElasticityAt returns the point elasticity, Undefined at zero demand.
	ElasticityAt(price, shock float64) Elasticity
	// AnalyticalOptimum returns the revenue-maximising price of the isolated
	// curve. ok is false when the curve has no valid optimum.
	AnalyticalOptimum(shock float64) (price float64, ok bool)
	// Coefficients returns the unclamped linear form Q = intercept − slope·P.
	Coefficients(shock float64) (intercept, slope float64)
}

// NewCurve builds the curve matching a segment's shape.
func NewCurve(seg models.Segment) Curve {
	if seg.IsCeiling() {
		return Ceiling{Intercept: seg.Intercept, PriceCeiling: seg.PriceCeiling}
	}
	return Linear{Intercept: seg.Intercept, Slope: seg.Slope}
}

// Linear is Q = max(0, a·s − b·P).
type Linear struct {
	Intercept float64
	Slope     float64
}

func (l Linear) QuantityAt(price, shock float64) float64 {
	level := l.Intercept * shock
	return clampQuantity(level-l.Slope*price, level)
}

func (l Linear) RevenueAt(price, shock float64) float64 {
	return price * l.QuantityAt(price, shock)
}

func (l Linear) ElasticityAt(price, shock float64) Elasticity {
	q := l.QuantityAt(price, shock)
	if q == 0 {
		return Undefined
	}
	return defined(-l.Slope * price / q)
}

func (l Linear) AnalyticalOptimum(shock float64) (float64, bool) {
	if l.Slope <= 0 {
		return 0, false
	}
	return l.Intercept * shock / (2 * l.Slope), true
}

func (l Linear) Coefficients(shock float64) (float64, float64) {
	return l.Intercept * shock, l.Slope
}

// Ceiling is Q = max(0, a·s·(1 − P/c)).
type Ceiling struct {
	Intercept    float64
	PriceCeiling float64
}

func (c Ceiling) QuantityAt(price, shock float64) float64 {
	if c.PriceCeiling <= 0 || price >= c.PriceCeiling {
		return 0
	}
	level := c.Intercept * shock
	return clampQuantity(level*(1-price/c.PriceCeiling), level)
}

func (c Ceiling) RevenueAt(price, shock float64) float64 {
	return price * c.QuantityAt(price, shock)
}

func (c Ceiling) ElasticityAt(price, shock float64) Elasticity {
	q := c.QuantityAt(price, shock)
	if q == 0 {
		return Undefined
	}
	slope := c.Intercept * shock / c.PriceCeiling
	return defined(-slope * price / q)
}

// AnalyticalOptimum is c/2 regardless of the shock, which only scales the level.
func (c Ceiling) AnalyticalOptimum(shock float64) (float64, bool) {
	if c.PriceCeiling <= 0 {
		return 0, false
	}
	return c.PriceCeiling / 2, true
}

func (c Ceiling) Coefficients(shock float64) (float64, float64) {
	if c.PriceCeiling <= 0 {
		return 0, 0
	}
	level := c.Intercept * shock
	return level, level / c.PriceCeiling
}

// defined wraps a computed elasticity, folding -0 into 0 so that a zero
// price prints as "0.000".
func defined(v float64) Elasticity {
	if v == 0 {
		v = 0
	}
	return Elasticity{Value: v, Defined: true}
}

func clampQuantity(raw, level float64) float64 {
	if raw <= chokeEpsilon*math.Max(1, math.Abs(level)) {
		return 0
	}
	return raw
}
