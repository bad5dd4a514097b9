package demand

import (
	"errors"
	"fmt"
	"math"

	"github.com/rewired-gh/elasticity/internal/models"
)

// ErrInvalidParameter is returned for negative prices, non-positive shocks,
// malformed segments and malformed price domains.
var ErrInvalidParameter = errors.New("invalid parameter")

func checkPrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return fmt.Errorf("%w: price %v must be a non-negative number", ErrInvalidParameter, price)
	}
	return nil
}

func checkShock(shock float64) error {
	if math.IsNaN(shock) || math.IsInf(shock, 0) || shock <= 0 {
		return fmt.Errorf("%w: shock %v must be a positive finite number", ErrInvalidParameter, shock)
	}
	return nil
}

func checkSegment(seg models.Segment) (Curve, error) {
	if err := seg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	return NewCurve(seg), nil
}

func checkProduct(product models.Product) ([]Curve, error) {
	if err := product.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	curves := make([]Curve, len(product.Segments))
	for i, seg := range product.Segments {
		curves[i] = NewCurve(seg)
	}
	return curves, nil
}

// Quantity returns max(0, a·s − b·P) for the segment's shape.
func Quantity(seg models.Segment, price, shock float64) (float64, error) {
	curve, err := checkSegment(seg)
	if err != nil {
		return 0, err
	}
	if err := checkPrice(price); err != nil {
		return 0, err
	}
	if err := checkShock(shock); err != nil {
		return 0, err
	}
	return curve.QuantityAt(price, shock), nil
}

// PointElasticity returns −b·P/Q, or Undefined when Q is zero.
func PointElasticity(seg models.Segment, price, shock float64) (Elasticity, error) {
	curve, err := checkSegment(seg)
	if err != nil {
		return Undefined, err
	}
	if err := checkPrice(price); err != nil {
		return Undefined, err
	}
	if err := checkShock(shock); err != nil {
		return Undefined, err
	}
	return curve.ElasticityAt(price, shock), nil
}

// SegmentRevenue returns P·Q for one segment.
func SegmentRevenue(seg models.Segment, price, shock float64) (float64, error) {
	q, err := Quantity(seg, price, shock)
	if err != nil {
		return 0, err
	}
	return price * q, nil
}

// AggregateRevenue sums segment revenue over every segment of the product.
func AggregateRevenue(product models.Product, price, shock float64) (float64, error) {
	curves, err := checkProduct(product)
	if err != nil {
		return 0, err
	}
	if err := checkPrice(price); err != nil {
		return 0, err
	}
	if err := checkShock(shock); err != nil {
		return 0, err
	}
	return sumRevenue(curves, price, shock), nil
}

// AggregateQuantity sums the quantity demanded over every segment of the product.
func AggregateQuantity(product models.Product, price, shock float64) (float64, error) {
	curves, err := checkProduct(product)
	if err != nil {
		return 0, err
	}
	if err := checkPrice(price); err != nil {
		return 0, err
	}
	if err := checkShock(shock); err != nil {
		return 0, err
	}
	return sumQuantity(curves, price, shock), nil
}

// ChokePrice returns the lowest price at which the segment's demand reaches zero.
func ChokePrice(seg models.Segment, shock float64) (float64, error) {
	curve, err := checkSegment(seg)
	if err != nil {
		return 0, err
	}
	if err := checkShock(shock); err != nil {
		return 0, err
	}
	a, b := curve.Coefficients(shock)
	if b <= 0 {
		return 0, fmt.Errorf("%w: segment %s has no choke price", ErrInvalidParameter, seg.Name)
	}
	return a / b, nil
}

// OptimalPriceForSegment returns a·s/(2b), the revenue maximiser of an
// isolated segment (c/2 for the ceiling shape).
func OptimalPriceForSegment(seg models.Segment, shock float64) (float64, error) {
	if err := checkShock(shock); err != nil {
		return 0, err
	}
	// Validate is skipped here so that a bad slope reports as a missing optimum.
	price, ok := NewCurve(seg).AnalyticalOptimum(shock)
	if !ok {
		return 0, fmt.Errorf("%w: segment %s has no optimum (slope must be positive)", ErrInvalidParameter, seg.Name)
	}
	return price, nil
}

func sumRevenue(curves []Curve, price, shock float64) float64 {
	var total float64
	for _, c := range curves {
		total += c.RevenueAt(price, shock)
	}
	return total
}

func sumQuantity(curves []Curve, price, shock float64) float64 {
	var total float64
	for _, c := range curves {
		total += c.QuantityAt(price, shock)
	}
	return total
}
