// Package simulator is the read-only surface the presentation layers use:
// catalog listings, per-segment evaluation of a price, the optimal price and
// a demand sweep over the price grid. Every call is a pure function of its
// arguments and the immutable catalog, so one Simulator serves all sessions.
package simulator

import (
	"errors"
	"fmt"

	"github.com/rewired-gh/elasticity/internal/catalog"
	"github.com/rewired-gh/elasticity/internal/demand"
	"github.com/rewired-gh/elasticity/internal/models"
)

// SegmentResult is one row of the evaluation table.
type SegmentResult struct {
	Segment    string            `json:"segment"`
	Quantity   float64           `json:"quantity"`
	Elasticity demand.Elasticity `json:"elasticity"`
	Class      demand.Class      `json:"classification"`
	Revenue    float64           `json:"revenue"`
}

// Evaluation is the result of pricing one product under one scenario.
type Evaluation struct {
	ProductID  string          `json:"product_id"`
	ScenarioID string          `json:"scenario_id"`
	Price      float64         `json:"price"`
	Shock      float64         `json:"shock"`
	Segments   []SegmentResult `json:"segments"`
	Quantity   float64         `json:"quantity"`
	Revenue    float64         `json:"revenue"`
}

// SweepPoint is the demand picture at one grid price. Quantities and
// Revenues are indexed like the product's segments.
type SweepPoint struct {
	Price      float64   `json:"price"`
	Quantities []float64 `json:"quantities"`
	Revenues   []float64 `json:"revenues"`
	Quantity   float64   `json:"quantity"`
	Revenue    float64   `json:"revenue"`
}

// Simulator evaluates catalog products over a price domain.
type Simulator struct {
	catalog *catalog.Catalog
	domain  demand.Domain
}

// New creates a new Simulator instance
func New(cat *catalog.Catalog, domain demand.Domain) (*Simulator, error) {
	if cat == nil {
		return nil, errors.New("catalog is required")
	}
	if err := domain.Validate(); err != nil {
		return nil, fmt.Errorf("invalid price domain: %w", err)
	}
	return &Simulator{catalog: cat, domain: domain}, nil
}

// Domain returns the price domain used by Optimum and Sweep.
func (s *Simulator) Domain() demand.Domain {
	return s.domain
}

// ListProducts returns the product IDs in catalog order.
func (s *Simulator) ListProducts() []string {
	return s.catalog.ProductIDs()
}

// ListScenarios returns the scenario IDs in catalog order.
func (s *Simulator) ListScenarios() []string {
	return s.catalog.ScenarioIDs()
}

// Product returns a copy of a catalog product.
func (s *Simulator) Product(id string) (models.Product, error) {
	return s.catalog.Product(id)
}

// Scenario returns a catalog scenario.
func (s *Simulator) Scenario(id string) (models.Scenario, error) {
	return s.catalog.Scenario(id)
}

func (s *Simulator) lookup(productID, scenarioID string) (models.Product, models.Scenario, error) {
	product, err := s.catalog.Product(productID)
	if err != nil {
		return models.Product{}, models.Scenario{}, err
	}
	scenario, err := s.catalog.Scenario(scenarioID)
	if err != nil {
		return models.Product{}, models.Scenario{}, err
	}
	return product, scenario, nil
}

// Evaluate prices a product under a scenario and returns one row per segment
// plus the aggregate. The price is not restricted to the domain, but it must
// not be negative.
func (s *Simulator) Evaluate(productID string, price float64, scenarioID string) (Evaluation, error) {
	product, scenario, err := s.lookup(productID, scenarioID)
	if err != nil {
		return Evaluation{}, err
	}

	ev := Evaluation{
		ProductID:  product.ID,
		ScenarioID: scenario.ID,
		Price:      price,
		Shock:      scenario.Shock,
		Segments:   make([]SegmentResult, 0, len(product.Segments)),
	}

	for _, seg := range product.Segments {
		q, err := demand.Quantity(seg, price, scenario.Shock)
		if err != nil {
			return Evaluation{}, fmt.Errorf("segment %s: %w", seg.Name, err)
		}
		e, err := demand.PointElasticity(seg, price, scenario.Shock)
		if err != nil {
			return Evaluation{}, fmt.Errorf("segment %s: %w", seg.Name, err)
		}
		r, err := demand.SegmentRevenue(seg, price, scenario.Shock)
		if err != nil {
			return Evaluation{}, fmt.Errorf("segment %s: %w", seg.Name, err)
		}
		ev.Segments = append(ev.Segments, SegmentResult{
			Segment:    seg.Name,
			Quantity:   q,
			Elasticity: e,
			Class:      demand.Classify(e),
			Revenue:    r,
		})
	}

	if ev.Quantity, err = demand.AggregateQuantity(product, price, scenario.Shock); err != nil {
		return Evaluation{}, err
	}
	if ev.Revenue, err = demand.AggregateRevenue(product, price, scenario.Shock); err != nil {
		return Evaluation{}, err
	}
	return ev, nil
}

// Optimum returns the closed-form revenue-maximising price clamped to the
// domain, and the revenue there.
func (s *Simulator) Optimum(productID, scenarioID string) (float64, float64, error) {
	return s.OptimumWith(productID, scenarioID, demand.ClosedForm)
}

// OptimumWith is Optimum with an explicit strategy.
func (s *Simulator) OptimumWith(productID, scenarioID string, method demand.Method) (float64, float64, error) {
	product, scenario, err := s.lookup(productID, scenarioID)
	if err != nil {
		return 0, 0, err
	}
	return demand.OptimalPriceAggregate(product, scenario.Shock, s.domain, method)
}

// Sweep evaluates quantity and revenue at every grid price of the domain,
// in ascending price order.
func (s *Simulator) Sweep(productID, scenarioID string) ([]SweepPoint, error) {
	product, scenario, err := s.lookup(productID, scenarioID)
	if err != nil {
		return nil, err
	}

	prices := s.domain.Points()
	points := make([]SweepPoint, 0, len(prices))
	for _, price := range prices {
		p := SweepPoint{
			Price:      price,
			Quantities: make([]float64, len(product.Segments)),
			Revenues:   make([]float64, len(product.Segments)),
		}
		for i, seg := range product.Segments {
			q, err := demand.Quantity(seg, price, scenario.Shock)
			if err != nil {
				return nil, fmt.Errorf("segment %s: %w", seg.Name, err)
			}
			p.Quantities[i] = q
			p.Revenues[i] = price * q
			p.Quantity += q
			p.Revenue += price * q
		}
		points = append(points, p)
	}
	return points, nil
}
