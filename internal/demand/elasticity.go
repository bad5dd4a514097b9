package demand

import (
	"fmt"
	"math"
)

// Class is the elasticity classification of a price point.
type Class string

const (
	NoDemand  Class = "no_demand"
	Elastic   Class = "elastic"
	Inelastic Class = "inelastic"
	Unitary   Class = "unitary"
)

// Elasticity is a signed point elasticity. Defined is false when demand is
// zero and the ratio has no meaning.
type Elasticity struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
}

// Undefined is the elasticity at a price with no demand.
var Undefined = Elasticity{}

// Abs returns |E|, or NaN when undefined.
func (e Elasticity) Abs() float64 {
	if !e.Defined {
		return math.NaN()
	}
	return math.Abs(e.Value)
}

// Class classifies the elasticity.
func (e Elasticity) Class() Class {
	return Classify(e)
}

func (e Elasticity) String() string {
	if !e.Defined {
		return "undefined"
	}
	return fmt.Sprintf("%.3f", e.Value)
}

// Classify compares |E| to one. Exact equality is Unitary.
func Classify(e Elasticity) Class {
	if !e.Defined {
		return NoDemand
	}
	abs := math.Abs(e.Value)
	switch {
	case abs == 1:
		return Unitary
	case abs > 1:
		return Elastic
	default:
		return Inelastic
	}
}
