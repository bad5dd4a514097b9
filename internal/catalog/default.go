package catalog

import "github.com/rewired-gh/elasticity/internal/models"

// Default returns the built-in catalog. Coefficients are tuned so that every
// aggregate optimum under every scenario falls inside the default price
// domain [1000, 3000] with all segments still buying.
func Default() *Catalog {
	c, err := New(defaultProducts(), defaultScenarios())
	if err != nil {
		panic("catalog: built-in catalog is invalid: " + err.Error())
	}
	return c
}

func defaultScenarios() []models.Scenario {
	return []models.Scenario{
		{ID: "base", Name: "Base", Shock: 1.0},
		{ID: "high-income", Name: "High income", Shock: 1.1},
		{ID: "easy-credit", Name: "Easy credit", Shock: 1.2},
		{ID: "recession", Name: "Recession", Shock: 0.85},
	}
}

func defaultProducts() []models.Product {
	return []models.Product{
		{
			ID:   "smartphone",
			Name: "Smartphone",
			Segments: []models.Segment{
				{Name: "students", Intercept: 12000, Slope: 5.8},
				{Name: "families", Intercept: 9500, Slope: 3.6},
				{Name: "business", Intercept: 7000, Slope: 2.1},
			},
		},
		{
			ID:   "notebook",
			Name: "Notebook",
			Segments: []models.Segment{
				{Name: "students", Intercept: 9000, Slope: 2.4},
				{Name: "families", Intercept: 7600, Slope: 1.9},
				{Name: "business", Intercept: 6000, Slope: 1.1},
			},
		},
		{
			ID:   "headphones",
			Name: "Headphones",
			Segments: []models.Segment{
				{Name: "students", Intercept: 8000, Slope: 3.5},
				{Name: "families", Intercept: 6500, Slope: 2.6},
				{Name: "business", Intercept: 5000, Slope: 1.6},
			},
		},
		{
			ID:   "streaming",
			Name: "Streaming plan",
			Segments: []models.Segment{
				{Name: "students", Intercept: 5000, PriceCeiling: 3200},
				{Name: "families", Intercept: 4000, PriceCeiling: 4000},
				{Name: "business", Intercept: 3000, PriceCeiling: 5000},
			},
		},
	}
}
