// Package catalog holds the fixed set of products and scenarios offered by
// the simulator. A built-in catalog is always available; a TOML file can
// replace it for classroom variants with different segments.
package catalog

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/rewired-gh/elasticity/internal/models"
)

var (
	ErrUnknownProduct  = errors.New("unknown product")
	ErrUnknownScenario = errors.New("unknown scenario")
)

// Catalog is an immutable, ordered set of products and scenarios.
// It is safe to share between sessions.
type Catalog struct {
	products  []models.Product
	scenarios []models.Scenario
	byProduct map[string]int
	byScen    map[string]int
}

// file is the on-disk TOML layout.
type file struct {
	Products  []models.Product  `toml:"products"`
	Scenarios []models.Scenario `toml:"scenarios"`
}

// New validates products and scenarios and builds a catalog.
func New(products []models.Product, scenarios []models.Scenario) (*Catalog, error) {
	if len(products) == 0 {
		return nil, errors.New("catalog must contain at least one product")
	}
	if len(scenarios) == 0 {
		return nil, errors.New("catalog must contain at least one scenario")
	}

	c := &Catalog{
		products:  make([]models.Product, 0, len(products)),
		scenarios: make([]models.Scenario, 0, len(scenarios)),
		byProduct: make(map[string]int, len(products)),
		byScen:    make(map[string]int, len(scenarios)),
	}

	for i := range products {
		p := products[i]
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("invalid product: %w", err)
		}
		if _, dup := c.byProduct[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product: %s", p.ID)
		}
		// Copy segments so later edits by the caller cannot leak in.
		p.Segments = append([]models.Segment(nil), p.Segments...)
		c.byProduct[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}

	for i := range scenarios {
		s := scenarios[i]
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("invalid scenario: %w", err)
		}
		if _, dup := c.byScen[s.ID]; dup {
			return nil, fmt.Errorf("duplicate scenario: %s", s.ID)
		}
		c.byScen[s.ID] = len(c.scenarios)
		c.scenarios = append(c.scenarios, s)
	}

	return c, nil
}

// Load reads a catalog from a TOML file
func Load(path string) (*Catalog, error) {
	var f file
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return New(f.Products, f.Scenarios)
}

// LoadOrDefault loads the catalog at path, or the built-in catalog when path is empty.
func LoadOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// ProductIDs returns product IDs in catalog order.
func (c *Catalog) ProductIDs() []string {
	ids := make([]string, len(c.products))
	for i, p := range c.products {
		ids[i] = p.ID
	}
	return ids
}

// ScenarioIDs returns scenario IDs in catalog order.
func (c *Catalog) ScenarioIDs() []string {
	ids := make([]string, len(c.scenarios))
	for i, s := range c.scenarios {
		ids[i] = s.ID
	}
	return ids
}

// Product retrieves a product by ID
func (c *Catalog) Product(id string) (models.Product, error) {
	i, ok := c.byProduct[id]
	if !ok {
		return models.Product{}, fmt.Errorf("%w: %s", ErrUnknownProduct, id)
	}
	return c.ProductAt(i), nil
}

// Scenario retrieves a scenario by ID
func (c *Catalog) Scenario(id string) (models.Scenario, error) {
	i, ok := c.byScen[id]
	if !ok {
		return models.Scenario{}, fmt.Errorf("%w: %s", ErrUnknownScenario, id)
	}
	return c.scenarios[i], nil
}

// ProductAt returns the i-th product in catalog order.
func (c *Catalog) ProductAt(i int) models.Product {
	p := c.products[i]
	p.Segments = append([]models.Segment(nil), p.Segments...)
	return p
}

// ScenarioAt returns the i-th scenario in catalog order.
func (c *Catalog) ScenarioAt(i int) models.Scenario {
	return c.scenarios[i]
}

// NumProducts returns the number of products.
func (c *Catalog) NumProducts() int {
	return len(c.products)
}

// NumScenarios returns the number of scenarios.
func (c *Catalog) NumScenarios() int {
	return len(c.scenarios)
}
