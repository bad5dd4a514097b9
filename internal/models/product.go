package models

import (
	"errors"
	"fmt"
)

// Product represents a good sold at a single price to several consumer segments.
// Segment names are unique within a product; slice order is the display order.
type Product struct {
	ID       string    `json:"id" toml:"id"`
	Name     string    `json:"name" toml:"name"`
	Segments []Segment `json:"segments" toml:"segments"`
}

// Validate checks that the product and each of its segments are valid
func (p *Product) Validate() error {
	if p.ID == "" {
		return errors.New("product ID must not be empty")
	}
	if len(p.Segments) == 0 {
		return fmt.Errorf("product %s: must have at least one segment", p.ID)
	}
	seen := make(map[string]bool, len(p.Segments))
	for i := range p.Segments {
		seg := &p.Segments[i]
		if err := seg.Validate(); err != nil {
			return fmt.Errorf("product %s: %w", p.ID, err)
		}
		if seen[seg.Name] {
			return fmt.Errorf("product %s: duplicate segment %s", p.ID, seg.Name)
		}
		seen[seg.Name] = true
	}
	return nil
}

// Segment looks up a segment by name.
func (p *Product) Segment(name string) (Segment, bool) {
	for _, seg := range p.Segments {
		if seg.Name == name {
			return seg, true
		}
	}
	return Segment{}, false
}

// DisplayName returns Name, falling back to ID.
func (p *Product) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}
