package search

import (
	"github.com/Nikhi-l37/local-inventory-project/internal/availability"
	"github.com/Nikhi-l37/local-inventory-project/internal/geo"
	"github.com/Nikhi-l37/local-inventory-project/internal/model"
)

// candidate is a shop (or one of its products) that survived the geo lookup,
// annotated with everything the predicates need.
type candidate struct {
	hit     geo.Hit
	shop    *model.Shop
	product *model.Product
	score   float64
	matched bool
	status  availability.Status
}

// Predicate keeps or drops one candidate. Predicates are combined with AND.
type Predicate func(c *candidate) bool

// WithinRadius keeps candidates whose shop is no farther than radius meters.
func WithinRadius(radius float64) Predicate {
	return func(c *candidate) bool {
		return c.hit.DistanceMeters <= radius
	}
}

// TextMatched keeps candidates whose score passed the threshold or that contain the query.
func TextMatched() Predicate {
	return func(c *candidate) bool {
		return c.matched
	}
}

// ProductAvailable keeps products the seller has marked in stock.
func ProductAvailable() Predicate {
	return func(c *candidate) bool {
		return c.product == nil || c.product.IsAvailable
	}
}

// OpenOnly keeps candidates whose shop resolves OPEN by schedule and whose
// persisted is_open master switch is true. Both gates are required: the switch
// is toggled by the seller and is not synced with the clock.
func OpenOnly() Predicate {
	return func(c *candidate) bool {
		return c.status.IsOpen() && c.shop.MasterSwitchOn()
	}
}

// predicatesFor builds the filter chain for a query.
func predicatesFor(v *validated, openOnly bool) []Predicate {
	preds := []Predicate{WithinRadius(v.radius), TextMatched()}
	if v.target == TargetProducts {
		preds = append(preds, ProductAvailable())
	}
	if openOnly {
		preds = append(preds, OpenOnly())
	}
	return preds
}

// applyAll keeps the candidates every predicate accepts, preserving input order.
func applyAll(cands []*candidate, preds []Predicate) []*candidate {
	out := make([]*candidate, 0, len(cands))
	for _, c := range cands {
		keep := true
		for _, p := range preds {
			if !p(c) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, c)
		}
	}
	return out
}
