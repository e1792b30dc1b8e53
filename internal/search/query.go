package search

import (
	"errors"
	"math"
	"strings"

	"github.com/Nikhi-l37/local-inventory-project/internal/apperr"
	"github.com/Nikhi-l37/local-inventory-project/internal/geo"
	"github.com/Nikhi-l37/local-inventory-project/internal/match"
)

// Target selects what a search returns.
type Target string

const (
	TargetProducts Target = "products"
	TargetShops    Target = "shops"
)

const (
	CodeMissingQuery    = "MISSING_QUERY"
	CodeInvalidLocation = "INVALID_LOCATION"
	CodeInvalidRadius   = "INVALID_RADIUS"
	CodeInvalidTarget   = "INVALID_TARGET"
)

// Query is one search request. A zero RadiusMeters means "use the default".
type Query struct {
	Text         string
	Origin       *geo.Coordinate
	RadiusMeters float64
	OpenOnly     bool
	Target       Target
}

type validated struct {
	matcher *match.Matcher
	origin  geo.Coordinate
	radius  float64
	target  Target
}

// validate resolves the default radius and clamps it into the allowed range.
func (e *Engine) validate(q Query) (*validated, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, apperr.Validation(CodeMissingQuery, "search query is required")
	}
	m, err := match.New(q.Text)
	if err != nil {
		return nil, apperr.Validation(CodeMissingQuery, "search query is required")
	}
	if q.Origin == nil {
		return nil, apperr.Validation(CodeInvalidLocation, "origin latitude and longitude are required")
	}
	if err := geo.CheckIndexable(e.index, *q.Origin); err != nil {
		msg := "origin must be a valid latitude/longitude"
		if errors.Is(err, geo.ErrOutOfIndexRange) {
			msg = "origin is outside the area the search index covers"
		}
		return nil, &apperr.Error{
			Kind:    apperr.KindValidation,
			Code:    CodeInvalidLocation,
			Message: msg,
			Err:     err,
		}
	}
	radius := q.RadiusMeters
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius < 0 {
		return nil, apperr.Validation(CodeInvalidRadius, "radius must be a non-negative number of meters")
	}
	if radius == 0 {
		radius = e.cfg.DefaultRadius
	}
	target := q.Target
	if target == "" {
		target = TargetProducts
	}
	if target != TargetProducts && target != TargetShops {
		return nil, apperr.Validation(CodeInvalidTarget, "search target must be products or shops")
	}
	return &validated{
		matcher: m,
		origin:  *q.Origin,
		radius:  geo.ClampRadius(radius),
		target:  target,
	}, nil
}
