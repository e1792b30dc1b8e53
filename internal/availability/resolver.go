// Package availability decides whether a shop is open right now from its
// manual override and its opening/closing wall-clock times.
package availability

import "fmt"

type Label string

const (
	Open   Label = "OPEN"
	Closed Label = "CLOSED"
)

// SoonWindowMinutes is how close an opening or closing must be to be flagged "soon".
const SoonWindowMinutes = 60

const (
	ReasonManuallyPaused = "manually paused"
	ReasonHoursNotSet    = "hours not set"
)

// Status is the resolved open state of one shop.
type Status struct {
	Label       Label  `json:"label"`
	Reason      string `json:"reason"`
	OpeningSoon bool   `json:"openingSoon,omitempty"`
	ClosingSoon bool   `json:"closingSoon,omitempty"`
}

func (s Status) IsOpen() bool { return s.Label == Open }

type Option func(*Resolver)

// WithOvernight makes windows whose closing time is before the opening time wrap
// past midnight (22:00-06:00 is open at 23:30 and 05:00). Off by default: such a
// window is then empty and the shop always resolves CLOSED inside it.
func WithOvernight(enabled bool) Option {
	return func(r *Resolver) { r.overnight = enabled }
}

// Resolver is stateless; one value can be shared by concurrent searches.
type Resolver struct {
	overnight bool
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Overnight() bool { return r.overnight }

var defaultResolver = NewResolver()

// Resolve uses the default (non-overnight) resolver.
func Resolve(opening, closing *string, override *bool, now WallClock) Status {
	return defaultResolver.Resolve(opening, closing, override, now)
}

// Resolve evaluates, in order: explicit override=false, missing hours, then the
// [opening, closing) window. A nil or true override leaves the decision to the
// schedule. Unparseable hours count as missing.
func (r *Resolver) Resolve(opening, closing *string, override *bool, now WallClock) Status {
	if override != nil && !*override {
		return Status{Label: Closed, Reason: ReasonManuallyPaused}
	}
	if opening == nil || closing == nil {
		return Status{Label: Closed, Reason: ReasonHoursNotSet}
	}
	open, err := ParseWallClock(*opening)
	if err != nil {
		return Status{Label: Closed, Reason: ReasonHoursNotSet}
	}
	closeAt, err := ParseWallClock(*closing)
	if err != nil {
		return Status{Label: Closed, Reason: ReasonHoursNotSet}
	}
	now = WallClock(int(now) % minutesPerDay)

	if r.overnight && closeAt < open {
		return resolveOvernight(open, closeAt, now)
	}

	switch {
	case now < open:
		return Status{
			Label:       Closed,
			Reason:      fmt.Sprintf("opens at %s", open),
			OpeningSoon: int(open-now) <= SoonWindowMinutes,
		}
	case now < closeAt:
		return Status{
			Label:       Open,
			Reason:      fmt.Sprintf("closes at %s", closeAt),
			ClosingSoon: int(closeAt-now) <= SoonWindowMinutes,
		}
	default:
		return Status{Label: Closed, Reason: fmt.Sprintf("closed at %s", closeAt)}
	}
}

// resolveOvernight handles closeAt < open: open on [open, 24:00) ∪ [00:00, closeAt).
func resolveOvernight(open, closeAt, now WallClock) Status {
	if now >= open || now < closeAt {
		left := int(closeAt - now)
		if now >= open {
			left += minutesPerDay
		}
		return Status{
			Label:       Open,
			Reason:      fmt.Sprintf("closes at %s", closeAt),
			ClosingSoon: left <= SoonWindowMinutes,
		}
	}
	return Status{
		Label:       Closed,
		Reason:      fmt.Sprintf("opens at %s", open),
		OpeningSoon: int(open-now) <= SoonWindowMinutes,
	}
}
