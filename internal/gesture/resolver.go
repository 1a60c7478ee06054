package gesture

import (
	"github.com/ayusman/signalhand/internal/detector"
)

// Resolver picks at most one label per frame from a rule table.
type Resolver struct {
	table Table
}

// NewResolver creates a resolver for the given variant.
func NewResolver(v Variant) (*Resolver, error) {
	t, err := LookupTable(v)
	if err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Resolver{table: t}, nil
}

// Variant returns the variant of the active table.
func (r *Resolver) Variant() Variant {
	return r.table.Variant
}

// Resolve classifies an observation. Zero hands yield None. With two hands
// and pair rules, only pair rules are consulted. Hands beyond the second
// are ignored.
func (r *Resolver) Resolve(obs detector.Observation) Resolution {
	switch {
	case len(obs) == 0:
		return Resolution{}
	case len(obs) >= 2 && len(r.table.Pair) > 0:
		return r.resolvePair(&obs[0], &obs[1])
	default:
		return r.resolveHand(&obs[0])
	}
}

func (r *Resolver) resolveHand(h *detector.Hand) Resolution {
	sig := ExtendedFingers(h)
	for _, rule := range r.table.Hand {
		if rule.Match(h, sig) {
			return resolution(rule.Label, rule.Delta)
		}
	}
	return Resolution{}
}

func (r *Resolver) resolvePair(a, b *detector.Hand) Resolution {
	left, right := leftRight(a, b)
	for _, rule := range r.table.Pair {
		lp, _ := LookupPose(rule.Left)
		rp, _ := LookupPose(rule.Right)
		if lp(left) && rp(right) {
			return resolution(rule.Label, rule.Delta)
		}
	}
	return Resolution{}
}

func resolution(l Label, delta int) Resolution {
	res := Resolution{Label: l}
	if ch, ok := l.Channel(); ok {
		res.Adjust = &Adjust{Channel: ch, Delta: delta}
	}
	return res
}
