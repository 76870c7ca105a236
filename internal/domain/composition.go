package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CompositionEntry is one contribution to a merged allocation. Reallocated
// entries stay unsettled until the allocation carrying them is approved;
// a rejection reverts exactly the unsettled ones.
type CompositionEntry struct {
	Kind              CompositionKind `json:"kind"`
	Hours             decimal.Decimal `json:"hours"`
	SourcePhaseID     string          `json:"sourcePhaseId,omitempty"`
	SourceUnplannedID string          `json:"sourceUnplannedId,omitempty"`
	Settled           bool            `json:"settled"`
	Timestamp         time.Time       `json:"timestamp"`
}

// Composition is the ordered audit trail of an allocation's contributions.
type Composition []CompositionEntry

// Pending returns the unsettled reallocated entries in order.
func (c Composition) Pending() Composition {
	var out Composition
	for _, e := range c {
		if e.Kind == CompositionReallocated && !e.Settled {
			out = append(out, e)
		}
	}
	return out
}

// Hours sums the hours of every entry.
func (c Composition) Hours() decimal.Decimal {
	sum := decimal.Zero
	for _, e := range c {
		sum = sum.Add(e.Hours)
	}
	return sum
}

// Settled returns a copy with every entry settled.
func (c Composition) Settled() Composition {
	if c == nil {
		return nil
	}
	out := make(Composition, len(c))
	for i, e := range c {
		e.Settled = true
		out[i] = e
	}
	return out
}

// WithoutPending returns a copy with the unsettled reallocated entries removed.
func (c Composition) WithoutPending() Composition {
	var out Composition
	for _, e := range c {
		if e.Kind == CompositionReallocated && !e.Settled {
			continue
		}
		out = append(out, e)
	}
	return out
}
