package domain

import (
	"time"
)

// EventType classifies an entry in an entity's embedded ledger.
type EventType string

const (
	// EventSale removes quantity and carries a monetary value.
	EventSale EventType = "sale"
	// EventProduction adds quantity (harvest, milk, eggs, restock).
	EventProduction EventType = "production"
	// EventAdjustment applies a signed manual correction.
	EventAdjustment EventType = "adjustment"
)

// LedgerEvent is one immutable entry in an entity's embedded log.
// Events are only ever appended; Index is the position in the log and,
// together with the entity id, forms the source reference for the
// financial posting derived from the event.
type LedgerEvent struct {
	Index         int       `json:"index"`
	Type          EventType `json:"type"`
	Date          time.Time `json:"date"`
	Quantity      float64   `json:"quantity"`
	UnitValue     float64   `json:"unit_value,omitempty"`
	Total         float64   `json:"total,omitempty"`
	QuantityDelta float64   `json:"quantity_delta"`
	Product       string    `json:"product,omitempty"`
	Buyer         string    `json:"buyer,omitempty"`
	BuyerContact  string    `json:"buyer_contact,omitempty"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// Qualifying reports whether the event must produce a financial record.
func (ev LedgerEvent) Qualifying() bool {
	return ev.Type == EventSale
}

// Normalize validates the caller-supplied parts of an event and fills
// the derived fields (Total, QuantityDelta). Index and RecordedAt are
// assigned by the store at append time.
func (ev LedgerEvent) Normalize() (LedgerEvent, error) {
	if ev.Date.IsZero() {
		return ev, ErrInvalidEvent
	}
	switch ev.Type {
	case EventSale:
		if ev.Quantity <= 0 || ev.UnitValue <= 0 {
			return ev, ErrInvalidEvent
		}
		ev.Total = ev.Quantity * ev.UnitValue
		ev.QuantityDelta = -ev.Quantity
	case EventProduction:
		if ev.Quantity <= 0 {
			return ev, ErrInvalidEvent
		}
		ev.Total = 0
		ev.QuantityDelta = ev.Quantity
	case EventAdjustment:
		if ev.QuantityDelta == 0 {
			return ev, ErrInvalidEvent
		}
		ev.Quantity = 0
		ev.Total = 0
	default:
		return ev, ErrInvalidEvent
	}
	return ev, nil
}

// Aggregate is the numeric state derived from an entity's event log.
// It is never mutated independently of the log: every change goes
// through Apply, and Replay over the full log from the baseline must
// reproduce the stored columns exactly.
type Aggregate struct {
	Remaining      float64
	TotalSaleValue float64
	SaleCount      int
}

// NewAggregate is the state of an entity with an empty log.
func NewAggregate(baseline float64) Aggregate {
	return Aggregate{Remaining: baseline}
}

// Apply folds one normalized event into the aggregate. A delta that
// would drive the remaining quantity negative fails with
// ErrInvalidEvent and leaves the aggregate untouched.
func (a Aggregate) Apply(ev LedgerEvent) (Aggregate, error) {
	next := a.Remaining + ev.QuantityDelta
	if next < 0 {
		return a, ErrInvalidEvent
	}
	a.Remaining = next
	if ev.Type == EventSale {
		a.TotalSaleValue += ev.Total
		a.SaleCount++
	}
	return a, nil
}

// Depleted reports whether the remaining-quantity component has reached
// zero, which transitions the entity to its terminal status.
func (a Aggregate) Depleted() bool {
	return a.Remaining == 0
}

// Replay recomputes the aggregate from the baseline and the full log.
func Replay(baseline float64, events []LedgerEvent) (Aggregate, error) {
	agg := NewAggregate(baseline)
	for _, ev := range events {
		next, err := agg.Apply(ev)
		if err != nil {
			return agg, err
		}
		agg = next
	}
	return agg, nil
}
