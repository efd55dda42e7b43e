package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saleEvent(quantity, unitValue float64) LedgerEvent {
	return LedgerEvent{
		Type:      EventSale,
		Date:      time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Quantity:  quantity,
		UnitValue: unitValue,
	}
}

func TestNormalize_Sale(t *testing.T) {
	ev, err := saleEvent(30, 2.5).Normalize()
	require.NoError(t, err)

	assert.Equal(t, 75.0, ev.Total)
	assert.Equal(t, -30.0, ev.QuantityDelta)
}

func TestNormalize_Production(t *testing.T) {
	ev, err := LedgerEvent{
		Type:     EventProduction,
		Date:     time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Quantity: 12,
	}.Normalize()
	require.NoError(t, err)

	assert.Equal(t, 0.0, ev.Total)
	assert.Equal(t, 12.0, ev.QuantityDelta)
	assert.False(t, ev.Qualifying())
}

func TestNormalize_Adjustment(t *testing.T) {
	ev, err := LedgerEvent{
		Type:          EventAdjustment,
		Date:          time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		QuantityDelta: -4,
	}.Normalize()
	require.NoError(t, err)

	assert.Equal(t, -4.0, ev.QuantityDelta)
	assert.Equal(t, 0.0, ev.Quantity)
}

func TestNormalize_Invalid(t *testing.T) {
	cases := []struct {
		name string
		ev   LedgerEvent
	}{
		{"missing date", LedgerEvent{Type: EventSale, Quantity: 1, UnitValue: 1}},
		{"zero sale quantity", saleEvent(0, 5)},
		{"zero unit value", saleEvent(5, 0)},
		{"negative sale", saleEvent(-5, 5)},
		{"zero production", LedgerEvent{Type: EventProduction, Date: time.Now(), Quantity: 0}},
		{"zero adjustment", LedgerEvent{Type: EventAdjustment, Date: time.Now()}},
		{"unknown event type", LedgerEvent{Type: "transfer", Date: time.Now(), Quantity: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.ev.Normalize()
			assert.ErrorIs(t, err, ErrInvalidEvent)
		})
	}
}

func TestApply_RejectsOversell(t *testing.T) {
	agg := NewAggregate(100)

	ev, err := saleEvent(130, 2).Normalize()
	require.NoError(t, err)

	_, err = agg.Apply(ev)
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestApply_AccumulatesSales(t *testing.T) {
	agg := NewAggregate(100)

	first, err := saleEvent(30, 2).Normalize()
	require.NoError(t, err)
	agg, err = agg.Apply(first)
	require.NoError(t, err)

	assert.Equal(t, 70.0, agg.Remaining)
	assert.Equal(t, 60.0, agg.TotalSaleValue)
	assert.Equal(t, 1, agg.SaleCount)
	assert.False(t, agg.Depleted())

	second, err := saleEvent(70, 3).Normalize()
	require.NoError(t, err)
	agg, err = agg.Apply(second)
	require.NoError(t, err)

	assert.Equal(t, 0.0, agg.Remaining)
	assert.Equal(t, 270.0, agg.TotalSaleValue)
	assert.Equal(t, 2, agg.SaleCount)
	assert.True(t, agg.Depleted())
}

func TestReplay_Deterministic(t *testing.T) {
	events := make([]LedgerEvent, 0, 3)
	agg := NewAggregate(50)
	for i, quantity := range []float64{10, 5, 20} {
		ev, err := saleEvent(quantity, 2).Normalize()
		require.NoError(t, err)
		ev.Index = i

		next, err := agg.Apply(ev)
		require.NoError(t, err)
		agg = next
		events = append(events, ev)
	}

	replayed, err := Replay(50, events)
	require.NoError(t, err)
	assert.Equal(t, agg, replayed)
	assert.Equal(t, 15.0, replayed.Remaining)
}

func TestReplay_ProductionExtendsSaleableQuantity(t *testing.T) {
	production, err := LedgerEvent{
		Type:     EventProduction,
		Date:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Quantity: 40,
	}.Normalize()
	require.NoError(t, err)

	sale, err := saleEvent(120, 1).Normalize()
	require.NoError(t, err)
	sale.Index = 1

	agg, err := Replay(100, []LedgerEvent{production, sale})
	require.NoError(t, err)
	assert.Equal(t, 20.0, agg.Remaining)
}
