package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/arb"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/schema"
)

func defaultEngine(t *testing.T) *Engine {
	t.Helper()
	loaded, err := ops.Default()
	require.NoError(t, err)
	return New(loaded, obs.NewMetrics())
}

func anchorDepth() schema.Depth {
	return schema.Depth{
		BuyOrders:  map[schema.Price]schema.Quantity{10004: 3},
		SellOrders: map[schema.Price]schema.Quantity{9998: -5},
	}
}

func basketDepths() map[schema.Symbol]schema.Depth {
	return map[schema.Symbol]schema.Depth{
		"GIFT_BASKET": {
			BuyOrders:  map[schema.Price]schema.Quantity{71800: 10, 71750: 5},
			SellOrders: map[schema.Price]schema.Quantity{71900: -10},
		},
		"CHOCOLATE": {
			BuyOrders:  map[schema.Price]schema.Quantity{7999: 50},
			SellOrders: map[schema.Price]schema.Quantity{8001: -30},
		},
		"STRAWBERRIES": {
			BuyOrders:  map[schema.Price]schema.Quantity{3999: 200},
			SellOrders: map[schema.Price]schema.Quantity{4001: -100},
		},
		"ROSES": {
			BuyOrders:  map[schema.Price]schema.Quantity{14999: 40},
			SellOrders: map[schema.Price]schema.Quantity{15001: -12},
		},
	}
}

func TestRunAnchorProduct(t *testing.T) {
	e := defaultEngine(t)

	result, err := e.Run(schema.Tick{
		Timestamp: 100,
		Depths:    map[schema.Symbol]schema.Depth{"AMETHYSTS": anchorDepth()},
	})
	require.NoError(t, err)

	want := []schema.Order{
		{Symbol: "AMETHYSTS", Price: 9998, Qty: 5},
		{Symbol: "AMETHYSTS", Price: 10004, Qty: -3},
		{Symbol: "AMETHYSTS", Price: 9997, Qty: 10},
		{Symbol: "AMETHYSTS", Price: 10003, Qty: -12},
	}
	assert.Equal(t, want, result.Orders["AMETHYSTS"])
	assert.Equal(t, 0, result.Conversions)
	assert.NotEmpty(t, result.TraderData)
}

func TestRunBasketEntry(t *testing.T) {
	e := defaultEngine(t)

	result, err := e.Run(schema.Tick{Timestamp: 100, Depths: basketDepths()})
	require.NoError(t, err)

	want := []schema.Order{{Symbol: "GIFT_BASKET", Price: 71750, Qty: -7}}
	assert.Equal(t, want, result.Orders["GIFT_BASKET"])

	// Passive constituents are tracked but never quoted.
	assert.Empty(t, result.Orders["CHOCOLATE"])
	assert.Empty(t, result.Orders["STRAWBERRIES"])
	assert.Empty(t, result.Orders["ROSES"])
}

func TestRunMissingConstituentFailsTick(t *testing.T) {
	e := defaultEngine(t)

	depths := basketDepths()
	delete(depths, "ROSES")

	_, err := e.Run(schema.Tick{Timestamp: 100, Depths: depths})
	require.Error(t, err)
	assert.True(t, errors.Is(err, arb.ErrMissingLeg))
}

func TestRunAbsentBasketIsSkipped(t *testing.T) {
	e := defaultEngine(t)

	// Only the anchor product trades this tick; the composite and its
	// constituents are simply not in the snapshot.
	result, err := e.Run(schema.Tick{
		Timestamp: 100,
		Depths:    map[schema.Symbol]schema.Depth{"AMETHYSTS": anchorDepth()},
	})
	require.NoError(t, err)
	assert.NotContains(t, result.Orders, schema.Symbol("GIFT_BASKET"))
}

func TestRunRealizesOwnTrades(t *testing.T) {
	e := defaultEngine(t)

	result, err := e.Run(schema.Tick{
		Timestamp: 1000,
		Depths:    map[schema.Symbol]schema.Depth{"AMETHYSTS": anchorDepth()},
		Positions: map[schema.Symbol]schema.Quantity{"AMETHYSTS": 3},
		OwnTrades: map[schema.Symbol][]schema.Trade{
			"AMETHYSTS": {
				{Symbol: "AMETHYSTS", Price: 9998, Qty: 3, Buyer: "SUBMISSION", Seller: "Rihanna", Timestamp: 900},
			},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.TraderData)

	assert.Equal(t, schema.Quantity(3), e.Ledger().Position("AMETHYSTS"))
	assert.Equal(t, schema.Notional(-3*9998), e.Ledger().Realized("AMETHYSTS"))
	assert.Equal(t, schema.Quantity(3), e.Ledger().Volume("AMETHYSTS"))
}

func TestRunIsDeterministic(t *testing.T) {
	tick := schema.Tick{Timestamp: 200, Depths: basketDepths()}
	tick.Depths["AMETHYSTS"] = anchorDepth()

	a := defaultEngine(t)
	b := defaultEngine(t)

	resultA, errA := a.Run(tick)
	resultB, errB := b.Run(tick)
	require.NoError(t, errA)
	require.NoError(t, errB)

	assert.Equal(t, resultA.Orders, resultB.Orders)
	assert.Equal(t, resultA.TraderData, resultB.TraderData)
}
