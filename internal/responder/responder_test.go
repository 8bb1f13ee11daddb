package responder_test

import (
	"testing"

	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/core/domain/model/order"
	"drivethru/internal/core/domain/model/session"
	"drivethru/internal/responder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summaryOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder(kernel.NewUUID(), order.DefaultLimits())
	require.NoError(t, err)
	price, err := kernel.NewMoneyFromCents(599)
	require.NoError(t, err)
	_, err = o.AddLine(order.LineSpec{
		MenuItemID: "burger-01",
		Name:       "Classic Burger",
		Quantity:   2,
		Size:       "large",
		Modifiers:  []string{"no onions"},
		UnitPrice:  price,
	})
	require.NoError(t, err)
	return o
}

func TestResponder_Reply(t *testing.T) {
	r := responder.New()

	t.Run("should pick phrases deterministically by turn", func(t *testing.T) {
		first := r.Reply(responder.Request{Action: session.ActionGreet, Turn: 3})
		second := r.Reply(responder.Request{Action: session.ActionGreet, Turn: 3})

		assert.Equal(t, first, second)
		assert.NotEmpty(t, first)
	})

	t.Run("should read back the order with the total", func(t *testing.T) {
		o := summaryOrder(t)

		reply := r.Reply(responder.Request{
			Action: session.ActionBuildSummary,
			Order:  o,
			Totals: o.Totals(800),
		})

		assert.Contains(t, reply, "2 Classic Burger")
		assert.Contains(t, reply, "large")
		assert.Contains(t, reply, "no onions")
		assert.Contains(t, reply, "$12.94")
		assert.Contains(t, reply, "Is that right?")
	})

	t.Run("should name the unavailable item in an alternative", func(t *testing.T) {
		reply := r.Reply(responder.Request{
			Action:     session.ActionProposeAlternative,
			FailedItem: "Vanilla Shake",
		})

		assert.Contains(t, reply, "Vanilla Shake")
	})

	t.Run("should mention the rejected part of a partial batch", func(t *testing.T) {
		reply := r.Reply(responder.Request{Action: session.ActionNone, RejectedCount: 1})

		assert.Contains(t, reply, "didn't go through")
	})

	t.Run("should state the total on finalize", func(t *testing.T) {
		o := summaryOrder(t)

		reply := r.Reply(responder.Request{
			Action: session.ActionFinalize,
			Totals: o.Totals(800),
		})

		assert.Contains(t, reply, "$12.94")
		assert.Contains(t, reply, "pull forward")
	})
}
