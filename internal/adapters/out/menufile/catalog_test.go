package menufile_test

import (
	"context"
	"testing"

	"drivethru/internal/adapters/out/menufile"
	"drivethru/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMenu = `
restaurants:
  rest-001:
    items:
      - id: burger-01
        name: Cheeseburger
        available: true
        price_cents: 599
        size_price_cents:
          large: 749
        allowed_sizes: [regular, large]
        allowed_modifiers: ["no onions", "extra cheese"]
        combo_upcharge_cents: 250
      - id: shake-01
        name: Vanilla Shake
        available: false
        price_cents: 449
`

func TestParseCatalog(t *testing.T) {
	t.Run("should look up items per restaurant", func(t *testing.T) {
		catalog, err := menufile.ParseCatalog([]byte(testMenu))
		require.NoError(t, err)

		view, err := catalog.Snapshot(context.Background(), "rest-001")
		require.NoError(t, err)

		burger, found := view.Lookup("burger-01")
		require.True(t, found)
		assert.Equal(t, "Cheeseburger", burger.Name)
		assert.True(t, burger.Available)
		assert.Equal(t, int64(599), burger.PriceCents)
		assert.Equal(t, int64(749), burger.SizePriceCents["large"])
		assert.Equal(t, int64(250), burger.ComboUpchargeCents)

		shake, found := view.Lookup("shake-01")
		require.True(t, found)
		assert.False(t, shake.Available)

		_, found = view.Lookup("pizza-01")
		assert.False(t, found)
	})

	t.Run("should reject unknown restaurant", func(t *testing.T) {
		catalog, err := menufile.ParseCatalog([]byte(testMenu))
		require.NoError(t, err)

		_, err = catalog.Snapshot(context.Background(), "rest-999")
		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrObjectNotFound)
	})

	t.Run("should reject empty menu file", func(t *testing.T) {
		_, err := menufile.ParseCatalog([]byte("restaurants: {}"))
		require.Error(t, err)
	})

	t.Run("should reject item without id", func(t *testing.T) {
		_, err := menufile.ParseCatalog([]byte(`
restaurants:
  rest-001:
    items:
      - name: Nameless
        price_cents: 100
`))
		require.Error(t, err)
	})

	t.Run("should reject malformed yaml", func(t *testing.T) {
		_, err := menufile.ParseCatalog([]byte("restaurants: ["))
		require.Error(t, err)
	})
}
