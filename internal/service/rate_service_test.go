package service

import (
	"context"
	"testing"

	"blinklean/internal/domain"
	"blinklean/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateService(t *testing.T) {
	db := setupTestDB(t)
	seedTestCatalog(t, db)
	bus := events.NewEventBus()
	svc := NewRateService(db, bus, nil)
	ctx := context.Background()

	var got []events.RateEventPayload
	bus.Subscribe(events.EventRateUpdated, func(e *events.Event) error {
		var p events.RateEventPayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		got = append(got, p)
		return nil
	})

	rates, err := svc.ListRates(ctx)
	require.NoError(t, err)
	require.Len(t, rates, len(testRates))
	assert.Equal(t, "copper", rates[0].MaterialName)

	metal, err := db.GetActiveRateByName(ctx, "metal")
	require.NoError(t, err)

	t.Run("Update", func(t *testing.T) {
		updated, err := svc.UpdateRate(ctx, metal.ID, dec("32.456"))
		require.NoError(t, err)
		assert.Equal(t, "32.46", updated.RatePerKg.StringFixed(2))
		require.Len(t, got, 1)
		assert.Equal(t, "metal", got[0].MaterialName)

		res, err := NewValuationService(db).Estimate(ctx, testLines("metal", "1"))
		require.NoError(t, err)
		assert.Equal(t, "32.46", res.TotalEstimatedValue.StringFixed(2))
	})

	t.Run("Negative", func(t *testing.T) {
		_, err := svc.UpdateRate(ctx, metal.ID, dec("-1"))
		var ve domain.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := svc.UpdateRate(ctx, 9999, dec("1"))
		var nf domain.NotFoundError
		assert.ErrorAs(t, err, &nf)
	})
}
