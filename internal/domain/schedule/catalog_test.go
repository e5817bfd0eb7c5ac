//go:build unit

package schedule_test

import (
	"testing"

	"venue-booking/internal/domain/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	slots := schedule.Catalog()
	require.Len(t, slots, 15)

	assert.Equal(t, "6:00 AM", slots[0].Label())
	assert.Equal(t, 360, slots[0].MinuteOfDay())
	assert.Equal(t, "8:00 PM", slots[14].Label())
	assert.Equal(t, 1200, slots[14].MinuteOfDay())

	for i := 1; i < len(slots); i++ {
		assert.Equal(t, 60, slots[i].MinuteOfDay()-slots[i-1].MinuteOfDay())
	}

	t.Run("returns a copy", func(t *testing.T) {
		mutated := schedule.Catalog()
		mutated[0] = mutated[1]
		assert.Equal(t, "6:00 AM", schedule.Catalog()[0].Label())
	})
}

func TestParseSlot(t *testing.T) {
	slot, err := schedule.ParseSlot("2:00 PM")
	require.NoError(t, err)
	assert.Equal(t, 840, slot.MinuteOfDay())

	_, err = schedule.ParseSlot("5:00 AM")
	assert.ErrorIs(t, err, schedule.ErrUnknownSlot)

	_, err = schedule.ParseSlot("2:30 PM")
	assert.ErrorIs(t, err, schedule.ErrUnknownSlot)

	_, err = schedule.ParseSlot("2pm")
	assert.ErrorIs(t, err, schedule.ErrInvalidTimeFormat)
}
