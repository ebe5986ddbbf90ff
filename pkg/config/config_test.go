package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlanSeats(t *testing.T) {
	t.Run("parses the policy table", func(t *testing.T) {
		got, err := parsePlanSeats("starter:5,team:15,business:50")
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"starter": 5, "team": 15, "business": 50}, got)
	})

	t.Run("tolerates whitespace", func(t *testing.T) {
		got, err := parsePlanSeats(" starter: 5 , team:15 ")
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"starter": 5, "team": 15}, got)
	})

	t.Run("rejects malformed entries", func(t *testing.T) {
		_, err := parsePlanSeats("starter=5")
		assert.Error(t, err)

		_, err = parsePlanSeats("starter:five")
		assert.Error(t, err)

		_, err = parsePlanSeats("starter:0")
		assert.Error(t, err)
	})
}

func TestSeatsForPlan(t *testing.T) {
	billing := BillingConfig{PlanSeats: map[string]int{"starter": 5, "team": 15}}

	seats, ok := billing.SeatsForPlan("team")
	assert.True(t, ok)
	assert.Equal(t, 15, seats)

	_, ok = billing.SeatsForPlan("platinum")
	assert.False(t, ok)
}

func TestSplitNonEmpty(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitNonEmpty("a, b,"))
	assert.Nil(t, splitNonEmpty(""))
}
