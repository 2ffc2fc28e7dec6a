package state

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestModeString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "choosing_party_to_delete", ChoosingPartyToDelete.String())
	assert.Equal(t, "unknown", Mode(42).String())
}

func TestTransitionsDropPendingAmount(t *testing.T) {
	st := Describing(decimal.RequireFromString("12.35"))
	assert.True(t, st.Is(AwaitingDescription))
	assert.Equal(t, "12.35", st.PendingAmount.StringFixed(2))

	next := To(AwaitingAmount)
	assert.True(t, next.Is(AwaitingAmount))
	assert.True(t, next.PendingAmount.IsZero())
}

func TestExpectsInput(t *testing.T) {
	assert.False(t, Idle.ExpectsInput())
	for m := AwaitingPartyName; m <= ChoosingPartyToDelete; m++ {
		assert.True(t, m.ExpectsInput(), m.String())
	}
}
