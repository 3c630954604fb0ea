package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommissionRate(t *testing.T) {
	t.Run("low-priced sessions pay the top rate", func(t *testing.T) {
		assert.Equal(t, 0.20, CommissionRate(50))
		assert.Equal(t, 0.20, CommissionRate(99.99))
	})

	t.Run("mid tier starts at 100 TTD", func(t *testing.T) {
		assert.Equal(t, 0.15, CommissionRate(100))
		assert.Equal(t, 0.15, CommissionRate(249.99))
	})

	t.Run("high tier starts at 250 TTD", func(t *testing.T) {
		assert.Equal(t, 0.10, CommissionRate(250))
		assert.Equal(t, 0.10, CommissionRate(1000))
	})
}

func TestSplitCharge(t *testing.T) {
	t.Run("fee plus payout always equals the charge", func(t *testing.T) {
		for _, price := range []float64{33.33, 99.99, 100, 175.50, 249.99, 250, 612.45} {
			fee, payout := SplitCharge(price, price)
			assert.InDelta(t, price, fee+payout, 0.0001, "price %.2f", price)
		}
	})

	t.Run("tier follows the original price, not the reduced charge", func(t *testing.T) {
		// 300 TTD session, no-show charge 150: still the 10% tier.
		fee, payout := SplitCharge(300, 150)
		assert.Equal(t, 15.0, fee)
		assert.Equal(t, 135.0, payout)
	})

	t.Run("fee is rounded to cents", func(t *testing.T) {
		// 33.33 at 20% = 6.666 -> 6.67
		fee, payout := SplitCharge(33.33, 33.33)
		assert.Equal(t, 6.67, fee)
		assert.Equal(t, 26.66, payout)
	})
}

func TestNoShowCharge(t *testing.T) {
	assert.Equal(t, 100.0, NoShowCharge(200))
	assert.Equal(t, 62.5, NoShowCharge(125))
	assert.Equal(t, 49.99, NoShowCharge(99.98))
}

func TestRoundTTD(t *testing.T) {
	assert.Equal(t, 6.67, RoundTTD(6.666))
	assert.Equal(t, 1.0, RoundTTD(1.004))
	assert.Equal(t, 0.0, RoundTTD(0))
}
