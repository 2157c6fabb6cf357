package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		cents    int64
		currency string
		want     string
	}{
		{18000, "PEN", "S/ 180.00"},
		{4505, "", "S/ 45.05"},
		{7, "USD", "$ 0.07"},
		{123456, "EUR", "1234.56 EUR"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMoney(tt.cents, tt.currency))
	}
}

func TestOrderStatusValid(t *testing.T) {
	assert.True(t, StatusPendingPayment.Valid())
	assert.True(t, StatusCanceled.Valid())
	assert.False(t, OrderStatus("pending").Valid())
}

func TestCentsArithmeticOverflow(t *testing.T) {
	got, ok := MulCents(18000, 2)
	assert.True(t, ok)
	assert.Equal(t, int64(36000), got)

	_, ok = MulCents(math.MaxInt64/2+1, 2)
	assert.False(t, ok)
	_, ok = MulCents(-1, 1)
	assert.False(t, ok)

	got, ok = AddCents(math.MaxInt64-1, 1)
	assert.True(t, ok)
	assert.Equal(t, int64(math.MaxInt64), got)

	_, ok = AddCents(math.MaxInt64, 1)
	assert.False(t, ok)
}
