package common_test

import (
	"encoding/json"
	"math"
	"testing"

	"bourse/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAmount(t *testing.T) {
	a, err := common.NewAmount("100")
	require.NoError(t, err)
	b, err := common.NewAmount("100.00")
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.Equal(t, 0, a.Cmp(b))
	assert.True(t, a.Equal(common.NewAmountFromInt(100)))
	assert.True(t, a.IsPositive())
}

func TestNewAmount_Rejects(t *testing.T) {
	for _, in := range []string{"", "ten", "1.2.3", "0x10"} {
		t.Run(in, func(t *testing.T) {
			_, err := common.NewAmount(in)
			assert.ErrorIs(t, err, common.ErrInvalidAmount)
		})
	}
	assert.Panics(t, func() { common.MustAmount("nope") })
}

func TestAmount_Ordering(t *testing.T) {
	low := common.MustAmount("99.99")
	high := common.MustAmount("100")

	assert.True(t, low.LessThan(high))
	assert.True(t, low.LessThanOrEqual(high))
	assert.True(t, high.GreaterThan(low))
	assert.True(t, high.GreaterThanOrEqual(common.MustAmount("100.000")))
	assert.Equal(t, -1, low.Cmp(high))
	assert.Equal(t, 1, high.Cmp(low))
}

func TestAmount_Mul(t *testing.T) {
	price := common.MustAmount("10.5")
	assert.Equal(t, "42", price.Mul(4).String())
	assert.True(t, price.Mul(0).IsZero())
}

func TestAmount_MulBeyondInt64(t *testing.T) {
	shares := uint64(math.MaxInt64) + 10

	notional := common.MustAmount("1").Mul(shares)
	assert.True(t, notional.IsPositive())
	assert.Equal(t, "9223372036854775817", notional.String())

	assert.Equal(t, "18446744073709551615", common.MustAmount("1").Mul(math.MaxUint64).String())
}

func TestAmount_JSON(t *testing.T) {
	body, err := json.Marshal(common.MustAmount("12.50"))
	require.NoError(t, err)
	assert.Equal(t, `"12.5"`, string(body))

	var a common.Amount
	require.NoError(t, json.Unmarshal([]byte(`"7.25"`), &a))
	assert.True(t, a.Equal(common.MustAmount("7.25")))

	assert.ErrorIs(t, json.Unmarshal([]byte(`"abc"`), &a), common.ErrInvalidAmount)
}
