package coupon

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_First10(t *testing.T) {
	cat := DefaultCatalog()

	cp, err := cat.Validate("FIRST10", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(100), Discount(cp, 1000))
}

func TestValidate_CaseInsensitive(t *testing.T) {
	cat := DefaultCatalog()

	cp, err := cat.Validate("first10", 5000)
	require.NoError(t, err)
	assert.Equal(t, "FIRST10", cp.Code)

	_, err = cat.Validate("  Save15 ", 20000)
	require.NoError(t, err)
}

func TestValidate_Save15Capped(t *testing.T) {
	cp, err := DefaultCatalog().Validate("SAVE15", 20000)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), Discount(cp, 20000))
}

func TestValidate_Save15MinimumNotMet(t *testing.T) {
	_, err := DefaultCatalog().Validate("SAVE15", 5000)
	require.Error(t, err)

	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, MinimumNotMet, cerr.Kind)
	assert.Contains(t, cerr.Message, "10000")
}

func TestValidate_UnknownCode(t *testing.T) {
	_, err := DefaultCatalog().Validate("BOGUS", 99999)

	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, InvalidCode, cerr.Kind)
	assert.Equal(t, "Invalid coupon code", cerr.Error())
}

func TestValidate_PartialCodeDoesNotMatch(t *testing.T) {
	_, err := DefaultCatalog().Validate("FIRST", 5000)
	require.Error(t, err)
}

func TestDiscount(t *testing.T) {
	tests := []struct {
		name     string
		coupon   Coupon
		subtotal int64
		want     int64
	}{
		{"percentage truncates", Coupon{Type: TypePercentage, Value: 10}, 1005, 100},
		{"percentage uncapped", Coupon{Type: TypePercentage, Value: 15, MaxDiscount: 2000}, 10000, 1500},
		{"percentage capped", Coupon{Type: TypePercentage, Value: 15, MaxDiscount: 2000}, 100000, 2000},
		{"fixed", Coupon{Type: TypeFixed, Value: 250}, 1000, 250},
		{"fixed above subtotal", Coupon{Type: TypeFixed, Value: 250}, 100, 100},
		{"unknown type", Coupon{Type: "bogo", Value: 5}, 1000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Discount(tt.coupon, tt.subtotal))
		})
	}
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "INVALID_COUPON_CODE", InvalidCode.String())
	assert.Equal(t, "COUPON_MINIMUM_NOT_MET", MinimumNotMet.String())
	assert.Equal(t, "UNKNOWN", ErrorKind(42).String())
}
