package shared

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAmounts(t *testing.T) {
	assert.True(t, d("10.13").Equal(RoundMoney(d("10.125"))))
	assert.True(t, d("-10.13").Equal(RoundMoney(d("-10.125"))))
	assert.True(t, d("1.2346").Equal(RoundQty(d("1.23456"))))
	assert.True(t, d("18").Equal(Percent(d("200"), d("9"))))
	assert.True(t, d("33.33").Equal(Ratio(d("1"), d("3"))))
	assert.True(t, Ratio(d("1"), decimal.Zero).IsZero())

	total := Sum([]string{"1.5", "2.25", "-0.75"}, func(s string) decimal.Decimal { return d(s) })
	assert.True(t, d("3").Equal(total))
}

func TestValidationHelpers(t *testing.T) {
	var v ValidationError
	v.CheckCode("code", "", 50)
	v.CheckCode("code2", "bad code", 50)
	v.CheckCode("code3", "OK-1/2.x_y", 50)
	v.CheckText("name", "   ", 10)
	v.CheckText("name2", "abcdefghijk", 10)
	v.CheckNonNegative("price", d("-1"))
	v.CheckPositive("qty", decimal.Zero)

	fields := map[string]bool{}
	for _, f := range v.Fields {
		fields[f.Field] = true
	}
	assert.Equal(t, map[string]bool{"code": true, "code2": true, "name": true, "name2": true, "price": true, "qty": true}, fields)
	assert.Equal(t, "AB-1", NormalizeCode("  ab-1 "))
}
