package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	cases := map[string]FieldKind{
		"total_income":   TotalIncome,
		"Total Tax":      TotalTax,
		"  amount-owed ": AmountOwed,
		"AGI":            AdjustedGrossIncome,
		"refund":         Overpaid,
	}
	for in, want := range cases {
		got, ok := Canonicalize(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := Canonicalize("net_worth")
	assert.False(t, ok)
	_, ok = Canonicalize("")
	assert.False(t, ok)
}

func TestAllFieldKindsOrder(t *testing.T) {
	kinds := AllFieldKinds()
	assert.Len(t, kinds, 8)
	assert.Equal(t, TotalIncome, kinds[0])
	assert.Equal(t, AmountOwed, kinds[7])

	kinds[0] = "mutated"
	assert.Equal(t, TotalIncome, AllFieldKinds()[0])
}

func TestDerivedKinds(t *testing.T) {
	for _, k := range AllFieldKinds() {
		assert.True(t, k.Valid())
		assert.Equal(t, k == Overpaid || k == AmountOwed, k.IsDerived(), string(k))
	}
	assert.Equal(t, "Amount Owed", AmountOwed.Label())
	assert.False(t, FieldKind("bogus").Valid())
}
