package normalize

import (
	"database/sql"
	"fmt"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestABV(t *testing.T) {
	testCases := []struct {
		input    string
		expected sql.NullInt64
	}{
		{"13.5%", sql.NullInt64{Int64: 14, Valid: true}},
		{"40% ABV", sql.NullInt64{Int64: 40, Valid: true}},
		{"ABV: 12.4 %", sql.NullInt64{Int64: 12, Valid: true}},
		{"12.5%", sql.NullInt64{Int64: 12, Valid: true}},
		{"Alc. 5.6% / 750ml", sql.NullInt64{Int64: 6, Valid: true}},
		{".5%", sql.NullInt64{Int64: 0, Valid: true}},
		{"ABV .75", sql.NullInt64{Int64: 1, Valid: true}},
		{"99999999999999999999999%", sql.NullInt64{}},
		{"", sql.NullInt64{}},
		{"unknown", sql.NullInt64{}},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, ABV(tc.input), "ABV(%q)", tc.input)
	}
}

func TestPrice(t *testing.T) {
	testCases := []struct {
		input    string
		expected sql.NullFloat64
	}{
		{"$16.99", sql.NullFloat64{Float64: 16.99, Valid: true}},
		{"$1,234.56", sql.NullFloat64{Float64: 1234.56, Valid: true}},
		{"Sale: $24.00 (was $30.00)", sql.NullFloat64{Float64: 24, Valid: true}},
		{"n/a", sql.NullFloat64{}},
		{"$25", sql.NullFloat64{}},
		{"", sql.NullFloat64{}},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Price(tc.input), "Price(%q)", tc.input)
	}
}

func TestPriceFormatsRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("formatted cents parse back", prop.ForAll(
		func(cents int64) bool {
			text := fmt.Sprintf("$%d.%02d", cents/100, cents%100)
			got := Price(text)
			return got.Valid && int64(math.Round(got.Float64*100)) == cents
		},
		gen.Int64Range(0, 10_000_000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
