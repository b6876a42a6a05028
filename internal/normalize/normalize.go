package normalize

import (
	"database/sql"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	reNumber = regexp.MustCompile(`\d*\.?\d+`)
	rePrice  = regexp.MustCompile(`\d+(?:,\d+)*\.\d{2}`)
)

// ABV pulls the first number out of an alcohol-by-volume label such as
// "13.5% ABV" and rounds it to a whole percent, halves to even.
func ABV(text string) sql.NullInt64 {
	match := reNumber.FindString(text)
	if match == "" {
		return sql.NullInt64{}
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return sql.NullInt64{}
	}
	r := math.RoundToEven(f)
	if math.IsInf(r, 0) || math.IsNaN(r) || r >= math.MaxInt64 || r < math.MinInt64 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(r), Valid: true}
}

// Price pulls a currency amount with exactly two decimals out of text,
// e.g. "$1,234.56" -> 1234.56.
func Price(text string) sql.NullFloat64 {
	match := rePrice.FindString(text)
	if match == "" {
		return sql.NullFloat64{}
	}
	price, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: price, Valid: true}
}
