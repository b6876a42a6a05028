package models

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"slices"
)

// Field names double as column names in the product table.
const (
	RetailerName = "Retailer_Name"
	Brand        = "Brand"
	SpiritType   = "Spirit_Type"
	SpiritStyle  = "Spirit_Style"
	CompleteName = "Complete_Name"
	Price        = "Price"
	Rating       = "Rating"
	ReviewCount  = "Review_Count"
	WineType     = "Wine_Type"
	Region       = "Region"
	Appellation  = "Appellation"
	WineVarietal = "Wine_Varietal"
	WineStyle    = "Wine_Style"
	WineBody     = "Wine_Body"
	BeerType     = "Beer_Type"
	BeerStyle    = "Beer_Style"
	BeerBody     = "Beer_Body"
	Country      = "Country"
	State        = "State"
	FoodPairings = "Food_Pairings"
	WebsiteNotes = "Website_Notes"
	ABV          = "ABV"
	Taste        = "Taste"
	URL          = "URL"
	ScrapeDate   = "Scrape_Date"
)

// Record holds the scraped data for a single product listing.
// A missing key or a nil value is the absent value and is stored as NULL.
type Record map[string]any

// Get returns the value stored for field, nil when absent.
func (r Record) Get(field string) any {
	v, ok := r[field]
	if !ok || v == nil {
		return nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil
	}
	if valuer, ok := v.(driver.Valuer); ok {
		val, err := valuer.Value()
		if err != nil {
			return nil
		}
		return val
	}
	return v
}

// URLString is the record's URL as plain text, used to identify it in logs.
func (r Record) URLString() string {
	v := r.Get(URL)
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// IsField reports whether name is a column of any variant.
func IsField(name string) bool {
	return slices.Contains(extendedColumns, name)
}

// Variant selects which column layout a deployment writes.
type Variant string

const (
	// Standard is the spirits and wine layout (22 columns).
	Standard Variant = "standard"
	// Extended adds beer descriptors (25 columns).
	Extended Variant = "extended"
)

var standardColumns = []string{
	RetailerName, Brand, SpiritType, SpiritStyle, CompleteName,
	Price, Rating, ReviewCount,
	WineType, Region, Appellation, WineVarietal, WineStyle, WineBody,
	Country, State, FoodPairings, WebsiteNotes,
	ABV, Taste, URL, ScrapeDate,
}

var extendedColumns = []string{
	RetailerName, Brand, SpiritType, SpiritStyle, CompleteName,
	Price, Rating, ReviewCount,
	WineType, Region, Appellation, WineVarietal, WineStyle, WineBody,
	BeerType, BeerStyle, BeerBody,
	Country, State, FoodPairings, WebsiteNotes,
	ABV, Taste, URL, ScrapeDate,
}

// Columns returns the ordered column list for the variant.
func (v Variant) Columns() ([]string, error) {
	switch v {
	case Standard, "":
		return append([]string(nil), standardColumns...), nil
	case Extended:
		return append([]string(nil), extendedColumns...), nil
	}
	return nil, fmt.Errorf("unknown schema variant %q", v)
}

// ColumnType is the SQL type used when the table is created locally.
func ColumnType(field string) string {
	switch field {
	case Price, Rating:
		return "DOUBLE PRECISION"
	case ReviewCount, ABV:
		return "INTEGER"
	}
	return "TEXT"
}
