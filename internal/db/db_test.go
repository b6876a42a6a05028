package db

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"mspro-labs/cellar-scout/internal/config"
	"mspro-labs/cellar-scout/internal/logger"
	"mspro-labs/cellar-scout/internal/models"
	"mspro-labs/cellar-scout/internal/normalize"
	"mspro-labs/cellar-scout/internal/safe"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func completeRecord() models.Record {
	return models.Record{
		models.RetailerName: "Keg N Bottle",
		models.Brand:        "Lagavulin",
		models.SpiritType:   "Scotch Whisky",
		models.SpiritStyle:  "Single Malt",
		models.CompleteName: "Lagavulin 16 Year Old",
		models.Price:        normalize.Price("$1,089.99"),
		models.Rating:       safe.Float("4.7"),
		models.ReviewCount:  safe.Int("212"),
		models.WineType:     "n/a",
		models.Region:       "Islay",
		models.Appellation:  "Islay",
		models.WineVarietal: "n/a",
		models.WineStyle:    "n/a",
		models.WineBody:     "n/a",
		models.Country:      "Scotland",
		models.State:        "Argyll",
		models.FoodPairings: "Smoked salmon",
		models.WebsiteNotes: "Peat smoke and sea spray.",
		models.ABV:          normalize.ABV("43%"),
		models.Taste:        "Smoky",
		models.URL:          "https://kegnbottle.example/products/lagavulin-16",
		models.ScrapeDate:   "2026-10-18",
	}
}

func TestSchema(t *testing.T) {
	standard, err := NewSchema("alcohol_data", models.Standard)
	require.NoError(t, err)
	assert.Len(t, standard.Columns, 22)
	assert.Equal(t, models.RetailerName, standard.Columns[0])
	assert.Equal(t, models.ScrapeDate, standard.Columns[21])

	extended, err := NewSchema("alcohol_data", models.Extended)
	require.NoError(t, err)
	assert.Len(t, extended.Columns, 25)
	assert.Contains(t, extended.Columns, models.BeerStyle)

	_, err = NewSchema("alcohol_data", "mead")
	assert.Error(t, err)
}

func TestInsertSQL(t *testing.T) {
	s := Schema{Table: "dbo.alcohol_data", Columns: []string{"Brand", "Price", "URL"}}

	assert.Equal(t, "INSERT INTO dbo.alcohol_data (\n  Brand,\n  Price,\n  URL\n) VALUES (?, ?, ?)", s.insertSQL(SQLite))
	assert.True(t, strings.HasSuffix(s.insertSQL(Postgres), "VALUES ($1, $2, $3)"))

	d, err := DialectFor("pgx")
	require.NoError(t, err)
	assert.Equal(t, Postgres, d)
	_, err = DialectFor("mysql")
	assert.Error(t, err)
}

func TestInsertWritesOneRowInColumnOrder(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	schema, err := NewSchema("alcohol_data", models.Standard)
	require.NoError(t, err)
	require.NoError(t, EnsureSchema(ctx, db, schema))

	p := NewPersister(db, schema, SQLite, nil)
	rec := completeRecord()
	require.NoError(t, p.Insert(ctx, rec))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM alcohol_data").Scan(&count))
	assert.Equal(t, 1, count)

	got, err := Recent(ctx, db, schema, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)

	want := models.Record{}
	for _, col := range schema.Columns {
		want[col] = rec.Get(col)
	}
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Errorf("stored row mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1089.99, got[0][models.Price])
	assert.Equal(t, int64(43), got[0][models.ABV])
}

func TestInsertStoresAbsentFieldsAsNull(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	schema, err := NewSchema("alcohol_data", models.Extended)
	require.NoError(t, err)
	require.NoError(t, EnsureSchema(ctx, db, schema))

	p := NewPersister(db, schema, SQLite, nil)
	rec := models.Record{
		models.CompleteName: "Pliny the Elder",
		models.BeerStyle:    "Double IPA",
		models.Price:        normalize.Price("n/a"),
		models.Brand:        nil,
		models.URL:          "https://kegnbottle.example/products/pliny",
	}
	require.NoError(t, p.Insert(ctx, rec))

	var price sql.NullFloat64
	var brand, style sql.NullString
	err = db.QueryRow("SELECT Price, Brand, Beer_Style FROM alcohol_data").Scan(&price, &brand, &style)
	require.NoError(t, err)
	assert.False(t, price.Valid)
	assert.False(t, brand.Valid)
	assert.Equal(t, "Double IPA", style.String)
}

func TestDuplicateURLsProduceDuplicateRows(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	schema, err := NewSchema("alcohol_data", models.Standard)
	require.NoError(t, err)
	require.NoError(t, EnsureSchema(ctx, db, schema))

	p := NewPersister(db, schema, SQLite, nil)
	rec := completeRecord()
	require.NoError(t, p.Insert(ctx, rec))
	require.NoError(t, p.Insert(ctx, rec))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM alcohol_data WHERE URL = ?", rec.URLString()).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestInsertPropagatesErrors(t *testing.T) {
	db := openTestDB(t)
	schema, err := NewSchema("missing_table", models.Standard)
	require.NoError(t, err)

	p := NewPersister(db, schema, SQLite, nil)
	err = p.Insert(context.Background(), completeRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lagavulin-16")
}

func TestSaveLogsAndReturnsFailure(t *testing.T) {
	db := openTestDB(t)
	schema, err := NewSchema("missing_table", models.Standard)
	require.NoError(t, err)

	core, observed := observer.New(zapcore.InfoLevel)
	p := NewPersister(db, schema, SQLite, logger.NewFromZap(zap.New(core)))

	rec := completeRecord()
	var res Result
	assert.NotPanics(t, func() { res = p.Save(context.Background(), rec) })

	assert.False(t, res.OK())
	assert.Error(t, res.Err)
	assert.Equal(t, rec.URLString(), res.URL)

	require.Equal(t, 1, observed.Len())
	entry := observed.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, rec.URLString(), entry.ContextMap()["url"])
}

func TestSaveTreatsNilPointersAsNull(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	schema, err := NewSchema("alcohol_data", models.Standard)
	require.NoError(t, err)
	require.NoError(t, EnsureSchema(ctx, db, schema))

	p := NewPersister(db, schema, SQLite, nil)
	rec := models.Record{
		models.URL:    "https://kegnbottle.example/products/mystery",
		models.Brand:  (*sql.NullString)(nil),
		models.Rating: (*float64)(nil),
	}

	var res Result
	require.NotPanics(t, func() { res = p.Save(ctx, rec) })
	require.NoError(t, res.Err)

	var brand sql.NullString
	var rating sql.NullFloat64
	require.NoError(t, db.QueryRow(`SELECT Brand, Rating FROM alcohol_data`).Scan(&brand, &rating))
	assert.False(t, brand.Valid)
	assert.False(t, rating.Valid)
}

func TestSaveSuccess(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	schema, err := NewSchema("alcohol_data", models.Standard)
	require.NoError(t, err)
	require.NoError(t, EnsureSchema(ctx, db, schema))

	core, observed := observer.New(zapcore.InfoLevel)
	p := NewPersister(db, schema, SQLite, logger.NewFromZap(zap.New(core)))

	res := p.Save(ctx, completeRecord())
	assert.True(t, res.OK())
	assert.Equal(t, 0, observed.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestConnect(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Connect(ctx, config.DatabaseConfig{Driver: "sqlite3", DSN: t.TempDir() + "/alcohol.db"})
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	_, err = Connect(ctx, config.DatabaseConfig{Driver: "nope", DSN: "x"})
	assert.Error(t, err)
}
