package scraper

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"mspro-labs/cellar-scout/internal/config"
	"mspro-labs/cellar-scout/internal/db"
	"mspro-labs/cellar-scout/internal/logger"
	"mspro-labs/cellar-scout/internal/models"
	"mspro-labs/cellar-scout/internal/normalize"
	"mspro-labs/cellar-scout/internal/safe"
)

// Fetcher returns the parsed page for a URL.
type Fetcher interface {
	Document(ctx context.Context, rawURL string, params url.Values) (*goquery.Document, error)
}

// Saver persists one record and reports the outcome.
type Saver interface {
	Save(ctx context.Context, rec models.Record) db.Result
}

// Summary counts what happened during a Run.
type Summary struct {
	Saved       int
	FetchFailed int
	SaveFailed  int
	FailedURLs  []string
}

var reDigits = regexp.MustCompile(`\d[\d,]*`)

// Extract builds a Record from a product page using the site's selectors.
// Fields without a selector, or whose selector matches nothing, stay absent.
func Extract(doc *goquery.Document, site *config.SiteConfig, pageURL string, now time.Time) models.Record {
	rec := models.Record{
		models.RetailerName: safe.String(site.Retailer),
		models.URL:          safe.String(pageURL),
		models.ScrapeDate:   now.Format(time.DateOnly),
	}

	for field, loc := range site.Fields {
		if loc.Selector == "" {
			continue
		}
		raw, ok := selectText(doc.Selection, loc)
		if !ok {
			continue
		}
		rec[field] = convert(field, raw)
	}
	return rec
}

// convert applies the normalization each column expects.
func convert(field, raw string) any {
	switch field {
	case models.Price:
		return normalize.Price(raw)
	case models.ABV:
		return normalize.ABV(raw)
	case models.Rating:
		return safe.Float(raw)
	case models.ReviewCount:
		return safe.Int(strings.ReplaceAll(reDigits.FindString(raw), ",", ""))
	}
	return safe.String(collapseSpace(raw))
}

func selectText(s *goquery.Selection, loc config.Field) (string, bool) {
	node := s.Find(loc.Selector).First()
	if node.Length() == 0 {
		return "", false
	}
	if loc.Attr != "" {
		return node.Attr(loc.Attr)
	}
	return node.Text(), true
}

var reSpace = regexp.MustCompile(`\s+`)

func collapseSpace(s string) string {
	return reSpace.ReplaceAllString(strings.TrimSpace(s), " ")
}

// Run fetches each URL in order, extracts a record and saves it. A failed
// page is logged and skipped; Run only stops early when ctx is done.
func Run(ctx context.Context, f Fetcher, s Saver, site *config.SiteConfig, urls []string, l *logger.Logger) Summary {
	if l == nil {
		l = logger.Nop()
	}
	var params url.Values
	if len(site.QueryParams) > 0 {
		params = url.Values{}
		for k, v := range site.QueryParams {
			params.Set(k, v)
		}
	}

	var sum Summary
	for _, u := range urls {
		if ctx.Err() != nil {
			break
		}

		doc, err := f.Document(ctx, u, params)
		if err != nil {
			l.Error("failed to fetch page", err, zap.String("url", u))
			sum.FetchFailed++
			sum.FailedURLs = append(sum.FailedURLs, u)
			continue
		}

		rec := Extract(doc, site, u, time.Now())
		if res := s.Save(ctx, rec); !res.OK() {
			sum.SaveFailed++
			sum.FailedURLs = append(sum.FailedURLs, u)
			continue
		}
		sum.Saved++
		l.Info("saved product", zap.String("url", u), zap.Any("name", rec.Get(models.CompleteName)))
	}
	return sum
}
