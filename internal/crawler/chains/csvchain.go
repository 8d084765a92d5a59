package chains

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/kosarica/catalog-service/internal/crawler"
	"github.com/kosarica/catalog-service/internal/parsers/csv"
)

// columnMap names the portal CSV headers for each product field. Empty
// entries mean the portal does not publish that field.
type columnMap struct {
	Code         string
	Barcode      string
	Name         string
	Brand        string
	Category     string
	Unit         string
	Quantity     string
	Price        string
	UnitPrice    string
	BestPrice30  string
	AnchorPrice  string
	SpecialPrice string
}

// ministryColumns is the column set mandated by the price transparency
// regulation; most portals follow it verbatim.
var ministryColumns = columnMap{
	Code:         "SIFRA PROIZVODA",
	Barcode:      "BARKOD",
	Name:         "NAZIV PROIZVODA",
	Brand:        "MARKA PROIZVODA",
	Category:     "KATEGORIJA PROIZVODA",
	Unit:         "JEDINICA MJERE",
	Quantity:     "NETO KOLICINA",
	Price:        "MALOPRODAJNA CIJENA",
	UnitPrice:    "CIJENA ZA JEDINICU MJERE",
	BestPrice30:  "NAJNIZA CIJENA U POSLJEDNJIH 30 DANA",
	AnchorPrice:  "SIDRENA CIJENA NA 2.5.2025",
	SpecialPrice: "MPC ZA VRIJEME POSEBNOG OBLIKA PRODAJE",
}

// csvAdapter is the shared implementation for chains publishing one CSV
// per store behind an HTML index page.
type csvAdapter struct {
	chain    string
	indexURL string
	linkRe   *regexp.Regexp
	columns  columnMap
}

func (a *csvAdapter) Chain() string { return a.chain }

func (a *csvAdapter) GetAllProducts(ctx context.Context, date time.Time) ([]crawler.Store, error) {
	links, err := discoverLinks(ctx, a.indexURL, a.linkRe, date)
	if err != nil {
		return nil, err
	}
	return fetchStores(ctx, a.chain, date, links, func(meta storeMeta, body []byte) (crawler.Store, error) {
		return parseCSVStore(meta, body, a.columns)
	})
}

func parseCSVStore(meta storeMeta, body []byte, columns columnMap) (crawler.Store, error) {
	result, err := csv.Parse(body, csv.DefaultOptions())
	if err != nil {
		return crawler.Store{}, err
	}

	nameIdx := result.HeaderIndex(columns.Name)
	priceIdx := result.HeaderIndex(columns.Price)
	if nameIdx < 0 || priceIdx < 0 {
		return crawler.Store{}, fmt.Errorf("price list is missing name/price columns")
	}

	codeIdx := result.HeaderIndex(columns.Code)
	barcodeIdx := result.HeaderIndex(columns.Barcode)
	brandIdx := result.HeaderIndex(columns.Brand)
	categoryIdx := result.HeaderIndex(columns.Category)
	unitIdx := result.HeaderIndex(columns.Unit)
	quantityIdx := result.HeaderIndex(columns.Quantity)
	unitPriceIdx := result.HeaderIndex(columns.UnitPrice)
	bestPrice30Idx := result.HeaderIndex(columns.BestPrice30)
	anchorIdx := result.HeaderIndex(columns.AnchorPrice)
	specialIdx := result.HeaderIndex(columns.SpecialPrice)

	store := crawler.Store{
		Code:    meta.Code,
		Type:    meta.Type,
		Address: meta.Address,
		City:    meta.City,
		Zipcode: meta.Zipcode,
	}

	for _, row := range result.Rows {
		name := csv.Field(row, nameIdx)
		price := csv.ParsePrice(csv.Field(row, priceIdx))
		if name == "" || price == "" {
			continue
		}
		code := csv.Field(row, codeIdx)
		if code == "" {
			code = csv.Field(row, barcodeIdx)
		}
		if code == "" {
			continue
		}
		store.Products = append(store.Products, crawler.Product{
			Code:         code,
			Barcode:      csv.Field(row, barcodeIdx),
			Name:         name,
			Brand:        csv.Field(row, brandIdx),
			Category:     csv.Field(row, categoryIdx),
			Unit:         csv.Field(row, unitIdx),
			Quantity:     csv.Field(row, quantityIdx),
			Price:        price,
			UnitPrice:    csv.ParsePrice(csv.Field(row, unitPriceIdx)),
			BestPrice30:  csv.ParsePrice(csv.Field(row, bestPrice30Idx)),
			AnchorPrice:  csv.ParsePrice(csv.Field(row, anchorIdx)),
			SpecialPrice: csv.ParsePrice(csv.Field(row, specialIdx)),
		})
	}
	return store, nil
}
