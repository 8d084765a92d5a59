package crawler

import (
	"context"
	"fmt"
	"time"
)

// Product is one price row as scraped from a chain's price list. All
// fields are kept as strings; coercion to typed values happens at import.
type Product struct {
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

// Store is one physical store with its price rows for a single date.
type Store struct {
	Code     string
	Type     string
	Address  string
	City     string
	Zipcode  string
	Products []Product
}

// Adapter scrapes one chain's price portal. Adapters only perform HTTP
// and parsing; they never touch the database.
type Adapter interface {
	Chain() string
	GetAllProducts(ctx context.Context, date time.Time) ([]Store, error)
}

// NoDataError signals that a chain has published no price list for the
// requested date. Adapters fail fast with this instead of returning an
// empty result.
type NoDataError struct {
	Chain string
	Date  time.Time
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no price data for chain %s on %s", e.Chain, e.Date.Format("2006-01-02"))
}
