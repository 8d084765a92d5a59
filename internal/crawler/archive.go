package crawler

import (
	"archive/zip"
	"compress/flate"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/golden"
)

// GoldenRecord is the slice of a golden product the archive writer needs
// to compute unit prices.
type GoldenRecord struct {
	ID           int64
	BaseUnitType string
	Variants     []database.Variant
}

// GoldenMap maps an EAN to its golden record.
type GoldenMap map[string]GoldenRecord

// Counters summarizes what went into one archive.
type Counters struct {
	NStores   int
	NProducts int
	NPrices   int
}

var (
	storesHeader   = []string{"store_id", "type", "address", "city", "zipcode"}
	productsHeader = []string{"product_id", "barcode", "name", "brand", "category", "unit", "quantity"}
	pricesHeader   = []string{"store_id", "product_id", "price", "unit_price", "best_price_30", "anchor_price", "special_price"}
	gPricesHeader  = []string{"g_product_id", "store_id", "price_date", "regular_price", "special_price", "price_per_kg", "price_per_l", "price_per_piece", "is_on_special_offer"}
)

var archiveLog = log.With().Str("component", "archive").Logger()

// WriteArchive writes the four per-chain CSVs (stores, products, prices,
// g_prices) into a deflated ZIP at path. Empty data sets still emit a
// header-only CSV. Price rows whose barcode has no golden record are
// skipped from g_prices with a warning.
func WriteArchive(path, chain string, date time.Time, stores []Store, goldenMap GoldenMap) (Counters, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return Counters{}, fmt.Errorf("failed to create archive directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return Counters{}, fmt.Errorf("failed to create archive %s: %w", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	counters := Counters{NStores: len(stores)}

	if err := writeCSVEntry(zw, "stores.csv", storesHeader, func(w *csv.Writer) error {
		for _, s := range stores {
			if err := w.Write([]string{s.Code, s.Type, s.Address, s.City, s.Zipcode}); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return counters, err
	}

	// Products are deduplicated across stores on their chain code.
	seenProducts := make(map[string]bool)
	if err := writeCSVEntry(zw, "products.csv", productsHeader, func(w *csv.Writer) error {
		for _, s := range stores {
			for _, p := range s.Products {
				if seenProducts[p.Code] {
					continue
				}
				seenProducts[p.Code] = true
				if err := w.Write([]string{p.Code, p.Barcode, p.Name, p.Brand, p.Category, p.Unit, p.Quantity}); err != nil {
					return err
				}
			}
		}
		return nil
	}); err != nil {
		return counters, err
	}
	counters.NProducts = len(seenProducts)

	if err := writeCSVEntry(zw, "prices.csv", pricesHeader, func(w *csv.Writer) error {
		for _, s := range stores {
			for _, p := range s.Products {
				if err := w.Write([]string{s.Code, p.Code, p.Price, p.UnitPrice, p.BestPrice30, p.AnchorPrice, p.SpecialPrice}); err != nil {
					return err
				}
				counters.NPrices++
			}
		}
		return nil
	}); err != nil {
		return counters, err
	}

	dateStr := date.Format("2006-01-02")
	missingGolden := 0
	if err := writeCSVEntry(zw, "g_prices.csv", gPricesHeader, func(w *csv.Writer) error {
		for _, s := range stores {
			for _, p := range s.Products {
				rec, ok := goldenMap[p.Barcode]
				if !ok {
					missingGolden++
					continue
				}
				row, err := gPriceRow(rec, s.Code, dateStr, p)
				if err != nil {
					archiveLog.Warn().Str("chain", chain).Str("barcode", p.Barcode).Err(err).Msg("skipping g_price row")
					continue
				}
				if err := w.Write(row); err != nil {
					return err
				}
			}
		}
		return nil
	}); err != nil {
		return counters, err
	}

	if missingGolden > 0 {
		archiveLog.Warn().Str("chain", chain).Int("count", missingGolden).Msg("barcodes without golden record skipped from g_prices")
	}

	if err := zw.Close(); err != nil {
		return counters, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return counters, nil
}

func writeCSVEntry(zw *zip.Writer, name string, header []string, writeRows func(w *csv.Writer) error) error {
	entry, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("failed to create %s entry: %w", name, err)
	}
	w := csv.NewWriter(entry)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	if err := writeRows(w); err != nil {
		return fmt.Errorf("failed to write %s rows: %w", name, err)
	}
	w.Flush()
	return w.Error()
}

func gPriceRow(rec GoldenRecord, storeCode, dateStr string, p Product) ([]string, error) {
	regular, err := parseOptionalPrice(p.Price)
	if err != nil {
		return nil, fmt.Errorf("bad regular price %q: %w", p.Price, err)
	}
	special, err := parseOptionalPrice(p.SpecialPrice)
	if err != nil {
		return nil, fmt.Errorf("bad special price %q: %w", p.SpecialPrice, err)
	}

	effective := golden.EffectivePrice(regular, special)
	if effective == nil {
		return nil, fmt.Errorf("no price")
	}

	perKg, perL, perPiece := golden.UnitPrices(*effective, rec.BaseUnitType, rec.Variants)

	isSpecial := "false"
	if special != nil {
		isSpecial = "true"
	}

	return []string{
		fmt.Sprintf("%d", rec.ID),
		storeCode,
		dateStr,
		decimalString(regular),
		decimalString(special),
		decimalString(perKg),
		decimalString(perL),
		decimalString(perPiece),
		isSpecial,
	}, nil
}

func parseOptionalPrice(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	if d.IsZero() {
		return nil, nil
	}
	return &d, nil
}

func decimalString(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}
