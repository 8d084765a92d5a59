package golden

import (
	"github.com/shopspring/decimal"

	"github.com/kosarica/catalog-service/internal/database"
)

var thousand = decimal.NewFromInt(1000)

// UnitPrices converts a raw price into the per-kg / per-L / per-piece
// metrics for the product's base unit type, using the first variant.
// Any division by zero, missing field, or unit mismatch yields nil for
// that metric.
func UnitPrices(price decimal.Decimal, baseUnitType string, variants []database.Variant) (perKg, perL, perPiece *decimal.Decimal) {
	if len(variants) == 0 {
		return nil, nil, nil
	}
	v := variants[0]

	switch baseUnitType {
	case database.BaseUnitWeight:
		if v.Value.IsPositive() {
			switch v.Unit {
			case "g":
				p := price.Div(v.Value).Mul(thousand)
				perKg = &p
			case "kg":
				p := price.Div(v.Value)
				perKg = &p
			}
		}
	case database.BaseUnitVolume:
		if v.Value.IsPositive() {
			switch v.Unit {
			case "ml":
				p := price.Div(v.Value).Mul(thousand)
				perL = &p
			case "l":
				p := price.Div(v.Value)
				perL = &p
			}
		}
	case database.BaseUnitCount:
		if v.PieceCount != nil && *v.PieceCount > 0 {
			p := price.Div(decimal.NewFromInt(int64(*v.PieceCount)))
			perPiece = &p
		} else if v.Unit == "kom" && v.Value.IsPositive() {
			p := price.Div(v.Value)
			perPiece = &p
		}
	}
	return perKg, perL, perPiece
}

// EffectivePrice returns the special price when present, the regular price
// otherwise, nil when neither is set.
func EffectivePrice(regular, special *decimal.Decimal) *decimal.Decimal {
	if special != nil {
		return special
	}
	return regular
}

// CandidateUnitPrice selects the unit-price metric matching the base unit
// type from a computed trio.
func CandidateUnitPrice(baseUnitType string, perKg, perL, perPiece *decimal.Decimal) *decimal.Decimal {
	switch baseUnitType {
	case database.BaseUnitWeight:
		return perKg
	case database.BaseUnitVolume:
		return perL
	case database.BaseUnitCount:
		return perPiece
	}
	return nil
}

// InSeason reports whether month (1-12) falls inside the inclusive
// seasonal window, handling wrap-around when start > end (e.g. Nov-Feb).
func InSeason(month int, start, end *int) bool {
	if start == nil || end == nil {
		return false
	}
	s, e := *start, *end
	if s <= e {
		return month >= s && month <= e
	}
	return month >= s || month <= e
}
