package golden

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/catalog-service/internal/database"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func intPtr(i int) *int { return &i }

func TestUnitPricesWeightGrams(t *testing.T) {
	perKg, perL, perPiece := UnitPrices(dec("8.00"), database.BaseUnitWeight,
		[]database.Variant{{Unit: "g", Value: dec("400")}})

	require.NotNil(t, perKg)
	assert.True(t, perKg.Equal(dec("20.00")), "got %s", perKg)
	assert.Nil(t, perL)
	assert.Nil(t, perPiece)
}

func TestUnitPricesWeightKilograms(t *testing.T) {
	perKg, _, _ := UnitPrices(dec("5.00"), database.BaseUnitWeight,
		[]database.Variant{{Unit: "kg", Value: dec("2")}})

	require.NotNil(t, perKg)
	assert.True(t, perKg.Equal(dec("2.50")))
}

func TestUnitPricesVolumeMilliliters(t *testing.T) {
	_, perL, _ := UnitPrices(dec("1.50"), database.BaseUnitVolume,
		[]database.Variant{{Unit: "ml", Value: dec("500")}})

	require.NotNil(t, perL)
	assert.True(t, perL.Equal(dec("3.00")))
}

func TestUnitPricesCountPieceCount(t *testing.T) {
	_, _, perPiece := UnitPrices(dec("12.00"), database.BaseUnitCount,
		[]database.Variant{{Unit: "g", Value: dec("400"), PieceCount: intPtr(4)}})

	require.NotNil(t, perPiece)
	assert.True(t, perPiece.Equal(dec("3.00")))
}

func TestUnitPricesCountKomFallback(t *testing.T) {
	_, _, perPiece := UnitPrices(dec("6.00"), database.BaseUnitCount,
		[]database.Variant{{Unit: "kom", Value: dec("3")}})

	require.NotNil(t, perPiece)
	assert.True(t, perPiece.Equal(dec("2.00")))
}

func TestUnitPricesZeroValueYieldsNil(t *testing.T) {
	perKg, perL, perPiece := UnitPrices(dec("8.00"), database.BaseUnitWeight,
		[]database.Variant{{Unit: "g", Value: dec("0")}})

	assert.Nil(t, perKg)
	assert.Nil(t, perL)
	assert.Nil(t, perPiece)
}

func TestUnitPricesUnitMismatchYieldsNil(t *testing.T) {
	perKg, perL, perPiece := UnitPrices(dec("8.00"), database.BaseUnitWeight,
		[]database.Variant{{Unit: "ml", Value: dec("400")}})

	assert.Nil(t, perKg)
	assert.Nil(t, perL)
	assert.Nil(t, perPiece)
}

func TestUnitPricesNoVariants(t *testing.T) {
	perKg, perL, perPiece := UnitPrices(dec("8.00"), database.BaseUnitWeight, nil)
	assert.Nil(t, perKg)
	assert.Nil(t, perL)
	assert.Nil(t, perPiece)
}

func TestEffectivePricePrefersSpecial(t *testing.T) {
	regular := dec("10.00")
	special := dec("8.00")

	assert.Equal(t, &special, EffectivePrice(&regular, &special))
	assert.Equal(t, &regular, EffectivePrice(&regular, nil))
	assert.Nil(t, EffectivePrice(nil, nil))
}

func TestInSeason(t *testing.T) {
	// May through September
	assert.True(t, InSeason(7, intPtr(5), intPtr(9)))
	assert.False(t, InSeason(3, intPtr(5), intPtr(9)))

	// Wrap-around: November through February
	assert.True(t, InSeason(12, intPtr(11), intPtr(2)))
	assert.True(t, InSeason(1, intPtr(11), intPtr(2)))
	assert.False(t, InSeason(6, intPtr(11), intPtr(2)))

	assert.False(t, InSeason(6, nil, intPtr(2)))
}
