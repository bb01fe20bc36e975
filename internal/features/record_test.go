package features

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"

	"restaurant-intel/internal/common"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapEncoder codes values from a fixed table and falls back to 0.
type mapEncoder map[string]map[string]int

func (m mapEncoder) Encode(column, value string) int {
	return m[column][value]
}

type countingTracker struct {
	errors int
}

func (c *countingTracker) FeatureErrorsInc() { c.errors++ }

func testEncoder() mapEncoder {
	return mapEncoder{
		common.ColRestaurantName: {"Barbeque Nation": 3},
		common.ColCuisine:        {"North Indian": 7},
		common.ColPlaceName:      {"Connaught Place": 11},
		common.ColCity:           {"Delhi": 2},
		common.ColItemName:       {"Butter Chicken": 42},
		common.ColBestSeller:     {"BESTSELLER": 0, "MUST TRY": 1},
	}
}

func scenarioInput() RawInput {
	return RawInput{
		RestaurantName:       "Barbeque Nation",
		Cuisine:              "North Indian",
		PlaceName:            "Connaught Place",
		City:                 "Delhi",
		ItemName:             "Butter Chicken",
		BestSeller:           "BESTSELLER",
		DiningRating:         4.0,
		DeliveryRating:       4.0,
		DiningVotes:          30,
		DeliveryVotes:        10,
		TotalVotes:           40,
		AverageRating:        4.2,
		RestaurantPopularity: 50,
		AvgRatingRestaurant:  4.0,
		AvgPriceRestaurant:   250.0,
	}
}

func TestBuild_Scenario(t *testing.T) {
	rec := Build(testEncoder(), scenarioInput())

	assert.Equal(t, 0.0, rec.RatingGap)
	assert.Equal(t, 40, rec.Votes)
	assert.InDelta(t, 0.0168, rec.ValueScore, 1e-12)
	assert.InDelta(t, 6.0976, rec.PricePerVote, 1e-4)
	assert.InDelta(t, 5.5254, rec.LogPrice, 1e-4)
	assert.Equal(t, 1, rec.IsBestseller)

	assert.Equal(t, 3, rec.RestaurantName)
	assert.Equal(t, 7, rec.Cuisine)
	assert.Equal(t, 11, rec.PlaceName)
	assert.Equal(t, 2, rec.City)
	assert.Equal(t, 42, rec.ItemName)
	assert.Equal(t, 0, rec.BestSeller)

	assert.Equal(t, 30, rec.DiningVotes)
	assert.Equal(t, 10, rec.DeliveryVotes)
	assert.Equal(t, 40, rec.TotalVotes)
	assert.Equal(t, 50, rec.RestaurantPopularity)
	assert.Equal(t, 4.0, rec.AvgRatingRestaurant)
	assert.Equal(t, 250.0, rec.AvgPriceRestaurant)
	assert.Equal(t, 4.2, rec.AverageRating)
}

func TestBuild_ZeroPrice(t *testing.T) {
	in := scenarioInput()
	in.AvgPriceRestaurant = 0

	rec := Build(testEncoder(), in)

	assert.Equal(t, 0.0, rec.ValueScore)
	assert.Equal(t, 0.0, rec.PricePerVote)
	assert.Equal(t, 0.0, rec.LogPrice)
}

func TestBuild_UnknownCategoriesUseSentinel(t *testing.T) {
	in := scenarioInput()
	in.City = "Atlantis"
	in.Cuisine = "Martian"

	rec := Build(testEncoder(), in)

	assert.Equal(t, 0, rec.City)
	assert.Equal(t, 0, rec.Cuisine)
	assert.Equal(t, 3, rec.RestaurantName)
}

func TestBuild_BestsellerFlagIgnoresEncoding(t *testing.T) {
	testCases := []struct {
		label   string
		flag    int
		encoded int
	}{
		{"BESTSELLER", 1, 0},
		{"Bestseller", 0, 0},
		{"bestseller", 0, 0},
		{"MUST TRY", 0, 1},
		{"", 0, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.label, func(t *testing.T) {
			in := scenarioInput()
			in.BestSeller = tc.label

			rec := Build(testEncoder(), in)
			assert.Equal(t, tc.flag, rec.IsBestseller)
			assert.Equal(t, tc.encoded, rec.BestSeller)
		})
	}
}

func TestBuild_NegativeInputsPropagate(t *testing.T) {
	in := scenarioInput()
	in.DiningVotes = -5
	in.DeliveryVotes = 2
	in.DeliveryRating = 4.5

	rec := Build(testEncoder(), in)

	assert.Equal(t, -3, rec.Votes)
	assert.InDelta(t, -0.5, rec.RatingGap, 1e-12)
	assert.InDelta(t, 250.0/-2.0, rec.PricePerVote, 1e-12)
}

func TestBuild_Deterministic(t *testing.T) {
	enc := testEncoder()
	in := scenarioInput()

	first := Build(enc, in)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, Build(enc, in))
	}
}

func TestColumns_Order(t *testing.T) {
	want := []string{
		"Restaurant_Name", "Dining_Rating", "Delivery_Rating", "Dining_Votes",
		"Delivery_Votes", "Cuisine", "Place_Name", "City", "Item_Name",
		"Best_Seller", "Votes", "Average_Rating", "Total_Votes", "Price_per_Vote",
		"Log_Price", "Is_Bestseller", "Restaurant_Popularity",
		"Avg_Rating_Restaurant", "Avg_Price_Restaurant", "Rating_Gap", "Value_Score",
	}

	if diff := cmp.Diff(want, Columns()); diff != "" {
		t.Errorf("column order mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, want, NumColumns)
}

func TestColumns_MatchStructTags(t *testing.T) {
	typ := reflect.TypeOf(Record{})
	require.Equal(t, NumColumns, typ.NumField())

	cols := Columns()
	for i := 0; i < typ.NumField(); i++ {
		assert.Equal(t, cols[i], typ.Field(i).Tag.Get("json"), "field %s", typ.Field(i).Name)
	}
}

func TestRecord_ValuesAlignWithColumns(t *testing.T) {
	rec := Build(testEncoder(), scenarioInput())

	// Round-trip through JSON to get a name -> value view of the struct.
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	var byName map[string]float64
	require.NoError(t, json.Unmarshal(data, &byName))

	values := rec.Values()
	require.Len(t, values, NumColumns)
	for i, col := range Columns() {
		assert.Equal(t, byName[col], values[i], col)
	}
}

func TestColumns_ReturnsCopy(t *testing.T) {
	cols := Columns()
	cols[0] = "mutated"
	assert.Equal(t, "Restaurant_Name", Columns()[0])
}

func TestPricePerVote_AlwaysFinite(t *testing.T) {
	for votes := 0; votes < 1000; votes += 37 {
		v := PricePerVote(250, votes)
		assert.False(t, math.IsInf(v, 0) || math.IsNaN(v), "votes=%d", votes)
	}
}

func TestValueScore_NonPositivePrice(t *testing.T) {
	for _, price := range []float64{0, -0.01, -1, -250} {
		assert.Equal(t, 0.0, ValueScore(4.2, price), "price=%v", price)
	}
}

func TestBuildWithMetrics_CountsNonFinite(t *testing.T) {
	tracker := &countingTracker{}

	BuildWithMetrics(testEncoder(), scenarioInput(), tracker)
	assert.Equal(t, 0, tracker.errors)

	in := scenarioInput()
	in.AvgPriceRestaurant = -2 // log1p(-2) is NaN
	rec := BuildWithMetrics(testEncoder(), in, tracker)
	assert.True(t, math.IsNaN(rec.LogPrice))
	assert.Equal(t, 1, tracker.errors)
}

func TestBuildWithMetrics_NilTracker(t *testing.T) {
	assert.Equal(t, Build(testEncoder(), scenarioInput()), BuildWithMetrics(testEncoder(), scenarioInput(), nil))
}

func TestDefaultRawInput(t *testing.T) {
	in := DefaultRawInput()
	assert.Equal(t, 4.0, in.DiningRating)
	assert.Equal(t, 30, in.DiningVotes)
	assert.Equal(t, 40, in.TotalVotes)
	assert.Equal(t, 250.0, in.AvgPriceRestaurant)
	assert.Len(t, in.Categoricals(), len(common.CategoricalColumns))
}
