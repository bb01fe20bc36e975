// Package features turns one form submission into the fixed-schema
// feature record consumed by the price and rating models.
package features

import (
	"restaurant-intel/internal/common"
)

// Encoder maps a categorical value to its trained integer code.
type Encoder interface {
	Encode(column, value string) int
}

// RawInput is one submission as captured from the form.
type RawInput struct {
	RestaurantName string `json:"restaurant_name"`
	Cuisine        string `json:"cuisine"`
	PlaceName      string `json:"place_name"`
	City           string `json:"city"`
	ItemName       string `json:"item_name"`
	BestSeller     string `json:"best_seller"`

	DiningRating   float64 `json:"dining_rating"`
	DeliveryRating float64 `json:"delivery_rating"`
	DiningVotes    int     `json:"dining_votes"`
	DeliveryVotes  int     `json:"delivery_votes"`
	TotalVotes     int     `json:"total_votes"`

	AverageRating        float64 `json:"average_rating"`
	RestaurantPopularity int     `json:"restaurant_popularity"`
	AvgRatingRestaurant  float64 `json:"avg_rating_restaurant"`
	AvgPriceRestaurant   float64 `json:"avg_price_restaurant"`
}

// Categoricals returns the raw categorical values keyed by column name.
func (r RawInput) Categoricals() map[string]string {
	return map[string]string{
		common.ColRestaurantName: r.RestaurantName,
		common.ColCuisine:        r.Cuisine,
		common.ColPlaceName:      r.PlaceName,
		common.ColCity:           r.City,
		common.ColItemName:       r.ItemName,
		common.ColBestSeller:     r.BestSeller,
	}
}

// DefaultRawInput returns the values the form starts with.
func DefaultRawInput() RawInput {
	return RawInput{
		DiningRating:         common.DefaultDiningRating,
		DeliveryRating:       common.DefaultDeliveryRating,
		DiningVotes:          common.DefaultDiningVotes,
		DeliveryVotes:        common.DefaultDeliveryVotes,
		TotalVotes:           common.DefaultTotalVotes,
		AverageRating:        common.DefaultAverageRating,
		RestaurantPopularity: common.DefaultRestaurantPopularity,
		AvgRatingRestaurant:  common.DefaultAvgRatingRestaurant,
		AvgPriceRestaurant:   common.DefaultAvgPriceRestaurant,
	}
}

// Record is the model input. Field order is the trained column order and
// must not change.
type Record struct {
	RestaurantName       int     `json:"Restaurant_Name"`
	DiningRating         float64 `json:"Dining_Rating"`
	DeliveryRating       float64 `json:"Delivery_Rating"`
	DiningVotes          int     `json:"Dining_Votes"`
	DeliveryVotes        int     `json:"Delivery_Votes"`
	Cuisine              int     `json:"Cuisine"`
	PlaceName            int     `json:"Place_Name"`
	City                 int     `json:"City"`
	ItemName             int     `json:"Item_Name"`
	BestSeller           int     `json:"Best_Seller"`
	Votes                int     `json:"Votes"`
	AverageRating        float64 `json:"Average_Rating"`
	TotalVotes           int     `json:"Total_Votes"`
	PricePerVote         float64 `json:"Price_per_Vote"`
	LogPrice             float64 `json:"Log_Price"`
	IsBestseller         int     `json:"Is_Bestseller"`
	RestaurantPopularity int     `json:"Restaurant_Popularity"`
	AvgRatingRestaurant  float64 `json:"Avg_Rating_Restaurant"`
	AvgPriceRestaurant   float64 `json:"Avg_Price_Restaurant"`
	RatingGap            float64 `json:"Rating_Gap"`
	ValueScore           float64 `json:"Value_Score"`
}

var columns = []string{
	common.ColRestaurantName,
	"Dining_Rating",
	"Delivery_Rating",
	"Dining_Votes",
	"Delivery_Votes",
	common.ColCuisine,
	common.ColPlaceName,
	common.ColCity,
	common.ColItemName,
	common.ColBestSeller,
	"Votes",
	"Average_Rating",
	"Total_Votes",
	"Price_per_Vote",
	"Log_Price",
	"Is_Bestseller",
	"Restaurant_Popularity",
	"Avg_Rating_Restaurant",
	"Avg_Price_Restaurant",
	"Rating_Gap",
	"Value_Score",
}

// NumColumns is the width of a Record.
const NumColumns = 21

// Columns returns the model column names in record order.
func Columns() []string {
	return append([]string(nil), columns...)
}

// Values returns the record as a numeric row aligned with Columns.
func (r Record) Values() []float64 {
	return []float64{
		float64(r.RestaurantName),
		r.DiningRating,
		r.DeliveryRating,
		float64(r.DiningVotes),
		float64(r.DeliveryVotes),
		float64(r.Cuisine),
		float64(r.PlaceName),
		float64(r.City),
		float64(r.ItemName),
		float64(r.BestSeller),
		float64(r.Votes),
		r.AverageRating,
		float64(r.TotalVotes),
		r.PricePerVote,
		r.LogPrice,
		float64(r.IsBestseller),
		float64(r.RestaurantPopularity),
		r.AvgRatingRestaurant,
		r.AvgPriceRestaurant,
		r.RatingGap,
		r.ValueScore,
	}
}

// Build derives and encodes the model input for one submission. It never
// rejects input; out-of-range values flow through the arithmetic.
func Build(enc Encoder, in RawInput) Record {
	votes := Votes(in.DiningVotes, in.DeliveryVotes)

	return Record{
		RestaurantName:       enc.Encode(common.ColRestaurantName, in.RestaurantName),
		DiningRating:         in.DiningRating,
		DeliveryRating:       in.DeliveryRating,
		DiningVotes:          in.DiningVotes,
		DeliveryVotes:        in.DeliveryVotes,
		Cuisine:              enc.Encode(common.ColCuisine, in.Cuisine),
		PlaceName:            enc.Encode(common.ColPlaceName, in.PlaceName),
		City:                 enc.Encode(common.ColCity, in.City),
		ItemName:             enc.Encode(common.ColItemName, in.ItemName),
		BestSeller:           enc.Encode(common.ColBestSeller, in.BestSeller),
		Votes:                votes,
		AverageRating:        in.AverageRating,
		TotalVotes:           in.TotalVotes,
		PricePerVote:         PricePerVote(in.AvgPriceRestaurant, votes),
		LogPrice:             LogPrice(in.AvgPriceRestaurant),
		IsBestseller:         IsBestseller(in.BestSeller),
		RestaurantPopularity: in.RestaurantPopularity,
		AvgRatingRestaurant:  in.AvgRatingRestaurant,
		AvgPriceRestaurant:   in.AvgPriceRestaurant,
		RatingGap:            RatingGap(in.DiningRating, in.DeliveryRating),
		ValueScore:           ValueScore(in.AverageRating, in.AvgPriceRestaurant),
	}
}

// BuildWithMetrics is Build plus a FeatureErrorsInc for every non-finite
// value in the result. The record is returned unchanged either way.
func BuildWithMetrics(enc Encoder, in RawInput, m MetricsTracker) Record {
	rec := Build(enc, in)
	if m == nil {
		return rec
	}
	for _, v := range rec.Values() {
		if !finite(v) {
			m.FeatureErrorsInc()
		}
	}
	return rec
}
