package form

import (
	"fmt"
	"math"
	"strings"

	"restaurant-intel/internal/common"
	"restaurant-intel/internal/features"
)

// FieldError names the offending form field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationError collects every field that is out of bounds.
type ValidationError []FieldError

func (v ValidationError) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return "invalid input: " + strings.Join(msgs, "; ")
}

// Validate applies the input widget bounds: ratings within [0, 5], counts
// within [0, MaxCount] so vote sums cannot overflow, and the average price
// non-negative. Categorical values are free text.
func Validate(in features.RawInput) error {
	var errs ValidationError

	rating := func(field string, v float64) {
		if math.IsNaN(v) || v < common.MinRating || v > common.MaxRating {
			errs = append(errs, FieldError{field, fmt.Sprintf("must be between %g and %g", float64(common.MinRating), float64(common.MaxRating))})
		}
	}
	count := func(field string, v int) {
		switch {
		case v < 0:
			errs = append(errs, FieldError{field, "must not be negative"})
		case int64(v) > common.MaxCount:
			errs = append(errs, FieldError{field, fmt.Sprintf("must not exceed %d", int64(common.MaxCount))})
		}
	}

	rating("dining_rating", in.DiningRating)
	rating("delivery_rating", in.DeliveryRating)
	count("dining_votes", in.DiningVotes)
	count("delivery_votes", in.DeliveryVotes)
	count("total_votes", in.TotalVotes)
	rating("average_rating", in.AverageRating)
	count("restaurant_popularity", in.RestaurantPopularity)
	rating("avg_rating_restaurant", in.AvgRatingRestaurant)
	if math.IsNaN(in.AvgPriceRestaurant) || math.IsInf(in.AvgPriceRestaurant, 0) || in.AvgPriceRestaurant < 0 {
		errs = append(errs, FieldError{"avg_price_restaurant", "must be a non-negative number"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
