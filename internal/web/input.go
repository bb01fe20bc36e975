package web

import (
	"net/url"
	"strconv"
	"strings"

	"restaurant-intel/internal/common"
	"restaurant-intel/internal/features"
	"restaurant-intel/internal/form"
)

// parseFormInput reads a submitted HTML form. Missing fields keep their
// defaults; unparsable numbers are reported per field.
func parseFormInput(values url.Values) (features.RawInput, error) {
	in := features.DefaultRawInput()
	var errs form.ValidationError

	str := func(field string, dst *string) {
		if v, ok := values[field]; ok && len(v) > 0 {
			*dst = v[0]
		}
	}
	float := func(field string, dst *float64) {
		v := strings.TrimSpace(values.Get(field))
		if v == "" {
			return
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, form.FieldError{Field: field, Message: "must be a number"})
			return
		}
		*dst = f
	}
	integer := func(field string, dst *int) {
		v := strings.TrimSpace(values.Get(field))
		if v == "" {
			return
		}
		i, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, form.FieldError{Field: field, Message: "must be a whole number"})
			return
		}
		*dst = i
	}

	str("restaurant_name", &in.RestaurantName)
	str("cuisine", &in.Cuisine)
	str("place_name", &in.PlaceName)
	str("city", &in.City)
	str("item_name", &in.ItemName)
	str("best_seller", &in.BestSeller)
	float("dining_rating", &in.DiningRating)
	float("delivery_rating", &in.DeliveryRating)
	integer("dining_votes", &in.DiningVotes)
	integer("delivery_votes", &in.DeliveryVotes)
	integer("total_votes", &in.TotalVotes)
	float("average_rating", &in.AverageRating)
	integer("restaurant_popularity", &in.RestaurantPopularity)
	float("avg_rating_restaurant", &in.AvgRatingRestaurant)
	float("avg_price_restaurant", &in.AvgPriceRestaurant)

	if len(errs) > 0 {
		return in, errs
	}
	return in, form.Validate(in)
}

// fillCategoricalDefaults picks the first dataset value for every empty
// categorical, the way a dropdown preselects its first option.
func (s *Server) fillCategoricalDefaults(in *features.RawInput) {
	fields := []struct {
		column string
		dst    *string
	}{
		{common.ColRestaurantName, &in.RestaurantName},
		{common.ColCuisine, &in.Cuisine},
		{common.ColPlaceName, &in.PlaceName},
		{common.ColCity, &in.City},
		{common.ColItemName, &in.ItemName},
		{common.ColBestSeller, &in.BestSeller},
	}
	for _, f := range fields {
		if *f.dst != "" {
			continue
		}
		if values := s.options.Values(f.column); len(values) > 0 {
			*f.dst = values[0]
		}
	}
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func formatInt(v int) string { return strconv.Itoa(v) }
