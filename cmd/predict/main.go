package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"restaurant-intel/internal/cfg"
	"restaurant-intel/internal/common"
	"restaurant-intel/internal/features"
	"restaurant-intel/internal/form"
	"restaurant-intel/internal/predict"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	defaults := features.DefaultRawInput()
	in := defaults

	flag.StringVar(&in.RestaurantName, "restaurant", "", "Restaurant name")
	flag.StringVar(&in.Cuisine, "cuisine", "", "Cuisine")
	flag.StringVar(&in.PlaceName, "place", "", "Place name")
	flag.StringVar(&in.City, "city", "", "City")
	flag.StringVar(&in.ItemName, "item", "", "Item name")
	flag.StringVar(&in.BestSeller, "best-seller", "", "Best seller label, e.g. BESTSELLER")
	flag.Float64Var(&in.DiningRating, "dining-rating", defaults.DiningRating, "Dining rating (0-5)")
	flag.Float64Var(&in.DeliveryRating, "delivery-rating", defaults.DeliveryRating, "Delivery rating (0-5)")
	flag.IntVar(&in.DiningVotes, "dining-votes", defaults.DiningVotes, "Dining votes")
	flag.IntVar(&in.DeliveryVotes, "delivery-votes", defaults.DeliveryVotes, "Delivery votes")
	flag.IntVar(&in.TotalVotes, "total-votes", defaults.TotalVotes, "Total votes")
	flag.Float64Var(&in.AverageRating, "average-rating", defaults.AverageRating, "Average rating (0-5)")
	flag.IntVar(&in.RestaurantPopularity, "popularity", defaults.RestaurantPopularity, "Restaurant popularity score")
	flag.Float64Var(&in.AvgRatingRestaurant, "avg-rating-restaurant", defaults.AvgRatingRestaurant, "Average rating for restaurant (0-5)")
	flag.Float64Var(&in.AvgPriceRestaurant, "avg-price-restaurant", defaults.AvgPriceRestaurant, "Average price for restaurant")

	var (
		featuresOnly = flag.Bool("features-only", false, "Print the feature record and skip the models")
		jsonOutput   = flag.Bool("json", false, "Print JSON instead of text")
		logLevel     = flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if os.Getenv(common.EnvAppEnv) != "production" {
		_ = godotenv.Load()
	}

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	if err := form.Validate(in); err != nil {
		log.Fatal().Err(err).Msg("Invalid input")
	}

	ctx := context.Background()
	enc, err := predict.LoadEncoders(ctx, c)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load label encoders")
	}

	if *featuresOnly {
		svc := predict.NewService(enc, nil, nil, nil, nil, c.InferenceBackend)
		printRecord(svc.Build(in), svc.UnknownCategories(in), *jsonOutput)
		return
	}

	price, rating, err := predict.NewPredictors(ctx, c, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load models")
	}

	svc := predict.NewService(enc, price, rating, nil, nil, c.InferenceBackend)
	result, err := svc.Predict(ctx, in)
	if err != nil {
		log.Fatal().Err(err).Msg("Prediction failed")
	}

	if *jsonOutput {
		writeJSON(map[string]interface{}{
			"price":              result.Price,
			"price_label":        result.PriceLabel(c.Currency),
			"highly_rated":       result.HighlyRated,
			"rating_label":       result.RatingLabel(),
			"unknown_categories": result.UnknownCategories,
		})
		return
	}

	fmt.Printf("Predicted Price: %s\n", result.PriceLabel(c.Currency))
	fmt.Printf("Highly Rated: %s\n", result.RatingLabel())
	if len(result.UnknownCategories) > 0 {
		fmt.Printf("Not seen in training, encoded as 0: %s\n", strings.Join(result.UnknownCategories, ", "))
	}
}

func printRecord(rec features.Record, unknown []string, asJSON bool) {
	if asJSON {
		writeJSON(map[string]interface{}{
			"record":             rec,
			"unknown_categories": unknown,
		})
		return
	}
	values := rec.Values()
	for i, col := range features.Columns() {
		fmt.Printf("%-22s %v\n", col, values[i])
	}
	if len(unknown) > 0 {
		fmt.Printf("\nNot seen in training, encoded as 0: %s\n", strings.Join(unknown, ", "))
	}
}

func writeJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode output")
	}
}
