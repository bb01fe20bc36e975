package features

import (
	"math"

	"restaurant-intel/internal/common"
)

// MetricsTracker receives feature calculation events
type MetricsTracker interface {
	FeatureErrorsInc()
}

func RatingGap(dining, delivery float64) float64 {
	return dining - delivery
}

func Votes(dining, delivery int) int {
	return dining + delivery
}

// ValueScore is rating per unit of price, 0 when the price is not positive.
func ValueScore(avgRating, avgPrice float64) float64 {
	if avgPrice > 0 {
		return avgRating / avgPrice
	}
	return 0
}

// PricePerVote divides by votes+1 so zero votes never divide by zero.
func PricePerVote(avgPrice float64, votes int) float64 {
	return avgPrice / float64(votes+1)
}

func LogPrice(avgPrice float64) float64 {
	return math.Log1p(avgPrice)
}

// IsBestseller is an exact, case-sensitive match on the raw label.
func IsBestseller(label string) int {
	if label == common.BestsellerLabel {
		return 1
	}
	return 0
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
