package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"restaurant-intel/internal/common"
	"restaurant-intel/internal/dataset"
	"restaurant-intel/internal/encoding"
)

var (
	restaurants = []string{"Barbeque Nation", "Domino's Pizza", "Haldiram's", "Paradise", "Saravana Bhavan"}
	cuisines    = []string{"Biryani", "Fast Food", "North Indian", "Pizza", "South Indian"}
	places      = []string{"Banjara Hills", "Connaught Place", "Indiranagar", "Koramangala", "Secunderabad"}
	cities      = []string{"Bangalore", "Delhi", "Hyderabad"}
	items       = []string{"Butter Chicken", "Chicken Biryani", "Masala Dosa", "Paneer Tikka", "Veg Pizza"}
	labels      = []string{"BESTSELLER", "MUST TRY", "NONE", ""}
)

func main() {
	var (
		outDir = flag.String("out", ".", "Output directory")
		rows   = flag.Int("rows", 500, "Number of dataset rows")
		seed   = flag.Int64("seed", 1, "Random seed")
	)
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	csvPath := filepath.Join(*outDir, common.DefaultDatasetPath)
	if err := writeDataset(csvPath, *rows, rng); err != nil {
		log.Fatalf("Failed to write dataset: %v", err)
	}

	// Vocabularies follow LabelEncoder: sorted unique values, code = index.
	opts, err := dataset.Load(csvPath)
	if err != nil {
		log.Fatalf("Failed to read back dataset: %v", err)
	}
	table := opts.All()
	for col, values := range table {
		sort.Strings(values)
		table[col] = values
	}
	if _, err := encoding.New(table); err != nil {
		log.Fatalf("Generated vocabularies are invalid: %v", err)
	}

	encPath := filepath.Join(*outDir, "label_encoders.json")
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal encoders: %v", err)
	}
	if err := os.WriteFile(encPath, data, 0o644); err != nil {
		log.Fatalf("Failed to write encoders: %v", err)
	}

	fmt.Printf("✓ Generated %d rows in %s\n", *rows, csvPath)
	fmt.Printf("✓ Wrote vocabularies to %s\n", encPath)
}

func writeDataset(path string, rows int, rng *rand.Rand) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := []string{
		common.ColRestaurantName, "Dining_Rating", "Delivery_Rating", "Dining_Votes", "Delivery_Votes",
		common.ColCuisine, common.ColPlaceName, common.ColCity, common.ColItemName, common.ColBestSeller,
		"Votes", "Prices",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := 0; i < rows; i++ {
		dining := math.Round((2.5+rng.Float64()*2.5)*10) / 10
		delivery := math.Round((2.5+rng.Float64()*2.5)*10) / 10
		diningVotes := rng.Intn(1000)
		deliveryVotes := rng.Intn(3000)
		price := 50 + rng.Intn(600)

		row := []string{
			pick(rng, restaurants),
			strconv.FormatFloat(dining, 'f', 1, 64),
			strconv.FormatFloat(delivery, 'f', 1, 64),
			strconv.Itoa(diningVotes),
			strconv.Itoa(deliveryVotes),
			pick(rng, cuisines),
			pick(rng, places),
			pick(rng, cities),
			pick(rng, items),
			pick(rng, labels),
			strconv.Itoa(diningVotes + deliveryVotes),
			strconv.Itoa(price),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}
