package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"restaurant-intel/internal/storage"
)

func main() {
	var (
		dataPath   = flag.String("data", "./data", "Data directory path")
		limit      = flag.Int("limit", 20, "Number of recent outcomes to print")
		outputPath = flag.String("export", "", "Write outcomes to this CSV file instead of printing")
		days       = flag.Int("days", 30, "Number of days to export (0 for all)")
	)
	flag.Parse()

	fmt.Printf("Inspecting prediction outcomes in: %s\n", *dataPath)

	store, err := storage.New(*dataPath)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	total, err := store.Count()
	if err != nil {
		log.Fatalf("Failed to count outcomes: %v", err)
	}
	fmt.Printf("Stored outcomes: %d\n", total)

	if *outputPath != "" {
		start := time.Unix(0, 0)
		if *days > 0 {
			start = time.Now().AddDate(0, 0, -*days)
		}
		records, err := store.GetPredictions(start, time.Now())
		if err != nil {
			log.Fatalf("Failed to read outcomes: %v", err)
		}
		if err := exportCSV(*outputPath, records); err != nil {
			log.Fatalf("Failed to export outcomes: %v", err)
		}
		fmt.Printf("Exported %d outcomes to %s\n", len(records), *outputPath)
		return
	}

	records, err := store.Recent(*limit)
	if err != nil {
		log.Fatalf("Failed to fetch recent outcomes: %v", err)
	}

	fmt.Println("\nMost recent outcomes:")
	for _, r := range records {
		fmt.Printf("%s  %s  price=%.2f  highly_rated=%v  backend=%s  unknown=[%s]\n",
			r.Timestamp.Format(time.RFC3339), r.ID, r.Price, r.HighlyRated, r.Backend,
			strings.Join(r.UnknownCategories, ","))
	}
}

func exportCSV(path string, records []storage.PredictionRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"timestamp", "id", "price", "highly_rated", "backend", "unknown_categories"}); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Timestamp.Format(time.RFC3339Nano),
			r.ID,
			strconv.FormatFloat(r.Price, 'f', 2, 64),
			strconv.FormatBool(r.HighlyRated),
			r.Backend,
			strings.Join(r.UnknownCategories, ";"),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
