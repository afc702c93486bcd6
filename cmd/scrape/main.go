package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"FlightFare/internal/domain/models"
	"FlightFare/internal/services/scraper"
	"FlightFare/internal/usecase"
	"FlightFare/pkg/config"
	xhttp "FlightFare/pkg/http"
	"FlightFare/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "optional config file path")
	origin := flag.String("origin", "DEL", "origin airport code")
	destination := flag.String("destination", "BOM", "destination airport code")
	date := flag.String("date", time.Now().AddDate(0, 0, 7).Format("02/01/2006"), "travel date, DD/MM/YYYY")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		c, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("config load failed: %v", err)
		}
		cfg = c
	}

	l, err := logger.New(&logger.Config{Level: cfg.Logging.Level, Format: "console", Output: "stderr"})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	if _, err := time.Parse("02/01/2006", *date); err != nil {
		log.Fatalf("invalid -date %q: expected DD/MM/YYYY", *date)
	}

	cmp := usecase.NewComparisonService(scraper.NewMMTScraper(cfg.Scraper, l), nil, 0, l)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Scraper.Timeout+5*time.Second)
	defer cancel()
	prices := cmp.Compare(ctx, strings.TrimSpace(*origin), strings.TrimSpace(*destination), *date)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(models.CompareResponse{Prices: prices, Count: len(prices), Status: xhttp.StatusSuccess}); err != nil {
		log.Fatalf("encode: %v", err)
	}
}
