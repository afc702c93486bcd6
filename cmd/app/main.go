package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"FlightFare/internal/di"
	"FlightFare/internal/services/predictor"
	"FlightFare/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		var mle *predictor.ModelLoadError
		if errors.As(err, &mle) {
			log.Fatalf("model load failed (%s from %s): %v", mle.Kind, mle.Source, mle.Err)
		}
		log.Fatalf("app initialization failed: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
