package main

import (
	"context"
	"flag"
	"log"
	"os"

	"DemandCast/internal/di"
	"DemandCast/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	trainOnce := flag.Bool("train", false, "run one training pass and exit")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s source=%s", cfg.Environment, cfg.Source.Type)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if *trainOnce {
		if err := app.TrainOnce(context.Background()); err != nil {
			log.Printf("training failed: %v", err)
			os.Exit(1)
		}
		return
	}

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
