package main

import (
	"os"

	"github.com/shahadul878/planet-2.0/internal/app"
	config "github.com/shahadul878/planet-2.0/internal/cfg"
	"github.com/shahadul878/planet-2.0/pkg/logger"
)

func main() {
	log := logger.NewSlogLogger()

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	if err := app.Run(cfg, log); err != nil {
		os.Exit(1)
	}
}
