package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/PrOLmOg/MatchMapProject/internal/platform/logging"
)

func main() {
	_ = godotenv.Load()

	logger := logging.NewJSON(logging.LevelInfo).Named("migration")
	defer func() { _ = logger.Sync() }()

	if err := newRootCmd(logger).Execute(); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}
}
