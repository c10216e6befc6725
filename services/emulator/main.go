package main

import (
	"flag"

	"github.com/ashendes/restaurant-ordering/internal/config"
	"github.com/ashendes/restaurant-ordering/internal/emulator"
	log "github.com/sirupsen/logrus"
)

func main() {
	configFile := flag.String("config", "", "optional config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}
	config.SetupLogger(cfg.LogLevel)

	server := emulator.NewServer(emulator.Options{APIKey: cfg.PartnerAPIKey})
	router := server.Router()

	log.WithFields(log.Fields{
		"addr":        cfg.EmulatorAddr,
		"api_key_set": cfg.PartnerAPIKey != "",
	}).Info("Partner emulator starting")

	if err := router.Run(cfg.EmulatorAddr); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
