package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"github.com/mintesinot/fi-forecast/config"
	"github.com/mintesinot/fi-forecast/internal/dataset"
	"github.com/mintesinot/fi-forecast/internal/engine"
	"github.com/mintesinot/fi-forecast/internal/loader"
	"github.com/mintesinot/fi-forecast/internal/metrics"
	"github.com/mintesinot/fi-forecast/internal/scenario"
	"github.com/mintesinot/fi-forecast/internal/server"
	"github.com/mintesinot/fi-forecast/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Config load failed")
	}

	lvl, _ := zerolog.ParseLevel(cfg.LogLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	scenarioCfg := scenario.DefaultConfig()
	if cfg.ScenarioFile != "" {
		scenarioCfg, err = scenario.LoadConfig(cfg.ScenarioFile)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.ScenarioFile).Msg("Scenario config load failed")
		}
	}

	records, err := fetchRecords(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Fetching records failed")
	}

	model, err := dataset.Load(records)
	if err != nil {
		log.Fatal().Err(err).Msg("Dataset rejected")
	}
	metrics.RecordsLoaded.WithLabelValues("observation").Add(float64(len(records.Observations)))
	metrics.RecordsLoaded.WithLabelValues("event").Add(float64(len(records.Events)))
	metrics.RecordsLoaded.WithLabelValues("impact_link").Add(float64(len(records.Links)))
	metrics.RecordsLoaded.WithLabelValues("target").Add(float64(len(records.Targets)))

	srv := server.New(model, engine.New(scenarioCfg), cfg.HorizonMonths)

	handler := handlers.LoggingHandler(os.Stdout, srv.Router())
	handler = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet}),
	)(handler)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Str("addr", cfg.ListenAddr).Msg("Forecast API listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func fetchRecords(cfg *config.Config) (models.RecordSet, error) {
	client := loader.NewClient(time.Duration(cfg.RequestTimeout) * time.Second)
	if cfg.DatasetPath != "" {
		return client.LoadFile(cfg.DatasetPath)
	}
	if cfg.DatasetURL != "" {
		return client.FetchRecords(context.Background(), cfg.DatasetURL)
	}
	return models.RecordSet{}, fmt.Errorf("neither DATASET_PATH nor DATASET_URL is set")
}
