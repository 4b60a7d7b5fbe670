package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/mintesinot/fi-forecast/config"
	"github.com/mintesinot/fi-forecast/internal/database"
	"github.com/mintesinot/fi-forecast/internal/dataset"
	"github.com/mintesinot/fi-forecast/internal/engine"
	"github.com/mintesinot/fi-forecast/internal/loader"
	"github.com/mintesinot/fi-forecast/internal/metrics"
	"github.com/mintesinot/fi-forecast/internal/report"
	"github.com/mintesinot/fi-forecast/internal/scenario"
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
		// Structural errors are fatal: no partial dataset, no forecast.
		log.Fatal().Err(err).Msg("Dataset rejected")
	}
	metrics.RecordsLoaded.WithLabelValues("observation").Add(float64(len(records.Observations)))
	metrics.RecordsLoaded.WithLabelValues("event").Add(float64(len(records.Events)))
	metrics.RecordsLoaded.WithLabelValues("impact_link").Add(float64(len(records.Links)))
	metrics.RecordsLoaded.WithLabelValues("target").Add(float64(len(records.Targets)))

	eng := engine.New(scenarioCfg)
	horizon := engine.MonthlyHorizon(time.Now().UTC(), cfg.HorizonMonths)

	rep, err := report.Build(eng, model, horizon)
	if err != nil {
		log.Fatal().Err(err).Msg("Report build failed")
	}

	printReport(rep)

	if cfg.PersistResults {
		persist(cfg, rep)
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

func printReport(rep *report.Report) {
	codes := make([]string, 0, len(rep.Indicators))
	for code := range rep.Indicators {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	fmt.Printf("===== FORECAST REPORT (%d horizon points) =====\n", len(rep.Horizon))
	for _, code := range codes {
		fc := rep.Indicators[code]
		base := fc.Series[models.ScenarioBase]
		opt := fc.Series[models.ScenarioOptimistic]
		pess := fc.Series[models.ScenarioPessimistic]
		last := len(base.Points) - 1

		fmt.Printf("\n%s (model=%s)\n", code, base.Model)
		fmt.Printf("  end of horizon: base=%.2f [%.2f, %.2f]  optimistic=%.2f  pessimistic=%.2f\n",
			base.Points[last].Value, base.Points[last].Lower, base.Points[last].Upper,
			opt.Points[last].Value, pess.Points[last].Value)
		if base.Points[last].LowConfidence {
			fmt.Printf("  note: extrapolation beyond 2x historical span, low confidence\n")
		}
		for _, gr := range fc.GrowthRates {
			fmt.Printf("  growth %s: %+.2f/yr (%+.1f%%/yr)\n", gr.Period, gr.AnnualGain, gr.PctPerYear)
		}
	}

	if len(rep.Unavailable) > 0 {
		fmt.Printf("\nNo forecast available (insufficient history): %v\n", rep.Unavailable)
	}

	if len(rep.Milestones) > 0 {
		fmt.Printf("\n===== MILESTONES (base scenario) =====\n")
		for _, ms := range rep.Milestones {
			if ms.ReachedAt != nil {
				fmt.Printf("  %s reaches %.1f: %s\n", ms.IndicatorCode, ms.TargetValue, ms.ReachedAt.Format("2006-01-02"))
			} else {
				fmt.Printf("  %s reaches %.1f: not reached within horizon\n", ms.IndicatorCode, ms.TargetValue)
			}
		}
	}
}

func persist(cfg *config.Config, rep *report.Report) {
	db, err := database.New(database.ConnectionParams{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Error().Err(err).Msg("Database connection failed, skipping persistence")
		return
	}
	defer db.Close()

	for code, fc := range rep.Indicators {
		for _, series := range fc.Series {
			runID, err := db.SaveForecast(series)
			if err != nil {
				log.Error().Err(err).Str("indicator", code).Msg("Saving forecast failed")
				continue
			}
			log.Info().Str("indicator", code).Str("scenario", string(series.Scenario)).
				Str("run_id", runID).Msg("Forecast persisted")
		}
	}
	for i := range rep.Milestones {
		if err := db.SaveMilestone(&rep.Milestones[i]); err != nil {
			log.Error().Err(err).Msg("Saving milestone failed")
		}
	}
}
