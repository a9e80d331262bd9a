// Package main provides the entry point for the matchup simulation CLI.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/courtside/internal/config"
	"github.com/yourusername/courtside/internal/database"
	"github.com/yourusername/courtside/internal/logger"
	"github.com/yourusername/courtside/internal/models"
	"github.com/yourusername/courtside/internal/repository"
	"github.com/yourusername/courtside/internal/service"
	"github.com/yourusername/courtside/internal/simulation"
)

func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "Path to config file")
		homeTeam   = flag.String("home", "", "Home team ID")
		awayTeam   = flag.String("away", "", "Away team ID")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "RNG seed (fixed seed reproduces a run)")
		iterations = flag.Int("iterations", 0, "Override simulation iterations")
		neutral    = flag.Bool("neutral", false, "Neutral-site game")
		postseason = flag.Bool("postseason", false, "Postseason game")
		restDays   = flag.Int("rest-days", 3, "Home team rest days")
		keepScores = flag.Bool("keep-scores", false, "Include per-iteration scores in output")
	)
	flag.Parse()

	log := newLogger()
	ctx := context.Background()

	cfg := loadConfigWithSecrets(*configPath, log)
	log = logger.NewLogger(cfg.App.LogLevel)

	if *homeTeam == "" || *awayTeam == "" {
		log.Fatalf("Both -home and -away team IDs are required")
	}

	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}

	simConfig := buildSimConfig(cfg, *iterations, *keepScores)
	svc := service.NewSimulationService(repos.Posterior, repos.Model, simConfig, log)

	gameCtx := models.GameContext{
		HomeGame:    !*neutral,
		NeutralSite: *neutral,
		Postseason:  *postseason,
		RestDays:    *restDays,
	}

	log.WithFields(logrus.Fields{
		"home": *homeTeam,
		"away": *awayTeam,
		"seed": *seed,
	}).Info("Starting simulation")

	result, err := svc.SimulateMatchup(ctx, *homeTeam, *awayTeam, gameCtx, *seed)
	if err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}

	printResult(log, result)
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	return log
}

func loadConfigWithSecrets(path string, log *logrus.Logger) *config.Config {
	cfg, err := config.LoadWithDefaults(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			log.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(context.Background(), cfg, region, secretName); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

func buildSimConfig(cfg *config.Config, iterationsOverride int, keepScores bool) simulation.Config {
	simConfig := simulation.Config{
		Iterations:   cfg.Simulation.Iterations,
		Possessions:  cfg.Simulation.Possessions,
		MaxOrebChain: cfg.Simulation.MaxOrebChain,
		KeepScores:   cfg.Simulation.KeepScores,
	}
	if iterationsOverride > 0 {
		simConfig.Iterations = iterationsOverride
	}
	if keepScores {
		simConfig.KeepScores = true
	}
	return simConfig
}

func printResult(log *logrus.Logger, result *models.SimulationResult) {
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
	os.Stdout.Write(encoded)
	os.Stdout.Write([]byte("\n"))
}
