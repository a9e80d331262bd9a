// Package main provides the entry point for the contrastive pretraining CLI.
//
// Training is interrupt-safe: SIGINT or SIGTERM cancels the context, the
// trainer stops between batches, and the last checkpoint stays valid.
package main

import (
	"context"
	"errors"
	"flag"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/courtside/internal/config"
	"github.com/yourusername/courtside/internal/contrastive"
	"github.com/yourusername/courtside/internal/database"
	"github.com/yourusername/courtside/internal/datasource"
	"github.com/yourusername/courtside/internal/encoder"
	"github.com/yourusername/courtside/internal/logger"
	"github.com/yourusername/courtside/internal/models"
	"github.com/yourusername/courtside/internal/repository"
)

func main() {
	var (
		configPath   = flag.String("config", "config/config.yaml", "Path to config file")
		numBatches   = flag.Int("batches", 200, "Number of training batches")
		modelVersion = flag.String("model-version", "v1", "Version tag for saved snapshots")
		seed         = flag.Int64("seed", time.Now().UnixNano(), "RNG seed for weight init and sampling")
	)
	flag.Parse()

	bootLog := logrus.New()
	bootLog.SetFormatter(&logrus.JSONFormatter{})

	cfg := loadConfigWithSecrets(*configPath, bootLog)
	log := logger.NewLogger(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}

	source := buildStatsClient(cfg)
	trainer, cache := buildTrainer(cfg, repos, *modelVersion, *seed, log)

	if err := cache.Refresh(ctx); err != nil {
		log.Fatalf("Failed to warm negative-sample cache: %v", err)
	}
	log.WithField("cache_size", cache.Size()).Info("Negative-sample cache warmed")

	batches, err := buildBatches(ctx, repos.Label, source, cfg.Training.BatchSize, *numBatches, log)
	if err != nil {
		log.Fatalf("Failed to assemble training batches: %v", err)
	}
	if len(batches) == 0 {
		log.Fatalf("No training data available; run label ingestion first")
	}

	log.WithFields(logrus.Fields{
		"batches":       len(batches),
		"batch_size":    cfg.Training.BatchSize,
		"model_version": *modelVersion,
	}).Info("Starting contrastive pretraining")

	if err := trainer.Run(ctx, batches); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info("Pretraining interrupted; last checkpoint is intact")
			return
		}
		log.Fatalf("Pretraining failed: %v", err)
	}

	if err := trainer.Finalize(ctx); err != nil {
		log.Fatalf("Failed to finalize encoder: %v", err)
	}
	log.Info("Pretraining completed")
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

func buildStatsClient(cfg *config.Config) *datasource.StatsAPIClient {
	httpCfg := datasource.DefaultHTTPClientConfig()
	httpCfg.Timeout = time.Duration(cfg.StatsAPI.TimeoutSeconds) * time.Second
	httpCfg.MaxRetries = cfg.StatsAPI.RetryAttempts
	httpCfg.RateLimit = cfg.StatsAPI.RequestsPerSecond
	httpCfg.Burst = cfg.StatsAPI.Burst

	srcLog := stdlog.New(os.Stderr, "stats_api ", stdlog.LstdFlags)
	client := datasource.NewRateLimitedHTTPClient(httpCfg, srcLog)
	return datasource.NewStatsAPIClient(client, cfg.StatsAPI.BaseURL, cfg.StatsAPI.APIKey, srcLog)
}

func buildTrainer(cfg *config.Config, repos *repository.Repositories, modelVersion string, seed int64, log *logrus.Logger) (*contrastive.Pretrainer, *contrastive.NegativeSampleCache) {
	enc := encoder.New(models.BoxScoreFeatureDim, seed)
	loss := contrastive.NewInfoNCE(cfg.Training.Temperature, seed)
	cache := contrastive.NewNegativeSampleCache(
		repos.Label,
		time.Duration(cfg.Training.CacheTTLSeconds)*time.Second,
		cfg.Training.CacheMaxSize,
		seed,
		log,
	)

	trainerCfg := contrastive.PretrainerConfig{
		LearningRate: cfg.Training.LearningRate,
		Negatives:    cfg.Training.Negatives,
		WeightMin:    cfg.Training.InfoNCEWeightMin,
		WeightMax:    cfg.Training.InfoNCEWeightMax,
		WarmupSteps:  cfg.Training.InfoNCEWarmupSteps,
		ModelVersion: modelVersion,
	}
	return contrastive.NewPretrainer(enc, loss, cache, repos.Model, trainerCfg, log), cache
}

// buildBatches draws random stored labels and pairs each with the box-score
// feature vector for the same team-game. Labels whose box score cannot be
// fetched are skipped.
func buildBatches(
	ctx context.Context,
	labelRepo repository.LabelRepository,
	source datasource.GameDataSource,
	batchSize int,
	numBatches int,
	log *logrus.Logger,
) ([][]contrastive.TrainingSample, error) {
	batches := make([][]contrastive.TrainingSample, 0, numBatches)
	for i := 0; i < numBatches; i++ {
		if err := ctx.Err(); err != nil {
			return batches, err
		}

		labels, err := labelRepo.GetRandomBatch(ctx, batchSize, uuid.Nil)
		if err != nil {
			return nil, err
		}
		if len(labels) == 0 {
			break
		}

		batch := make([]contrastive.TrainingSample, 0, len(labels))
		for _, label := range labels {
			label := label
			stats, err := source.FetchBoxScore(ctx, label.GameID, label.TeamID)
			if err != nil {
				log.WithError(err).WithFields(logrus.Fields{
					"game_id": label.GameID,
					"team_id": label.TeamID,
				}).Warn("Skipping sample without box score")
				continue
			}
			batch = append(batch, contrastive.TrainingSample{
				GameID:   label.GameID,
				TeamID:   label.TeamID,
				Features: stats.FeatureVector(),
				Label:    &label,
			})
		}
		if len(batch) > 0 {
			batches = append(batches, batch)
		}
	}
	return batches, nil
}
