// Package main provides the posterior maintenance CLI: one-shot label
// ingestion, season rollover, and the long-running scheduled service.
package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/courtside/internal/bayes"
	"github.com/yourusername/courtside/internal/config"
	"github.com/yourusername/courtside/internal/contrastive"
	"github.com/yourusername/courtside/internal/database"
	"github.com/yourusername/courtside/internal/datasource"
	"github.com/yourusername/courtside/internal/health"
	"github.com/yourusername/courtside/internal/labels"
	"github.com/yourusername/courtside/internal/logger"
	"github.com/yourusername/courtside/internal/repository"
	"github.com/yourusername/courtside/internal/scheduler"
	"github.com/yourusername/courtside/internal/service"
	"github.com/yourusername/courtside/internal/simulation"
	"github.com/yourusername/courtside/internal/transition"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	ingestDate string
	seasonTag  string

	appLog *logrus.Logger
	cfg    *config.Config
	db     *database.DB
	repos  *repository.Repositories
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	ingestCmd.Flags().StringVar(&ingestDate, "date", "", "Game date (YYYY-MM-DD), defaults to yesterday UTC")
	newSeasonCmd.Flags().StringVar(&seasonTag, "season", "", "New season tag, e.g. 2026-27")
	newSeasonCmd.MarkFlagRequired("season")
	rootCmd.AddCommand(ingestCmd, newSeasonCmd, serveCmd)
}

var rootCmd = &cobra.Command{
	Use:   "update-posteriors",
	Short: "Maintain team strength posteriors",
	Long:  `Computes transition labels from finished games and applies Bayesian posterior updates, either on demand or on a schedule.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := setupDependencies(cmd.Context()); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest one day's final games and update posteriors",
	RunE: func(cmd *cobra.Command, args []string) error {
		date := time.Now().UTC().AddDate(0, 0, -1)
		if ingestDate != "" {
			parsed, err := time.Parse("2006-01-02", ingestDate)
			if err != nil {
				return fmt.Errorf("invalid date %q: %w", ingestDate, err)
			}
			date = parsed
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Hour)
		defer cancel()

		ingestionSvc, _ := buildIngestionService(ctx)
		report, err := ingestionSvc.IngestFinalGames(ctx, date)
		if err != nil {
			return err
		}
		fmt.Printf("Ingestion for %s: %s\n", date.Format("2006-01-02"), report.String())
		return nil
	},
}

var newSeasonCmd = &cobra.Command{
	Use:   "new-season",
	Short: "Regress all posteriors toward the neutral prior for a new season",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
		defer cancel()

		posteriorSvc := buildPosteriorService(ctx)
		n, err := posteriorSvc.StartNewSeason(ctx, seasonTag)
		if err != nil {
			return err
		}
		fmt.Printf("Regressed %d posteriors into season %s\n", n, seasonTag)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduled ingestion service with health endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ingestionSvc, simSvc := buildIngestionService(ctx)

		sched := scheduler.NewScheduler(ingestionSvc, newStdLogger("scheduler"))
		if err := sched.ScheduleLabelIngestion(cfg.Ingestion.LabelSchedule); err != nil {
			return err
		}

		cache := contrastive.NewNegativeSampleCache(
			repos.Label,
			time.Duration(cfg.Training.CacheTTLSeconds)*time.Second,
			cfg.Training.CacheMaxSize,
			time.Now().UnixNano(),
			appLog,
		)
		if err := sched.ScheduleCacheRefresh(cfg.Ingestion.CacheRefreshEvery, cache); err != nil {
			return err
		}

		if err := sched.Start(); err != nil {
			return err
		}

		healthServer := health.NewServer(health.Config{
			ServiceName:  cfg.App.Name,
			Version:      Version,
			Port:         strconv.Itoa(cfg.Metrics.Port),
			Logger:       appLog,
			DB:           db,
			Model:        simSvc,
			ServeMetrics: cfg.Metrics.Enabled,
		})
		if err := healthServer.Start(ctx); err != nil {
			return err
		}
		healthServer.SetReady(true)

		appLog.WithFields(logrus.Fields{
			"next_run": sched.GetNextRun(),
			"port":     cfg.Metrics.Port,
		}).Info("Ingestion service running")

		<-ctx.Done()
		healthServer.SetReady(false)
		if err := sched.Stop(); err != nil {
			appLog.WithError(err).Error("Scheduler shutdown failed")
		}
		return healthServer.Shutdown()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		stdlog.Fatalf("Error: %v", err)
	}
}

func loadConfig() error {
	loaded, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(context.Background(), loaded, region, secretName); err != nil {
			return err
		}
	}
	if err := config.Validate(loaded); err != nil {
		return err
	}
	cfg = loaded
	return nil
}

func setupDependencies(ctx context.Context) error {
	appLog = logger.NewLogger(cfg.App.LogLevel)

	var err error
	db, err = database.Initialize(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	repos, err = repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}
	return nil
}

func newStdLogger(prefix string) *stdlog.Logger {
	return stdlog.New(os.Stderr, prefix+" ", stdlog.LstdFlags)
}

// buildPosteriorService wires the updater behind the newest usable transition
// network, or the baseline predictor when none has been trained yet.
func buildPosteriorService(ctx context.Context) *service.PosteriorService {
	simSvc := buildSimulationService()

	var predictor transition.OutcomePredictor = transition.Baseline{}
	network, err := simSvc.LoadPredictor(ctx)
	if err != nil {
		appLog.WithError(err).Warn("Failed to load transition network, using baseline predictor")
	} else if network != nil {
		predictor = network
	}

	updater := bayes.NewUpdater(predictor, bayes.Config{
		LearningRate:     cfg.Posterior.LearningRate,
		BaseSigma:        cfg.Posterior.BaseSigma,
		ErrorScale:       cfg.Posterior.ErrorScale,
		LikelihoodWeight: cfg.Posterior.LikelihoodWeight,
	}, appLog)

	posteriorSvc := service.NewPosteriorService(repos.Posterior, updater, cfg.Ingestion.Season, appLog)
	posteriorSvc.SetSeasonRegression(cfg.Posterior.MeanShrink, cfg.Posterior.VarianceInflation)
	return posteriorSvc
}

func buildSimulationService() *service.SimulationService {
	simConfig := simulation.Config{
		Iterations:   cfg.Simulation.Iterations,
		Possessions:  cfg.Simulation.Possessions,
		MaxOrebChain: cfg.Simulation.MaxOrebChain,
		KeepScores:   cfg.Simulation.KeepScores,
	}
	return service.NewSimulationService(repos.Posterior, repos.Model, simConfig, appLog)
}

func buildIngestionService(ctx context.Context) (*service.IngestionService, *service.SimulationService) {
	httpCfg := datasource.DefaultHTTPClientConfig()
	httpCfg.Timeout = time.Duration(cfg.StatsAPI.TimeoutSeconds) * time.Second
	httpCfg.MaxRetries = cfg.StatsAPI.RetryAttempts
	httpCfg.RateLimit = cfg.StatsAPI.RequestsPerSecond
	httpCfg.Burst = cfg.StatsAPI.Burst

	srcLog := newStdLogger("stats_api")
	client := datasource.NewRateLimitedHTTPClient(httpCfg, srcLog)
	source := datasource.NewStatsAPIClient(client, cfg.StatsAPI.BaseURL, cfg.StatsAPI.APIKey, srcLog)

	posteriorSvc := buildPosteriorService(ctx)
	simSvc := buildSimulationService()

	ingestionSvc := service.NewIngestionService(
		source,
		repos.Label,
		posteriorSvc,
		labels.NewComputer(appLog),
		newStdLogger("ingestion"),
		cfg.Ingestion.BatchSize,
	)
	return ingestionSvc, simSvc
}
