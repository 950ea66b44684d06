package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/internal/domain/repository"
	"crewsync-service/internal/infrastructure/config"
	"crewsync-service/internal/infrastructure/persistence"
	"crewsync-service/internal/interface/aims"
	repo "crewsync-service/internal/interface/repository"
	"crewsync-service/internal/usecase"
	"crewsync-service/pkg/logger"
	"crewsync-service/pkg/metrics"
	"crewsync-service/pkg/utils"
)

// App holds the wired components shared by the daemon and the operator CLI
type App struct {
	Config   *config.Config
	Logger   logger.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Clock    clockwork.Clock

	DB    *gorm.DB
	Mongo *mongo.Client

	Stores    usecase.Stores
	Jobs      repository.SyncJobRepository
	Reports   repository.QualityReportRepository
	Emails    repository.EmailRepository
	Swaps     repository.SwapRepository
	Snapshots repository.AssignmentSnapshotRepository
	Notifier  repository.Notifier

	AIMS            *aims.Adapter
	Reconciler      *usecase.Reconciler
	Engine          *usecase.ComplianceEngine
	Detector        *usecase.SwapDetector
	Orchestrator    *usecase.SyncOrchestrator
	Ingestor        *usecase.UploadIngestor
	ComplianceQuery *usecase.ComplianceQuery
	SwapQuery       *usecase.SwapQuery
	Quality         *usecase.QualityCheck
}

// New connects the stores and builds every component
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{
		Config:   cfg,
		Logger:   log,
		Registry: prometheus.NewRegistry(),
		Clock:    clockwork.NewRealClock(),
	}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.NewMetrics("crewsync", a.Registry)

	log.Info("Connecting to PostgreSQL")
	db, err := persistence.NewPostgresDB(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate reconciliation store: %w", err)
	}
	a.DB = db

	log.Info("Connecting to MongoDB")
	client, err := persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoUser, cfg.MongoPassword)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	a.Mongo = client
	mdb := persistence.GetDatabase(client, cfg.MongoDB)

	a.Stores = usecase.Stores{
		Crew:       repo.NewGormCrewRepository(db),
		Roster:     repo.NewGormRosterRepository(db),
		Flights:    repo.NewGormFlightRepository(db),
		ModLog:     repo.NewMongoModLogRepository(mdb),
		Reference:  repo.NewGormReferenceRepository(db),
		Compliance: repo.NewGormComplianceRepository(db),
	}
	a.Jobs = repo.NewMongoSyncJobRepository(mdb)
	a.Reports = repo.NewMongoQualityReportRepository(mdb)
	a.Emails = repo.NewMongoEmailRepository(mdb)
	a.Swaps = repo.NewGormSwapRepository(db)
	a.Snapshots = repo.NewGormAssignmentSnapshotRepository(db)
	a.Notifier = repo.NewWebhookNotifier(cfg.AlertWebhookURL, cfg.AlertWebhookToken, log.With("component", "notifier"))

	if err := a.build(); err != nil {
		a.Close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *App) build() error {
	cfg, log := a.Config, a.Logger
	gate := usecase.NewStoreGate()
	thresholds := entity.Thresholds{Warning: cfg.FTLWarningHours, Critical: cfg.FTLCriticalHours}

	keywords, err := usecase.LoadSwapKeywords(cfg.SwapKeywordsFile)
	if err != nil {
		return err
	}

	a.Reconciler = usecase.NewReconciler(a.Stores, gate, a.Metrics, log.With("component", "reconciler"))
	a.Engine = usecase.NewComplianceEngine(a.Stores, gate, a.Notifier, usecase.ComplianceConfig{
		Thresholds:           thresholds,
		MinCrewDensity:       cfg.FTLMinCrewDensity,
		BestDateLookbackDays: cfg.FTLBestDateLookbackDays,
	}, a.Metrics, a.Clock, log.With("component", "compliance"))
	a.Detector = usecase.NewSwapDetector(a.Stores.Flights, a.Stores.ModLog, a.Snapshots, a.Swaps,
		usecase.NewSwapClassifier(keywords), gate,
		usecase.SwapDetectorConfig{DelayThresholdMinutes: cfg.SwapDelayThresholdMinutes},
		a.Metrics, a.Clock, log.With("component", "swaps"))

	var live repository.SourceAdapter
	if cfg.LiveSyncEnabled {
		client := aims.NewClient(aims.ClientConfig{
			Endpoint:  cfg.AIMSEndpoint,
			Namespace: cfg.AIMSNamespace,
			Crew:      aims.Credentials{Username: cfg.AIMSUsername, Password: cfg.AIMSPassword},
			Flights:   aims.Credentials{Username: cfg.AIMSUsernameFlights, Password: cfg.AIMSPasswordFlights},
			Timeout:   cfg.AIMSTimeout,
		}, log.With("component", "aims"))
		a.AIMS = aims.NewAdapter(client, cfg.AIMSMaxConcurrent, a.Clock, log.With("component", "aims"))
		live = a.AIMS
	}

	a.Orchestrator = usecase.NewSyncOrchestrator(live, a.Reconciler, a.Engine, a.Detector, a.Jobs, a.Notifier,
		usecase.OrchestratorConfig{
			LiveEnabled: cfg.LiveSyncEnabled,
			Retry: usecase.RetryPolicy{
				MaxAttempts: cfg.MaxAttempts,
				Initial:     cfg.BackoffInitial,
				Max:         cfg.BackoffMax,
			},
			FailureThreshold: cfg.FailureThreshold,
			ProbeInterval:    cfg.ProbeInterval,
			LookbackDays:     cfg.SyncLookbackDays,
			LookaheadDays:    cfg.SyncLookaheadDays,
		}, a.Metrics, a.Clock, log.With("component", "sync"))

	parser := utils.NewReportParser(a.Stores.Reference, thresholds, log.With("component", "parser"))
	a.Ingestor = usecase.NewUploadIngestor(parser, a.Reconciler, a.Detector, a.Jobs, a.Clock, log.With("component", "ingest"))

	a.ComplianceQuery = usecase.NewComplianceQuery(a.Stores.Compliance, a.Jobs, a.Orchestrator, usecase.ComplianceQueryConfig{
		MinCrewDensity:       cfg.FTLMinCrewDensity,
		BestDateLookbackDays: cfg.FTLBestDateLookbackDays,
		StaleAfter:           cfg.StaleDataThreshold,
		CacheTTL:             cfg.QueryCacheTTL,
	}, a.Clock, log.With("component", "query"))
	a.SwapQuery = usecase.NewSwapQuery(a.Swaps, a.Stores.Flights, cfg.QueryCacheTTL, a.Clock, log.With("component", "query"))
	a.Orchestrator.OnChange(a.ComplianceQuery)
	a.Orchestrator.OnChange(a.SwapQuery)

	a.Quality = usecase.NewQualityCheck(a.Stores.Roster, a.Jobs, a.Reports, a.Reconciler, a.Orchestrator,
		a.Notifier, cfg.StaleDataThreshold, a.Clock, log.With("component", "quality"))
	return nil
}

// Ingest imports one export and drops cached query results when rows were written
func (a *App) Ingest(ctx context.Context, upload entity.Upload) (entity.SyncResult, error) {
	res, err := a.Ingestor.Ingest(ctx, upload)
	if res.Inserted+res.Updated > 0 {
		a.ComplianceQuery.Invalidate()
		a.SwapQuery.Invalidate()
	}
	return res, err
}

// Intervals returns the configured sync cadences
func (a *App) Intervals() usecase.Intervals {
	return usecase.Intervals{
		Crew:      a.Config.CrewSyncInterval,
		Flight:    a.Config.FlightSyncInterval,
		FTL:       a.Config.FTLSyncInterval,
		Reference: a.Config.ReferenceSyncInterval,
		Quality:   a.Config.QualityCheckInterval,
	}
}

// Close releases the pools and connections
func (a *App) Close(ctx context.Context) {
	if a.AIMS != nil {
		a.AIMS.Close()
	}
	if a.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := a.Mongo.Disconnect(ctx); err != nil {
			a.Logger.Error("MongoDB disconnect error", "error", err)
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
