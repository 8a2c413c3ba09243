package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hubscout/internal/catalog"
	"github.com/ternarybob/hubscout/internal/common"
	"github.com/ternarybob/hubscout/internal/domainproc"
	"github.com/ternarybob/hubscout/internal/events"
	"github.com/ternarybob/hubscout/internal/facade"
	"github.com/ternarybob/hubscout/internal/fetch"
	"github.com/ternarybob/hubscout/internal/jobs"
	"github.com/ternarybob/hubscout/internal/operations"
	"github.com/ternarybob/hubscout/internal/politeness"
	"github.com/ternarybob/hubscout/internal/predictor"
	"github.com/ternarybob/hubscout/internal/scheduler"
	"github.com/ternarybob/hubscout/internal/sequence"
	"github.com/ternarybob/hubscout/internal/server"
	"github.com/ternarybob/hubscout/internal/storage"
	"github.com/ternarybob/hubscout/internal/validator"
)

var (
	configPath  = flag.String("config", "hubscout.toml", "Configuration file path")
	serverPort  = flag.Int("port", 0, "Server port (overrides config)")
	serverHost  = flag.String("host", "", "Server host (overrides config)")
	showVersion = flag.Bool("version", false, "Print version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("hubscout version %s\n", common.GetVersion())
		os.Exit(0)
	}

	config, err := common.LoadConfig(*configPath)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Err(err).Str("path", *configPath).Msg("failed to load configuration")
		os.Exit(1)
	}
	if *serverPort != 0 {
		config.Server.Port = *serverPort
	}
	if *serverHost != "" {
		config.Server.Host = *serverHost
	}

	logger := common.SetupLogger(config)
	common.InitLogger(logger)
	common.InstallCrashHandler("./logs")
	defer common.RecoverWithCrashFile()

	common.PrintBanner(config, logger)

	bundle, err := storage.Open(logger, config)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage")
	}
	defer bundle.DB.Close()

	telemetry := events.NewBus(bundle.Events, logger)

	recorder := fetch.NewRecorder(bundle.Fetches, nil, logger)
	fetcher := fetch.NewExecutor(logger)
	limiter := politeness.NewLimiter(time.Duration(config.Crawler.RateLimitMs) * time.Millisecond)
	hubValidator := validator.New(validator.DefaultThresholds)
	gazetteer := catalog.Default()

	dspl := predictor.Default()
	processor := domainproc.NewProcessor(domainproc.Deps{
		Candidates:     bundle.Candidates,
		Hubs:           bundle.Hubs,
		Audit:          bundle.Audit,
		Determinations: bundle.Determinations,
		Recorder:       recorder,
		Fetcher:        fetcher,
		Validator:      hubValidator,
		Places:         gazetteer,
		PlaceAnalyzer:  predictor.NewPlaceHubAnalyzer(dspl),
		TopicAnalyzer:  predictor.NewTopicHubAnalyzer(dspl),
		ComboAnalyzer:  predictor.NewCombinationHubAnalyzer(dspl),
		Limiter:        limiter,
		Telemetry:      telemetry,
		Logger:         logger,
	})

	opsReg := operations.NewRegistry(processor)
	loader := sequence.NewLoader()
	runner := sequence.NewRunner(opsReg, telemetry, logger)

	jobReg, err := jobs.NewRegistry(bundle.Jobs, bundle.DB.Conn(), telemetry, logger, config.Crawler.AllowMultiJobs)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start job registry")
	}
	defer jobReg.Close()

	configSnapshot := sequence.NewConfigSnapshotProvider(map[string]any{
		"environment":      config.Environment,
		"concurrency":      config.Crawler.Concurrency,
		"rateLimitMs":      config.Crawler.RateLimitMs,
		"allowMultiJobs":   config.Crawler.AllowMultiJobs,
		"patternsPerPlace": config.Crawler.PatternsPerPlace,
	})
	playbooks := sequence.NewStaticPlaybookProvider(nil)

	svc := facade.New(opsReg, runner, loader, jobReg, playbooks, configSnapshot, config.Sequence.Dir, logger)

	sched := scheduler.New(logger)
	registerScheduledPresets(sched, svc, logger)
	sched.Start()
	defer sched.Stop()

	srv := server.New(svc, telemetry, logger)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler: srv.Handler(),
	}

	common.SafeGo(logger, "http-server", func() {
		logger.Info().
			Str("addr", httpServer.Addr).
			Msg("starting hubscout server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("shutdown signal received")
	common.PrintShutdownBanner(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("hubscout stopped")
}

// registerScheduledPresets wires every compiled-in sequence preset that
// carries a non-empty Schedule into the cron scheduler, running it against
// its own configured StartURL with no caller-supplied overrides.
func registerScheduledPresets(sched *scheduler.Scheduler, svc *facade.Service, logger arbor.ILogger) {
	for name, preset := range sequence.DefaultPresets() {
		if preset.Schedule == "" {
			continue
		}
		presetName := name
		err := sched.Register(presetName, preset.Schedule, func(ctx context.Context) error {
			_, err := svc.RunSequencePreset(ctx, presetName, facade.SequenceRunRequest{})
			return err
		})
		if err != nil {
			logger.Error().Err(err).Str("preset", presetName).Msg("failed to register scheduled preset")
		}
	}
}
