package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Savio629/nregascan/internal/app"
	"github.com/Savio629/nregascan/internal/common"
	"github.com/Savio629/nregascan/internal/models"
	"github.com/Savio629/nregascan/internal/server"
	"github.com/Savio629/nregascan/internal/services/scheduler"
	"github.com/Savio629/nregascan/internal/services/scraper"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths
	serverPort   = flag.Int("port", 0, "Server port (overrides config)")
	serverHost   = flag.String("host", "", "Server host (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	runOnce     = flag.Bool("once", false, "Run the pipeline once and exit")
	runDate     = flag.String("date", "", "Target attendance date DD/MM/YYYY (default: yesterday)")
	runAll      = flag.Bool("all", false, "Process every available date")
	runExclude  = flag.String("exclude", "", "Comma-separated dates to skip with -all")
	oldestFirst = flag.Bool("oldest-first", false, "Process dates oldest-first with -all")
	bulkMode    = flag.Bool("bulk", false, "Insert without duplicate checks (only for never-scraped dates)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("NregaScan version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> files -> env)
	// 2. Apply CLI overrides
	// 3. Initialize logger
	// 4. Print banner
	if len(configFiles) == 0 {
		if _, err := os.Stat("nregascan.toml"); err == nil {
			configFiles = append(configFiles, "nregascan.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, *serverPort, *serverHost)

	logger = common.InitLogger(config)

	common.PrintBanner(common.GetVersion())

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	if *runOnce {
		os.Exit(runPipelineOnce(application))
	}

	serve(application)
}

// runPipelineOnce executes one pipeline run for the flag-selected dates
// and returns the process exit code.
func runPipelineOnce(application *app.App) int {
	ctx, cancel := signalContext()
	defer cancel()

	sel := dateSelectorFromFlags()
	mode := scraper.WriteModeDedup
	if *bulkMode {
		mode = scraper.WriteModeBulk
	}

	report, err := application.RunPipeline(ctx, sel, mode)
	if err != nil {
		logger.Error().Err(err).Msg("Pipeline run failed")
		return 1
	}

	for _, result := range report.Scrape {
		if result.Unavailable {
			// An explicitly requested date that the portal does not list
			// is a hard failure; the default yesterday run just warns,
			// since the portal publishes with a lag.
			if *runDate != "" {
				logger.Error().Str("date", result.Date).Err(scraper.ErrDateUnavailable).Msg("Requested date not available in dropdown")
				return 1
			}
			logger.Warn().Str("date", result.Date).Msg("Date not available in dropdown")
		}
	}

	logger.Info().Str("duration", report.Duration).Msg("Pipeline run complete")
	return 0
}

// serve runs the HTTP trigger server and, when enabled, the daily cron
// schedule, until interrupted.
func serve(application *app.App) {
	srv := server.New(application)

	var sched *scheduler.Service
	if config.Schedule.Enabled {
		sched = scheduler.NewService(func(ctx context.Context) error {
			_, err := application.RunYesterday(ctx)
			return err
		}, logger)
		if err := sched.Start(config.Schedule.Cron); err != nil {
			logger.Fatal().Err(err).Msg("Failed to start scheduler")
			os.Exit(1)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal().Err(err).Msg("Server failed")
			os.Exit(1)
		}
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Server shutdown failed")
	}
}

// dateSelectorFromFlags resolves the -date/-all/-exclude flags into a
// date selector; the default targets yesterday.
func dateSelectorFromFlags() scraper.DateSelector {
	if *runAll {
		var exclude []string
		if *runExclude != "" {
			for _, d := range strings.Split(*runExclude, ",") {
				if d = strings.TrimSpace(d); d != "" {
					exclude = append(exclude, d)
				}
			}
		}
		return scraper.AllDates(exclude, *oldestFirst)
	}

	if *runDate != "" {
		return scraper.ExplicitDate(*runDate)
	}

	return scraper.ExplicitDate(models.YesterdayDate(time.Now()))
}

// signalContext returns a context cancelled on SIGINT/SIGTERM. The
// in-flight block finishes or is abandoned; persisted data stays valid.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
