package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/banshee-data/lidar-active-learning/internal/api"
	"github.com/banshee-data/lidar-active-learning/internal/config"
	"github.com/banshee-data/lidar-active-learning/internal/db"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/health"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/monitor"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/session"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/storage/sqlite"
	"github.com/banshee-data/lidar-active-learning/internal/timeutil"
	"github.com/banshee-data/lidar-active-learning/internal/version"
)

var (
	configPath = flag.String("config", config.DefaultConfigPath, "Session config JSON file")
	listen     = flag.String("listen", ":8080", "HTTP listen address")
	dbPath     = flag.String("db", "al_audit.db", "Audit log SQLite path (empty disables the audit log)")
	grpcListen = flag.String("grpc-listen", "localhost:50051", "gRPC health listen address (empty disables)")
	seed       = flag.Int64("seed", 0, "Override the catalog seed (0 uses the config)")
	autostart  = flag.Bool("autostart", false, "Start ticking immediately")
	devMode    = flag.Bool("dev", false, "Run in dev mode (request logging, no audit log)")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: alserver [flags] [command]

Commands:
  serve             Run the session server (default)
  migrate <action>  Manage the audit log schema (up, down, status, force)
  version           Print version information

Flags:
`)
	flag.PrintDefaults()
}

// loadConfig reads the session config. A missing file at the default path
// falls back to built-in defaults; a missing file named explicitly is an
// error.
func loadConfig(path string, explicit bool) (*config.SessionConfig, error) {
	cfg, err := config.LoadSessionConfig(path)
	switch {
	case err == nil:
	case !explicit && errors.Is(err, os.ErrNotExist):
		log.Printf("config %s not found, using defaults", path)
		cfg = config.DefaultSessionConfig()
	default:
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func main() {
	flag.Usage = usage
	flag.Parse()

	switch cmd := flag.Arg(0); cmd {
	case "", "serve":
	case "migrate":
		if err := db.RunMigrateCommand(flag.Args()[1:], *dbPath, os.Stdout); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	case "version":
		fmt.Printf("alserver %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	default:
		usage()
		os.Exit(2)
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg, err := loadConfig(*configPath, flagSet("config"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *seed != 0 {
		cfg.Seed = seed
	}

	opts, catalogSeed := session.OptionsFromConfig(cfg)
	runner, err := session.NewRunner(opts)
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}
	log.Printf("session ready: %d frames, seed=%d, budget=%d, threshold=%.2f",
		runner.Catalog().Len(), catalogSeed, cfg.GetLabelingBudget(), cfg.GetUncertaintyThreshold())

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Audit log: one run per session lifetime, fed from a subscription.
	var runs api.RunLog
	var currentRun func() string
	if *dbPath != "" && !*devMode {
		database, err := db.NewDB(*dbPath)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()

		store := sqlite.NewRunStore(database.DB)
		recorder := sqlite.NewRecorder(store, timeutil.RealClock{}, sqlite.RunInfo{
			Seed:           catalogSeed,
			CatalogSize:    runner.Catalog().Len(),
			LabelingBudget: cfg.GetLabelingBudget(),
		})
		if err := recorder.Begin(cfg.GetUncertaintyThreshold()); err != nil {
			log.Fatalf("Failed to open run: %v", err)
		}
		runs, currentRun = store, recorder.RunID

		id, events := runner.Subscribe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer runner.Unsubscribe(id)
			if err := recorder.Run(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("audit log routine error: %v", err)
			}
			log.Print("audit log routine terminated")
		}()
	}

	// Session tick loop
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("session routine error: %v", err)
		}
		log.Print("session routine terminated")
	}()
	if *autostart {
		runner.Start()
	}

	// gRPC health
	if *grpcListen != "" {
		hcfg := health.DefaultConfig()
		hcfg.ListenAddr = *grpcListen
		publisher := health.NewPublisher(hcfg)
		if err := publisher.Start(); err != nil {
			log.Fatalf("Failed to start gRPC health server: %v", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			publisher.Track(ctx, runner, timeutil.RealClock{})
			publisher.Stop()
		}()
	}

	// HTTP server
	wsCfg := monitor.WebServerConfig{
		Address: *listen,
		Runner:  runner,
		API:     api.NewServer(runner, runs, currentRun),
	}
	if *devMode {
		wsCfg.Middleware = api.LoggingMiddleware
	}
	ws := monitor.NewWebServer(wsCfg)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := ws.Start(ctx); err != nil {
			log.Printf("HTTP server error: %v", err)
			stop()
		}
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
