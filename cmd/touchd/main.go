// Command touchd reads a touch panel, turns its heatmaps into stabilized
// contacts and hands them to the monitor, the recorder and the publisher.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"sync"
	"syscall"

	"github.com/banshee-data/touchd/internal/config"
	"github.com/banshee-data/touchd/internal/db"
	"github.com/banshee-data/touchd/internal/device"
	"github.com/banshee-data/touchd/internal/monitor"
	"github.com/banshee-data/touchd/internal/monitoring"
	"github.com/banshee-data/touchd/internal/publish"
	"github.com/banshee-data/touchd/internal/touch/pipeline"
	"github.com/banshee-data/touchd/internal/version"
)

var (
	configPath = flag.String("config", "", "Tuning config file (.json, .yaml); built-in defaults when empty")
	source     = flag.String("source", "", "Device source: hidraw, serial, dump, pcap or synthetic (overrides config)")
	devicePath = flag.String("device", "", "Device or file path (overrides config)")
	listen     = flag.String("listen", ":8090", "HTTP listen address for the monitor")
	grpcListen = flag.String("grpc-listen", ":50051", "gRPC health listen address; empty disables")
	dbPath     = flag.String("db", "", "SQLite database for recording contacts; empty disables")
	recordPath = flag.String("record", "", "Also write raw reports to this dump file")
	debug      = flag.Bool("debug", false, "Log per-cycle detail")
)

func main() {
	flag.Parse()
	monitoring.SetDebug(*debug)
	log.Printf("touchd %s", version.String())

	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	opts, err := cfg.DeviceConfig()
	if err != nil {
		log.Fatalf("invalid device config: %v", err)
	}
	if *source != "" {
		kind, err := device.ParseKind(*source)
		if err != nil {
			log.Fatalf("invalid -source: %v", err)
		}
		opts.Kind = kind
	}
	if *devicePath != "" {
		opts.Path = *devicePath
	}

	appConfig, err := cfg.ApplicationConfig()
	if err != nil {
		log.Fatalf("invalid pipeline config: %v", err)
	}
	stats := &monitoring.Stats{}
	app, err := pipeline.NewApplication(appConfig, pipeline.WithStats(stats))
	if err != nil {
		log.Fatalf("failed to create pipeline: %v", err)
	}

	mon := monitor.New(stats)
	app.AddSink(mon)
	server := monitor.NewServer(*listen, mon)

	if *dbPath != "" {
		database, err := db.NewDB(*dbPath)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()
		if err := database.AttachAdminRoutes(server.Mux()); err != nil {
			log.Fatalf("failed to attach admin routes: %v", err)
		}
		recorder, err := db.NewRecorder(database, string(opts.Kind)+":"+opts.Path)
		if err != nil {
			log.Fatalf("failed to start recording: %v", err)
		}
		defer func() {
			if err := recorder.Close(); err != nil {
				log.Printf("failed to end session: %v", err)
			}
		}()
		app.AddSink(recorder)
	}

	pubConfig, err := cfg.PublisherConfig()
	if err != nil {
		log.Fatalf("invalid publisher config: %v", err)
	}
	publisher, err := publish.NewPublisher(pubConfig)
	if err != nil {
		log.Fatalf("failed to create publisher: %v", err)
	}
	defer publisher.Close()
	if publisher.Enabled() {
		app.AddSink(publisher)
	}

	src, err := device.Open(opts)
	if err != nil {
		log.Fatalf("failed to open %s source %q: %v", opts.Kind, opts.Path, err)
	}
	if *recordPath != "" {
		dump, err := device.CreateDump(*recordPath)
		if err != nil {
			log.Fatalf("failed to create dump: %v", err)
		}
		src = &device.TeeSource{Source: src, Dump: dump}
	}
	defer src.Close()

	var health *monitor.HealthServer
	if *grpcListen != "" {
		health = monitor.NewHealthServer()
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(ctx); err != nil {
			log.Printf("HTTP server error: %v", err)
			stop()
		}
	}()

	if health != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := health.ListenAndServe(ctx, *grpcListen); err != nil {
				log.Printf("gRPC health server error: %v", err)
			}
		}()
	}

	runtime := &pipeline.Runtime{
		Source:        src,
		App:           app,
		RetryDelay:    cfg.GetRetryDelay(),
		MaxRetryDelay: cfg.GetMaxRetryDelay(),
		OnHealth: func(ok bool) {
			mon.SetHealthy(ok)
			if health != nil {
				health.SetServing(ok)
			}
		},
	}

	log.Printf("processing %s source %q", opts.Kind, opts.Path)
	if err := runtime.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("device loop stopped: %v", err)
	}
	snap := stats.Snapshot()
	log.Printf("processed %d reports, %d frames, %d contacts (%d parse errors)",
		snap.Reports, snap.Frames, snap.Contacts, snap.ParseErrors)

	// Finite sources end on their own; keep serving until interrupted.
	<-ctx.Done()
	wg.Wait()
	log.Print("touchd stopped")
}
