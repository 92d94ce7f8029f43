// Command touch-plot replays a dump or pcap file and renders heatmaps with
// the detected contacts as PNG images.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/banshee-data/touchd/internal/config"
	"github.com/banshee-data/touchd/internal/device"
	"github.com/banshee-data/touchd/internal/monitor"
	"github.com/banshee-data/touchd/internal/touch/pipeline"
)

var (
	configPath = flag.String("config", "", "Tuning config file (.json, .yaml); built-in defaults when empty")
	outDir     = flag.String("out", "plots", "Output directory")
	every      = flag.Int("every", 1, "Render every n-th frame")
	limit      = flag.Int("limit", 0, "Stop after this many images (0 = no limit)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <file.tdmp|file.pcap>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	input := flag.Arg(0)

	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadTuningConfig(*configPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	appConfig, err := cfg.ApplicationConfig()
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	kind := device.KindDump
	switch strings.ToLower(filepath.Ext(input)) {
	case ".pcap", ".pcapng", ".cap":
		kind = device.KindPcap
	}
	src, err := device.Open(device.Options{Kind: kind, Path: input})
	if err != nil {
		log.Fatalf("failed to open %s: %v", input, err)
	}
	defer src.Close()

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("failed to create output dir: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := &plotter{dir: *outDir, every: *every, limit: *limit, stop: stop}
	app, err := pipeline.NewApplication(appConfig, pipeline.WithSinks(p))
	if err != nil {
		log.Fatalf("failed to create pipeline: %v", err)
	}
	rt := &pipeline.Runtime{Source: src, App: app, RetryDelay: -1}
	if err := rt.Run(ctx); err != nil {
		log.Fatalf("replay failed: %v", err)
	}
	log.Printf("wrote %d images to %s", p.written, *outDir)
}

// plotter is a sink writing one PNG per selected frame.
type plotter struct {
	dir     string
	every   int
	limit   int
	stop    func()
	written int
}

func (p *plotter) Consume(out pipeline.Output) error {
	if p.limit > 0 && p.written >= p.limit {
		return nil
	}
	if p.every > 1 && out.Seq%uint64(p.every) != 0 {
		return nil
	}
	if out.Heatmap == nil || out.Heatmap.Empty() {
		return nil
	}

	name := filepath.Join(p.dir, fmt.Sprintf("frame_%06d.png", out.Seq))
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("frame %d: %d contacts, %d stable", out.Seq, len(out.Contacts), out.Contacts.StableCount())
	if err := monitor.RenderHeatmapPNG(f, out.Heatmap, out.Contacts, title); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	p.written++
	if p.limit > 0 && p.written >= p.limit && p.stop != nil {
		p.stop()
	}
	return nil
}
