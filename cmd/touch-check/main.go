// Command touch-check replays dump or pcap files through the touch pipeline
// and prints a summary per file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/pterm/pterm"

	"github.com/banshee-data/touchd/internal/config"
	"github.com/banshee-data/touchd/internal/device"
)

var (
	configPath = flag.String("config", "", "Tuning config file (.json, .yaml); built-in defaults when empty")
	pcapBus    = flag.Int("bus", 0, "usbmon bus to keep from pcap files (0 = any)")
	pcapDevice = flag.Int("device", 0, "USB device address to keep from pcap files (0 = any)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <file.tdmp|file.pcap>...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadTuningConfig(*configPath); err != nil {
			pterm.Error.Printf("failed to load config: %v\n", err)
			os.Exit(1)
		}
	}
	appConfig, err := cfg.ApplicationConfig()
	if err != nil {
		pterm.Error.Printf("invalid config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	failed := false
	for _, path := range flag.Args() {
		src, err := openInput(path)
		if err != nil {
			pterm.Error.Printf("%s: %v\n", path, err)
			failed = true
			continue
		}
		sum, err := check(ctx, src, appConfig)
		src.Close()
		if err != nil {
			pterm.Error.Printf("%s: %v\n", path, err)
			failed = true
			continue
		}
		pterm.DefaultTable.WithHasHeader().WithData(tableData(filepath.Base(path), sum)).Render()
	}
	if failed {
		os.Exit(1)
	}
}

// openInput picks the source kind from the file extension.
func openInput(path string) (device.Source, error) {
	opts := device.Options{Kind: device.KindDump, Path: path}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pcap", ".pcapng", ".cap":
		opts.Kind = device.KindPcap
		opts.Pcap = device.PcapFilter{Bus: *pcapBus, Device: *pcapDevice}
	}
	return device.Open(opts)
}
