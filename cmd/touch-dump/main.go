// Command touch-dump records raw reports from a touch device into a dump
// file that touch-check, touch-plot and touchd -source dump can replay.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/touchd/internal/device"
)

var (
	source   = flag.String("source", "hidraw", "Device source: hidraw, serial, pcap or synthetic")
	path     = flag.String("device", "/dev/hidraw0", "Device path")
	output   = flag.String("o", "touch.tdmp", "Output dump file")
	count    = flag.Int("count", 0, "Stop after this many reports (0 = until interrupted)")
	duration = flag.Duration("duration", 0, "Stop after this long (0 = until interrupted)")
	baud     = flag.Int("baud", device.DefaultBaudRate, "Serial baud rate")
)

func main() {
	flag.Parse()

	kind, err := device.ParseKind(*source)
	if err != nil {
		log.Fatalf("invalid -source: %v", err)
	}
	src, err := device.Open(device.Options{
		Kind:     kind,
		Path:     *path,
		Serial:   device.PortOptions{BaudRate: *baud},
		Interval: 16 * time.Millisecond,
	})
	if err != nil {
		log.Fatalf("failed to open %s %q: %v", kind, *path, err)
	}
	defer src.Close()

	dump, err := device.CreateDump(*output)
	if err != nil {
		log.Fatalf("failed to create dump: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	n, err := record(ctx, src, dump, *count)
	if cerr := dump.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		log.Fatalf("recording failed after %d reports: %v", n, err)
	}
	log.Printf("recorded %d reports to %s", n, *output)
}

// record copies reports from src to dump until limit reports were written
// (limit <= 0 means no limit), the source ends or ctx is done.
func record(ctx context.Context, src device.Source, dump *device.DumpWriter, limit int) (int, error) {
	n := 0
	for limit <= 0 || n < limit {
		report, err := src.ReadReport(ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil, errors.Is(err, io.EOF), errors.Is(err, device.ErrClosed):
			return n, nil
		default:
			return n, err
		}
		if err := dump.Write(report); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
