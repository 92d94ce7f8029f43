package main

import (
	"context"
	"fmt"

	"github.com/banshee-data/touchd/internal/device"
	"github.com/banshee-data/touchd/internal/monitoring"
	"github.com/banshee-data/touchd/internal/touch/pipeline"
)

// Summary describes one replay.
type Summary struct {
	Reports     uint64
	Frames      uint64
	Contacts    uint64
	Stable      uint64
	Untracked   uint64
	Identities  int
	MaxContacts int
	ParseErrors uint64
	Resets      uint64
}

// StableRatio is the share of contacts flagged stable.
func (s Summary) StableRatio() float64 {
	if s.Contacts == 0 {
		return 0
	}
	return float64(s.Stable) / float64(s.Contacts)
}

// check replays src through a pipeline built from config until the source
// is exhausted. Source errors abort the replay.
func check(ctx context.Context, src device.Source, config pipeline.Config) (Summary, error) {
	var (
		sum        Summary
		identities = map[int]struct{}{}
	)
	count := pipeline.SinkFunc(func(out pipeline.Output) error {
		if n := len(out.Contacts); n > sum.MaxContacts {
			sum.MaxContacts = n
		}
		for _, c := range out.Contacts {
			if c.Index == nil {
				sum.Untracked++
				continue
			}
			identities[*c.Index] = struct{}{}
		}
		return nil
	})

	stats := &monitoring.Stats{}
	app, err := pipeline.NewApplication(config, pipeline.WithStats(stats), pipeline.WithSinks(count))
	if err != nil {
		return Summary{}, err
	}
	rt := &pipeline.Runtime{Source: src, App: app, RetryDelay: -1}
	if err := rt.Run(ctx); err != nil {
		return Summary{}, fmt.Errorf("replay failed: %w", err)
	}

	snap := stats.Snapshot()
	sum.Reports = snap.Reports
	sum.Frames = snap.Frames
	sum.Contacts = snap.Contacts
	sum.Stable = snap.StableContacts
	sum.ParseErrors = snap.ParseErrors
	sum.Resets = snap.Resets
	sum.Identities = len(identities)
	return sum, nil
}

// tableData lays out a summary for pterm.
func tableData(name string, s Summary) [][]string {
	return [][]string{
		{"Input", "Reports", "Frames", "Contacts", "Stable", "Stable %", "Identities", "Max/frame", "Untracked", "Parse errors", "Resets"},
		{
			name,
			fmt.Sprintf("%d", s.Reports),
			fmt.Sprintf("%d", s.Frames),
			fmt.Sprintf("%d", s.Contacts),
			fmt.Sprintf("%d", s.Stable),
			fmt.Sprintf("%.1f", 100*s.StableRatio()),
			fmt.Sprintf("%d", s.Identities),
			fmt.Sprintf("%d", s.MaxContacts),
			fmt.Sprintf("%d", s.Untracked),
			fmt.Sprintf("%d", s.ParseErrors),
			fmt.Sprintf("%d", s.Resets),
		},
	}
}
