// SPDX-License-Identifier: MIT
package app

import (
	"context"
	"fmt"
	"time"

	"equalizer/internal/dsp"
	"equalizer/internal/tui"
)

// runHeadless prints one line per render tick that brought new snapshots:
// the time, a sparkline of the bars and the loudest band.
func (a *App) runHeadless(ctx context.Context) error {
	feed := tui.NewFeed(a.eq, a.transports, a.log)
	meter := &tui.Meter{}
	labels := dsp.Labels(a.eq.Bins())

	ticker := time.NewTicker(a.cfg.Display.Tick)
	defer ticker.Stop()

	var (
		levels []float64
		shown  uint64
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			snap, err := feed.Tick()
			if feed.Seq() != shown {
				shown = feed.Seq()
				levels = meter.Levels(snap, levels)
				fmt.Fprintln(a.out, headlessLine(now, tui.Sparkline(levels), snap, labels))
			}
			if err != nil {
				return err
			}
		}
	}
}

func headlessLine(now time.Time, bars string, snap dsp.Snapshot, labels []string) string {
	idx, _ := snap.Peak()
	peak := "-"
	if idx >= 0 && idx < len(labels) {
		peak = labels[idx] + "Hz"
	}
	return fmt.Sprintf("%s |%s| peak %s", now.Format("15:04:05.000"), bars, peak)
}
