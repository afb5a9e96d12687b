// SPDX-License-Identifier: MIT
package app

import (
	"bytes"
	"context"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"equalizer/internal/audio"
	"equalizer/internal/config"
	"equalizer/internal/dsp"
	applog "equalizer/internal/log"
	"equalizer/internal/transport/udp"
	"equalizer/pkg/utils"
)

func syntheticConfig() *config.Config {
	cfg := config.Default()
	cfg.Audio.Source = config.SourceSynthetic
	cfg.Display.Tick = config.MinTick
	cfg.Display.Headless = true
	return &cfg
}

func runFor(t *testing.T, a *App, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(d + 2*time.Second):
		t.Fatal("Run() did not return after the context expired")
	}
}

func TestNewRejectsNilConfig(t *testing.T) {
	if _, err := New(nil, Options{}); err == nil {
		t.Fatal("New(nil) succeeded")
	}
}

func TestNewMissingWavFile(t *testing.T) {
	cfg := config.Default()
	cfg.Audio.Source = config.SourceWav
	cfg.Audio.InputFile = filepath.Join(t.TempDir(), "missing.wav")

	if _, err := New(&cfg, Options{Out: &bytes.Buffer{}, Logger: applog.Nop()}); err == nil {
		t.Fatal("New() with a missing WAV file succeeded")
	}
}

func TestNewUnknownSource(t *testing.T) {
	cfg := config.Default()
	cfg.Audio.Source = "tape"

	if _, err := New(&cfg, Options{Out: &bytes.Buffer{}, Logger: applog.Nop()}); err == nil {
		t.Fatal("New() with an unknown source succeeded")
	}
}

func TestRunHeadlessSynthetic(t *testing.T) {
	var out bytes.Buffer
	a, err := New(syntheticConfig(), Options{Out: &out, Logger: applog.Nop()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !a.Headless() {
		t.Error("Headless() = false for a non-terminal writer")
	}

	runFor(t, a, 600*time.Millisecond)
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) == 0 || lines[0] == "" {
		t.Fatal("headless run printed nothing")
	}
	for _, line := range lines {
		if !strings.Contains(line, "|") || !strings.Contains(line, "peak") {
			t.Errorf("unexpected headless line %q", line)
		}
	}
	if stats := a.eq.Stats(); stats.Published == 0 {
		t.Errorf("Stats() = %+v, nothing was published", stats)
	}
}

func TestRunPublishesAndRecords(t *testing.T) {
	listener, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen udp: %v", err)
	}
	defer listener.Close()

	cfg := syntheticConfig()
	cfg.Transport.UDPEnabled = true
	cfg.Transport.UDPTargetAddress = listener.LocalAddr().String()
	cfg.Transport.UDPSendInterval = 20 * time.Millisecond
	cfg.Transport.WebSocketEnabled = true
	cfg.Transport.WebSocketAddress = "127.0.0.1:0"
	cfg.Recording.Enabled = true
	cfg.Recording.Output = filepath.Join(t.TempDir(), "capture.wav")

	a, err := New(cfg, Options{Out: &bytes.Buffer{}, Logger: applog.Nop()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	runFor(t, a, 600*time.Millisecond)
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	buf := make([]byte, 1024)
	listener.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := listener.ReadFrom(buf)
	if err != nil {
		t.Fatalf("no UDP packet received: %v", err)
	}
	pkt, err := udp.ParsePacket(buf[:n])
	if err != nil {
		t.Fatalf("ParsePacket() error = %v", err)
	}
	if len(pkt.Bins) != dsp.DefaultBins {
		t.Errorf("packet has %d bins, want %d", len(pkt.Bins), dsp.DefaultBins)
	}

	src, err := audio.NewWavSource(audio.WavConfig{Path: cfg.Recording.Output}, nil)
	if err != nil {
		t.Fatalf("recording is not a readable WAV: %v", err)
	}
	if src.SampleRate() != cfg.Audio.SampleRate {
		t.Errorf("recording sample rate = %v, want %v", src.SampleRate(), cfg.Audio.SampleRate)
	}
}

func TestRunWavReplayWithoutPacingKeepsEveryFrame(t *testing.T) {
	const frames = 20
	path := filepath.Join(t.TempDir(), "tone.wav")
	rec, err := audio.NewRecorder(path, 44100, nil)
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}
	for range frames {
		rec.Write(utils.GenerateSineWave(1024, 44100, 440, 0.5))
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("recorder Close() error = %v", err)
	}
	if rec.Written() != frames*1024 {
		t.Fatalf("recorder wrote %d samples, want %d", rec.Written(), frames*1024)
	}

	cfg := syntheticConfig()
	cfg.Audio.Source = config.SourceWav
	cfg.Audio.InputFile = path
	cfg.Audio.Loop = false
	cfg.Audio.Realtime = false

	a, err := New(cfg, Options{Out: &bytes.Buffer{}, Logger: applog.Nop()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !a.blocking() {
		t.Fatal("unpaced WAV replay should wait for the worker")
	}
	runFor(t, a, 600*time.Millisecond)
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	stats := a.eq.Stats()
	if stats.Dropped != 0 {
		t.Errorf("Dropped = %d, want 0", stats.Dropped)
	}
	if stats.Accepted != frames || stats.Published != frames {
		t.Errorf("Stats() = %+v, want %d accepted and published", stats, frames)
	}
}

func TestBlockingOnlyForUnpacedWav(t *testing.T) {
	tests := []struct {
		source   string
		realtime bool
		want     bool
	}{
		{config.SourceWav, false, true},
		{config.SourceWav, true, false},
		{config.SourceSynthetic, false, false},
		{config.SourcePortAudio, false, false},
	}
	for _, tt := range tests {
		cfg := config.Default()
		cfg.Audio.Source = tt.source
		cfg.Audio.Realtime = tt.realtime
		a := &App{cfg: &cfg}
		if got := a.blocking(); got != tt.want {
			t.Errorf("blocking() for %s realtime=%v = %v, want %v", tt.source, tt.realtime, got, tt.want)
		}
	}
}

func TestHeadlessLine(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 4, 5, 6e6, time.UTC)

	tests := []struct {
		name string
		snap dsp.Snapshot
		want string
	}{
		{"peak", dsp.Snapshot{1, 9, 3}, "15:04:05.006 |▁█▂| peak 25Hz"},
		{"empty", nil, "15:04:05.006 |▁█▂| peak -"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := headlessLine(now, "▁█▂", tt.snap, dsp.Labels(3))
			if got != tt.want {
				t.Errorf("headlessLine() = %q, want %q", got, tt.want)
			}
		})
	}
}
