// SPDX-License-Identifier: MIT
/*
Package app assembles the equalizer from a Config and runs it.

Startup builds the source, the optional recorder and the transports, then
the equalizer on top of them. Run connects and starts the stream and drives
the display until the context is done or the user quits. Close releases
everything in reverse order.
*/
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"equalizer/internal/audio"
	"equalizer/internal/config"
	"equalizer/internal/equalizer"
	applog "equalizer/internal/log"
	"equalizer/internal/transport"
	"equalizer/internal/transport/udp"
	"equalizer/internal/tui"
)

// Options overrides where the app writes and logs. Zero values select
// os.Stdout and the global logger.
type Options struct {
	Out    io.Writer
	Logger applog.Logger
}

// App owns every long-lived component.
type App struct {
	cfg      *config.Config
	log      applog.Logger
	out      io.Writer
	headless bool

	portAudio  bool
	source     audio.Source
	recorder   *audio.Recorder
	eq         *equalizer.Equalizer
	transports transport.Fanout
	sender     *udp.UDPSender
	publisher  *udp.UDPPublisher
}

// New builds the app. On error everything created so far is released.
func New(cfg *config.Config, opts Options) (_ *App, err error) {
	if cfg == nil {
		return nil, errors.New("app: config cannot be nil")
	}

	a := &App{
		cfg: cfg,
		log: opts.Logger,
		out: opts.Out,
	}
	if a.log == nil {
		a.log = applog.Default()
	}
	if a.out == nil {
		a.out = os.Stdout
	}
	a.headless = cfg.Display.Headless || !IsTerminal(a.out)

	defer func() {
		if err != nil {
			if cerr := a.Close(); cerr != nil {
				a.log.Warnf("App: cleanup after failed start: %v", cerr)
			}
		}
	}()

	if a.source, err = a.newSource(); err != nil {
		return nil, err
	}

	var tap audio.FrameHandler
	if cfg.Recording.Enabled {
		a.recorder, err = audio.NewRecorder(cfg.Recording.Output, int(a.source.SampleRate()), applog.Component("Recorder"))
		if err != nil {
			return nil, err
		}
		tap = a.recorder.Write
	}

	if err = a.newTransports(); err != nil {
		return nil, err
	}

	a.eq, err = equalizer.New(a.source, equalizer.Options{
		Bins:       cfg.Analysis.Bins,
		Window:     cfg.WindowFunc(),
		QueueDepth: cfg.Analysis.QueueDepth,
		Blocking:   a.blocking(),
		Logger:     a.log,
		Tap:        tap,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) newSource() (audio.Source, error) {
	ac := a.cfg.Audio
	switch ac.Source {
	case config.SourcePortAudio:
		if err := audio.Initialize(); err != nil {
			return nil, err
		}
		a.portAudio = true
		return audio.NewPortAudioSource(audio.PortAudioConfig{
			Host:            ac.Host,
			Device:          ac.Device,
			SampleRate:      ac.SampleRate,
			FramesPerBuffer: ac.FramesPerBuffer,
			LowLatency:      ac.LowLatency,
		}, a.log)

	case config.SourceWav:
		return audio.NewWavSource(audio.WavConfig{
			Path:            ac.InputFile,
			FramesPerBuffer: ac.FramesPerBuffer,
			Loop:            ac.Loop,
			Realtime:        ac.Realtime,
		}, a.log)

	case config.SourceSynthetic:
		return audio.NewSyntheticSource(audio.SyntheticConfig{
			SampleRate:      ac.SampleRate,
			FramesPerBuffer: ac.FramesPerBuffer,
			Realtime:        true,
		}, a.log), nil

	default:
		return nil, fmt.Errorf("app: unknown audio source %q", ac.Source)
	}
}

// blocking reports whether frames wait for the worker instead of being
// dropped. Only an unpaced file replay can afford to wait.
func (a *App) blocking() bool {
	return a.cfg.Audio.Source == config.SourceWav && !a.cfg.Audio.Realtime
}

func (a *App) newTransports() error {
	tc := a.cfg.Transport

	if applog.GetLevel() == applog.LevelDebug {
		a.transports = append(a.transports, transport.NewLoggingTransport(a.log))
	}

	if tc.WebSocketEnabled {
		ws, err := transport.NewWebSocketTransport(tc.WebSocketAddress, a.log)
		if err != nil {
			return err
		}
		a.transports = append(a.transports, ws)
		a.log.Infof("App: serving snapshots on ws://%s%s", ws.Addr(), transport.WebSocketPath)
	}

	if tc.UDPEnabled {
		sender, err := udp.NewUDPSender(tc.UDPTargetAddress, a.log)
		if err != nil {
			return err
		}
		a.sender = sender

		publisher, err := udp.NewUDPPublisher(tc.UDPSendInterval, sender, a.log)
		if err != nil {
			return err
		}
		a.publisher = publisher
		a.transports = append(a.transports, publisher)
	}
	return nil
}

// Headless reports whether Run prints text lines instead of the terminal
// UI.
func (a *App) Headless() bool {
	return a.headless
}

// Run starts the stream and blocks until ctx is done, the user quits or
// the equalizer stops. Close must still be called afterwards.
func (a *App) Run(ctx context.Context) error {
	if err := a.eq.Connect(); err != nil {
		return err
	}
	if err := a.eq.Play(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// The display decides when the run is over.
		defer cancel()
		if a.headless {
			return a.runHeadless(ctx)
		}
		return tui.Run(ctx, a.eq, a.transports, a.cfg.Display.Tick, a.log)
	})

	if a.publisher != nil {
		g.Go(func() error {
			a.publisher.Start()
			<-ctx.Done()
			return a.publisher.Stop()
		})
	}

	err := g.Wait()
	if errors.Is(err, equalizer.ErrWorkerStopped) {
		return nil
	}
	return err
}

// Close stops the equalizer, then the recorder and transports. It is safe
// to call on a partially built App and more than once.
func (a *App) Close() error {
	var errs []error

	if a.eq != nil {
		if err := a.eq.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.recorder != nil {
		if err := a.recorder.Close(); err != nil {
			errs = append(errs, err)
		} else {
			a.log.Infof("App: recording saved to %s (%d frames, %d dropped)",
				a.cfg.Recording.Output, a.recorder.Written(), a.recorder.Dropped())
		}
	}
	if err := a.transports.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.sender != nil {
		if err := a.sender.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.portAudio {
		a.portAudio = false
		if err := audio.Terminate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
