// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	applog "equalizer/internal/log"
)

// Indirections over the PortAudio library, replaced in tests.
var (
	paLibInitialize     = portaudio.Initialize
	paLibTerminate      = portaudio.Terminate
	paLibHostApis       = portaudio.HostApis
	paLibDefaultHostApi = portaudio.DefaultHostApi
)

var (
	initMu      sync.Mutex
	initialized bool
)

// Initialize sets up the PortAudio subsystem. It must be paired with a
// Terminate call; repeated calls without Terminate are no-ops.
func Initialize() error {
	initMu.Lock()
	defer initMu.Unlock()

	if initialized {
		return nil
	}
	if err := paLibInitialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	initialized = true
	return nil
}

// Terminate shuts the PortAudio subsystem down.
func Terminate() error {
	initMu.Lock()
	defer initMu.Unlock()

	if !initialized {
		return nil
	}
	initialized = false
	if err := paLibTerminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// PortAudioConfig selects the capture device and stream shape. Empty Host
// and Device select the defaults; otherwise names must match exactly.
type PortAudioConfig struct {
	Host            string
	Device          string
	SampleRate      float64 // 0 uses the device default
	FramesPerBuffer int     // 0 lets the driver choose
	LowLatency      bool
}

// PortAudioSource captures mono input from a PortAudio device. Initialize
// must have been called before NewPortAudioSource.
type PortAudioSource struct {
	config     PortAudioConfig
	device     *portaudio.DeviceInfo
	latencyMs  float64
	sampleRate float64
	log        applog.Logger
}

// NewPortAudioSource resolves the configured host and device. It returns
// an error wrapping ErrNoHost or ErrNoDevice when the selection fails.
func NewPortAudioSource(config PortAudioConfig, logger applog.Logger) (*PortAudioSource, error) {
	logger = applog.OrNop(logger)

	hosts, err := paLibHostApis()
	if err != nil {
		return nil, fmt.Errorf("list host APIs: %w", err)
	}

	var defaultHost *portaudio.HostApiInfo
	if config.Host == "" {
		defaultHost, err = paLibDefaultHostApi()
		if err != nil {
			return nil, fmt.Errorf("default host API: %w", err)
		}
	}

	device, err := selectDevice(hosts, defaultHost, config.Host, config.Device)
	if err != nil {
		return nil, err
	}

	sampleRate := config.SampleRate
	if sampleRate <= 0 {
		sampleRate = device.DefaultSampleRate
	}

	latency := device.DefaultHighInputLatency
	if config.LowLatency {
		latency = device.DefaultLowInputLatency
	}

	logger.Infof("PortAudio: using input device %q (%.0f Hz, latency %s)", device.Name, sampleRate, latency)

	return &PortAudioSource{
		config:     config,
		device:     device,
		latencyMs:  latency.Seconds() * 1000,
		sampleRate: sampleRate,
		log:        logger,
	}, nil
}

// selectDevice picks an input device by exact host and device name. An
// empty host means defaultHost; an empty device means that host's default
// input device.
func selectDevice(hosts []*portaudio.HostApiInfo, defaultHost *portaudio.HostApiInfo, hostName, deviceName string) (*portaudio.DeviceInfo, error) {
	host := defaultHost
	if hostName != "" {
		host = nil
		for _, h := range hosts {
			if h != nil && h.Name == hostName {
				host = h
				break
			}
		}
	}
	if host == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoHost, hostName)
	}

	if deviceName == "" {
		if host.DefaultInputDevice == nil || host.DefaultInputDevice.MaxInputChannels <= 0 {
			return nil, fmt.Errorf("%w: host %q has no default input", ErrNoDevice, host.Name)
		}
		return host.DefaultInputDevice, nil
	}

	for _, d := range host.Devices {
		if d != nil && d.Name == deviceName && d.MaxInputChannels > 0 {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %q on host %q", ErrNoDevice, deviceName, host.Name)
}

// Open builds a mono input stream that copies each driver buffer into a
// fresh frame and passes it to handler. The stream is not started.
func (s *PortAudioSource) Open(handler FrameHandler) (Stream, error) {
	latency := s.device.DefaultHighInputLatency
	if s.config.LowLatency {
		latency = s.device.DefaultLowInputLatency
	}

	framesPerBuffer := s.config.FramesPerBuffer
	if framesPerBuffer <= 0 {
		framesPerBuffer = portaudio.FramesPerBufferUnspecified
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: 1,
			Device:   s.device,
			Latency:  latency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: framesPerBuffer,
		SampleRate:      s.sampleRate,
	}

	// The driver reuses in after the callback returns.
	stream, err := portaudio.OpenStream(params, func(in []float32) {
		frame := make([]float32, len(in))
		copy(frame, in)
		handler(frame)
	})
	if err != nil {
		return nil, fmt.Errorf("open input stream on %q: %w", s.device.Name, err)
	}

	s.log.Debugf("PortAudio: stream opened (%d frames per buffer, %.2fms latency)", s.config.FramesPerBuffer, s.latencyMs)
	return stream, nil
}

// SampleRate returns the rate the stream is opened at.
func (s *PortAudioSource) SampleRate() float64 {
	return s.sampleRate
}

// Name returns the selected device name.
func (s *PortAudioSource) Name() string {
	return s.device.Name
}

var _ Source = (*PortAudioSource)(nil)
