// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/gordonklaus/portaudio"
)

// Device describes one PortAudio device under its host API.
type Device struct {
	Index             int
	Name              string
	HostAPI           string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	LowInputLatency   time.Duration
	HighInputLatency  time.Duration
	IsDefaultInput    bool
	IsDefaultOutput   bool
}

// Host is a host API and the devices it exposes.
type Host struct {
	Name      string
	IsDefault bool
	Devices   []Device
}

// Hosts enumerates every host API and its devices, marking the defaults.
// Hosts are sorted by name; devices keep PortAudio's order.
func Hosts() ([]Host, error) {
	infos, err := paLibHostApis()
	if err != nil {
		return nil, fmt.Errorf("list host APIs: %w", err)
	}

	defaultName := ""
	if def, err := paLibDefaultHostApi(); err == nil && def != nil {
		defaultName = def.Name
	}

	return describeHosts(infos, defaultName), nil
}

func describeHosts(infos []*portaudio.HostApiInfo, defaultName string) []Host {
	hosts := make([]Host, 0, len(infos))
	for _, info := range infos {
		if info == nil {
			continue
		}

		host := Host{
			Name:      info.Name,
			IsDefault: info.Name == defaultName,
			Devices:   make([]Device, 0, len(info.Devices)),
		}
		for _, d := range info.Devices {
			if d == nil {
				continue
			}
			host.Devices = append(host.Devices, Device{
				Index:             d.Index,
				Name:              d.Name,
				HostAPI:           info.Name,
				MaxInputChannels:  d.MaxInputChannels,
				MaxOutputChannels: d.MaxOutputChannels,
				DefaultSampleRate: d.DefaultSampleRate,
				LowInputLatency:   d.DefaultLowInputLatency,
				HighInputLatency:  d.DefaultHighInputLatency,
				IsDefaultInput:    info.DefaultInputDevice != nil && d.Index == info.DefaultInputDevice.Index,
				IsDefaultOutput:   info.DefaultOutputDevice != nil && d.Index == info.DefaultOutputDevice.Index,
			})
		}
		hosts = append(hosts, host)
	}

	sort.SliceStable(hosts, func(i, j int) bool {
		return hosts[i].Name < hosts[j].Name
	})
	return hosts
}

// Kind reports whether the device captures, plays back or both.
func (d Device) Kind() string {
	switch {
	case d.MaxInputChannels > 0 && d.MaxOutputChannels > 0:
		return "Input/Output"
	case d.MaxInputChannels > 0:
		return "Input"
	case d.MaxOutputChannels > 0:
		return "Output"
	default:
		return "Unavailable"
	}
}

// PrintHosts writes a human readable listing of hosts and devices. The
// names printed are the exact strings accepted by --host and --device.
func PrintHosts(w io.Writer, hosts []Host) {
	fmt.Fprintf(w, "\nAvailable Audio Hosts\n\n")

	for _, host := range hosts {
		marker := ""
		if host.IsDefault {
			marker = " [default]"
		}
		fmt.Fprintf(w, "%s%s\n", host.Name, marker)

		if len(host.Devices) == 0 {
			fmt.Fprintf(w, "    (no devices)\n\n")
			continue
		}

		for _, d := range host.Devices {
			flags := ""
			if d.IsDefaultInput {
				flags += " [default input]"
			}
			if d.IsDefaultOutput {
				flags += " [default output]"
			}

			fmt.Fprintf(w, "  [%d] %s (%s)%s\n", d.Index, d.Name, d.Kind(), flags)
			fmt.Fprintf(w, "      Input channels: %d, Output channels: %d\n", d.MaxInputChannels, d.MaxOutputChannels)
			fmt.Fprintf(w, "      Default sample rate: %.0f Hz\n", d.DefaultSampleRate)
			fmt.Fprintf(w, "      Latency: Low=%.2fms, High=%.2fms\n",
				d.LowInputLatency.Seconds()*1000,
				d.HighInputLatency.Seconds()*1000)
		}
		fmt.Fprintln(w)
	}
}
