// Package device enumerates capturable monitors and audio endpoints.
// All functions are pure queries: device lists are read fresh from the
// OS on every call and carry no identity across device changes.
package device

import (
	"strings"

	"github.com/gordonklaus/portaudio"
)

// DeviceRef identifies one audio endpoint at enumeration time.
type DeviceRef struct {
	Index      int     `json:"index"`
	Name       string  `json:"name"`
	Channels   int     `json:"channels"`
	SampleRate float64 `json:"sampleRate"`
	IsDefault  bool    `json:"isDefault"`
}

// MonitorInfo describes a connected display output in virtual-screen
// coordinates.
type MonitorInfo struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Left      int    `json:"left"`
	Top       int    `json:"top"`
	IsPrimary bool   `json:"isPrimary"`
}

// loopbackHints are lowercase substrings marking devices that expose
// rendered audio as an input source.
var loopbackHints = []string{
	"loopback",
	"monitor",
	"stereo mix",
	"what u hear",
	"wave out",
}

func isLoopbackName(name string) bool {
	name = strings.ToLower(name)
	for _, hint := range loopbackHints {
		if strings.Contains(name, hint) {
			return true
		}
	}
	return false
}

// ListMicrophones returns every input-capable audio device.
func ListMicrophones() ([]DeviceRef, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	def, _ := portaudio.DefaultInputDevice()

	var mics []DeviceRef
	for i, d := range devices {
		if d.MaxInputChannels <= 0 {
			continue
		}
		mics = append(mics, DeviceRef{
			Index:      i,
			Name:       d.Name,
			Channels:   d.MaxInputChannels,
			SampleRate: d.DefaultSampleRate,
			IsDefault:  def != nil && d.Name == def.Name,
		})
	}
	return mics, nil
}

// FindLoopback looks for a device that exposes system output as an
// input source. Discovery is best-effort: a missing loopback device is
// an expected outcome, reported as ok=false, never as an error.
func FindLoopback() (DeviceRef, bool) {
	if err := portaudio.Initialize(); err != nil {
		return DeviceRef{}, false
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return DeviceRef{}, false
	}

	for i, d := range devices {
		if d.MaxInputChannels <= 0 {
			continue
		}
		if isLoopbackName(d.Name) {
			return DeviceRef{
				Index:      i,
				Name:       d.Name,
				Channels:   d.MaxInputChannels,
				SampleRate: d.DefaultSampleRate,
			}, true
		}
	}

	// Some hosts expose the default output endpoint with input channels
	// (WASAPI loopback reinterpretation). Not guaranteed to exist.
	if def, err := portaudio.DefaultOutputDevice(); err == nil && def != nil && def.MaxInputChannels > 0 {
		for i, d := range devices {
			if d.Name == def.Name && d.MaxInputChannels > 0 {
				return DeviceRef{
					Index:      i,
					Name:       d.Name,
					Channels:   d.MaxInputChannels,
					SampleRate: d.DefaultSampleRate,
				}, true
			}
		}
	}
	return DeviceRef{}, false
}
