package capture

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// micSource reads mono int16 chunks from a capture device at the
// requested rate, one ChunkMillis chunk per Read.
type micSource struct {
	deviceIndex int
	rate        int
	name        string
	buf         []int16
	stream      *portaudio.Stream
	initialized bool
}

// NewMicSource opens the microphone with the given device index, or
// the default input device when index is negative.
func NewMicSource(deviceIndex, rate int) AudioSource {
	return &micSource{deviceIndex: deviceIndex, rate: rate, name: "mic"}
}

func (m *micSource) Start() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init failed: %w", err)
	}
	m.initialized = true

	m.buf = make([]int16, m.rate*ChunkMillis/1000)

	var err error
	if m.deviceIndex < 0 {
		m.stream, err = portaudio.OpenDefaultStream(1, 0, float64(m.rate), len(m.buf), m.buf)
	} else {
		var devices []*portaudio.DeviceInfo
		devices, err = portaudio.Devices()
		if err == nil {
			if m.deviceIndex >= len(devices) {
				err = fmt.Errorf("mic device index %d out of range", m.deviceIndex)
			} else {
				dev := devices[m.deviceIndex]
				params := portaudio.StreamParameters{
					Input: portaudio.StreamDeviceParameters{
						Device:   dev,
						Channels: 1,
						Latency:  dev.DefaultLowInputLatency,
					},
					SampleRate:      float64(m.rate),
					FramesPerBuffer: len(m.buf),
				}
				m.stream, err = portaudio.OpenStream(params, m.buf)
			}
		}
	}
	if err != nil {
		m.terminate()
		return fmt.Errorf("open mic stream: %w", err)
	}
	if err := m.stream.Start(); err != nil {
		_ = m.stream.Close()
		m.stream = nil
		m.terminate()
		return fmt.Errorf("start mic stream: %w", err)
	}
	return nil
}

func (m *micSource) Read() ([]int16, error) {
	if err := m.stream.Read(); err != nil {
		return nil, err
	}
	out := make([]int16, len(m.buf))
	copy(out, m.buf)
	return out, nil
}

func (m *micSource) Stop() error {
	if m.stream != nil {
		_ = m.stream.Stop()
		_ = m.stream.Close()
		m.stream = nil
	}
	m.terminate()
	return nil
}

func (m *micSource) Name() string    { return m.name }
func (m *micSource) SampleRate() int { return m.rate }

func (m *micSource) terminate() {
	if m.initialized {
		portaudio.Terminate()
		m.initialized = false
	}
}
