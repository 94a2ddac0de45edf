package capture

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/gordonklaus/portaudio"
	soxr "github.com/zaf/resample"

	"github.com/sharapovvezde-lgtm/voice-to-text/internal/device"
)

// loopbackSource captures rendered system audio through a loopback
// endpoint. The device runs at its native rate and channel count;
// chunks are downmixed to mono and resampled to the session rate.
type loopbackSource struct {
	ref      device.DeviceRef
	outRate  int
	inRate   int
	channels int

	buf         []int16
	stream      *portaudio.Stream
	resampler   *soxr.Resampler
	resBuf      *bytes.Buffer
	initialized bool
}

// NewLoopbackSource captures from the endpoint found by
// device.FindLoopback, converted to mono at outRate.
func NewLoopbackSource(ref device.DeviceRef, outRate int) AudioSource {
	return &loopbackSource{ref: ref, outRate: outRate}
}

func (l *loopbackSource) Start() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init failed: %w", err)
	}
	l.initialized = true

	devices, err := portaudio.Devices()
	if err != nil {
		l.terminate()
		return err
	}
	if l.ref.Index >= len(devices) {
		l.terminate()
		return fmt.Errorf("loopback device index %d out of range", l.ref.Index)
	}
	dev := devices[l.ref.Index]

	l.inRate = int(dev.DefaultSampleRate)
	l.channels = dev.MaxInputChannels
	if l.channels > 2 {
		l.channels = 2
	}

	frames := l.inRate * ChunkMillis / 1000
	l.buf = make([]int16, frames*l.channels)

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: l.channels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      float64(l.inRate),
		FramesPerBuffer: frames,
	}
	l.stream, err = portaudio.OpenStream(params, l.buf)
	if err != nil {
		l.terminate()
		return fmt.Errorf("open loopback stream: %w", err)
	}

	if l.inRate != l.outRate {
		l.resBuf = &bytes.Buffer{}
		l.resampler, err = soxr.New(l.resBuf, float64(l.inRate), float64(l.outRate), 1, soxr.I16, soxr.HighQ)
		if err != nil {
			_ = l.stream.Close()
			l.stream = nil
			l.terminate()
			return fmt.Errorf("create resampler: %w", err)
		}
	}

	if err := l.stream.Start(); err != nil {
		_ = l.stream.Close()
		l.stream = nil
		l.terminate()
		return fmt.Errorf("start loopback stream: %w", err)
	}
	return nil
}

func (l *loopbackSource) Read() ([]int16, error) {
	if err := l.stream.Read(); err != nil {
		return nil, err
	}
	mono := DownmixMono(l.buf, l.channels)
	if l.resampler == nil {
		out := make([]int16, len(mono))
		copy(out, mono)
		return out, nil
	}

	in := make([]byte, len(mono)*2)
	for i, s := range mono {
		binary.LittleEndian.PutUint16(in[i*2:], uint16(s))
	}
	l.resBuf.Reset()
	if _, err := l.resampler.Write(in); err != nil {
		return nil, fmt.Errorf("resampler write: %w", err)
	}
	resampled := l.resBuf.Bytes()
	out := make([]int16, len(resampled)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(resampled[i*2:]))
	}
	return out, nil
}

func (l *loopbackSource) Stop() error {
	if l.resampler != nil {
		_ = l.resampler.Close()
		l.resampler = nil
	}
	if l.stream != nil {
		_ = l.stream.Stop()
		_ = l.stream.Close()
		l.stream = nil
	}
	l.terminate()
	return nil
}

func (l *loopbackSource) Name() string    { return "system" }
func (l *loopbackSource) SampleRate() int { return l.outRate }

func (l *loopbackSource) terminate() {
	if l.initialized {
		portaudio.Terminate()
		l.initialized = false
	}
}
