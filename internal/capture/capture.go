// Package capture records screen frames and audio streams for meeting
// recordings. A Session fans out one goroutine per source, streams
// video frames into a sink and buffers audio tracks until Stop.
package capture

import "fmt"

const (
	// MinRegionDim is the smallest accepted capture width or height.
	MinRegionDim = 50

	// ChunkMillis is the audio read granularity in milliseconds.
	ChunkMillis = 100
)

// Region is a capture rectangle in virtual-screen coordinates.
type Region struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r Region) Validate() error {
	if r.Width < MinRegionDim || r.Height < MinRegionDim {
		return fmt.Errorf("capture region %dx%d below minimum %dx%d",
			r.Width, r.Height, MinRegionDim, MinRegionDim)
	}
	return nil
}

// Frame is one captured video frame, tightly packed 24-bit BGR rows.
type Frame struct {
	Data   []byte
	Width  int
	Height int
}

// VideoSource produces frames for a fixed region. Grab blocks until a
// frame is available or the source fails.
type VideoSource interface {
	Start() error
	Grab() (Frame, error)
	Stop() error
}

// FrameSink consumes captured frames as they arrive, typically an
// encoder pipe.
type FrameSink interface {
	WriteFrame(Frame) error
}

// AudioSource produces mono int16 chunks at a fixed sample rate.
// Read blocks for roughly one chunk duration.
type AudioSource interface {
	Start() error
	Read() ([]int16, error)
	Stop() error
	Name() string
	SampleRate() int
}

// DownmixMono averages interleaved channels into one. Accumulation is
// done in int32 and the result clamped so extreme inputs saturate
// instead of wrapping.
func DownmixMono(samples []int16, channels int) []int16 {
	if channels <= 1 {
		return samples
	}
	frames := len(samples) / channels
	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		var sum int32
		for c := 0; c < channels; c++ {
			sum += int32(samples[i*channels+c])
		}
		v := sum / int32(channels)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		out[i] = int16(v)
	}
	return out
}
