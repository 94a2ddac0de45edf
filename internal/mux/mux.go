// Package mux turns a finished capture into deliverable media files:
// per-track WAVs plus an MP4 combining video and audio. When the final
// encode fails the raw temp video is kept as an AVI next to the WAVs
// so no capture is ever lost.
package mux

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sharapovvezde-lgtm/voice-to-text/internal/capture"
)

// TempPrefix marks intermediate files eligible for startup cleanup.
const TempPrefix = "RecordTemp_"

// VideoWriter receives raw frames and finalizes the intermediate
// video file on Close.
type VideoWriter interface {
	capture.FrameSink
	Close() error
}

// Encoder abstracts the external encode steps so the fallback path
// can be exercised without ffmpeg installed.
type Encoder interface {
	BeginVideo(path string, width, height, fps int) (VideoWriter, error)
	Combine(videoPath string, audioPaths []string, outPath string, audioBitRate int) error
}

// Outputs lists the files a finalized meeting produced.
type Outputs struct {
	VideoPath  string
	AudioPaths []string
	Fallback   bool
}

// Job is one in-flight meeting recording.
type Job struct {
	Base     string
	tempPath string
	writer   VideoWriter
	frames   atomic.Int64
}

func (j *Job) WriteFrame(f capture.Frame) error {
	if err := j.writer.WriteFrame(f); err != nil {
		return err
	}
	j.frames.Add(1)
	return nil
}

// Muxer owns output naming and the encode pipeline for meeting
// recordings.
type Muxer struct {
	outputDir    string
	cacheDir     string
	audioBitRate int
	keepCache    bool
	enc          Encoder
	logger       *zap.Logger
}

func New(outputDir, cacheDir string, audioBitRate int, keepCache bool, enc Encoder, logger *zap.Logger) *Muxer {
	return &Muxer{
		outputDir:    outputDir,
		cacheDir:     cacheDir,
		audioBitRate: audioBitRate,
		keepCache:    keepCache,
		enc:          enc,
		logger:       logger,
	}
}

// Begin opens the intermediate video file for a new recording. The
// base name pins the wall-clock start of the meeting.
func (m *Muxer) Begin(width, height, fps int) (*Job, error) {
	base := "Meeting_" + time.Now().Format("20060102_150405")
	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	tempPath := filepath.Join(m.cacheDir, fmt.Sprintf("%s%s.avi", TempPrefix, id))

	w, err := m.enc.BeginVideo(tempPath, width, height, fps)
	if err != nil {
		return nil, fmt.Errorf("begin video encode: %w", err)
	}
	return &Job{Base: base, tempPath: tempPath, writer: w}, nil
}

// Finalize closes the video, writes one WAV per track and combines
// everything into an MP4. If the combine step fails the temp video is
// renamed to <base>.avi and kept together with the WAVs. A job that
// captured no frames produces nothing.
func (m *Muxer) Finalize(job *Job, tracks []capture.Track) (Outputs, error) {
	if err := job.writer.Close(); err != nil {
		return Outputs{}, fmt.Errorf("close video encode: %w", err)
	}
	if job.frames.Load() == 0 {
		_ = os.Remove(job.tempPath)
		return Outputs{}, fmt.Errorf("no frames captured")
	}

	var out Outputs
	for _, t := range tracks {
		path := filepath.Join(m.outputDir, job.Base+trackSuffix(t.Name)+".wav")
		if err := WriteWav(path, t.Samples, t.Rate); err != nil {
			return Outputs{}, fmt.Errorf("write %s: %w", path, err)
		}
		out.AudioPaths = append(out.AudioPaths, path)
	}

	finalPath := filepath.Join(m.outputDir, job.Base+".mp4")
	if err := m.enc.Combine(job.tempPath, out.AudioPaths, finalPath, m.audioBitRate); err != nil {
		m.logger.Warn("combine failed, keeping raw video", zap.Error(err))
		fallbackPath := filepath.Join(m.outputDir, job.Base+".avi")
		if renameErr := os.Rename(job.tempPath, fallbackPath); renameErr != nil {
			return Outputs{}, fmt.Errorf("combine failed (%v) and fallback rename failed: %w", err, renameErr)
		}
		out.VideoPath = fallbackPath
		out.Fallback = true
		return out, nil
	}

	if !m.keepCache {
		_ = os.Remove(job.tempPath)
	}
	out.VideoPath = finalPath
	return out, nil
}

func trackSuffix(name string) string {
	switch name {
	case "mic":
		return "_mic"
	case "system":
		return "_sys"
	}
	return "_" + name
}

// WriteWav writes mono 16-bit samples as a WAV file, removing the
// partial file on error.
func WriteWav(path string, samples []int16, rate int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(file, rate, 16, 1, 1)

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		_ = file.Close()
		_ = os.Remove(path)
		return err
	}
	if err := enc.Close(); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return err
	}
	return file.Close()
}

// CleanupTemp removes leftover intermediate files from earlier runs.
func CleanupTemp(dir string, logger *zap.Logger) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), TempPrefix) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.Remove(path); err != nil {
			logger.Warn("failed to remove stale temp file", zap.String("path", path), zap.Error(err))
		} else {
			logger.Debug("removed stale temp file", zap.String("path", path))
		}
	}
}
