package mux

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"github.com/sharapovvezde-lgtm/voice-to-text/internal/capture"
)

// FFmpegEncoder shells out to ffmpeg for both encode steps: raw BGR
// frames piped into an intermediate AVI, then a combine pass that
// muxes the AVI with the track WAVs into an MP4.
type FFmpegEncoder struct {
	// Binary overrides the ffmpeg executable name, for tests.
	Binary string
}

func (e *FFmpegEncoder) binary() string {
	if e.Binary != "" {
		return e.Binary
	}
	return "ffmpeg"
}

type ffmpegVideoWriter struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *bytes.Buffer
}

func (e *FFmpegEncoder) BeginVideo(path string, width, height, fps int) (VideoWriter, error) {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", strconv.Itoa(fps),
		"-i", "-",
		"-c:v", "mpeg4",
		"-q:v", "5",
		path,
	}
	cmd := exec.Command(e.binary(), args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}
	return &ffmpegVideoWriter{cmd: cmd, stdin: stdin, stderr: &stderr}, nil
}

func (w *ffmpegVideoWriter) WriteFrame(f capture.Frame) error {
	_, err := w.stdin.Write(f.Data)
	return err
}

func (w *ffmpegVideoWriter) Close() error {
	_ = w.stdin.Close()
	if err := w.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg video encode failed: %v\n%s", err, w.stderr.String())
	}
	return nil
}

// ExtractAudio pulls the audio of a media file into a mono WAV at the
// given rate, for transcribing recordings made elsewhere.
func (e *FFmpegEncoder) ExtractAudio(src, dst string, rate int) error {
	args := []string{
		"-y",
		"-i", src,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(rate),
		"-c:a", "pcm_s16le",
		dst,
	}
	cmd := exec.Command(e.binary(), args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg audio extract failed: %v\n%s", err, stderr.String())
	}
	return nil
}

func (e *FFmpegEncoder) Combine(videoPath string, audioPaths []string, outPath string, audioBitRate int) error {
	args := []string{"-y", "-i", videoPath}
	for _, p := range audioPaths {
		args = append(args, "-i", p)
	}

	args = append(args, "-c:v", "libx264", "-preset", "veryfast", "-crf", "23")
	switch len(audioPaths) {
	case 0:
		args = append(args, "-an")
	case 1:
		args = append(args, "-c:a", "aac", "-b:a", fmt.Sprintf("%dk", audioBitRate))
	default:
		args = append(args,
			"-filter_complex", fmt.Sprintf("amix=inputs=%d:duration=longest", len(audioPaths)),
			"-c:a", "aac", "-b:a", fmt.Sprintf("%dk", audioBitRate))
	}
	args = append(args, "-shortest", "-movflags", "+faststart", outPath)

	cmd := exec.Command(e.binary(), args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg combine failed: %v\n%s", err, stderr.String())
	}
	return nil
}
