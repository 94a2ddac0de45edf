// Package app wires the capture, transcription and output pieces into
// the long-running tray service and the one-shot transcribe flow.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sharapovvezde-lgtm/voice-to-text/internal/asr"
	"github.com/sharapovvezde-lgtm/voice-to-text/internal/autostart"
	"github.com/sharapovvezde-lgtm/voice-to-text/internal/capture"
	"github.com/sharapovvezde-lgtm/voice-to-text/internal/clipboard"
	"github.com/sharapovvezde-lgtm/voice-to-text/internal/config"
	"github.com/sharapovvezde-lgtm/voice-to-text/internal/device"
	"github.com/sharapovvezde-lgtm/voice-to-text/internal/dictate"
	"github.com/sharapovvezde-lgtm/voice-to-text/internal/hotkey"
	"github.com/sharapovvezde-lgtm/voice-to-text/internal/mux"
	"github.com/sharapovvezde-lgtm/voice-to-text/internal/notify"
	"github.com/sharapovvezde-lgtm/voice-to-text/internal/transcript"
)

// AppName identifies the tool in notifications and the autostart
// registration.
const AppName = "voice-to-text"

// Hotkey ids.
const (
	hotkeyDictate = 1
	hotkeyMeeting = 2
)

// Transcriber is the ASR surface the app depends on.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string) (string, []byte, error)
	TranscribeSegments(ctx context.Context, wavPath string) ([]asr.Segment, error)
}

type meetingState struct {
	job     *mux.Job
	session *capture.Session
}

// App owns the running service: the dictation pipeline, the meeting
// recorder and the hotkeys driving both.
type App struct {
	cfg    config.Config
	logger *zap.Logger
	asr    Transcriber
	enc    *mux.FFmpegEncoder
	muxer  *mux.Muxer

	pipeline *dictate.Pipeline

	mu      sync.Mutex
	meeting *meetingState
	busy    bool
}

// New builds the service from config.
func New(cfg config.Config, logger *zap.Logger) *App {
	enc := &mux.FFmpegEncoder{}
	a := &App{
		cfg:    cfg,
		logger: logger,
		asr:    asr.New(cfg, nil, logger),
		enc:    enc,
	}
	a.muxer = mux.New(cfg.OutputDir, config.TempDir(&cfg), cfg.AudioBitRate, cfg.KeepCache, enc, logger)

	mic := capture.NewMicSource(cfg.MicDevice, cfg.DictateRate)
	a.pipeline = dictate.New(mic, a.asr, clipboard.PasteText, a.notify,
		config.TempDir(&cfg), cfg.KeepCache, logger)
	return a
}

// Run starts the service and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := config.InitOutputDir(&a.cfg); err != nil {
		return err
	}
	config.InitCacheDir(&a.cfg)
	mux.CleanupTemp(config.TempDir(&a.cfg), a.logger)
	a.applyAutostart()

	dictateCombo, err := hotkey.ParseCombo(a.cfg.DictateKey)
	if err != nil {
		return fmt.Errorf("dictate hotkey: %w", err)
	}
	meetingCombo, err := hotkey.ParseCombo(a.cfg.MeetingKey)
	if err != nil {
		return fmt.Errorf("meeting hotkey: %w", err)
	}

	a.pipeline.Start(ctx)

	listener, err := hotkey.Listen(map[int]hotkey.Combo{
		hotkeyDictate: dictateCombo,
		hotkeyMeeting: meetingCombo,
	}, func(ev hotkey.Event) { a.handleHotkey(ctx, ev) }, a.logger)
	if err != nil {
		a.pipeline.Close()
		return fmt.Errorf("install hotkeys: %w", err)
	}

	a.logger.Info("service ready",
		zap.String("dictateKey", a.cfg.DictateKey),
		zap.String("meetingKey", a.cfg.MeetingKey))
	a.notify(AppName, "Ready. Hold "+a.cfg.DictateKey+" to dictate.")

	<-ctx.Done()

	listener.Stop()
	a.stopMeetingIfActive(context.Background())
	a.pipeline.Close()
	return nil
}

func (a *App) handleHotkey(ctx context.Context, ev hotkey.Event) {
	switch ev.ID {
	case hotkeyDictate:
		a.mu.Lock()
		meetingActive := a.meeting != nil
		a.mu.Unlock()
		if meetingActive {
			if ev.Pressed {
				a.logger.Debug("dictation ignored, meeting recording active")
			}
			return
		}
		if ev.Pressed && a.cfg.APIEndpoint == "" {
			a.logger.Warn("dictation ignored, no ASR endpoint configured")
			return
		}
		if ev.Pressed {
			a.pipeline.Press()
		} else {
			a.pipeline.Release()
		}

	case hotkeyMeeting:
		if !ev.Pressed {
			return
		}
		// Finalizing runs encode and upload; detach so the hook thread
		// keeps draining events.
		go a.toggleMeeting(ctx)
	}
}

func (a *App) toggleMeeting(ctx context.Context) {
	a.mu.Lock()
	if a.busy {
		a.mu.Unlock()
		return
	}
	a.busy = true
	active := a.meeting != nil
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.busy = false
		a.mu.Unlock()
	}()

	if active {
		a.stopMeeting(ctx)
	} else {
		a.startMeeting(ctx)
	}
}

func (a *App) startMeeting(ctx context.Context) {
	if a.pipeline.Active() {
		a.logger.Warn("meeting recording refused, dictation in progress")
		a.notify(AppName, "Finish dictating before recording a meeting")
		return
	}

	region, err := primaryRegion()
	if err != nil {
		a.logger.Error("no capture target", zap.Error(err))
		a.notify(AppName, "Meeting recording unavailable")
		return
	}

	video, err := capture.NewScreenSource(region)
	if err != nil {
		a.logger.Error("screen capture unavailable", zap.Error(err))
		a.notify(AppName, "Meeting recording unavailable")
		return
	}

	job, err := a.muxer.Begin(region.Width, region.Height, a.cfg.FPS)
	if err != nil {
		a.logger.Error("start encode failed", zap.Error(err))
		a.notify(AppName, "Meeting recording failed to start")
		return
	}

	audio := []capture.AudioSource{capture.NewMicSource(a.cfg.MicDevice, a.cfg.MeetingRate)}
	if a.cfg.RecordSystem {
		if ref, ok := device.FindLoopback(); ok {
			audio = append(audio, capture.NewLoopbackSource(ref, a.cfg.MeetingRate))
		} else {
			a.logger.Warn("no loopback device found, system audio not recorded")
		}
	}

	session := capture.NewSession(video, job, audio, a.cfg.FPS, a.logger)
	if err := session.Start(ctx); err != nil {
		a.logger.Error("start capture failed", zap.Error(err))
		a.notify(AppName, "Meeting recording failed to start")
		return
	}

	a.mu.Lock()
	a.meeting = &meetingState{job: job, session: session}
	a.mu.Unlock()

	a.logger.Info("meeting recording started", zap.String("base", job.Base))
	a.notify(AppName, "Meeting recording started")
}

func (a *App) stopMeeting(ctx context.Context) {
	a.mu.Lock()
	m := a.meeting
	a.meeting = nil
	a.mu.Unlock()
	if m == nil {
		return
	}

	res, err := m.session.Stop()
	if err != nil {
		a.logger.Error("stop capture failed", zap.Error(err))
		return
	}

	out, err := a.muxer.Finalize(m.job, res.Tracks)
	if err != nil {
		a.logger.Error("finalize recording failed", zap.Error(err))
		a.notify(AppName, "Meeting recording failed")
		return
	}
	if out.Fallback {
		a.notify(AppName, "Recording saved without final encode: "+filepath.Base(out.VideoPath))
	} else {
		a.notify(AppName, "Recording saved: "+filepath.Base(out.VideoPath))
	}
	a.logger.Info("meeting recording saved",
		zap.String("video", out.VideoPath),
		zap.Int("frames", res.Frames),
		zap.Duration("elapsed", res.Elapsed))

	if a.cfg.APIEndpoint == "" {
		a.logger.Info("no ASR endpoint configured, skipping transcript")
		return
	}
	reportPath, err := a.writeTranscript(ctx, out.VideoPath, "", out.AudioPaths)
	if err != nil {
		a.logger.Error("transcript failed", zap.Error(err))
		a.notify(AppName, "Transcript failed")
		return
	}
	a.notify(AppName, "Transcript saved: "+filepath.Base(reportPath))
}

func (a *App) stopMeetingIfActive(ctx context.Context) {
	a.mu.Lock()
	active := a.meeting != nil
	a.mu.Unlock()
	if active {
		a.stopMeeting(ctx)
	}
}

// writeTranscript transcribes each audio channel, merges them into one
// dialogue and saves the report. Single-channel recordings render as
// flowing text, multi-channel ones as speaker-labeled dialogue.
func (a *App) writeTranscript(ctx context.Context, mediaPath, reportPath string, audioPaths []string) (string, error) {
	if reportPath == "" {
		reportPath = transcript.DefaultReportPath(mediaPath)
	}

	var segments []transcript.Segment
	for _, p := range audioPaths {
		speaker := speakerFor(p)
		segs, err := a.asr.TranscribeSegments(ctx, p)
		if err != nil {
			return "", fmt.Errorf("transcribe %s: %w", filepath.Base(p), err)
		}
		for _, s := range segs {
			segments = append(segments, transcript.Segment{
				Start:   s.Start,
				End:     s.End,
				Speaker: speaker,
				Text:    s.Text,
			})
		}
	}

	merged := transcript.Merge(segments)
	var body string
	if len(audioPaths) > 1 {
		body = transcript.RenderDialogue(merged)
	} else {
		body = transcript.RenderMonologue(merged)
	}
	if err := transcript.SaveReport(reportPath, mediaPath, body); err != nil {
		return "", err
	}
	return reportPath, nil
}

// TranscribeMedia produces a transcript for an existing recording.
// Sibling per-channel WAVs are preferred; otherwise the audio track is
// extracted from the media file itself.
func (a *App) TranscribeMedia(ctx context.Context, mediaPath, reportPath string) (string, error) {
	if _, err := os.Stat(mediaPath); err != nil {
		return "", err
	}
	audioPaths, cleanup, err := a.resolveChannels(mediaPath)
	if err != nil {
		return "", err
	}
	defer cleanup()
	return a.writeTranscript(ctx, mediaPath, reportPath, audioPaths)
}

// resolveChannels finds the audio to transcribe for a media file:
// sibling _mic/_sys WAVs from a meeting recording, the file itself if
// it is a WAV, or an extracted temp WAV otherwise.
func (a *App) resolveChannels(mediaPath string) ([]string, func(), error) {
	noop := func() {}
	ext := filepath.Ext(mediaPath)
	base := strings.TrimSuffix(mediaPath, ext)

	var channels []string
	for _, suffix := range []string{"_mic.wav", "_sys.wav"} {
		if p := base + suffix; fileExists(p) {
			channels = append(channels, p)
		}
	}
	if len(channels) > 0 {
		return channels, noop, nil
	}

	if strings.EqualFold(ext, ".wav") {
		return []string{mediaPath}, noop, nil
	}

	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	tmp := filepath.Join(config.TempDir(&a.cfg), mux.TempPrefix+id+".wav")
	if err := a.enc.ExtractAudio(mediaPath, tmp, a.cfg.MeetingRate); err != nil {
		return nil, noop, err
	}
	return []string{tmp}, func() { _ = os.Remove(tmp) }, nil
}

func (a *App) applyAutostart() {
	if a.cfg.Autostart {
		if err := autostart.Enable(AppName, "run"); err != nil {
			a.logger.Warn("enable autostart failed", zap.Error(err))
		}
	} else if autostart.Enabled(AppName) {
		if err := autostart.Disable(AppName); err != nil {
			a.logger.Warn("disable autostart failed", zap.Error(err))
		}
	}
}

func (a *App) notify(title, message string) {
	if a.cfg.Notification {
		notify.Notify(title, message)
	}
}

func speakerFor(audioPath string) string {
	if strings.HasSuffix(audioPath, "_sys.wav") {
		return transcript.SpeakerOther
	}
	return transcript.SpeakerMe
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

func primaryRegion() (capture.Region, error) {
	monitors, err := device.ListMonitors()
	if err != nil {
		return capture.Region{}, err
	}
	if len(monitors) == 0 {
		return capture.Region{}, fmt.Errorf("no monitors found")
	}
	m := monitors[0]
	return capture.Region{Left: m.Left, Top: m.Top, Width: m.Width, Height: m.Height}, nil
}
