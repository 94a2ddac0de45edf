// Package dictate implements push-to-talk dictation: microphone audio
// is buffered while the hotkey is held, then transcribed and pasted
// into the focused window.
package dictate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sharapovvezde-lgtm/voice-to-text/internal/capture"
	"github.com/sharapovvezde-lgtm/voice-to-text/internal/mux"
)

const (
	// MinDuration filters out accidental hotkey taps.
	MinDuration = 400 * time.Millisecond

	// maxBuffer caps how much held audio is retained. When exceeded the
	// oldest samples are dropped so a stuck key cannot exhaust memory.
	maxBuffer = 5 * time.Minute
)

// Engine turns a recorded WAV into text.
type Engine interface {
	Transcribe(ctx context.Context, wavPath string) (string, []byte, error)
}

type command int

const (
	cmdPress command = iota
	cmdRelease
	cmdClose
)

// Pipeline runs the dictation loop. Press and Release are called from
// the hotkey listener; all capture state lives in the control
// goroutine, so both are non-blocking and safe from any goroutine.
type Pipeline struct {
	source    capture.AudioSource
	engine    Engine
	paste     func(string) error
	notify    func(title, message string)
	cacheDir   string
	keepCache  bool
	maxSamples int
	logger     *zap.Logger

	cmds      chan command
	once      sync.Once
	stopped   chan struct{}
	jobs      sync.WaitGroup
	capturing atomic.Bool
}

func New(source capture.AudioSource, engine Engine, paste func(string) error, notify func(title, message string), cacheDir string, keepCache bool, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		source:     source,
		engine:     engine,
		paste:      paste,
		notify:     notify,
		cacheDir:   cacheDir,
		keepCache:  keepCache,
		maxSamples: source.SampleRate() * int(maxBuffer/time.Second),
		logger:     logger,
		cmds:       make(chan command, 8),
		stopped:    make(chan struct{}),
	}
}

// Start launches the control goroutine.
func (p *Pipeline) Start(ctx context.Context) {
	go p.loop(ctx)
}

// Press begins buffering microphone audio.
func (p *Pipeline) Press() { p.send(cmdPress) }

// Release stops buffering and hands the clip to the engine.
func (p *Pipeline) Release() { p.send(cmdRelease) }

// Active reports whether the hotkey is currently held and audio is
// being buffered.
func (p *Pipeline) Active() bool { return p.capturing.Load() }

// Close stops the pipeline and waits for in-flight transcriptions.
func (p *Pipeline) Close() {
	p.once.Do(func() { p.cmds <- cmdClose })
	<-p.stopped
	p.jobs.Wait()
}

func (p *Pipeline) send(cmd command) {
	select {
	case p.cmds <- cmd:
	case <-p.stopped:
	}
}

func (p *Pipeline) loop(ctx context.Context) {
	defer close(p.stopped)

	var buf []int16

	stopCapture := func() {
		if p.capturing.Load() {
			_ = p.source.Stop()
			p.capturing.Store(false)
		}
	}
	defer stopCapture()

	for {
		var cmd command
		if p.capturing.Load() {
			select {
			case cmd = <-p.cmds:
			case <-ctx.Done():
				return
			default:
				chunk, err := p.source.Read()
				if err != nil {
					p.logger.Warn("mic read failed, dictation aborted", zap.Error(err))
					stopCapture()
					buf = nil
					continue
				}
				buf = append(buf, chunk...)
				if len(buf) > p.maxSamples {
					buf = buf[len(buf)-p.maxSamples:]
				}
				continue
			}
		} else {
			select {
			case cmd = <-p.cmds:
			case <-ctx.Done():
				return
			}
		}

		switch cmd {
		case cmdPress:
			if p.capturing.Load() {
				continue
			}
			buf = buf[:0]
			if err := p.source.Start(); err != nil {
				p.logger.Error("mic unavailable", zap.Error(err))
				p.notify("Dictation", "Microphone unavailable")
				continue
			}
			p.capturing.Store(true)

		case cmdRelease:
			if !p.capturing.Load() {
				continue
			}
			stopCapture()
			duration := time.Duration(len(buf)) * time.Second / time.Duration(p.source.SampleRate())
			if duration < MinDuration {
				p.logger.Debug("clip below minimum duration, discarded",
					zap.Duration("duration", duration))
				continue
			}
			clip := make([]int16, len(buf))
			copy(clip, buf)
			p.jobs.Add(1)
			go p.transcribe(ctx, clip)

		case cmdClose:
			return
		}
	}
}

// transcribe writes the clip to a temp WAV, runs the engine and pastes
// the result. It runs detached so the next dictation can start while
// the previous clip is still uploading.
func (p *Pipeline) transcribe(ctx context.Context, clip []int16) {
	defer p.jobs.Done()

	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	wavPath := filepath.Join(p.cacheDir, fmt.Sprintf("%s%s.wav", mux.TempPrefix, id))
	if err := mux.WriteWav(wavPath, clip, p.source.SampleRate()); err != nil {
		p.logger.Error("write clip failed", zap.Error(err))
		return
	}
	if !p.keepCache {
		defer os.Remove(wavPath)
	}

	text, _, err := p.engine.Transcribe(ctx, wavPath)
	if err != nil {
		p.logger.Error("transcription failed", zap.Error(err))
		p.notify("Dictation", "Transcription failed")
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		p.logger.Debug("empty transcription, nothing to paste")
		return
	}
	if err := p.paste(text); err != nil {
		p.logger.Error("paste failed", zap.Error(err))
		p.notify("Dictation", "Paste failed")
		return
	}
	p.logger.Info("dictation pasted", zap.Int("chars", len(text)))
}
