package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State represents session state.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateStopping
)

// joinTimeout bounds how long Stop waits for capture goroutines.
const joinTimeout = 3 * time.Second

// Track is one fully buffered audio stream.
type Track struct {
	Name    string
	Rate    int
	Samples []int16
}

// Result is returned when a capture session stops.
type Result struct {
	Tracks  []Track
	Frames  int
	Elapsed time.Duration
}

// Session coordinates one video source and any number of audio
// sources. Frames stream into the sink as they are grabbed; audio is
// buffered in memory and handed back in the Result. A failing source
// stops its own goroutine without ending the session.
type Session struct {
	mu         sync.Mutex
	state      State
	video      VideoSource
	sink       FrameSink
	audio      []AudioSource
	fps        int
	joinWait   time.Duration
	logger     *zap.Logger
	stopCtx    context.Context
	stopCancel context.CancelFunc
	done       chan Result
}

func NewSession(video VideoSource, sink FrameSink, audio []AudioSource, fps int, logger *zap.Logger) *Session {
	return &Session{
		video:    video,
		sink:     sink,
		audio:    audio,
		fps:      fps,
		joinWait: joinTimeout,
		logger:   logger,
		state:    StateIdle,
	}
}

// Start begins capturing. It fails if the session is already running
// or if the video source cannot be opened. Audio sources that fail to
// open are logged and skipped.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("capture session not idle")
	}
	s.state = StateRecording
	s.done = make(chan Result, 1)
	s.stopCtx, s.stopCancel = context.WithCancel(ctx)
	s.mu.Unlock()

	if err := s.video.Start(); err != nil {
		s.reset()
		return fmt.Errorf("start video source: %w", err)
	}

	var started []AudioSource
	for _, a := range s.audio {
		if err := a.Start(); err != nil {
			s.logger.Warn("audio source unavailable", zap.String("source", a.Name()), zap.Error(err))
			continue
		}
		started = append(started, a)
	}

	go s.run(s.stopCtx, started)
	return nil
}

// Stop requests a clean stop and waits for the capture goroutines to
// drain, bounded by joinTimeout.
func (s *Session) Stop() (Result, error) {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return Result{}, fmt.Errorf("capture session not running")
	}
	s.state = StateStopping
	cancel := s.stopCancel
	done := s.done
	s.mu.Unlock()

	cancel()
	res := <-done
	return res, nil
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) run(ctx context.Context, audio []AudioSource) {
	begin := time.Now()
	done := s.done

	// Each goroutine closes its own source once its loop exits and
	// hands the buffer over on a channel. A source stuck in a blocking
	// call keeps its goroutine wedged, but never races a Stop call
	// from this goroutine.
	frameCh := make(chan int, 1)
	go func() {
		n := s.videoLoop(ctx)
		_ = s.video.Stop()
		frameCh <- n
	}()

	trackCh := make(chan Track, len(audio))
	for _, a := range audio {
		go func(a AudioSource) {
			samples := s.audioLoop(ctx, a)
			_ = a.Stop()
			trackCh <- Track{Name: a.Name(), Rate: a.SampleRate(), Samples: samples}
		}(a)
	}

	<-ctx.Done()

	// All waits share one absolute deadline, recomputed per select, so
	// a stuck source burns only the remaining budget and the join as a
	// whole stays bounded.
	stopBy := time.Now().Add(s.joinWait)
	res := Result{}
	select {
	case res.Frames = <-frameCh:
	case <-time.After(time.Until(stopBy)):
		s.logger.Warn("video goroutine did not drain in time")
	}
	for range audio {
		select {
		case t := <-trackCh:
			if len(t.Samples) > 0 {
				res.Tracks = append(res.Tracks, t)
			}
		case <-time.After(time.Until(stopBy)):
			s.logger.Warn("audio goroutine did not drain in time")
		}
	}
	res.Elapsed = time.Since(begin)

	s.reset()
	done <- res
}

func (s *Session) videoLoop(ctx context.Context) int {
	interval := time.Second / time.Duration(s.fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	count := 0
	for {
		select {
		case <-ctx.Done():
			return count
		case <-ticker.C:
		}
		frame, err := s.video.Grab()
		if err != nil {
			s.logger.Warn("frame grab failed, video stopped", zap.Error(err))
			return count
		}
		if err := s.sink.WriteFrame(frame); err != nil {
			s.logger.Warn("frame write failed, video stopped", zap.Error(err))
			return count
		}
		count++
	}
}

func (s *Session) audioLoop(ctx context.Context, src AudioSource) []int16 {
	var samples []int16
	for {
		select {
		case <-ctx.Done():
			return samples
		default:
		}
		chunk, err := src.Read()
		if err != nil {
			s.logger.Warn("audio read failed, track stopped",
				zap.String("source", src.Name()), zap.Error(err))
			return samples
		}
		samples = append(samples, chunk...)
	}
}

func (s *Session) reset() {
	s.mu.Lock()
	s.state = StateIdle
	if s.stopCancel != nil {
		s.stopCancel()
	}
	s.mu.Unlock()
}
