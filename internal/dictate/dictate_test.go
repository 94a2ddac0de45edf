package dictate

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type stubSource struct {
	chunk   int
	started atomic.Int32
}

func (s *stubSource) Start() error {
	s.started.Add(1)
	return nil
}

func (s *stubSource) Read() ([]int16, error) {
	time.Sleep(5 * time.Millisecond)
	return make([]int16, s.chunk), nil
}

func (s *stubSource) Stop() error     { return nil }
func (s *stubSource) Name() string    { return "mic" }
func (s *stubSource) SampleRate() int { return 16000 }

type stubEngine struct {
	calls atomic.Int32
	text  string
}

func (e *stubEngine) Transcribe(ctx context.Context, wavPath string) (string, []byte, error) {
	e.calls.Add(1)
	return e.text, nil, nil
}

func newTestPipeline(t *testing.T, source *stubSource, engine *stubEngine, pasted chan string) *Pipeline {
	t.Helper()
	paste := func(text string) error {
		pasted <- text
		return nil
	}
	notify := func(title, message string) {}
	return New(source, engine, paste, notify, t.TempDir(), false, zap.NewNop())
}

func TestShortTapDiscarded(t *testing.T) {
	source := &stubSource{chunk: 160}
	engine := &stubEngine{text: "ignored"}
	pasted := make(chan string, 1)
	p := newTestPipeline(t, source, engine, pasted)
	p.Start(context.Background())

	p.Press()
	time.Sleep(20 * time.Millisecond)
	p.Release()
	time.Sleep(50 * time.Millisecond)
	p.Close()

	if got := engine.calls.Load(); got != 0 {
		t.Fatalf("engine called %d times for sub-minimum clip, want 0", got)
	}
	select {
	case text := <-pasted:
		t.Fatalf("unexpected paste %q", text)
	default:
	}
}

func TestHeldClipTranscribedAndPasted(t *testing.T) {
	source := &stubSource{chunk: 3200}
	engine := &stubEngine{text: " hello world "}
	pasted := make(chan string, 1)
	p := newTestPipeline(t, source, engine, pasted)
	p.Start(context.Background())

	p.Press()
	time.Sleep(40 * time.Millisecond)
	p.Release()

	select {
	case text := <-pasted:
		if text != "hello world" {
			t.Fatalf("pasted %q, want trimmed text", text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("paste never happened")
	}
	p.Close()

	if got := engine.calls.Load(); got != 1 {
		t.Fatalf("engine called %d times, want 1", got)
	}
}

func TestReleaseWithoutPressIgnored(t *testing.T) {
	source := &stubSource{chunk: 3200}
	engine := &stubEngine{text: "x"}
	pasted := make(chan string, 1)
	p := newTestPipeline(t, source, engine, pasted)
	p.Start(context.Background())

	p.Release()
	time.Sleep(20 * time.Millisecond)
	p.Close()

	if got := source.started.Load(); got != 0 {
		t.Fatalf("source started %d times, want 0", got)
	}
	if got := engine.calls.Load(); got != 0 {
		t.Fatalf("engine called %d times, want 0", got)
	}
}

// seqSource tags every chunk with a per-read sequence value so tests
// can tell which chunks survive in the buffer.
type seqSource struct {
	chunk int
	next  atomic.Int32
}

func (s *seqSource) Start() error { return nil }

func (s *seqSource) Read() ([]int16, error) {
	time.Sleep(5 * time.Millisecond)
	v := int16(s.next.Add(1))
	buf := make([]int16, s.chunk)
	for i := range buf {
		buf[i] = v
	}
	return buf, nil
}

func (s *seqSource) Stop() error     { return nil }
func (s *seqSource) Name() string    { return "mic" }
func (s *seqSource) SampleRate() int { return 16000 }

// wavInspectEngine records the sample count and first sample value of
// the clip it receives.
type wavInspectEngine struct {
	count atomic.Int32
	first atomic.Int32
}

func (e *wavInspectEngine) Transcribe(ctx context.Context, wavPath string) (string, []byte, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return "", nil, err
	}
	idx := bytes.Index(data, []byte("data"))
	if idx < 0 || len(data) < idx+10 {
		return "", nil, errors.New("no data chunk")
	}
	payload := data[idx+8:]
	e.count.Store(int32(len(payload) / 2))
	e.first.Store(int32(int16(binary.LittleEndian.Uint16(payload[:2]))))
	return "ok", nil, nil
}

func TestLongHoldDropsOldestSamples(t *testing.T) {
	source := &seqSource{chunk: 3200}
	engine := &wavInspectEngine{}
	pasted := make(chan string, 1)
	paste := func(text string) error {
		pasted <- text
		return nil
	}
	p := New(source, engine, paste, func(string, string) {}, t.TempDir(), false, zap.NewNop())
	p.maxSamples = 8000
	p.Start(context.Background())

	p.Press()
	time.Sleep(80 * time.Millisecond)
	p.Release()

	select {
	case <-pasted:
	case <-time.After(2 * time.Second):
		t.Fatal("paste never happened")
	}
	p.Close()

	if got := engine.count.Load(); got != 8000 {
		t.Fatalf("clip has %d samples, want capped at 8000", got)
	}
	if first := engine.first.Load(); first <= 1 {
		t.Fatalf("first sample value = %d, oldest chunks should have been dropped", first)
	}
}

func TestActiveTracksCapture(t *testing.T) {
	source := &stubSource{chunk: 3200}
	engine := &stubEngine{text: "x"}
	pasted := make(chan string, 1)
	p := newTestPipeline(t, source, engine, pasted)
	p.Start(context.Background())

	if p.Active() {
		t.Fatal("active before press")
	}
	p.Press()
	time.Sleep(30 * time.Millisecond)
	if !p.Active() {
		t.Fatal("not active while key held")
	}
	p.Release()
	select {
	case <-pasted:
	case <-time.After(2 * time.Second):
		t.Fatal("paste never happened")
	}
	if p.Active() {
		t.Fatal("still active after release")
	}
	p.Close()
}

func TestRepeatedPressIgnoredWhileCapturing(t *testing.T) {
	source := &stubSource{chunk: 3200}
	engine := &stubEngine{text: "x"}
	pasted := make(chan string, 1)
	p := newTestPipeline(t, source, engine, pasted)
	p.Start(context.Background())

	p.Press()
	time.Sleep(10 * time.Millisecond)
	p.Press()
	time.Sleep(30 * time.Millisecond)
	p.Release()

	select {
	case <-pasted:
	case <-time.After(2 * time.Second):
		t.Fatal("paste never happened")
	}
	p.Close()

	if got := source.started.Load(); got != 1 {
		t.Fatalf("source started %d times, want 1", got)
	}
	if got := engine.calls.Load(); got != 1 {
		t.Fatalf("engine called %d times, want 1", got)
	}
}
