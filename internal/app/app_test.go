package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/sharapovvezde-lgtm/voice-to-text/internal/asr"
	"github.com/sharapovvezde-lgtm/voice-to-text/internal/config"
)

type stubTranscriber struct {
	segments map[string][]asr.Segment
	calls    []string
}

func (s *stubTranscriber) Transcribe(ctx context.Context, wavPath string) (string, []byte, error) {
	return "", nil, nil
}

func (s *stubTranscriber) TranscribeSegments(ctx context.Context, wavPath string) ([]asr.Segment, error) {
	s.calls = append(s.calls, filepath.Base(wavPath))
	return s.segments[filepath.Base(wavPath)], nil
}

func newTestApp(t *testing.T, stub *stubTranscriber) *App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.APIEndpoint = "http://example.invalid/asr"
	cfg.CacheDir = t.TempDir()
	a := New(cfg, zap.NewNop())
	a.asr = stub
	return a
}

func TestTranscribeMediaTwoChannels(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "Meeting_20250101_120000")
	os.WriteFile(base+".mp4", []byte("video"), 0o644)
	os.WriteFile(base+"_mic.wav", []byte("wav"), 0o644)
	os.WriteFile(base+"_sys.wav", []byte("wav"), 0o644)

	stub := &stubTranscriber{segments: map[string][]asr.Segment{
		"Meeting_20250101_120000_mic.wav": {{Start: 0, End: 2, Text: "hello from me"}},
		"Meeting_20250101_120000_sys.wav": {{Start: 2.5, End: 4, Text: "hello back"}},
	}}
	a := newTestApp(t, stub)

	reportPath, err := a.TranscribeMedia(context.Background(), base+".mp4", "")
	if err != nil {
		t.Fatalf("TranscribeMedia: %v", err)
	}
	if reportPath != base+".txt" {
		t.Errorf("report path = %s", reportPath)
	}
	if len(stub.calls) != 2 {
		t.Fatalf("transcribed %v, want both channels", stub.calls)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "[00:00] Me: hello from me") {
		t.Errorf("missing mic line:\n%s", content)
	}
	if !strings.Contains(content, "[00:02] Other: hello back") {
		t.Errorf("missing system line:\n%s", content)
	}
}

func TestTranscribeMediaSingleWav(t *testing.T) {
	dir := t.TempDir()
	wav := filepath.Join(dir, "note.wav")
	os.WriteFile(wav, []byte("wav"), 0o644)

	stub := &stubTranscriber{segments: map[string][]asr.Segment{
		"note.wav": {
			{Start: 0, End: 2, Text: "first thought."},
			{Start: 5, End: 7, Text: "second thought."},
		},
	}}
	a := newTestApp(t, stub)

	reportPath, err := a.TranscribeMedia(context.Background(), wav, "")
	if err != nil {
		t.Fatalf("TranscribeMedia: %v", err)
	}
	data, _ := os.ReadFile(reportPath)
	content := string(data)
	if !strings.Contains(content, "first thought.\n\nsecond thought.") {
		t.Errorf("monologue paragraphs missing:\n%s", content)
	}
	if strings.Contains(content, "Me:") {
		t.Errorf("single channel should have no speaker labels:\n%s", content)
	}
}

func TestTranscribeMediaMissingFile(t *testing.T) {
	a := newTestApp(t, &stubTranscriber{})
	if _, err := a.TranscribeMedia(context.Background(), "/does/not/exist.mp4", ""); err == nil {
		t.Fatal("expected error for missing media")
	}
}

func TestTranscribeMediaCustomReportPath(t *testing.T) {
	dir := t.TempDir()
	wav := filepath.Join(dir, "clip.wav")
	os.WriteFile(wav, []byte("wav"), 0o644)

	stub := &stubTranscriber{segments: map[string][]asr.Segment{
		"clip.wav": {{Start: 0, End: 1, Text: "hi"}},
	}}
	a := newTestApp(t, stub)

	custom := filepath.Join(dir, "elsewhere.txt")
	got, err := a.TranscribeMedia(context.Background(), wav, custom)
	if err != nil {
		t.Fatalf("TranscribeMedia: %v", err)
	}
	if got != custom {
		t.Errorf("report path = %s, want %s", got, custom)
	}
	if _, err := os.Stat(custom); err != nil {
		t.Errorf("report missing: %v", err)
	}
}

func TestSpeakerFor(t *testing.T) {
	if got := speakerFor("Meeting_x_mic.wav"); got != "Me" {
		t.Errorf("mic speaker = %s", got)
	}
	if got := speakerFor("Meeting_x_sys.wav"); got != "Other" {
		t.Errorf("sys speaker = %s", got)
	}
	if got := speakerFor("plain.wav"); got != "Me" {
		t.Errorf("default speaker = %s", got)
	}
}
