package transcript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMergeInterleavesSpeakers(t *testing.T) {
	segs := []Segment{
		{Start: 0, End: 2, Speaker: SpeakerMe, Text: "hi everyone"},
		{Start: 2.5, End: 4, Speaker: SpeakerOther, Text: "hello"},
		{Start: 5, End: 7, Speaker: SpeakerMe, Text: "shall we start"},
	}
	got := Merge(segs)
	if len(got) != 3 {
		t.Fatalf("merged to %d segments, want 3", len(got))
	}
	if got[1].Speaker != SpeakerOther {
		t.Errorf("middle speaker = %s", got[1].Speaker)
	}
}

func TestMergeJoinsCloseSameSpeaker(t *testing.T) {
	segs := []Segment{
		{Start: 0, End: 2, Speaker: SpeakerMe, Text: "so the plan"},
		{Start: 2.4, End: 4, Speaker: SpeakerMe, Text: "is to ship friday"},
		{Start: 6, End: 7, Speaker: SpeakerMe, Text: "any questions"},
	}
	got := Merge(segs)
	if len(got) != 2 {
		t.Fatalf("merged to %d segments, want 2: %+v", len(got), got)
	}
	if got[0].Text != "so the plan is to ship friday" {
		t.Errorf("joined text = %q", got[0].Text)
	}
	if got[0].End != 4 {
		t.Errorf("joined end = %v, want 4", got[0].End)
	}
}

func TestMergeSortsByStart(t *testing.T) {
	segs := []Segment{
		{Start: 3, End: 4, Speaker: SpeakerOther, Text: "later"},
		{Start: 0, End: 1, Speaker: SpeakerMe, Text: "earlier"},
	}
	got := Merge(segs)
	if got[0].Text != "earlier" || got[1].Text != "later" {
		t.Fatalf("order wrong: %+v", got)
	}
}

func TestMergeDropsEmptySegments(t *testing.T) {
	segs := []Segment{
		{Start: 0, End: 1, Speaker: SpeakerMe, Text: "   "},
		{Start: 1, End: 2, Speaker: SpeakerMe, Text: " kept "},
	}
	got := Merge(segs)
	if len(got) != 1 || got[0].Text != "kept" {
		t.Fatalf("got %+v", got)
	}
}

func TestMergeSpeakerChangeBlocksJoin(t *testing.T) {
	segs := []Segment{
		{Start: 0, End: 2, Speaker: SpeakerMe, Text: "one"},
		{Start: 2.1, End: 3, Speaker: SpeakerOther, Text: "brief"},
		{Start: 3.1, End: 4, Speaker: SpeakerMe, Text: "two"},
	}
	if got := Merge(segs); len(got) != 3 {
		t.Fatalf("merged to %d segments, want 3: %+v", len(got), got)
	}
}

func TestMergeTwoChannelDialogue(t *testing.T) {
	mic := []Segment{
		{Start: 0, End: 2, Speaker: SpeakerMe, Text: "A"},
		{Start: 5, End: 7, Speaker: SpeakerMe, Text: "C"},
	}
	sys := []Segment{
		{Start: 2.3, End: 4, Speaker: SpeakerOther, Text: "B"},
	}
	got := RenderDialogue(Merge(append(mic, sys...)))
	want := "[00:00] Me: A\n[00:02] Other: B\n[00:05] Me: C"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderDialogue(t *testing.T) {
	segs := []Segment{
		{Start: 0, End: 2, Speaker: SpeakerMe, Text: "hi"},
		{Start: 65, End: 67, Speaker: SpeakerOther, Text: "hello"},
		{Start: 3725, End: 3727, Speaker: SpeakerMe, Text: "still here"},
	}
	got := RenderDialogue(segs)
	want := "[00:00] Me: hi\n[01:05] Other: hello\n[1:02:05] Me: still here"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderDialogueEmpty(t *testing.T) {
	if got := RenderDialogue(nil); got != Placeholder {
		t.Fatalf("got %q", got)
	}
}

func TestRenderMonologueParagraphs(t *testing.T) {
	segs := []Segment{
		{Start: 0, End: 2, Text: "first thought."},
		{Start: 2.5, End: 4, Text: "same paragraph."},
		{Start: 6, End: 8, Text: "new paragraph."},
	}
	got := RenderMonologue(segs)
	want := "first thought. same paragraph.\n\nnew paragraph."
	if got != want {
		t.Fatalf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestDefaultReportPath(t *testing.T) {
	if got := DefaultReportPath("records/Meeting_20250101_120000.mp4"); got != "records/Meeting_20250101_120000.txt" {
		t.Fatalf("got %q", got)
	}
}

func TestSaveReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	if err := SaveReport(path, "Meeting_20250101_120000.mp4", "[00:00] Me: hi"); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, strings.Repeat("=", 50)+"\n") {
		t.Error("missing banner")
	}
	if !strings.Contains(content, "Meeting_20250101_120000.mp4") {
		t.Error("missing source name")
	}
	if !strings.Contains(content, "[00:00] Me: hi") {
		t.Error("missing body")
	}
}
