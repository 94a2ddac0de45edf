// Package transcript assembles speaker-attributed transcripts from
// per-channel transcription segments and renders them as text reports.
package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Speaker labels for the two meeting channels.
const (
	SpeakerMe    = "Me"
	SpeakerOther = "Other"
)

const (
	// mergeGap is the largest silence between consecutive segments of
	// the same speaker that still reads as one utterance.
	mergeGap = 1.0

	// paragraphGap is the silence that starts a new paragraph in
	// single-speaker output.
	paragraphGap = 1.5
)

// Placeholder is emitted when transcription produced no segments.
const Placeholder = "(no speech detected)"

// Segment is one labeled utterance.
type Segment struct {
	Start   float64
	End     float64
	Speaker string
	Text    string
}

// Merge interleaves labeled segments from all channels into dialogue
// order and joins consecutive same-speaker segments separated by less
// than a second. Sorting is stable so equal timestamps keep their
// channel order.
func Merge(segments []Segment) []Segment {
	cleaned := make([]Segment, 0, len(segments))
	for _, s := range segments {
		s.Text = strings.TrimSpace(s.Text)
		if s.Text == "" {
			continue
		}
		cleaned = append(cleaned, s)
	}
	sort.SliceStable(cleaned, func(i, j int) bool {
		return cleaned[i].Start < cleaned[j].Start
	})

	var merged []Segment
	for _, s := range cleaned {
		if n := len(merged); n > 0 {
			last := &merged[n-1]
			if last.Speaker == s.Speaker && s.Start-last.End < mergeGap {
				last.Text += " " + s.Text
				if s.End > last.End {
					last.End = s.End
				}
				continue
			}
		}
		merged = append(merged, s)
	}
	return merged
}

// RenderDialogue formats merged segments one utterance per line with a
// timestamp and speaker label.
func RenderDialogue(segments []Segment) string {
	if len(segments) == 0 {
		return Placeholder
	}
	var b strings.Builder
	for i, s := range segments {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%s] %s: %s", formatTimestamp(s.Start), s.Speaker, s.Text)
	}
	return b.String()
}

// RenderMonologue formats single-channel segments as flowing text,
// starting a new paragraph wherever the silence exceeds paragraphGap.
func RenderMonologue(segments []Segment) string {
	if len(segments) == 0 {
		return Placeholder
	}
	var b strings.Builder
	for i, s := range segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		if i > 0 {
			if s.Start-segments[i-1].End > paragraphGap {
				b.WriteString("\n\n")
			} else if b.Len() > 0 {
				b.WriteByte(' ')
			}
		}
		b.WriteString(text)
	}
	if b.Len() == 0 {
		return Placeholder
	}
	return b.String()
}

func formatTimestamp(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	total := int(sec)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// DefaultReportPath derives the transcript path from the media file it
// was transcribed from.
func DefaultReportPath(mediaPath string) string {
	ext := filepath.Ext(mediaPath)
	return strings.TrimSuffix(mediaPath, ext) + ".txt"
}

// SaveReport writes the rendered transcript to path under a banner
// naming the source media and the generation time.
func SaveReport(path, mediaPath, body string) error {
	banner := strings.Repeat("=", 50)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", banner)
	fmt.Fprintf(&b, "Transcript of %s\n", filepath.Base(mediaPath))
	fmt.Fprintf(&b, "Generated %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "%s\n\n", banner)
	b.WriteString(body)
	b.WriteByte('\n')
	return os.WriteFile(path, []byte(b.String()), 0644)
}
