package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/yegors/vidscribe/internal/settings"
	"github.com/yegors/vidscribe/internal/transcription"
)

// FormatLine renders one segment for the editable transcript
func FormatLine(seg transcription.Segment, opts settings.Settings) string {
	prefix := ""
	if opts.ShowTimestamps {
		prefix = "[" + seg.StartTime + "] "
	}
	return prefix + seg.Speaker + ": " + seg.Text
}

// FormatText renders the editable transcript: one line per segment, separated by a blank line
func FormatText(result *transcription.Result, opts settings.Settings) string {
	if result == nil {
		return ""
	}
	lines := make([]string, len(result.Segments))
	for i, seg := range result.Segments {
		lines[i] = FormatLine(seg, opts)
	}
	return strings.Join(lines, "\n\n")
}

// NormalizeSRTTime passes values containing a colon through untouched and wraps
// anything else as 00:00:<value>,000. The result is not validated.
func NormalizeSRTTime(value string) string {
	if strings.Contains(value, ":") {
		return value
	}
	return "00:00:" + value + ",000"
}

// FormatSRTBlock renders a single subtitle block; index is zero-based
func FormatSRTBlock(index int, seg transcription.Segment) string {
	return fmt.Sprintf("%d\n%s --> %s\n%s: %s\n",
		index+1,
		NormalizeSRTTime(seg.StartTime),
		NormalizeSRTTime(seg.EndTime),
		seg.Speaker,
		seg.Text)
}

// FormatSRT renders subtitles from the unedited segments, blocks separated by a blank line.
// Edits made to the editable transcript are not reflected here.
func FormatSRT(segments []transcription.Segment) string {
	blocks := make([]string, len(segments))
	for i, seg := range segments {
		blocks[i] = FormatSRTBlock(i, seg)
	}
	return strings.Join(blocks, "\n")
}

// TextFilename names a .txt download after the export time in epoch milliseconds
func TextFilename(t time.Time) string {
	return fmt.Sprintf("transcription_%d.txt", t.UnixMilli())
}

// SubtitleFilename names a .srt download after the export time in epoch milliseconds
func SubtitleFilename(t time.Time) string {
	return fmt.Sprintf("subtitles_%d.srt", t.UnixMilli())
}

// Artifact is a downloadable export
type Artifact struct {
	Filename    string
	ContentType string
	Content     string
}

// TextArtifact wraps the editable transcript verbatim
func TextArtifact(text string, now time.Time) Artifact {
	return Artifact{
		Filename:    TextFilename(now),
		ContentType: "text/plain; charset=utf-8",
		Content:     text,
	}
}

// SubtitleArtifact renders the .srt download
func SubtitleArtifact(result *transcription.Result, now time.Time) Artifact {
	var segments []transcription.Segment
	if result != nil {
		segments = result.Segments
	}
	return Artifact{
		Filename:    SubtitleFilename(now),
		ContentType: "text/plain; charset=utf-8",
		Content:     FormatSRT(segments),
	}
}
