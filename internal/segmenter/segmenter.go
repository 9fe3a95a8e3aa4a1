// Package segmenter converts timed subtitle cues into fixed-geometry display
// segments: at most two lines, each no wider than a configured character
// budget, with cue duration distributed proportionally across the segments a
// cue produces.
package segmenter

import "strings"

// Cue is one parsed subtitle cue.
type Cue struct {
	StartS float64
	EndS   float64
	Text   string
}

// Segment is a fixed-geometry display unit: up to two lines of text, each
// truncated to LineWidth, shown from StartS until EndS.
type Segment struct {
	StartS float64
	EndS   float64
	Lines  []string
}

// Config bounds segment geometry. Both fields are tunable, not hard constants.
type Config struct {
	LineWidth int
	MaxLines  int
}

// DefaultConfig matches SPEC_FULL.md §6: line_width=38, max_lines=2.
func DefaultConfig() Config {
	return Config{LineWidth: 38, MaxLines: 2}
}

// SegmentCue splits cue.Text into word-wrapped lines at cfg.LineWidth, groups
// those lines into chunks of at most cfg.MaxLines, and distributes cue's
// duration across the resulting segments proportionally to each segment's
// character count. A cue whose text is empty or all whitespace produces no
// segments.
func SegmentCue(cfg Config, cue Cue) []Segment {
	lines := wrapWords(cue.Text, cfg.LineWidth)
	if len(lines) == 0 {
		return nil
	}

	var chunks [][]string
	for i := 0; i < len(lines); i += cfg.MaxLines {
		end := i + cfg.MaxLines
		if end > len(lines) {
			end = len(lines)
		}
		chunks = append(chunks, lines[i:end])
	}

	segments := make([]Segment, len(chunks))
	charCounts := make([]int, len(chunks))
	total := 0
	for i, chunk := range chunks {
		truncated := make([]string, len(chunk))
		n := 0
		for j, l := range chunk {
			truncated[j] = truncate(l, cfg.LineWidth)
			n += len([]rune(truncated[j]))
		}
		segments[i] = Segment{Lines: truncated}
		charCounts[i] = n
		total += n
	}

	if len(segments) == 1 {
		segments[0].StartS = cue.StartS
		segments[0].EndS = cue.EndS
		return segments
	}

	duration := cue.EndS - cue.StartS
	cursor := cue.StartS
	for i := range segments {
		segments[i].StartS = cursor
		if i == len(segments)-1 {
			segments[i].EndS = cue.EndS
			break
		}
		share := duration * float64(charCounts[i]) / float64(total)
		segments[i].EndS = cursor + share
		cursor = segments[i].EndS
	}
	return segments
}

// SegmentAll applies SegmentCue to every cue in order, concatenating the results.
func SegmentAll(cfg Config, cues []Cue) []Segment {
	var out []Segment
	for _, cue := range cues {
		out = append(out, SegmentCue(cfg, cue)...)
	}
	return out
}

// wrapWords greedily packs whitespace-separated words into lines no wider
// than width. A single word longer than width is hard-truncated to width.
func wrapWords(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	var cur strings.Builder
	for _, w := range words {
		if len(w) > width {
			w = truncate(w, width)
		}
		switch {
		case cur.Len() == 0:
			cur.WriteString(w)
		case cur.Len()+1+len(w) <= width:
			cur.WriteByte(' ')
			cur.WriteString(w)
		default:
			lines = append(lines, cur.String())
			cur.Reset()
			cur.WriteString(w)
		}
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width])
}
