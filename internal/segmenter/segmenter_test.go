package segmenter

import (
	"strings"
	"testing"
)

func TestSegmentProducesAtMostMaxLinesEachWithinWidth(t *testing.T) {
	cfg := DefaultConfig()
	cue := Cue{StartS: 0, EndS: 5, Text: strings.Repeat("word ", 40)}
	segs := SegmentCue(cfg, cue)
	if len(segs) == 0 {
		t.Fatal("expected at least one segment")
	}
	for i, s := range segs {
		if len(s.Lines) < 1 || len(s.Lines) > cfg.MaxLines {
			t.Fatalf("segment %d has %d lines, want 1..%d", i, len(s.Lines), cfg.MaxLines)
		}
		for j, line := range s.Lines {
			if len(line) > cfg.LineWidth {
				t.Fatalf("segment %d line %d length %d exceeds %d", i, j, len(line), cfg.LineWidth)
			}
		}
	}
}

func TestSegmentSingleShortCueIsOneSegmentUnchangedTiming(t *testing.T) {
	cue := Cue{StartS: 1.5, EndS: 3.5, Text: "Hello"}
	segs := SegmentCue(DefaultConfig(), cue)
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].StartS != 1.5 || segs[0].EndS != 3.5 {
		t.Fatalf("timing changed: got [%v,%v]", segs[0].StartS, segs[0].EndS)
	}
	if len(segs[0].Lines) != 1 || segs[0].Lines[0] != "Hello" {
		t.Fatalf("unexpected lines: %v", segs[0].Lines)
	}
}

func TestSegmentEmptyTextProducesNoSegments(t *testing.T) {
	cue := Cue{StartS: 0, EndS: 1, Text: "   "}
	segs := SegmentCue(DefaultConfig(), cue)
	if segs != nil {
		t.Fatalf("expected nil segments, got %v", segs)
	}
}

func TestSegmentLastEndsExactlyAtCueEnd(t *testing.T) {
	cfg := Config{LineWidth: 5, MaxLines: 1}
	cue := Cue{StartS: 0, EndS: 10, Text: "aaaaa bb ccccc dddd eeeee"}
	segs := SegmentCue(cfg, cue)
	if len(segs) < 2 {
		t.Fatalf("expected multiple segments to exercise proportional timing, got %d", len(segs))
	}
	if segs[len(segs)-1].EndS != cue.EndS {
		t.Fatalf("last segment end = %v, want exactly %v", segs[len(segs)-1].EndS, cue.EndS)
	}
	for i := 1; i < len(segs); i++ {
		if segs[i].StartS < segs[i-1].StartS {
			t.Fatalf("segments not ordered by start: %d before %d", i, i-1)
		}
		if segs[i].StartS != segs[i-1].EndS {
			t.Fatalf("segments not laid end-to-end: seg %d starts %v, prev ends %v", i, segs[i].StartS, segs[i-1].EndS)
		}
	}
}

func TestSegmentDurationSumsToCueDurationWithinOneMillisecond(t *testing.T) {
	cfg := Config{LineWidth: 6, MaxLines: 1}
	cue := Cue{StartS: 2, EndS: 12, Text: "alpha beta gamma delta epsilon"}
	segs := SegmentCue(cfg, cue)
	var sum float64
	for _, s := range segs {
		sum += s.EndS - s.StartS
	}
	want := cue.EndS - cue.StartS
	if diff := sum - want; diff > 0.001 || diff < -0.001 {
		t.Fatalf("duration sum = %v, want %v (within 1ms)", sum, want)
	}
}

func TestWrapWordsHardTruncatesOverlongWord(t *testing.T) {
	lines := wrapWords(strings.Repeat("x", 50), 38)
	if len(lines) != 1 || len(lines[0]) != 38 {
		t.Fatalf("expected single 38-char line, got %v", lines)
	}
}

func TestWrapWordsHardTruncatesOverlongWordWithMultiByteRunes(t *testing.T) {
	word := strings.Repeat("é", 50) // 2 bytes per rune, cue text not yet folded to G2
	lines := wrapWords(word, 38)
	if len(lines) != 1 {
		t.Fatalf("expected single line, got %v", lines)
	}
	runes := []rune(lines[0])
	if len(runes) != 38 {
		t.Fatalf("expected 38 runes, got %d: %v", len(runes), lines)
	}
	for _, r := range runes {
		if r != 'é' {
			t.Fatalf("truncation split a multi-byte rune: %q", lines[0])
		}
	}
}

func TestSegmentAllConcatenatesInOrder(t *testing.T) {
	cues := []Cue{
		{StartS: 0, EndS: 1, Text: "A"},
		{StartS: 1.5, EndS: 2.5, Text: "B"},
	}
	segs := SegmentAll(DefaultConfig(), cues)
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if segs[0].Lines[0] != "A" || segs[1].Lines[0] != "B" {
		t.Fatalf("unexpected order: %v", segs)
	}
}
