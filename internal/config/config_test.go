package config

import (
	"os"
	"testing"
)

func clearOP47Env(t *testing.T) {
	t.Helper()
	keys := []string{
		"OP47_MAGAZINE", "OP47_PAGE", "OP47_START_ROW", "OP47_DIACRITICS_ENCODING",
		"OP47_CARON_ENCODING", "OP47_CARON_DIACRITIC_INDEX", "OP47_G2_VARIANT",
		"OP47_LINE_WIDTH", "OP47_MAX_LINES", "OP47_DOWNSTREAM_ADDR", "OP47_HTTP_ADDR",
		"OP47_AUDIT_DB_PATH", "OP47_TIMECODE_STRICT_MATCH",
	}
	for _, k := range keys {
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearOP47Env(t)
	c := Load()
	if c.Magazine != 0 {
		t.Errorf("Magazine = %d, want 0", c.Magazine)
	}
	if c.Page != 0x01 {
		t.Errorf("Page = %#x, want 0x01", c.Page)
	}
	if c.StartRow != 19 {
		t.Errorf("StartRow = %d, want 19", c.StartRow)
	}
	if c.DiacriticsEncoding != "x26" {
		t.Errorf("DiacriticsEncoding = %q, want x26", c.DiacriticsEncoding)
	}
	if c.CaronEncoding != "compose" {
		t.Errorf("CaronEncoding = %q, want compose", c.CaronEncoding)
	}
	if c.CaronDiacriticIndex != 15 {
		t.Errorf("CaronDiacriticIndex = %d, want 15", c.CaronDiacriticIndex)
	}
	if c.G2Variant != "default" {
		t.Errorf("G2Variant = %q, want default", c.G2Variant)
	}
	if c.LineWidth != 38 {
		t.Errorf("LineWidth = %d, want 38", c.LineWidth)
	}
	if c.MaxLines != 2 {
		t.Errorf("MaxLines = %d, want 2", c.MaxLines)
	}
	if c.HTTPAddr != ":8047" {
		t.Errorf("HTTPAddr = %q, want :8047", c.HTTPAddr)
	}
	if c.AuditDBPath != "./op47-dispatch.db" {
		t.Errorf("AuditDBPath = %q, want ./op47-dispatch.db", c.AuditDBPath)
	}
	if c.TimecodeStrictMatch {
		t.Error("TimecodeStrictMatch should default false")
	}
}

func TestLoadReadsOverrides(t *testing.T) {
	clearOP47Env(t)
	defer clearOP47Env(t)
	os.Setenv("OP47_MAGAZINE", "3")
	os.Setenv("OP47_PAGE", "150")
	os.Setenv("OP47_DIACRITICS_ENCODING", "latin2")
	os.Setenv("OP47_CARON_ENCODING", "g2")
	os.Setenv("OP47_G2_VARIANT", "iso88592")
	os.Setenv("OP47_DOWNSTREAM_ADDR", "mixer.local:9000")
	os.Setenv("OP47_TIMECODE_STRICT_MATCH", "true")

	c := Load()
	if c.Magazine != 3 {
		t.Errorf("Magazine = %d, want 3", c.Magazine)
	}
	if c.Page != 150 {
		t.Errorf("Page = %d, want 150", c.Page)
	}
	if c.DiacriticsEncoding != "latin2" {
		t.Errorf("DiacriticsEncoding = %q, want latin2", c.DiacriticsEncoding)
	}
	if c.CaronEncoding != "g2" {
		t.Errorf("CaronEncoding = %q, want g2", c.CaronEncoding)
	}
	if c.G2Variant != "iso88592" {
		t.Errorf("G2Variant = %q, want iso88592", c.G2Variant)
	}
	if c.DownstreamAddr != "mixer.local:9000" {
		t.Errorf("DownstreamAddr = %q, want mixer.local:9000", c.DownstreamAddr)
	}
	if !c.TimecodeStrictMatch {
		t.Error("TimecodeStrictMatch should be true")
	}
}

func TestLoadClampsOutOfRangeCaronDiacriticIndex(t *testing.T) {
	clearOP47Env(t)
	defer clearOP47Env(t)
	os.Setenv("OP47_CARON_DIACRITIC_INDEX", "99")
	c := Load()
	if c.CaronDiacriticIndex != 15 {
		t.Errorf("CaronDiacriticIndex = %d, want clamped to 15", c.CaronDiacriticIndex)
	}
}

func TestLoadClampsNonPositiveLineWidthAndMaxLines(t *testing.T) {
	clearOP47Env(t)
	defer clearOP47Env(t)
	os.Setenv("OP47_LINE_WIDTH", "0")
	os.Setenv("OP47_MAX_LINES", "-1")
	c := Load()
	if c.LineWidth != 38 {
		t.Errorf("LineWidth = %d, want fallback 38", c.LineWidth)
	}
	if c.MaxLines != 2 {
		t.Errorf("MaxLines = %d, want fallback 2", c.MaxLines)
	}
}
