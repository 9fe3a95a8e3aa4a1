package wst

import (
	"bytes"
	"testing"

	"github.com/wst-titler/op47/internal/parity"
	"github.com/wst-titler/op47/internal/x26"
)

func TestPacketPrefixStartsWithMagic(t *testing.T) {
	p := packetPrefix(0, 0)
	if !bytes.Equal(p[:3], []byte{0x55, 0x55, 0x27}) {
		t.Fatalf("prefix = % x, want 55 55 27 ...", p[:3])
	}
	if len(p) != 5 {
		t.Fatalf("prefix length = %d, want 5", len(p))
	}
}

func TestDummyPageEncodesPageAndSubCode(t *testing.T) {
	p := DummyPage(DefaultConfig())
	if len(p) != 45 {
		t.Fatalf("dummy page length = %d, want 45", len(p))
	}
	if !bytes.Equal(p[:3], []byte{0x55, 0x55, 0x27}) {
		t.Fatalf("dummy page prefix wrong: % x", p[:3])
	}
	n0, _, ok := parity.DecodeHamming84(p[5])
	if !ok {
		t.Fatal("page-units nibble not decodable")
	}
	n1, _, ok := parity.DecodeHamming84(p[6])
	if !ok {
		t.Fatal("page-tens nibble not decodable")
	}
	page := n0 | (n1 << 4)
	if page != 0xFF {
		t.Fatalf("decoded page = %#x, want 0xFF", page)
	}

	s1, _, _ := parity.DecodeHamming84(p[7])
	s2, _, _ := parity.DecodeHamming84(p[8])
	s3, _, _ := parity.DecodeHamming84(p[9])
	s4, _, _ := parity.DecodeHamming84(p[10])
	subCode := uint16(s1) | uint16(s2&0x07)<<4 | uint16(s3)<<8 | uint16(s4&0x03)<<12
	if subCode != 0x3F7E {
		t.Fatalf("decoded sub-code = %#x, want 0x3F7E", subCode)
	}
}

func TestEncodeSubtitleEmptyLinesIsHeaderOnly(t *testing.T) {
	packets := EncodeSubtitle(DefaultConfig(), nil)
	if len(packets) != 1 {
		t.Fatalf("expected exactly 1 packet, got %d", len(packets))
	}
	if len(packets[0]) != 45 {
		t.Fatalf("header packet length = %d, want 45", len(packets[0]))
	}
	// erase bit (C4) must be set: s2 nibble at byte index 8.
	s2, _, _ := parity.DecodeHamming84(packets[0][8])
	if s2&0x08 == 0 {
		t.Fatal("erase control bit not set on subtitle header")
	}
}

func TestDisplayRowPacketIs40BytesOddParity(t *testing.T) {
	cfg := DefaultConfig()
	packets := EncodeSubtitle(cfg, []string{"Hello world"})
	if len(packets) < 2 {
		t.Fatalf("expected header + at least one row packet, got %d", len(packets))
	}
	row := packets[len(packets)-1]
	if len(row) != 5+rowPayloadLen {
		t.Fatalf("row packet length = %d, want %d", len(row), 5+rowPayloadLen)
	}
	payload := row[5:]
	for i, b := range payload {
		n := 0
		for bit := 0; bit < 8; bit++ {
			if b&(1<<uint(bit)) != 0 {
				n++
			}
		}
		if n%2 != 1 {
			t.Fatalf("payload byte %d (%#x) has even parity", i, b)
		}
	}
}

func TestX26ModeEmitsEnhancementPacketsBeforeRows(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DiacriticsMode = X26
	cfg.X26 = x26.Config{CaronEncoding: x26.CaronCompose, CaronDiacriticIndex: 15}
	packets := EncodeSubtitle(cfg, []string{"Loď čeří kýlem"})

	if len(packets) != 3 {
		t.Fatalf("expected header + 1 enhancement + 1 row packet, got %d", len(packets))
	}
	// packets[0] = header, packets[1] = X/26 enhancement, packets[2] = row.
	enhancement := packets[1]
	if len(enhancement) != 5+40 {
		t.Fatalf("enhancement packet length = %d, want 45", len(enhancement))
	}
}

func TestLatin2ModeFoldsAccents(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DiacriticsMode = Latin2
	got := foldLatin2("Loď čeří kýlem tůň")
	want := "Lod ceri kylem tun"
	if got != want {
		t.Fatalf("foldLatin2 = %q, want %q", got, want)
	}
}

func TestLatin2ModeFoldsUnknownToQuestionMark(t *testing.T) {
	got := foldLatin2("日本語")
	if got != "???" {
		t.Fatalf("foldLatin2 unknown = %q, want ???", got)
	}
}

func TestFrameRowTruncatesOversizeContent(t *testing.T) {
	longText := make([]byte, 80)
	for i := range longText {
		longText[i] = 'x'
	}
	framed := frameRow(string(longText))
	if len(framed) != rowPayloadLen {
		t.Fatalf("framed row length = %d, want %d", len(framed), rowPayloadLen)
	}
}
