// Package wst assembles ETS 300 706 World System Teletext packets — page header,
// display row, and X/26 enhancement — into the byte sequences an OP-47 VANC
// payload carries on the wire.
package wst

import (
	"unicode"

	"github.com/wst-titler/op47/internal/parity"
	"github.com/wst-titler/op47/internal/x26"
)

const (
	packetNumberHeader = 0
	packetNumberX26    = 26
	rowPayloadLen      = 40
)

// DiacriticsMode selects how non-ASCII display text is rendered.
type DiacriticsMode int

const (
	// Latin2 folds accented letters to their base ASCII letter, dropping the accent.
	Latin2 DiacriticsMode = iota
	// X26 passes rows through an x26.Encoder, emitting enhancement packets.
	X26
)

// Config configures a WST page build.
type Config struct {
	Magazine       int // 0..7; wire value 0 is decoder-interpreted as magazine 8
	Page           byte
	StartRow       int
	DiacriticsMode DiacriticsMode
	X26            x26.Config
}

// DefaultConfig matches SPEC_FULL.md §6.
func DefaultConfig() Config {
	return Config{
		Magazine:       0,
		Page:           0x01,
		StartRow:       19,
		DiacriticsMode: X26,
		X26:            x26.DefaultConfig(),
	}
}

// packetPrefix builds the 5-byte prefix common to every teletext packet:
// 0x55 0x55 0x27 followed by two Hamming-8/4-encoded address nibbles. The
// first nibble carries the magazine (bits 0-2) and the packet number's LSB
// (bit 3); the second carries the packet number's upper bits.
func packetPrefix(magazine, packetNumber int) []byte {
	nibble1 := byte(magazine&0x07) | byte((packetNumber&1)<<3)
	nibble2 := byte((packetNumber >> 1) & 0x0F)
	return []byte{
		0x55, 0x55, 0x27,
		parity.EncodeHamming84(nibble1),
		parity.EncodeHamming84(nibble2),
	}
}

// buildHeaderPacket builds the row-0 header packet: prefix, eight Hamming-8/4
// control nibbles, and 32 bytes of 0x20 padding.
func buildHeaderPacket(magazine int, page byte, pageSubCode uint16, erase bool) []byte {
	n0 := page & 0x0F
	n1 := (page >> 4) & 0x0F
	s1 := byte(pageSubCode & 0x0F)
	s2 := byte((pageSubCode >> 4) & 0x07)
	if erase {
		s2 |= 0x08
	}
	s3 := byte((pageSubCode >> 8) & 0x0F)
	s4 := byte((pageSubCode>>12)&0x03) | 0x08
	cb1 := byte(0x03)
	cb2 := byte(0x00)

	packet := packetPrefix(magazine, packetNumberHeader)
	for _, nibble := range []byte{n0, n1, s1, s2, s3, s4, cb1, cb2} {
		packet = append(packet, parity.EncodeHamming84(nibble))
	}
	for i := 0; i < 32; i++ {
		packet = append(packet, 0x20)
	}
	return packet
}

// DummyPage returns the fixed placeholder/keepalive header packet: page 0xFF,
// sub-code 0x3F7E, erase false.
func DummyPage(cfg Config) []byte {
	return buildHeaderPacket(cfg.Magazine, 0xFF, 0x3F7E, false)
}

// frameRow builds the 40-byte framed, space-padded row payload from already
// ASCII-folded text, before odd-parity is applied.
func frameRow(text string) [rowPayloadLen]byte {
	var out [rowPayloadLen]byte
	for i := range out {
		out[i] = ' '
	}
	frame := append([]byte{0x0B, 0x0B}, []byte(text)...)
	frame = append(frame, 0x0A, 0x0A)
	n := copy(out[:], frame)
	_ = n
	return out
}

func buildRowPacket(magazine, rowNumber int, text string) []byte {
	framed := frameRow(text)
	packet := packetPrefix(magazine, rowNumber)
	for _, b := range framed {
		packet = append(packet, parity.OddParity(b))
	}
	return packet
}

// foldLatin2 replaces accented Czech letters with their base ASCII letter,
// dropping the accent, and folds any other non-ASCII codepoint to '?'.
func foldLatin2(row string) string {
	table := latin2FoldTable()
	out := make([]rune, 0, len(row))
	for _, r := range row {
		if r <= unicode.MaxASCII {
			out = append(out, r)
			continue
		}
		if base, ok := table[r]; ok {
			out = append(out, base)
			continue
		}
		out = append(out, '?')
	}
	return string(out)
}

func latin2FoldTable() map[rune]rune {
	pairs := [][2]rune{
		{'á', 'a'}, {'é', 'e'}, {'í', 'i'}, {'ó', 'o'}, {'ú', 'u'}, {'ý', 'y'},
		{'Á', 'A'}, {'É', 'E'}, {'Í', 'I'}, {'Ó', 'O'}, {'Ú', 'U'}, {'Ý', 'Y'},
		{'ů', 'u'}, {'Ů', 'U'},
		{'č', 'c'}, {'ď', 'd'}, {'ě', 'e'}, {'ň', 'n'}, {'ř', 'r'}, {'š', 's'}, {'ť', 't'}, {'ž', 'z'},
		{'Č', 'C'}, {'Ď', 'D'}, {'Ě', 'E'}, {'Ň', 'N'}, {'Ř', 'R'}, {'Š', 'S'}, {'Ť', 'T'}, {'Ž', 'Z'},
	}
	table := make(map[rune]rune, len(pairs))
	for _, p := range pairs {
		table[p[0]] = p[1]
	}
	return table
}

// EncodeSubtitle builds a full subtitle page: header (erase=1), the X/26
// enhancement packets (when cfg.DiacriticsMode == X26), emitted before the
// display rows so a decoder has diacritic data at row-paint time, and one
// display-row packet per line. An empty lines slice yields just the header
// packet.
func EncodeSubtitle(cfg Config, lines []string) [][]byte {
	var packets [][]byte
	packets = append(packets, buildHeaderPacket(cfg.Magazine, cfg.Page, 0x0000, true))

	if len(lines) == 0 {
		return packets
	}

	rendered := make([]string, len(lines))
	var enhancement *x26.Encoder
	if cfg.DiacriticsMode == X26 {
		enhancement = x26.NewEncoder(cfg.X26)
		for i, line := range lines {
			rendered[i] = enhancement.EncodeRow(line, cfg.StartRow+i)
		}
	} else {
		for i, line := range lines {
			rendered[i] = foldLatin2(line)
		}
	}

	if enhancement != nil {
		for _, payload := range enhancement.EnhancementPackets() {
			prefix := packetPrefix(cfg.Magazine, packetNumberX26)
			packets = append(packets, append(prefix, payload...))
		}
	}

	for i, line := range rendered {
		packets = append(packets, buildRowPacket(cfg.Magazine, cfg.StartRow+i, line))
	}
	return packets
}
