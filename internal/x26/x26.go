// Package x26 builds ETS 300 706 packet type 26 (X/26) enhancement triplets: the
// Level 1.5 diacritic overlay mechanism that lets a WST page carry accented
// characters not present in a national G0 set by either composing a base letter
// with a G2 diacritic, or substituting a precomposed G2 character outright.
package x26

import (
	"unicode/utf8"

	"github.com/wst-titler/op47/internal/parity"
)

// Mode values for an enhancement triplet (ETS 300 706 table 9/10).
const (
	ModeSetActivePosition = 0x04
	ModeDiacriticBase     = 0x11 // + (diacriticIndex-1), diacriticIndex in 1..15
	ModeG2Character       = 0x0F
	ModeTerminationMarker = 0x1F
)

// AddressTerminationMarker is the address used with a termination-marker filler triplet.
const AddressTerminationMarker = 0x3F

// tripletsPerPacket is the fixed triplet count an X/26 packet pads to.
const tripletsPerPacket = 13

// Triplet is one X/26 enhancement triplet: 6-bit address, 5-bit mode, 7-bit data.
type Triplet struct {
	Address uint8
	Mode    uint8
	Data    uint8
}

// Pack returns the 18-bit value address | (mode<<6) | (data<<11).
func (t Triplet) Pack() uint32 {
	return uint32(t.Address&0x3F) | uint32(t.Mode&0x1F)<<6 | uint32(t.Data&0x7F)<<11
}

// RowAddress maps a 1..24 row location to its X/26 packet address per ETS 300 706
// §12.3.2: row 24 (the top/header-adjacent row in this numbering) maps to 40;
// rows 1..23 map to 41..63.
func RowAddress(rowLocation int) uint8 {
	if rowLocation == 24 {
		return 40
	}
	return uint8(40 + rowLocation)
}

// CaronEncoding selects how Czech caron letters are represented.
type CaronEncoding int

const (
	// CaronCompose emits base letter + a diacritic-composition triplet (default).
	CaronCompose CaronEncoding = iota
	// CaronG2 emits a precomposed G2 character and blanks the row cell.
	CaronG2
)

// G2Variant selects which decoder-specific precomposed caron code-set to use.
type G2Variant int

const (
	G2Default G2Variant = iota
	G2Alt1
	G2Alt2
	G2ISO88592
)

// Config configures composition table construction.
type Config struct {
	CaronEncoding      CaronEncoding
	CaronDiacriticIndex int // 1..15, used only when CaronEncoding == CaronCompose
	G2Variant          G2Variant
}

// DefaultConfig matches SPEC_FULL.md §6: compose, diacritic index 15, default G2 variant.
func DefaultConfig() Config {
	return Config{
		CaronEncoding:       CaronCompose,
		CaronDiacriticIndex: 15,
		G2Variant:           G2Default,
	}
}

const (
	diacriticIndexAcute = 2
	diacriticIndexRing  = 10
)

// compositionEntry is one Czech letter's encoding strategy.
type compositionEntry struct {
	base          byte // ASCII replacement letter (also the composed triplet's data byte)
	diacriticIdx  int  // 1..15, meaningful only when !precomposed
	precomposed   bool
	g2Code        byte // meaningful only when precomposed
}

// caronLettersLower and caronLettersUpper list the eight Czech caron letters in
// canonical order, lower then upper.
var caronLettersLower = []rune{'č', 'ď', 'ě', 'ň', 'ř', 'š', 'ť', 'ž'}
var caronLettersUpper = []rune{'Č', 'Ď', 'Ě', 'Ň', 'Ř', 'Š', 'Ť', 'Ž'}
var caronBaseLower = []byte{'c', 'd', 'e', 'n', 'r', 's', 't', 'z'}
var caronBaseUpper = []byte{'C', 'D', 'E', 'N', 'R', 'S', 'T', 'Z'}

var g2CodeSets = map[G2Variant]struct{ lower, upper []byte }{
	G2Default:  {[]byte{0x62, 0x64, 0x65, 0x6E, 0x72, 0x73, 0x74, 0x7A}, []byte{0x42, 0x44, 0x45, 0x4E, 0x52, 0x53, 0x54, 0x5A}},
	G2Alt1:     {[]byte{0x63, 0x64, 0x65, 0x6E, 0x72, 0x73, 0x74, 0x79}, []byte{0x43, 0x44, 0x45, 0x4E, 0x52, 0x53, 0x54, 0x59}},
	G2Alt2:     {[]byte{0x68, 0x6A, 0x6B, 0x70, 0x78, 0x79, 0x7A, 0x7E}, []byte{0x48, 0x4A, 0x4B, 0x50, 0x58, 0x59, 0x5A, 0x5E}},
	G2ISO88592: {[]byte{0x68, 0x6F, 0x6C, 0x72, 0x78, 0x39, 0x3B, 0x2E}, []byte{0x48, 0x4F, 0x4C, 0x52, 0x58, 0x28, 0x2B, 0x2C}},
}

var acuteLettersLower = []rune{'á', 'é', 'í', 'ó', 'ú', 'ý'}
var acuteLettersUpper = []rune{'Á', 'É', 'Í', 'Ó', 'Ú', 'Ý'}
var acuteBaseLower = []byte{'a', 'e', 'i', 'o', 'u', 'y'}
var acuteBaseUpper = []byte{'A', 'E', 'I', 'O', 'U', 'Y'}

func buildCompositionTable(cfg Config) map[rune]compositionEntry {
	table := make(map[rune]compositionEntry, 24)

	for i, r := range acuteLettersLower {
		table[r] = compositionEntry{base: acuteBaseLower[i], diacriticIdx: diacriticIndexAcute}
	}
	for i, r := range acuteLettersUpper {
		table[r] = compositionEntry{base: acuteBaseUpper[i], diacriticIdx: diacriticIndexAcute}
	}

	table['ů'] = compositionEntry{base: 'u', diacriticIdx: diacriticIndexRing}
	table['Ů'] = compositionEntry{base: 'U', diacriticIdx: diacriticIndexRing}

	idx := cfg.CaronDiacriticIndex
	if idx < 1 || idx > 15 {
		idx = 15
	}
	codes := g2CodeSets[cfg.G2Variant]
	if codes.lower == nil {
		codes = g2CodeSets[G2Default]
	}
	for i, r := range caronLettersLower {
		if cfg.CaronEncoding == CaronG2 {
			table[r] = compositionEntry{precomposed: true, g2Code: codes.lower[i]}
		} else {
			table[r] = compositionEntry{base: caronBaseLower[i], diacriticIdx: idx}
		}
	}
	for i, r := range caronLettersUpper {
		if cfg.CaronEncoding == CaronG2 {
			table[r] = compositionEntry{precomposed: true, g2Code: codes.upper[i]}
		} else {
			table[r] = compositionEntry{base: caronBaseUpper[i], diacriticIdx: idx}
		}
	}

	return table
}

// Encoder accumulates X/26 enhancement triplets across every row of a single
// page build. One Encoder is owned by exactly one WST page build.
type Encoder struct {
	table          map[rune]compositionEntry
	triplets       []Triplet
	rowHasPosition map[int]bool
}

// NewEncoder builds the composition table from cfg. The table is immutable for
// the lifetime of the Encoder.
func NewEncoder(cfg Config) *Encoder {
	return &Encoder{
		table:          buildCompositionTable(cfg),
		rowHasPosition: make(map[int]bool),
	}
}

// EncodeRow scans row for composed Czech letters, replacing each with its base
// ASCII letter (or a space, for a precomposed G2 substitution), and accumulates
// the enhancement triplets needed to restore the diacritic on a Level 1.5
// decoder. rowLocation is 1..24. Column addresses are 0-based positions within
// row itself (before any WST framing bytes are added).
func (e *Encoder) EncodeRow(row string, rowLocation int) string {
	out := make([]rune, 0, utf8.RuneCountInString(row))
	col := 0
	for _, r := range row {
		entry, found := e.table[r]
		if !found {
			out = append(out, r)
			col++
			continue
		}

		if entry.precomposed {
			out = append(out, ' ')
		} else {
			out = append(out, rune(entry.base))
		}

		if !e.rowHasPosition[rowLocation] {
			e.triplets = append(e.triplets, Triplet{
				Address: RowAddress(rowLocation),
				Mode:    ModeSetActivePosition,
				Data:    0,
			})
			e.rowHasPosition[rowLocation] = true
		}

		if entry.precomposed {
			e.triplets = append(e.triplets, Triplet{
				Address: uint8(col),
				Mode:    ModeG2Character,
				Data:    entry.g2Code,
			})
		} else {
			e.triplets = append(e.triplets, Triplet{
				Address: uint8(col),
				Mode:    uint8(ModeDiacriticBase + entry.diacriticIdx - 1),
				Data:    entry.base,
			})
		}
		col++
	}
	return string(out)
}

// EnhancementPackets materializes every X/26 packet payload accumulated across
// all EncodeRow calls so far, chunked into groups of 13 triplets (padded with
// termination-marker fillers; the last filler in each packet carries data 0xFF,
// every other filler carries 0x00). Each returned payload is 40 bytes: one
// Hamming-8/4-encoded designation byte followed by 13 Hamming-24/18-encoded
// triplets. The WST page encoder prepends the standard packet prefix (with
// packet number 26) to each payload.
func (e *Encoder) EnhancementPackets() [][]byte {
	if len(e.triplets) == 0 {
		return nil
	}
	var packets [][]byte
	for i := 0; i*tripletsPerPacket < len(e.triplets); i++ {
		start := i * tripletsPerPacket
		end := start + tripletsPerPacket
		group := make([]Triplet, 0, tripletsPerPacket)
		if end > len(e.triplets) {
			group = append(group, e.triplets[start:]...)
		} else {
			group = append(group, e.triplets[start:end]...)
		}
		for len(group) < tripletsPerPacket {
			filler := Triplet{Address: AddressTerminationMarker, Mode: ModeTerminationMarker, Data: 0x00}
			if len(group) == tripletsPerPacket-1 {
				filler.Data = 0xFF
			}
			group = append(group, filler)
		}

		payload := make([]byte, 0, 1+tripletsPerPacket*3)
		payload = append(payload, parity.EncodeHamming84(byte(i&0x0F)))
		for _, trip := range group {
			enc := parity.EncodeHamming2418(trip.Pack())
			payload = append(payload, enc[0], enc[1], enc[2])
		}
		packets = append(packets, payload)
	}
	return packets
}
