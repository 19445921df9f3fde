// Package dump renders byte content for human-readable diagnostics.
package dump

import "strings"

// Flags selects which renderings Format produces.
type Flags uint8

const (
	// Hex renders each byte as two lower-case hex digits, space separated.
	Hex Flags = 1 << iota
	// ASCII renders printable bytes verbatim and everything else as '.'.
	ASCII
)

const hexDigits = "0123456789abcdef"

// Format renders b according to flags. With both Hex and ASCII set the ASCII
// form follows the hex form, quoted: "61 62 63 'abc'". When the hex form is
// empty the ASCII form is written unquoted.
func Format(b []byte, flags Flags) string {
	var sb strings.Builder
	if flags&Hex != 0 {
		sb.Grow(len(b) * 3)
		for i, c := range b {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteByte(hexDigits[c>>4])
			sb.WriteByte(hexDigits[c&0xf])
		}
	}
	if flags&ASCII != 0 {
		quoted := sb.Len() > 0
		if quoted {
			sb.WriteString(" '")
		}
		for _, c := range b {
			if isPrint(c) {
				sb.WriteByte(c)
			} else {
				sb.WriteByte('.')
			}
		}
		if quoted {
			sb.WriteByte('\'')
		}
	}
	return sb.String()
}

// ASCIIOnly returns the ASCII rendering of b.
func ASCIIOnly(b []byte) string { return Format(b, ASCII) }

// HexOnly returns the hex rendering of b.
func HexOnly(b []byte) string { return Format(b, Hex) }

func isPrint(c byte) bool { return c >= 0x20 && c < 0x7f }
