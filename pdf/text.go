// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdf

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
)

const noRune = unicode.ReplacementChar

var (
	winAnsiEncoding  = byteTable(charmap.Windows1252)
	macRomanEncoding = byteTable(charmap.Macintosh)
	pdfDocEncoding   = buildPDFDocEncoding()
)

// byteTable expands a single-byte charmap into a lookup table.
func byteTable(cm *charmap.Charmap) (t [256]rune) {
	for i := range t {
		t[i] = cm.DecodeByte(byte(i))
	}
	return t
}

// buildPDFDocEncoding returns PDFDocEncoding (ISO 32000-1 Annex D.2).
// It agrees with Latin-1 except in the ranges patched below.
func buildPDFDocEncoding() (t [256]rune) {
	for i := range t {
		switch {
		case i == '\t' || i == '\n' || i == '\f' || i == '\r':
			t[i] = rune(i)
		case 0x20 <= i && i <= 0x7e:
			t[i] = rune(i)
		case 0xa1 <= i && i != 0xad:
			t[i] = rune(i)
		default:
			t[i] = noRune
		}
	}
	copy(t[0x18:0x20], []rune{0x02d8, 0x02c7, 0x02c6, 0x02d9, 0x02dd, 0x02db, 0x02da, 0x02dc})
	copy(t[0x80:0x9f], []rune{
		0x2022, 0x2020, 0x2021, 0x2026, 0x2014, 0x2013, 0x0192, 0x2044,
		0x2039, 0x203a, 0x2212, 0x2030, 0x201e, 0x201c, 0x201d, 0x2018,
		0x2019, 0x201a, 0x2122, 0xfb01, 0xfb02, 0x0141, 0x0152, 0x0160,
		0x0178, 0x017d, 0x0131, 0x0142, 0x0153, 0x0161, 0x017e,
	})
	t[0xa0] = 0x20ac
	return t
}

func isPDFDocEncoded(s string) bool {
	if isUTF16(s) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if pdfDocEncoding[s[i]] == noRune {
			return false
		}
	}
	return true
}

func pdfDocDecode(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 || pdfDocEncoding[s[i]] != rune(s[i]) {
			goto Decode
		}
	}
	return s

Decode:
	r := make([]rune, len(s))
	for i := 0; i < len(s); i++ {
		r[i] = pdfDocEncoding[s[i]]
	}
	return string(r)
}

func isUTF16(s string) bool {
	return len(s) >= 2 && s[0] == 0xfe && s[1] == 0xff && len(s)%2 == 0
}

var utf16BE = xunicode.UTF16(xunicode.BigEndian, xunicode.IgnoreBOM)

// utf16Decode decodes big-endian UTF-16 without a byte order mark.
func utf16Decode(s string) string {
	out, err := utf16BE.NewDecoder().String(s)
	if err != nil {
		return string(DecodeUTF8OrPreserve(s))
	}
	return out
}

// DecodeUTF8OrPreserve returns the runes of s when s is valid UTF-8 and
// otherwise maps every byte to the rune of the same value, so that no input
// is lost.
func DecodeUTF8OrPreserve(s string) []rune {
	if utf8.ValidString(s) {
		return []rune(s)
	}
	r := make([]rune, len(s))
	for i := 0; i < len(s); i++ {
		r[i] = rune(s[i])
	}
	return r
}

// glyphNames maps the Adobe glyph names seen in /Differences arrays of
// common simple fonts. Single-letter names are handled by glyphRune.
var glyphNames = map[string]rune{
	"space": ' ', "exclam": '!', "quotedbl": '"', "numbersign": '#',
	"dollar": '$', "percent": '%', "ampersand": '&', "quotesingle": '\'',
	"parenleft": '(', "parenright": ')', "asterisk": '*', "plus": '+',
	"comma": ',', "hyphen": '-', "period": '.', "slash": '/',
	"zero": '0', "one": '1', "two": '2', "three": '3', "four": '4',
	"five": '5', "six": '6', "seven": '7', "eight": '8', "nine": '9',
	"colon": ':', "semicolon": ';', "less": '<', "equal": '=',
	"greater": '>', "question": '?', "at": '@', "bracketleft": '[',
	"backslash": '\\', "bracketright": ']', "asciicircum": '^',
	"underscore": '_', "grave": '`', "braceleft": '{', "bar": '|',
	"braceright": '}', "asciitilde": '~', "quoteleft": '‘',
	"quoteright": '’', "quotedblleft": '“', "quotedblright": '”',
	"bullet": '•', "endash": '–', "emdash": '—',
	"ellipsis": '…', "fi": 'ﬁ', "fl": 'ﬂ', "Euro": '€',
	"copyright": '©', "registered": '®', "trademark": '™',
	"degree": '°', "germandbls": 'ß',
	"aacute": 'á', "agrave": 'à', "adieresis": 'ä',
	"ccedilla": 'ç', "eacute": 'é', "egrave": 'è',
	"iacute": 'í', "ntilde": 'ñ', "oacute": 'ó',
	"odieresis": 'ö', "uacute": 'ú', "udieresis": 'ü',
	"Eacute": 'É', "Adieresis": 'Ä', "Odieresis": 'Ö',
	"Udieresis": 'Ü',
}

// glyphRune maps a glyph name to its rune, or 0 when the name is unknown.
func glyphRune(n string) rune {
	if r, ok := glyphNames[n]; ok {
		return r
	}
	if utf8.RuneCountInString(n) == 1 {
		r, _ := utf8.DecodeRuneInString(n)
		return r
	}
	for _, prefix := range []string{"uni", "u"} {
		if hex, ok := strings.CutPrefix(n, prefix); ok && len(hex) >= 4 && len(hex) <= 6 {
			if x, err := strconv.ParseUint(hex, 16, 32); err == nil {
				return rune(x)
			}
		}
	}
	return 0
}
