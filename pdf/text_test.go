// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdf

import (
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
)

func TestTextStringDecoding(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		docEnc  bool
		utf16   bool
		decoded string
	}{
		{"ascii", "Portfolio!", true, false, "Portfolio!"},
		{"bullet", "\x80 Logos", true, false, "\u2022 Logos"},
		{"utf16 with bom", "\xfe\xff\x00\x41", false, true, ""},
		{"odd utf16", "\xfe\xff\x00", false, false, ""},
		{"undefined byte", "\x9f", false, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.docEnc, isPDFDocEncoded(tt.in))
			assert.Equal(t, tt.utf16, isUTF16(tt.in))
			if tt.docEnc {
				assert.Equal(t, tt.decoded, pdfDocDecode(tt.in))
			}
		})
	}
}

func TestUTF16Decode(t *testing.T) {
	assert.Equal(t, "UX", utf16Decode("\x00U\x00X"))
	assert.Equal(t, "", utf16Decode(""))
}

func TestDecodeUTF8OrPreserve(t *testing.T) {
	assert.Equal(t, []rune("Café"), DecodeUTF8OrPreserve("Café"))
	assert.Equal(t, []rune{0xc3, 0x28}, DecodeUTF8OrPreserve("\xc3\x28"))
}

func TestPDFDocEncodingTable(t *testing.T) {
	assert.Equal(t, '˘', pdfDocEncoding[0x18])
	assert.Equal(t, '€', pdfDocEncoding[0xa0])
	assert.Equal(t, 'ž', pdfDocEncoding[0x9e])
	assert.Equal(t, unicode.ReplacementChar, pdfDocEncoding[0x9f])
	assert.Equal(t, unicode.ReplacementChar, pdfDocEncoding[0xad])
	assert.Equal(t, 'ÿ', pdfDocEncoding[0xff])
}

func TestSingleByteTables(t *testing.T) {
	assert.Equal(t, '“', winAnsiEncoding[0x93])
	assert.Equal(t, 'A', winAnsiEncoding['A'])
	assert.Equal(t, 'ü', macRomanEncoding[0x9f])
}

func TestUtf16Decode_SurrogatePair(t *testing.T) {
	assert.Equal(t, string(rune(0x1F600)), utf16Decode("\xd8\x3d\xde\x00"))
}
