// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package mockdoc

import (
	"bytes"
	"image/color"
	"image/jpeg"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sassoftware/pdf-portfolio-xtract/pdf"
)

func open(t *testing.T, data []byte) *pdf.Reader {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return r
}

func TestAssemble(t *testing.T) {
	data := Assemble([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [] /Count 0 >>",
	})
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-1.7")))
	assert.True(t, bytes.HasSuffix(data, []byte("%%EOF\n")))

	r := open(t, data)
	assert.Equal(t, 0, r.NumPage())
	assert.Equal(t, "Catalog", r.Trailer().Key("Root").Key("Type").Name())
}

func TestSample_Text(t *testing.T) {
	data, err := Sample().Bytes()
	require.NoError(t, err)
	r := open(t, data)
	require.Equal(t, 4, r.NumPage())

	runs, err := r.Page(2).GlyphRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "SMART CHEF", runs[0].Text)
	assert.InDelta(t, 40, runs[0].Height, 1e-9)
	assert.InDelta(t, 750, runs[0].Y, 1e-9)
	assert.Equal(t, "App Design / UI UX", runs[1].Text)
}

func TestSample_Images(t *testing.T) {
	data, err := Sample().Bytes()
	require.NoError(t, err)
	r := open(t, data)

	assert.True(t, r.Page(1).Resources().Key("XObject").IsNull())
	for n := 2; n <= 4; n++ {
		img := r.Page(n).Resources().Key("XObject").Key("Im1")
		require.Equal(t, pdf.Stream, img.Kind(), "page %d", n)
		assert.Equal(t, []string{"DCTDecode"}, img.Filters())
		raw, err := io.ReadAll(img.RawReader())
		require.NoError(t, err)
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(raw))
		require.NoError(t, err)
		assert.Equal(t, 8, cfg.Width)
	}
}

func TestRawImage(t *testing.T) {
	doc := Doc{Pages: []PageSpec{{Images: []Image{{Kind: RawImage, Width: 2, Height: 1, Color: color.RGBA{R: 1, G: 2, B: 3, A: 255}}}}}}
	data, err := doc.Bytes()
	require.NoError(t, err)
	img := open(t, data).Page(1).Resources().Key("XObject").Key("Im1")
	assert.Equal(t, []string{"FlateDecode"}, img.Filters())
	pix, err := io.ReadAll(img.Reader())
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 1, 2, 3}, pix)
}

func TestEscape(t *testing.T) {
	doc := Doc{Pages: []PageSpec{{Texts: []Text{{Content: `a (b) \c`, Size: 10, X: 1, Y: 1}}}}}
	data, err := doc.Bytes()
	require.NoError(t, err)
	runs, err := open(t, data).Page(1).GlyphRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, `a (b) \c`, runs[0].Text)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input", "mock.pdf")
	require.NoError(t, Sample().WriteFile(path))
	f, r, err := pdf.Open(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, 4, r.NumPage())
	assert.True(t, strings.HasPrefix(r.Page(4).V.Key("Type").Name(), "Page"))
}
