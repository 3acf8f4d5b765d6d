// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package images

import (
	"bytes"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sassoftware/pdf-portfolio-xtract/mockdoc"
	"github.com/sassoftware/pdf-portfolio-xtract/pdf"
)

type memStore struct {
	puts []string
	data map[string][]byte
	err  error
}

func (m *memStore) Put(_ context.Context, page int, id, ext string, data io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	name := FileName(page, id, ext)
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[name] = b
	m.puts = append(m.puts, name)
	return "mem://" + name, nil
}

func openDoc(t *testing.T, data []byte) *pdf.Reader {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return r
}

var jpegMagic = []byte{0xff, 0xd8}

func TestRecover_SampleDocument(t *testing.T) {
	data, err := mockdoc.Sample().Bytes()
	require.NoError(t, err)
	r := openDoc(t, data)
	require.Equal(t, 4, r.NumPage())

	store := &memStore{}
	ctx := context.Background()

	none, err := Recover(ctx, r.Page(1), 1, store)
	require.NoError(t, err)
	assert.Empty(t, none)

	assets, err := Recover(ctx, r.Page(2), 2, store)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	a := assets[0]
	assert.Equal(t, 2, a.Page)
	assert.Equal(t, JPEG, a.Encoding)
	assert.EqualValues(t, 8, a.Width)
	assert.EqualValues(t, 8, a.Height)
	assert.Equal(t, "mem://"+FileName(2, a.ID, JPEG), a.Path)
	assert.Regexp(t, `^\d+-0$`, a.ID)

	payload := store.data[FileName(2, a.ID, JPEG)]
	assert.True(t, bytes.HasPrefix(payload, jpegMagic))
	assert.EqualValues(t, len(payload), a.Size)
}

func TestRecover_SkipsNonJPEG(t *testing.T) {
	doc := mockdoc.Doc{Pages: []mockdoc.PageSpec{{
		Images: []mockdoc.Image{
			{Kind: mockdoc.RawImage, Width: 4, Height: 4, Color: color.RGBA{G: 255, A: 255}, W: 10, H: 10},
			{Kind: mockdoc.JPEGImage, Width: 4, Height: 4, Color: color.RGBA{B: 255, A: 255}, W: 10, H: 10},
		},
	}}}
	data, err := doc.Bytes()
	require.NoError(t, err)
	r := openDoc(t, data)

	store := &memStore{}
	assets, err := Recover(context.Background(), r.Page(1), 1, store)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Len(t, store.puts, 1)
	for _, b := range store.data {
		assert.True(t, bytes.HasPrefix(b, jpegMagic))
	}
}

func TestRecover_NoResources(t *testing.T) {
	data := mockdoc.Assemble([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R >>",
	})
	r := openDoc(t, data)
	assets, err := Recover(context.Background(), r.Page(1), 1, &memStore{})
	assert.NoError(t, err)
	assert.Empty(t, assets)
}

// page with an XObject dictionary given verbatim; objects 4.. are appended.
func xobjectPage(xobjects string, objs ...string) []byte {
	return mockdoc.Assemble(append([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		fmt.Sprintf("<< /Type /Page /Parent 2 0 R /Resources << /XObject %s >> >>", xobjects),
	}, objs...))
}

func imageObj(filter string, data []byte) string {
	return mockdoc.Stream("/Type /XObject /Subtype /Image /Width 2 /Height 3 "+filter, data)
}

func TestRecover_OrderAndIdentifiers(t *testing.T) {
	fake := []byte("\xff\xd8fake-jpeg\xff\xd9")
	data := xobjectPage("<< /Zed 4 0 R /Alpha 6 0 R /Mid 5 0 R /Form 7 0 R /Missing 99 0 R /Inline << /Subtype /Image >> >>",
		imageObj("/Filter /DCTDecode", fake),
		imageObj("/Filter [/DCTDecode]", fake),
		imageObj("/Filter /DCTDecode", fake),
		mockdoc.Stream("/Type /XObject /Subtype /Form /Filter /DCTDecode", fake),
	)
	r := openDoc(t, data)
	store := &memStore{}
	assets, err := Recover(context.Background(), r.Page(1), 3, store)
	require.NoError(t, err)

	var ids []string
	for _, a := range assets {
		ids = append(ids, a.ID)
		assert.EqualValues(t, 2, a.Width)
		assert.EqualValues(t, 3, a.Height)
	}
	assert.Equal(t, []string{"4-0", "6-0", "5-0"}, ids, "dictionary order is kept")
	assert.Equal(t, []string{"page-3-img_4-0.jpg", "page-3-img_6-0.jpg", "page-3-img_5-0.jpg"}, store.puts)
	assert.Equal(t, fake, store.data["page-3-img_4-0.jpg"])
}

func TestRecover_FlateWrappedJPEG(t *testing.T) {
	fake := []byte("\xff\xd8wrapped\xff\xd9")
	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	_, _ = zw.Write(fake)
	require.NoError(t, zw.Close())

	data := xobjectPage("<< /Im0 4 0 R /Im1 5 0 R >>",
		imageObj("/Filter [/FlateDecode /DCTDecode]", z.Bytes()),
		imageObj("/Filter [/DCTDecode /FlateDecode]", z.Bytes()),
	)
	r := openDoc(t, data)
	store := &memStore{}
	assets, err := Recover(context.Background(), r.Page(1), 1, store)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "4-0", assets[0].ID)
	assert.Equal(t, fake, store.data["page-1-img_4-0.jpg"])
}

func TestRecover_UndecodableChainSkipped(t *testing.T) {
	good := []byte("\xff\xd8good\xff\xd9")
	data := xobjectPage("<< /Im0 4 0 R /Im1 5 0 R /Im2 6 0 R >>",
		imageObj("/Filter [/ASCIIHexDecode /DCTDecode]", []byte("ffd8>")),
		imageObj("/Filter [/FlateDecode /DCTDecode]", []byte("not zlib at all")),
		imageObj("/Filter /DCTDecode", good),
	)
	r := openDoc(t, data)
	store := &memStore{}
	assets, err := Recover(context.Background(), r.Page(1), 1, store)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "6-0", assets[0].ID)
	assert.EqualValues(t, len(good), assets[0].Size)
	assert.Equal(t, []string{"page-1-img_6-0.jpg"}, store.puts)
	assert.Equal(t, good, store.data["page-1-img_6-0.jpg"])
}

func TestRecover_StoreError(t *testing.T) {
	data := xobjectPage("<< /Im0 4 0 R >>", imageObj("/Filter /DCTDecode", []byte("\xff\xd8x")))
	r := openDoc(t, data)
	boom := errors.New("disk full")
	_, err := Recover(context.Background(), r.Page(1), 1, &memStore{err: boom})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestRecover_Cancelled(t *testing.T) {
	data := xobjectPage("<< /Im0 4 0 R >>", imageObj("/Filter /DCTDecode", []byte("\xff\xd8x")))
	r := openDoc(t, data)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Recover(ctx, r.Page(1), 1, &memStore{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJPEGStages(t *testing.T) {
	tests := []struct {
		filters []string
		n       int
		ok      bool
	}{
		{nil, 0, false},
		{[]string{"DCTDecode"}, 0, true},
		{[]string{"FlateDecode", "DCTDecode"}, 1, true},
		{[]string{"ASCII85Decode", "FlateDecode", "DCTDecode"}, 2, true},
		{[]string{"FlateDecode"}, 0, false},
		{[]string{"DCTDecode", "FlateDecode"}, 0, false},
		{[]string{"JPXDecode"}, 0, false},
	}
	for _, tt := range tests {
		n, ok := jpegStages(tt.filters)
		assert.Equal(t, tt.ok, ok, "%v", tt.filters)
		assert.Equal(t, tt.n, n, "%v", tt.filters)
	}
}

func TestDirStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "staging")
	s := DirStore{Dir: dir}
	path, err := s.Put(context.Background(), 7, "12-0", JPEG, bytes.NewReader([]byte("abc")))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "page-7-img_12-0.jpg"), path)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestDirStore_RemovesPartialFile(t *testing.T) {
	dir := t.TempDir()
	_, err := DirStore{Dir: dir}.Put(context.Background(), 1, "x", JPEG, failingReader{})
	require.Error(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
