// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdf

import (
	"fmt"
	"math"
	"strings"

	"github.com/sassoftware/pdf-portfolio-xtract/logger"
)

// A Page represent a single page in a PDF file.
// The methods interpret a Page dictionary stored in V.
type Page struct {
	V Value
}

// Page returns the page for the given page number.
// Page numbers are indexed starting at 1, not 0.
// If the page is not found, Page returns a Page with p.V.IsNull().
func (r *Reader) Page(num int) Page {
	logger.Debug(fmt.Sprintf("Reading Page %d", num), true)
	num-- // now 0-indexed
	page := r.Trailer().Key("Root").Key("Pages")
Search:
	for page.Key("Type").Name() == "Pages" {
		count := int(page.Key("Count").Int64())
		if count < num {
			return Page{}
		}
		kids := page.Key("Kids")
		for i := 0; i < kids.Len(); i++ {
			kid := kids.Index(i)
			if kid.Key("Type").Name() == "Pages" {
				c := int(kid.Key("Count").Int64())
				if num < c {
					page = kid
					continue Search
				}
				num -= c
				continue
			}
			if kid.Key("Type").Name() == "Page" {
				if num == 0 {
					return Page{kid}
				}
				num--
			}
		}
		break
	}
	return Page{}
}

// NumPage returns the number of pages in the PDF file.
func (r *Reader) NumPage() int {
	return int(r.Trailer().Key("Root").Key("Pages").Key("Count").Int64())
}

func (p Page) findInherited(key string) Value {
	for v := p.V; !v.IsNull(); v = v.Key("Parent") {
		if r := v.Key(key); !r.IsNull() {
			return r
		}
	}
	return Value{}
}

// Resources returns the resources dictionary associated with the page.
func (p Page) Resources() Value {
	return p.findInherited("Resources")
}

// Fonts returns a list of the fonts associated with the page.
func (p Page) Fonts() []string {
	return p.Resources().Key("Font").Keys()
}

// Font returns the font with the given name associated with the page.
func (p Page) Font(name string) Font {
	return Font{V: p.Resources().Key("Font").Key(name)}
}

// A Font represent a font in a PDF file.
// The methods interpret a Font dictionary stored in V.
type Font struct {
	V   Value
	enc TextEncoding
}

// BaseFont returns the font's name (BaseFont property).
func (f Font) BaseFont() string {
	return f.V.Key("BaseFont").Name()
}

// FirstChar returns the code point of the first character in the font.
func (f Font) FirstChar() int {
	return int(f.V.Key("FirstChar").Int64())
}

// LastChar returns the code point of the last character in the font.
func (f Font) LastChar() int {
	return int(f.V.Key("LastChar").Int64())
}

// Width returns the width of the given code point.
func (f Font) Width(code int) float64 {
	first := f.FirstChar()
	last := f.LastChar()
	if code < first || last < code {
		return 0
	}
	return f.V.Key("Widths").Index(code - first).Float64()
}

// Encoder returns the encoding between font code point sequences and UTF-8.
func (f *Font) Encoder() TextEncoding {
	if f.enc == nil {
		f.enc = f.getEncoder()
	}
	return f.enc
}

func (f *Font) getEncoder() TextEncoding {
	enc := f.V.Key("Encoding")
	switch enc.Kind() {
	case Name:
		switch enc.Name() {
		case "WinAnsiEncoding":
			return &byteEncoder{&winAnsiEncoding}
		case "MacRomanEncoding":
			return &byteEncoder{&macRomanEncoding}
		case "Identity-H":
			return f.charmapEncoding()
		default:
			logger.Debug(fmt.Sprintf("unknown encoding %q for font %s", enc.Name(), f.BaseFont()))
			return &nopEncoder{}
		}
	case Dict:
		if f.V.Key("ToUnicode").Kind() == Stream {
			return f.charmapEncoding()
		}
		return newDifferencesEncoder(enc)
	case Null:
		return f.charmapEncoding()
	default:
		logger.Debug(fmt.Sprintf("unexpected encoding %s for font %s", enc, f.BaseFont()))
		return &nopEncoder{}
	}
}

func (f *Font) charmapEncoding() TextEncoding {
	toUnicode := f.V.Key("ToUnicode")
	if toUnicode.Kind() == Stream {
		m := readCmap(toUnicode)
		if m == nil {
			return &nopEncoder{}
		}
		return m
	}
	return &byteEncoder{&pdfDocEncoding}
}

// newDifferencesEncoder builds the byte table for an /Encoding dictionary:
// the /BaseEncoding (WinAnsi when absent) patched by /Differences.
func newDifferencesEncoder(enc Value) *byteEncoder {
	var table [256]rune
	switch enc.Key("BaseEncoding").Name() {
	case "MacRomanEncoding":
		table = macRomanEncoding
	default:
		table = winAnsiEncoding
	}
	diff := enc.Key("Differences")
	code := -1
	for i := 0; i < diff.Len(); i++ {
		x := diff.Index(i)
		switch x.Kind() {
		case Integer:
			code = int(x.Int64())
		case Name:
			if code >= 0 && code < len(table) {
				if r := glyphRune(x.Name()); r != 0 {
					table[code] = r
				}
			}
			code++
		}
	}
	return &byteEncoder{&table}
}

// A TextEncoding represents a mapping between
// font code points and UTF-8 text.
type TextEncoding interface {
	// Decode returns the UTF-8 text corresponding to
	// the sequence of code points in raw.
	Decode(raw string) (text string)
}

type nopEncoder struct{}

func (e *nopEncoder) Decode(raw string) (text string) {
	return raw
}

type byteEncoder struct {
	table *[256]rune
}

func (e *byteEncoder) Decode(raw string) (text string) {
	r := make([]rune, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		r = append(r, e.table[raw[i]])
	}
	return string(r)
}

type byteRange struct {
	low  string
	high string
}

type bfchar struct {
	orig string
	repl string
}

type bfrange struct {
	lo  string
	hi  string
	dst Value
}

type cmap struct {
	space   [4][]byteRange // codespace range
	bfrange []bfrange
	bfchar  []bfchar
}

// Decode translates raw character codes into Unicode using the CMap rules.
// Codes outside every codespace, and codes inside one with no mapping, are
// preserved rather than replaced.
func (m *cmap) Decode(raw string) string {
	var runes []rune
	for len(raw) > 0 {
		code, width := m.findNextCodespace(raw)
		if width == 0 {
			runes = append(runes, DecodeUTF8OrPreserve(raw[:1])...)
			raw = raw[1:]
			continue
		}
		if decoded, ok := m.resolveCodeMapping(code, width); ok {
			runes = append(runes, decoded...)
		} else {
			runes = append(runes, DecodeUTF8OrPreserve(code)...)
		}
		raw = raw[width:]
	}
	return string(runes)
}

// findNextCodespace checks raw for a valid codespace sequence of length 1–4.
// Returns the matched bytes and its length, or ("", 0) if no codespace matches.
func (m *cmap) findNextCodespace(raw string) (string, int) {
	for n := 1; n <= 4 && n <= len(raw); n++ {
		for _, space := range m.space[n-1] {
			if space.low <= raw[:n] && raw[:n] <= space.high {
				return raw[:n], n
			}
		}
	}
	return "", 0
}

// resolveCodeMapping tries to map a code using bfchar or bfrange rules.
func (m *cmap) resolveCodeMapping(code string, width int) ([]rune, bool) {
	for _, bfchar := range m.bfchar {
		if len(bfchar.orig) == width && bfchar.orig == code {
			return []rune(utf16Decode(bfchar.repl)), true
		}
	}
	for _, br := range m.bfrange {
		if len(br.lo) == width && br.lo <= code && code <= br.hi {
			switch br.dst.Kind() {
			case String:
				return resolveBfrangeWithString(br, code), true
			case Array:
				return resolveBfrangeWithArray(br, code), true
			}
		}
	}
	return nil, false
}

// resolveBfrangeWithString handles bfrange mappings where dst is a String.
func resolveBfrangeWithString(br bfrange, code string) []rune {
	s := br.dst.RawString()
	if br.lo != code && len(s) > 0 {
		// increment last byte according to offset within range
		b := []byte(s)
		b[len(b)-1] += code[len(code)-1] - br.lo[len(br.lo)-1]
		s = string(b)
	}
	return []rune(utf16Decode(s))
}

// resolveBfrangeWithArray handles bfrange mappings where dst is an Array.
func resolveBfrangeWithArray(br bfrange, code string) []rune {
	idx := code[len(code)-1] - br.lo[len(br.lo)-1]
	v := br.dst.Index(int(idx))
	if v.Kind() == String {
		return []rune(utf16Decode(v.RawString()))
	}
	return nil
}

func readCmap(toUnicode Value) *cmap {
	n := -1
	var m cmap
	ok := true
	err := Interpret(toUnicode, func(stk *Stack, op string) {
		if !ok {
			return
		}
		switch op {
		case "findresource":
			stk.Pop() // category
			stk.Pop() // key
			stk.Push(newDict())
		case "begincmap":
			stk.Push(newDict())
		case "endcmap":
			stk.Pop()
		case "begincodespacerange":
			n = int(stk.Pop().Int64())
		case "endcodespacerange":
			if n < 0 {
				logger.Debug("cmap: missing begincodespacerange")
				ok = false
				return
			}
			for i := 0; i < n; i++ {
				hi, lo := stk.Pop().RawString(), stk.Pop().RawString()
				if len(lo) == 0 || len(lo) > 4 || len(lo) != len(hi) {
					logger.Debug("cmap: bad codespace range")
					ok = false
					return
				}
				m.space[len(lo)-1] = append(m.space[len(lo)-1], byteRange{lo, hi})
			}
			n = -1
		case "beginbfchar":
			n = int(stk.Pop().Int64())
		case "endbfchar":
			if n < 0 {
				logger.Debug("cmap: missing beginbfchar")
				ok = false
				return
			}
			for i := 0; i < n; i++ {
				repl, orig := stk.Pop().RawString(), stk.Pop().RawString()
				m.bfchar = append(m.bfchar, bfchar{orig, repl})
			}
			n = -1
		case "beginbfrange":
			n = int(stk.Pop().Int64())
		case "endbfrange":
			if n < 0 {
				logger.Debug("cmap: missing beginbfrange")
				ok = false
				return
			}
			for i := 0; i < n; i++ {
				dst, srcHi, srcLo := stk.Pop(), stk.Pop().RawString(), stk.Pop().RawString()
				m.bfrange = append(m.bfrange, bfrange{srcLo, srcHi, dst})
			}
			n = -1
		case "defineresource":
			stk.Pop() // category
			value := stk.Pop()
			stk.Pop() // key
			stk.Push(value)
		default:
			if DebugOn {
				logger.Debug(fmt.Sprintf("cmap: ignoring %s", op))
			}
		}
	})
	if err != nil {
		logger.Debug(fmt.Sprintf("cmap: %v", err))
		return nil
	}
	if !ok {
		return nil
	}
	return &m
}

type matrix [3][3]float64

var ident = matrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

func (x matrix) mul(y matrix) matrix {
	var z matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				z[i][j] += x[i][k] * y[k][j]
			}
		}
	}
	return z
}

// A GlyphRun is one shown string: the text of a single Tj, ' or " operator,
// or of a whole TJ array, placed in page space.
type GlyphRun struct {
	Text   string  // decoded UTF-8 text
	Font   string  // base font name, subset prefix removed
	X      float64 // baseline origin, points from the left edge
	Y      float64 // baseline, points from the bottom edge
	Width  float64 // advance of the whole run, in points
	Height float64 // rendered font size, in points
}

type gstate struct {
	Tc    float64
	Tw    float64
	Th    float64
	Tl    float64
	Tf    Font
	Tfs   float64
	Tmode int
	Trise float64
	Tm    matrix
	Tlm   matrix
	CTM   matrix
}

// textRenderer accumulates glyph runs while the content stream is interpreted.
type textRenderer struct {
	page  Page
	g     gstate
	fonts map[string]*Font
	enc   TextEncoding
	runs  []GlyphRun

	// the run being built for the current show operator
	cur     *GlyphRun
	curText strings.Builder
}

func (t *textRenderer) setFont(fontName string, size float64) {
	f, ok := t.fonts[fontName]
	if !ok {
		font := t.page.Font(fontName)
		f = &font
		t.fonts[fontName] = f
	}
	t.enc = f.Encoder()
	t.g.Tf = *f
	t.g.Tfs = size
}

func (t *textRenderer) renderMatrix() matrix {
	g := &t.g
	return matrix{{g.Tfs * g.Th, 0, 0}, {0, g.Tfs, 0}, {0, g.Trise, 1}}.mul(g.Tm).mul(g.CTM)
}

// begin opens a run positioned at the current text matrix.
func (t *textRenderer) begin() {
	trm := t.renderMatrix()
	f := t.g.Tf.BaseFont()
	if i := strings.Index(f, "+"); i >= 0 {
		f = f[i+1:]
	}
	t.cur = &GlyphRun{
		Font:   f,
		X:      trm[2][0],
		Y:      trm[2][1],
		Height: math.Hypot(trm[1][0], trm[1][1]),
	}
	t.curText.Reset()
}

// show appends the glyphs of s to the open run and advances the text matrix.
func (t *textRenderer) show(s string) {
	if t.cur == nil {
		t.begin()
	}
	g := &t.g
	startX := t.renderMatrix()[2][0]
	t.curText.WriteString(t.enc.Decode(s))
	for i := 0; i < len(s); i++ {
		w0 := g.Tf.Width(int(s[i]))
		tx := w0/1000*g.Tfs + g.Tc
		if s[i] == ' ' {
			tx += g.Tw
		}
		tx *= g.Th
		g.Tm = matrix{{1, 0, 0}, {0, 1, 0}, {tx, 0, 1}}.mul(g.Tm)
	}
	t.cur.Width += t.renderMatrix()[2][0] - startX
}

// shift applies a TJ position adjustment, in thousandths of text space.
func (t *textRenderer) shift(adj float64) {
	g := &t.g
	tx := -adj / 1000 * g.Tfs * g.Th
	g.Tm = matrix{{1, 0, 0}, {0, 1, 0}, {tx, 0, 1}}.mul(g.Tm)
}

// end closes the open run.
func (t *textRenderer) end() {
	if t.cur == nil {
		return
	}
	t.cur.Text = t.curText.String()
	t.runs = append(t.runs, *t.cur)
	t.cur = nil
}

func (t *textRenderer) nextLine() {
	x := matrix{{1, 0, 0}, {0, 1, 0}, {0, -t.g.Tl, 1}}
	t.g.Tlm = x.mul(t.g.Tlm)
	t.g.Tm = t.g.Tlm
}

func argMatrix(args []Value) matrix {
	var m matrix
	for i := 0; i < 6; i++ {
		m[i/2][i%2] = args[i].Float64()
	}
	m[2][2] = 1
	return m
}

// GlyphRuns interprets the page content and returns the shown strings in
// stream order. A page without content yields no runs. A content stream
// that cannot be interpreted returns the runs seen before the failure
// together with the error.
func (p Page) GlyphRuns() ([]GlyphRun, error) {
	if p.V.IsNull() || p.V.Key("Contents").Kind() == Null {
		return nil, nil
	}
	t := &textRenderer{
		page:  p,
		g:     gstate{Th: 1, Tm: ident, Tlm: ident, CTM: ident},
		fonts: make(map[string]*Font),
		enc:   &nopEncoder{},
	}

	var gstack []gstate
	err := Interpret(p.V.Key("Contents"), func(stk *Stack, op string) {
		n := stk.Len()
		args := make([]Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}
		need := func(k int) {
			if len(args) != k {
				panic(fmt.Errorf("bad %s operator: %d operands", op, len(args)))
			}
		}

		switch op {
		default:
			return

		case "cm": // update CTM
			need(6)
			t.g.CTM = argMatrix(args).mul(t.g.CTM)

		case "q": // save graphics state
			gstack = append(gstack, t.g)

		case "Q": // restore graphics state
			if len(gstack) == 0 {
				return
			}
			n := len(gstack) - 1
			t.g = gstack[n]
			gstack = gstack[:n]
			t.enc = t.g.Tf.Encoder()

		case "BT": // begin text (reset text matrix and line matrix)
			t.g.Tm = ident
			t.g.Tlm = ident

		case "ET": // end text

		case "T*": // move to start of next line
			t.nextLine()

		case "Tc": // set character spacing
			need(1)
			t.g.Tc = args[0].Float64()

		case "TD": // move text position and set leading
			need(2)
			t.g.Tl = -args[1].Float64()
			fallthrough
		case "Td": // move text position
			need(2)
			x := matrix{{1, 0, 0}, {0, 1, 0}, {args[0].Float64(), args[1].Float64(), 1}}
			t.g.Tlm = x.mul(t.g.Tlm)
			t.g.Tm = t.g.Tlm

		case "Tf": // set text font and size
			need(2)
			t.setFont(args[0].Name(), args[1].Float64())

		case "\"": // set spacing, move to next line, and show text
			need(3)
			t.g.Tw = args[0].Float64()
			t.g.Tc = args[1].Float64()
			args = args[2:]
			fallthrough
		case "'": // move to next line and show text
			if len(args) != 1 {
				panic(fmt.Errorf("bad %s operator: %d operands", op, len(args)))
			}
			t.nextLine()
			fallthrough
		case "Tj": // show text
			if len(args) != 1 {
				panic(fmt.Errorf("bad %s operator: %d operands", op, len(args)))
			}
			t.begin()
			t.show(args[0].RawString())
			t.end()

		case "TJ": // show text, allowing individual glyph positioning
			need(1)
			v := args[0]
			t.begin()
			for i := 0; i < v.Len(); i++ {
				x := v.Index(i)
				if x.Kind() == String {
					t.show(x.RawString())
				} else {
					t.shift(x.Float64())
				}
			}
			t.end()

		case "TL": // set text leading
			need(1)
			t.g.Tl = args[0].Float64()

		case "Tm": // set text matrix and line matrix
			need(6)
			m := argMatrix(args)
			t.g.Tm = m
			t.g.Tlm = m

		case "Tr": // set text rendering mode
			need(1)
			t.g.Tmode = int(args[0].Int64())

		case "Ts": // set text rise
			need(1)
			t.g.Trise = args[0].Float64()

		case "Tw": // set word spacing
			need(1)
			t.g.Tw = args[0].Float64()

		case "Tz": // set horizontal text scaling
			need(1)
			t.g.Th = args[0].Float64() / 100
		}
	})
	if err != nil {
		return t.runs, fmt.Errorf("page %s: %w", objfmt(p.V.ptr), err)
	}
	return t.runs, nil
}
