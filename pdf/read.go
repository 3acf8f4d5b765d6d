// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package pdf reads the object graph of a PDF file.
//
// # Overview
//
// A PDF is a data structure built from Values, each of which has one of the
// following Kinds:
//
//	Null, for the null object.
//	Integer, for an integer.
//	Real, for a floating-point number.
//	Bool, for a boolean value.
//	Name, for a name constant (as in /Helvetica).
//	String, for a string constant.
//	Dict, for a dictionary of name-value pairs.
//	Array, for an array of values.
//	Stream, for an opaque data stream and associated header dictionary.
//
// The accessors on Value return a view of the data as the given type. When
// there is no appropriate view, the accessor returns a zero result: a missing
// dictionary key, a dangling reference or a value of the wrong kind all come
// back as the null Value. Lookups can therefore be chained
// (page.Resources().Key("XObject").Key("Im1")) and absence at any hop simply
// propagates to the end of the chain.
//
// The Page and Font wrappers interpret specific dictionaries. Page also runs
// the content stream interpreter that produces positioned glyph runs.
package pdf

import (
	"bytes"
	"compress/zlib"
	"encoding/ascii85"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sassoftware/pdf-portfolio-xtract/logger"
)

// DebugOn enables verbose interpreter output.
var DebugOn = false

// A Reader is a single PDF file open for reading.
type Reader struct {
	f          io.ReaderAt
	end        int64
	xref       []xref
	trailer    dict
	trailerptr objptr
}

type xref struct {
	ptr      objptr
	inStream bool
	stream   objptr
	offset   int64
}

// Open opens the named file and prepares it for reading. The caller owns the
// returned file and must close it once the Reader is no longer used.
func Open(file string) (*os.File, *Reader, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	logger.Debug(fmt.Sprintf("document: file=%s opened (size=%d)", file, fi.Size()), true)
	reader, err := NewReader(f, fi.Size())
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, reader, nil
}

// NewReader opens a file for reading, using the data in f with the given total size.
func NewReader(f io.ReaderAt, size int64) (*Reader, error) {
	if err := CheckHeader(f); err != nil {
		return nil, err
	}
	if err := ValidateEOFMarker(f, size); err != nil {
		return nil, err
	}
	startxref, err := FindStartXref(f, size)
	if err != nil {
		return nil, err
	}

	r := &Reader{f: f, end: size}
	b := newBuffer(io.NewSectionReader(r.f, startxref, r.end-startxref), startxref)
	xref, trailerptr, trailer, err := readXref(r, b)
	if err != nil {
		return nil, err
	}
	r.xref = xref
	r.trailer = trailer
	r.trailerptr = trailerptr
	logger.Debug(fmt.Sprintf("xref: %d entries, startxref=%d", len(xref), startxref), true)

	return r, nil
}

// CheckHeader validates the PDF header at the beginning of the file.
// It ensures the file starts with "%PDF-x.y" and the version is within 1.0–1.7 or 2.0.
// A few bytes of leading garbage (a BOM, for instance) are tolerated.
func CheckHeader(f io.ReaderAt) error {
	buf := make([]byte, 32)
	n, err := f.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return fmt.Errorf("not a PDF file: read error: %w", err)
	}
	if n == 0 {
		return errors.New("not a PDF file: empty")
	}
	buf = buf[:n]
	p := bytes.Index(buf, []byte("%PDF-"))
	if p < 0 {
		return errors.New("not a PDF file: missing %PDF- header")
	}

	line := buf[p:]
	if end := bytes.IndexAny(line, "\r\n"); end >= 0 {
		line = line[:end]
	}
	line = bytes.TrimRight(line, " \t\x00")

	var major, minor int
	if _, err := fmt.Sscanf(string(line), "%%PDF-%d.%d", &major, &minor); err != nil {
		return fmt.Errorf("not a PDF file: malformed version %q", line)
	}
	if !((major == 1 && minor >= 0 && minor <= 7) || (major == 2 && minor == 0)) {
		return fmt.Errorf("unsupported PDF version %d.%d", major, minor)
	}
	logger.Debug(fmt.Sprintf("header: PDF-%d.%d", major, minor), true)
	return nil
}

// ValidateEOFMarker checks the last chunk of the file for the "%%EOF" marker.
func ValidateEOFMarker(f io.ReaderAt, size int64) error {
	buf, err := tail(f, size, 1024)
	if err != nil {
		return err
	}
	buf = bytes.TrimRight(buf, "\r\n\t \x00")
	if !bytes.HasSuffix(buf, []byte("%%EOF")) {
		return errors.New("not a PDF file: missing %%EOF")
	}
	return nil
}

// FindStartXref locates and parses the "startxref" pointer near the end of the file.
// Returns the byte offset where the cross-reference table/stream begins.
func FindStartXref(f io.ReaderAt, size int64) (int64, error) {
	buf, err := tail(f, size, 1024)
	if err != nil {
		return 0, err
	}
	i := findLastLine(buf, "startxref")
	if i < 0 {
		return 0, errors.New("malformed PDF file: missing final startxref")
	}
	pos := size - int64(len(buf)) + int64(i)
	b := newBuffer(io.NewSectionReader(f, pos, size-pos), pos)

	if tok := b.readToken(); tok != keyword("startxref") {
		return 0, fmt.Errorf("malformed PDF file: missing startxref: %v", tok)
	}
	startxref, ok := b.readToken().(int64)
	if !ok {
		return 0, errors.New("malformed PDF file: startxref not followed by integer")
	}
	if startxref < 0 || startxref >= size {
		return 0, fmt.Errorf("malformed PDF file: startxref %d out of range", startxref)
	}
	return startxref, nil
}

// tail returns up to n bytes from the end of f.
func tail(f io.ReaderAt, size int64, n int64) ([]byte, error) {
	if size <= 0 {
		return nil, errors.New("not a PDF file: empty")
	}
	if n > size {
		n = size
	}
	buf := make([]byte, n)
	m, err := f.ReadAt(buf, size-n)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read error: %w", err)
	}
	return buf[:m], nil
}

// Trailer returns the file's Trailer value.
func (r *Reader) Trailer() Value {
	return Value{r, r.trailerptr, r.trailer}
}

func readXref(r *Reader, b *buffer) ([]xref, objptr, dict, error) {
	tok := b.readToken()
	if tok == keyword("xref") {
		return readXrefTable(r, b)
	}
	if _, ok := tok.(int64); ok {
		b.unreadToken(tok)
		return readXrefStream(r, b)
	}
	return nil, objptr{}, nil, fmt.Errorf("malformed PDF: cross-reference table nor stream found: %v", tok)
}

func readXrefStream(r *Reader, b *buffer) ([]xref, objptr, dict, error) {
	strmptr, strm, err := parseXrefStreamObject(b)
	if err != nil {
		return nil, objptr{}, nil, err
	}
	size, err := xrefSize(strm)
	if err != nil {
		return nil, objptr{}, nil, err
	}
	table := make([]xref, size)
	table, err = readXrefStreamData(r, strm, table, size)
	if err != nil {
		return nil, objptr{}, nil, fmt.Errorf("malformed PDF: %w", err)
	}
	table, err = mergePrevXrefStreams(r, strm, table, size)
	if err != nil {
		return nil, objptr{}, nil, err
	}
	return table, strmptr, strm.hdr, nil
}

// parseXrefStreamObject reads one object from b and checks it is an /XRef stream.
func parseXrefStreamObject(b *buffer) (ptr objptr, strm stream, err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("malformed PDF: reading xref stream: %v", e)
		}
	}()
	obj := b.readObject()
	od, ok := obj.(objdef)
	if !ok {
		return objptr{}, stream{}, fmt.Errorf("malformed PDF: objdef not found: %v", objfmt(obj))
	}
	strm, ok = od.obj.(stream)
	if !ok {
		return objptr{}, stream{}, fmt.Errorf("malformed PDF: cross-reference stream not found: %v", objfmt(od))
	}
	if strm.hdr["Type"] != name("XRef") {
		return objptr{}, stream{}, errors.New("malformed PDF: xref stream does not have type XRef")
	}
	return od.ptr, strm, nil
}

func xrefSize(strm stream) (int64, error) {
	if size, ok := strm.hdr["Size"].(int64); ok {
		return size, nil
	}
	return 0, errors.New("malformed PDF: xref stream missing Size")
}

// mergePrevXrefStreams follows the /Prev chain, merging each older stream.
func mergePrevXrefStreams(r *Reader, cur stream, table []xref, maxSize int64) ([]xref, error) {
	for prevoff := cur.hdr["Prev"]; prevoff != nil; {
		off, ok := prevoff.(int64)
		if !ok {
			return nil, fmt.Errorf("malformed PDF: xref Prev is not integer: %v", prevoff)
		}
		b := newBuffer(io.NewSectionReader(r.f, off, r.end-off), off)
		_, prevStrm, err := parseXrefStreamObject(b)
		if err != nil {
			return nil, err
		}
		prevoff = prevStrm.hdr["Prev"]
		psize, _ := prevStrm.hdr["Size"].(int64)
		if psize > maxSize {
			return nil, errors.New("malformed PDF: xref prev stream larger than last stream")
		}
		table, err = readXrefStreamData(r, prevStrm, table, psize)
		if err != nil {
			return nil, fmt.Errorf("malformed PDF: reading xref prev stream: %w", err)
		}
	}
	return table, nil
}

func readXrefStreamData(r *Reader, strm stream, table []xref, size int64) ([]xref, error) {
	index, _ := strm.hdr["Index"].(array)
	if index == nil {
		index = array{int64(0), size}
	}
	if len(index)%2 != 0 {
		return nil, fmt.Errorf("invalid Index array %v", objfmt(index))
	}

	ww, ok := strm.hdr["W"].(array)
	if !ok {
		return nil, errors.New("xref stream missing W array")
	}
	var w []int
	for _, x := range ww {
		i, ok := x.(int64)
		if !ok || int64(int(i)) != i {
			return nil, fmt.Errorf("invalid W array %v", objfmt(ww))
		}
		w = append(w, int(i))
	}
	if len(w) < 3 {
		return nil, fmt.Errorf("invalid W array %v", objfmt(ww))
	}

	v := Value{r, objptr{}, strm}
	buf := make([]byte, w[0]+w[1]+w[2])
	data := v.Reader()
	defer data.Close()
	for len(index) > 0 {
		start, ok1 := index[0].(int64)
		n, ok2 := index[1].(int64)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("malformed Index pair %v %v", objfmt(index[0]), objfmt(index[1]))
		}
		index = index[2:]
		for i := 0; i < int(n); i++ {
			if _, err := io.ReadFull(data, buf); err != nil {
				return nil, fmt.Errorf("error reading xref stream: %w", err)
			}
			v1 := decodeInt(buf[0:w[0]])
			if w[0] == 0 {
				v1 = 1
			}
			v2 := decodeInt(buf[w[0] : w[0]+w[1]])
			v3 := decodeInt(buf[w[0]+w[1] : w[0]+w[1]+w[2]])
			x := int(start) + i
			table = ensureLen(table, x+1)
			if table[x].ptr != (objptr{}) {
				continue
			}
			switch v1 {
			case 0:
				table[x] = xref{ptr: objptr{0, 65535}}
			case 1:
				table[x] = xref{ptr: objptr{uint32(x), uint16(v3)}, offset: int64(v2)}
			case 2:
				table[x] = xref{ptr: objptr{uint32(x), 0}, inStream: true, stream: objptr{uint32(v2), 0}, offset: int64(v3)}
			default:
				logger.Debug(fmt.Sprintf("invalid xref stream type %d: %x", v1, buf))
			}
		}
	}
	return table, nil
}

func decodeInt(b []byte) int {
	x := 0
	for _, c := range b {
		x = x<<8 | int(c)
	}
	return x
}

func readXrefTable(r *Reader, b *buffer) ([]xref, objptr, dict, error) {
	table, trailer, err := parseXrefTableAndTrailer(b, nil)
	if err != nil {
		return nil, objptr{}, nil, err
	}

	// Hybrid files keep newer entries in an xref stream named by the trailer.
	table, trailer, err = r.handleTrailerXRefStm(table, trailer)
	if err != nil {
		logger.Debug(fmt.Sprintf("XRefStm handling failed, falling back to Prev chain: %v", err))
	}

	table, trailer, err = resolvePrevXrefTables(r, trailer, table)
	if err != nil {
		return nil, objptr{}, nil, err
	}
	if err := validateTrailerSize(&table, trailer); err != nil {
		return nil, objptr{}, nil, err
	}
	return table, objptr{}, trailer, nil
}

// parseXrefTableAndTrailer parses a single xref table section
// and the trailer dictionary that follows it.
func parseXrefTableAndTrailer(b *buffer, table []xref) (_ []xref, _ dict, err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("malformed PDF: %v", e)
		}
	}()
	table, err = readXrefTableData(b, table)
	if err != nil {
		return nil, nil, fmt.Errorf("malformed PDF: %w", err)
	}
	trailer, ok := b.readObject().(dict)
	if !ok {
		return nil, nil, errors.New("malformed PDF: xref table not followed by trailer dictionary")
	}
	return table, trailer, nil
}

func resolvePrevXrefTables(r *Reader, trailer dict, table []xref) ([]xref, dict, error) {
	// The newest trailer wins; older ones only contribute xref entries.
	newest := trailer
	for prevoff := trailer[name("Prev")]; prevoff != nil; {
		off, ok := prevoff.(int64)
		if !ok {
			return nil, nil, fmt.Errorf("malformed PDF: xref Prev is not integer: %v", prevoff)
		}
		b := newBuffer(io.NewSectionReader(r.f, off, r.end-off), off)
		if tok := b.readToken(); tok != keyword("xref") {
			return nil, nil, errors.New("malformed PDF: xref Prev does not point to xref")
		}
		var err error
		table, trailer, err = parseXrefTableAndTrailer(b, table)
		if err != nil {
			return nil, nil, err
		}
		table, trailer, err = r.handleTrailerXRefStm(table, trailer)
		if err != nil {
			logger.Debug(fmt.Sprintf("XRefStm handling failed in Prev chain: %v", err))
		}
		prevoff = trailer[name("Prev")]
	}
	return table, newest, nil
}

// validateTrailerSize trims the xref table to the declared /Size in trailer.
func validateTrailerSize(table *[]xref, trailer dict) error {
	size, ok := trailer[name("Size")].(int64)
	if !ok {
		return errors.New("malformed PDF: trailer missing /Size entry")
	}
	if size < int64(len(*table)) {
		*table = (*table)[:size]
	}
	return nil
}

// ensureLen makes sure s has length at least n (growing capacity if needed)
// and returns the possibly-reallocated slice.
func ensureLen[T any](s []T, n int) []T {
	if n <= len(s) {
		return s
	}
	if cap(s) < n {
		ns := make([]T, n)
		copy(ns, s)
		return ns
	}
	return s[:n]
}

// setIfEmpty sets table[x] to val only if the slot is currently empty.
func setIfEmpty(table *[]xref, x int, val xref) {
	if x < 0 {
		return
	}
	*table = ensureLen(*table, x+1)
	if (*table)[x].ptr == (objptr{}) {
		(*table)[x] = val
	}
}

func readXrefTableData(b *buffer, table []xref) ([]xref, error) {
	for {
		tok := b.readToken()
		if tok == keyword("trailer") {
			break
		}
		start, ok1 := tok.(int64)
		count, ok2 := b.readToken().(int64)
		if !ok1 || !ok2 || start < 0 || count < 0 {
			return nil, errors.New("malformed xref table subsection header")
		}
		for i := 0; i < int(count); i++ {
			off, okOff := b.readToken().(int64)
			gen, okGen := b.readToken().(int64)
			alloc, okAlloc := b.readToken().(keyword)
			if !okOff || !okGen || !okAlloc {
				return nil, fmt.Errorf("malformed xref entry at subsection starting %d", start)
			}

			idx := int(start) + i
			switch alloc {
			case keyword("n"):
				setIfEmpty(&table, idx, xref{ptr: objptr{uint32(idx), uint16(gen)}, offset: off})
			case keyword("f"):
				table = ensureLen(table, idx+1)
			default:
				return nil, fmt.Errorf("malformed xref table: unexpected alloc token %v", alloc)
			}
		}
	}
	return table, nil
}

// mergeXrefTables merges src into dest using conservative rules:
// - extend dest if src bigger
// - if dest empty => accept src
// - if both in-use => prefer src (stream authoritative)
func mergeXrefTables(dest []xref, src []xref) []xref {
	dest = ensureLen(dest, len(src))
	for i, s := range src {
		if s.ptr == (objptr{}) {
			continue
		}
		d := dest[i]
		if d.ptr == (objptr{}) {
			dest[i] = s
			continue
		}
		if d.ptr.gen != 65535 && s.ptr.gen != 65535 {
			dest[i] = s
		}
	}
	return dest
}

var objHeaderRE = regexp.MustCompile(`^\d+\s+\d+\s+obj\b`)

// isLikelyObjectAt performs a lightweight check whether an object header or dict begins at off.
func (r *Reader) isLikelyObjectAt(off int64) bool {
	if off < 0 || off >= r.end {
		return false
	}
	buf := make([]byte, 64)
	n, err := r.f.ReadAt(buf, off)
	if err != nil && err != io.EOF || n == 0 {
		return false
	}
	s := strings.TrimLeft(string(buf[:n]), " \t\r\n")
	return objHeaderRE.MatchString(s) || strings.HasPrefix(s, "<<")
}

// scanForObjectAt searches a +-window around approx for "<id> <gen> obj" and returns found offset or -1.
func (r *Reader) scanForObjectAt(id uint32, gen uint16, approx int64, window int64) int64 {
	start := max(approx-window, 0)
	end := min(approx+window, r.end)
	if end <= start {
		return -1
	}
	buf := make([]byte, end-start)
	n, err := r.f.ReadAt(buf, start)
	if err != nil && err != io.EOF {
		return -1
	}
	re := regexp.MustCompile(fmt.Sprintf(`\b%d\s+%d\s+obj\b`, id, gen))
	loc := re.FindIndex(buf[:n])
	if loc == nil {
		return -1
	}
	return start + int64(loc[0])
}

// validateAndRepairXrefEntries checks offsets in table and tries to repair with a small-window scan.
func (r *Reader) validateAndRepairXrefEntries(table []xref) (repaired int, invalid int) {
	for i, ent := range table {
		if ent.ptr == (objptr{}) || ent.offset == 0 || ent.inStream {
			continue
		}
		if r.isLikelyObjectAt(ent.offset) {
			continue
		}
		if found := r.scanForObjectAt(ent.ptr.id, ent.ptr.gen, ent.offset, 1024); found >= 0 {
			table[i].offset = found
			repaired++
			continue
		}
		invalid++
	}
	return repaired, invalid
}

// handleTrailerXRefStm merges the xref stream named by a hybrid trailer's
// /XRefStm entry. A stream with too many unrepairable offsets is rejected.
func (r *Reader) handleTrailerXRefStm(table []xref, trailer dict) ([]xref, dict, error) {
	xrefstm := trailer[name("XRefStm")]
	if xrefstm == nil {
		return table, trailer, nil
	}
	off, ok := xrefstm.(int64)
	if !ok {
		return table, trailer, fmt.Errorf("malformed PDF: XRefStm not integer: %v", xrefstm)
	}
	b := newBuffer(io.NewSectionReader(r.f, off, r.end-off), off)
	srcTable, _, _, err := readXrefStream(r, b)
	if err != nil {
		return table, trailer, fmt.Errorf("failed to parse XRefStm at %d: %w", off, err)
	}
	_, invalid := r.validateAndRepairXrefEntries(srcTable)

	total := 0
	for _, e := range srcTable {
		if e.ptr != (objptr{}) {
			total++
		}
	}
	if total > 0 && float64(invalid)/float64(total) > 0.30 {
		return table, trailer, fmt.Errorf("xref stream at %d appears invalid: %d/%d invalid entries", off, invalid, total)
	}
	return mergeXrefTables(table, srcTable), trailer, nil
}

// findLastLine returns the offset of the last s in buf that is followed by
// optional whitespace ending in CR or LF, or -1. Producers often leave
// spaces, tabs or NULs between "startxref" and the line break.
func findLastLine(buf []byte, s string) int {
	for end := len(buf); end > 0; {
		i := bytes.LastIndex(buf[:end], []byte(s))
		if i < 0 {
			return -1
		}
		j := i + len(s)
		for j < len(buf) && isWhitespace(buf[j]) {
			j++
		}
		if j > i+len(s) && (buf[j-1] == '\n' || buf[j-1] == '\r') {
			return i
		}
		end = i
	}
	return -1
}

// isWhitespace reports whether b is PDF whitespace (ISO 32000-1 7.2.2).
func isWhitespace(b byte) bool {
	switch b {
	case 0x00, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

// A Value is a single PDF value, such as an integer, dictionary, or array.
// The zero Value is a PDF null (Kind() == Null, IsNull() = true).
type Value struct {
	r    *Reader
	ptr  objptr
	data interface{}
}

// IsNull reports whether the value is a null. It is equivalent to Kind() == Null.
func (v Value) IsNull() bool {
	return v.data == nil
}

// A ValueKind specifies the kind of data underlying a Value.
type ValueKind int

// The PDF value kinds.
const (
	Null ValueKind = iota
	Bool
	Integer
	Real
	String
	Name
	Dict
	Array
	Stream
)

// Kind reports the kind of value underlying v.
func (v Value) Kind() ValueKind {
	switch v.data.(type) {
	default:
		return Null
	case bool:
		return Bool
	case int64:
		return Integer
	case float64:
		return Real
	case string:
		return String
	case name:
		return Name
	case dict:
		return Dict
	case array:
		return Array
	case stream:
		return Stream
	}
}

// String returns a textual representation of the value v.
// Note that String is not the accessor for values with Kind() == String.
// To access such values, see RawString and Text.
func (v Value) String() string {
	return objfmt(v.data)
}

func objfmt(x interface{}) string {
	switch x := x.(type) {
	default:
		return fmt.Sprint(x)
	case string:
		if isPDFDocEncoded(x) {
			return strconv.Quote(pdfDocDecode(x))
		}
		if isUTF16(x) {
			return strconv.Quote(utf16Decode(x[2:]))
		}
		return strconv.Quote(x)
	case name:
		return "/" + string(x)
	case dict:
		var keys []string
		for k := range x {
			if k != keyOrder {
				keys = append(keys, string(k))
			}
		}
		sort.Strings(keys)
		var buf bytes.Buffer
		buf.WriteString("<<")
		for i, k := range keys {
			if i > 0 {
				buf.WriteString(" ")
			}
			buf.WriteString("/")
			buf.WriteString(k)
			buf.WriteString(" ")
			buf.WriteString(objfmt(x[name(k)]))
		}
		buf.WriteString(">>")
		return buf.String()
	case array:
		var buf bytes.Buffer
		buf.WriteString("[")
		for i, elem := range x {
			if i > 0 {
				buf.WriteString(" ")
			}
			buf.WriteString(objfmt(elem))
		}
		buf.WriteString("]")
		return buf.String()
	case stream:
		return fmt.Sprintf("%v@%d", objfmt(x.hdr), x.offset)
	case objptr:
		return fmt.Sprintf("%d %d R", x.id, x.gen)
	case objdef:
		return fmt.Sprintf("{%d %d obj}%v", x.ptr.id, x.ptr.gen, objfmt(x.obj))
	}
}

// Bool returns v's boolean value.
// If v.Kind() != Bool, Bool returns false.
func (v Value) Bool() bool {
	x, _ := v.data.(bool)
	return x
}

// Int64 returns v's int64 value.
// If v.Kind() != Int64, Int64 returns 0.
func (v Value) Int64() int64 {
	x, _ := v.data.(int64)
	return x
}

// Float64 returns v's float64 value, converting from integer if necessary.
// If v.Kind() != Float64 and v.Kind() != Int64, Float64 returns 0.
func (v Value) Float64() float64 {
	switch x := v.data.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	}
	return 0
}

// RawString returns v's string value.
// If v.Kind() != String, RawString returns the empty string.
func (v Value) RawString() string {
	x, _ := v.data.(string)
	return x
}

// Text returns v's string value interpreted as a “text string” (defined in the PDF spec)
// and converted to UTF-8.
// If v.Kind() != String, Text returns the empty string.
func (v Value) Text() string {
	x, ok := v.data.(string)
	if !ok {
		return ""
	}
	if isPDFDocEncoded(x) {
		return pdfDocDecode(x)
	}
	if isUTF16(x) {
		return utf16Decode(x[2:])
	}
	return x
}

// Name returns v's name value.
// If v.Kind() != Name, Name returns the empty string.
// The returned name does not include the leading slash:
// if v corresponds to the name written using the syntax /Helvetica,
// Name() == "Helvetica".
func (v Value) Name() string {
	x, _ := v.data.(name)
	return string(x)
}

// header returns the dictionary behind v, looking through streams.
func (v Value) header() (dict, bool) {
	switch x := v.data.(type) {
	case dict:
		return x, true
	case stream:
		return x.hdr, true
	}
	return nil, false
}

// Key returns the value associated with the given name key in the dictionary v.
// Like the result of the Name method, the key should not include a leading slash.
// If v is a stream, Key applies to the stream's header dictionary.
// If v.Kind() != Dict and v.Kind() != Stream, Key returns a null Value.
func (v Value) Key(key string) Value {
	x, ok := v.header()
	if !ok {
		return Value{}
	}
	return v.r.resolve(v.ptr, x[name(key)])
}

// Keys returns a sorted list of the keys in the dictionary v.
// If v is a stream, Keys applies to the stream's header dictionary.
// If v.Kind() != Dict and v.Kind() != Stream, Keys returns nil.
func (v Value) Keys() []string {
	x, ok := v.header()
	if !ok {
		return nil
	}
	keys := []string{} // not nil
	for k := range x {
		if k != keyOrder {
			keys = append(keys, string(k))
		}
	}
	sort.Strings(keys)
	return keys
}

// OrderedKeys returns the keys of the dictionary v in the order they were
// written in the file. Keys added after parsing follow in sorted order.
// If v.Kind() != Dict and v.Kind() != Stream, OrderedKeys returns nil.
func (v Value) OrderedKeys() []string {
	x, ok := v.header()
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(x))
	seen := make(map[name]bool, len(x))
	order, _ := x[keyOrder].(array)
	for _, o := range order {
		if n, ok := o.(name); ok && !seen[n] {
			if _, present := x[n]; present {
				keys = append(keys, string(n))
				seen[n] = true
			}
		}
	}
	for _, k := range v.Keys() {
		if !seen[name(k)] {
			keys = append(keys, k)
		}
	}
	return keys
}

// An ObjectID names an indirect object: its object number and generation.
type ObjectID struct {
	Num uint32
	Gen uint16
}

func (id ObjectID) String() string {
	return fmt.Sprintf("%d %d R", id.Num, id.Gen)
}

// RefOf reports the indirect reference stored under key in the dictionary v,
// without resolving it. ok is false when the entry is missing or is a direct
// object.
func (v Value) RefOf(key string) (id ObjectID, ok bool) {
	x, isDict := v.header()
	if !isDict {
		return ObjectID{}, false
	}
	ptr, ok := x[name(key)].(objptr)
	if !ok {
		return ObjectID{}, false
	}
	return ObjectID{ptr.id, ptr.gen}, true
}

// Index returns the i'th element in the array v.
// If v.Kind() != Array or if i is outside the array bounds,
// Index returns a null Value.
func (v Value) Index(i int) Value {
	x, ok := v.data.(array)
	if !ok || i < 0 || i >= len(x) {
		return Value{}
	}
	return v.r.resolve(v.ptr, x[i])
}

// Len returns the length of the array v.
// If v.Kind() != Array, Len returns 0.
func (v Value) Len() int {
	x, _ := v.data.(array)
	return len(x)
}

// resolve dereferences x when it is an indirect reference. A reference that
// cannot be loaded resolves to the null Value.
func (r *Reader) resolve(parent objptr, x interface{}) (v Value) {
	if ptr, ok := x.(objptr); ok {
		if r == nil || ptr.id >= uint32(len(r.xref)) {
			return Value{}
		}
		xref := r.xref[ptr.id]
		if xref.ptr != ptr || !xref.inStream && xref.offset == 0 {
			return Value{}
		}
		defer func() {
			if e := recover(); e != nil {
				logger.Debug(fmt.Sprintf("resolve %v: %v", objfmt(ptr), e))
				v = Value{}
			}
		}()
		if xref.inStream {
			x = r.loadFromObjectStream(parent, ptr, xref.stream)
		} else {
			b := newBuffer(io.NewSectionReader(r.f, xref.offset, r.end-xref.offset), xref.offset)
			def, ok := b.readObject().(objdef)
			if !ok {
				panic(fmt.Errorf("loading %v: no object definition", ptr))
			}
			if def.ptr != ptr {
				panic(fmt.Errorf("loading %v: found %v", ptr, def.ptr))
			}
			x = def.obj
		}
		parent = ptr
	}

	switch x := x.(type) {
	case nil, bool, int64, float64, name, dict, array, stream, string:
		return Value{r, parent, x}
	default:
		panic(fmt.Errorf("unexpected value type %T in resolve", x))
	}
}

// loadFromObjectStream finds object ptr inside the object stream strmptr,
// following /Extends links.
func (r *Reader) loadFromObjectStream(parent, ptr, strmptr objptr) object {
	strm := r.resolve(parent, strmptr)
	for {
		if strm.Kind() != Stream {
			panic("not a stream")
		}
		if strm.Key("Type").Name() != "ObjStm" {
			panic("not an object stream")
		}
		n := int(strm.Key("N").Int64())
		first := strm.Key("First").Int64()
		if first == 0 {
			panic("missing First")
		}
		b := newBuffer(strm.Reader(), 0)
		b.allowEOF = true
		for i := 0; i < n; i++ {
			id, _ := b.readToken().(int64)
			off, _ := b.readToken().(int64)
			if uint32(id) == ptr.id {
				b.seekForward(first + off)
				return b.readObject()
			}
		}
		ext := strm.Key("Extends")
		if ext.Kind() != Stream {
			panic("cannot find object in stream")
		}
		strm = ext
	}
}

type errorReadCloser struct {
	err error
}

func (e *errorReadCloser) Read([]byte) (int, error) {
	return 0, e.err
}

func (e *errorReadCloser) Close() error {
	return e.err
}

// Filters returns the names of the filter stages declared by the stream v,
// in application order. A single /Filter name yields a one-element slice.
func (v Value) Filters() []string {
	filter := v.Key("Filter")
	switch filter.Kind() {
	case Name:
		return []string{filter.Name()}
	case Array:
		out := make([]string, 0, filter.Len())
		for i := 0; i < filter.Len(); i++ {
			out = append(out, filter.Index(i).Name())
		}
		return out
	}
	return nil
}

// RawReader returns the stream payload exactly as stored in the file,
// without applying any filter.
// If v.Kind() != Stream, RawReader returns a ReadCloser that
// responds to all reads with a “stream not present” error.
func (v Value) RawReader() io.ReadCloser {
	x, ok := v.data.(stream)
	if !ok || v.r == nil {
		return &errorReadCloser{errors.New("stream not present")}
	}
	return io.NopCloser(io.NewSectionReader(v.r.f, x.offset, v.Key("Length").Int64()))
}

// Reader returns the data contained in the stream v with every filter stage
// applied. Unknown filters produce a reader that fails on first use.
func (v Value) Reader() io.ReadCloser {
	return v.DecodeUntil(-1)
}

// DecodeUntil returns the stream data with only the first n filter stages
// applied. A negative n applies all of them.
func (v Value) DecodeUntil(n int) io.ReadCloser {
	rd := v.RawReader()
	if _, ok := rd.(*errorReadCloser); ok {
		return rd
	}
	filters := v.Filters()
	if n < 0 || n > len(filters) {
		n = len(filters)
	}
	params := v.Key("DecodeParms")
	var r io.Reader = rd
	for i := 0; i < n; i++ {
		param := params
		if params.Kind() == Array {
			param = params.Index(i)
		}
		var err error
		if r, err = applyFilter(r, filters[i], param); err != nil {
			return &errorReadCloser{err}
		}
	}
	return io.NopCloser(r)
}

func applyFilter(rd io.Reader, name string, param Value) (io.Reader, error) {
	switch name {
	default:
		return nil, fmt.Errorf("unsupported filter %s", name)
	case "FlateDecode":
		zr, err := zlib.NewReader(rd)
		if err != nil {
			return nil, fmt.Errorf("FlateDecode: %w", err)
		}
		pred := param.Key("Predictor")
		if pred.Kind() == Null || pred.Int64() == 1 {
			return zr, nil
		}
		columns := param.Key("Columns").Int64()
		if columns == 0 {
			columns = 1
		}
		switch pred.Int64() {
		case 12:
			return &pngUpReader{r: zr, hist: make([]byte, 1+columns), tmp: make([]byte, 1+columns)}, nil
		}
		return nil, fmt.Errorf("unsupported predictor %d", pred.Int64())
	case "ASCII85Decode":
		return ascii85.NewDecoder(newAlphaReader(rd)), nil
	}
}

type pngUpReader struct {
	r    io.Reader
	hist []byte
	tmp  []byte
	pend []byte
}

func (r *pngUpReader) Read(b []byte) (int, error) {
	n := 0
	for len(b) > 0 {
		if len(r.pend) > 0 {
			m := copy(b, r.pend)
			n += m
			b = b[m:]
			r.pend = r.pend[m:]
			continue
		}
		_, err := io.ReadFull(r.r, r.tmp)
		if err != nil {
			return n, err
		}
		if r.tmp[0] != 2 {
			return n, fmt.Errorf("malformed PNG-Up encoding: row filter %d", r.tmp[0])
		}
		for i, b := range r.tmp {
			r.hist[i] += b
		}
		r.pend = r.hist[1:]
	}
	return n, nil
}

// alphaReader filters an ASCII85 payload down to the characters the
// decoder accepts and stops at the "~>" end marker.
type alphaReader struct {
	r    io.Reader
	done bool
}

func newAlphaReader(r io.Reader) *alphaReader {
	return &alphaReader{r: r}
}

func (a *alphaReader) Read(p []byte) (int, error) {
	for {
		if a.done {
			return 0, io.EOF
		}
		n, err := a.r.Read(p)
		j := 0
		for i := 0; i < n; i++ {
			c := p[i]
			if c == '~' {
				a.done = true
				break
			}
			if '!' <= c && c <= 'u' || c == 'z' {
				p[j] = c
				j++
			}
		}
		if j > 0 {
			return j, nil
		}
		if err != nil {
			return 0, err
		}
	}
}
