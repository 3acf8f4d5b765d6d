// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdf

import (
	"bytes"
	"fmt"
	"io"
)

// A Stack represents a stack of values.
type Stack struct {
	stack []Value
}

// Len returns the number of values on the stack.
func (stk *Stack) Len() int {
	return len(stk.stack)
}

// Push pushes v onto the stack.
func (stk *Stack) Push(v Value) {
	stk.stack = append(stk.stack, v)
}

// Pop removes and returns the top value. An empty stack yields the null Value.
func (stk *Stack) Pop() Value {
	n := len(stk.stack)
	if n == 0 {
		return Value{}
	}
	v := stk.stack[n-1]
	stk.stack[n-1] = Value{}
	stk.stack = stk.stack[:n-1]
	return v
}

func newDict() Value {
	return Value{nil, objptr{}, make(dict)}
}

// contentReader returns the decoded bytes of a content stream. An array of
// streams is read as their concatenation, one line break between parts.
func contentReader(strm Value) io.Reader {
	if strm.Kind() != Array {
		return strm.Reader()
	}
	var parts []io.Reader
	for i := 0; i < strm.Len(); i++ {
		part := strm.Index(i)
		if part.Kind() != Stream {
			continue
		}
		parts = append(parts, part.Reader(), bytes.NewReader([]byte{'\n'}))
	}
	return io.MultiReader(parts...)
}

// Interpret interprets the content in a stream as a basic PostScript program,
// pushing values onto a stack and then calling the do function to execute
// operators. The do function may push or pop values from the stack as needed
// to implement op.
//
// Interpret handles the operators "dict", "currentdict", "begin", "end", "def", and "pop" itself.
// Inline images (BI ... ID ... EI) are skipped.
//
// A malformed stream stops interpretation; the failure is returned and
// whatever do consumed so far is kept.
func Interpret(strm Value, do func(stk *Stack, op string)) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("interpret: %v", e)
		}
	}()

	b := newBuffer(contentReader(strm), 0)
	b.allowEOF = true
	b.allowObjptr = false
	b.allowStream = false
	var stk Stack
	var dicts []dict
Reading:
	for {
		tok := b.readToken()
		if tok == io.EOF {
			break
		}
		if kw, ok := tok.(keyword); ok {
			switch kw {
			case "null", "[", "]", "<<", ">>":
				// parsed as objects below
			case "BI":
				b.skipInlineImage()
				continue
			case "dict":
				stk.Pop()
				stk.Push(newDict())
				continue
			case "currentdict":
				if len(dicts) == 0 {
					panic("no current dictionary")
				}
				stk.Push(Value{nil, objptr{}, dicts[len(dicts)-1]})
				continue
			case "begin":
				d := stk.Pop()
				if d.Kind() != Dict {
					panic("cannot begin non-dict")
				}
				dicts = append(dicts, d.data.(dict))
				continue
			case "end":
				if len(dicts) == 0 {
					panic("mismatched begin/end")
				}
				dicts = dicts[:len(dicts)-1]
				continue
			case "def":
				if len(dicts) == 0 {
					panic("def without open dict")
				}
				val := stk.Pop()
				key, ok := stk.Pop().data.(name)
				if !ok {
					panic("def of non-name")
				}
				dicts[len(dicts)-1][key] = val.data
				continue
			case "pop":
				stk.Pop()
				continue
			default:
				for i := len(dicts) - 1; i >= 0; i-- {
					if v, ok := dicts[i][name(kw)]; ok {
						stk.Push(Value{nil, objptr{}, v})
						continue Reading
					}
				}
				do(&stk, string(kw))
				continue
			}
		}
		b.unreadToken(tok)
		obj := b.readObject()
		stk.Push(Value{nil, objptr{}, obj})
	}
	return nil
}

// skipInlineImage discards an inline image body up to and including its EI
// operator.
func (b *buffer) skipInlineImage() {
	for {
		tok := b.readToken()
		if tok == io.EOF {
			return
		}
		if tok == keyword("ID") {
			break
		}
	}
	// One whitespace byte separates ID from the data.
	b.readByte()
	var prev [2]byte
	for !b.eof {
		c := b.readByte()
		if prev[0] == 'E' && prev[1] == 'I' && isSpace(c) {
			return
		}
		prev[0], prev[1] = prev[1], c
	}
}
