// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package layout groups the glyph runs of a page into logical lines.
package layout

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/sassoftware/pdf-portfolio-xtract/pdf"
)

// DefaultThreshold is the baseline distance, in points, beyond which two
// consecutive runs belong to different lines.
const DefaultThreshold = 5.0

// A Line is a run of text sharing one baseline.
type Line struct {
	Text   string  `json:"text"`
	Height float64 `json:"height"` // mean height of the contributing runs
	IsCaps bool    `json:"isCaps"`
}

// NewLine trims text and derives the caps flag from it.
func NewLine(text string, height float64) Line {
	text = strings.TrimSpace(text)
	return Line{
		Text:   text,
		Height: height,
		IsCaps: text == strings.ToUpper(text) && utf8.RuneCountInString(text) > 1,
	}
}

// A Page is the ordered line sequence of one source page.
type Page struct {
	Number int    `json:"page"`
	Lines  []Line `json:"lines"`
}

// Text joins the page's lines with single spaces.
func (p Page) Text() string {
	parts := make([]string, len(p.Lines))
	for i, l := range p.Lines {
		parts[i] = l.Text
	}
	return strings.Join(parts, " ")
}

type accumulator struct {
	text   strings.Builder
	height float64
	runs   int
}

func (a *accumulator) add(run pdf.GlyphRun) {
	a.text.WriteString(run.Text)
	a.height += run.Height
	a.runs++
}

// flush appends the accumulated line to lines unless it is blank, then resets.
func (a *accumulator) flush(lines []Line) []Line {
	text := a.text.String()
	if strings.TrimSpace(text) != "" {
		lines = append(lines, NewLine(text, a.height/float64(max(a.runs, 1))))
	}
	a.text.Reset()
	a.height = 0
	a.runs = 0
	return lines
}

// Reconstruct folds runs, in stream order, into lines. A run starts a new
// line when its baseline differs from the previous run's by more than
// threshold; run texts within a line are concatenated as-is.
func Reconstruct(runs []pdf.GlyphRun, threshold float64) []Line {
	var (
		lines []Line
		acc   accumulator
		lastY float64
		seen  bool
	)
	for _, run := range runs {
		if seen && math.Abs(run.Y-lastY) > threshold {
			lines = acc.flush(lines)
		}
		acc.add(run)
		lastY = run.Y
		seen = true
	}
	return acc.flush(lines)
}
