// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package segment

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sassoftware/pdf-portfolio-xtract/layout"
)

// Rules holds the heuristics used to find project boundaries.
type Rules struct {
	// HeaderLines is how many leading lines of a page may hold a title.
	HeaderLines int `yaml:"header_lines" validate:"min=1"`
	// TitleHeight is the average line height above which a line is prominent.
	TitleHeight float64 `yaml:"title_height" validate:"gt=0"`
	// MaxTitleLength is the exclusive upper bound on title length in runes.
	MaxTitleLength int `yaml:"max_title_length" validate:"min=2"`
	// Denylist holds front-matter headings that never open a project.
	Denylist []string `yaml:"denylist" validate:"dive,required"`
	// Categories are matched against page text in order.
	Categories      []string `yaml:"categories" validate:"dive,required"`
	DefaultCategory string   `yaml:"default_category" validate:"required"`
}

// DefaultRules returns the built-in heuristics.
func DefaultRules() Rules {
	return Rules{
		HeaderLines:     3,
		TitleHeight:     15,
		MaxTitleLength:  50,
		Denylist:        []string{"PORTFOLIO", "WORKS", "CONTACT", "INDEX", "COVER"},
		Categories:      []string{"Logos", "Events", "Posters", "Social Media", "Branding", "App Design", "UI/UX"},
		DefaultCategory: "Design",
	}
}

var validate = validator.New()

// Validate checks that every rule is usable.
func (r Rules) Validate() error {
	return validate.Struct(r)
}

// LoadRules reads YAML overrides on top of DefaultRules. Keys absent from
// the document keep their default; a list given in the document replaces the
// default list.
func LoadRules(rd io.Reader) (Rules, error) {
	rules := DefaultRules()
	if err := yaml.NewDecoder(rd).Decode(&rules); err != nil && !errors.Is(err, io.EOF) {
		return Rules{}, fmt.Errorf("decode rules: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, fmt.Errorf("invalid rules: %w", err)
	}
	return rules, nil
}

// TitleCandidate returns the first header line that is all caps or taller
// than TitleHeight, and shorter than MaxTitleLength.
func (r Rules) TitleCandidate(lines []layout.Line) (layout.Line, bool) {
	for _, l := range lines[:min(r.HeaderLines, len(lines))] {
		if (l.IsCaps || l.Height > r.TitleHeight) && utf8.RuneCountInString(l.Text) < r.MaxTitleLength {
			return l, true
		}
	}
	return layout.Line{}, false
}

// Denied reports whether title is a front-matter heading. Purely numeric
// words are ignored, so "PORTFOLIO 2024" is denied like "Portfolio".
func (r Rules) Denied(title string) bool {
	var words []string
	for _, w := range strings.Fields(title) {
		if strings.IndexFunc(w, func(c rune) bool { return !unicode.IsDigit(c) }) >= 0 {
			words = append(words, w)
		}
	}
	key := strings.Join(words, " ")
	if key == "" {
		return false
	}
	for _, d := range r.Denylist {
		if strings.EqualFold(key, d) {
			return true
		}
	}
	return false
}

// Category returns the first category mentioned in text, ignoring case.
func (r Rules) Category(text string) string {
	lower := strings.ToLower(text)
	for _, c := range r.Categories {
		if strings.Contains(lower, strings.ToLower(c)) {
			return c
		}
	}
	return r.DefaultCategory
}

// slugWords spells out symbols that would otherwise vanish from a slug.
var slugWords = map[rune]string{
	'&': "and", '|': "or", '<': "less", '>': "greater",
	'$': "dollar", '%': "percent", '€': "euro", '£': "pound", '¥': "yen",
	'ß': "ss", 'æ': "ae", 'Æ': "AE", 'ø': "o", 'Ø': "O", 'œ': "oe", 'Œ': "OE",
	'đ': "d", 'Đ': "D", 'ł': "l", 'Ł': "L",
}

// Slug turns a title into a lowercase identifier. Whitespace and hyphen runs
// become a single dash, other punctuation is dropped, accents are folded to
// their base letter and a few symbols are spelled out, so "Smart & Chef"
// becomes "smart-and-chef" and "UI/UX" becomes "uiux".
func Slug(title string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}
	var b strings.Builder
	for _, c := range folded {
		if w, ok := slugWords[c]; ok {
			b.WriteString(w)
			continue
		}
		switch {
		case c == '-' || unicode.IsSpace(c):
			b.WriteByte(' ')
		case ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9'):
			b.WriteRune(c)
		}
	}
	return strings.ToLower(strings.Join(strings.Fields(b.String()), "-"))
}
