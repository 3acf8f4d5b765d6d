// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package segment

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sassoftware/pdf-portfolio-xtract/images"
	"github.com/sassoftware/pdf-portfolio-xtract/layout"
)

func page(n int, lines ...layout.Line) layout.Page {
	return layout.Page{Number: n, Lines: lines}
}

func caps(text string) layout.Line { return layout.NewLine(text, 12) }
func body(text string) layout.Line { return layout.NewLine(text, 11) }
func asset(p int, path string) images.Asset {
	return images.Asset{Page: p, ID: path, Path: path, Encoding: images.JPEG}
}

func TestTitleCandidate(t *testing.T) {
	r := DefaultRules()

	l, ok := r.TitleCandidate([]layout.Line{body("intro text"), caps("SMART CHEF")})
	require.True(t, ok)
	assert.Equal(t, "SMART CHEF", l.Text)

	l, ok = r.TitleCandidate([]layout.Line{body("small"), layout.NewLine("Big Heading", 16)})
	require.True(t, ok)
	assert.Equal(t, "Big Heading", l.Text)

	_, ok = r.TitleCandidate([]layout.Line{layout.NewLine("Exactly fifteen", 15)})
	assert.False(t, ok, "height must exceed the threshold")

	_, ok = r.TitleCandidate([]layout.Line{body("a"), body("b"), body("c"), caps("FOURTH")})
	assert.False(t, ok, "only the header lines are considered")

	_, ok = r.TitleCandidate(nil)
	assert.False(t, ok)
}

func TestTitleCandidate_LengthBoundary(t *testing.T) {
	r := DefaultRules()
	_, ok := r.TitleCandidate([]layout.Line{caps(strings.Repeat("A", 49))})
	assert.True(t, ok)
	_, ok = r.TitleCandidate([]layout.Line{caps(strings.Repeat("A", 50))})
	assert.False(t, ok)
	_, ok = r.TitleCandidate([]layout.Line{caps(strings.Repeat("É", 49))})
	assert.True(t, ok, "length counts runes")
}

func TestDenied(t *testing.T) {
	r := DefaultRules()
	for _, title := range []string{"PORTFOLIO", "portfolio", "PORTFOLIO 2024", "2024 Works", "Contact", "INDEX", "cover"} {
		assert.True(t, r.Denied(title), title)
	}
	for _, title := range []string{"SMART CHEF", "PORTFOLIO REVIEW", "2024", ""} {
		assert.False(t, r.Denied(title), title)
	}
}

func TestCategory(t *testing.T) {
	r := DefaultRules()
	tests := []struct {
		text string
		want string
	}{
		{"SMART CHEF App Design / UI UX", "App Design"},
		{"Branding and logos for a retreat", "Logos"},
		{"LOGOS BRANDING", "Logos"},
		{"Festival posters", "Posters"},
		{"A ui/ux case study", "UI/UX"},
		{"Corporate Identity", "Design"},
		{"", "Design"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.Category(tt.text), tt.text)
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"SMART CHEF":           "smart-chef",
		"Forest Branding":      "forest-branding",
		"UI/UX":                "uiux",
		"O'Brien Studio":       "obrien-studio",
		"Smart & Chef":         "smart-and-chef",
		"  UI/UX -- Redesign ": "uiux-redesign",
		"Café Été":             "cafe-ete",
		"Straße":               "strasse",
		"Project #1 (2024)":    "project-1-2024",
		"Well-Known Brand":     "well-known-brand",
		"!!!":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slug(in), in)
	}
}

func TestStep_Transitions(t *testing.T) {
	r := DefaultRules()

	s, done := r.Step(NoProject, page(1, caps("PORTFOLIO 2024"), layout.NewLine("John Doe - Designer", 20)), []images.Asset{asset(1, "orphan")})
	assert.Nil(t, done)
	_, open := s.Building()
	assert.False(t, open, "denied title keeps NoProject and drops images")

	s, done = r.Step(s, page(2, caps("SMART CHEF"), body("App Design")), []images.Asset{asset(2, "a")})
	assert.Nil(t, done)
	p, open := s.Building()
	require.True(t, open)
	assert.Equal(t, Project{ID: "smart-chef", Title: "SMART CHEF", Category: "App Design", Tags: []string{}, Images: []string{"a"}, SourcePage: 2}, p)

	before := s
	s, done = r.Step(s, page(3, body("More screens")), []images.Asset{asset(3, "b")})
	assert.Nil(t, done)
	p, _ = s.Building()
	assert.Equal(t, []string{"a", "b"}, p.Images)
	old, _ := before.Building()
	assert.Equal(t, []string{"a"}, old.Images, "Step must not mutate its input state")

	s, done = r.Step(s, page(4, caps("FOREST BRANDING")), []images.Asset{asset(4, "c")})
	require.NotNil(t, done)
	assert.Equal(t, "smart-chef", done.ID)
	assert.Equal(t, []string{"a", "b"}, done.Images)

	last := r.Finish(s)
	require.NotNil(t, last)
	assert.Equal(t, "forest-branding", last.ID)
	assert.Equal(t, "Branding", last.Category)
	assert.Equal(t, 4, last.SourcePage)

	assert.Nil(t, r.Finish(NoProject))
}

func TestStep_DeniedMidDocumentKeepsProject(t *testing.T) {
	r := DefaultRules()
	s, _ := r.Step(NoProject, page(1, caps("SMART CHEF")), nil)
	s, done := r.Step(s, page(2, caps("CONTACT")), []images.Asset{asset(2, "x")})
	assert.Nil(t, done)
	p, _ := s.Building()
	assert.Equal(t, "SMART CHEF", p.Title)
	assert.Equal(t, []string{"x"}, p.Images)
}

func TestSegment_ImageOrder(t *testing.T) {
	r := DefaultRules()
	assets := []images.Asset{asset(1, "p1-c"), asset(2, "p2-a"), asset(1, "p1-a"), asset(1, "p1-b")}
	projects := r.Segment([]layout.Page{page(1, caps("ONE")), page(2, body("cont"))}, assets)
	require.Len(t, projects, 1)
	assert.Equal(t, []string{"p1-c", "p1-a", "p1-b", "p2-a"}, projects[0].Images)
}

func TestSegment_NoTitles(t *testing.T) {
	r := DefaultRules()
	projects := r.Segment(
		[]layout.Page{page(1, body("lower case")), page(2)},
		[]images.Asset{asset(1, "a"), asset(2, "b")},
	)
	assert.NotNil(t, projects)
	assert.Empty(t, projects)
}

func TestSegment_SlugCollisionKept(t *testing.T) {
	r := DefaultRules()
	projects := r.Segment([]layout.Page{page(1, caps("NEW WAVE")), page(2, layout.NewLine("New Wave", 30))}, nil)
	require.Len(t, projects, 2)
	assert.Equal(t, projects[0].ID, projects[1].ID)
}

func TestProject_JSON(t *testing.T) {
	r := DefaultRules()
	projects := r.Segment([]layout.Page{page(5, caps("LOGO SET"))}, nil)
	b, err := json.Marshal(projects[0])
	require.NoError(t, err)
	assert.Equal(t, `{"id":"logo-set","title":"LOGO SET","category":"Design","tags":[],"description":"","images":[],"sourcePage":5}`, string(b))
}

func TestLoadRules(t *testing.T) {
	rules, err := LoadRules(strings.NewReader("title_height: 20\ncategories: [Packaging, Logos]\n"))
	require.NoError(t, err)
	assert.Equal(t, 20.0, rules.TitleHeight)
	assert.Equal(t, []string{"Packaging", "Logos"}, rules.Categories)
	assert.Equal(t, 3, rules.HeaderLines)
	assert.Equal(t, DefaultRules().Denylist, rules.Denylist)

	rules, err = LoadRules(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), rules)
}

func TestLoadRules_Invalid(t *testing.T) {
	_, err := LoadRules(strings.NewReader("header_lines: 0\n"))
	assert.ErrorContains(t, err, "invalid rules")

	_, err = LoadRules(strings.NewReader("header_lines: [oops\n"))
	assert.ErrorContains(t, err, "decode rules")
}

func TestDefaultRules_Valid(t *testing.T) {
	assert.NoError(t, DefaultRules().Validate())
}
