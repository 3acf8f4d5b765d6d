// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package segment splits a page sequence into project records.
//
// Segmentation is a fold over pages in ascending order. The State carries the
// project being built; Step consumes one page and its images and may emit
// the previous project when a new title starts.
package segment

import (
	"slices"

	"github.com/sassoftware/pdf-portfolio-xtract/images"
	"github.com/sassoftware/pdf-portfolio-xtract/layout"
)

// A Project is one portfolio entry. Field order is the serialised order.
type Project struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	SourcePage  int      `json:"sourcePage"`
}

// State is the segmenter state. The zero value is NoProject.
type State struct {
	project Project
	open    bool
}

// NoProject is the initial state.
var NoProject = State{}

// Building reports whether a project is in progress and returns a copy of it.
func (s State) Building() (Project, bool) {
	p := s.project
	p.Images = slices.Clone(p.Images)
	return p, s.open
}

func (r Rules) start(title string, page layout.Page) State {
	return State{open: true, project: Project{
		ID:         Slug(title),
		Title:      title,
		Category:   r.Category(page.Text()),
		Tags:       []string{},
		Images:     []string{},
		SourcePage: page.Number,
	}}
}

// Step applies one page to s. It returns the next state and, when the page
// opens a new project, the project it closes. s itself is not modified.
func (r Rules) Step(s State, page layout.Page, assets []images.Asset) (State, *Project) {
	var done *Project
	if line, ok := r.TitleCandidate(page.Lines); ok && !r.Denied(line.Text) {
		if s.open {
			p := s.project
			done = &p
		}
		s = r.start(line.Text, page)
	}
	if s.open && len(assets) > 0 {
		imgs := slices.Clip(s.project.Images)
		for _, a := range assets {
			imgs = append(imgs, a.Path)
		}
		s.project.Images = imgs
	}
	return s, done
}

// Finish returns the project still open in s, if any.
func (r Rules) Finish(s State) *Project {
	if !s.open {
		return nil
	}
	p := s.project
	return &p
}

// Segment folds pages, in the order given, into projects. assets are
// matched to pages by page number and keep their relative order.
func (r Rules) Segment(pages []layout.Page, assets []images.Asset) []Project {
	byPage := make(map[int][]images.Asset)
	for _, a := range assets {
		byPage[a.Page] = append(byPage[a.Page], a)
	}
	projects := []Project{}
	var s State
	for _, page := range pages {
		var done *Project
		s, done = r.Step(s, page, byPage[page.Number])
		if done != nil {
			projects = append(projects, *done)
		}
	}
	if p := r.Finish(s); p != nil {
		projects = append(projects, *p)
	}
	return projects
}
