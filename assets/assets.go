// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package assets lays recovered images out per project and writes the
// project list as JSON.
package assets

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/sassoftware/pdf-portfolio-xtract/logger"
	"github.com/sassoftware/pdf-portfolio-xtract/segment"
)

// Options controls where Publish writes.
type Options struct {
	// AssetsDir receives one sub-directory per project.
	AssetsDir string
	// OutputPath is the JSON file to write. Empty skips writing.
	OutputPath string
}

// Publish copies every project image into <AssetsDir>/<id>/ and rewrites
// the image references to "<base of AssetsDir>/<id>/<file>". The rewritten
// projects are written to OutputPath and returned; the input is not
// modified.
func Publish(projects []segment.Project, opts Options) ([]segment.Project, error) {
	prefix := filepath.Base(filepath.Clean(opts.AssetsDir))
	out := make([]segment.Project, 0, len(projects))
	for _, p := range projects {
		dir := filepath.Join(opts.AssetsDir, p.ID)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create project dir: %w", err)
		}
		refs := make([]string, 0, len(p.Images))
		for _, src := range p.Images {
			name := filepath.Base(src)
			if err := copyFile(src, filepath.Join(dir, name)); err != nil {
				return nil, fmt.Errorf("project %s: %w", p.ID, err)
			}
			refs = append(refs, path.Join(prefix, p.ID, name))
		}
		p.Images = refs
		p.Tags = slices.Clone(p.Tags)
		if p.Tags == nil {
			p.Tags = []string{}
		}
		out = append(out, p)
		logger.Debug("project published", "id", p.ID, "images", len(refs))
	}

	if opts.OutputPath == "" {
		return out, nil
	}
	if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(opts.OutputPath)
	if err != nil {
		return nil, err
	}
	if err := WriteJSON(f, out); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	logger.Info("output written", "path", opts.OutputPath, "projects", len(out))
	return out, nil
}

// WriteJSON writes projects as a JSON array indented by two spaces.
func WriteJSON(w io.Writer, projects []segment.Project) error {
	if projects == nil {
		projects = []segment.Project{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(projects); err != nil {
		return fmt.Errorf("encode projects: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
