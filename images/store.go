// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package images

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileName is the name under which an image is stored.
func FileName(page int, id, ext string) string {
	return fmt.Sprintf("page-%d-img_%s.%s", page, id, ext)
}

// DirStore writes payloads as files in Dir, creating it on first use.
type DirStore struct {
	Dir string
}

// Put writes data to Dir and returns the file path. A partial file is
// removed when the copy fails.
func (s DirStore) Put(ctx context.Context, page int, id, ext string, data io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}
	path := filepath.Join(s.Dir, FileName(page, id, ext))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
