// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package images recovers embedded raster images from page resources.
//
// Only JPEG payloads are re-emitted. Anything else reachable from a page's
// XObject dictionary is skipped without error.
package images

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/sassoftware/pdf-portfolio-xtract/logger"
	"github.com/sassoftware/pdf-portfolio-xtract/pdf"
)

// JPEG is the only encoding the recoverer emits.
const JPEG = "jpg"

// An Asset is one recovered image.
type Asset struct {
	Page     int    `json:"page"`
	ID       string `json:"id"`
	Path     string `json:"path"`
	Width    int64  `json:"width"`  // as declared by the image dictionary
	Height   int64  `json:"height"` // as declared by the image dictionary
	Encoding string `json:"encoding"`
	Size     int64  `json:"size"`
}

// A Store persists recovered payloads and returns a handle for each.
type Store interface {
	Put(ctx context.Context, page int, id, ext string, data io.Reader) (string, error)
}

// imageID names an XObject entry by its indirect reference, or by its
// resource name when the entry is a direct object.
func imageID(xobjects pdf.Value, name string) string {
	if ref, ok := xobjects.RefOf(name); ok {
		return fmt.Sprintf("%d-%d", ref.Num, ref.Gen)
	}
	return name
}

// jpegStages reports how many leading filter stages must be decoded to reach
// a JPEG payload. ok is false when the stream is not DCT encoded at its
// final stage.
func jpegStages(filters []string) (n int, ok bool) {
	if len(filters) == 0 || filters[len(filters)-1] != "DCTDecode" {
		return 0, false
	}
	return len(filters) - 1, true
}

// Recover walks the XObject dictionary of page, in the order its entries
// are written, and writes every JPEG image to store. number is the 1-based
// page number used in identifiers. Missing dictionaries, unsupported
// encodings and payloads that fail to decode are skipped; only store
// failures and cancellation are returned.
func Recover(ctx context.Context, page pdf.Page, number int, store Store) ([]Asset, error) {
	xobjects := page.Resources().Key("XObject")
	if xobjects.Kind() != pdf.Dict {
		return nil, nil
	}

	var assets []Asset
	for _, name := range xobjects.OrderedKeys() {
		if err := ctx.Err(); err != nil {
			return assets, err
		}
		obj := xobjects.Key(name)
		if obj.Kind() != pdf.Stream || obj.Key("Subtype").Name() != "Image" {
			continue
		}
		id := imageID(xobjects, name)
		filters := obj.Filters()
		stages, ok := jpegStages(filters)
		if !ok {
			logger.Debug("skipping image with unsupported encoding", "page", number, "id", id, "filters", filters)
			continue
		}

		data, err := payload(obj, stages)
		if err != nil {
			logger.Debug("skipping image that cannot be decoded", "page", number, "id", id, "filters", filters, "err", err)
			continue
		}
		path, err := store.Put(ctx, number, id, JPEG, bytes.NewReader(data))
		if err != nil {
			return assets, fmt.Errorf("store image %s on page %d: %w", id, number, err)
		}
		assets = append(assets, Asset{
			Page:     number,
			ID:       id,
			Path:     path,
			Width:    obj.Key("Width").Int64(),
			Height:   obj.Key("Height").Int64(),
			Encoding: JPEG,
			Size:     int64(len(data)),
		})
		logger.Debug("recovered image", "page", number, "id", id, "bytes", len(data))
	}
	return assets, nil
}

// payload reads the JPEG bytes of obj, decoding the first stages filters.
func payload(obj pdf.Value, stages int) ([]byte, error) {
	var rc io.ReadCloser
	if stages == 0 {
		rc = obj.RawReader()
	} else {
		rc = obj.DecodeUntil(stages)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
