// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package mockdoc writes small synthetic portfolio PDFs.
package mockdoc

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
)

// Assemble builds a PDF with a classic cross-reference table. objects[i] is
// the body of object i+1; object 1 must be the document catalog.
func Assemble(objects []string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// Stream formats a stream object body with its /Length filled in.
func Stream(dict string, data []byte) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(data), data)
}

// ImageKind selects how an image payload is encoded.
type ImageKind int

const (
	// JPEGImage is stored with /DCTDecode.
	JPEGImage ImageKind = iota
	// RawImage is RGB samples stored with /FlateDecode.
	RawImage
)

// A Text is one string drawn in Helvetica.
type Text struct {
	Content string
	Size    float64
	X, Y    float64
}

// An Image is a solid-colour raster drawn into a box on the page.
type Image struct {
	Kind          ImageKind
	Width, Height int // pixels
	Color         color.RGBA
	X, Y, W, H    float64
}

// A PageSpec describes the content of one page.
type PageSpec struct {
	Texts  []Text
	Images []Image
}

// A Doc is an ordered list of pages. Every page owns its resource dictionary.
type Doc struct {
	Pages []PageSpec
}

// Bytes renders the document.
func (d Doc) Bytes() ([]byte, error) {
	// 1 catalog, 2 page tree, 3 font, then per page: page, contents, images.
	objects := []string{"<< /Type /Catalog /Pages 2 0 R >>", "", "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"}
	var kids []string
	for _, p := range d.Pages {
		pageNum := len(objects) + 1
		contentsNum := pageNum + 1
		kids = append(kids, fmt.Sprintf("%d 0 R", pageNum))

		var content bytes.Buffer
		var xobjects []string
		imageObjs := make([]string, 0, len(p.Images))
		for i, img := range p.Images {
			body, err := img.object()
			if err != nil {
				return nil, err
			}
			name := fmt.Sprintf("Im%d", i+1)
			xobjects = append(xobjects, fmt.Sprintf("/%s %d 0 R", name, contentsNum+1+i))
			imageObjs = append(imageObjs, body)
			fmt.Fprintf(&content, "q %g 0 0 %g %g %g cm /%s Do Q\n", img.W, img.H, img.X, img.Y, name)
		}
		for _, t := range p.Texts {
			fmt.Fprintf(&content, "BT /F1 %g Tf %g %g Td (%s) Tj ET\n", t.Size, t.X, t.Y, escape(t.Content))
		}

		resources := "<< /Font << /F1 3 0 R >>"
		if len(xobjects) > 0 {
			resources += " /XObject << " + strings.Join(xobjects, " ") + " >>"
		}
		resources += " >>"
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources %s /Contents %d 0 R >>", resources, contentsNum),
			Stream("", content.Bytes()),
		)
		objects = append(objects, imageObjs...)
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids))
	return Assemble(objects), nil
}

// WriteFile renders the document to path, creating parent directories.
func (d Doc) WriteFile(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func (img Image) pixels() *image.RGBA {
	w, h := max(img.Width, 1), max(img.Height, 1)
	m := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetRGBA(x, y, img.Color)
		}
	}
	return m
}

func (img Image) object() (string, error) {
	m := img.pixels()
	dict := fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceRGB /BitsPerComponent 8",
		m.Rect.Dx(), m.Rect.Dy())
	var data bytes.Buffer
	switch img.Kind {
	case JPEGImage:
		if err := jpeg.Encode(&data, m, &jpeg.Options{Quality: 90}); err != nil {
			return "", fmt.Errorf("encode jpeg: %w", err)
		}
		return Stream(dict+" /Filter /DCTDecode", data.Bytes()), nil
	case RawImage:
		zw := zlib.NewWriter(&data)
		for i := 0; i < len(m.Pix); i += 4 {
			if _, err := zw.Write(m.Pix[i : i+3]); err != nil {
				return "", err
			}
		}
		if err := zw.Close(); err != nil {
			return "", err
		}
		return Stream(dict+" /Filter /FlateDecode", data.Bytes()), nil
	}
	return "", fmt.Errorf("unknown image kind %d", img.Kind)
}

var escaper = strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)

func escape(s string) string {
	return escaper.Replace(s)
}

// Sample is a four-page portfolio: a cover page, a two-page project and a
// one-page project, each project page carrying one JPEG.
func Sample() Doc {
	red := color.RGBA{R: 200, G: 30, B: 30, A: 255}
	jpg := func(x, y, w, h float64) Image {
		return Image{Kind: JPEGImage, Width: 8, Height: 8, Color: red, X: x, Y: y, W: w, H: h}
	}
	return Doc{Pages: []PageSpec{
		{Texts: []Text{
			{Content: "PORTFOLIO 2024", Size: 30, X: 50, Y: 700},
			{Content: "John Doe - Designer", Size: 20, X: 50, Y: 650},
		}},
		{
			Texts: []Text{
				{Content: "SMART CHEF", Size: 40, X: 50, Y: 750},
				{Content: "App Design / UI UX", Size: 15, X: 50, Y: 700},
			},
			Images: []Image{jpg(50, 400, 200, 200)},
		},
		{
			Texts:  []Text{{Content: "More screens for Smart Chef", Size: 12, X: 50, Y: 750}},
			Images: []Image{jpg(300, 400, 200, 200)},
		},
		{
			Texts: []Text{
				{Content: "FOREST BRANDING", Size: 35, X: 50, Y: 750},
				{Content: "Corporate Identity", Size: 15, X: 50, Y: 700},
			},
			Images: []Image{jpg(50, 100, 400, 300)},
		},
	}}
}
