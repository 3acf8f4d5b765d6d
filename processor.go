// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/semaphore"

	"github.com/sassoftware/pdf-portfolio-xtract/images"
	"github.com/sassoftware/pdf-portfolio-xtract/layout"
	"github.com/sassoftware/pdf-portfolio-xtract/logger"
	"github.com/sassoftware/pdf-portfolio-xtract/pdf"
	"github.com/sassoftware/pdf-portfolio-xtract/segment"
	"github.com/sassoftware/pdf-portfolio-xtract/tracer"
)

// Result is everything extracted from one document.
type Result struct {
	Pages    []layout.Page     `json:"pages"`
	Images   []images.Asset    `json:"images"`
	Projects []segment.Project `json:"projects"`
}

var errNullPage = errors.New("null page")

// ExtractorStrategy defines how the lines of a single page are produced.
// Different strategies handle errors differently (strict vs. best-effort).
type ExtractorStrategy interface {
	ExtractPage(ctx context.Context, page pdf.Page, number int, threshold float64) (layout.Page, error)
}

// StrictExtractor enforces strict parsing.
// If any page fails, the entire extraction fails.
type StrictExtractor struct{}

func (s *StrictExtractor) ExtractPage(ctx context.Context, page pdf.Page, number int, threshold float64) (layout.Page, error) {
	if page.V.IsNull() {
		return layout.Page{Number: number}, errNullPage
	}
	runs, err := page.GlyphRuns()
	if err != nil {
		return layout.Page{Number: number}, err
	}
	return layout.Page{Number: number, Lines: layout.Reconstruct(runs, threshold)}, nil
}

// BestEffortExtractor tolerates errors.
// A page whose content cannot be fully interpreted keeps the lines read
// before the failure.
type BestEffortExtractor struct{}

func (b *BestEffortExtractor) ExtractPage(ctx context.Context, page pdf.Page, number int, threshold float64) (layout.Page, error) {
	if page.V.IsNull() {
		logger.Debug("BestEffortExtractor: null page, ignoring", "page", number, true)
		return layout.Page{Number: number}, nil
	}
	runs, err := page.GlyphRuns()
	if err != nil {
		logger.Debug("BestEffortExtractor: failed to interpret page, keeping partial text", "page", number, "runs", len(runs), "err", err, true)
	}
	return layout.Page{Number: number, Lines: layout.Reconstruct(runs, threshold)}, nil
}

// Processor runs the extraction pipeline with a bound on concurrent
// documents. Pages within one document are handled in ascending order.
type Processor struct {
	cfg       *Config
	sem       *semaphore.Weighted
	extractor ExtractorStrategy
}

// NewProcessor validates the config and creates a new processor.
// Selects the correct ExtractorStrategy (Strict or BestEffort).
func NewProcessor(cfg *Config) (*Processor, error) {
	if cfg.Logger != nil {
		logger.SetLogger(cfg.Logger)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var extractor ExtractorStrategy
	switch cfg.ParsingMode {
	case Strict:
		extractor = &StrictExtractor{}
	case BestEffort:
		extractor = &BestEffortExtractor{}
	}

	tracer.Enable(cfg.DebugOn)
	pdf.DebugOn = cfg.DebugOn

	logger.Debug("Processor initialized", "parsing_mode", cfg.ParsingMode, "max_concurrent_docs", cfg.MaxConcurrentDocs, true)

	return &Processor{
		cfg:       cfg,
		sem:       semaphore.NewWeighted(int64(cfg.MaxConcurrentDocs)),
		extractor: extractor,
	}, nil
}

// Extract opens the document at path, writes its JPEG images to store and
// returns its pages, images and projects.
func (p *Processor) Extract(ctx context.Context, path string, store images.Store) (*Result, error) {
	logger.Debug("Starting extraction", "path", path, true)

	if err := p.acquireSlot(ctx); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)

	f, r, err := pdf.Open(path)
	if err != nil {
		logger.Error("Failed to open document", "path", path, "err", err)
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return p.run(ctx, r, store)
}

// ExtractReader is Extract for a document already in memory or on another
// medium.
func (p *Processor) ExtractReader(ctx context.Context, rd io.ReaderAt, size int64, store images.Store) (*Result, error) {
	if err := p.acquireSlot(ctx); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)

	r, err := pdf.NewReader(rd, size)
	if err != nil {
		logger.Error("Failed to load document", "err", err)
		return nil, fmt.Errorf("load document: %w", err)
	}
	return p.run(ctx, r, store)
}

func (p *Processor) run(ctx context.Context, r *pdf.Reader, store images.Store) (*Result, error) {
	meta := r.Info()
	total := r.NumPage()
	logger.Info("Document loaded", "pages", total, "title", meta.Title, "producer", meta.Producer)

	res := &Result{
		Pages:  make([]layout.Page, 0, total),
		Images: []images.Asset{},
	}
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)

		lp, err := p.extractor.ExtractPage(ctx, page, i, p.cfg.LineThreshold)
		if err != nil {
			logger.Debug("Strict mode error, stopping extraction", "page", i, "err", err, true)
			return nil, fmt.Errorf("strict mode failed on page %d: %w", i, err)
		}
		assets, err := images.Recover(ctx, page, i, store)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		logger.Debug("Page extracted", "page", i, "lines", len(lp.Lines), "images", len(assets), true)

		res.Pages = append(res.Pages, lp)
		res.Images = append(res.Images, assets...)
	}

	res.Projects = p.cfg.Rules.Segment(res.Pages, res.Images)
	logger.Info("Extraction completed", "pages", total, "images", len(res.Images), "projects", len(res.Projects))
	return res, nil
}

func (p *Processor) acquireSlot(ctx context.Context) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		logger.Debug("Failed to acquire slot", "err", err, true)
		return fmt.Errorf("acquire slot: %w", err)
	}
	logger.Debug("Slot acquired successfully", true)
	return nil
}
